// Package version reports the build identity of the client, mirrored
// from the same runtime/debug build-info technique the teacher used
// for its server build string, and mixed with the wire protocol
// version the client negotiates on every connection.
package version

import (
	"runtime/debug"
	"strconv"

	"eqlwire/wire"
)

// These vars are set at build time via:
//
//	go build -ldflags "-X eqlwire/version.Tag=v1.0.0 -X eqlwire/version.GitCommit=abc1234 -X eqlwire/version.BuildTime=2026-02-26T00:00:00Z"
var (
	Tag       = "dev"
	GitCommit = "" // empty = auto-detect from build info
	BuildTime = "" // empty = auto-detect from build info
)

// String returns a human-readable identity line for this build,
// including the wire protocol version it speaks.
func String() string {
	commit, buildTime := GitCommit, BuildTime
	if commit == "" || buildTime == "" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					if commit == "" && len(s.Value) >= 8 {
						commit = s.Value[:8]
					}
				case "vcs.time":
					if buildTime == "" {
						buildTime = s.Value
					}
				}
			}
		}
	}
	if commit == "" {
		commit = "unknown"
	}
	if buildTime == "" {
		buildTime = "unknown"
	}
	return "eqlwire " + Tag + " (protocol " +
		strconv.Itoa(int(wire.ProtocolVersionMajor)) + "." + strconv.Itoa(int(wire.ProtocolVersionMinor)) +
		", commit " + commit + ", built " + buildTime + ")"
}
