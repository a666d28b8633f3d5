package config

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"

	"eqlwire/wire"
)

// projectMarkerFile is the on-disk marker that links a working
// directory to a named instance, the way danmuck-edgectl's ghostctl
// looks for its own TOML project file in a working tree.
const projectMarkerFile = "eqlwire.toml"

// projectFileContents is the small slice of the marker file this
// resolver cares about: an optional pinned instance name. Real project
// files carry a schema/server-version section too; only the piece the
// resolver consumes is modeled here.
type projectFileContents struct {
	InstanceName string `toml:"instance-name"`
}

// findProjectRoot walks up from the working directory, refusing to
// cross a filesystem device boundary, looking for eqlwire.toml.
func findProjectRoot(env Environment) (string, error) {
	dir, err := env.Getwd()
	if err != nil {
		return "", err
	}
	startInfo, err := os.Stat(dir)
	if err != nil {
		return "", &wire.ConfigError{Msg: fmt.Sprintf("no %q found", projectMarkerFile)}
	}
	startDev := deviceID(startInfo)

	for {
		candidate := filepath.Join(dir, projectMarkerFile)
		if _, err := os.Stat(candidate); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", &wire.ConfigError{Msg: fmt.Sprintf("no %q found", projectMarkerFile)}
		}
		info, err := os.Stat(parent)
		if err != nil || deviceID(info) != startDev {
			return "", &wire.ConfigError{Msg: fmt.Sprintf("no %q found", projectMarkerFile)}
		}
		dir = parent
	}
}

// stashDir computes the per-project stash directory: a SHA-1 hex hash
// of the realpath (with the Windows \\?\ extended-length prefix added
// back if EvalSymlinks stripped it) plus the project directory's
// basename, matching spec section 4.4's stash scheme.
func stashDir(configDir, projectRoot string) (string, error) {
	real, err := filepath.EvalSymlinks(projectRoot)
	if err != nil {
		real = projectRoot
	}
	if runtime.GOOS == "windows" {
		if !strings.HasPrefix(real, `\\`) {
			real = `\\?\` + real
		}
		real = strings.ToLower(real)
	}
	sum := sha1.Sum([]byte(real))
	base := filepath.Base(real)
	name := hex.EncodeToString(sum[:]) + "-" + base
	return filepath.Join(configDir, "projects", name), nil
}

// projectLinkedOptions resolves a working directory to an instance
// name via eqlwire.toml + stash lookup, then to credentials via
// credentialsPathForInstance, exactly as spec section 4.4's
// "project-linked instance" precedence level describes.
func projectLinkedOptions(env Environment) (Options, error) {
	root, err := findProjectRoot(env)
	if err != nil {
		return Options{}, err
	}

	var instance string
	markerPath := filepath.Join(root, projectMarkerFile)
	var pf projectFileContents
	if _, err := toml.DecodeFile(markerPath, &pf); err == nil && pf.InstanceName != "" {
		instance = pf.InstanceName
	}

	if instance == "" {
		configDir, err := platformConfigDir()
		if err != nil {
			return Options{}, err
		}
		stash, err := stashDir(configDir, root)
		if err != nil {
			return Options{}, err
		}
		data, err := os.ReadFile(filepath.Join(stash, "instance-name"))
		if err != nil {
			return Options{}, &wire.ConfigError{Msg: fmt.Sprintf("project %q is not linked to an instance", root)}
		}
		instance = strings.TrimSpace(string(data))
	}

	opts, _, err := lookupInstance(instance)
	return opts, err
}

// platformConfigDir returns the base directory eqlwire stores
// per-instance state under, following the same os.UserConfigDir
// convention the rest of the Go ecosystem uses for XDG-style paths.
func platformConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "eqlwire"), nil
}
