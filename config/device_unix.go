//go:build !windows

package config

import (
	"os"
	"syscall"
)

// deviceID identifies the filesystem device an entry lives on, used
// by findProjectRoot to stop walking upward at a mount boundary.
func deviceID(info os.FileInfo) uint64 {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return uint64(st.Dev)
	}
	return 0
}
