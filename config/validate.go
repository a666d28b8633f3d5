package config

import (
	"fmt"
	"strings"

	"eqlwire/wire"
)

// validate checks the fully-merged ResolvedConfig against spec section
// 4.4's field-level rules, run once at the end of Resolve.
func validate(c *ResolvedConfig) error {
	if c.Host.set && strings.TrimSpace(c.Host.value) == "" {
		return &wire.ConfigError{Msg: "host must not be empty"}
	}
	if strings.ContainsAny(c.HostString(), "/,") {
		return &wire.ConfigError{Msg: fmt.Sprintf("invalid host %q", c.HostString())}
	}
	if p := c.PortNumber(); p < 1 || p > 65535 {
		return &wire.ConfigError{Msg: fmt.Sprintf("invalid port %d: must be between 1 and 65535", p)}
	}
	if c.Database.set && strings.TrimSpace(c.Database.value) == "" {
		return &wire.ConfigError{Msg: "database must not be empty"}
	}
	if c.User.set && strings.TrimSpace(c.User.value) == "" {
		return &wire.ConfigError{Msg: "user must not be empty"}
	}
	return nil
}
