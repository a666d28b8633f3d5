// Package config resolves a single validated connection endpoint from
// explicit call-site options, environment variables, a credentials
// file, and project-linked instance metadata, following the
// precedence-and-sticky-field model of spec section 4.4. It plays the
// role the teacher's config.Config/config.Parse play for a handful of
// flags, generalized to a multi-source, multi-precedence merge.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"eqlwire/wire"
)

// Source labels a field's origin, for diagnostics and for the sticky
// "first wins" rule.
type Source string

const (
	SourceExplicit    Source = "explicit"
	SourceEnv         Source = "env"
	SourceDSN         Source = "dsn"
	SourceCredentials Source = "credentials-file"
	SourceServiceFile Source = "service-file"
	SourcePassFile    Source = "pass-file"
	SourceProject     Source = "project"
	SourceDefault     Source = "default"
)

// Defaults, matching spec section 6.
const (
	DefaultHost     = "localhost"
	DefaultPort     = 5656
	DefaultDatabase = "eqldb"
	DefaultUser     = "eqldb"
)

// field is a sticky optional value: once set, later writes are no-ops.
type field[T any] struct {
	value T
	set   bool
	from  Source
}

func (f *field[T]) setIfEmpty(v T, from Source) {
	if f.set {
		return
	}
	f.value = v
	f.set = true
	f.from = from
}

// Options is the structured input accepted by Resolve, mirroring spec
// section 4.4's field list.
type Options struct {
	DSN          string
	InstanceName string

	CredentialsFile string

	Host     string
	Port     int
	Database string
	User     string
	Password string

	TLSCAFile         string
	TLSCAData         []byte
	TLSVerifyHostname *bool

	ServerSettings map[string]string

	Timeout            time.Duration
	CommandTimeout     time.Duration
	WaitUntilAvailable time.Duration

	Logging bool
}

// ResolvedConfig is the validated endpoint produced by Resolve, with a
// source label recorded per field for diagnostics.
type ResolvedConfig struct {
	Host     field[string]
	Port     field[int]
	Database field[string]
	User     field[string]
	Password field[string]

	TLSCAData         field[[]byte]
	TLSVerifyHostname field[bool]

	ServerSettings map[string]string
}

// HostString returns the resolved host, applying the default if unset.
func (c *ResolvedConfig) HostString() string {
	if c.Host.set {
		return c.Host.value
	}
	return DefaultHost
}

// PortNumber returns the resolved port, applying the default if unset.
func (c *ResolvedConfig) PortNumber() int {
	if c.Port.set {
		return c.Port.value
	}
	return DefaultPort
}

// DatabaseName returns the resolved database, applying the default if
// unset.
func (c *ResolvedConfig) DatabaseName() string {
	if c.Database.set {
		return c.Database.value
	}
	return DefaultDatabase
}

// UserName returns the resolved user, applying the default if unset.
func (c *ResolvedConfig) UserName() string {
	if c.User.set {
		return c.User.value
	}
	return DefaultUser
}

// PasswordString returns the resolved password, or "" if unset.
func (c *ResolvedConfig) PasswordString() string {
	return c.Password.value
}

// VerifyHostname reports whether hostname verification is enabled,
// defaulting to true unless a custom CA was supplied (spec's TLS
// policy: verify iff no custom CA was provided).
func (c *ResolvedConfig) VerifyHostname() bool {
	if c.TLSVerifyHostname.set {
		return c.TLSVerifyHostname.value
	}
	return !c.TLSCAData.set
}

// FieldSource reports which source populated a named field, or "" if
// the field was never set (and so is at its default).
func (c *ResolvedConfig) FieldSource(name string) Source {
	switch name {
	case "host":
		return c.Host.from
	case "port":
		return c.Port.from
	case "database":
		return c.Database.from
	case "user":
		return c.User.from
	case "password":
		return c.Password.from
	case "tls_ca_data":
		return c.TLSCAData.from
	case "tls_verify_hostname":
		return c.TLSVerifyHostname.from
	default:
		return ""
	}
}

// compoundPresent lists which members of {dsn, instanceName,
// credentialsFile, host-or-port} are present in a single options
// value, for the compound-options rule.
func compoundPresent(o Options) []string {
	var present []string
	if strings.TrimSpace(o.DSN) != "" {
		present = append(present, "dsn")
	}
	if strings.TrimSpace(o.InstanceName) != "" {
		present = append(present, "instance name")
	}
	if strings.TrimSpace(o.CredentialsFile) != "" {
		present = append(present, "credentials file")
	}
	if strings.TrimSpace(o.Host) != "" || o.Port != 0 {
		present = append(present, "host/port")
	}
	return present
}

func checkCompound(o Options) error {
	present := compoundPresent(o)
	if len(present) > 1 {
		return &wire.ConfigError{Msg: fmt.Sprintf(
			"Cannot have more than one of dsn, instance name, credentials file or host/port; got %s",
			strings.Join(present, ", "))}
	}
	return nil
}

func parsePort(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid port %q: %w", s, err)
	}
	return n, nil
}

// parseTruthValue parses tls_verify_hostname's case-insensitive
// truth-value set (spec section 4.4): {true,t,yes,y,on,1} for true,
// {false,f,no,n,off,0} for false.
func parseTruthValue(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "on", "1":
		return true, nil
	case "false", "f", "no", "n", "off", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value %q", s)
	}
}
