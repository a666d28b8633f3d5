package config

import (
	"log"
	"os"
	"strings"
)

// Environment is the seam between the resolver and real process state
// (os.Getenv, os.Getwd), so tests can supply a fake process without
// touching the real environment. The default implementation below
// wraps the os package directly, the way the teacher's server reaches
// for os.Getenv inline; the interface only exists because config.Resolve
// needs to be testable without env var leakage across tests.
type Environment interface {
	Getenv(key string) (string, bool)
	Getwd() (string, error)
}

// osEnvironment is the default Environment, backed by the real
// process environment.
type osEnvironment struct{}

func (osEnvironment) Getenv(key string) (string, bool) {
	return os.LookupEnv(key)
}

func (osEnvironment) Getwd() (string, error) {
	return os.Getwd()
}

// DefaultEnvironment is the Environment Resolve uses.
var DefaultEnvironment Environment = osEnvironment{}

const envPrefix = "EDGEDB_"

// envNames lists the scalar EDGEDB_* variables in the order spec
// section 4.4 lists them.
var envNames = []string{
	"DSN",
	"INSTANCE",
	"CREDENTIALS_FILE",
	"HOST",
	"PORT",
	"DATABASE",
	"USER",
	"PASSWORD",
	"TLS_CA_FILE",
	"TLS_VERIFY_HOSTNAME",
}

// envOptions reads the EDGEDB_* variables into an Options value,
// applying the same compound-options rule as explicit options once
// merged by the caller. EDGEDB_PORT beginning with "tcp://" is a
// Docker-link leftover and is ignored with a warning rather than
// parsed as a port.
func envOptions(env Environment) (Options, []string) {
	var o Options
	var present []string

	get := func(name string) (string, bool) {
		v, ok := env.Getenv(envPrefix + name)
		if !ok || v == "" {
			return "", false
		}
		return v, true
	}

	if v, ok := get("DSN"); ok {
		o.DSN = v
	}
	if v, ok := get("INSTANCE"); ok {
		o.InstanceName = v
	}
	if v, ok := get("CREDENTIALS_FILE"); ok {
		o.CredentialsFile = v
	}
	if v, ok := get("HOST"); ok {
		o.Host = v
	}
	if v, ok := get("PORT"); ok {
		if strings.HasPrefix(v, "tcp://") {
			present = append(present, "EDGEDB_PORT ignored: looks like a Docker-link URL, not a port number")
		} else if n, err := parsePort(v); err == nil {
			o.Port = n
		} else {
			present = append(present, "EDGEDB_PORT ignored: "+err.Error())
		}
	}
	if v, ok := get("DATABASE"); ok {
		o.Database = v
	}
	if v, ok := get("USER"); ok {
		o.User = v
	}
	if v, ok := get("PASSWORD"); ok {
		o.Password = v
	}
	if v, ok := get("TLS_CA_FILE"); ok {
		o.TLSCAFile = v
	}
	if v, ok := get("TLS_VERIFY_HOSTNAME"); ok {
		if b, err := parseTruthValue(v); err == nil {
			o.TLSVerifyHostname = &b
		} else {
			present = append(present, "EDGEDB_TLS_VERIFY_HOSTNAME ignored: "+err.Error())
		}
	}
	return o, present
}

// warnf reports a resolution-time warning (malformed EDGEDB_PORT and
// the like). These are correctness signals, not verbose diagnostics,
// and are always printed; Options.Logging does not affect them.
func warnf(format string, args ...any) {
	log.Printf("eqlwire: "+format, args...)
}
