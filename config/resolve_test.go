package config

import (
	"errors"
	"testing"

	"eqlwire/wire"
)

func TestResolveParseDefaultsErrorsWithoutProjectFile(t *testing.T) {
	env := newFakeEnvironment()
	_, err := resolveWith(env, Options{})
	if err == nil {
		t.Fatal("expected an error with no options, no env, and no project file")
	}
	var cfgErr *wire.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("got %T, want *wire.ConfigError", err)
	}
}

func TestResolveDSNPrecedence(t *testing.T) {
	env := newFakeEnvironment()
	got, err := resolveWith(env, Options{DSN: "edgedb://u:p@h:1234/db"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.HostString() != "h" || got.PortNumber() != 1234 {
		t.Fatalf("got host=%s port=%d, want h:1234", got.HostString(), got.PortNumber())
	}
	if got.UserName() != "u" || got.PasswordString() != "p" || got.DatabaseName() != "db" {
		t.Fatalf("got user=%s password=%s database=%s", got.UserName(), got.PasswordString(), got.DatabaseName())
	}
}

func TestResolveCompoundOptionsConflict(t *testing.T) {
	env := newFakeEnvironment()
	_, err := resolveWith(env, Options{DSN: "edgedb://h/db", Host: "other"})
	if err == nil {
		t.Fatal("expected compound-options ConfigError")
	}
}

func TestResolvePortEnvIgnoredWhenDockerLink(t *testing.T) {
	env := newFakeEnvironment()
	env.vars["EDGEDB_PORT"] = "tcp://x:1"
	env.vars["EDGEDB_HOST"] = "h"
	got, err := resolveWith(env, Options{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.PortNumber() != DefaultPort {
		t.Fatalf("port = %d, want default %d", got.PortNumber(), DefaultPort)
	}
	if got.HostString() != "h" {
		t.Fatalf("host = %s, want h", got.HostString())
	}
}

func TestResolveStickyFieldFirstWins(t *testing.T) {
	env := newFakeEnvironment()
	env.vars["EDGEDB_HOST"] = "from-env"
	got, err := resolveWith(env, Options{Host: "from-explicit"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.HostString() != "from-explicit" {
		t.Fatalf("host = %s, want from-explicit (explicit is sticky over env)", got.HostString())
	}
	if got.FieldSource("host") != SourceExplicit {
		t.Fatalf("host source = %s, want explicit", got.FieldSource("host"))
	}
}

func TestResolveDSNDuplicateQueryKeyRejected(t *testing.T) {
	env := newFakeEnvironment()
	_, err := resolveWith(env, Options{DSN: "edgedb://h/db?tls_ca_file=a&tls_ca_file=b"})
	if err == nil {
		t.Fatal("expected error for duplicate DSN query key")
	}
}

func TestResolveDSNConflictingVariantsRejected(t *testing.T) {
	env := newFakeEnvironment()
	env.vars["SOME_VAR"] = "value"
	_, err := resolveWith(env, Options{DSN: "edgedb://h/db?user=a&user_env=SOME_VAR"})
	if err == nil {
		t.Fatal("expected error for conflicting user/user_env DSN variants")
	}
}

func TestResolveDSNEnvVariant(t *testing.T) {
	env := newFakeEnvironment()
	env.vars["EQL_USER"] = "eve"
	got, err := resolveWith(env, Options{DSN: "edgedb://h/db?user_env=EQL_USER"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.UserName() != "eve" {
		t.Fatalf("user = %s, want eve", got.UserName())
	}
}

func TestResolveAmbiguousDSNFieldSplitsToInstanceName(t *testing.T) {
	env := newFakeEnvironment()
	// "myinstance" has no scheme prefix, so it is treated as an
	// instance name rather than a DSN; with no matching credentials
	// file present, resolution should fail rather than panic.
	_, err := resolveWith(env, Options{DSN: "myinstance"})
	if err == nil {
		t.Fatal("expected an error looking up a nonexistent instance's credentials")
	}
}
