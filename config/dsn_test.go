package config

import "testing"

func TestParseDSNRejectsWrongScheme(t *testing.T) {
	env := newFakeEnvironment()
	if _, err := parseDSN(env, "postgres://h/db"); err == nil {
		t.Fatal("expected error for non-edgedb scheme")
	}
}

func TestParseDSNUnknownQueryParamBecomesServerSetting(t *testing.T) {
	env := newFakeEnvironment()
	o, err := parseDSN(env, "edgedb://h/db?application_name=eqlping")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if o.ServerSettings["application_name"] != "eqlping" {
		t.Fatalf("server settings = %v, want application_name=eqlping", o.ServerSettings)
	}
}

func TestParseDSNWithoutUserinfoOrPort(t *testing.T) {
	env := newFakeEnvironment()
	o, err := parseDSN(env, "edgedb://h/db")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if o.Host != "h" || o.Database != "db" {
		t.Fatalf("got host=%s database=%s", o.Host, o.Database)
	}
	if o.Port != 0 {
		t.Fatalf("port = %d, want 0 (unset, default applies later)", o.Port)
	}
}

func TestParseDSNVerifyHostnameAcceptsFullTruthValueSet(t *testing.T) {
	env := newFakeEnvironment()
	for _, tc := range []struct {
		raw  string
		want bool
	}{
		{"yes", true}, {"Y", true}, {"on", true}, {"T", true},
		{"no", false}, {"N", false}, {"off", false}, {"F", false},
	} {
		o, err := parseDSN(env, "edgedb://h/db?tls_verify_hostname="+tc.raw)
		if err != nil {
			t.Fatalf("parse(%q): %v", tc.raw, err)
		}
		if o.TLSVerifyHostname == nil || *o.TLSVerifyHostname != tc.want {
			t.Fatalf("parse(%q): got %v, want %v", tc.raw, o.TLSVerifyHostname, tc.want)
		}
	}
}

func TestParseDSNVerifyHostnameRejectsGarbage(t *testing.T) {
	env := newFakeEnvironment()
	if _, err := parseDSN(env, "edgedb://h/db?tls_verify_hostname=maybe"); err == nil {
		t.Fatal("expected error for an unrecognized tls_verify_hostname value")
	}
}
