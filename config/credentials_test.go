package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCredentialsRequiresUser(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "creds.json")
	if err := os.WriteFile(path, []byte(`{"host":"h"}`), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := loadCredentials(path); err == nil {
		t.Fatal("expected error for credentials file missing 'user'")
	}
}

func TestLoadCredentialsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "creds.json")
	body := `{"host":"h","port":5656,"database":"db","user":"u","password":"p"}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	o, err := loadCredentials(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if o.Host != "h" || o.Port != 5656 || o.Database != "db" || o.User != "u" || o.Password != "p" {
		t.Fatalf("got %+v", o)
	}
}

func TestLoadCredentialsDecodesTLSCAData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "creds.json")
	pem := "-----BEGIN CERTIFICATE-----\nMII...\n-----END CERTIFICATE-----\n"
	body := `{"host":"h","user":"u","tls_ca_data":"` + pemEscaped(pem) + `"}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	o, err := loadCredentials(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(o.TLSCAData) != pem {
		t.Fatalf("TLSCAData = %q, want %q", o.TLSCAData, pem)
	}
}

// TestResolveCredentialsFileCAWinsVerifyHostname exercises the full
// pipeline bug in the maintainer review: a credentials file's
// tls_ca_data must flow through applyLevel into ResolvedConfig.TLSCAData
// (not get dropped as a "__"-prefixed server setting), which in turn
// flips VerifyHostname to false by default.
func TestResolveCredentialsFileCAWinsVerifyHostname(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "creds.json")
	pem := "-----BEGIN CERTIFICATE-----\nMII...\n-----END CERTIFICATE-----\n"
	body := `{"host":"h","user":"u","database":"db","tls_ca_data":"` + pemEscaped(pem) + `"}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	env := newFakeEnvironment()
	got, err := resolveWith(env, Options{CredentialsFile: path})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(got.TLSCAData.value) == 0 {
		t.Fatal("expected TLSCAData to be populated from the credentials file")
	}
	if got.VerifyHostname() {
		t.Fatal("expected VerifyHostname() to be false once a custom CA is set")
	}
}

func pemEscaped(pem string) string {
	out := ""
	for _, r := range pem {
		if r == '\n' {
			out += `\n`
			continue
		}
		out += string(r)
	}
	return out
}

func TestLoadCredentialsMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "creds.json")
	if err := os.WriteFile(path, []byte(`not json`), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := loadCredentials(path); err == nil {
		t.Fatal("expected error for malformed credentials JSON")
	}
}
