package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPassfileSourceFindsMatchingLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eqlpass")
	body := "h:5656:db:u:secret\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	pw, ok := passfileSource(path, "h", 5656, "db", "u")
	if !ok {
		t.Fatal("expected a matching passfile entry")
	}
	if pw != "secret" {
		t.Fatalf("password = %q, want secret", pw)
	}
}

func TestPassfileSourceNoMatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eqlpass")
	if err := os.WriteFile(path, []byte("other:5656:db:u:secret\n"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, ok := passfileSource(path, "h", 5656, "db", "u"); ok {
		t.Fatal("expected no match for a different host")
	}
}
