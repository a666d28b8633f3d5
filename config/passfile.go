package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/jackc/pgpassfile"
)

// defaultPassfilePath is the pgpass-style sibling this resolver looks
// for once host/user/database/port are already known but no password
// has been supplied by any higher-precedence source.
func defaultPassfilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".eqlpass"), nil
}

// passfileSource looks up a password for the given endpoint in a
// pgpass-formatted file, the way libpq (and pgx via pgpassfile) do.
// Returns ("", false) rather than an error when the file is absent or
// no line matches, since a passfile is an optional, best-effort
// source in the precedence chain.
func passfileSource(path, host string, port int, database, user string) (string, bool) {
	if path == "" {
		var err error
		path, err = defaultPassfilePath()
		if err != nil {
			return "", false
		}
	}
	pf, err := pgpassfile.ReadPassfile(path)
	if err != nil {
		return "", false
	}
	portStr := ""
	if port != 0 {
		portStr = strconv.Itoa(port)
	}
	pw := pf.FindPassword(host, portStr, database, user)
	if pw == "" {
		return "", false
	}
	return pw, true
}
