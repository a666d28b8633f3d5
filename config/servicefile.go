package config

import (
	"os"
	"path/filepath"

	"github.com/jackc/pgservicefile"

	"eqlwire/wire"
)

// defaultServiceFilePath is the ini-style sibling file this resolver
// checks for an instance name that has no credentials file, one level
// below the credentials file in precedence.
func defaultServiceFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".eqlservices"), nil
}

// serviceFileSource resolves a named service section to an Options
// value. Section keys are the scalar field names ("host", "port",
// "user", "password", "database"), mirroring the [service] stanza
// format pgservicefile parses for libpq-style service files.
func serviceFileSource(path, service string) (Options, error) {
	if path == "" {
		var err error
		path, err = defaultServiceFilePath()
		if err != nil {
			return Options{}, err
		}
	}
	sf, err := pgservicefile.ReadServicefile(path)
	if err != nil {
		return Options{}, &wire.ConfigError{Msg: "service file: " + err.Error()}
	}
	svc, err := sf.GetService(service)
	if err != nil {
		return Options{}, &wire.ConfigError{Msg: "service file: " + err.Error()}
	}

	var o Options
	if v, ok := svc.Settings["host"]; ok {
		o.Host = v
	}
	if v, ok := svc.Settings["port"]; ok {
		if n, err := parsePort(v); err == nil {
			o.Port = n
		}
	}
	if v, ok := svc.Settings["database"]; ok {
		o.Database = v
	}
	if v, ok := svc.Settings["user"]; ok {
		o.User = v
	}
	if v, ok := svc.Settings["password"]; ok {
		o.Password = v
	}
	return o, nil
}
