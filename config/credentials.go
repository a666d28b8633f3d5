package config

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"eqlwire/wire"
)

// credentialsFile mirrors the JSON schema spec section 4.4 assigns to
// on-disk credentials, one field per ResolvedConfig scalar.
type credentialsFile struct {
	Host              string `json:"host"`
	Port              int    `json:"port"`
	Database          string `json:"database"`
	User              string `json:"user"`
	Password          string `json:"password"`
	TLSCAData         string `json:"tls_ca_data"`
	TLSVerifyHostname *bool  `json:"tls_verify_hostname"`
}

// loadCredentials reads and validates a credentials JSON file from an
// explicit path.
func loadCredentials(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, &wire.ConfigError{Msg: fmt.Sprintf("credentials file: %v", err)}
	}
	var cf credentialsFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return Options{}, &wire.ConfigError{Msg: fmt.Sprintf("credentials file: malformed JSON: %v", err)}
	}
	if cf.User == "" {
		return Options{}, &wire.ConfigError{Msg: "credentials file: 'user' is required"}
	}

	o := Options{
		Host:              cf.Host,
		Port:              cf.Port,
		Database:          cf.Database,
		User:              cf.User,
		Password:          cf.Password,
		TLSVerifyHostname: cf.TLSVerifyHostname,
	}
	if cf.TLSCAData != "" {
		ca, err := decodeCAData(cf.TLSCAData)
		if err != nil {
			return Options{}, &wire.ConfigError{Msg: fmt.Sprintf("credentials file: tls_ca_data: %v", err)}
		}
		o.TLSCAData = ca
	}
	return o, nil
}

// decodeCAData accepts either raw PEM text or a base64 encoding of it,
// the way credential files in the wild carry certificate bytes
// interchangeably.
func decodeCAData(s string) ([]byte, error) {
	if len(s) > 0 && s[0] == '-' {
		return []byte(s), nil
	}
	return base64.StdEncoding.DecodeString(s)
}

// credentialsPathForInstance resolves the default per-instance
// credentials path under the platform config directory, used when no
// explicit --credentials-file was given but an instance name was.
func credentialsPathForInstance(instance string) (string, error) {
	dir, err := platformConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "credentials", instance+".json"), nil
}

// lookupInstance resolves a linked-instance name to connection
// options, trying the on-disk credentials file first and falling back
// to a named entry in the service file when no credentials file exists
// for that instance, matching spec section 4.4's Credentials >
// ServiceFile precedence.
func lookupInstance(instance string) (Options, Source, error) {
	path, err := credentialsPathForInstance(instance)
	if err != nil {
		return Options{}, SourceCredentials, err
	}
	if _, statErr := os.Stat(path); statErr == nil {
		creds, err := loadCredentials(path)
		return creds, SourceCredentials, err
	}
	svc, err := serviceFileSource("", instance)
	if err != nil {
		return Options{}, SourceServiceFile, &wire.ConfigError{
			Msg: fmt.Sprintf("no credentials file or service entry found for instance %q", instance),
		}
	}
	return svc, SourceServiceFile, nil
}
