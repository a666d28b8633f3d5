package config

import (
	"os"
	"regexp"
	"strings"

	"eqlwire/wire"
)

// schemePrefix distinguishes a DSN from a bare instance name when both
// arrive through the same ambiguous "dsn" field, per spec section
// 4.4's `/^[a-z]+:\/\//i` split rule.
var schemePrefix = regexp.MustCompile(`(?i)^[a-z]+://`)

// Resolve merges opts, the environment, and project-linked instance
// metadata into a single validated ResolvedConfig, applying the
// compound-options rule at each precedence level and the sticky
// first-wins rule across levels.
func Resolve(opts Options) (*ResolvedConfig, error) {
	env := DefaultEnvironment
	return resolveWith(env, opts)
}

func resolveWith(env Environment, opts Options) (*ResolvedConfig, error) {
	out := &ResolvedConfig{}

	if err := checkCompound(opts); err != nil {
		return nil, err
	}
	if err := applyLevel(env, out, opts, SourceExplicit); err != nil {
		return nil, err
	}

	envOpts, warnings := envOptions(env)
	for _, w := range warnings {
		warnf("%s", w)
	}
	if err := checkCompound(envOpts); err != nil {
		return nil, err
	}
	if err := applyLevel(env, out, envOpts, SourceEnv); err != nil {
		return nil, err
	}

	if !anyEndpointField(out) {
		projOpts, err := projectLinkedOptions(env)
		if err != nil {
			return nil, err
		}
		if err := applyLevel(env, out, projOpts, SourceProject); err != nil {
			return nil, err
		}
	}

	if !out.Password.set {
		if pw, ok := passfileSource("", out.HostString(), out.PortNumber(), out.DatabaseName(), out.UserName()); ok {
			out.Password.setIfEmpty(normalizePassword(pw), SourcePassFile)
		}
	}

	if out.ServerSettings == nil {
		out.ServerSettings = map[string]string{}
	}
	for k, v := range opts.ServerSettings {
		out.ServerSettings[k] = v
	}

	if !anyEndpointField(out) {
		return nil, &wire.ConfigError{Msg: "no 'eqlwire.toml' found and no connection information provided"}
	}

	if err := validate(out); err != nil {
		return nil, err
	}
	return out, nil
}

// anyEndpointField reports whether any connection-identifying field
// has been set yet, used to decide whether the project-linked lookup
// is needed at all.
func anyEndpointField(c *ResolvedConfig) bool {
	return c.Host.set || c.Database.set || c.User.set
}

// applyLevel resolves a single Options value (splitting its ambiguous
// dsn/instance field, expanding credentialsFile and DSN query
// parameters) and merges every scalar into out using the sticky rule.
func applyLevel(env Environment, out *ResolvedConfig, o Options, source Source) error {
	dsn := o.DSN
	instance := o.InstanceName
	if dsn != "" && !schemePrefix.MatchString(dsn) {
		instance, dsn = dsn, ""
	}

	merged := Options{
		Host:              o.Host,
		Port:              o.Port,
		Database:          o.Database,
		User:              o.User,
		Password:          o.Password,
		TLSCAFile:         o.TLSCAFile,
		TLSCAData:         o.TLSCAData,
		TLSVerifyHostname: o.TLSVerifyHostname,
		ServerSettings:    o.ServerSettings,
	}
	fieldSource := source

	switch {
	case dsn != "":
		parsed, err := parseDSN(env, dsn)
		if err != nil {
			return err
		}
		merged = mergeScalars(merged, parsed)
		fieldSource = SourceDSN
	case instance != "":
		creds, src, err := lookupInstance(instance)
		if err != nil {
			return err
		}
		merged = mergeScalars(merged, creds)
		fieldSource = src
	case o.CredentialsFile != "":
		creds, err := loadCredentials(o.CredentialsFile)
		if err != nil {
			return err
		}
		merged = mergeScalars(merged, creds)
		fieldSource = SourceCredentials
	}

	if merged.Host != "" {
		out.Host.setIfEmpty(merged.Host, fieldSource)
	}
	if merged.Port != 0 {
		out.Port.setIfEmpty(merged.Port, fieldSource)
	}
	if merged.Database != "" {
		out.Database.setIfEmpty(merged.Database, fieldSource)
	}
	if merged.User != "" {
		out.User.setIfEmpty(merged.User, fieldSource)
	}
	if merged.Password != "" {
		out.Password.setIfEmpty(normalizePassword(merged.Password), fieldSource)
	}
	if merged.TLSCAFile != "" {
		data, err := readCAFile(merged.TLSCAFile)
		if err != nil {
			return err
		}
		out.TLSCAData.setIfEmpty(data, fieldSource)
	} else if len(merged.TLSCAData) > 0 {
		out.TLSCAData.setIfEmpty(merged.TLSCAData, fieldSource)
	}
	if merged.TLSVerifyHostname != nil {
		out.TLSVerifyHostname.setIfEmpty(*merged.TLSVerifyHostname, fieldSource)
	}
	if len(merged.ServerSettings) > 0 {
		if out.ServerSettings == nil {
			out.ServerSettings = map[string]string{}
		}
		for k, v := range merged.ServerSettings {
			if strings.HasPrefix(k, "__") {
				continue
			}
			if _, exists := out.ServerSettings[k]; !exists {
				out.ServerSettings[k] = v
			}
		}
	}
	return nil
}

// mergeScalars fills unset fields of a with the corresponding field
// of b, used to combine a level's own scalar options with whatever a
// DSN or credentials file at that same level additionally supplied.
func mergeScalars(a, b Options) Options {
	if a.Host == "" {
		a.Host = b.Host
	}
	if a.Port == 0 {
		a.Port = b.Port
	}
	if a.Database == "" {
		a.Database = b.Database
	}
	if a.User == "" {
		a.User = b.User
	}
	if a.Password == "" {
		a.Password = b.Password
	}
	if a.TLSCAFile == "" && len(a.TLSCAData) == 0 {
		a.TLSCAFile = b.TLSCAFile
		a.TLSCAData = b.TLSCAData
	}
	if a.TLSVerifyHostname == nil {
		a.TLSVerifyHostname = b.TLSVerifyHostname
	}
	if len(b.ServerSettings) > 0 {
		if a.ServerSettings == nil {
			a.ServerSettings = map[string]string{}
		}
		for k, v := range b.ServerSettings {
			if _, exists := a.ServerSettings[k]; !exists {
				a.ServerSettings[k] = v
			}
		}
	}
	return a
}

func readCAFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
