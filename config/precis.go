package config

import "golang.org/x/text/secure/precis"

// normalizePassword runs the OpaqueString profile over a cleartext
// password before it is sent, folding compatibility-equivalent
// Unicode forms together the same way SASL SCRAM implementations
// require of the client. Passwords that fail the profile (disallowed
// code points) are sent unnormalized rather than rejected outright;
// the server has the final say on whether a credential is acceptable.
func normalizePassword(password string) string {
	normalized, err := precis.OpaqueString.String(password)
	if err != nil {
		return password
	}
	return normalized
}
