package publish

import (
	"regexp"
	"strings"
)

// urlCredentials matches userinfo embedded in an https URL, covering both
// credential-embedding schemes (token-as-username and x-access-token).
var urlCredentials = regexp.MustCompile(`https://[^@/\s]+@`)

// Redact scrubs the given secrets and any URL-embedded credentials from a
// diagnostic string. Every error message that can reach the user or the
// run manifest passes through here.
func Redact(s string, secrets ...string) string {
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		s = strings.ReplaceAll(s, secret, "***")
	}
	return urlCredentials.ReplaceAllString(s, "https://***@")
}
