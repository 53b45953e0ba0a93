package config

import (
	"os"
	"strings"

	"github.com/treeship-labs/treeship/internal/branding"
	"github.com/treeship-labs/treeship/internal/errs"
)

// placeholderTokens are values users leave behind when they copy an
// example config without filling in credentials.
var placeholderTokens = map[string]bool{
	"":                true,
	"YOUR_TOKEN_HERE": true,
	"your-token-here": true,
	"CHANGEME":        true,
	"xxxx":            true,
}

// ResolveToken returns the access token, in precedence order: the
// TREESHIP_TOKEN env var, GITHUB_TOKEN, then the global config file.
// A missing or placeholder value is a configuration error, detected
// before any network call.
func ResolveToken() (string, error) {
	candidates := []string{
		os.Getenv(branding.EnvVar("TOKEN")),
		os.Getenv("GITHUB_TOKEN"),
		Get(KeyToken),
	}

	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c != "" && !placeholderTokens[c] {
			return c, nil
		}
		if placeholderTokens[c] && c != "" {
			return "", errs.NewConfigError(KeyToken, c,
				errs.Wrap(errs.ErrConfiguration, "placeholder token value"))
		}
	}

	return "", errs.Wrapf(errs.ErrConfiguration,
		"no access token configured; set %s or run `%s config set %s <token>`",
		branding.EnvVar("TOKEN"), branding.CLIName(), KeyToken)
}
