// Package config manages user-level settings stored at
// ~/.treeship/config.yaml (access token, defaults) and the per-project
// export configuration (treeship.yaml), which is schema-validated before
// use. Tokens resolve from the environment first and are never part of
// the project file.
package config
