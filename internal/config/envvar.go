package config

import "strings"

// Environment variable names for bugbook configuration.
const (
	EnvPrefix = "BUGBOOK"
	EnvConfig = "BUGBOOK_CONFIG" // Path to the user config file
	EnvJSON   = "BUGBOOK_JSON"   // Enable JSON output ("1" or "true")
)

// EnvName returns the environment variable that overrides key, e.g.
// BUGBOOK_USER_NAME for "user.name".
func EnvName(key string) string {
	r := strings.NewReplacer(".", "_", "-", "_")
	return EnvPrefix + "_" + strings.ToUpper(r.Replace(key))
}
