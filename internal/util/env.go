package util

import (
	"log/slog"
	"os"
	"strings"
)

// ParseBoolEnv reads an environment variable as a boolean. Recognized truthy
// values are true/1/yes/on and falsy values false/0/no/off, case-insensitive.
// Unset or unrecognized values yield def.
func ParseBoolEnv(key string, def bool) bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if raw == "" {
		return def
	}
	switch raw {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	}
	slog.Warn("ParseBoolEnv: unrecognized boolean value, using default", "key", key, "value", raw, "default", def)
	return def
}
