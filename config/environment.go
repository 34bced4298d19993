package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	appEnvVar              = "APP_ENV"
	environmentDevelopment = "development"
	environmentProduction  = "production"
	environmentStaging     = "staging"

	// DefaultPath is where the CLI looks for a config file when none is given.
	DefaultPath = "config/config.yml"
)

var environmentAliases = map[string]string{
	"dev":  environmentDevelopment,
	"prod": environmentProduction,
	"stag": environmentStaging,
}

// getAppEnvironment reads the application environment from APP_ENV and
// defaults to development when no value is provided.
func getAppEnvironment() string {
	env := strings.ToLower(strings.TrimSpace(os.Getenv(appEnvVar)))
	if env == "" {
		return environmentDevelopment
	}
	if canonical, ok := environmentAliases[env]; ok {
		return canonical
	}
	return env
}

// AppEnvironment exposes the normalised APP_ENV value.
func AppEnvironment() string {
	return getAppEnvironment()
}

// ResolvePath picks the config file for this run. An explicit path always
// wins. Otherwise config/config.<env>.yml is preferred over config/config.yml,
// and an empty string is returned when neither exists so the built-in
// defaults are used.
func ResolvePath(path string) string {
	if path != "" && path != DefaultPath {
		return path
	}

	envPath := fmt.Sprintf("config/config.%s.yml", getAppEnvironment())
	if fileExists(envPath) {
		return envPath
	}
	if fileExists(DefaultPath) {
		return DefaultPath
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
