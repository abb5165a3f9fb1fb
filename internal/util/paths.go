package util

import (
	"os"
	"path/filepath"
)

// HomeDir returns the user's home directory
func HomeDir() string {
	home, _ := os.UserHomeDir()
	return home
}

// OrbitConfigPath returns the orbitsync configuration directory
func OrbitConfigPath() string {
	return filepath.Join(HomeDir(), ".orbitsync")
}

// ConfigFilePath returns the path of the YAML configuration file
func ConfigFilePath() string {
	return filepath.Join(OrbitConfigPath(), "config.yaml")
}

// DatabasePath returns the path of the local SQLite database
func DatabasePath() string {
	return filepath.Join(OrbitConfigPath(), "orbitsync.db")
}

// OAuthClientPath returns the path of the Google OAuth client credentials
func OAuthClientPath() string {
	return filepath.Join(OrbitConfigPath(), "oauth_client.json")
}

// TokenPath returns the path of the stored Google OAuth token
func TokenPath() string {
	return filepath.Join(OrbitConfigPath(), "token.json")
}

// EnsureConfigDir creates the configuration directory if missing
func EnsureConfigDir() error {
	return os.MkdirAll(OrbitConfigPath(), 0o750)
}
