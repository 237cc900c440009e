package config

import "os"

// GetEnv retrieves an environment variable with a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// EnvFile names the env file the binaries load, overridable with
// EXPENSE_ENV_FILE.
func EnvFile() string {
	return GetEnv("EXPENSE_ENV_FILE", ".env")
}
