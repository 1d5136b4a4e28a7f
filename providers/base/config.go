// Package base holds the configuration and decision tracing shared by
// the concrete model providers.
package base

import (
	"os"

	"github.com/joho/godotenv"
)

func init() {
	// Pick up a local .env silently; a missing file is not an error.
	_ = godotenv.Load()
}

// LoadEnv reads the given .env files into the process environment. With
// no arguments it reads ./.env.
func LoadEnv(filenames ...string) error {
	return godotenv.Load(filenames...)
}

// Config is the backend-agnostic part of a provider's configuration.
// Concrete providers embed it and expose functional options over its
// fields; explicit options always win over environment defaults.
type Config struct {
	APIKey  string
	BaseURL string

	// TracePath, when set, appends one JSONL Exchange per Decide call.
	TracePath string

	MaxOutputTokens *int
	Temperature     *float64

	ExtraHeaders map[string]string
	ExtraBody    map[string]any
}

// FillFromEnv resolves empty credentials from the named environment
// variables.
func (c *Config) FillFromEnv(apiKeyEnv, baseURLEnv string) {
	if c.APIKey == "" {
		c.APIKey = os.Getenv(apiKeyEnv)
	}
	if c.BaseURL == "" {
		c.BaseURL = os.Getenv(baseURLEnv)
	}
}
