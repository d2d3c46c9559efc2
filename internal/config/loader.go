// loader.go implements the configuration loading lifecycle.
//
// The loading sequence is:
//  1. Load .env file via godotenv (non-fatal if absent).
//  2. Use envconfig to process struct tags and populate the Config struct.
//  3. Validate the struct using go-playground/validator.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// LoadConfig loads and validates the CropSense configuration from the
// environment. A .env file in the working directory is merged in first
// without overriding already-set variables.
func LoadConfig() (*Config, error) {
	// godotenv.Load silently succeeds if no .env file exists and does NOT
	// override existing environment variables.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("processing environment configuration: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}
