package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds all application configuration
type Config struct {
	// Job service settings
	BaseURL        string        `validate:"required,url"`
	RequestTimeout time.Duration `validate:"gt=0"`

	// Download settings
	OutputDir string `validate:"required"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		BaseURL:        "http://localhost:8000",
		RequestTimeout: 30 * time.Second,
		OutputDir:      ".",
	}
}

// LoadFromEnvironment loads configuration from environment variables
func (c *Config) LoadFromEnvironment() {
	if baseURL := os.Getenv("ARTISAN_BASE_URL"); baseURL != "" {
		c.BaseURL = baseURL
	}

	if timeout := os.Getenv("ARTISAN_REQUEST_TIMEOUT"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil {
			c.RequestTimeout = time.Duration(t) * time.Second
		}
	}

	if outputDir := os.Getenv("ARTISAN_OUTPUT_DIR"); outputDir != "" {
		c.OutputDir = outputDir
	}
}

// SetBaseURL overrides the service address, dropping any trailing slash
func (c *Config) SetBaseURL(baseURL string) {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
}

var validate = validator.New()

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			switch fe.Field() {
			case "BaseURL":
				return fmt.Errorf("base URL must be an absolute URL, got: %q", c.BaseURL)
			case "RequestTimeout":
				return fmt.Errorf("request timeout must be positive, got: %s", c.RequestTimeout)
			case "OutputDir":
				return fmt.Errorf("output directory cannot be empty")
			}
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("base URL must use http or https, got: %q", c.BaseURL)
	}

	return nil
}
