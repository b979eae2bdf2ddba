package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

// CloudinaryConfig holds the image-upload provider settings. The API secret
// is never written to the config file; it comes from the
// CLOUDINARY_API_SECRET environment variable.
type CloudinaryConfig struct {
	CloudName string `yaml:"cloudName" validate:"required"`
	APIKey    string `yaml:"apiKey" validate:"required"`
}

// Config represents the application configuration
type Config struct {
	// ProjectID is the GCP project holding the Firestore database.
	ProjectID       string `yaml:"projectID" validate:"required_unless=Store memory"`
	CredentialsFile string `yaml:"credentialsFile,omitempty"`

	// Store selects the persistence backend. The memory backend exists for
	// local development and tests.
	Store string `yaml:"store,omitempty" validate:"omitempty,oneof=firestore memory"`

	ListenAddr string `yaml:"listenAddr,omitempty"`

	// AuthMode selects how bearer tokens are verified: "jwt" for
	// password-based logins, "google" for Google ID tokens.
	AuthMode            string `yaml:"authMode,omitempty" validate:"omitempty,oneof=jwt google"`
	GoogleOAuthClientID string `yaml:"googleOAuthClientID,omitempty" validate:"required_if=AuthMode google"`
	TokenTTLMinutes     int    `yaml:"tokenTTLMinutes,omitempty" validate:"omitempty,min=1"`

	Cloudinary *CloudinaryConfig `yaml:"cloudinary,omitempty"`

	// OperatingSchedule is an RRULE describing the days the center takes
	// bookings. Empty means every day.
	OperatingSchedule string `yaml:"operatingSchedule,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// StoreBackend returns the configured persistence backend, defaulting to
// firestore.
func (c *Config) StoreBackend() string {
	if c.Store == "" {
		return "firestore"
	}
	return c.Store
}

// Addr returns the HTTP listen address, defaulting to :8080.
func (c *Config) Addr() string {
	if c.ListenAddr == "" {
		return ":8080"
	}
	return c.ListenAddr
}

// TokenTTL returns the access-token lifetime, defaulting to 12 hours.
func (c *Config) TokenTTL() time.Duration {
	if c.TokenTTLMinutes == 0 {
		return 12 * time.Hour
	}
	return time.Duration(c.TokenTTLMinutes) * time.Minute
}

// JWTSecret reads the token-signing secret from the environment.
func (c *Config) JWTSecret() (string, error) {
	secret := os.Getenv("PLASMA_JWT_SECRET")
	if secret == "" {
		return "", fmt.Errorf("PLASMA_JWT_SECRET is not set")
	}
	return secret, nil
}

// CloudinarySecret reads the upload provider secret from the environment.
func (c *Config) CloudinarySecret() (string, error) {
	secret := os.Getenv("CLOUDINARY_API_SECRET")
	if secret == "" {
		return "", fmt.Errorf("CLOUDINARY_API_SECRET is not set")
	}
	return secret, nil
}

// Load loads and validates the configuration from plasma_center_config.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	configPath, err := findConfigFile()
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct and checks the operating
// schedule's rrule syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.OperatingSchedule != "" {
		if _, err := rrule.StrToRRule(cfg.OperatingSchedule); err != nil {
			return fmt.Errorf("invalid rrule in operatingSchedule: %w", err)
		}
	}

	return nil
}

// findConfigFile searches for plasma_center_config.yaml in current directory and home directory
func findConfigFile() (string, error) {
	configFileName := "plasma_center_config.yaml"

	// Check current directory
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("config file not found in current directory or home directory")
}
