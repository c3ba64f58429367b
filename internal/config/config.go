// Package config handles loading and validation of service configuration.
// Supports both development (env vars) and production (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// Config holds all service configuration.
// Environment determines whether secrets load from env vars (development) or Secret Manager (production).
type Config struct {
	// Server settings
	Port        string
	Environment string // "development" or "production"
	LogLevel    string // "debug", "info", "warn", "error"

	// EndpointPath is the URL path segment the widget is served on.
	EndpointPath string

	// GCP settings (required in production)
	GCPProject string
	StoreID    string

	// Store-specific configuration (loaded from secrets)
	Store StoreConfig
}

// StoreConfig contains per-store settings.
// In production, this is loaded from Secret Manager as JSON.
// In development, loaded from individual env vars or CONFIG_FILE.
type StoreConfig struct {
	StoreURL       string `json:"store_url"`
	StoreDomain    string `json:"store_domain"` // Derived from StoreURL if not set
	ConsumerKey    string `json:"consumer_key"`
	ConsumerSecret string `json:"consumer_secret"`

	// WidgetToken gates every widget request. Rotating it cuts off all
	// previously embedded widget URLs at once.
	WidgetToken string `json:"widget_token"`

	// InternalDomain marks helpdesk agents so contact resolution skips them.
	InternalDomain string `json:"internal_domain"`
}

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) -> ENV vars / Secret Manager.
// Validates all required fields and returns an error if any are missing.
func Load(ctx context.Context) (*Config, error) {
	// If CONFIG_FILE is set, load everything from the JSON file
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	cfg := &Config{
		Port:         envOrDefault("PORT", "8080"),
		Environment:  envOrDefault("ENVIRONMENT", "development"),
		LogLevel:     envOrDefault("LOG_LEVEL", "info"),
		EndpointPath: envOrDefault("ENDPOINT_PATH", "missive-widget"),
		GCPProject:   os.Getenv("GCP_PROJECT"),
		StoreID:      os.Getenv("STORE_ID"),
	}

	// StoreID required in all environments
	if cfg.StoreID == "" {
		return nil, fmt.Errorf("STORE_ID environment variable required")
	}

	var err error
	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		err = cfg.loadFromSecretManager(ctx)
	} else {
		cfg.loadFromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("loading store config: %w", err)
	}

	cfg.finalize()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile reads all configuration from a JSON file.
// Used for local development to avoid multiple ENV vars.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var fileConfig struct {
		Port         string      `json:"port"`
		Environment  string      `json:"environment"`
		LogLevel     string      `json:"log_level"`
		EndpointPath string      `json:"endpoint_path"`
		StoreID      string      `json:"store_id"`
		Store        StoreConfig `json:"store"`
	}

	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &Config{
		Port:         withDefault(fileConfig.Port, "8080"),
		Environment:  withDefault(fileConfig.Environment, "development"),
		LogLevel:     withDefault(fileConfig.LogLevel, "info"),
		EndpointPath: withDefault(fileConfig.EndpointPath, "missive-widget"),
		StoreID:      fileConfig.StoreID,
		Store:        fileConfig.Store,
	}

	cfg.finalize()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// finalize derives fields that have sensible defaults from other settings.
func (c *Config) finalize() {
	c.EndpointPath = strings.Trim(c.EndpointPath, "/")
	if c.Store.StoreDomain == "" && c.Store.StoreURL != "" {
		c.Store.StoreDomain = extractDomain(c.Store.StoreURL)
	}
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// loadFromSecretManager fetches store config from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{store_id}/versions/latest
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.StoreID)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	if err := json.Unmarshal(result.Payload.Data, &c.Store); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}

	return nil
}

// loadFromEnv reads store config from individual environment variables.
// Used in development mode for local testing.
func (c *Config) loadFromEnv() {
	c.Store = StoreConfig{
		StoreURL:       os.Getenv("STORE_URL"),
		StoreDomain:    os.Getenv("STORE_DOMAIN"),
		ConsumerKey:    os.Getenv("WC_CONSUMER_KEY"),
		ConsumerSecret: os.Getenv("WC_CONSUMER_SECRET"),
		WidgetToken:    os.Getenv("WIDGET_TOKEN"),
		InternalDomain: os.Getenv("INTERNAL_DOMAIN"),
	}
}

// validate checks that all required configuration fields are present.
func (c *Config) validate() error {
	if c.Store.StoreURL == "" {
		return fmt.Errorf("store_url is required")
	}
	if c.Store.ConsumerKey == "" {
		return fmt.Errorf("consumer_key is required")
	}
	if c.Store.ConsumerSecret == "" {
		return fmt.Errorf("consumer_secret is required")
	}
	if c.Store.WidgetToken == "" {
		return fmt.Errorf("widget_token is required")
	}
	if c.Store.InternalDomain == "" {
		return fmt.Errorf("internal_domain is required")
	}
	if c.EndpointPath == "" {
		return fmt.Errorf("endpoint_path must not be empty")
	}

	// Validate store URL is well-formed
	if _, err := url.Parse(c.Store.StoreURL); err != nil {
		return fmt.Errorf("invalid store_url: %w", err)
	}

	return nil
}

// extractDomain parses the domain from a URL string.
func extractDomain(storeURL string) string {
	u, err := url.Parse(storeURL)
	if err != nil || u.Host == "" {
		// Fallback: strip protocol prefix manually
		domain := strings.TrimPrefix(storeURL, "https://")
		domain = strings.TrimPrefix(domain, "http://")
		return strings.Split(domain, "/")[0]
	}
	return u.Host
}

// envOrDefault returns the environment variable value or the default if not set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
