package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port            string
	Environment     string
	LogLevel        string
	BaseURL         string // PUBLIC_BASE_URL: canonical origin used in the product feed
	Storefront      StorefrontConfig
	Newsletter      NewsletterConfig
	Analytics       AnalyticsConfig
	Database        DatabaseConfig
	DeferredTimeout time.Duration // upper bound for below-the-fold queries once the critical data is rendered
	FeedCacheTTL    time.Duration
}

// StorefrontConfig is used to call the Shopify Storefront API
type StorefrontConfig struct {
	StoreDomain    string // PUBLIC_STORE_DOMAIN, e.g. kleinod.myshopify.com
	CheckoutDomain string // PUBLIC_CHECKOUT_DOMAIN
	AccessToken    string // PUBLIC_STOREFRONT_API_TOKEN
	APIVersion     string
}

// NewsletterConfig holds the Klaviyo list the subscribe form writes to
type NewsletterConfig struct {
	APIKey  string
	ListID  string
	BaseURL string
}

// Configured reports whether both the key and the list are present
func (n NewsletterConfig) Configured() bool {
	return n.APIKey != "" && n.ListID != ""
}

type AnalyticsConfig struct {
	RelayURL       string // ANALYTICS_RELAY_URL: server-side event sink
	GTMContainerID string
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN returns the lib/pq connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")

	viper.AutomaticEnv()

	// .env is optional; plain environment variables are enough
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	deferredTimeout, err := time.ParseDuration(getEnvOrViper("DEFERRED_TIMEOUT", "3s"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEFERRED_TIMEOUT: %w", err)
	}
	feedTTL, err := time.ParseDuration(getEnvOrViper("FEED_CACHE_TTL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid FEED_CACHE_TTL: %w", err)
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		LogLevel:    getEnvOrViper("LOG_LEVEL", "info"),
		BaseURL:     strings.TrimSuffix(strings.TrimSpace(getEnvOrViper("PUBLIC_BASE_URL", "https://kleinod-atelier.com")), "/"),
		Storefront: StorefrontConfig{
			StoreDomain:    NormalizeDomain(getEnvOrViper("PUBLIC_STORE_DOMAIN", "")),
			CheckoutDomain: NormalizeDomain(getEnvOrViper("PUBLIC_CHECKOUT_DOMAIN", "")),
			AccessToken:    strings.TrimSpace(getEnvOrViper("PUBLIC_STOREFRONT_API_TOKEN", "")),
			APIVersion:     getEnvOrViper("PUBLIC_STOREFRONT_API_VERSION", "2024-10"),
		},
		Newsletter: NewsletterConfig{
			APIKey:  strings.TrimSpace(getEnvOrViper("KLAVIYO_API_KEY", "")),
			ListID:  strings.TrimSpace(getEnvOrViper("KLAVIYO_LIST_ID", "")),
			BaseURL: getEnvOrViper("KLAVIYO_BASE_URL", "https://a.klaviyo.com"),
		},
		Analytics: AnalyticsConfig{
			RelayURL:       strings.TrimSpace(getEnvOrViper("ANALYTICS_RELAY_URL", "https://privacy.kleinod-atelier.com")),
			GTMContainerID: strings.TrimSpace(getEnvOrViper("GTM_CONTAINER_ID", "")),
		},
		Database: DatabaseConfig{
			Enabled:  getEnvOrViper("DB_ENABLED", "false") == "true",
			Host:     getEnvOrViper("DB_HOST", "localhost"),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "storefront"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		DeferredTimeout: deferredTimeout,
		FeedCacheTTL:    feedTTL,
	}

	if cfg.Storefront.StoreDomain == "" {
		return nil, fmt.Errorf("PUBLIC_STORE_DOMAIN is required")
	}
	if cfg.Storefront.AccessToken == "" {
		return nil, fmt.Errorf("PUBLIC_STOREFRONT_API_TOKEN is required")
	}

	return cfg, nil
}

// IsProduction reports whether the process runs with production settings
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}

// NormalizeDomain strips scheme and trailing slash so "https://x.myshopify.com/" becomes "x.myshopify.com"
func NormalizeDomain(d string) string {
	d = strings.TrimSpace(d)
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	return strings.TrimSuffix(d, "/")
}
