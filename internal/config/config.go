package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Supabase
	SupabaseURL            string `yaml:"supabase_url"`
	SupabasePublishableKey string `yaml:"supabase_publishable_key"`
	SupabaseJWTSecret      string `yaml:"supabase_jwt_secret"`
	SupabaseAvatarBucket   string `yaml:"supabase_avatar_bucket"`

	// Database
	DatabaseURL string `yaml:"database_url"`

	// Profile cache
	RedisURL        string        `yaml:"redis_url"`
	ProfileCacheTTL time.Duration `yaml:"profile_cache_ttl"`

	// Change fan-out
	RabbitMQURL      string `yaml:"rabbitmq_url"`
	RabbitMQExchange string `yaml:"rabbitmq_exchange"`

	// Auth
	RequireEmailVerified bool   `yaml:"require_email_verified"`
	SiteURL              string `yaml:"site_url"`

	// Server
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`
	BaseURL     string `yaml:"base_url"`
}

func defaults() *Config {
	return &Config{
		SupabaseAvatarBucket: "avatars",
		ProfileCacheTTL:      5 * time.Minute,
		RabbitMQExchange:     "orders_changes",
		RequireEmailVerified: true,
		SiteURL:              "http://localhost:3000",
		Port:                 "8080",
		Environment:          "development",
		BaseURL:              "http://localhost:8080",
	}
}

// Load builds the configuration from the optional YAML file named by
// CONFIG_FILE, then applies environment overrides.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.SupabaseURL = getEnv("SUPABASE_URL", cfg.SupabaseURL)
	cfg.SupabasePublishableKey = getEnv("SUPABASE_PUBLISHABLE_KEY", cfg.SupabasePublishableKey)
	cfg.SupabaseJWTSecret = getEnv("SUPABASE_JWT_SECRET", cfg.SupabaseJWTSecret)
	cfg.SupabaseAvatarBucket = getEnv("SUPABASE_AVATAR_BUCKET", cfg.SupabaseAvatarBucket)

	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)

	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	ttl, err := getEnvDuration("PROFILE_CACHE_TTL", cfg.ProfileCacheTTL)
	if err != nil {
		return nil, err
	}
	cfg.ProfileCacheTTL = ttl

	cfg.RabbitMQURL = getEnv("RABBITMQ_URL", cfg.RabbitMQURL)
	cfg.RabbitMQExchange = getEnv("RABBITMQ_EXCHANGE", cfg.RabbitMQExchange)

	verified, err := getEnvBool("REQUIRE_EMAIL_VERIFIED", cfg.RequireEmailVerified)
	if err != nil {
		return nil, err
	}
	cfg.RequireEmailVerified = verified
	cfg.SiteURL = getEnv("SITE_URL", cfg.SiteURL)

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	cfg.BaseURL = getEnv("BASE_URL", cfg.BaseURL)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabasePublishableKey == "" {
		return fmt.Errorf("SUPABASE_PUBLISHABLE_KEY is required")
	}
	if c.SupabaseJWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}
	if c.ProfileCacheTTL < 0 {
		return fmt.Errorf("PROFILE_CACHE_TTL must not be negative")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}
