// Package config handles application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	App       AppConfig
	Server    ServerConfig
	Store     StoreConfig
	Rate      RateConfig
	Cookie    CookieConfig
	Generator GeneratorConfig
	Database  DatabaseConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Env      string
	LogLevel string
}

// IsDevelopment returns true if the app is running in development mode.
func (a AppConfig) IsDevelopment() bool {
	return a.Env == "development" || a.Env == "dev"
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Address returns the server address in host:port format.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StoreConfig holds counter-store configuration. When RestURL is set the
// HTTP pipeline client is used; otherwise the redis client.
type StoreConfig struct {
	RestURL   string
	RestToken string

	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int
	RedisPoolSize int
}

// UseRest returns true when the store should speak the HTTP pipeline
// protocol instead of the redis protocol.
func (s StoreConfig) UseRest() bool {
	return s.RestURL != ""
}

// RedisAddress returns the redis address in host:port format.
func (s StoreConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", s.RedisHost, s.RedisPort)
}

// RateConfig holds the per-tier fixed-window limits.
type RateConfig struct {
	CombinedLimit int
	CookieLimit   int
	IPLimit       int
	Window        time.Duration
}

// CookieConfig holds session cookie settings.
type CookieConfig struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// GeneratorConfig holds downstream idea-generation service settings.
type GeneratorConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	MaxRPS  float64
	Burst   int
}

// DatabaseConfig holds postgres connection configuration for the
// optional idea-history store.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
}

// DSN returns the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

// HistoryEnabled returns true if history persistence is configured.
func (c *Config) HistoryEnabled() bool {
	return c.Database.Host != "" && c.Database.Password != ""
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.App.Env = getEnvOrDefault("APP_ENV", "development")
	cfg.App.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	cfg.Server.Host = getEnvOrDefault("SERVER_HOST", "0.0.0.0")

	port, err := getEnvAsInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}
	cfg.Server.Port = port

	readTimeout, err := getEnvAsDuration("SERVER_READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_READ_TIMEOUT: %w", err)
	}
	cfg.Server.ReadTimeout = readTimeout

	writeTimeout, err := getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_WRITE_TIMEOUT: %w", err)
	}
	cfg.Server.WriteTimeout = writeTimeout

	shutdownTimeout, err := getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_SHUTDOWN_TIMEOUT: %w", err)
	}
	cfg.Server.ShutdownTimeout = shutdownTimeout

	// Counter store: the HTTP pipeline endpoint wins when configured.
	cfg.Store.RestURL = getEnvOrDefault("STORE_REST_URL", "")
	cfg.Store.RestToken = getEnvOrDefault("STORE_REST_TOKEN", "")
	cfg.Store.RedisHost = getEnvOrDefault("REDIS_HOST", "localhost")
	redisPort, err := getEnvAsInt("REDIS_PORT", 6379)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}
	cfg.Store.RedisPort = redisPort
	cfg.Store.RedisPassword = getEnvOrDefault("REDIS_PASSWORD", "")
	redisDB, err := getEnvAsInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	cfg.Store.RedisDB = redisDB
	redisPoolSize, err := getEnvAsInt("REDIS_POOL_SIZE", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_POOL_SIZE: %w", err)
	}
	cfg.Store.RedisPoolSize = redisPoolSize

	combinedLimit, err := getEnvAsInt("RATE_COMBINED_LIMIT", 50)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_COMBINED_LIMIT: %w", err)
	}
	cfg.Rate.CombinedLimit = combinedLimit
	cookieLimit, err := getEnvAsInt("RATE_COOKIE_LIMIT", 30)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_COOKIE_LIMIT: %w", err)
	}
	cfg.Rate.CookieLimit = cookieLimit
	ipLimit, err := getEnvAsInt("RATE_IP_LIMIT", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_IP_LIMIT: %w", err)
	}
	cfg.Rate.IPLimit = ipLimit
	window, err := getEnvAsDuration("RATE_WINDOW", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_WINDOW: %w", err)
	}
	cfg.Rate.Window = window

	cfg.Cookie.Name = getEnvOrDefault("COOKIE_NAME", "ideaspark_id")
	cookieMaxAge, err := getEnvAsDuration("COOKIE_MAX_AGE", 365*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid COOKIE_MAX_AGE: %w", err)
	}
	cfg.Cookie.MaxAge = cookieMaxAge
	cfg.Cookie.Secure = !cfg.App.IsDevelopment()

	cfg.Generator.BaseURL = getEnvOrDefault("GENERATOR_BASE_URL", "")
	cfg.Generator.APIKey = getEnvOrDefault("GENERATOR_API_KEY", "")
	generatorTimeout, err := getEnvAsDuration("GENERATOR_TIMEOUT", 20*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid GENERATOR_TIMEOUT: %w", err)
	}
	cfg.Generator.Timeout = generatorTimeout
	maxRPS, err := getEnvAsFloat("GENERATOR_MAX_RPS", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid GENERATOR_MAX_RPS: %w", err)
	}
	cfg.Generator.MaxRPS = maxRPS
	burst, err := getEnvAsInt("GENERATOR_BURST", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid GENERATOR_BURST: %w", err)
	}
	cfg.Generator.Burst = burst

	cfg.Database.Host = getEnvOrDefault("DB_HOST", "")
	dbPort, err := getEnvAsInt("DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	cfg.Database.Port = dbPort
	cfg.Database.User = getEnvOrDefault("DB_USER", "ideaspark")
	cfg.Database.Password = getEnvOrDefault("DB_PASSWORD", "")
	cfg.Database.DBName = getEnvOrDefault("DB_NAME", "ideaspark")
	cfg.Database.SSLMode = getEnvOrDefault("DB_SSLMODE", "disable")
	maxConns, err := getEnvAsInt("DB_MAX_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}
	cfg.Database.MaxConns = maxConns

	return cfg, nil
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt returns the environment variable as an integer.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, err
	}
	return value, nil
}

// getEnvAsFloat returns the environment variable as a float64.
func getEnvAsFloat(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, err
	}
	return value, nil
}

// getEnvAsDuration returns the environment variable as a duration.
func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return 0, err
	}
	return value, nil
}
