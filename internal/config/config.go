package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	RabbitMQ RabbitMQConfig
	Redis    RedisConfig
	Provider ProviderConfig
	Dispatch DispatchConfig
	Env      string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// RabbitMQConfig holds RabbitMQ configuration
type RabbitMQConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Queue    string
}

// RedisConfig holds the opt-out cache configuration
type RedisConfig struct {
	Addr string
}

// ProviderConfig holds messaging provider configuration. With Mock enabled
// the simulated sender is used instead of the HTTP client.
type ProviderConfig struct {
	BaseURL     string
	AccountID   string
	AuthToken   string
	FromNumber  string
	Mock        bool
	SuccessRate float64
}

// DispatchConfig holds dispatch loop tuning
type DispatchConfig struct {
	Interval       time.Duration
	CampaignBatch  int
	RecipientBatch int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			User:     getEnv("POSTGRES_USER", "motorreach"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			DBName:   getEnv("POSTGRES_DB", "motorreach_db"),
		},
		RabbitMQ: RabbitMQConfig{
			Host:     getEnv("RABBITMQ_HOST", "localhost"),
			Port:     getEnv("RABBITMQ_PORT", "5672"),
			User:     getEnv("RABBITMQ_DEFAULT_USER", "guest"),
			Password: getEnv("RABBITMQ_DEFAULT_PASS", "guest"),
			Queue:    getEnv("RABBITMQ_STATUS_QUEUE", "delivery_reports"),
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Provider: ProviderConfig{
			BaseURL:     getEnv("PROVIDER_BASE_URL", "https://api.twilio.com"),
			AccountID:   getEnv("PROVIDER_ACCOUNT_ID", ""),
			AuthToken:   getEnv("PROVIDER_AUTH_TOKEN", ""),
			FromNumber:  getEnv("PROVIDER_FROM_NUMBER", ""),
			Mock:        getEnvAsBool("PROVIDER_MOCK", true),
			SuccessRate: getEnvAsFloat("PROVIDER_MOCK_SUCCESS_RATE", 0.95),
		},
		Dispatch: DispatchConfig{
			Interval:       getEnvAsDuration("DISPATCH_INTERVAL", 30*time.Second),
			CampaignBatch:  getEnvAsInt("DISPATCH_CAMPAIGN_BATCH", 5),
			RecipientBatch: getEnvAsInt("DISPATCH_RECIPIENT_BATCH", 20),
		},
		Env: getEnv("ENV", "development"),
	}

	// Validate required fields
	if config.Database.Password == "" {
		return nil, fmt.Errorf("POSTGRES_PASSWORD is required")
	}
	if !config.Provider.Mock && (config.Provider.AccountID == "" || config.Provider.AuthToken == "") {
		return nil, fmt.Errorf("PROVIDER_ACCOUNT_ID and PROVIDER_AUTH_TOKEN are required when PROVIDER_MOCK is false")
	}

	return config, nil
}

// GetDatabaseDSN returns PostgreSQL connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// GetRabbitMQURL returns RabbitMQ connection URL
func (c *Config) GetRabbitMQURL() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		c.RabbitMQ.User,
		c.RabbitMQ.Password,
		c.RabbitMQ.Host,
		c.RabbitMQ.Port,
	)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// getEnv gets environment variable or returns default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets environment variable as integer or returns default
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool gets environment variable as boolean or returns default
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsFloat gets environment variable as float or returns default
func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsDuration gets environment variable as duration or returns default
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
