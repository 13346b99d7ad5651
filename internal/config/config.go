package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Supported persistence backends
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Jobs     JobsConfig
	Store    StoreConfig
	Upload   UploadConfig
	App      AppConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	ConnMaxLifetime time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
}

// AuthConfig holds authentication and secret-handling configuration.
// JWTSecret and TOTPEncryptionKey have no defaults: startup fails when
// they are missing rather than falling back to a known value.
type AuthConfig struct {
	JWTSecret         string
	TOTPEncryptionKey string
	TokenTTL          time.Duration
	RateLimitRPS      float64
	RateLimitBurst    int
}

// JobsConfig holds background sweep scheduling configuration
type JobsConfig struct {
	AutoApproveInterval  time.Duration
	AutoApproveThreshold time.Duration
	MaturationInterval   time.Duration
}

// StoreConfig selects the persistence backend
type StoreConfig struct {
	Driver string
}

// UploadConfig holds avatar upload configuration
type UploadConfig struct {
	Dir      string
	MaxBytes int64
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	TwoFactorIssuer string
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// Load loads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "3000"),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", "15s"),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", "15s"),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", "60s"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "simplecrypto"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", "5m"),
		},
		Auth: AuthConfig{
			JWTSecret:         os.Getenv("JWT_SECRET"),
			TOTPEncryptionKey: os.Getenv("TOTP_ENCRYPTION_KEY"),
			TokenTTL:          getEnvAsDuration("TOKEN_TTL", "1h"),
			RateLimitRPS:      getEnvAsFloat("AUTH_RATE_LIMIT_RPS", 1),
			RateLimitBurst:    getEnvAsInt("AUTH_RATE_LIMIT_BURST", 5),
		},
		Jobs: JobsConfig{
			AutoApproveInterval:  getEnvAsDuration("AUTO_APPROVE_INTERVAL", "30s"),
			AutoApproveThreshold: getEnvAsDuration("AUTO_APPROVE_THRESHOLD", "2m"),
			MaturationInterval:   getEnvAsDuration("MATURATION_INTERVAL", "1m"),
		},
		Store: StoreConfig{
			Driver: getEnv("STORE_DRIVER", StoreDriverPostgres),
		},
		Upload: UploadConfig{
			Dir:      getEnv("UPLOAD_DIR", "uploads"),
			MaxBytes: int64(getEnvAsInt("UPLOAD_MAX_BYTES", 5*1024*1024)),
		},
		App: AppConfig{
			TwoFactorIssuer: getEnv("TWO_FACTOR_ISSUER", "SimpleCrypto"),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Auth.TOTPEncryptionKey == "" {
		return fmt.Errorf("TOTP_ENCRYPTION_KEY is required")
	}
	if key, err := hex.DecodeString(c.Auth.TOTPEncryptionKey); err != nil || len(key) != 32 {
		return fmt.Errorf("TOTP_ENCRYPTION_KEY must be a hex-encoded 32-byte key")
	}
	if c.Auth.RateLimitRPS <= 0 {
		return fmt.Errorf("auth rate limit must be positive")
	}

	switch c.Store.Driver {
	case StoreDriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database host cannot be empty")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("database name cannot be empty")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("invalid store driver: %s (must be postgres or memory)", c.Store.Driver)
	}

	if c.Jobs.AutoApproveInterval <= 0 || c.Jobs.MaturationInterval <= 0 {
		return fmt.Errorf("sweep intervals must be positive")
	}
	if c.Jobs.AutoApproveThreshold <= 0 {
		return fmt.Errorf("auto-approve threshold must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}
	if c.Logger.Format != "json" && c.Logger.Format != "text" {
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.Logger.Format)
	}

	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to parsing the default if provided value is invalid
		duration, err = time.ParseDuration(defaultValue)
		if err != nil {
			return 0
		}
	}
	return duration
}
