package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const minSecretLength = 32

type Config struct {
	// Store
	DatabaseURL     string
	DBEncryptionKey string

	// Sessions
	SessionSecret string
	SessionTTL    time.Duration

	// HTTP
	ListenAddr string

	// Backup configuration
	BackupDir           string
	BackupRetentionDays int

	// Rate limiting
	RateLimitRPS   int
	RateLimitBurst int

	// Application settings
	Environment string
	LogLevel    string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (not required in production)
	_ = godotenv.Load()

	config := FromEnv()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// FromEnv reads configuration without loading .env or validating.
func FromEnv() *Config {
	return &Config{
		DatabaseURL:         getEnv("DATABASE_URL", "file:./data/notes.db"),
		DBEncryptionKey:     getEnv("DB_ENCRYPTION_KEY", ""),
		SessionSecret:       getEnv("SESSION_SECRET", ""),
		SessionTTL:          time.Duration(getEnvAsInt("SESSION_TTL_HOURS", 24)) * time.Hour,
		ListenAddr:          getEnv("LISTEN_ADDR", ":8080"),
		BackupDir:           getEnv("BACKUP_DIR", "./backups"),
		BackupRetentionDays: getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
		RateLimitRPS:        getEnvAsInt("RATE_LIMIT_REQUESTS_PER_SECOND", 10),
		RateLimitBurst:      getEnvAsInt("RATE_LIMIT_BURST", 20),
		Environment:         getEnv("APP_ENV", "development"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
	}
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// UsesSQLite reports whether DatabaseURL selects the encrypted SQLite store.
func (c *Config) UsesSQLite() bool {
	url := strings.ToLower(c.DatabaseURL)
	return !strings.HasPrefix(url, "postgres://") && !strings.HasPrefix(url, "postgresql://")
}

// Validate reports every missing or malformed setting at once.
func (c *Config) Validate() error {
	var problems []string

	if c.UsesSQLite() {
		switch {
		case c.DBEncryptionKey == "":
			problems = append(problems, "DB_ENCRYPTION_KEY is required")
		case len(c.DBEncryptionKey) < minSecretLength:
			problems = append(problems, fmt.Sprintf("DB_ENCRYPTION_KEY must be at least %d characters", minSecretLength))
		}
	}

	switch {
	case c.SessionSecret == "":
		problems = append(problems, "SESSION_SECRET is required")
	case len(c.SessionSecret) < minSecretLength:
		problems = append(problems, fmt.Sprintf("SESSION_SECRET must be at least %d characters", minSecretLength))
	}

	if c.SessionTTL <= 0 {
		problems = append(problems, "SESSION_TTL_HOURS must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		problems = append(problems, "RATE_LIMIT_REQUESTS_PER_SECOND and RATE_LIMIT_BURST must be positive")
	}
	if c.BackupRetentionDays < 1 {
		problems = append(problems, "BACKUP_RETENTION_DAYS must be at least 1")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Helper functions to read environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
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
