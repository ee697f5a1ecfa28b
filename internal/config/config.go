package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultJWTSecret is used outside production when JWT_SECRET is unset.
const DefaultJWTSecret = "your-secret-key-change-in-production"

type Config struct {
	// Server
	Port           string
	Environment    string
	APIDelay       time.Duration
	AllowedOrigins []string
	LogLevel       string

	// Storage
	StorageDir          string
	BackupRetentionDays int
	BackupPruneSchedule string

	// Auth
	JWTSecret          string
	JWTExpirationHours int
	BcryptCost         int

	// UsingDefaultSecret is set when JWTSecret fell back to DefaultJWTSecret.
	UsingDefaultSecret bool
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTExpirationHours) * time.Hour
}

// Load reads dotenv files and the environment. Files are loaded highest
// priority first and never override variables that are already set.
func Load() (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, err
	}

	expHours, err := getEnvInt("JWT_EXPIRATION_HOURS", 24)
	if err != nil {
		return nil, err
	}
	cost, err := getEnvInt("BCRYPT_COST", 10)
	if err != nil {
		return nil, err
	}
	delayMs, err := getEnvInt("API_DELAY_MS", 1000)
	if err != nil {
		return nil, err
	}
	retention, err := getEnvInt("BACKUP_RETENTION_DAYS", 30)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:                getEnv("PORT", "4000"),
		Environment:         getEnv("ENVIRONMENT", "development"),
		APIDelay:            time.Duration(delayMs) * time.Millisecond,
		AllowedOrigins:      splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		StorageDir:          getEnv("STORAGE_PATH", "data/storage"),
		BackupRetentionDays: retention,
		BackupPruneSchedule: getEnv("BACKUP_PRUNE_SCHEDULE", "@daily"),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		JWTExpirationHours:  expHours,
		BcryptCost:          cost,
	}

	if cfg.JWTExpirationHours <= 0 {
		return nil, fmt.Errorf("JWT_EXPIRATION_HOURS must be positive, got %d", cfg.JWTExpirationHours)
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET environment variable is required in production")
		}
		cfg.JWTSecret = DefaultJWTSecret
		cfg.UsingDefaultSecret = true
	}

	return cfg, nil
}

// loadEnvFiles skips files that do not exist but fails on one that cannot
// be parsed.
func loadEnvFiles() error {
	env := getEnv("ENVIRONMENT", "development")
	for _, name := range []string{".env.local", ".env." + env, ".env"} {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		// godotenv.Load never overrides variables that are already set.
		if err := godotenv.Load(name); err != nil {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
