package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	ConfigPolicyReplace = "replace"
	ConfigPolicyReject  = "reject"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	App      AppConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver   string `env:"DB_DRIVER" envDefault:"sqlite"`
	Path     string `env:"DB_PATH" envDefault:"referral.db"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD"`
	DBName   string `env:"DB_NAME" envDefault:"referral_rewards"`
	LogLevel string `env:"DB_LOG_LEVEL" envDefault:"error"`
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port        string `env:"SERVER_PORT" envDefault:"8080"`
	FrontendURL string `env:"FRONTEND_URL"`
}

// AppConfig holds application-specific settings
type AppConfig struct {
	JWTSecret             string        `env:"JWT_SECRET,required,notEmpty"`
	TokenTTL              time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	AdminHandles          []string      `env:"ADMIN_HANDLES" envSeparator:","`
	SignupRewardType      string        `env:"SIGNUP_REWARD_TYPE" envDefault:"SIGNUP"`
	DefaultRewardUnit     string        `env:"DEFAULT_REWARD_UNIT" envDefault:"points"`
	RewardConfigPolicy    string        `env:"REWARD_CONFIG_POLICY" envDefault:"replace"`
	StatsSnapshotInterval time.Duration `env:"STATS_SNAPSHOT_INTERVAL" envDefault:"1h"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values the env tags cannot express
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	switch c.App.RewardConfigPolicy {
	case ConfigPolicyReplace, ConfigPolicyReject:
	default:
		return fmt.Errorf("unsupported REWARD_CONFIG_POLICY %q", c.App.RewardConfigPolicy)
	}

	if c.App.StatsSnapshotInterval <= 0 {
		return fmt.Errorf("STATS_SNAPSHOT_INTERVAL must be positive")
	}
	return nil
}

// GetDSN returns the connection string for the configured driver
func (c *Config) GetDSN() string {
	if c.Database.Driver == DriverSQLite {
		return SQLiteDSN(c.Database.Path)
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// SQLiteDSN opens path with a busy timeout and IMMEDIATE transactions so
// concurrent writers queue instead of failing on lock upgrade.
func SQLiteDSN(path string) string {
	return path + "?_busy_timeout=5000&_txlock=immediate"
}

// IsAdmin reports whether handle is configured as an administrator.
// Handles are case-sensitive, matching their uniqueness in the users table.
func (c *Config) IsAdmin(handle string) bool {
	handle = strings.TrimSpace(handle)
	for _, h := range c.App.AdminHandles {
		if strings.TrimSpace(h) == handle {
			return true
		}
	}
	return false
}

// RejectDuplicateConfigs reports whether config creation rejects existing types
func (c *Config) RejectDuplicateConfigs() bool {
	return c.App.RewardConfigPolicy == ConfigPolicyReject
}
