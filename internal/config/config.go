package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port          string   `yaml:"port" env:"SERVER_PORT"`
		Mode          string   `yaml:"mode" env:"SERVER_MODE"`
		PublicBaseURL string   `yaml:"public_base_url" env:"SERVER_PUBLIC_BASE_URL"`
		CORSOrigins   []string `yaml:"cors_origins" env:"SERVER_CORS_ORIGINS"`
	} `yaml:"server"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		MigrationsDir   string `yaml:"migrations_dir" env:"DB_MIGRATIONS_DIR"`
	} `yaml:"database"`

	JWT struct {
		Secret                 string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration  string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		RefreshTokenExpiration string `yaml:"refresh_token_expiration" env:"JWT_REFRESH_TOKEN_EXPIRATION"`
		Issuer                 string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	SMTP struct {
		Host      string `yaml:"host" env:"SMTP_HOST"`
		Port      int    `yaml:"port" env:"SMTP_PORT"`
		Username  string `yaml:"username" env:"SMTP_USERNAME"`
		Password  string `yaml:"password" env:"SMTP_PASSWORD"`
		FromName  string `yaml:"from_name" env:"SMTP_FROM_NAME"`
		FromEmail string `yaml:"from_email" env:"SMTP_FROM_EMAIL"`
		UseTLS    bool   `yaml:"use_tls" env:"SMTP_USE_TLS"`
		Disabled  bool   `yaml:"disabled" env:"DISABLE_EMAIL"`
		ClientURL string `yaml:"client_url" env:"CLIENT_URL"`
	} `yaml:"smtp"`

	Storage struct {
		Driver        string `yaml:"driver" env:"STORAGE_DRIVER"`
		LocalPath     string `yaml:"local_path" env:"STORAGE_LOCAL_PATH"`
		S3Bucket      string `yaml:"s3_bucket" env:"S3_BUCKET_NAME"`
		S3Region      string `yaml:"s3_region" env:"AWS_REGION"`
		S3Prefix      string `yaml:"s3_prefix" env:"S3_PREFIX"`
		S3PublicURL   string `yaml:"s3_public_url" env:"S3_PUBLIC_URL"`
		PresignExpiry string `yaml:"presign_expiry" env:"STORAGE_PRESIGN_EXPIRY"`
	} `yaml:"storage"`

	MainAdmin struct {
		Name       string `yaml:"name" env:"MAIN_ADMIN_NAME"`
		Email      string `yaml:"email" env:"MAIN_ADMIN_EMAIL"`
		Password   string `yaml:"password" env:"MAIN_ADMIN_PASSWORD"`
		EmployeeID string `yaml:"employee_id" env:"MAIN_ADMIN_EMPLOYEE_ID"`
	} `yaml:"main_admin"`

	Points struct {
		ProfileCompletionPoints int `yaml:"profile_completion_points" env:"POINTS_PROFILE_COMPLETION"`
		ConnectionPoints        int `yaml:"connection_points" env:"POINTS_CONNECTION"`
		PostPoints              int `yaml:"post_points" env:"POINTS_POST"`
		PostLimitCount          int `yaml:"post_limit_count" env:"POINTS_POST_LIMIT_COUNT"`
		PostLimitDays           int `yaml:"post_limit_days" env:"POINTS_POST_LIMIT_DAYS"`
	} `yaml:"points"`

	Rollover struct {
		SchedulerEnabled bool   `yaml:"scheduler_enabled" env:"ROLLOVER_SCHEDULER_ENABLED"`
		CheckInterval    string `yaml:"check_interval" env:"ROLLOVER_CHECK_INTERVAL"`
	} `yaml:"rollover"`

	Metrics struct {
		Enabled bool   `yaml:"enabled" env:"METRICS_ENABLED"`
		Path    string `yaml:"path" env:"METRICS_PATH"`
	} `yaml:"metrics"`
}

// LoadConfig loads configuration from .env files, a YAML file and environment variables,
// in increasing order of precedence.
func LoadConfig(configPath string) (*Config, error) {
	// A missing .env file is fine; real environment variables still apply.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.PublicBaseURL = "http://localhost:8080"
	config.Server.CORSOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "alumnet"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"
	config.Database.MigrationsDir = "migrations"

	config.JWT.AccessTokenExpiration = "168h"
	config.JWT.RefreshTokenExpiration = "720h"
	config.JWT.Issuer = "alumnet.app"

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.SMTP.Host = "smtp.gmail.com"
	config.SMTP.Port = 587
	config.SMTP.FromName = "AlumNet"
	config.SMTP.ClientURL = "http://localhost:5173"

	config.Storage.Driver = "local"
	config.Storage.LocalPath = "uploads"
	config.Storage.S3Prefix = "media"
	config.Storage.PresignExpiry = "5m"

	config.MainAdmin.Name = "Main Admin"
	config.MainAdmin.EmployeeID = "EMP001"

	config.Points.ProfileCompletionPoints = 50
	config.Points.ConnectionPoints = 10
	config.Points.PostPoints = 5
	config.Points.PostLimitCount = 2
	config.Points.PostLimitDays = 7

	config.Rollover.CheckInterval = "1h"

	config.Metrics.Enabled = true
	config.Metrics.Path = "/metrics"
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return processStructFields(config)
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if _, err := time.ParseDuration(config.JWT.AccessTokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT access token expiration format: %w", err)
	}

	if _, err := time.ParseDuration(config.JWT.RefreshTokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT refresh token expiration format: %w", err)
	}

	switch strings.ToLower(config.Storage.Driver) {
	case "local":
		if config.Storage.LocalPath == "" {
			return fmt.Errorf("storage local_path is required for the local driver")
		}
	case "s3":
		if config.Storage.S3Bucket == "" || config.Storage.S3Region == "" {
			return fmt.Errorf("storage s3_bucket and s3_region are required for the s3 driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", config.Storage.Driver)
	}

	if _, err := time.ParseDuration(config.Storage.PresignExpiry); err != nil {
		return fmt.Errorf("invalid storage presign expiry: %w", err)
	}

	if config.Rollover.SchedulerEnabled {
		if _, err := time.ParseDuration(config.Rollover.CheckInterval); err != nil {
			return fmt.Errorf("invalid rollover check interval: %w", err)
		}
	}

	if config.Points.PostLimitCount < 1 || config.Points.PostLimitDays < 1 {
		return fmt.Errorf("points post limit count and days must be at least 1")
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// GetEnv gets an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
