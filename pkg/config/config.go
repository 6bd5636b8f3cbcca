package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config represents the application configuration
type Config struct {
	ServiceName   string
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Procurement   ProcurementConfig
	Replenishment ReplenishmentConfig
	JWT           JWTConfig
	Log           LogConfig
	Metrics       MetricsConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port string `validate:"required"`
	Env  string `validate:"oneof=development staging production test"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver          string `validate:"oneof=postgres mysql"`
	Host            string `validate:"required"`
	Port            string `validate:"required"`
	User            string
	Password        string
	Name            string `validate:"required"`
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	QueryTimeout    time.Duration `validate:"gt=0"`
	LogLevel        string
	AutoMigrate     bool
}

// DSN returns the driver specific connection string
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "mysql" {
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
			c.User, c.Password, c.Host, c.Port, c.Name)
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// RedisConfig holds Redis connection settings. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ProcurementConfig holds the external purchase order API settings
type ProcurementConfig struct {
	BaseURL      string        `validate:"required,url"`
	TokenURL     string        `validate:"required,url"`
	OrderPath    string        `validate:"required"`
	ClientID     string        `validate:"required"`
	ClientSecret string        `validate:"required"`
	RefreshToken string        // bootstrap token used when the store is empty
	Timeout      time.Duration `validate:"gt=0"`
	TokenStore   string        `validate:"oneof=file redis"`
	TokenFile    string        `validate:"required_if=TokenStore file"`
	TokenKey     string        `validate:"required_if=TokenStore redis"`
}

// ReplenishmentConfig holds the decision pipeline parameters
type ReplenishmentConfig struct {
	BaseCoverageDays  int `validate:"gt=0"`
	DemandWindowDays  int `validate:"gt=0"`
	ABCWindowDays     int `validate:"gt=0"`
	StrictUnmapped    bool
	SupplierTablePath string `validate:"required"`
	RunLockTTL        time.Duration
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	SigningKey      string `validate:"required"`
	ExpirationHours int    `validate:"gt=0"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// MetricsConfig holds metrics-related configuration
type MetricsConfig struct {
	Prefix string
}

// ConfigError reports a broken configuration. It is fatal at startup.
type ConfigError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	msg := "config error"
	if e.Field != "" {
		msg += " in " + e.Field
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Load loads the application configuration from environment variables
func Load(serviceName string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{
		ServiceName: serviceName,
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8085"),
			Env:  getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "postgres"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Name:            getEnv("DB_NAME", "replenishment"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 20),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			QueryTimeout:    getEnvAsDuration("DB_QUERY_TIMEOUT", 30*time.Second),
			LogLevel:        getEnv("DB_LOG_LEVEL", "error"),
			AutoMigrate:     getEnvAsBool("DB_AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDRESS", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Procurement: ProcurementConfig{
			BaseURL:      getEnv("PROCUREMENT_BASE_URL", "https://www.bling.com.br/Api/v3"),
			TokenURL:     getEnv("PROCUREMENT_TOKEN_URL", "https://www.bling.com.br/Api/v3/oauth/token"),
			OrderPath:    getEnv("PROCUREMENT_ORDER_PATH", "/pedidos/compras"),
			ClientID:     getEnv("PROCUREMENT_CLIENT_ID", ""),
			ClientSecret: getEnv("PROCUREMENT_CLIENT_SECRET", ""),
			RefreshToken: getEnv("PROCUREMENT_REFRESH_TOKEN", ""),
			Timeout:      getEnvAsDuration("PROCUREMENT_TIMEOUT", 20*time.Second),
			TokenStore:   getEnv("PROCUREMENT_TOKEN_STORE", "file"),
			TokenFile:    getEnv("PROCUREMENT_TOKEN_FILE", "tokens.json"),
			TokenKey:     getEnv("PROCUREMENT_TOKEN_KEY", "replenishment:procurement:tokens"),
		},
		Replenishment: ReplenishmentConfig{
			BaseCoverageDays:  getEnvAsInt("REPLENISHMENT_BASE_COVERAGE_DAYS", 30),
			DemandWindowDays:  getEnvAsInt("REPLENISHMENT_DEMAND_WINDOW_DAYS", 30),
			ABCWindowDays:     getEnvAsInt("REPLENISHMENT_ABC_WINDOW_DAYS", 90),
			StrictUnmapped:    getEnvAsBool("REPLENISHMENT_STRICT_UNMAPPED", false),
			SupplierTablePath: getEnv("REPLENISHMENT_SUPPLIER_TABLE", "suppliers.yaml"),
			RunLockTTL:        getEnvAsDuration("REPLENISHMENT_RUN_LOCK_TTL", 10*time.Minute),
		},
		JWT: JWTConfig{
			SigningKey:      getEnv("JWT_SIGNING_KEY", ""),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 8),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			Prefix: getEnv("METRICS_PREFIX", "replenishment"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks the configuration and returns a *ConfigError on the first problem
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ConfigError{
			Field:  strings.TrimPrefix(fe.Namespace(), "Config."),
			Reason: fmt.Sprintf("failed %q check", fe.Tag()),
		}
	}
	return &ConfigError{Err: err}
}

// LogFields returns the non-secret configuration as zap fields
func (c *Config) LogFields() []zap.Field {
	return []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Server.Env),
		zap.String("db_driver", c.Database.Driver),
		zap.String("db_host", c.Database.Host),
		zap.String("db_name", c.Database.Name),
		zap.String("procurement_base_url", c.Procurement.BaseURL),
		zap.String("token_store", c.Procurement.TokenStore),
		zap.Int("base_coverage_days", c.Replenishment.BaseCoverageDays),
		zap.Int("demand_window_days", c.Replenishment.DemandWindowDays),
		zap.Int("abc_window_days", c.Replenishment.ABCWindowDays),
		zap.String("supplier_table", c.Replenishment.SupplierTablePath),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
