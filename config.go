package registrar

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Dialect constants
const (
	DialectSQLite    = "sqlite"
	DialectPostgres  = "postgres"
	DialectMySQL     = "mysql"
	DialectSQLServer = "sqlserver"
)

// SupportedDialects is a list of all supported database dialects
var SupportedDialects = []string{
	DialectSQLite,
	DialectPostgres,
	DialectMySQL,
	DialectSQLServer,
}

// IsDialectSupported checks if the given dialect is supported
func IsDialectSupported(dialect string) bool {
	for _, d := range SupportedDialects {
		if d == dialect {
			return true
		}
	}
	return false
}

// Config represents database connection configuration
type Config struct {
	// Connection details
	Driver        string `json:"driver" yaml:"driver"`
	ConnectionURL string `json:"connection_url" yaml:"connection_url"`
	Host          string `json:"host" yaml:"host"`
	Port          int    `json:"port" yaml:"port"`
	Database      string `json:"database" yaml:"database"`
	Username      string `json:"username" yaml:"username"`
	Password      string `json:"password" yaml:"password"`

	// Connection pool settings
	MaxOpenConns    int           `json:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time" yaml:"conn_max_idle_time"`

	// Logging
	LogQueries bool   `json:"log_queries" yaml:"log_queries"`
	LogLevel   string `json:"log_level" yaml:"log_level"`

	// SSL/TLS configuration
	SSL SSLConfig `json:"ssl" yaml:"ssl"`
}

// SSLConfig represents SSL/TLS configuration
type SSLConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Mode     string `json:"mode" yaml:"mode"`
	CertFile string `json:"cert_file" yaml:"cert_file"`
	KeyFile  string `json:"key_file" yaml:"key_file"`
	CAFile   string `json:"ca_file" yaml:"ca_file"`
}

// LoadConfig loads configuration from an optional YAML file, then
// overrides with environment variables. The datasource URL is
// environment-supplied in deployments: DATABASE_URL wins over the file.
func LoadConfig(path string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			raw, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			if err := yaml.Unmarshal(raw, config); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	loadFromEnv(config)

	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Driver = DialectSQLite
	config.Database = ":memory:"
	config.MaxOpenConns = 25
	config.MaxIdleConns = 5
	config.ConnMaxLifetime = 5 * time.Minute
	config.LogLevel = "warn"
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) {
	if v := os.Getenv("DB_DRIVER"); v != "" {
		config.Driver = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		config.ConnectionURL = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		config.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Port = port
		}
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		config.Database = v
	}
	if v := os.Getenv("DB_USER"); v != "" {
		config.Username = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		config.Password = v
	}
	if v := os.Getenv("DB_MAX_OPEN_CONNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.MaxOpenConns = n
		}
	}
	if v := os.Getenv("DB_MAX_IDLE_CONNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.MaxIdleConns = n
		}
	}
	if v := os.Getenv("DB_CONN_MAX_LIFETIME"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.ConnMaxLifetime = d
		}
	}
	if v := os.Getenv("DB_LOG_QUERIES"); v != "" {
		config.LogQueries = v == "true" || v == "1"
	}
	if v := os.Getenv("DB_LOG_LEVEL"); v != "" {
		config.LogLevel = v
	}
}

// validateConfig checks required fields
func validateConfig(config *Config) error {
	if !IsDialectSupported(config.Driver) {
		return NewError(KindValidation, fmt.Sprintf("unsupported driver: %s", config.Driver))
	}
	if config.ConnectionURL == "" && config.Database == "" {
		return NewError(KindValidation, "either connection_url or database must be set")
	}
	return nil
}
