package auditstore

import (
	"fmt"
	"os"
	"path/filepath"
)

// DriverType selects the audit store's SQL backend.
type DriverType string

const (
	// DriverSQLite is the default, for a single local client.
	DriverSQLite DriverType = "sqlite"
	// DriverPostgres is for a fleet-managed deployment sharing one
	// audit database.
	DriverPostgres DriverType = "postgres"
)

// SQLiteConfig configures the embedded, file-backed driver.
type SQLiteConfig struct {
	// Path to the database file. Default: $XDG_CONFIG_HOME/vassist/audit.db
	Path string
}

// PostgresConfig configures the shared-fleet driver.
type PostgresConfig struct {
	Host         string
	Port         int
	Database     string
	User         string
	Password     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// DSN returns the libpq connection string for this configuration.
func (c *PostgresConfig) DSN() string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		c.Host, c.Port, c.User, c.Password, c.Database)
	if c.SSLMode != "" {
		dsn += fmt.Sprintf(" sslmode=%s", c.SSLMode)
	}
	return dsn
}

// Config selects and configures the audit store's driver. Grounded on
// pkg/controlplane/store/gorm.go's dual sqlite/postgres Config shape.
type Config struct {
	Type     DriverType
	SQLite   SQLiteConfig
	Postgres PostgresConfig
}

// ApplyDefaults fills in unset fields the same way gorm.go's
// Config.ApplyDefaults does.
func (c *Config) ApplyDefaults() {
	if c.Type == "" {
		c.Type = DriverSQLite
	}
	if c.Type == DriverSQLite && c.SQLite.Path == "" {
		configDir := os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, _ := os.UserHomeDir()
			configDir = filepath.Join(home, ".config")
		}
		c.SQLite.Path = filepath.Join(configDir, "vassist", "audit.db")
	}
	if c.Type == DriverPostgres {
		if c.Postgres.Port == 0 {
			c.Postgres.Port = 5432
		}
		if c.Postgres.SSLMode == "" {
			c.Postgres.SSLMode = "disable"
		}
		if c.Postgres.MaxOpenConns == 0 {
			c.Postgres.MaxOpenConns = 10
		}
		if c.Postgres.MaxIdleConns == 0 {
			c.Postgres.MaxIdleConns = 2
		}
	}
}

// Validate checks the configuration for completeness.
func (c *Config) Validate() error {
	switch c.Type {
	case DriverSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("sqlite path is required")
		}
	case DriverPostgres:
		if c.Postgres.Host == "" {
			return fmt.Errorf("postgres host is required")
		}
		if c.Postgres.Database == "" {
			return fmt.Errorf("postgres database is required")
		}
		if c.Postgres.User == "" {
			return fmt.Errorf("postgres user is required")
		}
	default:
		return fmt.Errorf("unsupported audit store driver: %s", c.Type)
	}
	return nil
}
