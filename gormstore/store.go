// Package gormstore implements the registrar repository contract on top
// of GORM, with postgres, mysql, sqlite and sqlserver drivers.
package gormstore

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/edukit/registrar"
)

// Store wraps one GORM connection pool
type Store struct {
	db     *gorm.DB
	config registrar.Config
	log    zerolog.Logger
}

// Option customizes a Store before it connects
type Option func(*Store)

// WithLogger routes query logging through the given zerolog logger
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// Open connects to the configured database and returns a Store
func Open(config registrar.Config, opts ...Option) (*Store, error) {
	store := &Store{
		config: config,
		log:    zerolog.New(os.Stderr).With().Timestamp().Str("component", "gormstore").Logger(),
	}
	for _, opt := range opts {
		opt(store)
	}

	var dialector gorm.Dialector
	switch strings.ToLower(config.Driver) {
	case registrar.DialectPostgres, "postgresql":
		dialector = postgres.Open(buildPostgresDSN(config))
	case registrar.DialectMySQL:
		dialector = mysql.Open(buildMySQLDSN(config))
	case registrar.DialectSQLite, "sqlite3":
		dialector = sqlite.Open(buildSQLiteDSN(config))
	case registrar.DialectSQLServer, "mssql":
		dialector = sqlserver.Open(buildSQLServerDSN(config))
	default:
		return nil, registrar.NewError(registrar.KindUnsupported,
			fmt.Sprintf("unsupported driver: %s", config.Driver))
	}

	gormConfig := &gorm.Config{
		Logger:         newQueryLogger(store.log, config.LogLevel, config.LogQueries),
		TranslateError: true,
		NamingStrategy: schema.NamingStrategy{SingularTable: false},
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, registrar.NewErrorWithCause(registrar.KindConnection,
			"failed to connect to database", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, registrar.NewErrorWithCause(registrar.KindConnection,
			"failed to get underlying sql.DB", err)
	}

	if config.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	}
	if config.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)
	}
	if config.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(config.ConnMaxIdleTime)
	}

	// A shared in-memory sqlite database only behaves with one
	// connection; separate pool connections would each get their own
	// empty database.
	if isSQLiteMemory(config) {
		sqlDB.SetMaxOpenConns(1)
	}

	store.db = db
	return store, nil
}

// DB exposes the underlying gorm handle for operations the repository
// abstraction cannot express.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Health pings the database
func (s *Store) Health() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return registrar.NewErrorWithCause(registrar.KindConnection,
			"failed to get underlying sql.DB", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return registrar.NewErrorWithCause(registrar.KindConnection, "ping failed", err)
	}
	return nil
}

// Close closes the connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Info implements registrar.Store
func (s *Store) Info() registrar.StoreInfo {
	return registrar.StoreInfo{
		Name:    "gorm",
		Dialect: s.config.Driver,
		Features: []registrar.Feature{
			registrar.FeatureTransactions,
			registrar.FeatureAggregation,
			registrar.FeatureRawSQL,
			registrar.FeatureRelationLoading,
			registrar.FeatureSoftDelete,
			registrar.FeatureUpsert,
		},
	}
}

// Migrate creates or updates the tables for the given models, including
// join tables, foreign keys and unique indexes.
func (s *Store) Migrate(models ...interface{}) error {
	return translate(s.db.AutoMigrate(models...))
}

// Exec runs raw SQL that returns no rows
func (s *Store) Exec(ctx context.Context, sql string, args ...interface{}) (registrar.Result, error) {
	res := s.db.WithContext(ctx).Exec(sql, args...)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	return sqlResult{rowsAffected: res.RowsAffected}, nil
}

// Query runs raw SQL and scans the rows into dest
func (s *Store) Query(ctx context.Context, dest interface{}, sql string, args ...interface{}) error {
	return translate(s.db.WithContext(ctx).Raw(sql, args...).Scan(dest).Error)
}

// withDB clones the store around a different gorm handle, used to hand
// transaction-scoped stores to callers.
func (s *Store) withDB(db *gorm.DB) *Store {
	clone := *s
	clone.db = db
	return &clone
}

// =====================================
// DSN Builders
// =====================================

func buildPostgresDSN(config registrar.Config) string {
	if config.ConnectionURL != "" {
		return config.ConnectionURL
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		config.Host, config.Port, config.Username, config.Password, config.Database)

	if config.SSL.Enabled {
		dsn += " sslmode=" + config.SSL.Mode
		if config.SSL.CertFile != "" {
			dsn += " sslcert=" + config.SSL.CertFile
		}
		if config.SSL.KeyFile != "" {
			dsn += " sslkey=" + config.SSL.KeyFile
		}
		if config.SSL.CAFile != "" {
			dsn += " sslrootcert=" + config.SSL.CAFile
		}
	} else {
		dsn += " sslmode=disable"
	}

	return dsn
}

func buildMySQLDSN(config registrar.Config) string {
	if config.ConnectionURL != "" {
		return config.ConnectionURL
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		config.Username, config.Password, config.Host, config.Port, config.Database)

	if config.SSL.Enabled {
		dsn += "&tls=" + config.SSL.Mode
	}

	return dsn
}

func buildSQLiteDSN(config registrar.Config) string {
	dsn := config.Database
	if config.ConnectionURL != "" {
		dsn = config.ConnectionURL
	}
	if dsn == ":memory:" {
		dsn = "file::memory:?cache=shared"
	}
	// Referential integrity is off by default in sqlite.
	if strings.Contains(dsn, "?") {
		dsn += "&_foreign_keys=on"
	} else {
		dsn += "?_foreign_keys=on"
	}
	return dsn
}

func buildSQLServerDSN(config registrar.Config) string {
	if config.ConnectionURL != "" {
		return config.ConnectionURL
	}

	return fmt.Sprintf("sqlserver://%s:%s@%s:%d?database=%s",
		config.Username, config.Password, config.Host, config.Port, config.Database)
}

func isSQLiteMemory(config registrar.Config) bool {
	driver := strings.ToLower(config.Driver)
	if driver != registrar.DialectSQLite && driver != "sqlite3" {
		return false
	}
	return strings.Contains(config.Database, ":memory:") ||
		strings.Contains(config.ConnectionURL, ":memory:")
}
