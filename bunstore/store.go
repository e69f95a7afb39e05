// Package bunstore implements the registrar repository contract on top
// of uptrace/bun, for postgres and sqlite. It has no migrator and no
// soft-delete handling; gormstore owns schema management.
package bunstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/edukit/registrar"
)

// Store wraps one bun connection pool. Inside a transaction db is the
// bun.Tx; root always points at the pool.
type Store struct {
	root   *bun.DB
	db     bun.IDB
	config registrar.Config
}

// Open connects to the configured database and returns a Store
func Open(config registrar.Config) (*Store, error) {
	var sqldb *sql.DB
	var db *bun.DB

	switch strings.ToLower(config.Driver) {
	case registrar.DialectPostgres, "postgresql":
		sqldb = sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(postgresDSN(config))))
		db = bun.NewDB(sqldb, pgdialect.New())
	case registrar.DialectSQLite, "sqlite3":
		var err error
		sqldb, err = sql.Open("sqlite3", sqliteDSN(config))
		if err != nil {
			return nil, registrar.NewErrorWithCause(registrar.KindConnection,
				"failed to open sqlite database", err)
		}
		db = bun.NewDB(sqldb, sqlitedialect.New())
	default:
		return nil, registrar.NewError(registrar.KindUnsupported,
			fmt.Sprintf("unsupported driver: %s", config.Driver))
	}

	if config.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		sqldb.SetMaxIdleConns(config.MaxIdleConns)
	}
	if config.ConnMaxLifetime > 0 {
		sqldb.SetConnMaxLifetime(config.ConnMaxLifetime)
	}
	if strings.Contains(config.Database, ":memory:") {
		sqldb.SetMaxOpenConns(1)
	}

	if config.LogQueries {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	return &Store{root: db, db: db, config: config}, nil
}

// DB exposes the underlying bun handle
func (s *Store) DB() bun.IDB {
	return s.db
}

// Health pings the database
func (s *Store) Health() error {
	if err := s.root.Ping(); err != nil {
		return registrar.NewErrorWithCause(registrar.KindConnection, "ping failed", err)
	}
	return nil
}

// Close closes the connection pool
func (s *Store) Close() error {
	return s.root.Close()
}

// Info implements registrar.Store
func (s *Store) Info() registrar.StoreInfo {
	return registrar.StoreInfo{
		Name:    "bun",
		Dialect: s.config.Driver,
		Features: []registrar.Feature{
			registrar.FeatureTransactions,
			registrar.FeatureAggregation,
			registrar.FeatureRawSQL,
			registrar.FeatureRelationLoading,
			registrar.FeatureUpsert,
		},
	}
}

// Exec runs raw SQL that returns no rows
func (s *Store) Exec(ctx context.Context, query string, args ...interface{}) (registrar.Result, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	return res, nil
}

// withTx clones the store around a transaction handle
func (s *Store) withTx(tx bun.Tx) *Store {
	clone := *s
	clone.db = tx
	return &clone
}

func postgresDSN(config registrar.Config) string {
	if config.ConnectionURL != "" {
		return config.ConnectionURL
	}

	sslmode := "disable"
	if config.SSL.Enabled {
		sslmode = config.SSL.Mode
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		config.Username, config.Password, config.Host, config.Port,
		config.Database, sslmode)
}

func sqliteDSN(config registrar.Config) string {
	dsn := config.Database
	if config.ConnectionURL != "" {
		dsn = config.ConnectionURL
	}
	if dsn == ":memory:" {
		dsn = "file::memory:?cache=shared"
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}

var _ registrar.Store = (*Store)(nil)
