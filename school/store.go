// Package school wraps the generic repositories with one typed handle
// per entity and the lookup helpers the rest of the system uses:
// unique-key finders, association management, and term reporting.
package school

import (
	"context"

	"github.com/edukit/registrar"
	"github.com/edukit/registrar/gormstore"
	"github.com/edukit/registrar/schema"
)

// Store is the root handle: one repository per entity, all sharing one
// underlying connection (or one transaction).
type Store struct {
	db *gormstore.Store

	Users       *Users
	Sessions    *Sessions
	Roles       *Roles
	Permissions *Permissions
	Departments *Departments
	Teachers    *Teachers
	Courses     *Courses
	Classes     *Classes
	Students    *Students
	Attendances *Attendances
	Grades      *Grades
	Documents   *Documents
}

// New builds a Store over an opened gormstore connection
func New(db *gormstore.Store) *Store {
	return &Store{
		db:          db,
		Users:       &Users{gormstore.NewRepository[schema.User](db)},
		Sessions:    &Sessions{gormstore.NewRepository[schema.Session](db)},
		Roles:       &Roles{gormstore.NewRepository[schema.Role](db)},
		Permissions: &Permissions{gormstore.NewRepository[schema.Permission](db)},
		Departments: &Departments{gormstore.NewRepository[schema.Department](db)},
		Teachers:    &Teachers{gormstore.NewRepository[schema.Teacher](db)},
		Courses:     &Courses{gormstore.NewRepository[schema.Course](db)},
		Classes:     &Classes{gormstore.NewRepository[schema.Class](db)},
		Students:    &Students{gormstore.NewRepository[schema.Student](db)},
		Attendances: &Attendances{gormstore.NewRepository[schema.Attendance](db)},
		Grades:      &Grades{gormstore.NewRepository[schema.Grade](db)},
		Documents:   &Documents{gormstore.NewRepository[schema.Document](db)},
	}
}

// Open connects per the config and returns a ready Store
func Open(config registrar.Config, opts ...gormstore.Option) (*Store, error) {
	db, err := gormstore.Open(config, opts...)
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

// DB exposes the underlying store for raw SQL and metadata
func (s *Store) DB() *gormstore.Store {
	return s.db
}

// Migrate creates or updates every table, join table and index
func (s *Store) Migrate() error {
	return s.db.Migrate(schema.All()...)
}

// Health implements registrar.Store
func (s *Store) Health() error {
	return s.db.Health()
}

// Close implements registrar.Store
func (s *Store) Close() error {
	return s.db.Close()
}

// Info implements registrar.Store
func (s *Store) Info() registrar.StoreInfo {
	return s.db.Info()
}

// Transaction runs fn with a Store bound to one database transaction.
// All writes commit together or not at all.
func (s *Store) Transaction(ctx context.Context, fn func(ctx context.Context, tx *Store) error, opts ...registrar.TxOption) error {
	return s.db.Transaction(ctx, func(ctx context.Context, tx *gormstore.Store) error {
		return fn(ctx, New(tx))
	}, opts...)
}

var _ registrar.Store = (*Store)(nil)

// toInt64 normalizes the count column drivers return under varying types
func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

// toFloat64 normalizes aggregate values
func toFloat64(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}
