// Package store defines the aggregate persistence interface. The role and
// permission packages each define their own store interface; the composite
// Store composes them.
// Backends: Memory, Postgres, SQLite, and MongoDB.
package store

import (
	"context"
	"errors"

	"github.com/xraph/bastion/permission"
	"github.com/xraph/bastion/role"
)

// ErrNotFound is wrapped by every backend when a requested entity does not
// exist.
var ErrNotFound = errors.New("store: not found")

// Store is the aggregate persistence interface.
// A single backend (memory, postgres, sqlite, mongo) implements all of it.
type Store interface {
	role.Store
	permission.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
