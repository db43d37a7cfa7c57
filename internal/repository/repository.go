// Package repository contains the document store abstraction.
// Implementations live in subpackages (postgres, mongodb) inside this directory.
package repository

import (
	"context"
	"errors"

	"otikaapi/internal/model"
)

var (
	// ErrStoreUnavailable is returned when no database connection exists.
	ErrStoreUnavailable = errors.New("document store is not available")
	// ErrDuplicateKey is returned when a write collides with a unique field.
	ErrDuplicateKey = errors.New("duplicate key")
)

// DocumentStore persists and retrieves schemaless documents per collection.
// Implementations hold no business logic.
type DocumentStore interface {
	// Create durably writes doc into collection and returns its identifier.
	// doc is any JSON/BSON-encodable value, normally a validated model struct.
	Create(ctx context.Context, collection string, doc any) (string, error)

	// Query returns documents from collection matching filter, in insertion order.
	// A limit <= 0 returns every match. The native identifier of each document is
	// exposed as a string "id" field and never under its native name.
	Query(ctx context.Context, collection string, filter model.Filter, limit int) ([]model.Record, error)

	// EnsureUnique installs a uniqueness constraint on field within collection.
	EnsureUnique(ctx context.Context, collection, field string) error

	// Ping checks connectivity.
	Ping(ctx context.Context) error

	// Name returns the database name in use.
	Name() string

	// CollectionNames lists the collections holding at least one document or index.
	CollectionNames(ctx context.Context) ([]string, error)

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}
