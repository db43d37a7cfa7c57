package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/invopop/jsonschema"

	"otikaapi/internal/apperr"
	"otikaapi/internal/model"
	"otikaapi/internal/repository"
	"otikaapi/internal/schema"
)

// SchemaEntry pairs an entity name with its published schema.
type SchemaEntry struct {
	Name   string             `json:"name"`
	Schema *jsonschema.Schema `json:"schema"`
}

// DocumentService defines the use cases for handling entity documents.
type DocumentService interface {
	// Create validates payload against the entity schema and persists it.
	// It returns the store-assigned identifier.
	Create(ctx context.Context, entity string, payload []byte) (string, error)

	// List returns stored documents of entity in insertion order.
	// A limit of 0 returns every document; negative limits are rejected.
	List(ctx context.Context, entity string, limit int) ([]model.Record, error)

	// Schemas describes every registered entity in registration order.
	Schemas() ([]SchemaEntry, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	registry *schema.Registry
	store    repository.DocumentStore
}

// NewDocumentService constructs a new DocumentService. store may be nil when no
// database is configured; store-backed calls then fail as unavailable.
func NewDocumentService(registry *schema.Registry, store repository.DocumentStore) DocumentService {
	return &documentService{registry: registry, store: store}
}

func (s *documentService) Create(ctx context.Context, entity string, payload []byte) (string, error) {
	record, err := s.registry.Validate(entity, payload)
	if err != nil {
		return "", err
	}
	collection, err := s.registry.Collection(entity)
	if err != nil {
		return "", err
	}
	if s.store == nil {
		return "", apperr.Wrap(apperr.KindUnavailable, repository.ErrStoreUnavailable)
	}

	id, err := s.store.Create(ctx, collection, record)
	if err != nil {
		return "", storeError(err)
	}
	return id, nil
}

func (s *documentService) List(ctx context.Context, entity string, limit int) ([]model.Record, error) {
	if limit < 0 {
		return nil, apperr.Validation([]apperr.Violation{
			{Field: "limit", Message: "ensure this value is greater than or equal to 0"},
		})
	}
	collection, err := s.registry.Collection(entity)
	if err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, repository.ErrStoreUnavailable)
	}

	items, err := s.store.Query(ctx, collection, model.Filter{}, limit)
	if err != nil {
		return nil, storeError(err)
	}
	return items, nil
}

func (s *documentService) Schemas() ([]SchemaEntry, error) {
	names := s.registry.Names()
	out := make([]SchemaEntry, 0, len(names))
	for _, name := range names {
		sch, err := s.registry.Describe(name)
		if err != nil {
			return nil, err
		}
		out = append(out, SchemaEntry{Name: name, Schema: sch})
	}
	return out, nil
}

// EnsureIndexes installs the unique constraints declared by every registered entity.
func EnsureIndexes(ctx context.Context, registry *schema.Registry, store repository.DocumentStore) error {
	for _, name := range registry.Names() {
		e, err := registry.Lookup(name)
		if err != nil {
			return err
		}
		for _, field := range e.Unique {
			if err := store.EnsureUnique(ctx, e.Collection, field); err != nil {
				return fmt.Errorf("entity %s: %w", name, err)
			}
		}
	}
	return nil
}

func storeError(err error) error {
	switch {
	case errors.Is(err, repository.ErrStoreUnavailable):
		return apperr.Wrap(apperr.KindUnavailable, err)
	case errors.Is(err, repository.ErrDuplicateKey):
		return apperr.Wrap(apperr.KindConflict, err)
	default:
		return apperr.Wrap(apperr.KindInternal, err)
	}
}
