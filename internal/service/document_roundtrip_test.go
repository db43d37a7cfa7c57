package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"otikaapi/internal/apperr"
	"otikaapi/internal/model"
	"otikaapi/internal/repository"
	"otikaapi/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore keeps documents as their JSON form, the way the Postgres store
// keeps them in a JSONB column.
type memStore struct {
	docs   map[string][]model.Record
	unique map[string][]string
	seq    int
}

func newMemStore() *memStore {
	return &memStore{docs: map[string][]model.Record{}, unique: map[string][]string{}}
}

var _ repository.DocumentStore = (*memStore)(nil)

func (s *memStore) Create(_ context.Context, collection string, doc any) (string, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	var rec model.Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return "", err
	}
	for _, field := range s.unique[collection] {
		for _, existing := range s.docs[collection] {
			if existing[field] == rec[field] {
				return "", fmt.Errorf("%w: %s", repository.ErrDuplicateKey, field)
			}
		}
	}
	s.seq++
	rec["id"] = fmt.Sprintf("%d", s.seq)
	s.docs[collection] = append(s.docs[collection], rec)
	return rec.ID(), nil
}

func (s *memStore) Query(_ context.Context, collection string, _ model.Filter, limit int) ([]model.Record, error) {
	items := append([]model.Record{}, s.docs[collection]...)
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items, nil
}

func (s *memStore) EnsureUnique(_ context.Context, collection, field string) error {
	s.unique[collection] = append(s.unique[collection], field)
	return nil
}

func (s *memStore) Ping(context.Context) error { return nil }
func (s *memStore) Name() string { return "memory" }
func (s *memStore) CollectionNames(context.Context) ([]string, error) { return nil, nil }
func (s *memStore) Close(context.Context) error { return nil }

func TestDocumentService_ProjectRoundTrip(t *testing.T) {
	ctx := context.Background()
	registry := schema.Default()
	store := newMemStore()
	require.NoError(t, EnsureIndexes(ctx, registry, store))
	svc := NewDocumentService(registry, store)

	id, err := svc.Create(ctx, schema.Project, []byte(`{
		"title": "Acme Site",
		"slug": "acme-site",
		"client": "Acme Inc",
		"category": "landing",
		"description": null,
		"tags": ["saas", "landing"],
		"case_url": "https://acme.example.com",
		"ignored": true
	}`))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	items, err := svc.List(ctx, schema.Project, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Equal(t, model.Record{
		"id":          id,
		"title":       "Acme Site",
		"slug":        "acme-site",
		"client":      "Acme Inc",
		"category":    "landing",
		"description": nil,
		"cover_image": nil,
		"tags":        []any{"saas", "landing"},
		"case_url":    "https://acme.example.com",
	}, items[0])

	_, err = svc.Create(ctx, schema.Project, []byte(`{"title":"Other","slug":"acme-site","category":"saas"}`))
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	items, err = svc.List(ctx, schema.Project, 0)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestDocumentService_LeadRoundTripDefaults(t *testing.T) {
	ctx := context.Background()
	svc := NewDocumentService(schema.Default(), newMemStore())

	id, err := svc.Create(ctx, schema.Lead, []byte(`{"full_name":"Jane Doe","email":"jane@example.com"}`))
	require.NoError(t, err)

	items, err := svc.List(ctx, schema.Lead, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].ID())
	assert.Equal(t, []any{}, items[0]["interests"])
	assert.Nil(t, items[0]["company"])
	assert.Contains(t, items[0], "company")
}
