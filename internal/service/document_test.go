package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"otikaapi/internal/apperr"
	"otikaapi/internal/model"
	"otikaapi/internal/repository"
	repoMocks "otikaapi/internal/repository/mocks"
	"otikaapi/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDocumentService_Create(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		entity     string
		payload    string
		setupMocks func(mStore *repoMocks.MockDocumentStore)
		wantID     string
		wantKind   apperr.Kind
	}{
		{
			name:    "lead happy path",
			entity:  schema.Lead,
			payload: `{"full_name":"Jane Doe","email":"jane@example.com"}`,
			setupMocks: func(mStore *repoMocks.MockDocumentStore) {
				mStore.On("Create", ctx, "lead", mock.MatchedBy(func(l *model.Lead) bool {
					return l.FullName == "Jane Doe" && l.Interests != nil
				})).Return("65a1b2c3d4e5f60718293a4b", nil)
			},
			wantID: "65a1b2c3d4e5f60718293a4b",
		},
		{
			name:    "project happy path",
			entity:  schema.Project,
			payload: `{"title":"Acme Site","slug":"acme-site","category":"landing"}`,
			setupMocks: func(mStore *repoMocks.MockDocumentStore) {
				mStore.On("Create", ctx, "project", mock.AnythingOfType("*model.Project")).
					Return("65a1b2c3d4e5f60718293a4c", nil)
			},
			wantID: "65a1b2c3d4e5f60718293a4c",
		},
		{
			name:       "validation error never reaches store",
			entity:     schema.Lead,
			payload:    `{"email":"jane@example.com"}`,
			setupMocks: func(mStore *repoMocks.MockDocumentStore) {},
			wantKind:   apperr.KindValidation,
		},
		{
			name:       "unknown entity",
			entity:     "blog",
			payload:    `{}`,
			setupMocks: func(mStore *repoMocks.MockDocumentStore) {},
			wantKind:   apperr.KindNotFound,
		},
		{
			name:    "duplicate slug",
			entity:  schema.Project,
			payload: `{"title":"Acme Site","slug":"acme-site","category":"landing"}`,
			setupMocks: func(mStore *repoMocks.MockDocumentStore) {
				mStore.On("Create", ctx, "project", mock.Anything).
					Return("", fmt.Errorf("%w: slug", repository.ErrDuplicateKey))
			},
			wantKind: apperr.KindConflict,
		},
		{
			name:    "store unavailable",
			entity:  schema.Lead,
			payload: `{"full_name":"Jane Doe","email":"jane@example.com"}`,
			setupMocks: func(mStore *repoMocks.MockDocumentStore) {
				mStore.On("Create", ctx, "lead", mock.Anything).Return("", repository.ErrStoreUnavailable)
			},
			wantKind: apperr.KindUnavailable,
		},
		{
			name:    "write error",
			entity:  schema.Lead,
			payload: `{"full_name":"Jane Doe","email":"jane@example.com"}`,
			setupMocks: func(mStore *repoMocks.MockDocumentStore) {
				mStore.On("Create", ctx, "lead", mock.Anything).Return("", errors.New("store write: disk full"))
			},
			wantKind: apperr.KindInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(repoMocks.MockDocumentStore)
			svc := NewDocumentService(schema.Default(), mStore)
			tt.setupMocks(mStore)

			id, err := svc.Create(ctx, tt.entity, []byte(tt.payload))

			if tt.wantKind != "" {
				assert.Error(t, err)
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
				assert.Empty(t, id)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantID, id)
			}
			mStore.AssertExpectations(t)
		})
	}
}

func TestDocumentService_CreateWithoutStore(t *testing.T) {
	svc := NewDocumentService(schema.Default(), nil)

	_, err := svc.Create(context.Background(), schema.Lead, []byte(`{"full_name":"Jane","email":"jane@example.com"}`))

	assert.Equal(t, apperr.KindUnavailable, apperr.KindOf(err))
	assert.ErrorIs(t, err, repository.ErrStoreUnavailable)
}

func TestDocumentService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("passes limit through", func(t *testing.T) {
		mStore := new(repoMocks.MockDocumentStore)
		svc := NewDocumentService(schema.Default(), mStore)

		items := []model.Record{{"id": "a", "slug": "acme-site"}}
		mStore.On("Query", ctx, "project", model.Filter{}, 20).Return(items, nil).Once()

		got, err := svc.List(ctx, schema.Project, 20)

		assert.NoError(t, err)
		assert.Equal(t, items, got)
		mStore.AssertExpectations(t)
	})

	t.Run("zero means unrestricted", func(t *testing.T) {
		mStore := new(repoMocks.MockDocumentStore)
		svc := NewDocumentService(schema.Default(), mStore)

		mStore.On("Query", ctx, "project", model.Filter{}, 0).Return([]model.Record{}, nil).Once()

		_, err := svc.List(ctx, schema.Project, 0)

		assert.NoError(t, err)
		mStore.AssertExpectations(t)
	})

	t.Run("negative limit", func(t *testing.T) {
		mStore := new(repoMocks.MockDocumentStore)
		svc := NewDocumentService(schema.Default(), mStore)

		_, err := svc.List(ctx, schema.Project, -1)

		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		mStore.AssertNotCalled(t, "Query")
	})

	t.Run("store error", func(t *testing.T) {
		mStore := new(repoMocks.MockDocumentStore)
		svc := NewDocumentService(schema.Default(), mStore)

		mStore.On("Query", ctx, "project", model.Filter{}, 5).Return(nil, errors.New("connection reset")).Once()

		_, err := svc.List(ctx, schema.Project, 5)

		assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
		assert.EqualError(t, err, "connection reset")
	})

	t.Run("no store", func(t *testing.T) {
		_, err := NewDocumentService(schema.Default(), nil).List(ctx, schema.Project, 0)
		assert.Equal(t, apperr.KindUnavailable, apperr.KindOf(err))
	})
}

func TestDocumentService_Schemas(t *testing.T) {
	svc := NewDocumentService(schema.Default(), nil)

	entries, err := svc.Schemas()

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "lead", entries[0].Name)
	assert.Equal(t, "project", entries[1].Name)
	assert.Equal(t, "Lead", entries[0].Schema.Title)
}

func TestEnsureIndexes(t *testing.T) {
	ctx := context.Background()

	t.Run("installs project slug", func(t *testing.T) {
		mStore := new(repoMocks.MockDocumentStore)
		mStore.On("EnsureUnique", ctx, "project", "slug").Return(nil).Once()

		assert.NoError(t, EnsureIndexes(ctx, schema.Default(), mStore))
		mStore.AssertExpectations(t)
	})

	t.Run("propagates failure", func(t *testing.T) {
		mStore := new(repoMocks.MockDocumentStore)
		mStore.On("EnsureUnique", ctx, "project", "slug").Return(errors.New("denied")).Once()

		err := EnsureIndexes(ctx, schema.Default(), mStore)
		assert.EqualError(t, err, "entity project: denied")
	})
}
