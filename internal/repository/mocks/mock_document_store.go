package mocks

import (
	"context"

	"otikaapi/internal/model"
	"otikaapi/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockDocumentStore struct {
	mock.Mock
}

var _ repository.DocumentStore = (*MockDocumentStore)(nil)

func (m *MockDocumentStore) Create(ctx context.Context, collection string, doc any) (string, error) {
	args := m.Called(ctx, collection, doc)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentStore) Query(ctx context.Context, collection string, filter model.Filter, limit int) ([]model.Record, error) {
	args := m.Called(ctx, collection, filter, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Record), args.Error(1)
}

func (m *MockDocumentStore) EnsureUnique(ctx context.Context, collection, field string) error {
	args := m.Called(ctx, collection, field)
	return args.Error(0)
}

func (m *MockDocumentStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDocumentStore) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockDocumentStore) CollectionNames(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockDocumentStore) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
