package mocks

import (
	"context"

	"otikaapi/internal/model"
	"otikaapi/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Create(ctx context.Context, entity string, payload []byte) (string, error) {
	args := m.Called(ctx, entity, payload)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, entity string, limit int) ([]model.Record, error) {
	args := m.Called(ctx, entity, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Record), args.Error(1)
}

func (m *MockDocumentService) Schemas() ([]service.SchemaEntry, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.SchemaEntry), args.Error(1)
}
