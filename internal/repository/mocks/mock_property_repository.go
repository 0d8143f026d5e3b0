package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"propertyapi/internal/model"
	"propertyapi/internal/repository"
)

type MockPropertyRepository struct {
	mock.Mock
}

func (m *MockPropertyRepository) Create(ctx context.Context, p *model.Property) (*model.Property, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Property), args.Error(1)
}

func (m *MockPropertyRepository) FindByID(ctx context.Context, id string) (*model.Property, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Property), args.Error(1)
}

func (m *MockPropertyRepository) Find(ctx context.Context, f repository.PropertyFilter) ([]model.Property, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Property), args.Error(1)
}

func (m *MockPropertyRepository) Update(ctx context.Context, id string, patch repository.PropertyPatch) (*model.Property, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Property), args.Error(1)
}

func (m *MockPropertyRepository) Delete(ctx context.Context, id string) (*model.Property, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Property), args.Error(1)
}

func (m *MockPropertyRepository) ImageURLs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockPropertyRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
