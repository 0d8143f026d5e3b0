package mocks

import (
	"context"

	"propertyapi/internal/asset"
	"propertyapi/internal/model"
	"propertyapi/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockPropertyService struct {
	mock.Mock
}

func (m *MockPropertyService) Create(ctx context.Context, in service.PropertyInput, files []asset.File) (*model.Property, error) {
	args := m.Called(ctx, in, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Property), args.Error(1)
}

func (m *MockPropertyService) Update(ctx context.Context, id string, patch map[string]any) (*model.Property, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Property), args.Error(1)
}

func (m *MockPropertyService) Delete(ctx context.Context, id string) (*model.Property, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Property), args.Error(1)
}

func (m *MockPropertyService) List(ctx context.Context) ([]model.Property, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Property), args.Error(1)
}

func (m *MockPropertyService) Filter(ctx context.Context, c service.Criteria) ([]model.Property, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Property), args.Error(1)
}
