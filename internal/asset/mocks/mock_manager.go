package mocks

import (
	"context"

	"propertyapi/internal/asset"

	"github.com/stretchr/testify/mock"
)

type MockManager struct {
	mock.Mock
}

func (m *MockManager) Store(ctx context.Context, files []asset.File) ([]string, error) {
	args := m.Called(ctx, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockManager) Reclaim(ctx context.Context, urls []string) asset.ReclaimResult {
	args := m.Called(ctx, urls)
	return args.Get(0).(asset.ReclaimResult)
}
