package services_test

import (
	"context"
	"io"
	"log/slog"

	"shoppingtop/internal/models"

	"github.com/stretchr/testify/mock"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// MockListRepository is a mock implementation of repositories.ListRepository
type MockListRepository struct {
	mock.Mock
}

func (m *MockListRepository) GetAll(ctx context.Context) ([]models.List, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.List), args.Error(1)
}

func (m *MockListRepository) GetByID(ctx context.Context, id uint) (*models.List, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.List), args.Error(1)
}

func (m *MockListRepository) Create(ctx context.Context, list *models.List) error {
	args := m.Called(ctx, list)
	return args.Error(0)
}

func (m *MockListRepository) Update(ctx context.Context, list *models.List) error {
	args := m.Called(ctx, list)
	return args.Error(0)
}

func (m *MockListRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockPublisher is a mock implementation of services.ListEventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishListEvent(event models.ListEvent) error {
	args := m.Called(event)
	return args.Error(0)
}
