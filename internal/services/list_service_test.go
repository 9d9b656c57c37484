package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"shoppingtop/internal/apperror"
	"shoppingtop/internal/models"
	"shoppingtop/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 18, 15, 30, 0, 0, time.UTC)

func newListService(repo *MockListRepository, users *MockUserRepository, events services.ListEventPublisher) *services.ListService {
	return services.NewListService(repo, users, events, discardLogger,
		services.WithClock(func() time.Time { return fixedNow }))
}

func TestListService_ListAll(t *testing.T) {
	repo := new(MockListRepository)
	service := newListService(repo, new(MockUserRepository), nil)

	expected := []models.List{
		{ID: 1, Shop: "Coop", ShopperID: 1},
		{ID: 2, Shop: "Lidl", ShopperID: 2},
	}
	repo.On("GetAll", mock.Anything).Return(expected, nil).Once()

	lists, err := service.ListAll(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, expected, lists)
	repo.AssertExpectations(t)
}

func TestListService_GetByID(t *testing.T) {
	repo := new(MockListRepository)
	service := newListService(repo, new(MockUserRepository), nil)

	expected := &models.List{ID: 1, Shop: "Coop", ShopperID: 1}
	repo.On("GetByID", mock.Anything, uint(1)).Return(expected, nil).Once()

	list, err := service.GetByID(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, expected, list)

	// List not found
	repo.On("GetByID", mock.Anything, uint(99)).Return(nil, apperror.NotFound("list", 99)).Once()
	list, err = service.GetByID(context.Background(), 99)
	assert.Nil(t, list)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	repo.AssertExpectations(t)
}

func TestListService_CreateBindsShopperAndKeepsInput(t *testing.T) {
	repo := new(MockListRepository)
	events := new(MockPublisher)
	service := newListService(repo, new(MockUserRepository), events)

	repo.On("Create", mock.Anything, mock.AnythingOfType("*models.List")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.List).ID = 10
		}).
		Return(nil).Once()
	events.On("PublishListEvent", mock.MatchedBy(func(e models.ListEvent) bool {
		return e.Type == models.ListCreated && e.ListID == 10 && e.ShopperID == 7
	})).Return(nil).Once()

	list, err := service.Create(context.Background(), 7, models.ListInput{
		Shop:      "Coop",
		ShopItems: "milk\neggs",
		Date:      "2024-01-01",
		Done:      false,
		Shopper:   99, // ignored: the session user owns new lists
	})

	require.NoError(t, err)
	assert.Equal(t, uint(10), list.ID)
	assert.Equal(t, uint(7), list.ShopperID)
	assert.Equal(t, "Coop", list.Shop)
	assert.Equal(t, "milk\neggs", list.ShopItems)
	assert.Equal(t, "2024-01-01", list.FormattedDate())
	assert.False(t, list.Done)
	repo.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestListService_CreateAppliesDefaults(t *testing.T) {
	repo := new(MockListRepository)
	service := newListService(repo, new(MockUserRepository), nil)

	repo.On("Create", mock.Anything, mock.AnythingOfType("*models.List")).Return(nil).Once()

	list, err := service.Create(context.Background(), 3, models.ListInput{})

	require.NoError(t, err)
	assert.Equal(t, "", list.Shop)
	assert.Equal(t, "", list.ShopItems)
	assert.False(t, list.Done)
	require.NotNil(t, list.Date)
	assert.Equal(t, "2026-10-18", list.FormattedDate())
	repo.AssertExpectations(t)
}

func TestListService_CreateValidation(t *testing.T) {
	repo := new(MockListRepository)
	service := newListService(repo, new(MockUserRepository), nil)

	tests := []struct {
		name  string
		input models.ListInput
		field string
	}{
		{"shop too long", models.ListInput{Shop: strings.Repeat("a", 101)}, "shop"},
		{"bad date", models.ListInput{Shop: "Coop", Date: "01/02/2024"}, "date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := service.Create(context.Background(), 1, tt.input)
			assert.Nil(t, list)
			assert.ErrorIs(t, err, apperror.ErrValidation)
			assert.Contains(t, apperror.Fields(err), tt.field)
		})
	}
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestListService_CreateAcceptsHundredRunes(t *testing.T) {
	repo := new(MockListRepository)
	service := newListService(repo, new(MockUserRepository), nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*models.List")).Return(nil).Once()

	_, err := service.Create(context.Background(), 1, models.ListInput{Shop: strings.Repeat("ä", 100)})
	assert.NoError(t, err)
}

func TestListService_CreateRequiresShopper(t *testing.T) {
	service := newListService(new(MockListRepository), new(MockUserRepository), nil)

	_, err := service.Create(context.Background(), 0, models.ListInput{Shop: "Coop"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestListService_UpdateReplacesEveryField(t *testing.T) {
	repo := new(MockListRepository)
	events := new(MockPublisher)
	service := newListService(repo, new(MockUserRepository), events)

	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	existing := &models.List{ID: 5, Shop: "Coop", ShopItems: "milk", Date: &date, ShopperID: 2, Done: false}
	repo.On("GetByID", mock.Anything, uint(5)).Return(existing, nil).Once()
	repo.On("Update", mock.Anything, mock.AnythingOfType("*models.List")).Return(nil).Once()
	events.On("PublishListEvent", mock.MatchedBy(func(e models.ListEvent) bool {
		return e.Type == models.ListUpdated && e.ListID == 5
	})).Return(nil).Once()

	list, err := service.Update(context.Background(), 5, models.ListInput{
		Shop:      "Lidl",
		ShopItems: "bread\nbutter",
		Date:      "2024-02-03",
		Done:      true,
	})

	require.NoError(t, err)
	assert.Equal(t, "Lidl", list.Shop)
	assert.Equal(t, "bread\nbutter", list.ShopItems)
	assert.Equal(t, "2024-02-03", list.FormattedDate())
	assert.True(t, list.Done)
	assert.Equal(t, uint(2), list.ShopperID)
	repo.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestListService_UpdateClearsOmittedFields(t *testing.T) {
	repo := new(MockListRepository)
	service := newListService(repo, new(MockUserRepository), nil)

	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	existing := &models.List{ID: 5, Shop: "Coop", ShopItems: "milk", Date: &date, ShopperID: 2, Done: true}
	repo.On("GetByID", mock.Anything, uint(5)).Return(existing, nil).Once()
	repo.On("Update", mock.Anything, mock.AnythingOfType("*models.List")).Return(nil).Once()

	list, err := service.Update(context.Background(), 5, models.ListInput{})

	require.NoError(t, err)
	assert.Equal(t, "", list.Shop)
	assert.Equal(t, "", list.ShopItems)
	assert.Nil(t, list.Date)
	assert.False(t, list.Done)
	assert.Equal(t, uint(2), list.ShopperID)
}

func TestListService_UpdateReassignsShopper(t *testing.T) {
	repo := new(MockListRepository)
	users := new(MockUserRepository)
	service := newListService(repo, users, nil)

	repo.On("GetByID", mock.Anything, uint(5)).Return(&models.List{ID: 5, ShopperID: 2}, nil).Once()
	users.On("GetByID", mock.Anything, uint(3)).Return(&models.User{ID: 3, Username: "bert"}, nil).Once()
	repo.On("Update", mock.Anything, mock.AnythingOfType("*models.List")).Return(nil).Once()

	list, err := service.Update(context.Background(), 5, models.ListInput{Shop: "Coop", Shopper: 3})

	require.NoError(t, err)
	assert.Equal(t, uint(3), list.ShopperID)
	users.AssertExpectations(t)
}

func TestListService_UpdateRejectsUnknownShopper(t *testing.T) {
	repo := new(MockListRepository)
	users := new(MockUserRepository)
	service := newListService(repo, users, nil)

	repo.On("GetByID", mock.Anything, uint(5)).Return(&models.List{ID: 5, ShopperID: 2}, nil).Once()
	users.On("GetByID", mock.Anything, uint(404)).Return(nil, apperror.NotFound("user", 404)).Once()

	_, err := service.Update(context.Background(), 5, models.ListInput{Shopper: 404})

	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Contains(t, apperror.Fields(err), "shopper")
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestListService_UpdateNotFound(t *testing.T) {
	repo := new(MockListRepository)
	service := newListService(repo, new(MockUserRepository), nil)

	repo.On("GetByID", mock.Anything, uint(99)).Return(nil, apperror.NotFound("list", 99)).Once()

	// Not found wins over invalid input
	_, err := service.Update(context.Background(), 99, models.ListInput{Shop: strings.Repeat("x", 200)})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	repo.AssertExpectations(t)
}

func TestListService_Delete(t *testing.T) {
	repo := new(MockListRepository)
	events := new(MockPublisher)
	service := newListService(repo, new(MockUserRepository), events)

	repo.On("GetByID", mock.Anything, uint(1)).Return(&models.List{ID: 1, ShopperID: 4}, nil).Once()
	repo.On("Delete", mock.Anything, uint(1)).Return(nil).Once()
	events.On("PublishListEvent", mock.MatchedBy(func(e models.ListEvent) bool {
		return e.Type == models.ListDeleted && e.ListID == 1 && e.ShopperID == 4
	})).Return(nil).Once()

	assert.NoError(t, service.Delete(context.Background(), 1))

	// List not found
	repo.On("GetByID", mock.Anything, uint(99)).Return(nil, apperror.NotFound("list", 99)).Once()
	err := service.Delete(context.Background(), 99)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	repo.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestListService_PublishFailureDoesNotFailOperation(t *testing.T) {
	repo := new(MockListRepository)
	events := new(MockPublisher)
	service := newListService(repo, new(MockUserRepository), events)

	repo.On("Create", mock.Anything, mock.AnythingOfType("*models.List")).Return(nil).Once()
	events.On("PublishListEvent", mock.Anything).Return(errors.New("broker down")).Once()

	list, err := service.Create(context.Background(), 1, models.ListInput{Shop: "Coop"})
	assert.NoError(t, err)
	assert.NotNil(t, list)
	events.AssertExpectations(t)
}

func TestListService_RepositoryErrorIsWrapped(t *testing.T) {
	repo := new(MockListRepository)
	service := newListService(repo, new(MockUserRepository), nil)

	dbErr := errors.New("database error")
	repo.On("GetAll", mock.Anything).Return(nil, dbErr).Once()

	_, err := service.ListAll(context.Background())
	assert.ErrorIs(t, err, dbErr)
	assert.Contains(t, err.Error(), "database error")
}
