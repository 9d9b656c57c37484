package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"shoppingtop/internal/apperror"
	"shoppingtop/internal/models"
	"shoppingtop/internal/repositories"

	"github.com/go-playground/validator/v10"
)

// ListEventPublisher receives list lifecycle events. pkg/rabbitmq.Client
// implements it.
type ListEventPublisher interface {
	PublishListEvent(event models.ListEvent) error
}

// ListService handles business logic related to shopping lists.
type ListService struct {
	repo     repositories.ListRepository
	users    repositories.UserRepository
	events   ListEventPublisher
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// ListServiceOption customizes a ListService.
type ListServiceOption func(*ListService)

// WithClock replaces time.Now, which decides the default list date.
func WithClock(now func() time.Time) ListServiceOption {
	return func(s *ListService) {
		s.now = now
	}
}

// NewListService creates a new ListService. events may be nil, in which case
// no events are published.
func NewListService(repo repositories.ListRepository, users repositories.UserRepository, events ListEventPublisher, logger *slog.Logger, opts ...ListServiceOption) *ListService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &ListService{
		repo:     repo,
		users:    users,
		events:   events,
		validate: newValidator(),
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListAll retrieves every list regardless of its shopper.
func (s *ListService) ListAll(ctx context.Context) ([]models.List, error) {
	lists, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all: %w", err)
	}
	return lists, nil
}

// GetByID retrieves a single list by its ID.
func (s *ListService) GetByID(ctx context.Context, id uint) (*models.List, error) {
	list, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get list: %w", err)
	}
	return list, nil
}

// Create validates input, applies defaults and stores a new list owned by
// shopperID. The shopper named in input is ignored.
func (s *ListService) Create(ctx context.Context, shopperID uint, input models.ListInput) (*models.List, error) {
	if shopperID == 0 {
		return nil, apperror.Unauthorized("a logged in shopper is required")
	}
	date, err := s.parseInput(input)
	if err != nil {
		return nil, err
	}
	if date == nil {
		today := s.today()
		date = &today
	}

	list := &models.List{
		Shop:      input.Shop,
		ShopItems: input.ShopItems,
		Date:      date,
		ShopperID: shopperID,
		Done:      input.Done,
	}
	if err := s.repo.Create(ctx, list); err != nil {
		return nil, fmt.Errorf("create list: %w", err)
	}

	s.publish(models.ListCreated, *list)
	return list, nil
}

// Update replaces every mutable field of the list with input. An empty date
// clears it; the shopper changes only when input names one.
func (s *ListService) Update(ctx context.Context, id uint, input models.ListInput) (*models.List, error) {
	list, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update list: %w", err)
	}
	date, err := s.parseInput(input)
	if err != nil {
		return nil, err
	}

	if input.Shopper != 0 && input.Shopper != list.ShopperID {
		if _, err := s.users.GetByID(ctx, input.Shopper); err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return nil, apperror.ValidationFailed("shopper", "Select a valid choice. That choice is not one of the available choices.")
			}
			return nil, fmt.Errorf("update list: %w", err)
		}
		list.ShopperID = input.Shopper
	}

	list.Shop = input.Shop
	list.ShopItems = input.ShopItems
	list.Date = date
	list.Done = input.Done

	if err := s.repo.Update(ctx, list); err != nil {
		return nil, fmt.Errorf("update list: %w", err)
	}

	s.publish(models.ListUpdated, *list)
	return list, nil
}

// Delete permanently removes a list.
func (s *ListService) Delete(ctx context.Context, id uint) error {
	list, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("delete list: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete list: %w", err)
	}

	s.publish(models.ListDeleted, *list)
	return nil
}

// parseInput validates input and returns its date, nil when none was given.
func (s *ListService) parseInput(input models.ListInput) (*time.Time, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}
	if input.Date == "" {
		return nil, nil
	}
	date, err := time.Parse(models.DateLayout, input.Date)
	if err != nil {
		return nil, apperror.ValidationFailed("date", "Enter a valid date.")
	}
	return &date, nil
}

func (s *ListService) today() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// publish sends an event; failures are logged and never fail the operation.
func (s *ListService) publish(eventType string, list models.List) {
	if s.events == nil {
		return
	}
	event := models.NewListEvent(eventType, list, s.now().UTC())
	if err := s.events.PublishListEvent(event); err != nil {
		s.logger.Warn("failed to publish list event",
			slog.String("type", eventType),
			slog.Uint64("list_id", uint64(list.ID)),
			slog.String("error", err.Error()),
		)
	}
}
