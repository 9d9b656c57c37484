package repositories

import (
	"context"

	"shoppingtop/internal/models"
)

// ListRepository defines the interface for shopping list data access.
type ListRepository interface {
	GetAll(ctx context.Context) ([]models.List, error)
	GetByID(ctx context.Context, id uint) (*models.List, error)
	Create(ctx context.Context, list *models.List) error
	Update(ctx context.Context, list *models.List) error
	Delete(ctx context.Context, id uint) error
}
