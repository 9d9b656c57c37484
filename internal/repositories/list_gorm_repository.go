package repositories

import (
	"context"
	"errors"
	"fmt"

	"shoppingtop/internal/apperror"
	"shoppingtop/internal/models"

	"gorm.io/gorm"
)

// GORMListRepository is a GORM implementation of ListRepository.
type GORMListRepository struct {
	db *gorm.DB
}

// NewGORMListRepository creates a new instance of GORMListRepository.
func NewGORMListRepository(db *gorm.DB) *GORMListRepository {
	return &GORMListRepository{
		db: db,
	}
}

// GetAll retrieves every list in insertion order.
func (r *GORMListRepository) GetAll(ctx context.Context) ([]models.List, error) {
	var lists []models.List
	if err := r.db.WithContext(ctx).Order("id").Find(&lists).Error; err != nil {
		return nil, fmt.Errorf("failed to get all lists: %w", err)
	}
	return lists, nil
}

// GetByID retrieves a single list by its ID.
func (r *GORMListRepository) GetByID(ctx context.Context, id uint) (*models.List, error) {
	var list models.List
	if err := r.db.WithContext(ctx).First(&list, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("list", id)
		}
		return nil, fmt.Errorf("failed to get list by ID %d: %w", id, err)
	}
	return &list, nil
}

// Create inserts a new list; the database assigns its ID.
func (r *GORMListRepository) Create(ctx context.Context, list *models.List) error {
	if err := r.db.WithContext(ctx).Create(list).Error; err != nil {
		return fmt.Errorf("failed to create list: %w", err)
	}
	return nil
}

// Update overwrites every column of an existing list, zero values included.
func (r *GORMListRepository) Update(ctx context.Context, list *models.List) error {
	// Save would insert a missing row, so update explicitly and check the count.
	res := r.db.WithContext(ctx).Model(list).Select("*").Omit("id", "created_at").Updates(list)
	if res.Error != nil {
		return fmt.Errorf("failed to update list: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("list", list.ID)
	}
	return nil
}

// Delete permanently removes a list by its ID.
func (r *GORMListRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.List{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete list: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("list", id)
	}
	return nil
}
