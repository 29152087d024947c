package calculations

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"ai-calculator/internal/models"
)

var ErrNotFound = errors.New("calculation not found or not owned by user")

// Repository persists calculations with gorm. Every lookup is scoped to the owner.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, calc *models.Calculation) error {
	if err := r.db.WithContext(ctx).Create(calc).Error; err != nil {
		return fmt.Errorf("create calculation: %w", err)
	}
	return nil
}

// ListByUser returns the user's calculations, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]models.Calculation, error) {
	calcs := []models.Calculation{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&calcs).Error
	if err != nil {
		return nil, fmt.Errorf("list calculations: %w", err)
	}
	return calcs, nil
}

func (r *Repository) Get(ctx context.Context, userID, id string) (*models.Calculation, error) {
	var calc models.Calculation
	err := r.db.WithContext(ctx).First(&calc, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get calculation: %w", err)
	}
	return &calc, nil
}

func (r *Repository) Delete(ctx context.Context, userID, id string) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Calculation{})
	if res.Error != nil {
		return fmt.Errorf("delete calculation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
