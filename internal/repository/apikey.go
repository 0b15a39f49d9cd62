package repository

import (
	"context"
	"errors"

	"wasender/internal/model"

	"gorm.io/gorm"
)

// APIKeyInterface validates X-API-Key headers against registered clients.
type APIKeyInterface interface {
	ValidateAPIKey(ctx context.Context, apiKey string) (bool, error)
}

type APIKeyRepository struct {
	db *gorm.DB
}

func NewAPIKeyRepository(db *gorm.DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

func (r *APIKeyRepository) ValidateAPIKey(ctx context.Context, apiKey string) (bool, error) {
	var client model.APIClient
	err := r.db.WithContext(ctx).
		Where("api_key = ? AND status = 1", apiKey).
		First(&client).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
