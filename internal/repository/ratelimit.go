package repository

import (
	"context"
	"errors"

	"wasender/internal/model"

	"gorm.io/gorm"
)

// RateLimitInterface reads the process-wide throughput configuration.
type RateLimitInterface interface {
	Get(ctx context.Context) (model.RateLimitConfig, error)
}

type RateLimitRepository struct {
	db       *gorm.DB
	defaults model.RateLimitConfig
}

// NewRateLimitRepository wires the throughput table. defaults come from the
// queue configuration section and apply whenever the table is empty.
func NewRateLimitRepository(db *gorm.DB, defaults model.RateLimitConfig) *RateLimitRepository {
	return &RateLimitRepository{db: db, defaults: defaults}
}

// Get returns the first config row, or the configured defaults when the table
// is empty.
func (r *RateLimitRepository) Get(ctx context.Context) (model.RateLimitConfig, error) {
	var cfg model.RateLimitConfig
	err := r.db.WithContext(ctx).First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return r.defaults, nil
		}
		return model.RateLimitConfig{}, err
	}
	return cfg, nil
}
