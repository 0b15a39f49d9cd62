package repository

import (
	"context"
	"errors"

	"wasender/internal/model"

	"gorm.io/gorm"
)

// JobInterface exposes the parent-job rows the queue pipeline reads for
// ownership checks and writes aggregate counters onto.
type JobInterface interface {
	FindByID(ctx context.Context, id string) (*model.Job, error)
	IDsByUser(ctx context.Context, userID string) ([]string, error)
	UpdateStatus(ctx context.Context, id string, status model.JobStatus) error
	UpdateCounters(ctx context.Context, id string, sentOK, sentFailed int64, status model.JobStatus) error
	WithTx(tx *gorm.DB) JobInterface
}

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) FindByID(ctx context.Context, id string) (*model.Job, error) {
	var job model.Job
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

func (r *JobRepository) IDsByUser(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.Job{}).
		Where("user_id = ?", userID).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *JobRepository) UpdateStatus(ctx context.Context, id string, status model.JobStatus) error {
	return r.db.WithContext(ctx).Model(&model.Job{}).Where("id = ?", id).
		Update("status", status).Error
}

func (r *JobRepository) UpdateCounters(ctx context.Context, id string, sentOK, sentFailed int64, status model.JobStatus) error {
	return r.db.WithContext(ctx).Model(&model.Job{}).Where("id = ?", id).
		Updates(map[string]any{
			"sent_ok":     sentOK,
			"sent_failed": sentFailed,
			"status":      status,
		}).Error
}

func (r *JobRepository) WithTx(tx *gorm.DB) JobInterface {
	return &JobRepository{db: tx}
}
