package repository

import (
	"context"

	"wasender/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SentInterface records terminal delivery outcomes in the denormalized
// history table.
type SentInterface interface {
	Upsert(ctx context.Context, record *model.SentMessage) error
	ListByJob(ctx context.Context, jobID string) ([]model.SentMessage, error)
}

type SentRepository struct {
	db *gorm.DB
}

func NewSentRepository(db *gorm.DB) *SentRepository {
	return &SentRepository{db: db}
}

// Upsert writes one history row per (phone_e164, guide_number), replacing the
// previous outcome when the same recipient+guide terminates again.
func (r *SentRepository) Upsert(ctx context.Context, record *model.SentMessage) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "phone_e164"}, {Name: "guide_number"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"job_id", "recipient_name", "sender_name", "template_name",
			"wa_message_id", "status", "error_message",
		}),
	}).Create(record).Error
}

func (r *SentRepository) ListByJob(ctx context.Context, jobID string) ([]model.SentMessage, error) {
	var records []model.SentMessage
	err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at DESC").
		Find(&records).Error
	return records, err
}
