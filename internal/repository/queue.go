package repository

import (
	"context"
	"time"

	"wasender/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QueueInterface is the durable message queue, the system of record for the
// delivery pipeline.
type QueueInterface interface {
	UpsertBatch(ctx context.Context, messages []model.QueueMessage) error
	FetchEligible(ctx context.Context, jobID string, jobIDs []string, limit int) ([]model.QueueMessage, error)
	ClaimProcessing(ctx context.Context, id string) (bool, error)
	MarkSent(ctx context.Context, id, waMessageID string) error
	MarkRetrying(ctx context.Context, id string, retryCount int, nextRetryAt time.Time, errMsg, errCode string) error
	MarkFailed(ctx context.Context, id string, errMsg, errCode string) error
	ResetFailed(ctx context.Context, jobID string) (int64, error)
	ReclaimStale(ctx context.Context, olderThan time.Duration) (int64, error)
	StatsByJob(ctx context.Context, jobID string) (model.QueueStats, error)
	PingContext(ctx context.Context) error
	WithTx(tx *gorm.DB) QueueInterface
}

type QueueRepository struct {
	db *gorm.DB
}

func NewQueueRepository(db *gorm.DB) *QueueRepository {
	return &QueueRepository{db: db}
}

// UpsertBatch inserts queue rows, overwriting existing rows that share
// (job_id, phone_e164, guide_number). Status is deliberately not part of the
// update set: re-enqueueing a row that already reached a terminal state does
// not silently resurrect it.
func (r *QueueRepository) UpsertBatch(ctx context.Context, messages []model.QueueMessage) error {
	if len(messages) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "job_id"}, {Name: "phone_e164"}, {Name: "guide_number"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"recipient_name", "sender_name", "carrier", "tracking_url", "priority",
		}),
	}).Create(&messages).Error
}

// FetchEligible selects PENDING/RETRYING rows in (priority, scheduled_at)
// order. A RETRYING row with next_retry_at still in the future is eligible;
// due-time gating is not applied at selection. jobID narrows to one job,
// jobIDs narrows to a caller's jobs; both empty means unrestricted.
func (r *QueueRepository) FetchEligible(ctx context.Context, jobID string, jobIDs []string, limit int) ([]model.QueueMessage, error) {
	q := r.db.WithContext(ctx).
		Where("status IN ?", []model.QueueStatus{model.StatusPending, model.StatusRetrying}).
		Order("priority ASC").
		Order("scheduled_at ASC").
		Limit(limit)

	if jobID != "" {
		q = q.Where("job_id = ?", jobID)
	} else if len(jobIDs) > 0 {
		q = q.Where("job_id IN ?", jobIDs)
	}

	var messages []model.QueueMessage
	if err := q.Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

// ClaimProcessing transitions a row to PROCESSING only if it is still
// eligible, so two overlapping batch invocations cannot both send the same
// row. Returns false when another invocation won the claim.
func (r *QueueRepository) ClaimProcessing(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.QueueMessage{}).
		Where("id = ? AND status IN ?", id, []model.QueueStatus{model.StatusPending, model.StatusRetrying}).
		Updates(map[string]any{
			"status":                model.StatusProcessing,
			"processing_started_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *QueueRepository) MarkSent(ctx context.Context, id, waMessageID string) error {
	return r.db.WithContext(ctx).Model(&model.QueueMessage{}).Where("id = ?", id).
		Updates(map[string]any{
			"status":        model.StatusSent,
			"wa_message_id": waMessageID,
			"processed_at":  time.Now(),
		}).Error
}

func (r *QueueRepository) MarkRetrying(ctx context.Context, id string, retryCount int, nextRetryAt time.Time, errMsg, errCode string) error {
	return r.db.WithContext(ctx).Model(&model.QueueMessage{}).Where("id = ?", id).
		Updates(map[string]any{
			"status":        model.StatusRetrying,
			"retry_count":   retryCount,
			"next_retry_at": nextRetryAt,
			"error_message": errMsg,
			"error_code":    errCode,
			"processed_at":  time.Now(),
		}).Error
}

func (r *QueueRepository) MarkFailed(ctx context.Context, id string, errMsg, errCode string) error {
	return r.db.WithContext(ctx).Model(&model.QueueMessage{}).Where("id = ?", id).
		Updates(map[string]any{
			"status":        model.StatusFailed,
			"error_message": errMsg,
			"error_code":    errCode,
			"processed_at":  time.Now(),
		}).Error
}

// ResetFailed resurrects all FAILED rows of a job for another delivery round.
// The only path that does; SENT rows are never reset.
func (r *QueueRepository) ResetFailed(ctx context.Context, jobID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.QueueMessage{}).
		Where("job_id = ? AND status = ?", jobID, model.StatusFailed).
		Updates(map[string]any{
			"status":        model.StatusPending,
			"retry_count":   0,
			"next_retry_at": nil,
			"error_message": nil,
			"error_code":    nil,
			"processed_at":  nil,
		})
	return res.RowsAffected, res.Error
}

// ReclaimStale returns rows stuck in PROCESSING (a crashed or truncated
// invocation) to PENDING once they are older than the given cutoff.
func (r *QueueRepository) ReclaimStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	res := r.db.WithContext(ctx).Model(&model.QueueMessage{}).
		Where("status = ? AND processing_started_at < ?", model.StatusProcessing, cutoff).
		Updates(map[string]any{
			"status":                model.StatusPending,
			"processing_started_at": nil,
		})
	return res.RowsAffected, res.Error
}

func (r *QueueRepository) StatsByJob(ctx context.Context, jobID string) (model.QueueStats, error) {
	var rows []struct {
		Status model.QueueStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&model.QueueMessage{}).
		Select("status, COUNT(*) AS count").
		Where("job_id = ?", jobID).
		Group("status").
		Find(&rows).Error
	if err != nil {
		return model.QueueStats{}, err
	}

	var stats model.QueueStats
	for _, row := range rows {
		switch row.Status {
		case model.StatusPending:
			stats.Pending = row.Count
		case model.StatusProcessing:
			stats.Processing = row.Count
		case model.StatusSent:
			stats.Sent = row.Count
		case model.StatusFailed:
			stats.Failed = row.Count
		case model.StatusRetrying:
			stats.Retrying = row.Count
		}
		stats.Total += row.Count
	}
	return stats, nil
}

func (r *QueueRepository) PingContext(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *QueueRepository) WithTx(tx *gorm.DB) QueueInterface {
	return &QueueRepository{db: tx}
}
