package model

import "time"

type QueueStatus string

const (
	StatusPending    QueueStatus = "PENDING"
	StatusProcessing QueueStatus = "PROCESSING"
	StatusRetrying   QueueStatus = "RETRYING"
	StatusSent       QueueStatus = "SENT"
	StatusFailed     QueueStatus = "FAILED"
)

// Terminal reports whether no further automatic transition applies.
func (s QueueStatus) Terminal() bool {
	return s == StatusSent || s == StatusFailed
}

// QueueMessage is one recipient's pending-to-terminal delivery attempt record.
// (job_id, phone_e164, guide_number) is unique: re-enqueueing the same
// recipient+guide under the same job updates the row in place.
type QueueMessage struct {
	ID                  string      `json:"id" gorm:"primaryKey;size:36"`
	JobID               string      `json:"job_id" gorm:"size:36;index;uniqueIndex:uq_queue_job_phone_guide"`
	PhoneE164           string      `json:"phone_e164" gorm:"size:20;uniqueIndex:uq_queue_job_phone_guide"`
	GuideNumber         string      `json:"guide_number" gorm:"size:32;uniqueIndex:uq_queue_job_phone_guide"`
	RecipientName       string      `json:"recipient_name" gorm:"size:128"`
	SenderName          string      `json:"sender_name" gorm:"size:128"`
	Carrier             string      `json:"carrier" gorm:"size:32"`
	TrackingURL         string      `json:"tracking_url" gorm:"size:255"`
	Priority            int         `json:"priority" gorm:"default:5;index"`
	Status              QueueStatus `json:"status" gorm:"size:16;index;default:PENDING"`
	RetryCount          int         `json:"retry_count" gorm:"default:0"`
	MaxRetries          int         `json:"max_retries" gorm:"default:3"`
	ScheduledAt         time.Time   `json:"scheduled_at" gorm:"index"`
	NextRetryAt         *time.Time  `json:"next_retry_at"`
	WaMessageID         *string     `json:"wa_message_id" gorm:"size:128"`
	ErrorMessage        *string     `json:"error_message" gorm:"type:text"`
	ErrorCode           *string     `json:"error_code" gorm:"size:32"`
	CreatedAt           time.Time   `json:"created_at"`
	ProcessingStartedAt *time.Time  `json:"processing_started_at"`
	ProcessedAt         *time.Time  `json:"processed_at"`
}

func (QueueMessage) TableName() string { return "message_queue" }

// QueueStats is the per-job status breakdown consumed by the dashboard
// and by the job aggregator.
type QueueStats struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Sent       int64 `json:"sent"`
	Failed     int64 `json:"failed"`
	Retrying   int64 `json:"retrying"`
	Total      int64 `json:"total"`
}
