package model

import "time"

type JobStatus string

const (
	JobQueued     JobStatus = "QUEUED"
	JobProcessing JobStatus = "PROCESSING"
	JobCompleted  JobStatus = "COMPLETED"
)

// Job aggregates one uploaded batch of recipients. The row counts are set at
// creation; sent_ok/sent_failed are derived from queue state by the aggregator.
type Job struct {
	ID            string    `json:"id" gorm:"primaryKey;size:36"`
	UserID        string    `json:"user_id" gorm:"size:36;index"`
	Filename      string    `json:"filename" gorm:"size:255"`
	TotalRows     int       `json:"total_rows"`
	ValidRows     int       `json:"valid_rows"`
	InvalidPhones int       `json:"invalid_phones"`
	Duplicates    int       `json:"duplicates"`
	SentOK        int64     `json:"sent_ok"`
	SentFailed    int64     `json:"sent_failed"`
	Status        JobStatus `json:"status" gorm:"size:16;index;default:QUEUED"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Job) TableName() string { return "jobs" }
