package model

import "time"

// SentMessage is the denormalized history row written whenever a queue message
// reaches a terminal state. Unique on (phone_e164, guide_number) independently
// of the queue constraint, so downstream duplicate detection sees one row per
// recipient+guide across jobs.
type SentMessage struct {
	ID            int64     `json:"id" gorm:"primaryKey"`
	JobID         string    `json:"job_id" gorm:"size:36;index"`
	PhoneE164     string    `json:"phone_e164" gorm:"size:20;uniqueIndex:uq_sent_phone_guide"`
	GuideNumber   string    `json:"guide_number" gorm:"size:32;uniqueIndex:uq_sent_phone_guide"`
	RecipientName string    `json:"recipient_name" gorm:"size:128"`
	SenderName    string    `json:"sender_name" gorm:"size:128"`
	TemplateName  string    `json:"template_name" gorm:"size:64"`
	WaMessageID   *string   `json:"wa_message_id" gorm:"size:128"`
	Status        string    `json:"status" gorm:"size:16"`
	ErrorMessage  *string   `json:"error_message" gorm:"type:text"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (SentMessage) TableName() string { return "sent_messages" }
