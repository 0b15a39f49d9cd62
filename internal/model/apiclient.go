package model

// APIClient authorizes server-to-server callers of the queue endpoints via the
// X-API-Key header.
type APIClient struct {
	ID     uint64 `gorm:"primaryKey"`
	AppID  string `gorm:"size:64;not null"`
	APIKey string `gorm:"size:64;not null;index"`
	Status int    `gorm:"default:1"`
}

func (APIClient) TableName() string { return "api_clients" }
