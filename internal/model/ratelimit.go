package model

// RateLimitConfig is the single-row throughput table read by the queue
// processor. ErrorThreshold and CircuitBreakDurationMs are reserved columns
// with no processor behavior attached.
type RateLimitConfig struct {
	ID                     uint64 `json:"id" gorm:"primaryKey"`
	MessagesPerSecond      int    `json:"messages_per_second" gorm:"default:80"`
	BatchSize              int    `json:"batch_size" gorm:"default:20"`
	BatchDelayMs           int    `json:"batch_delay_ms" gorm:"default:250"`
	RetryDelayBaseMs       int    `json:"retry_delay_base_ms" gorm:"default:1000"`
	RetryDelayMaxMs        int    `json:"retry_delay_max_ms" gorm:"default:60000"`
	ErrorThreshold         int    `json:"error_threshold" gorm:"default:10"`
	CircuitBreakDurationMs int    `json:"circuit_break_duration_ms" gorm:"default:300000"`
}

func (RateLimitConfig) TableName() string { return "rate_limit_config" }

// DefaultRateLimitConfig mirrors the shipped configuration defaults.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MessagesPerSecond: 80,
		BatchSize:         20,
		BatchDelayMs:      250,
		RetryDelayBaseMs:  1000,
		RetryDelayMaxMs:   60000,
	}
}
