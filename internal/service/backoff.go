package service

import (
	"time"

	"wasender/internal/model"
)

// BackoffDelay computes the exponential retry delay for a failed attempt.
// retryCount is the row's count before this attempt's increment. Deterministic,
// no jitter, capped at retry_delay_max_ms.
func BackoffDelay(retryCount int, cfg model.RateLimitConfig) time.Duration {
	delay := int64(cfg.RetryDelayBaseMs) << uint(retryCount)
	if max := int64(cfg.RetryDelayMaxMs); delay > max || delay <= 0 {
		delay = max
	}
	return time.Duration(delay) * time.Millisecond
}

// PaceDelay computes the sleep applied between consecutive sends within one
// batch so the configured provider throughput is respected:
// max(1000/messages_per_second, batch_delay_ms/batch_size).
func PaceDelay(cfg model.RateLimitConfig) time.Duration {
	perMessage := float64(0)
	if cfg.MessagesPerSecond > 0 {
		perMessage = 1000 / float64(cfg.MessagesPerSecond)
	}
	perBatch := float64(0)
	if cfg.BatchSize > 0 {
		perBatch = float64(cfg.BatchDelayMs) / float64(cfg.BatchSize)
	}
	if perBatch > perMessage {
		perMessage = perBatch
	}
	return time.Duration(perMessage * float64(time.Millisecond))
}
