package service

import (
	"testing"
	"time"

	"wasender/internal/model"
)

func TestBackoffDelay(t *testing.T) {
	cfg := model.DefaultRateLimitConfig()

	cases := []struct {
		retryCount int
		want       time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{5, 32 * time.Second},
		{6, 60 * time.Second}, // capped
		{40, 60 * time.Second},
		{70, 60 * time.Second}, // shift overflow clamps to cap
	}
	for _, tc := range cases {
		if got := BackoffDelay(tc.retryCount, cfg); got != tc.want {
			t.Errorf("BackoffDelay(%d) = %v, want %v", tc.retryCount, got, tc.want)
		}
	}
}

func TestBackoffDelay_Monotone(t *testing.T) {
	cfg := model.DefaultRateLimitConfig()
	prev := time.Duration(0)
	for i := 0; i < 10; i++ {
		got := BackoffDelay(i, cfg)
		if got < prev {
			t.Fatalf("BackoffDelay(%d) = %v < BackoffDelay(%d) = %v", i, got, i-1, prev)
		}
		prev = got
	}
}

func TestPaceDelay(t *testing.T) {
	cases := []struct {
		name string
		cfg  model.RateLimitConfig
		want time.Duration
	}{
		{
			name: "defaults, per-message wins",
			cfg:  model.DefaultRateLimitConfig(),
			// max(1000/80, 250/20) = max(12.5, 12.5)
			want: 12500 * time.Microsecond,
		},
		{
			name: "batch delay wins",
			cfg:  model.RateLimitConfig{MessagesPerSecond: 100, BatchSize: 10, BatchDelayMs: 500},
			want: 50 * time.Millisecond,
		},
		{
			name: "throughput wins",
			cfg:  model.RateLimitConfig{MessagesPerSecond: 4, BatchSize: 100, BatchDelayMs: 100},
			want: 250 * time.Millisecond,
		},
		{
			name: "zero guards",
			cfg:  model.RateLimitConfig{},
			want: 0,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := PaceDelay(tc.cfg); got != tc.want {
				t.Errorf("PaceDelay = %v, want %v", got, tc.want)
			}
		})
	}
}
