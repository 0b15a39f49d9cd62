package metrics

import (
	"testing"
	"time"
)

func TestPrometheusObserver(t *testing.T) {
	obs := NewPrometheusObserver()

	// Just call methods to ensure no panic
	obs.IncSent()
	obs.IncFailed()
	obs.IncRetrying()
	obs.IncEnqueued(3)
	obs.ObserveBatch(120*time.Millisecond, 5)
}
