package metrics

import "time"

// QueueObserver receives delivery pipeline events for instrumentation.
type QueueObserver interface {
	IncSent()
	IncFailed()
	IncRetrying()
	IncEnqueued(n int)
	ObserveBatch(duration time.Duration, processed int)
}

// NoopObserver discards all events; used where metrics are not wired.
type NoopObserver struct{}

func (NoopObserver) IncSent()                        {}
func (NoopObserver) IncFailed()                      {}
func (NoopObserver) IncRetrying()                    {}
func (NoopObserver) IncEnqueued(int)                 {}
func (NoopObserver) ObserveBatch(time.Duration, int) {}
