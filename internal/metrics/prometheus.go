package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type prometheusObserver struct {
	sentCounter     prometheus.Counter
	failedCounter   prometheus.Counter
	retryingCounter prometheus.Counter
	enqueuedCounter prometheus.Counter
	batchDuration   prometheus.Summary
	batchSize       prometheus.Summary
}

var (
	sentCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wasender_messages_sent_total",
		Help: "Total number of messages delivered successfully",
	})
	failedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wasender_messages_failed_total",
		Help: "Total number of messages that exhausted their retry budget",
	})
	retryingCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wasender_messages_retrying_total",
		Help: "Total number of delivery attempts scheduled for retry",
	})
	enqueuedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wasender_messages_enqueued_total",
		Help: "Total number of messages upserted into the queue",
	})
	batchDuration = promauto.NewSummary(prometheus.SummaryOpts{
		Name: "wasender_batch_duration_seconds",
		Help: "Duration of one queue processor batch",
	})
	batchSize = promauto.NewSummary(prometheus.SummaryOpts{
		Name: "wasender_batch_processed_messages",
		Help: "Messages processed per queue processor batch",
	})
)

func NewPrometheusObserver() QueueObserver {
	return &prometheusObserver{
		sentCounter:     sentCounter,
		failedCounter:   failedCounter,
		retryingCounter: retryingCounter,
		enqueuedCounter: enqueuedCounter,
		batchDuration:   batchDuration,
		batchSize:       batchSize,
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func (p *prometheusObserver) IncSent()     { p.sentCounter.Inc() }
func (p *prometheusObserver) IncFailed()   { p.failedCounter.Inc() }
func (p *prometheusObserver) IncRetrying() { p.retryingCounter.Inc() }

func (p *prometheusObserver) IncEnqueued(n int) {
	p.enqueuedCounter.Add(float64(n))
}

func (p *prometheusObserver) ObserveBatch(duration time.Duration, processed int) {
	p.batchDuration.Observe(duration.Seconds())
	p.batchSize.Observe(float64(processed))
}
