package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wasender/internal/dto/resp"
	"wasender/internal/metrics"
	"wasender/internal/model"
	"wasender/internal/repository"
	"wasender/internal/whatsapp"
	"wasender/pkg/logger"

	"go.uber.org/zap"
)

var ErrDeliveryNotConfigured = errors.New("whatsapp credentials not configured")

// DeliveryClient sends one notification and classifies the outcome. Retry
// policy lives entirely in the processor.
type DeliveryClient interface {
	Send(ctx context.Context, req whatsapp.SendRequest) whatsapp.Result
	Configured() bool
	TemplateName() string
}

// ProcessOptions bounds one batch invocation. JobID narrows processing to a
// single job; JobIDs narrows to a caller's jobs when JobID is empty. Both
// empty means the whole queue (worker scope).
type ProcessOptions struct {
	JobID       string
	JobIDs      []string
	MaxMessages int
}

// QueueProcessor drains eligible queue rows through a sequential, paced,
// retrying delivery loop. One invocation processes at most one batch.
type QueueProcessor struct {
	queueRepo  repository.QueueInterface
	sentRepo   repository.SentInterface
	limitRepo  repository.RateLimitInterface
	aggregator *JobAggregator
	client     DeliveryClient
	observer   metrics.QueueObserver

	// sleep is swapped out in tests
	sleep func(time.Duration)
}

func NewQueueProcessor(
	queueRepo repository.QueueInterface,
	sentRepo repository.SentInterface,
	limitRepo repository.RateLimitInterface,
	aggregator *JobAggregator,
	client DeliveryClient,
	observer metrics.QueueObserver,
) *QueueProcessor {
	return &QueueProcessor{
		queueRepo:  queueRepo,
		sentRepo:   sentRepo,
		limitRepo:  limitRepo,
		aggregator: aggregator,
		client:     client,
		observer:   observer,
		sleep:      time.Sleep,
	}
}

// Process runs one bounded batch: fetch eligible rows, claim each, send,
// classify, persist the outcome, pace between sends. Delivery failures are
// recorded per row and never abort the batch; only infrastructure errors
// (store unreachable, missing credentials) propagate.
func (p *QueueProcessor) Process(ctx context.Context, opts ProcessOptions) (*resp.ProcessResponse, error) {
	if !p.client.Configured() {
		return nil, ErrDeliveryNotConfigured
	}

	cfg, err := p.limitRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rate limit config: %w", err)
	}

	limit := cfg.BatchSize
	if opts.MaxMessages > 0 && opts.MaxMessages < limit {
		limit = opts.MaxMessages
	}

	messages, err := p.queueRepo.FetchEligible(ctx, opts.JobID, opts.JobIDs, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch eligible messages: %w", err)
	}
	if len(messages) == 0 {
		return &resp.ProcessResponse{Message: "No pending messages"}, nil
	}

	logger.Info("processing queue batch",
		zap.Int("messages", len(messages)),
		zap.String("job_id", opts.JobID))

	delay := PaceDelay(cfg)
	start := time.Now()

	var processed, sent, failed, retrying int
	for i, msg := range messages {
		claimed, err := p.queueRepo.ClaimProcessing(ctx, msg.ID)
		if err != nil {
			return nil, fmt.Errorf("claim message %s: %w", msg.ID, err)
		}
		if !claimed {
			// A concurrent invocation took this row between selection and
			// claim; the race resolves to a no-op for us.
			logger.Debug("claim lost, skipping message", zap.String("id", msg.ID))
			continue
		}

		result := p.client.Send(ctx, whatsapp.SendRequest{
			PhoneE164:     msg.PhoneE164,
			RecipientName: msg.RecipientName,
			SenderName:    msg.SenderName,
			GuideNumber:   msg.GuideNumber,
		})
		processed++

		if result.Success {
			if err := p.queueRepo.MarkSent(ctx, msg.ID, result.MessageID); err != nil {
				return nil, fmt.Errorf("mark message %s sent: %w", msg.ID, err)
			}
			p.recordTerminal(ctx, msg, model.StatusSent, result.MessageID, "")
			p.observer.IncSent()
			sent++
		} else {
			logger.Warn("delivery failed",
				zap.String("id", msg.ID),
				zap.String("error_code", result.ErrorCode),
				zap.String("detail", whatsapp.FriendlyMessage(result.ErrorCode, result.ErrorMessage)),
				zap.Int("retry_count", msg.RetryCount))

			if msg.RetryCount < msg.MaxRetries {
				backoff := BackoffDelay(msg.RetryCount, cfg)
				nextRetryAt := time.Now().Add(backoff)
				if err := p.queueRepo.MarkRetrying(ctx, msg.ID, msg.RetryCount+1, nextRetryAt, result.ErrorMessage, result.ErrorCode); err != nil {
					return nil, fmt.Errorf("mark message %s retrying: %w", msg.ID, err)
				}
				p.observer.IncRetrying()
				retrying++
			} else {
				if err := p.queueRepo.MarkFailed(ctx, msg.ID, result.ErrorMessage, result.ErrorCode); err != nil {
					return nil, fmt.Errorf("mark message %s failed: %w", msg.ID, err)
				}
				p.recordTerminal(ctx, msg, model.StatusFailed, "", result.ErrorMessage)
				p.observer.IncFailed()
				failed++
			}
		}

		if i < len(messages)-1 {
			p.sleep(delay)
		}
	}

	p.observer.ObserveBatch(time.Since(start), processed)

	if opts.JobID != "" {
		if err := p.aggregator.Refresh(ctx, opts.JobID); err != nil {
			logger.Warn("job aggregate refresh failed",
				zap.String("job_id", opts.JobID), zap.Error(err))
		}
	}

	return &resp.ProcessResponse{
		Processed: processed,
		Sent:      sent,
		Failed:    failed,
		Retrying:  retrying,
		Message:   fmt.Sprintf("Processed %d messages: %d sent, %d failed, %d retrying", processed, sent, failed, retrying),
	}, nil
}

// recordTerminal mirrors a terminal outcome into the sent_messages history
// table. History write failures are logged, not fatal: the queue row already
// holds the authoritative state.
func (p *QueueProcessor) recordTerminal(ctx context.Context, msg model.QueueMessage, status model.QueueStatus, waMessageID, errMsg string) {
	record := &model.SentMessage{
		JobID:         msg.JobID,
		PhoneE164:     msg.PhoneE164,
		GuideNumber:   msg.GuideNumber,
		RecipientName: msg.RecipientName,
		SenderName:    msg.SenderName,
		TemplateName:  p.client.TemplateName(),
		Status:        string(status),
	}
	if waMessageID != "" {
		record.WaMessageID = &waMessageID
	}
	if errMsg != "" {
		record.ErrorMessage = &errMsg
	}

	if err := p.sentRepo.Upsert(ctx, record); err != nil {
		logger.Warn("sent history upsert failed",
			zap.String("id", msg.ID), zap.Error(err))
	}
}
