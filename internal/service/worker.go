package service

import (
	"context"
	"errors"
	"time"

	"wasender/internal/repository"
	"wasender/pkg/logger"

	"go.uber.org/zap"
)

// QueueWorker is the periodic trigger arm of the pipeline: each interval it
// returns stale PROCESSING rows to PENDING, then drains one batch across all
// jobs as the system principal.
type QueueWorker struct {
	processor    *QueueProcessor
	queueRepo    repository.QueueInterface
	interval     time.Duration
	staleTimeout time.Duration
}

func NewQueueWorker(processor *QueueProcessor, queueRepo repository.QueueInterface, interval, staleTimeout time.Duration) *QueueWorker {
	return &QueueWorker{
		processor:    processor,
		queueRepo:    queueRepo,
		interval:     interval,
		staleTimeout: staleTimeout,
	}
}

func (w *QueueWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	logger.Info("queue worker started",
		zap.Duration("interval", w.interval),
		zap.Duration("stale_timeout", w.staleTimeout))

	for {
		select {
		case <-ctx.Done():
			logger.Info("queue worker stopped")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *QueueWorker) tick(ctx context.Context) {
	if w.staleTimeout > 0 {
		reclaimed, err := w.queueRepo.ReclaimStale(ctx, w.staleTimeout)
		if err != nil {
			logger.Error("stale row reclaim failed", zap.Error(err))
		} else if reclaimed > 0 {
			logger.Warn("reclaimed stuck processing rows", zap.Int64("count", reclaimed))
		}
	}

	result, err := w.processor.Process(ctx, ProcessOptions{})
	if err != nil {
		if errors.Is(err, ErrDeliveryNotConfigured) {
			logger.Warn("queue worker idle, delivery credentials missing")
			return
		}
		logger.Error("queue worker batch failed", zap.Error(err))
		return
	}

	if result.Processed > 0 {
		logger.Info("queue worker batch completed",
			zap.Int("processed", result.Processed),
			zap.Int("sent", result.Sent),
			zap.Int("failed", result.Failed),
			zap.Int("retrying", result.Retrying))
	}
}
