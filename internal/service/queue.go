package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wasender/internal/carrier"
	"wasender/internal/dto/req"
	"wasender/internal/dto/resp"
	"wasender/internal/metrics"
	"wasender/internal/model"
	"wasender/internal/repository"
	"wasender/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrJobNotFound = errors.New("job not found")
	ErrForbidden   = errors.New("forbidden")
)

const defaultPriority = 5

// QueueService is the authorization-aware front of the delivery queue:
// it validates job ownership, upserts queue rows, and delegates batch work
// to the processor.
type QueueService struct {
	queueRepo  repository.QueueInterface
	jobRepo    repository.JobInterface
	processor  *QueueProcessor
	observer   metrics.QueueObserver
	senderName string
	maxRetries int
}

func NewQueueService(
	queueRepo repository.QueueInterface,
	jobRepo repository.JobInterface,
	processor *QueueProcessor,
	observer metrics.QueueObserver,
	senderName string,
	maxRetries int,
) *QueueService {
	return &QueueService{
		queueRepo:  queueRepo,
		jobRepo:    jobRepo,
		processor:  processor,
		observer:   observer,
		senderName: senderName,
		maxRetries: maxRetries,
	}
}

// Enqueue upserts one queue row per request row, keyed by
// (job_id, phone_e164, guide_number), and optionally triggers an inline
// processing pass. A trigger failure is reported as a soft warning on the
// response: the enqueue itself already succeeded durably.
func (s *QueueService) Enqueue(ctx context.Context, op *OperatorInfo, r req.EnqueueRequest) (*resp.EnqueueResponse, error) {
	if err := s.authorizeJob(ctx, op, r.JobID); err != nil {
		return nil, err
	}

	senderName := r.SenderName
	if senderName == "" {
		senderName = s.senderName
	}

	now := time.Now()
	messages := make([]model.QueueMessage, 0, len(r.Rows))
	for _, row := range r.Rows {
		priority := row.Priority
		if priority <= 0 {
			priority = defaultPriority
		}

		msg := model.QueueMessage{
			ID:            uuid.New().String(),
			JobID:         r.JobID,
			PhoneE164:     row.PhoneE164,
			GuideNumber:   row.GuideNumber,
			RecipientName: row.RecipientName,
			SenderName:    senderName,
			Priority:      priority,
			Status:        model.StatusPending,
			MaxRetries:    s.maxRetries,
			ScheduledAt:   now,
		}
		if cfg, ok := carrier.Detect(row.GuideNumber); ok {
			msg.Carrier = cfg.Carrier
			msg.TrackingURL = cfg.TrackingURL(row.GuideNumber)
		}
		messages = append(messages, msg)
	}

	if err := s.queueRepo.UpsertBatch(ctx, messages); err != nil {
		return nil, fmt.Errorf("enqueue messages: %w", err)
	}
	s.observer.IncEnqueued(len(messages))

	if err := s.jobRepo.UpdateStatus(ctx, r.JobID, model.JobQueued); err != nil {
		return nil, fmt.Errorf("update job status: %w", err)
	}

	out := &resp.EnqueueResponse{
		Enqueued: len(messages),
		JobID:    r.JobID,
		Status:   "queued",
	}

	if r.AutoProcess {
		out.Status = "processing"
		result, err := s.processor.Process(ctx, ProcessOptions{JobID: r.JobID})
		if err != nil {
			logger.Warn("auto-process trigger failed",
				zap.String("job_id", r.JobID), zap.Error(err))
			out.ProcessTriggerError = err.Error()
		} else {
			out.ProcessResult = result
		}
	}

	return out, nil
}

// Process drains one batch. With a jobId the caller must own the job; without
// one, processing is scoped to the caller's jobs (admins see the whole queue).
func (s *QueueService) Process(ctx context.Context, op *OperatorInfo, r req.ProcessRequest) (*resp.ProcessResponse, error) {
	if op == nil {
		return nil, ErrForbidden
	}

	opts := ProcessOptions{JobID: r.JobID, MaxMessages: r.MaxMessages}

	if r.JobID != "" {
		if err := s.authorizeJob(ctx, op, r.JobID); err != nil {
			return nil, err
		}
	} else if !op.Admin() {
		ids, err := s.jobRepo.IDsByUser(ctx, op.UserID)
		if err != nil {
			return nil, fmt.Errorf("list caller jobs: %w", err)
		}
		if len(ids) == 0 {
			return &resp.ProcessResponse{Message: "No jobs found"}, nil
		}
		opts.JobIDs = ids
	}

	return s.processor.Process(ctx, opts)
}

// Stats returns the live status breakdown for one job.
func (s *QueueService) Stats(ctx context.Context, op *OperatorInfo, jobID string) (*resp.QueueStatsResponse, error) {
	if err := s.authorizeJob(ctx, op, jobID); err != nil {
		return nil, err
	}

	stats, err := s.queueRepo.StatsByJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}

	return &resp.QueueStatsResponse{
		Pending:    stats.Pending,
		Processing: stats.Processing,
		Sent:       stats.Sent,
		Failed:     stats.Failed,
		Retrying:   stats.Retrying,
		Total:      stats.Total,
	}, nil
}

// RetryFailed resets every FAILED row of a job to PENDING with a fresh retry
// budget, then runs a processing pass. The only path that resurrects FAILED
// rows; SENT rows are never touched.
func (s *QueueService) RetryFailed(ctx context.Context, op *OperatorInfo, jobID string) (*resp.RetryFailedResponse, error) {
	if err := s.authorizeJob(ctx, op, jobID); err != nil {
		return nil, err
	}

	reset, err := s.queueRepo.ResetFailed(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("reset failed messages: %w", err)
	}
	logger.Info("failed messages reset",
		zap.String("job_id", jobID), zap.Int64("count", reset))

	result, err := s.processor.Process(ctx, ProcessOptions{JobID: jobID})
	if err != nil {
		return nil, err
	}

	return &resp.RetryFailedResponse{Reset: reset, ProcessResponse: result}, nil
}

func (s *QueueService) Health(ctx context.Context) error {
	return s.queueRepo.PingContext(ctx)
}

func (s *QueueService) authorizeJob(ctx context.Context, op *OperatorInfo, jobID string) error {
	if op == nil {
		return ErrForbidden
	}
	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("find job: %w", err)
	}
	if job == nil {
		return ErrJobNotFound
	}
	if !op.Admin() && job.UserID != op.UserID {
		return ErrForbidden
	}
	return nil
}
