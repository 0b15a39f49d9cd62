package service

import (
	"context"
	"fmt"

	"wasender/internal/model"
	"wasender/internal/repository"
)

// JobAggregator recomputes a job's derived counters from queue state.
// Idempotent: redundant calls with unchanged queue state write the same
// values.
type JobAggregator struct {
	queueRepo repository.QueueInterface
	jobRepo   repository.JobInterface
}

func NewJobAggregator(queueRepo repository.QueueInterface, jobRepo repository.JobInterface) *JobAggregator {
	return &JobAggregator{queueRepo: queueRepo, jobRepo: jobRepo}
}

// Refresh reads the job's queue status counts and writes sent_ok/sent_failed.
// The job is COMPLETED once nothing is left PENDING or RETRYING, else
// PROCESSING.
func (a *JobAggregator) Refresh(ctx context.Context, jobID string) error {
	stats, err := a.queueRepo.StatsByJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("queue stats for job %s: %w", jobID, err)
	}

	status := model.JobProcessing
	if stats.Pending == 0 && stats.Retrying == 0 {
		status = model.JobCompleted
	}

	return a.jobRepo.UpdateCounters(ctx, jobID, stats.Sent, stats.Failed, status)
}
