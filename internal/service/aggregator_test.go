package service

import (
	"context"
	"testing"

	"wasender/internal/model"
)

func TestAggregatorRefresh(t *testing.T) {
	cases := []struct {
		name       string
		stats      model.QueueStats
		wantStatus model.JobStatus
	}{
		{
			name:       "all terminal completes the job",
			stats:      model.QueueStats{Sent: 8, Failed: 2, Total: 10},
			wantStatus: model.JobCompleted,
		},
		{
			name:       "pending rows keep it processing",
			stats:      model.QueueStats{Pending: 1, Sent: 9, Total: 10},
			wantStatus: model.JobProcessing,
		},
		{
			name:       "retrying rows keep it processing",
			stats:      model.QueueStats{Retrying: 2, Sent: 8, Total: 10},
			wantStatus: model.JobProcessing,
		},
		{
			name:       "stuck processing rows do not block completion",
			stats:      model.QueueStats{Processing: 1, Sent: 9, Total: 10},
			wantStatus: model.JobCompleted,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			queueRepo := newFakeQueueRepo()
			queueRepo.stats = tc.stats
			jobRepo := newFakeJobRepo(&model.Job{ID: "job-1", UserID: "u1"})

			agg := NewJobAggregator(queueRepo, jobRepo)
			if err := agg.Refresh(context.Background(), "job-1"); err != nil {
				t.Fatalf("Refresh: %v", err)
			}

			got := jobRepo.counters["job-1"]
			if got.status != tc.wantStatus {
				t.Errorf("status = %s, want %s", got.status, tc.wantStatus)
			}
			if got.sentOK != tc.stats.Sent || got.sentFailed != tc.stats.Failed {
				t.Errorf("counters = %+v, want sent=%d failed=%d", got, tc.stats.Sent, tc.stats.Failed)
			}
		})
	}
}

func TestAggregatorRefresh_Idempotent(t *testing.T) {
	queueRepo := newFakeQueueRepo()
	queueRepo.stats = model.QueueStats{Sent: 5, Total: 5}
	jobRepo := newFakeJobRepo(&model.Job{ID: "job-1", UserID: "u1"})

	agg := NewJobAggregator(queueRepo, jobRepo)
	for i := 0; i < 3; i++ {
		if err := agg.Refresh(context.Background(), "job-1"); err != nil {
			t.Fatalf("Refresh #%d: %v", i, err)
		}
	}

	got := jobRepo.counters["job-1"]
	if got.sentOK != 5 || got.status != model.JobCompleted {
		t.Errorf("counters after repeated refresh = %+v", got)
	}
}
