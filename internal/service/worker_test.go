package service

import (
	"context"
	"testing"
	"time"
)

func TestWorkerTick_DrainsQueue(t *testing.T) {
	queueRepo := newFakeQueueRepo(queueMsg("m1", "job-1", "+573001112233", 0))
	client := &fakeDelivery{configured: true}
	p := newTestProcessor(queueRepo, newFakeJobRepo(), &fakeSentRepo{}, client)

	w := NewQueueWorker(p, queueRepo, time.Minute, 10*time.Minute)
	w.tick(context.Background())

	if len(client.calls) != 1 {
		t.Fatalf("delivery calls = %d, want 1", len(client.calls))
	}
	if _, ok := queueRepo.sent["m1"]; !ok {
		t.Error("m1 not marked sent")
	}
}

func TestWorkerTick_DeliveryNotConfigured(t *testing.T) {
	queueRepo := newFakeQueueRepo(queueMsg("m1", "job-1", "+573001112233", 0))
	p := newTestProcessor(queueRepo, newFakeJobRepo(), &fakeSentRepo{}, &fakeDelivery{configured: false})

	w := NewQueueWorker(p, queueRepo, time.Minute, 10*time.Minute)
	// Must not panic or mark anything; the worker just idles until configured
	w.tick(context.Background())

	if len(queueRepo.claimed) != 0 {
		t.Errorf("claimed = %v, want none", queueRepo.claimed)
	}
}

func TestWorkerRun_StopsOnCancel(t *testing.T) {
	queueRepo := newFakeQueueRepo()
	p := newTestProcessor(queueRepo, newFakeJobRepo(), &fakeSentRepo{}, &fakeDelivery{configured: true})
	w := NewQueueWorker(p, queueRepo, time.Millisecond, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
