package service

import (
	"context"
	"testing"
	"time"

	"wasender/internal/metrics"
	"wasender/internal/model"
	"wasender/internal/repository"
	"wasender/internal/whatsapp"
	"wasender/pkg/logger"

	"gorm.io/gorm"
)

func init() {
	logger.InitLogger("test")
}

type retryMark struct {
	retryCount  int
	nextRetryAt time.Time
	errCode     string
}

type fakeQueueRepo struct {
	eligible  []model.QueueMessage
	denyClaim map[string]bool

	fetchLimit int
	claimed    []string
	sent       map[string]string
	retried    map[string]retryMark
	failed     map[string]string
	upserted   []model.QueueMessage
	reset      int64
	reclaimed  int64
	stats      model.QueueStats
}

func newFakeQueueRepo(eligible ...model.QueueMessage) *fakeQueueRepo {
	return &fakeQueueRepo{
		eligible:  eligible,
		denyClaim: map[string]bool{},
		sent:      map[string]string{},
		retried:   map[string]retryMark{},
		failed:    map[string]string{},
	}
}

func (f *fakeQueueRepo) UpsertBatch(_ context.Context, messages []model.QueueMessage) error {
	f.upserted = append(f.upserted, messages...)
	return nil
}

func (f *fakeQueueRepo) FetchEligible(_ context.Context, jobID string, jobIDs []string, limit int) ([]model.QueueMessage, error) {
	f.fetchLimit = limit
	out := make([]model.QueueMessage, 0, limit)
	for _, m := range f.eligible {
		if jobID != "" && m.JobID != jobID {
			continue
		}
		if jobID == "" && len(jobIDs) > 0 && !containsString(jobIDs, m.JobID) {
			continue
		}
		out = append(out, m)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeQueueRepo) ClaimProcessing(_ context.Context, id string) (bool, error) {
	if f.denyClaim[id] {
		return false, nil
	}
	f.claimed = append(f.claimed, id)
	return true, nil
}

func (f *fakeQueueRepo) MarkSent(_ context.Context, id, waMessageID string) error {
	f.sent[id] = waMessageID
	return nil
}

func (f *fakeQueueRepo) MarkRetrying(_ context.Context, id string, retryCount int, nextRetryAt time.Time, _, errCode string) error {
	f.retried[id] = retryMark{retryCount: retryCount, nextRetryAt: nextRetryAt, errCode: errCode}
	return nil
}

func (f *fakeQueueRepo) MarkFailed(_ context.Context, id string, _, errCode string) error {
	f.failed[id] = errCode
	return nil
}

func (f *fakeQueueRepo) ResetFailed(_ context.Context, _ string) (int64, error) {
	return f.reset, nil
}

func (f *fakeQueueRepo) ReclaimStale(_ context.Context, _ time.Duration) (int64, error) {
	return f.reclaimed, nil
}

func (f *fakeQueueRepo) StatsByJob(_ context.Context, _ string) (model.QueueStats, error) {
	return f.stats, nil
}

func (f *fakeQueueRepo) PingContext(_ context.Context) error { return nil }

func (f *fakeQueueRepo) WithTx(_ *gorm.DB) repository.QueueInterface { return f }

type counterUpdate struct {
	sentOK     int64
	sentFailed int64
	status     model.JobStatus
}

type fakeJobRepo struct {
	jobs     map[string]*model.Job
	ids      map[string][]string
	statuses map[string]model.JobStatus
	counters map[string]counterUpdate
}

func newFakeJobRepo(jobs ...*model.Job) *fakeJobRepo {
	f := &fakeJobRepo{
		jobs:     map[string]*model.Job{},
		ids:      map[string][]string{},
		statuses: map[string]model.JobStatus{},
		counters: map[string]counterUpdate{},
	}
	for _, j := range jobs {
		f.jobs[j.ID] = j
		f.ids[j.UserID] = append(f.ids[j.UserID], j.ID)
	}
	return f
}

func (f *fakeJobRepo) FindByID(_ context.Context, id string) (*model.Job, error) {
	return f.jobs[id], nil
}

func (f *fakeJobRepo) IDsByUser(_ context.Context, userID string) ([]string, error) {
	return f.ids[userID], nil
}

func (f *fakeJobRepo) UpdateStatus(_ context.Context, id string, status model.JobStatus) error {
	f.statuses[id] = status
	return nil
}

func (f *fakeJobRepo) UpdateCounters(_ context.Context, id string, sentOK, sentFailed int64, status model.JobStatus) error {
	f.counters[id] = counterUpdate{sentOK: sentOK, sentFailed: sentFailed, status: status}
	return nil
}

func (f *fakeJobRepo) WithTx(_ *gorm.DB) repository.JobInterface { return f }

type fakeSentRepo struct {
	records []model.SentMessage
}

func (f *fakeSentRepo) Upsert(_ context.Context, record *model.SentMessage) error {
	f.records = append(f.records, *record)
	return nil
}

func (f *fakeSentRepo) ListByJob(_ context.Context, _ string) ([]model.SentMessage, error) {
	return f.records, nil
}

type fakeLimitRepo struct {
	cfg model.RateLimitConfig
}

func (f *fakeLimitRepo) Get(_ context.Context) (model.RateLimitConfig, error) {
	return f.cfg, nil
}

// fakeDelivery succeeds unless the phone appears in rejections.
type fakeDelivery struct {
	configured bool
	rejections map[string]whatsapp.Result
	calls      []whatsapp.SendRequest
}

func (f *fakeDelivery) Send(_ context.Context, req whatsapp.SendRequest) whatsapp.Result {
	f.calls = append(f.calls, req)
	if r, ok := f.rejections[req.PhoneE164]; ok {
		return r
	}
	return whatsapp.Result{Success: true, MessageID: "wamid." + req.PhoneE164}
}

func (f *fakeDelivery) Configured() bool { return f.configured }

func (f *fakeDelivery) TemplateName() string { return "shipment_notification" }

func containsString(xs []string, want string) bool {
	for _, x := range xs {
		if x == want {
			return true
		}
	}
	return false
}

func queueMsg(id, jobID, phone string, retryCount int) model.QueueMessage {
	return model.QueueMessage{
		ID:            id,
		JobID:         jobID,
		PhoneE164:     phone,
		GuideNumber:   "240001234567",
		RecipientName: "Ana",
		SenderName:    "Import Corporal Medical",
		Status:        model.StatusPending,
		RetryCount:    retryCount,
		MaxRetries:    3,
	}
}

func newTestProcessor(queueRepo *fakeQueueRepo, jobRepo *fakeJobRepo, sentRepo *fakeSentRepo, client *fakeDelivery) *QueueProcessor {
	p := NewQueueProcessor(
		queueRepo,
		sentRepo,
		&fakeLimitRepo{cfg: model.DefaultRateLimitConfig()},
		NewJobAggregator(queueRepo, jobRepo),
		client,
		metrics.NoopObserver{},
	)
	p.sleep = func(time.Duration) {}
	return p
}

func TestProcess_AllSent(t *testing.T) {
	queueRepo := newFakeQueueRepo(
		queueMsg("m1", "job-1", "+573001112233", 0),
		queueMsg("m2", "job-1", "+573004445566", 0),
	)
	jobRepo := newFakeJobRepo()
	sentRepo := &fakeSentRepo{}
	client := &fakeDelivery{configured: true}

	p := newTestProcessor(queueRepo, jobRepo, sentRepo, client)

	out, err := p.Process(context.Background(), ProcessOptions{JobID: "job-1"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out.Processed != 2 || out.Sent != 2 || out.Failed != 0 || out.Retrying != 0 {
		t.Fatalf("unexpected counts: %+v", out)
	}
	if queueRepo.sent["m1"] != "wamid.+573001112233" {
		t.Errorf("m1 wa_message_id = %q", queueRepo.sent["m1"])
	}
	if len(sentRepo.records) != 2 {
		t.Fatalf("sent history records = %d, want 2", len(sentRepo.records))
	}
	if sentRepo.records[0].Status != string(model.StatusSent) {
		t.Errorf("history status = %s", sentRepo.records[0].Status)
	}
	if sentRepo.records[0].TemplateName != "shipment_notification" {
		t.Errorf("history template = %s", sentRepo.records[0].TemplateName)
	}
}

func TestProcess_FailureSchedulesRetry(t *testing.T) {
	queueRepo := newFakeQueueRepo(queueMsg("m1", "job-1", "+573001112233", 1))
	client := &fakeDelivery{
		configured: true,
		rejections: map[string]whatsapp.Result{
			"+573001112233": {ErrorMessage: "rate limit hit", ErrorCode: "131048"},
		},
	}
	sentRepo := &fakeSentRepo{}

	p := newTestProcessor(queueRepo, newFakeJobRepo(), sentRepo, client)

	before := time.Now()
	out, err := p.Process(context.Background(), ProcessOptions{JobID: "job-1"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out.Retrying != 1 || out.Failed != 0 || out.Sent != 0 {
		t.Fatalf("unexpected counts: %+v", out)
	}

	mark, ok := queueRepo.retried["m1"]
	if !ok {
		t.Fatal("m1 not marked retrying")
	}
	if mark.retryCount != 2 {
		t.Errorf("retry_count = %d, want 2", mark.retryCount)
	}
	if mark.errCode != "131048" {
		t.Errorf("error_code = %s", mark.errCode)
	}
	// retryCount was 1 before this attempt: backoff is 1000ms << 1 = 2s
	wantAt := before.Add(2 * time.Second)
	if mark.nextRetryAt.Before(wantAt) || mark.nextRetryAt.After(wantAt.Add(time.Second)) {
		t.Errorf("next_retry_at = %v, want ~%v", mark.nextRetryAt, wantAt)
	}
	if len(sentRepo.records) != 0 {
		t.Errorf("retrying row must not produce a history record, got %d", len(sentRepo.records))
	}
}

func TestProcess_RetriesExhaustedFails(t *testing.T) {
	queueRepo := newFakeQueueRepo(queueMsg("m1", "job-1", "+573001112233", 3))
	client := &fakeDelivery{
		configured: true,
		rejections: map[string]whatsapp.Result{
			"+573001112233": {ErrorMessage: "recipient not on whatsapp", ErrorCode: "131026"},
		},
	}
	sentRepo := &fakeSentRepo{}

	p := newTestProcessor(queueRepo, newFakeJobRepo(), sentRepo, client)

	out, err := p.Process(context.Background(), ProcessOptions{JobID: "job-1"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out.Failed != 1 || out.Retrying != 0 {
		t.Fatalf("unexpected counts: %+v", out)
	}
	if queueRepo.failed["m1"] != "131026" {
		t.Errorf("failed error_code = %s", queueRepo.failed["m1"])
	}
	if len(sentRepo.records) != 1 || sentRepo.records[0].Status != string(model.StatusFailed) {
		t.Fatalf("expected one FAILED history record, got %+v", sentRepo.records)
	}
	if sentRepo.records[0].ErrorMessage == nil || *sentRepo.records[0].ErrorMessage != "recipient not on whatsapp" {
		t.Errorf("history error_message = %v", sentRepo.records[0].ErrorMessage)
	}
}

func TestProcess_MaxMessagesBoundsBatch(t *testing.T) {
	queueRepo := newFakeQueueRepo(
		queueMsg("m1", "job-1", "+573001112233", 0),
		queueMsg("m2", "job-1", "+573004445566", 0),
		queueMsg("m3", "job-1", "+573007778899", 0),
	)
	client := &fakeDelivery{configured: true}

	p := newTestProcessor(queueRepo, newFakeJobRepo(), &fakeSentRepo{}, client)

	out, err := p.Process(context.Background(), ProcessOptions{JobID: "job-1", MaxMessages: 1})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out.Processed != 1 || out.Sent != 1 {
		t.Fatalf("unexpected counts: %+v", out)
	}
	if queueRepo.fetchLimit != 1 {
		t.Errorf("fetch limit = %d, want 1", queueRepo.fetchLimit)
	}
	if len(client.calls) != 1 {
		t.Errorf("delivery calls = %d, want 1", len(client.calls))
	}
}

func TestProcess_LostClaimSkipsRow(t *testing.T) {
	queueRepo := newFakeQueueRepo(
		queueMsg("m1", "job-1", "+573001112233", 0),
		queueMsg("m2", "job-1", "+573004445566", 0),
	)
	queueRepo.denyClaim["m1"] = true
	client := &fakeDelivery{configured: true}

	p := newTestProcessor(queueRepo, newFakeJobRepo(), &fakeSentRepo{}, client)

	out, err := p.Process(context.Background(), ProcessOptions{JobID: "job-1"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out.Processed != 1 || out.Sent != 1 {
		t.Fatalf("unexpected counts: %+v", out)
	}
	if len(client.calls) != 1 || client.calls[0].PhoneE164 != "+573004445566" {
		t.Fatalf("delivery calls = %+v, want only m2", client.calls)
	}
}

func TestProcess_NotConfigured(t *testing.T) {
	p := newTestProcessor(newFakeQueueRepo(), newFakeJobRepo(), &fakeSentRepo{}, &fakeDelivery{configured: false})

	_, err := p.Process(context.Background(), ProcessOptions{})
	if err != ErrDeliveryNotConfigured {
		t.Fatalf("err = %v, want ErrDeliveryNotConfigured", err)
	}
}

func TestProcess_EmptyQueue(t *testing.T) {
	p := newTestProcessor(newFakeQueueRepo(), newFakeJobRepo(), &fakeSentRepo{}, &fakeDelivery{configured: true})

	out, err := p.Process(context.Background(), ProcessOptions{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out.Message != "No pending messages" || out.Processed != 0 {
		t.Fatalf("unexpected response: %+v", out)
	}
}

func TestProcess_RefreshesJobAggregate(t *testing.T) {
	queueRepo := newFakeQueueRepo(queueMsg("m1", "job-1", "+573001112233", 0))
	queueRepo.stats = model.QueueStats{Sent: 1, Total: 1}
	jobRepo := newFakeJobRepo(&model.Job{ID: "job-1", UserID: "u1"})
	client := &fakeDelivery{configured: true}

	p := newTestProcessor(queueRepo, jobRepo, &fakeSentRepo{}, client)

	if _, err := p.Process(context.Background(), ProcessOptions{JobID: "job-1"}); err != nil {
		t.Fatalf("Process: %v", err)
	}

	got, ok := jobRepo.counters["job-1"]
	if !ok {
		t.Fatal("job counters not refreshed")
	}
	if got.sentOK != 1 || got.status != model.JobCompleted {
		t.Errorf("counters = %+v, want sentOK=1 COMPLETED", got)
	}
}
