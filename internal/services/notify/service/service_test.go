package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"darkroom/internal/core/registry"
	"darkroom/internal/platform/bus"
	"darkroom/internal/services/notify/domain"
)

type fakeChannel struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
	fail   bool
}

func (c *fakeChannel) Send(p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return context.DeadlineExceeded
	}
	c.frames = append(c.frames, append([]byte(nil), p...))
	return nil
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeChannel) received() []domain.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Frame, 0, len(c.frames))
	for _, raw := range c.frames {
		var f domain.Frame
		if err := json.Unmarshal(raw, &f); err == nil {
			out = append(out, f)
		}
	}
	return out
}

type recordingAudit struct {
	mu   sync.Mutex
	recs []domain.DeliveryRecord
}

func (a *recordingAudit) Record(_ context.Context, rec domain.DeliveryRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recs = append(a.recs, rec)
	return nil
}

func (a *recordingAudit) all() []domain.DeliveryRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.DeliveryRecord(nil), a.recs...)
}

func event(jobID, owner, status string) []byte {
	b, _ := json.Marshal(domain.ResultEvent{
		JobID: jobID, OwnerID: owner, Status: status, ResultLocation: "x",
	})
	return b
}

func newSvc(t *testing.T, audit domain.AuditPort) (*Svc, *registry.Registry) {
	t.Helper()
	reg := registry.New()
	return New(reg, nil, audit, Config{ResultsTopic: "results"}), reg
}

func TestDispatch_DeliversFrame(t *testing.T) {
	audit := &recordingAudit{}
	svc, reg := newSvc(t, audit)

	ch := &fakeChannel{}
	reg.Register("42", ch)

	if err := svc.Dispatch(context.Background(), event("7", "42", domain.StatusDone)); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	frames := ch.received()
	if len(frames) != 1 {
		t.Fatalf("frames = %d", len(frames))
	}
	f := frames[0]
	if f.Type != domain.FrameTypeProcessingUpdate || f.JobID != "7" || f.Status != domain.StatusDone {
		t.Fatalf("frame = %+v", f)
	}

	recs := audit.all()
	if len(recs) != 1 || recs[0].Outcome != "delivered" || recs[0].UserID != "42" {
		t.Fatalf("audit = %+v", recs)
	}
}

func TestDispatch_NoChannelIsDroppedNotError(t *testing.T) {
	audit := &recordingAudit{}
	svc, _ := newSvc(t, audit)

	if err := svc.Dispatch(context.Background(), event("7", "42", domain.StatusDone)); err != nil {
		t.Fatalf("routing miss must not error: %v", err)
	}
	recs := audit.all()
	if len(recs) != 1 || recs[0].Outcome != "no_active_channel" {
		t.Fatalf("audit = %+v", recs)
	}
}

func TestDispatch_DisconnectedUserIsDropped(t *testing.T) {
	svc, reg := newSvc(t, nil)

	ch := &fakeChannel{}
	reg.Register("42", ch)
	reg.Unregister("42", ch)

	if err := svc.Dispatch(context.Background(), event("7", "42", domain.StatusDone)); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(ch.received()) != 0 {
		t.Fatal("disconnected channel must not receive frames")
	}
	if _, ok := reg.Lookup("42"); ok {
		t.Fatal("lookup after disconnect must be absent")
	}
}

func TestDispatch_FailedWriteEvictsChannel(t *testing.T) {
	audit := &recordingAudit{}
	svc, reg := newSvc(t, audit)

	ch := &fakeChannel{fail: true}
	reg.Register("42", ch)

	if err := svc.Dispatch(context.Background(), event("7", "42", domain.StatusDone)); err != nil {
		t.Fatalf("delivery failure must not error the loop: %v", err)
	}
	if _, ok := reg.Lookup("42"); ok {
		t.Fatal("dead channel must be evicted")
	}
	recs := audit.all()
	if len(recs) != 1 || recs[0].Outcome != "send_failed" {
		t.Fatalf("audit = %+v", recs)
	}
}

// redelivery produces two frames on purpose, the pipeline does not dedup
func TestDispatch_DuplicateEventDeliversTwice(t *testing.T) {
	svc, reg := newSvc(t, nil)

	ch := &fakeChannel{}
	reg.Register("42", ch)

	payload := event("7", "42", domain.StatusDone)
	for i := 0; i < 2; i++ {
		if err := svc.Dispatch(context.Background(), payload); err != nil {
			t.Fatalf("dispatch %d: %v", i, err)
		}
	}
	if got := len(ch.received()); got != 2 {
		t.Fatalf("frames = %d, want 2", got)
	}
}

func TestDispatch_MalformedPayload(t *testing.T) {
	audit := &recordingAudit{}
	svc, _ := newSvc(t, audit)

	if err := svc.Dispatch(context.Background(), []byte("{not json")); err == nil {
		t.Fatal("decode failure should be reported")
	}
	if err := svc.Dispatch(context.Background(), []byte(`{"job_id":"7"}`)); err == nil {
		t.Fatal("missing owner should be reported")
	}
	// neither reaches routing, so nothing is audited
	if len(audit.all()) != 0 {
		t.Fatalf("audit = %+v", audit.all())
	}
}

func TestRun_ConsumesFromBus(t *testing.T) {
	broker := bus.NewMemory()
	reg := registry.New()
	svc := New(reg, broker.Subscribe("results"), nil, Config{ResultsTopic: "results"})

	ch := &fakeChannel{}
	reg.Register("42", ch)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	if err := broker.Publish(ctx, "results", []byte("42"), event("7", "42", domain.StatusDone)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	// a poison message must not stop the loop
	_ = broker.Publish(ctx, "results", nil, []byte("garbage"))
	_ = broker.Publish(ctx, "results", []byte("42"), event("8", "42", domain.StatusFailed))

	deadline := time.After(2 * time.Second)
	for {
		if len(ch.received()) >= 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("frames = %d, want 2", len(ch.received()))
		case <-time.After(10 * time.Millisecond):
		}
	}

	frames := ch.received()
	if frames[0].JobID != "7" || frames[1].JobID != "8" || frames[1].Status != domain.StatusFailed {
		t.Fatalf("frames = %+v", frames)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
}
