package bus

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"darkroom/internal/platform/config"
	"darkroom/internal/platform/testkit"
)

func TestFromConf_Defaults(t *testing.T) {
	cfg := FromConf(config.New())
	if len(cfg.Brokers) != 1 || cfg.Brokers[0] != "localhost:9092" {
		t.Fatalf("brokers = %v", cfg.Brokers)
	}
	if cfg.MaxBytes != 10<<20 || cfg.MaxWait != 500*time.Millisecond {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestFromConf_Env(t *testing.T) {
	t.Setenv("API_BUS_BROKERS", "k1:9092, k2:9092")
	cfg := FromConf(config.New().Prefix("API_"))
	if len(cfg.Brokers) != 2 || cfg.Brokers[1] != "k2:9092" {
		t.Fatalf("brokers = %v", cfg.Brokers)
	}
}

func TestMemory_PublishAndReplay(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.Publish(ctx, "results", []byte("u-1"), []byte(`{"n":1}`)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := m.Publish(ctx, "results", []byte("u-2"), []byte(`{"n":2}`)); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	var seen atomic.Int32
	c := m.Subscribe("results")
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		_ = c.Run(runCtx, func(ctx context.Context, msg Message) error {
			seen.Add(1)
			return nil
		})
	}()

	testkit.Eventually(t, time.Second, func() bool { return seen.Load() == 2 })

	// live message after replay
	_ = m.Publish(ctx, "results", []byte("u-3"), []byte(`{"n":3}`))
	testkit.Eventually(t, time.Second, func() bool { return seen.Load() == 3 })
}

func TestMemory_HandlerErrorDoesNotStopRun(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var seen atomic.Int32
	c := m.Subscribe("results")
	go func() {
		_ = c.Run(ctx, func(ctx context.Context, msg Message) error {
			seen.Add(1)
			return context.DeadlineExceeded // arbitrary handler error
		})
	}()

	_ = m.Publish(ctx, "results", nil, []byte("a"))
	_ = m.Publish(ctx, "results", nil, []byte("b"))
	testkit.Eventually(t, time.Second, func() bool { return seen.Load() == 2 })
}

func TestMemory_StuckSubscriberDoesNotBlockPublish(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	// subscriber exists but never runs, its buffer eventually fills
	_ = m.Subscribe("results")

	done := make(chan struct{})
	go func() {
		for i := 0; i < 400; i++ {
			_ = m.Publish(ctx, "results", nil, []byte("x"))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a stuck subscriber")
	}
	if got := len(m.Messages("results")); got != 400 {
		t.Fatalf("log len = %d, want 400", got)
	}

	// a fresh subscriber still replays the whole backlog
	var seen atomic.Int32
	c := m.Subscribe("results")
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		_ = c.Run(runCtx, func(context.Context, Message) error {
			seen.Add(1)
			return nil
		})
	}()
	testkit.Eventually(t, 2*time.Second, func() bool { return seen.Load() == 400 })
}

func TestMemory_MessagesSnapshot(t *testing.T) {
	m := NewMemory()
	_ = m.Publish(context.Background(), "work", []byte("k"), []byte("v"))
	got := m.Messages("work")
	if len(got) != 1 || string(got[0].Key) != "k" || got[0].Offset != 0 {
		t.Fatalf("messages = %+v", got)
	}
	if len(m.Messages("other")) != 0 {
		t.Fatal("unknown topic should be empty")
	}
}
