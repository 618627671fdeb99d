package registry

import (
	stderrs "errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

// fakeChannel records sends and close calls
type fakeChannel struct {
	id      string
	sendErr error
	sent    [][]byte
	closed  atomic.Bool
	mu      sync.Mutex
}

func (c *fakeChannel) Send(p []byte) error {
	if c.sendErr != nil {
		return c.sendErr
	}
	c.mu.Lock()
	c.sent = append(c.sent, p)
	c.mu.Unlock()
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed.Store(true)
	return nil
}

func TestRegister_LastWins(t *testing.T) {
	r := New()
	first := &fakeChannel{id: "first"}
	second := &fakeChannel{id: "second"}

	if displaced := r.Register("u-1", first); displaced != nil {
		t.Fatal("first register should displace nothing")
	}
	if displaced := r.Register("u-1", second); displaced != first {
		t.Fatalf("displaced = %v, want first", displaced)
	}
	if !first.closed.Load() {
		t.Fatal("displaced channel must be closed")
	}

	got, ok := r.Lookup("u-1")
	if !ok || got != second {
		t.Fatal("newest channel must win")
	}
	if r.Len() != 1 {
		t.Fatalf("Len = %d", r.Len())
	}
}

func TestRegister_SameChannelIsNoop(t *testing.T) {
	r := New()
	ch := &fakeChannel{}
	r.Register("u-1", ch)
	if displaced := r.Register("u-1", ch); displaced != nil {
		t.Fatal("re-registering the same channel should not displace it")
	}
	if ch.closed.Load() {
		t.Fatal("channel must not be closed by its own re-register")
	}
}

func TestUnregister_CompareAndRemove(t *testing.T) {
	r := New()
	old := &fakeChannel{id: "old"}
	r.Register("u-1", old)

	// a new handshake replaces the channel
	fresh := &fakeChannel{id: "new"}
	r.Register("u-1", fresh)

	// the old connection's deferred cleanup must not evict the new one
	if r.Unregister("u-1", old) {
		t.Fatal("stale unregister must be a no-op")
	}
	if _, ok := r.Lookup("u-1"); !ok {
		t.Fatal("new channel was evicted by stale unregister")
	}

	if !r.Unregister("u-1", fresh) {
		t.Fatal("matching unregister should remove")
	}
	if _, ok := r.Lookup("u-1"); ok {
		t.Fatal("channel still present after unregister")
	}
}

func TestSend_Outcomes(t *testing.T) {
	r := New()

	if got := r.Send("ghost", []byte("x")); got != NoActiveChannel {
		t.Fatalf("no channel: %v", got)
	}

	ok := &fakeChannel{}
	r.Register("u-1", ok)
	if got := r.Send("u-1", []byte("hello")); got != Delivered {
		t.Fatalf("delivered: %v", got)
	}
	if len(ok.sent) != 1 || string(ok.sent[0]) != "hello" {
		t.Fatalf("sent = %v", ok.sent)
	}

	bad := &fakeChannel{sendErr: stderrs.New("broken pipe")}
	r.Register("u-2", bad)
	if got := r.Send("u-2", []byte("x")); got != SendFailed {
		t.Fatalf("failed: %v", got)
	}
	if _, found := r.Lookup("u-2"); found {
		t.Fatal("failed channel must be unregistered")
	}
	if !bad.closed.Load() {
		t.Fatal("failed channel must be closed")
	}

	// the very next message is a clean drop
	if got := r.Send("u-2", []byte("y")); got != NoActiveChannel {
		t.Fatalf("after failure: %v", got)
	}
}

func TestSendFailed_DoesNotEvictReplacement(t *testing.T) {
	r := New()
	bad := &fakeChannel{sendErr: stderrs.New("dead")}
	r.Register("u-1", bad)

	// replacement lands between lookup and the failure cleanup in real races;
	// simulate by unregistering bad and installing fresh before Send's cleanup runs
	fresh := &fakeChannel{}
	ch, _ := r.Lookup("u-1")
	r.Register("u-1", fresh)

	// failing send on the stale handle must not remove fresh
	if err := ch.Send([]byte("x")); err == nil {
		t.Fatal("expected send error")
	}
	if r.Unregister("u-1", ch) {
		t.Fatal("stale cleanup removed the replacement")
	}
	if got, okk := r.Lookup("u-1"); !okk || got != fresh {
		t.Fatal("replacement lost")
	}
}

func TestOutcomeString(t *testing.T) {
	cases := map[Outcome]string{
		Delivered:       "delivered",
		NoActiveChannel: "no_active_channel",
		SendFailed:      "send_failed",
		Outcome(99):     "unknown",
	}
	for o, want := range cases {
		if o.String() != want {
			t.Fatalf("%d.String() = %q", o, o.String())
		}
	}
}

func TestCloseAll(t *testing.T) {
	r := New()
	chans := make([]*fakeChannel, 10)
	for i := range chans {
		chans[i] = &fakeChannel{}
		r.Register(fmt.Sprintf("u-%d", i), chans[i])
	}
	r.CloseAll()
	if r.Len() != 0 {
		t.Fatalf("Len after CloseAll = %d", r.Len())
	}
	for i, c := range chans {
		if !c.closed.Load() {
			t.Fatalf("channel %d not closed", i)
		}
	}
}

func TestConcurrentRegisterSendUnregister(t *testing.T) {
	r := New()
	const users = 64
	const rounds = 50

	var wg sync.WaitGroup
	for u := 0; u < users; u++ {
		id := fmt.Sprintf("u-%d", u)
		wg.Add(3)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				r.Register(id, &fakeChannel{})
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				r.Send(id, []byte("m"))
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				if ch, ok := r.Lookup(id); ok {
					r.Unregister(id, ch)
				}
			}
		}()
	}
	wg.Wait()

	// registry must stay internally consistent
	if n := r.Len(); n < 0 || n > users {
		t.Fatalf("Len = %d", n)
	}
}
