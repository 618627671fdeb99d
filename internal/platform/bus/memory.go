package bus

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process broker used by tests and local development.
// It implements Publisher and hands out per-topic Consumers
type Memory struct {
	mu     sync.Mutex
	topics map[string][]Message
	subs   map[string][]chan Message
	closed bool
}

// NewMemory builds an empty in-process broker
func NewMemory() *Memory {
	return &Memory{
		topics: make(map[string][]Message),
		subs:   make(map[string][]chan Message),
	}
}

// Publish appends the record and fans it out to live subscribers.
// The fan-out happens outside the lock and never blocks: a subscriber
// that stopped draining loses live messages instead of wedging the broker
func (m *Memory) Publish(_ context.Context, topic string, key, value []byte) error {
	m.mu.Lock()
	msg := Message{
		Topic:  topic,
		Key:    append([]byte(nil), key...),
		Value:  append([]byte(nil), value...),
		Offset: int64(len(m.topics[topic])),
		Time:   time.Now(),
	}
	m.topics[topic] = append(m.topics[topic], msg)
	subs := append([]chan Message(nil), m.subs[topic]...)
	m.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- msg:
		default:
		}
	}
	return nil
}

// Close marks the broker closed
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Messages returns a copy of everything published to topic
func (m *Memory) Messages(topic string) []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.topics[topic]...)
}

// Subscribe returns a Consumer over topic. Messages published before the
// consumer runs are replayed first, then live messages stream in
func (m *Memory) Subscribe(topic string) Consumer {
	m.mu.Lock()
	defer m.mu.Unlock()

	// sized past the backlog so the replay below cannot block
	backlog := m.topics[topic]
	ch := make(chan Message, len(backlog)+256)
	for _, msg := range backlog {
		ch <- msg
	}
	m.subs[topic] = append(m.subs[topic], ch)
	return &memConsumer{ch: ch}
}

type memConsumer struct {
	ch chan Message
}

func (c *memConsumer) Run(ctx context.Context, h Handler) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-c.ch:
			// handler errors are swallowed like the broker consumer does
			_ = h(ctx, msg)
		}
	}
}

func (c *memConsumer) Close() error { return nil }
