// Package bus provides publish and consume seams over the message broker
package bus

import (
	"context"
	"time"
)

// Message is one record pulled from a topic
type Message struct {
	Topic     string
	Key       []byte
	Value     []byte
	Partition int
	Offset    int64
	Time      time.Time
}

// Handler processes one message. The consumer commits the offset after the
// handler returns, success or not; a returned error is logged, never retried
type Handler func(ctx context.Context, m Message) error

// Publisher is the producer seam services depend on
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
	Close() error
}

// Consumer pulls messages from a single topic within a consumer group
type Consumer interface {
	// Run blocks, dispatching messages to h until ctx is canceled
	Run(ctx context.Context, h Handler) error
	Close() error
}
