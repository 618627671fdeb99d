// Package registry tracks the single live notification channel per user.
// It is the routing table between the event consumer and connected clients
package registry

import (
	"hash/fnv"
	"sync"

	"darkroom/internal/platform/logger"
)

// Channel is the delivery seam a live connection implements.
// Send must be safe to call concurrently with Close
type Channel interface {
	Send(payload []byte) error
	Close() error
}

// Outcome reports what happened to one Send
type Outcome int

const (
	// Delivered means the payload was handed to the channel
	Delivered Outcome = iota
	// NoActiveChannel means the user has no live connection, the payload is dropped
	NoActiveChannel
	// SendFailed means the channel errored and has been unregistered
	SendFailed
)

// String returns the outcome label used in logs and audit rows
func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case NoActiveChannel:
		return "no_active_channel"
	case SendFailed:
		return "send_failed"
	default:
		return "unknown"
	}
}

const shardCount = 32

type shard struct {
	mu    sync.RWMutex
	conns map[string]Channel
}

// Registry is a sharded map from user id to exactly one Channel
type Registry struct {
	shards [shardCount]shard
	log    *logger.Logger
}

// New builds an empty registry
func New() *Registry {
	r := &Registry{log: logger.Named("registry")}
	for i := range r.shards {
		r.shards[i].conns = make(map[string]Channel)
	}
	return r
}

func (r *Registry) shardFor(userID string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return &r.shards[h.Sum32()%shardCount]
}

// Register installs ch as the user's channel, last handshake wins.
// A displaced previous channel is closed and returned so callers can observe it
func (r *Registry) Register(userID string, ch Channel) (displaced Channel) {
	s := r.shardFor(userID)
	s.mu.Lock()
	old := s.conns[userID]
	s.conns[userID] = ch
	s.mu.Unlock()

	if old != nil && old != ch {
		_ = old.Close()
		r.log.Debug().Str("user_id", userID).Msg("displaced previous channel")
		return old
	}
	return nil
}

// Unregister removes the mapping only if it still points at ch.
// The compare guards a disconnecting old channel against erasing a
// newer connection that replaced it
func (r *Registry) Unregister(userID string, ch Channel) bool {
	s := r.shardFor(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.conns[userID]; ok && cur == ch {
		delete(s.conns, userID)
		return true
	}
	return false
}

// Lookup returns the user's live channel if present
func (r *Registry) Lookup(userID string) (Channel, bool) {
	s := r.shardFor(userID)
	s.mu.RLock()
	ch, ok := s.conns[userID]
	s.mu.RUnlock()
	return ch, ok
}

// Send routes payload to the user's channel.
// The send happens outside the shard lock so a slow channel cannot block
// the shard. A failed channel is unregistered under the same compare
// guard as Unregister and closed
func (r *Registry) Send(userID string, payload []byte) Outcome {
	ch, ok := r.Lookup(userID)
	if !ok {
		return NoActiveChannel
	}
	if err := ch.Send(payload); err != nil {
		if r.Unregister(userID, ch) {
			_ = ch.Close()
		}
		r.log.Warn().Err(err).Str("user_id", userID).Msg("send failed, channel dropped")
		return SendFailed
	}
	return Delivered
}

// Len reports the number of live channels across all shards
func (r *Registry) Len() int {
	n := 0
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.RLock()
		n += len(s.conns)
		s.mu.RUnlock()
	}
	return n
}

// CloseAll closes and removes every channel, used on shutdown
func (r *Registry) CloseAll() {
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.Lock()
		for id, ch := range s.conns {
			_ = ch.Close()
			delete(s.conns, id)
		}
		s.mu.Unlock()
	}
}
