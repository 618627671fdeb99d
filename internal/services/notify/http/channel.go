package http

import (
	"sync"
	"time"

	perr "darkroom/internal/platform/errors"
	"darkroom/internal/platform/logger"

	"golang.org/x/net/websocket"
)

// wsChannel adapts one websocket connection to registry.Channel.
// Frames are queued and drained by a single writer goroutine so a stuck
// client blocks only its own queue, never the dispatcher
type wsChannel struct {
	conn         *websocket.Conn
	queue        chan []byte
	done         chan struct{}
	closeOnce    sync.Once
	writeTimeout time.Duration
	log          *logger.Logger
}

func newChannel(conn *websocket.Conn, queueLen int, writeTimeout time.Duration, log *logger.Logger) *wsChannel {
	return &wsChannel{
		conn:         conn,
		queue:        make(chan []byte, queueLen),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
		log:          log,
	}
}

// Send enqueues one frame. A full queue or a closed channel is a send
// failure; the registry treats either as an implicit disconnect.
// Safe to call concurrently with Close
func (c *wsChannel) Send(payload []byte) error {
	select {
	case <-c.done:
		return perr.Unavailablef("channel closed")
	default:
	}
	select {
	case c.queue <- payload:
		return nil
	case <-c.done:
		return perr.Unavailablef("channel closed")
	default:
		return perr.Unavailablef("channel queue full")
	}
}

// Close tears down the transport. Idempotent
func (c *wsChannel) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
	return nil
}

// writeLoop is the only goroutine that touches the socket for writes.
// A failed or timed-out write closes the channel; the next registry send
// then fails and evicts it
func (c *wsChannel) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case p := <-c.queue:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := websocket.Message.Send(c.conn, string(p)); err != nil {
				c.log.Debug().Err(err).Msg("socket write failed")
				_ = c.Close()
				return
			}
		}
	}
}
