package module

import (
	"time"

	"darkroom/internal/platform/config"
)

// Options controls the notify service
type Options struct {
	ResultsTopic string
	Group        string
	QueueLen     int
	WriteTimeout time.Duration
}

// FromConfig reads with NOTIFY_ prefix
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("NOTIFY_")
	return Options{
		ResultsTopic: c.MayString("TOPIC_RESULTS", "darkroom.results"),
		Group:        c.MayString("GROUP", "darkroom-notify"),
		QueueLen:     c.MayInt("CHANNEL_QUEUE", 16),
		WriteTimeout: c.MayDuration("WRITE_TIMEOUT", 5*time.Second),
	}
}
