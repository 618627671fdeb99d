package bus

import (
	"time"

	"darkroom/internal/platform/config"
)

// Config carries broker connectivity shared by producers and consumers
type Config struct {
	Brokers []string
	// ClientID tags connections for broker-side metrics
	ClientID string

	// consumer knobs
	MinBytes int
	MaxBytes int
	MaxWait  time.Duration
}

// FromConf reads broker settings under the conf prefix.
// BUS_BROKERS is required, the rest have defaults
func FromConf(cfg config.Conf) Config {
	return Config{
		Brokers:  cfg.MayCSV("BUS_BROKERS", []string{"localhost:9092"}),
		ClientID: cfg.MayString("BUS_CLIENT_ID", "darkroom"),
		MinBytes: cfg.MayInt("BUS_MIN_BYTES", 1),
		MaxBytes: cfg.MayInt("BUS_MAX_BYTES", 10<<20),
		MaxWait:  cfg.MayDuration("BUS_MAX_WAIT", 500*time.Millisecond),
	}
}
