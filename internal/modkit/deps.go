package modkit

import (
	"darkroom/internal/modkit/repokit"
	"darkroom/internal/platform/bus"
	"darkroom/internal/platform/config"
	"darkroom/internal/platform/logger"
	"darkroom/internal/platform/store"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	CH  store.Clickhouse
	Bus bus.Publisher
}

// ZeroOK returns true when deps are safe to use with zero values in tests
// consumers should still nil check for optional seams
func (d Deps) ZeroOK() bool { return true }
