// Package service implements the results consumer and dispatcher
package service

import (
	"darkroom/internal/core/registry"
	"darkroom/internal/platform/bus"
	"darkroom/internal/platform/logger"
	"darkroom/internal/services/notify/domain"
)

// Config carries the service knobs
type Config struct {
	// ResultsTopic is the topic the worker tier publishes outcomes to
	ResultsTopic string
}

// Svc routes decoded result events to live channels
type Svc struct {
	cfg      Config
	registry *registry.Registry
	consumer bus.Consumer
	audit    domain.AuditPort
	log      *logger.Logger
}

// New constructs the notify service. audit may be nil when the sink is disabled
func New(reg *registry.Registry, consumer bus.Consumer, audit domain.AuditPort, cfg Config) *Svc {
	return &Svc{
		cfg:      cfg,
		registry: reg,
		consumer: consumer,
		audit:    audit,
		log:      logger.Named("notify"),
	}
}

// Registry exposes the registry for the transport layer
func (s *Svc) Registry() *registry.Registry { return s.registry }
