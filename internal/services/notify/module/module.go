// Package module wires the notify service and exposes its ports
package module

import (
	"darkroom/internal/core/registry"
	"darkroom/internal/modkit"
	"darkroom/internal/modkit/httpkit"
	"darkroom/internal/platform/bus"
	"darkroom/internal/platform/tokens"
	"darkroom/internal/services/notify/domain"
	notifyhttp "darkroom/internal/services/notify/http"
	"darkroom/internal/services/notify/service"
)

// Ports exposed by the notify module
type Ports struct {
	// Runner is the results consumer loop the host process starts
	Runner domain.RunnerPort
	// Dispatcher lets tests and tooling push a raw payload through routing
	Dispatcher domain.DispatcherPort
	// Registry is the live channel table, shared with the transport
	Registry *registry.Registry
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	name  string
	ports Ports

	register func(httpkit.Router)
}

// New constructs the notify module. The audit writer arrives through
// modkit.WithPorts(domain.Ports{...}) and may be absent
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("notify"),
	}, opts...)...)

	var audit domain.AuditPort
	if p, ok := b.Ports.(domain.Ports); ok {
		audit = p.Audit
	}

	cfg := FromConfig(deps.Cfg)
	if overrides.ResultsTopic != "" {
		cfg.ResultsTopic = overrides.ResultsTopic
	}
	if overrides.Group != "" {
		cfg.Group = overrides.Group
	}
	if overrides.QueueLen != 0 {
		cfg.QueueLen = overrides.QueueLen
	}
	if overrides.WriteTimeout != 0 {
		cfg.WriteTimeout = overrides.WriteTimeout
	}

	reg := registry.New()
	consumer := bus.NewKafkaConsumer(bus.FromConf(deps.Cfg), cfg.Group, cfg.ResultsTopic)
	svc := service.New(reg, consumer, audit, service.Config{
		ResultsTopic: cfg.ResultsTopic,
	})

	verifier := tokens.NewHMAC(deps.Cfg)
	handler := notifyhttp.NewHandler(verifier, reg, notifyhttp.Config{
		QueueLen:     cfg.QueueLen,
		WriteTimeout: cfg.WriteTimeout,
	})

	m := &Module{deps: deps, name: b.Name}
	m.ports = Ports{
		Runner:     svc,
		Dispatcher: svc,
		Registry:   reg,
	}

	external := b.Register
	m.register = func(r httpkit.Router) {
		handler.Mount(r)
		if external != nil {
			external(r)
		}
	}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return m.name }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix satisfies modkit.Module, the endpoint lives at the router root
func (m *Module) Prefix() string { return "" }

// MountRoutes mounts the websocket notifications endpoint
func (m *Module) MountRoutes(r httpkit.Router) {
	m.register(r)
}
