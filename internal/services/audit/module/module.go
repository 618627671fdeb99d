// Package module wires the audit sink and exposes its writer port
package module

import (
	"darkroom/internal/modkit"
	"darkroom/internal/modkit/httpkit"
	"darkroom/internal/services/audit/service"
	notifydomain "darkroom/internal/services/notify/domain"
)

// Ports exposed by the audit module
type Ports struct {
	// Writer is nil when ClickHouse is not configured
	Writer notifydomain.AuditPort
}

// Module defines the audit module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the audit module. With no CH handle the writer port stays
// nil and dispatch outcomes are only logged
func New(deps modkit.Deps) *Module {
	m := &Module{deps: deps}
	if deps.CH != nil {
		m.ports.Writer = service.New(deps.CH)
	}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "audit" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix satisfies modkit.Module
func (m *Module) Prefix() string { return "" }

// MountRoutes satisfies modkit.Module, the sink has no HTTP surface
func (m *Module) MountRoutes(httpkit.Router) {}
