// Package module wires the projects service and exposes its ports
package module

import (
	"net/http"

	"darkroom/internal/modkit"
	"darkroom/internal/modkit/httpkit"
	"darkroom/internal/platform/bus"
	"darkroom/internal/services/projects/blob"
	"darkroom/internal/services/projects/domain"
	projectshttp "darkroom/internal/services/projects/http"
	"darkroom/internal/services/projects/repo"
	"darkroom/internal/services/projects/service"
)

// Ports exposed by the projects module
type Ports struct {
	Projects domain.ProjectsPort
	// Applier is the results consumer loop the host process starts
	Applier domain.ApplierPort
}

// Module implements modkit.Module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws       []func(http.Handler) http.Handler
	ports     Ports
	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	svc domain.ProjectsPort
}

// New constructs the projects module
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("projects"),
		modkit.WithPrefix("/projects"),
	}, opts...)...)

	cfg := FromConfig(deps.Cfg)
	if overrides.BlobDir != "" {
		cfg.BlobDir = overrides.BlobDir
	}
	if overrides.WorkTopic != "" {
		cfg.WorkTopic = overrides.WorkTopic
	}
	if overrides.ResultsTopic != "" {
		cfg.ResultsTopic = overrides.ResultsTopic
	}
	if overrides.Group != "" {
		cfg.Group = overrides.Group
	}
	if overrides.MaxUploadBytes != 0 {
		cfg.MaxUploadBytes = overrides.MaxUploadBytes
	}

	store, err := blob.NewLocalDir(cfg.BlobDir)
	if err != nil {
		panic(err)
	}

	consumer := bus.NewKafkaConsumer(bus.FromConf(deps.Cfg), cfg.Group, cfg.ResultsTopic)
	svc := service.New(deps.PG, repo.NewPG(), store, deps.Bus, consumer, service.Config{
		WorkTopic:      cfg.WorkTopic,
		ResultsTopic:   cfg.ResultsTopic,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		subrouter: b.Subrouter,
		svc:       svc,
	}
	m.ports = Ports{
		Projects: svc,
		Applier:  svc,
	}

	external := b.Register
	m.register = func(r httpkit.Router) {
		projectshttp.Register(r, m.svc)
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

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return m.prefix }

// MountRoutes mounts the project endpoints under the module prefix
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		m.register(rr)
	})
}
