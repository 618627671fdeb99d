// Package api composes the darkroom HTTP API from service modules
package api

import (
	"darkroom/internal/platform/bus"
	"darkroom/internal/platform/config"
	"darkroom/internal/platform/logger"
	phttp "darkroom/internal/platform/net/http"
	"darkroom/internal/platform/store"
	"darkroom/internal/platform/tokens"

	"darkroom/internal/modkit"
	"darkroom/internal/modkit/httpkit"
	"darkroom/internal/modkit/module"
	"darkroom/internal/modkit/swaggerkit"

	projectsmod "darkroom/internal/services/projects/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	Bus            bus.Publisher
	EnableSwagger  bool
	EnableProfiler bool
}

// Mounted hands the constructed modules back to the host process so it can
// start their worker loops
type Mounted struct {
	Projects *projectsmod.Module
}

// Mount wires the service modules and their routes onto r
func Mount(r phttp.Router, opt Options) Mounted {
	deps := modkit.Deps{
		Cfg: opt.Config,
		PG:  opt.Store.PG,
		CH:  opt.Store.CH,
		Bus: opt.Bus,
	}

	projects := projectsmod.New(deps, projectsmod.Options{})
	mods := []module.Module{projects}

	verifier := tokens.NewHMAC(opt.Config)
	authPort := httpkit.NewPortFunc(func(tok string) (string, string, error) {
		ident, err := verifier.Verify(tok)
		if err != nil {
			return "", "", err
		}
		return ident.UserID, ident.Subject, nil
	})

	// versioned API with the common middleware stack, every module route
	// behind bearer auth
	httpkit.MountAPIV1(r, httpkit.CommonStack(), func(api httpkit.Router) {
		swaggerkit.Mount(r, opt.EnableSwagger)
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		httpkit.Protected(api, authPort, func(pr httpkit.Router) {
			for _, m := range mods {
				module.Register(m.Name(), m.Ports())
				m.MountRoutes(pr)
			}
		})
	})

	return Mounted{Projects: projects}
}
