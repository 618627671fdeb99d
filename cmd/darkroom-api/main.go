// @title         Darkroom API
// @version       0.1.0
// @description   Projects and image upload endpoints

package main

import (
	"context"
	"os/signal"
	"syscall"

	"darkroom/internal/platform/bus"
	"darkroom/internal/platform/config"
	"darkroom/internal/platform/logger"
	phttp "darkroom/internal/platform/net/http"
	"darkroom/internal/platform/store"

	"darkroom/internal/modkit/module"
	"darkroom/internal/services/api"
	projectsmod "darkroom/internal/services/projects/module"
)

func main() {
	root := config.New().Prefix("DARKROOM_")
	apiCfg := root.Prefix("CORE_API_")
	pgCfg := root.Prefix("SERVICE_PGSQL_")

	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(
		ctx,
		store.Config{
			AppName: "darkroom-api",
			PG: store.PGConfig{
				Enabled:     true,
				URL:         pgCfg.MustString("DBURL"),
				MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
				SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
				LogSQL:      pgCfg.MayBool("LOG_SQL", false),
			},
		},
		store.WithLogger(*logger.Get()),
	)
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	pub := bus.NewKafkaPublisher(bus.FromConf(root))
	defer func() {
		if err := pub.Close(); err != nil {
			l.Error().Err(err).Msg("failed to close publisher")
		}
	}()

	srv := phttp.NewServer(apiCfg)

	mounted := api.Mount(
		srv.Router(),
		api.Options{
			Config:         root,
			Store:          st,
			Logger:         l,
			Bus:            pub,
			EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
			EnableProfiler: apiCfg.MayBool("PROFILER", false),
		},
	)

	// the results applier moves image rows as the worker tier finishes jobs
	applier := module.MustPortsOf[projectsmod.Ports](mounted.Projects).Applier
	go func() {
		if err := applier.Run(ctx); err != nil {
			l.Error().Err(err).Msg("results applier stopped")
			stop()
		}
	}()

	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
