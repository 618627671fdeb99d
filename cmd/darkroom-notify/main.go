package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"darkroom/internal/platform/config"
	"darkroom/internal/platform/logger"
	phttp "darkroom/internal/platform/net/http"
	"darkroom/internal/platform/net/middleware"
	"darkroom/internal/platform/store"

	"darkroom/internal/modkit"
	auditmod "darkroom/internal/services/audit/module"
	notifydomain "darkroom/internal/services/notify/domain"
	notifymod "darkroom/internal/services/notify/module"
)

func main() {
	root := config.New().Prefix("DARKROOM_")
	notifyCfg := root.Prefix("CORE_NOTIFY_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")

	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// the delivery audit sink is optional, no CH URL means log-only outcomes
	chURL := chCfg.MayString("DBURL", "")
	st, err := store.Open(
		ctx,
		store.Config{
			AppName: "darkroom-notify",
			CH: store.CHConfig{
				Enabled:    chURL != "",
				URL:        chURL,
				ClientRole: "notify",
				ClientTag:  chCfg.MayString("CLIENT_TAG", ""),
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

	deps := modkit.Deps{Cfg: root, CH: st.CH}

	audit := auditmod.New(deps)
	notify := notifymod.New(deps, notifymod.Options{},
		modkit.WithPorts(notifydomain.Ports{
			Audit: audit.Ports().(auditmod.Ports).Writer,
		}),
	)

	srv := phttp.NewServer(notifyCfg)
	r := srv.Router()

	// deliberately no timeout or compression middleware, the endpoint holds
	// long-lived websocket connections
	r.Use(
		middleware.RealIP(),
		middleware.RequestID(),
		middleware.RecoverJSON,
		middleware.AccessLog(middleware.AccessLogOptions{Slow: 500 * time.Millisecond}),
		middleware.Heartbeat("/health"),
	)
	notify.MountRoutes(r)

	ports := notify.Ports().(notifymod.Ports)
	go func() {
		if err := ports.Runner.Run(ctx); err != nil {
			l.Error().Err(err).Msg("results consumer stopped")
			stop()
		}
	}()

	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}

	// drop every live channel before exit
	ports.Registry.CloseAll()
}
