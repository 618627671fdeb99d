// Package http mounts the authenticated websocket notification endpoint
package http

import (
	stdhttp "net/http"
	"time"

	"darkroom/internal/core/registry"
	perr "darkroom/internal/platform/errors"
	"darkroom/internal/platform/logger"
	phttp "darkroom/internal/platform/net/http"
	"darkroom/internal/platform/tokens"

	"golang.org/x/net/websocket"
)

// Config carries the transport knobs
type Config struct {
	// QueueLen bounds the per-channel outbound queue
	QueueLen int
	// WriteTimeout bounds one socket write
	WriteTimeout time.Duration
}

// Handler admits websocket connections gated by token verification
type Handler struct {
	verifier tokens.Verifier
	reg      *registry.Registry
	cfg      Config
	log      *logger.Logger
}

// NewHandler constructs the notifications endpoint handler
func NewHandler(verifier tokens.Verifier, reg *registry.Registry, cfg Config) *Handler {
	if cfg.QueueLen <= 0 {
		cfg.QueueLen = 16
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	return &Handler{verifier: verifier, reg: reg, cfg: cfg, log: logger.Named("notify.ws")}
}

// Mount attaches the endpoint
func (h *Handler) Mount(r phttp.Router) {
	r.Get("/notifications", h.serve)
}

// serve verifies the token carried in the token query parameter before the
// upgrade. A rejected attempt gets a plain 401 and no channel ever exists
func (h *Handler) serve(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	raw := r.URL.Query().Get("token")
	if raw == "" {
		phttp.RespondError(w, r, perr.Unauthorizedf("missing token"))
		return
	}
	ident, err := h.verifier.Verify(raw)
	if err != nil {
		h.log.Debug().Err(err).Msg("handshake rejected")
		phttp.RespondError(w, r, err)
		return
	}

	srv := websocket.Server{
		// cross-origin browser clients are expected, skip the origin check
		Handshake: func(*websocket.Config, *stdhttp.Request) error { return nil },
		Handler:   func(ws *websocket.Conn) { h.attach(ws, ident) },
	}
	srv.ServeHTTP(w, r)
}

// attach runs for the lifetime of one admitted connection
func (h *Handler) attach(ws *websocket.Conn, ident tokens.Identity) {
	ch := newChannel(ws, h.cfg.QueueLen, h.cfg.WriteTimeout, h.log)
	go ch.writeLoop()

	h.reg.Register(ident.UserID, ch)
	h.log.Info().Str("user_id", ident.UserID).Msg("channel opened")

	// inbound frames are ignored; the read loop only detects disconnect
	for {
		var discard string
		if err := websocket.Message.Receive(ws, &discard); err != nil {
			break
		}
	}

	// guarded: a newer channel for the same user must not be evicted
	h.reg.Unregister(ident.UserID, ch)
	_ = ch.Close()
	h.log.Info().Str("user_id", ident.UserID).Msg("channel closed")
}
