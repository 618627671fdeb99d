package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"darkroom/internal/core/registry"
	"darkroom/internal/platform/bus"
	phttp "darkroom/internal/platform/net/http"
	"darkroom/internal/platform/testkit"
	"darkroom/internal/platform/tokens"
	"darkroom/internal/services/notify/domain"
	notifysvc "darkroom/internal/services/notify/service"

	"github.com/go-chi/chi/v5"
	"golang.org/x/net/websocket"
)

const secret = "handshake-test-secret"

func newServer(t *testing.T) (*httptest.Server, *registry.Registry) {
	t.Helper()
	reg := registry.New()
	h := NewHandler(tokens.NewHMACStatic(secret), reg, Config{QueueLen: 16, WriteTimeout: time.Second})

	mux := chi.NewRouter()
	h.Mount(phttp.AdaptChi(mux))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, reg
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/notifications?token=" + token
	conn, err := websocket.Dial(wsURL, "", srv.URL)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitFor(t *testing.T, cond func() bool, _ string) {
	t.Helper()
	testkit.Eventually(t, 2*time.Second, cond)
}

func TestHandshake_RejectedBeforeUpgrade(t *testing.T) {
	srv, reg := newServer(t)

	expired, err := tokens.Sign(secret, "42", "ana@example.com", -time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	cases := map[string]string{
		"missing token":   srv.URL + "/notifications",
		"malformed token": srv.URL + "/notifications?token=not.a.jwt",
		"expired token":   srv.URL + "/notifications?token=" + expired,
	}
	for name, url := range cases {
		t.Run(name, func(t *testing.T) {
			resp, err := stdhttp.Get(url)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != stdhttp.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", resp.StatusCode)
			}
			// no channel is ever observable for a rejected attempt
			if reg.Len() != 0 {
				t.Fatalf("registry len = %d", reg.Len())
			}
		})
	}
}

func TestHandshake_AdmitsAndDelivers(t *testing.T) {
	srv, reg := newServer(t)

	tok, err := tokens.Sign(secret, "42", "ana@example.com", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	conn := dial(t, srv, tok)

	waitFor(t, func() bool { _, ok := reg.Lookup("42"); return ok }, "registration")

	frame, _ := json.Marshal(domain.Frame{Type: domain.FrameTypeProcessingUpdate, JobID: "7", Status: "DONE"})
	if got := reg.Send("42", frame); got != registry.Delivered {
		t.Fatalf("send = %v", got)
	}

	var raw string
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := websocket.Message.Receive(conn, &raw); err != nil {
		t.Fatalf("receive: %v", err)
	}
	var f domain.Frame
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		t.Fatalf("frame decode: %v", err)
	}
	if f.Type != domain.FrameTypeProcessingUpdate || f.JobID != "7" || f.Status != "DONE" {
		t.Fatalf("frame = %+v", f)
	}
}

func TestHandshake_DisconnectUnregisters(t *testing.T) {
	srv, reg := newServer(t)

	tok, _ := tokens.Sign(secret, "42", "ana@example.com", time.Hour)
	conn := dial(t, srv, tok)
	waitFor(t, func() bool { return reg.Len() == 1 }, "registration")

	_ = conn.Close()
	waitFor(t, func() bool { return reg.Len() == 0 }, "unregistration")

	if _, ok := reg.Lookup("42"); ok {
		t.Fatal("lookup after disconnect must be absent")
	}
}

func TestHandshake_SecondConnectionDisplacesFirst(t *testing.T) {
	srv, reg := newServer(t)

	tok, _ := tokens.Sign(secret, "42", "ana@example.com", time.Hour)

	first := dial(t, srv, tok)
	waitFor(t, func() bool { return reg.Len() == 1 }, "first registration")
	firstCh, _ := reg.Lookup("42")

	second := dial(t, srv, tok)
	waitFor(t, func() bool {
		ch, ok := reg.Lookup("42")
		return ok && ch != firstCh
	}, "displacement")

	if reg.Len() != 1 {
		t.Fatalf("registry len = %d, want 1", reg.Len())
	}

	frame, _ := json.Marshal(domain.Frame{Type: domain.FrameTypeProcessingUpdate, JobID: "9", Status: "DONE"})
	if got := reg.Send("42", frame); got != registry.Delivered {
		t.Fatalf("send = %v", got)
	}

	var raw string
	_ = second.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := websocket.Message.Receive(second, &raw); err != nil {
		t.Fatalf("second receive: %v", err)
	}

	// the displaced connection is closed, its read fails
	var dead string
	_ = first.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := websocket.Message.Receive(first, &dead); err == nil {
		t.Fatal("first connection should be closed")
	}
}

func TestEndToEnd_ResultEventReachesClient(t *testing.T) {
	srv, reg := newServer(t)

	broker := bus.NewMemory()
	svc := notifysvc.New(reg, broker.Subscribe("results"), nil, notifysvc.Config{ResultsTopic: "results"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = svc.Run(ctx) }()

	tok, err := tokens.Sign(secret, "42", "ana@example.com", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	conn := dial(t, srv, tok)
	waitFor(t, func() bool { _, ok := reg.Lookup("42"); return ok }, "registration")

	payload, _ := json.Marshal(domain.ResultEvent{
		JobID: "7", OwnerID: "42", Status: "DONE", ResultLocation: "/processed/x.png",
	})
	if err := broker.Publish(ctx, "results", []byte("42"), payload); err != nil {
		t.Fatalf("publish: %v", err)
	}

	var raw string
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := websocket.Message.Receive(conn, &raw); err != nil {
		t.Fatalf("receive: %v", err)
	}
	var f domain.Frame
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		t.Fatalf("frame decode: %v", err)
	}
	if f.Type != domain.FrameTypeProcessingUpdate || f.JobID != "7" || f.Status != "DONE" {
		t.Fatalf("frame = %+v", f)
	}
}
