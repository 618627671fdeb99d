package module

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"darkroom/internal/modkit"
	"darkroom/internal/platform/config"
	phttp "darkroom/internal/platform/net/http"
	"darkroom/internal/services/notify/domain"

	"github.com/go-chi/chi/v5"
)

type recordingAudit struct {
	mu   sync.Mutex
	recs []domain.DeliveryRecord
}

func (a *recordingAudit) Record(_ context.Context, rec domain.DeliveryRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recs = append(a.recs, rec)
	return nil
}

func newModule(t *testing.T, opts ...modkit.Option) *Module {
	t.Helper()
	t.Setenv("JWT_SECRET", "module-test-secret")
	return New(modkit.Deps{Cfg: config.New()}, Options{}, opts...)
}

func TestNew_PortsExposed(t *testing.T) {
	m := newModule(t)
	if m.Name() != "notify" {
		t.Fatalf("name = %q", m.Name())
	}
	ports, ok := m.Ports().(Ports)
	if !ok || ports.Runner == nil || ports.Dispatcher == nil || ports.Registry == nil {
		t.Fatalf("ports = %+v", m.Ports())
	}
}

// the audit writer travels in through modkit.WithPorts and must reach
// the dispatcher
func TestNew_AuditInjectedViaPorts(t *testing.T) {
	audit := &recordingAudit{}
	m := newModule(t, modkit.WithPorts(domain.Ports{Audit: audit}))

	payload, _ := json.Marshal(domain.ResultEvent{JobID: "7", OwnerID: "42", Status: domain.StatusDone})
	ports := m.Ports().(Ports)
	if err := ports.Dispatcher.Dispatch(context.Background(), payload); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	audit.mu.Lock()
	defer audit.mu.Unlock()
	if len(audit.recs) != 1 || audit.recs[0].Outcome != "no_active_channel" {
		t.Fatalf("audit = %+v", audit.recs)
	}
}

// no injected ports means log-only outcomes, not a panic
func TestNew_MissingAuditTolerated(t *testing.T) {
	m := newModule(t)
	payload, _ := json.Marshal(domain.ResultEvent{JobID: "7", OwnerID: "42", Status: domain.StatusDone})
	if err := m.Ports().(Ports).Dispatcher.Dispatch(context.Background(), payload); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
}

func TestMountRoutes_RejectsAnonymous(t *testing.T) {
	m := newModule(t)

	mux := chi.NewRouter()
	m.MountRoutes(phttp.AdaptChi(mux))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/notifications", nil))
	if rec.Code != stdhttp.StatusUnauthorized {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
}
