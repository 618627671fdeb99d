package http

import (
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	perr "darkroom/internal/platform/errors"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestHandle_OK(t *testing.T) {
	h := Handle(func(r *stdhttp.Request) Response {
		return OK(map[string]string{"name": "prints"})
	})
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.StatusCode != stdhttp.StatusOK || env.Error != "" {
		t.Fatalf("envelope = %+v", env)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("content type = %q", ct)
	}
}

func TestHandle_ErrorMapsStatus(t *testing.T) {
	h := Handle(func(r *stdhttp.Request) Response {
		return Error(perr.NotFoundf("no such project"))
	})
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != stdhttp.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Code != perr.ErrorCodeNotFound || env.Error != "no such project" {
		t.Fatalf("envelope = %+v", env)
	}
}

func TestHandle_NoContentHasEmptyBody(t *testing.T) {
	h := Handle(func(r *stdhttp.Request) Response { return NoContent() })
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest("DELETE", "/", nil))

	if rec.Code != stdhttp.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("204 must not carry a body, got %q", rec.Body.String())
	}
}

func TestHandle_ListCarriesPage(t *testing.T) {
	h := Handle(func(r *stdhttp.Request) Response {
		return List([]string{"a", "b"}, 10, 2, 2)
	})
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest("GET", "/", nil))

	env := decodeEnvelope(t, rec)
	if env.Page == nil || env.Page.Total != 10 || env.Page.Page != 2 || env.Page.PageSize != 2 {
		t.Fatalf("page = %+v", env.Page)
	}
}

func TestHandle_HeaderOverrides(t *testing.T) {
	hdr := stdhttp.Header{}
	hdr.Set("X-Darkroom", "v1")
	h := Handle(func(r *stdhttp.Request) Response {
		return Response{Status: stdhttp.StatusCreated, Body: "ok", Header: hdr}
	})
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest("POST", "/", nil))

	if rec.Code != stdhttp.StatusCreated || rec.Header().Get("X-Darkroom") != "v1" {
		t.Fatalf("status=%d header=%q", rec.Code, rec.Header().Get("X-Darkroom"))
	}
}
