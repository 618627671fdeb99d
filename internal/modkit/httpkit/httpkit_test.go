package httpkit

import (
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perrs "darkroom/internal/platform/errors"
	pnet "darkroom/internal/platform/net"

	"github.com/go-chi/chi/v5"

	phttp "darkroom/internal/platform/net/http"
)

func TestPort_Parse(t *testing.T) {
	p := NewPortFunc(func(tok string) (string, string, error) {
		if tok != "good" {
			return "", "", perrs.Unauthorizedf("nope")
		}
		return "u-1", "ana@darkroom.io", nil
	})

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer good")
	uid, sub, err := p.Parse(r)
	if err != nil || uid != "u-1" || sub != "ana@darkroom.io" {
		t.Fatalf("Parse = %q %q %v", uid, sub, err)
	}

	// case-insensitive scheme
	r.Header.Set("Authorization", "bearer good")
	if _, _, err := p.Parse(r); err != nil {
		t.Fatalf("lowercase bearer rejected: %v", err)
	}

	for _, h := range []string{"", "Basic abc", "Bearer ", "Bearer bad"} {
		r := httptest.NewRequest("GET", "/", nil)
		if h != "" {
			r.Header.Set("Authorization", h)
		}
		if _, _, err := p.Parse(r); !perrs.IsCode(err, perrs.ErrorCodeUnauthorized) {
			t.Fatalf("header %q: err = %v", h, err)
		}
	}
}

func TestJWT_Extraction(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer abc.def.ghi")
	raw, err := JWT(r)
	if err != nil || raw != "abc.def.ghi" {
		t.Fatalf("JWT = %q, %v", raw, err)
	}

	r = httptest.NewRequest("GET", "/", nil)
	if _, err := JWT(r); err == nil {
		t.Fatal("missing header should fail")
	}
}

func TestUser_FromContext(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	if _, err := User(r); !perrs.IsCode(err, perrs.ErrorCodeUnauthorized) {
		t.Fatalf("anonymous request: %v", err)
	}

	r = r.WithContext(pnet.WithIdentity(r.Context(), "u-5", "s"))
	uid, err := User(r)
	if err != nil || uid != "u-5" {
		t.Fatalf("User = %q, %v", uid, err)
	}
	if MustUser(r) != "u-5" || Subject(r) != "s" {
		t.Fatal("MustUser/Subject mismatch")
	}
}

func TestJSON_PassesResponseThrough(t *testing.T) {
	type in struct {
		Name string `json:"name"`
	}
	h := JSON(func(r *stdhttp.Request, body in) (any, error) {
		return Created(map[string]string{"name": body.Name}), nil
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"x"}`)))
	if rec.Code != stdhttp.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestProtected_BlocksAnonymous(t *testing.T) {
	m := chi.NewRouter()
	r := phttp.AdaptChi(m)

	port := NewPortFunc(func(tok string) (string, string, error) {
		if tok != "ok" {
			return "", "", perrs.Unauthorizedf("bad token")
		}
		return "u-1", "s", nil
	})

	Protected(r, port, func(pr Router) {
		Get(pr, "/me", func(req *stdhttp.Request) (any, error) {
			return map[string]string{"user": MustUser(req)}, nil
		})
	})

	// anonymous
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest("GET", "/me", nil))
	if rec.Code != stdhttp.StatusUnauthorized {
		t.Fatalf("anonymous = %d", rec.Code)
	}

	// authorized
	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer ok")
	rec = httptest.NewRecorder()
	m.ServeHTTP(rec, req)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("authorized = %d body=%s", rec.Code, rec.Body.String())
	}
	var env Envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	data, _ := env.Data.(map[string]any)
	if data["user"] != "u-1" {
		t.Fatalf("data = %+v", env.Data)
	}
}

func TestMountAPIV1(t *testing.T) {
	m := chi.NewRouter()
	r := phttp.AdaptChi(m)

	MountAPIV1(r, nil, func(api Router) {
		Get(api, "/ping", func(*stdhttp.Request) (any, error) { return "pong", nil })
	})

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/ping", nil))
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
