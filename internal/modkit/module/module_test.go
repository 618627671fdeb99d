package module

import (
	"testing"

	phttp "darkroom/internal/platform/net/http"
)

type notifier interface{ Notify(string) }

type fakeNotifier struct{ last string }

func (f *fakeNotifier) Notify(s string) { f.last = s }

type fakeModule struct {
	name  string
	ports any
}

func (m fakeModule) MountRoutes(phttp.Router) {}
func (m fakeModule) Ports() any               { return m.ports }
func (m fakeModule) Name() string             { return m.name }

func TestPortsOf_Direct(t *testing.T) {
	n := &fakeNotifier{}
	m := fakeModule{name: "notify", ports: n}
	got, ok := PortsOf[notifier](m)
	if !ok {
		t.Fatal("direct port not found")
	}
	got.Notify("hi")
	if n.last != "hi" {
		t.Fatal("wrong port returned")
	}
}

func TestPortsOf_StructField(t *testing.T) {
	type bundle struct {
		Notifier notifier
		Extra    int
	}
	n := &fakeNotifier{}
	m := fakeModule{name: "notify", ports: bundle{Notifier: n}}
	if _, ok := PortsOf[notifier](m); !ok {
		t.Fatal("port in struct field not found")
	}
}

func TestPortsOf_Missing(t *testing.T) {
	m := fakeModule{name: "empty"}
	if _, ok := PortsOf[notifier](m); ok {
		t.Fatal("nil ports should not match")
	}
}

func TestMustPortsOf_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	MustPortsOf[notifier](fakeModule{name: "empty"})
}

func TestRegistry(t *testing.T) {
	t.Cleanup(Reset)

	type ports struct{ V string }
	Register("projects", ports{V: "x"})

	got, ok := PortsAs[ports]("projects")
	if !ok || got.V != "x" {
		t.Fatalf("PortsAs = %+v, %v", got, ok)
	}

	if _, ok := PortsAs[ports]("missing"); ok {
		t.Fatal("missing name should not resolve")
	}

	Reset()
	if _, ok := PortsAs[ports]("projects"); ok {
		t.Fatal("Reset should clear the registry")
	}
}
