package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/seanpm2001/atom/internal/atom"
	"github.com/seanpm2001/atom/internal/decl"
	"github.com/seanpm2001/atom/internal/schema"
)

func newInstrumentedAtom(t *testing.T, c *Collector) *atom.Atom {
	t.Helper()
	point, err := decl.Class("Point", decl.Int("x", 0), decl.List("tags", nil))
	if err != nil {
		t.Fatalf("Class error = %v", err)
	}
	reg := atom.NewRegistry(atom.WithRegistryInstrumentation(c))
	if err := reg.Register(point); err != nil {
		t.Fatalf("Register error = %v", err)
	}
	a, err := reg.New("Point")
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	return a
}

func TestCollector_RuntimeMetrics(t *testing.T) {
	c := New(prometheus.NewRegistry(), "test")
	a := newInstrumentedAtom(t, c)

	if _, err := a.Observe("x", func(atom.Change) error { return nil }); err != nil {
		t.Fatalf("Observe error = %v", err)
	}
	if err := a.Set("x", 1); err != nil {
		t.Fatalf("Set error = %v", err)
	}
	if err := a.Set("x", 2); err != nil {
		t.Fatalf("Set error = %v", err)
	}
	if err := a.Set("x", "bad"); !errors.Is(err, atom.ErrValidation) {
		t.Fatalf("Set(bad) error = %v, want ErrValidation", err)
	}

	tests := []struct {
		name   string
		metric prometheus.Collector
		want   float64
	}{
		{"create", c.WritesTotal.WithLabelValues("Point", "x", "create"), 1},
		{"update", c.WritesTotal.WithLabelValues("Point", "x", "update"), 1},
		{"validation", c.ValidationFailuresTotal.WithLabelValues("Point", "x"), 1},
		{"notified", c.ObserversNotifiedTotal.WithLabelValues("Point", "x"), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := testutil.ToFloat64(tt.metric); got != tt.want {
				t.Errorf("value = %v, want %v", got, tt.want)
			}
		})
	}

	if n := testutil.CollectAndCount(c.NotifyDurationSeconds); n != 1 {
		t.Errorf("notify duration series = %d, want 1", n)
	}
}

func TestCollector_ContainerWrites(t *testing.T) {
	c := New(prometheus.NewRegistry(), "")
	a := newInstrumentedAtom(t, c)

	v, err := a.Get("tags")
	if err != nil {
		t.Fatalf("Get error = %v", err)
	}
	if err := v.(*atom.List).Append("a"); err != nil {
		t.Fatalf("Append error = %v", err)
	}

	got := testutil.ToFloat64(c.WritesTotal.WithLabelValues("Point", "tags", "container-insert"))
	if got != 1 {
		t.Errorf("container-insert writes = %v, want 1", got)
	}
}

func TestCollector_ObserverFailures(t *testing.T) {
	c := New(prometheus.NewRegistry(), "test")
	a := newInstrumentedAtom(t, c)

	h, err := a.Observe("x", func(atom.Change) error { return errors.New("boom") })
	if err != nil {
		t.Fatalf("Observe error = %v", err)
	}
	if err := a.Set("x", 1); !errors.Is(err, atom.ErrObserver) {
		t.Fatalf("Set error = %v, want ErrObserver", err)
	}
	a.Unobserve(h)

	if _, err := a.Observe("x", func(atom.Change) error { panic("kaboom") }); err != nil {
		t.Fatalf("Observe error = %v", err)
	}
	if err := a.Set("x", 2); !errors.Is(err, atom.ErrObserver) {
		t.Fatalf("Set error = %v, want ErrObserver", err)
	}

	if got := testutil.ToFloat64(c.ObserverFailuresTotal.WithLabelValues("Point", "x", "error")); got != 1 {
		t.Errorf("error failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.ObserverFailuresTotal.WithLabelValues("Point", "x", "panic")); got != 1 {
		t.Errorf("panic failures = %v, want 1", got)
	}
}

func TestCollector_RecordReload(t *testing.T) {
	c := New(prometheus.NewRegistry(), "test")

	c.RecordReload(&schema.LoadResult{Added: []string{"A", "B"}, Replaced: []string{"C"}}, nil)
	c.RecordReload(nil, errors.New("parse error"))

	if got := testutil.ToFloat64(c.ReloadsTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("successful reloads = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.ReloadsTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("failed reloads = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.ClassesLoaded); got != 3 {
		t.Errorf("classes loaded = %v, want 3", got)
	}
}

func TestNew_RegistersWithRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg, "test")
	c.ReloadsTotal.WithLabelValues("success").Inc()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error = %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "test_schema_reloads_total" {
			found = true
		}
	}
	if !found {
		t.Error("test_schema_reloads_total not registered")
	}

	defer func() {
		if recover() == nil {
			t.Error("registering twice should panic")
		}
	}()
	New(reg, "test")
}
