package atom

import (
	"testing"
)

// recorder collects delivered changes.
type recorder struct {
	changes []Change
}

func (r *recorder) observe(c Change) error {
	r.changes = append(r.changes, c)
	return nil
}

func newClass(t *testing.T, name string, members ...*Member) *Class {
	t.Helper()
	c, err := NewClass(name, members...)
	if err != nil {
		t.Fatalf("NewClass(%s) error = %v", name, err)
	}
	return c
}

func newAtom(t *testing.T, c *Class, opts ...Option) *Atom {
	t.Helper()
	a, err := New(c, opts...)
	if err != nil {
		t.Fatalf("New(%s) error = %v", c.Name(), err)
	}
	return a
}

func mustGet(t *testing.T, a *Atom, name string) any {
	t.Helper()
	v, err := a.Get(name)
	if err != nil {
		t.Fatalf("Get(%q) error = %v", name, err)
	}
	return v
}

func mustSet(t *testing.T, a *Atom, name string, v any) {
	t.Helper()
	if err := a.Set(name, v); err != nil {
		t.Fatalf("Set(%q, %v) error = %v", name, v, err)
	}
}

func intp(v int) *int { return &v }

func floatp(v float64) *float64 { return &v }
