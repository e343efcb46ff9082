package atom

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func newPoint(t *testing.T) *Class {
	t.Helper()
	return newClass(t, "Point",
		NewMember("x", WithDefault(StaticDefault(0)), WithValidate(IntValidator(true))),
		NewMember("y", WithDefault(StaticDefault(0))),
	)
}

func TestAtom_PointEndToEnd(t *testing.T) {
	p := newAtom(t, newPoint(t))
	rec := &recorder{}
	if _, err := p.Observe("x", rec.observe); err != nil {
		t.Fatal(err)
	}

	if got := mustGet(t, p, "x"); got != 0 {
		t.Fatalf("x = %v, want 0", got)
	}

	mustSet(t, p, "x", 5)
	if len(rec.changes) != 1 {
		t.Fatalf("got %d changes, want 1", len(rec.changes))
	}
	c := rec.changes[0]
	if c.Kind != ChangeUpdate || c.Old != 0 || c.New != 5 || c.Name != "x" || c.Object != p {
		t.Errorf("change = %+v, want update 0 -> 5", c)
	}

	mustSet(t, p, "x", 5)
	if len(rec.changes) != 1 {
		t.Errorf("equal write emitted a change, total %d", len(rec.changes))
	}

	err := p.Set("x", "bad")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Set(bad) error = %v, want ErrValidation", err)
	}
	if got := mustGet(t, p, "x"); got != 5 {
		t.Errorf("x = %v after rejected write, want 5", got)
	}
	if len(rec.changes) != 1 {
		t.Errorf("rejected write emitted a change, total %d", len(rec.changes))
	}
}

func TestAtom_WriteToUnsetSlotIsCreate(t *testing.T) {
	p := newAtom(t, newPoint(t))
	rec := &recorder{}
	p.Observe("y", rec.observe)

	mustSet(t, p, "y", 3)
	mustSet(t, p, "y", 4)

	if len(rec.changes) != 2 {
		t.Fatalf("got %d changes, want 2", len(rec.changes))
	}
	if c := rec.changes[0]; c.Kind != ChangeCreate || c.Old != nil || c.New != 3 {
		t.Errorf("first change = %+v, want create nil -> 3", c)
	}
	if c := rec.changes[1]; c.Kind != ChangeUpdate || c.Old != 3 || c.New != 4 {
		t.Errorf("second change = %+v, want update 3 -> 4", c)
	}
}

func TestAtom_RejectedWriteLeavesStateUnchanged(t *testing.T) {
	c := newClass(t, "Guarded",
		NewMember("n", WithValidate(RangeValidator(intp(0), intp(9)))),
		NewMember("s", WithAccess(SignalAccess())),
	)
	a := newAtom(t, c)
	mustSet(t, a, "n", 3)
	a.Observe("n", func(Change) error { return nil })
	a.Connect("s", func(...any) error { return nil })

	beforeSlots := append([]any(nil), a.slots...)
	beforeObservers := a.ObserverCount("n")
	beforeConns := a.ConnectionCount("s")

	for _, bad := range []any{-1, 10, "3", 3.5, nil} {
		if err := a.Set("n", bad); err == nil {
			t.Errorf("Set(%v) accepted", bad)
		}
	}

	if !reflect.DeepEqual(a.slots, beforeSlots) {
		t.Errorf("slots = %v, want %v", a.slots, beforeSlots)
	}
	if a.ObserverCount("n") != beforeObservers || a.ConnectionCount("s") != beforeConns {
		t.Error("observer or signal tables changed")
	}
}

func TestAtom_ObserverOrderAndSnapshot(t *testing.T) {
	a := newAtom(t, newPoint(t))
	var calls []string
	var h2 Handle

	a.Observe("x", func(Change) error {
		calls = append(calls, "first")
		return nil
	})
	h2, _ = a.Observe("x", func(Change) error {
		calls = append(calls, "second")
		a.Unobserve(h2)
		a.Observe("x", func(Change) error {
			calls = append(calls, "late")
			return nil
		})
		return nil
	})
	a.Observe("x", func(Change) error {
		calls = append(calls, "third")
		return nil
	})

	mustSet(t, a, "x", 1)
	want := []string{"first", "second", "third"}
	if !reflect.DeepEqual(calls, want) {
		t.Fatalf("first pass = %v, want %v", calls, want)
	}

	calls = nil
	mustSet(t, a, "x", 2)
	want = []string{"first", "third", "late"}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("second pass = %v, want %v", calls, want)
	}
}

func TestAtom_StaticObserversRunFirst(t *testing.T) {
	x := NewMember("x")
	c := newClass(t, "Static", x)
	var calls []string
	h, err := x.AddStaticObserver(func(Change) error {
		calls = append(calls, "static")
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	a := newAtom(t, c)
	b := newAtom(t, c)
	a.Observe("x", func(Change) error {
		calls = append(calls, "instance")
		return nil
	})

	mustSet(t, a, "x", 1)
	mustSet(t, b, "x", 1)
	want := []string{"static", "instance", "static"}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}
	if a.ObserverCount("x") != 2 {
		t.Errorf("ObserverCount = %d, want 2", a.ObserverCount("x"))
	}

	if !x.RemoveStaticObserver(h) {
		t.Error("RemoveStaticObserver() = false")
	}
	if a.Unobserve(h) {
		t.Error("Unobserve(static handle) = true")
	}
}

func TestAtom_ObserverErrorAbortsPass(t *testing.T) {
	a := newAtom(t, newPoint(t))
	boom := errors.New("boom")
	var calls int

	a.Observe("x", func(Change) error { calls++; return nil })
	a.Observe("x", func(Change) error { calls++; return boom })
	a.Observe("x", func(Change) error { calls++; return nil })

	err := a.Set("x", 1)
	if !errors.Is(err, ErrObserver) || !errors.Is(err, boom) {
		t.Fatalf("Set() error = %v, want observer error wrapping boom", err)
	}
	var oerr *ObserverError
	if !errors.As(err, &oerr) {
		t.Fatalf("error is %T, want *ObserverError", err)
	}
	if oerr.Change.New != 1 || oerr.Member != "x" {
		t.Errorf("ObserverError = %+v", oerr)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if got := mustGet(t, a, "x"); got != 1 {
		t.Errorf("x = %v, write must stay committed", got)
	}
}

func TestAtom_ObserverPanicIsReported(t *testing.T) {
	a := newAtom(t, newPoint(t))
	a.Observe("x", func(Change) error { panic("kaboom") })

	err := a.Set("x", 1)
	var oerr *ObserverError
	if !errors.As(err, &oerr) {
		t.Fatalf("Set() error = %v, want *ObserverError", err)
	}
	if oerr.Panic != "kaboom" || len(oerr.Stack) == 0 {
		t.Errorf("panic = %v, stack length %d", oerr.Panic, len(oerr.Stack))
	}
	if !strings.Contains(err.Error(), "panicked") {
		t.Errorf("Error() = %q", err.Error())
	}
	if a.depth != 0 {
		t.Errorf("depth = %d after panic, want 0", a.depth)
	}
}

func TestAtom_ChangeKindFilter(t *testing.T) {
	a := newAtom(t, newPoint(t))
	rec := &recorder{}
	a.Observe("y", rec.observe, WithChangeKinds(ChangeDelete))

	mustSet(t, a, "y", 1)
	if err := a.Delete("y"); err != nil {
		t.Fatal(err)
	}
	if len(rec.changes) != 1 || rec.changes[0].Kind != ChangeDelete || rec.changes[0].Old != 1 {
		t.Errorf("changes = %+v, want a single delete", rec.changes)
	}
	if a.IsSet("y") {
		t.Error("slot still set after Delete")
	}
	if err := a.Delete("y"); err != nil || len(rec.changes) != 1 {
		t.Errorf("deleting an unset slot: err = %v, changes = %d", err, len(rec.changes))
	}
}

func TestAtom_ReentrantWrites(t *testing.T) {
	a := newAtom(t, newPoint(t))
	var seen []any
	a.Observe("x", func(c Change) error {
		seen = append(seen, c.New)
		if n := c.New.(int); n < 3 {
			return a.Set("x", n+1)
		}
		return nil
	})

	mustSet(t, a, "x", 1)
	if !reflect.DeepEqual(seen, []any{1, 2, 3}) {
		t.Errorf("seen = %v", seen)
	}
	if got := mustGet(t, a, "x"); got != 3 {
		t.Errorf("x = %v, want 3", got)
	}
}

func TestAtom_RecursionLimit(t *testing.T) {
	a := newAtom(t, newPoint(t), WithMaxDepth(8))
	a.Observe("x", func(c Change) error {
		return a.Set("x", c.New.(int)+1)
	})

	err := a.Set("x", 1)
	if !errors.Is(err, ErrRecursionLimit) {
		t.Fatalf("Set() error = %v, want ErrRecursionLimit", err)
	}
	if got := mustGet(t, a, "x"); got != 8 {
		t.Errorf("x = %v, want 8", got)
	}
	if a.depth != 0 {
		t.Errorf("depth = %d, want 0", a.depth)
	}
}

func TestAtom_NotificationsDisabled(t *testing.T) {
	a := newAtom(t, newPoint(t))
	rec := &recorder{}
	a.Observe("x", rec.observe)

	if prev := a.SetNotificationsEnabled(false); !prev {
		t.Error("notifications were not enabled by default")
	}
	mustSet(t, a, "x", 1)
	a.SetNotificationsEnabled(true)
	mustSet(t, a, "x", 2)

	if len(rec.changes) != 1 || rec.changes[0].Old != 1 {
		t.Errorf("changes = %+v, want one update from 1", rec.changes)
	}
}

func TestAtom_Freeze(t *testing.T) {
	a := newAtom(t, newPoint(t))
	mustSet(t, a, "x", 1)
	a.Freeze()

	if err := a.Set("x", 2); !errors.Is(err, ErrFrozen) {
		t.Errorf("Set() error = %v, want ErrFrozen", err)
	}
	if err := a.Delete("x"); !errors.Is(err, ErrFrozen) {
		t.Errorf("Delete() error = %v, want ErrFrozen", err)
	}
	if got := mustGet(t, a, "x"); got != 1 {
		t.Errorf("x = %v, want 1", got)
	}
}

func TestAtom_Destroy(t *testing.T) {
	c := newClass(t, "Owner",
		NewMember("items", WithDefault(ListDefault()), WithValidate(ListValidator(nil))))
	a := newAtom(t, c)
	a.Observe("items", func(Change) error { return nil })

	v := mustGet(t, a, "items")
	l := v.(*List)
	w := NewWeakRef(a)

	a.Destroy()
	a.Destroy()

	if !l.Detached() {
		t.Error("owned list not detached")
	}
	if err := l.Append(1); err != nil {
		t.Errorf("Append on detached list error = %v", err)
	}
	if _, err := a.Get("items"); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Get() error = %v, want ErrDestroyed", err)
	}
	if err := a.Set("items", nil); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Set() error = %v, want ErrDestroyed", err)
	}
	if _, err := a.Observe("items", func(Change) error { return nil }); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Observe() error = %v, want ErrDestroyed", err)
	}
	if w.Get() != nil || w.Alive() {
		t.Error("weak ref resolves a destroyed atom")
	}

	stats := c.Stats()
	if stats.Instances != 1 || stats.Live != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestAtom_SlotAccess(t *testing.T) {
	a := newAtom(t, newPoint(t))
	if err := a.SetSlot(1, 9); err != nil {
		t.Fatal(err)
	}
	if v, err := a.GetSlot(1); err != nil || v != 9 {
		t.Errorf("GetSlot(1) = %v, %v", v, err)
	}
	if err := a.DeleteSlot(1); err != nil {
		t.Fatal(err)
	}
	if v, _ := a.GetSlot(1); v != 0 {
		t.Errorf("GetSlot(1) after delete = %v, want default 0", v)
	}
	if _, err := a.GetSlot(2); !errors.Is(err, ErrUnknownMember) {
		t.Errorf("GetSlot(2) error = %v, want ErrUnknownMember", err)
	}
	if err := a.Set("z", 1); !errors.Is(err, ErrUnknownMember) {
		t.Errorf("Set(z) error = %v, want ErrUnknownMember", err)
	}
}

func TestAtom_ForeignMember(t *testing.T) {
	a := newAtom(t, newPoint(t))
	b := newAtom(t, newPoint(t))
	x, _ := b.Class().Member("x")
	if _, err := x.Get(a); !errors.Is(err, ErrUnknownMember) {
		t.Errorf("foreign Get() error = %v, want ErrUnknownMember", err)
	}
}

func TestAtom_Dependencies(t *testing.T) {
	calls := 0
	x := NewMember("x", WithDefault(StaticDefault(1)))
	label := NewMember("label", WithDefault(CallDefault(func(a *Atom) (any, error) {
		calls++
		v, err := a.Get("x")
		if err != nil {
			return nil, err
		}
		return "x=" + strings.Repeat("|", v.(int)), nil
	})))
	c := newClass(t, "Labelled", x, label)
	if err := c.DependOn("x", "label"); err != nil {
		t.Fatal(err)
	}
	if got := c.Dependents("x"); !reflect.DeepEqual(got, []string{"label"}) {
		t.Errorf("Dependents(x) = %v", got)
	}
	a := newAtom(t, c)

	if got := mustGet(t, a, "label"); got != "x=|" {
		t.Fatalf("label = %v", got)
	}

	// unobserved dependents are invalidated but not recomputed
	mustSet(t, a, "x", 2)
	if calls != 1 || a.IsSet("label") {
		t.Errorf("calls = %d, label set = %v", calls, a.IsSet("label"))
	}

	rec := &recorder{}
	a.Observe("label", rec.observe)
	mustSet(t, a, "x", 3)
	if len(rec.changes) != 1 {
		t.Fatalf("label changes = %d, want 1", len(rec.changes))
	}
	if c := rec.changes[0]; c.Kind != ChangeProperty || c.Old != nil || c.New != "x=|||" {
		t.Errorf("change = %+v", c)
	}

	mustSet(t, a, "x", 1)
	if c := rec.changes[1]; c.Old != "x=|||" || c.New != "x=|" {
		t.Errorf("change = %+v", c)
	}
}

func TestAtom_EmitOnWrite(t *testing.T) {
	c := newClass(t, "Emitting",
		NewMember("y"),
		NewMember("moved", WithAccess(SignalAccess())),
	)
	if err := c.EmitOn("y", "moved"); err != nil {
		t.Fatal(err)
	}
	a := newAtom(t, c)

	var got []any
	a.Connect("moved", func(args ...any) error {
		got = append(got, args...)
		return nil
	})
	mustSet(t, a, "y", 2)

	if len(got) != 1 {
		t.Fatalf("handler args = %v", got)
	}
	if ch, ok := got[0].(Change); !ok || ch.Name != "y" || ch.New != 2 {
		t.Errorf("arg = %+v", got[0])
	}
}

func TestAtom_ResetPropertyNotifiesObservers(t *testing.T) {
	n := 0
	c := newClass(t, "Counter", NewMember("next", WithDefault(CallDefault(func(*Atom) (any, error) {
		n++
		return n, nil
	}))))
	a := newAtom(t, c)
	rec := &recorder{}
	a.Observe("next", rec.observe)

	mustGet(t, a, "next")
	if err := a.ResetProperty("next"); err != nil {
		t.Fatal(err)
	}
	if len(rec.changes) != 1 || rec.changes[0].Kind != ChangeProperty ||
		rec.changes[0].Old != 1 || rec.changes[0].New != 2 {
		t.Errorf("changes = %+v", rec.changes)
	}
}

func TestAtom_IDsAreUnique(t *testing.T) {
	c := newPoint(t)
	a, b := newAtom(t, c), newAtom(t, c)
	if a.ID() == "" || a.ID() == b.ID() {
		t.Errorf("IDs %q and %q", a.ID(), b.ID())
	}
	if !strings.HasPrefix(a.String(), "Point(") {
		t.Errorf("String() = %q", a.String())
	}
}
