package atom

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newDictOwner(t *testing.T, key, value *Member) (*Atom, *recorder) {
	t.Helper()
	c := newClass(t, "Table",
		NewMember("cells", WithDefault(DictDefault()), WithValidate(DictValidator(key, value))))
	a := newAtom(t, c)
	rec := &recorder{}
	if _, err := a.Observe("cells", rec.observe); err != nil {
		t.Fatal(err)
	}
	return a, rec
}

func ownedDict(t *testing.T, a *Atom) *Dict {
	t.Helper()
	v := mustGet(t, a, "cells")
	d, ok := v.(*Dict)
	if !ok {
		t.Fatalf("cells is %T, want *Dict", v)
	}
	return d
}

func TestDict_FromMapIsSortedByKey(t *testing.T) {
	a, _ := newDictOwner(t, nil, nil)
	mustSet(t, a, "cells", map[string]int{"b": 2, "a": 1, "c": 3})

	d := ownedDict(t, a)
	if diff := cmp.Diff([]any{"a", "b", "c"}, d.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{1, 2, 3}, d.Values()); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
	if got := d.String(); got != "{a: 1, b: 2, c: 3}" {
		t.Errorf("String() = %q", got)
	}
}

func TestDict_Mutations(t *testing.T) {
	a, rec := newDictOwner(t, nil, nil)
	d := ownedDict(t, a)

	if err := d.Set("x", 1); err != nil {
		t.Fatal(err)
	}
	if err := d.Set("x", 1); err != nil {
		t.Fatal(err)
	}
	if err := d.Set("x", 2); err != nil {
		t.Fatal(err)
	}
	if v, err := d.Pop("x"); err != nil || v != 2 {
		t.Fatalf("Pop(x) = %v, %v", v, err)
	}
	if err := d.Delete("x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(missing) error = %v, want ErrNotFound", err)
	}
	if err := d.Update(Entry{"p", 1}, Entry{"q", 2}); err != nil {
		t.Fatal(err)
	}
	if err := d.Clear(); err != nil {
		t.Fatal(err)
	}

	want := []Change{
		{Kind: ChangeContainerInsert, Key: "x", New: 1},
		{Kind: ChangeContainerSet, Key: "x", Old: 1, New: 2},
		{Kind: ChangeContainerRemove, Key: "x", Old: 2},
		{Kind: ChangeContainerInsert, Key: "p", New: 1},
		{Kind: ChangeContainerInsert, Key: "q", New: 2},
		{Kind: ChangeContainerClear, Old: []Entry{{"p", 1}, {"q", 2}}},
	}
	got := make([]Change, len(rec.changes))
	for i, c := range rec.changes {
		c.Object, c.Name = nil, ""
		got[i] = c
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("changes mismatch (-want +got):\n%s", diff)
	}
	if d.Len() != 0 {
		t.Errorf("Len() = %d, want 0", d.Len())
	}
}

func TestDict_DeleteKeepsOrder(t *testing.T) {
	d, err := NewDict([]Entry{{"a", 1}, {"b", 2}, {"c", 3}}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Delete("a"); err != nil {
		t.Fatal(err)
	}
	if err := d.Set("a", 4); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]any{"b", "c", "a"}, d.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	if v, ok := d.Get("c"); !ok || v != 3 {
		t.Errorf("Get(c) = %v, %v", v, ok)
	}
}

func TestDict_Validation(t *testing.T) {
	key := NewMember("key", WithValidate(StrValidator()))
	value := NewMember("value", WithValidate(IntValidator(true)))
	a, rec := newDictOwner(t, key, value)
	d := ownedDict(t, a)

	if err := d.Set(1, 1); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("Set(int key) error = %v, want ErrTypeMismatch", err)
	}
	if err := d.Set("k", "v"); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("Set(str value) error = %v, want ErrTypeMismatch", err)
	}
	if err := d.Update(Entry{"ok", 1}, Entry{"bad", "x"}); !errors.Is(err, ErrValidation) {
		t.Errorf("Update() error = %v, want ErrValidation", err)
	}
	if d.Len() != 0 || len(rec.changes) != 0 {
		t.Errorf("rejected mutations stored %d entries and %d changes", d.Len(), len(rec.changes))
	}
	if err := a.Set("cells", map[string]string{"a": "b"}); !errors.Is(err, ErrValidation) {
		t.Errorf("Set(bad map) error = %v, want ErrValidation", err)
	}
}

func TestDict_KeysMustBeComparable(t *testing.T) {
	d, err := NewDict(nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Set([]int{1}, 1); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("Set(slice key) error = %v, want ErrTypeMismatch", err)
	}
	if d.Has([]int{1}) {
		t.Error("Has(slice key) = true")
	}
}

func TestDict_ReplacingDetaches(t *testing.T) {
	a, rec := newDictOwner(t, nil, nil)
	old := ownedDict(t, a)
	mustSet(t, a, "cells", map[string]int{"z": 1})

	if !old.Detached() {
		t.Fatal("old dict not detached")
	}
	n := len(rec.changes)
	if err := old.Set("k", 1); err != nil {
		t.Fatal(err)
	}
	if len(rec.changes) != n {
		t.Error("detached dict produced a change")
	}
}

func TestDict_SelfAssignIsNoOp(t *testing.T) {
	a, rec := newDictOwner(t, nil, nil)
	mustSet(t, a, "cells", map[string]int{"a": 1})
	d := ownedDict(t, a)
	rec.changes = nil

	mustSet(t, a, "cells", d)

	if len(rec.changes) != 0 {
		t.Errorf("self-assign emitted %d changes", len(rec.changes))
	}
	if d.Detached() || ownedDict(t, a) != d {
		t.Fatal("self-assign replaced the dict")
	}

	if err := d.Set("b", 2); err != nil {
		t.Fatal(err)
	}
	if len(rec.changes) != 1 || rec.changes[0].Kind != ChangeContainerInsert {
		t.Errorf("changes after Set = %+v", rec.changes)
	}
}
