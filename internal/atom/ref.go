package atom

import (
	"fmt"
	"weak"
)

// Ref is an observable single-value cell.
type Ref struct {
	value any
	inner *Member
	own   *owner
}

// NewRef creates a detached ref holding v, validated with inner when non-nil.
func NewRef(v any, inner *Member) (*Ref, error) {
	accepted, err := validateElement(inner, nil, v)
	if err != nil {
		return nil, err
	}
	return &Ref{value: accepted, inner: inner}, nil
}

// BindRef creates a ref owned by member m of atom a.
func BindRef(a *Atom, m *Member, v any) (*Ref, error) {
	if err := a.checkMember(m); err != nil {
		return nil, err
	}
	if m.validateMode.kind != ValidateRef {
		return nil, fmt.Errorf("%w: %s does not hold a ref", ErrTypeMismatch, m)
	}
	r, err := m.validateRef(m.validateMode, a, v)
	if err != nil {
		return nil, err
	}
	return r.(*Ref), nil
}

func (r *Ref) owner() *owner { return r.own }

func (r *Ref) detach() { r.own = nil }

// Owner returns the owning atom and member, or nils when detached.
func (r *Ref) Owner() (*Atom, *Member) { return ownerOf(r.own) }

// Detached reports whether the ref has no owner.
func (r *Ref) Detached() bool { return r.own == nil }

// Get returns the referenced value.
func (r *Ref) Get() any { return r.value }

// String formats the referenced value.
func (r *Ref) String() string { return fmt.Sprintf("Ref(%v)", r.value) }

// Set replaces the referenced value.
func (r *Ref) Set(v any) error {
	if err := r.own.check(); err != nil {
		return err
	}
	accepted, err := validateElement(r.inner, r.own.atomOrNil(), v)
	if err != nil {
		r.own.rejected()
		return err
	}
	old := r.value
	if valuesEqual(old, accepted) {
		return nil
	}
	r.value = accepted
	return r.own.notify(Change{Kind: ChangeContainerSet, Old: old, New: accepted})
}

// Clear sets the referenced value to nil.
func (r *Ref) Clear() error {
	if err := r.own.check(); err != nil {
		return err
	}
	if r.value == nil {
		return nil
	}
	old := r.value
	r.value = nil
	return r.own.notify(Change{Kind: ChangeContainerClear, Old: old})
}

// WeakRef refers to an atom without keeping it alive.
type WeakRef struct {
	ptr weak.Pointer[Atom]
}

// NewWeakRef creates a weak reference to a.
func NewWeakRef(a *Atom) WeakRef {
	return WeakRef{ptr: weak.Make(a)}
}

// Get returns the atom, or nil if it was destroyed or collected.
func (w WeakRef) Get() *Atom {
	a := w.ptr.Value()
	if a == nil || a.destroyed {
		return nil
	}
	return a
}

// Alive reports whether Get would return a non-nil atom.
func (w WeakRef) Alive() bool { return w.Get() != nil }
