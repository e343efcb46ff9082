package atom

import "fmt"

// owner is the back-reference from a container to the atom slot that owns
// it. It is cleared on detachment and never set again.
type owner struct {
	atom   *Atom
	member *Member
}

type container interface {
	owner() *owner
	detach()
}

var (
	_ container = (*List)(nil)
	_ container = (*Dict)(nil)
	_ container = (*Ref)(nil)
)

func (o *owner) live() bool {
	return o != nil && !o.atom.destroyed
}

func (o *owner) atomOrNil() *Atom {
	if !o.live() {
		return nil
	}
	return o.atom
}

// check rejects mutations of containers owned by a frozen atom.
func (o *owner) check() error {
	if o.live() && o.atom.frozen {
		return fmt.Errorf("%w: %s", ErrFrozen, o.atom)
	}
	return nil
}

func (o *owner) rejected() {
	if o.live() {
		o.atom.validationFailed(o.member)
	}
}

// notify forwards a committed mutation. Detached containers notify nobody.
func (o *owner) notify(change Change) error {
	if !o.live() {
		return nil
	}
	return o.atom.containerChanged(o.member, change)
}

// boundTo reports whether o binds its container to member m of a.
func (o *owner) boundTo(a *Atom, m *Member) bool {
	return o != nil && a != nil && o.atom == a && o.member == m
}

func ownerOf(o *owner) (*Atom, *Member) {
	if o == nil {
		return nil, nil
	}
	return o.atom, o.member
}
