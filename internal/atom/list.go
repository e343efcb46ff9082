package atom

import (
	"fmt"
	"sort"
)

// List is an observable ordered sequence.
//
// A list stored by a member validated with ListValidator reports every
// mutation to the owning atom as a container Change. Once detached it
// behaves as a plain list.
type List struct {
	items []any
	item  *Member
	own   *owner
}

// NewList creates a detached list holding a copy of values, each validated
// with item when item is non-nil.
func NewList(values []any, item *Member) (*List, error) {
	l := &List{item: item, items: make([]any, 0, len(values))}
	for _, v := range values {
		accepted, err := validateElement(item, nil, v)
		if err != nil {
			return nil, err
		}
		l.items = append(l.items, accepted)
	}
	return l, nil
}

// BindList creates a list owned by member m of atom a. Values are
// validated with m's list item member.
func BindList(a *Atom, m *Member, values []any) (*List, error) {
	if err := a.checkMember(m); err != nil {
		return nil, err
	}
	if m.validateMode.kind != ValidateList {
		return nil, fmt.Errorf("%w: %s does not hold a list", ErrTypeMismatch, m)
	}
	v, err := m.validateList(m.validateMode, a, values)
	if err != nil {
		return nil, err
	}
	return v.(*List), nil
}

func (l *List) owner() *owner { return l.own }

func (l *List) detach() { l.own = nil }

// Owner returns the owning atom and member, or nils when detached.
func (l *List) Owner() (*Atom, *Member) { return ownerOf(l.own) }

// Detached reports whether the list has no owner.
func (l *List) Detached() bool { return l.own == nil }

// Len returns the number of items.
func (l *List) Len() int { return len(l.items) }

// At returns the item at index i.
func (l *List) At(i int) (any, error) {
	if i < 0 || i >= len(l.items) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(l.items))
	}
	return l.items[i], nil
}

// Items returns a copy of the items.
func (l *List) Items() []any {
	return append([]any(nil), l.items...)
}

// Index returns the index of the first item equal to v, or -1.
func (l *List) Index(v any) int {
	for i, item := range l.items {
		if valuesEqual(item, v) {
			return i
		}
	}
	return -1
}

// String formats the items.
func (l *List) String() string {
	return fmt.Sprint(l.items)
}

func (l *List) validate(values []any) ([]any, error) {
	out := make([]any, len(values))
	for i, v := range values {
		accepted, err := validateElement(l.item, l.own.atomOrNil(), v)
		if err != nil {
			l.own.rejected()
			return nil, err
		}
		out[i] = accepted
	}
	return out, nil
}

// Append adds v at the end.
func (l *List) Append(v any) error {
	return l.Insert(len(l.items), v)
}

// Insert places v before index i. I may equal Len to append.
func (l *List) Insert(i int, v any) error {
	if err := l.own.check(); err != nil {
		return err
	}
	if i < 0 || i > len(l.items) {
		return fmt.Errorf("%w: insert at %d of %d", ErrIndexOutOfRange, i, len(l.items))
	}
	accepted, err := l.validate([]any{v})
	if err != nil {
		return err
	}

	l.items = append(l.items, nil)
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = accepted[0]

	return l.own.notify(Change{Kind: ChangeContainerInsert, Key: i, New: accepted[0]})
}

// Extend appends values as a single slice change.
func (l *List) Extend(values ...any) error {
	if len(values) == 0 {
		return nil
	}
	n := len(l.items)
	return l.SliceAssign(n, n, values)
}

// SetItem replaces the item at index i.
func (l *List) SetItem(i int, v any) error {
	if err := l.own.check(); err != nil {
		return err
	}
	if i < 0 || i >= len(l.items) {
		return fmt.Errorf("%w: set %d of %d", ErrIndexOutOfRange, i, len(l.items))
	}
	accepted, err := l.validate([]any{v})
	if err != nil {
		return err
	}

	old := l.items[i]
	if valuesEqual(old, accepted[0]) {
		return nil
	}
	l.items[i] = accepted[0]

	return l.own.notify(Change{Kind: ChangeContainerSet, Key: i, Old: old, New: accepted[0]})
}

// Remove deletes and returns the item at index i.
func (l *List) Remove(i int) (any, error) {
	if err := l.own.check(); err != nil {
		return nil, err
	}
	if i < 0 || i >= len(l.items) {
		return nil, fmt.Errorf("%w: remove %d of %d", ErrIndexOutOfRange, i, len(l.items))
	}

	old := l.items[i]
	copy(l.items[i:], l.items[i+1:])
	l.items[len(l.items)-1] = nil
	l.items = l.items[:len(l.items)-1]

	return old, l.own.notify(Change{Kind: ChangeContainerRemove, Key: i, Old: old})
}

// Pop removes and returns the last item.
func (l *List) Pop() (any, error) {
	return l.Remove(len(l.items) - 1)
}

// RemoveValue deletes the first item equal to v.
func (l *List) RemoveValue(v any) error {
	i := l.Index(v)
	if i < 0 {
		return fmt.Errorf("%w: %v", ErrNotFound, v)
	}
	_, err := l.Remove(i)
	return err
}

// Clear removes every item.
func (l *List) Clear() error {
	if err := l.own.check(); err != nil {
		return err
	}
	if len(l.items) == 0 {
		return nil
	}
	old := l.items
	l.items = nil
	return l.own.notify(Change{Kind: ChangeContainerClear, Old: old})
}

// SliceAssign replaces items [start, stop) with values.
func (l *List) SliceAssign(start, stop int, values []any) error {
	if err := l.own.check(); err != nil {
		return err
	}
	if start < 0 || stop < start || stop > len(l.items) {
		return fmt.Errorf("%w: slice [%d:%d] of %d", ErrIndexOutOfRange, start, stop, len(l.items))
	}
	accepted, err := l.validate(values)
	if err != nil {
		return err
	}

	old := append([]any(nil), l.items[start:stop]...)
	items := make([]any, 0, len(l.items)-len(old)+len(accepted))
	items = append(items, l.items[:start]...)
	items = append(items, accepted...)
	items = append(items, l.items[stop:]...)
	l.items = items

	return l.own.notify(Change{
		Kind: ChangeContainerSlice,
		Key:  Span{Start: start, Stop: stop},
		Old:  old,
		New:  append([]any(nil), accepted...),
	})
}

// Reverse reverses the items in place.
func (l *List) Reverse() error {
	if err := l.own.check(); err != nil {
		return err
	}
	if len(l.items) < 2 {
		return nil
	}
	old := l.Items()
	for i, j := 0, len(l.items)-1; i < j; i, j = i+1, j-1 {
		l.items[i], l.items[j] = l.items[j], l.items[i]
	}
	return l.own.notify(Change{
		Kind: ChangeContainerSlice,
		Key:  Span{Start: 0, Stop: len(l.items)},
		Old:  old,
		New:  l.Items(),
	})
}

// Sort sorts the items stably with less.
func (l *List) Sort(less func(a, b any) bool) error {
	if err := l.own.check(); err != nil {
		return err
	}
	if len(l.items) < 2 {
		return nil
	}
	old := l.Items()
	sort.SliceStable(l.items, func(i, j int) bool {
		return less(l.items[i], l.items[j])
	})
	return l.own.notify(Change{
		Kind: ChangeContainerSlice,
		Key:  Span{Start: 0, Stop: len(l.items)},
		Old:  old,
		New:  l.Items(),
	})
}
