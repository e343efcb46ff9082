package atom

import (
	"fmt"
	"strings"
)

// Entry is a dict key/value pair.
type Entry struct {
	Key   any
	Value any
}

// Dict is an observable insertion-ordered mapping.
//
// Keys must be comparable. A dict stored by a member validated with
// DictValidator reports every mutation to the owning atom as a container
// Change keyed by the dict key.
type Dict struct {
	entries []Entry
	index   map[any]int
	key     *Member
	value   *Member
	own     *owner
}

// NewDict creates a detached dict from entries, validating keys and
// values with the given members when non-nil. Later entries replace
// earlier ones with the same key.
func NewDict(entries []Entry, key, value *Member) (*Dict, error) {
	d := &Dict{key: key, value: value, index: make(map[any]int, len(entries))}
	for _, e := range entries {
		k, v, err := d.validateEntry(nil, e.Key, e.Value)
		if err != nil {
			return nil, err
		}
		d.store(k, v)
	}
	return d, nil
}

// BindDict creates a dict owned by member m of atom a from a Go map,
// a []Entry or another Dict.
func BindDict(a *Atom, m *Member, values any) (*Dict, error) {
	if err := a.checkMember(m); err != nil {
		return nil, err
	}
	if m.validateMode.kind != ValidateDict {
		return nil, fmt.Errorf("%w: %s does not hold a dict", ErrTypeMismatch, m)
	}
	v, err := m.validateDict(m.validateMode, a, values)
	if err != nil {
		return nil, err
	}
	return v.(*Dict), nil
}

func (d *Dict) owner() *owner { return d.own }

func (d *Dict) detach() { d.own = nil }

// Owner returns the owning atom and member, or nils when detached.
func (d *Dict) Owner() (*Atom, *Member) { return ownerOf(d.own) }

// Detached reports whether the dict has no owner.
func (d *Dict) Detached() bool { return d.own == nil }

// Len returns the number of entries.
func (d *Dict) Len() int { return len(d.entries) }

// Get returns the value stored under k.
func (d *Dict) Get(k any) (any, bool) {
	i, ok := d.lookup(k)
	if !ok {
		return nil, false
	}
	return d.entries[i].Value, true
}

// Has reports whether k is present.
func (d *Dict) Has(k any) bool {
	_, ok := d.lookup(k)
	return ok
}

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []any {
	keys := make([]any, len(d.entries))
	for i, e := range d.entries {
		keys[i] = e.Key
	}
	return keys
}

// Values returns the values in key insertion order.
func (d *Dict) Values() []any {
	values := make([]any, len(d.entries))
	for i, e := range d.entries {
		values[i] = e.Value
	}
	return values
}

// Items returns a copy of the entries in insertion order.
func (d *Dict) Items() []Entry {
	return append([]Entry(nil), d.entries...)
}

// String formats the entries as {k: v, ...}.
func (d *Dict) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, e := range d.entries {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%v: %v", e.Key, e.Value)
	}
	b.WriteByte('}')
	return b.String()
}

func (d *Dict) lookup(k any) (i int, ok bool) {
	defer func() {
		if recover() != nil {
			i, ok = 0, false
		}
	}()
	i, ok = d.index[k]
	return i, ok
}

func (d *Dict) validateEntry(a *Atom, k, v any) (any, any, error) {
	key, err := validateElement(d.key, a, k)
	if err != nil {
		return nil, nil, err
	}
	if !hashable(key) {
		return nil, nil, &TypeMismatchError{Value: key, Expected: "comparable key"}
	}
	value, err := validateElement(d.value, a, v)
	if err != nil {
		return nil, nil, err
	}
	return key, value, nil
}

func hashable(k any) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	_ = map[any]struct{}{k: {}}
	return true
}

// store inserts or replaces without notifying and reports the previous value.
func (d *Dict) store(k, v any) (old any, existed bool) {
	if i, ok := d.index[k]; ok {
		old = d.entries[i].Value
		d.entries[i].Value = v
		return old, true
	}
	d.index[k] = len(d.entries)
	d.entries = append(d.entries, Entry{Key: k, Value: v})
	return nil, false
}

func (d *Dict) remove(i int) Entry {
	e := d.entries[i]
	delete(d.index, e.Key)
	copy(d.entries[i:], d.entries[i+1:])
	d.entries[len(d.entries)-1] = Entry{}
	d.entries = d.entries[:len(d.entries)-1]
	for j := i; j < len(d.entries); j++ {
		d.index[d.entries[j].Key] = j
	}
	return e
}

func (d *Dict) prepare(k, v any) (any, any, error) {
	if err := d.own.check(); err != nil {
		return nil, nil, err
	}
	key, value, err := d.validateEntry(d.own.atomOrNil(), k, v)
	if err != nil {
		d.own.rejected()
		return nil, nil, err
	}
	return key, value, nil
}

func entryChange(key, old, value any, existed bool) Change {
	if existed {
		return Change{Kind: ChangeContainerSet, Key: key, Old: old, New: value}
	}
	return Change{Kind: ChangeContainerInsert, Key: key, New: value}
}

// Set stores v under k. Replacing a value with an equal one is a no-op.
func (d *Dict) Set(k, v any) error {
	key, value, err := d.prepare(k, v)
	if err != nil {
		return err
	}
	if i, ok := d.index[key]; ok && valuesEqual(d.entries[i].Value, value) {
		return nil
	}
	old, existed := d.store(key, value)
	return d.own.notify(entryChange(key, old, value, existed))
}

// Delete removes k.
func (d *Dict) Delete(k any) error {
	_, err := d.Pop(k)
	return err
}

// Pop removes k and returns its value.
func (d *Dict) Pop(k any) (any, error) {
	if err := d.own.check(); err != nil {
		return nil, err
	}
	i, ok := d.lookup(k)
	if !ok {
		return nil, fmt.Errorf("%w: key %v", ErrNotFound, k)
	}
	e := d.remove(i)
	return e.Value, d.own.notify(Change{Kind: ChangeContainerRemove, Key: e.Key, Old: e.Value})
}

// Clear removes every entry.
func (d *Dict) Clear() error {
	if err := d.own.check(); err != nil {
		return err
	}
	if len(d.entries) == 0 {
		return nil
	}
	old := d.entries
	d.entries = nil
	d.index = make(map[any]int)
	return d.own.notify(Change{Kind: ChangeContainerClear, Old: old})
}

// Update stores every entry. All entries are validated before any is
// stored; each stored entry is then reported as its own change.
func (d *Dict) Update(entries ...Entry) error {
	accepted := make([]Entry, 0, len(entries))
	for _, e := range entries {
		k, v, err := d.prepare(e.Key, e.Value)
		if err != nil {
			return err
		}
		accepted = append(accepted, Entry{Key: k, Value: v})
	}

	changes := make([]Change, 0, len(accepted))
	for _, e := range accepted {
		if i, ok := d.index[e.Key]; ok && valuesEqual(d.entries[i].Value, e.Value) {
			continue
		}
		old, existed := d.store(e.Key, e.Value)
		changes = append(changes, entryChange(e.Key, old, e.Value, existed))
	}
	for _, c := range changes {
		if err := d.own.notify(c); err != nil {
			return err
		}
	}
	return nil
}
