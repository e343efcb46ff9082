package atom

import "strings"

// ChangeKind identifies the shape of a mutation.
// Kinds are bit flags so observers can subscribe to a subset.
type ChangeKind uint16

const (
	// ChangeCreate is a write to a previously unset slot.
	ChangeCreate ChangeKind = 1 << iota

	// ChangeUpdate is a write replacing an existing slot value.
	ChangeUpdate

	// ChangeDelete is a slot reset back to unset by Delete.
	ChangeDelete

	// ChangeEvent is an event member firing or a signal member emitting.
	ChangeEvent

	// ChangeProperty is a recomputed property or dependent slot.
	ChangeProperty

	// ChangeContainerInsert is an item inserted into a list or a new dict key.
	ChangeContainerInsert

	// ChangeContainerRemove is an item removed from a list or dict.
	ChangeContainerRemove

	// ChangeContainerSet is an item replaced in place, or a ref reassigned.
	ChangeContainerSet

	// ChangeContainerSlice is a range of a list replaced at once.
	ChangeContainerSlice

	// ChangeContainerClear is a container emptied.
	ChangeContainerClear
)

const (
	// ChangeContainer matches every container change.
	ChangeContainer = ChangeContainerInsert | ChangeContainerRemove | ChangeContainerSet |
		ChangeContainerSlice | ChangeContainerClear

	// ChangeAny matches every change.
	ChangeAny = ChangeCreate | ChangeUpdate | ChangeDelete | ChangeEvent | ChangeProperty | ChangeContainer
)

var changeKindNames = []struct {
	kind ChangeKind
	name string
}{
	{ChangeCreate, "create"},
	{ChangeUpdate, "update"},
	{ChangeDelete, "delete"},
	{ChangeEvent, "event"},
	{ChangeProperty, "property"},
	{ChangeContainerInsert, "container-insert"},
	{ChangeContainerRemove, "container-remove"},
	{ChangeContainerSet, "container-set"},
	{ChangeContainerSlice, "container-slice"},
	{ChangeContainerClear, "container-clear"},
}

// String returns the kind name, or a "|"-joined list for masks.
func (k ChangeKind) String() string {
	var names []string
	for _, n := range changeKindNames {
		if k&n.kind != 0 {
			names = append(names, n.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// ParseChangeKind returns the kind with the given name.
func ParseChangeKind(name string) (ChangeKind, bool) {
	for _, n := range changeKindNames {
		if n.name == name {
			return n.kind, true
		}
	}
	return 0, false
}

// IsContainer reports whether the kind is a container mutation.
func (k ChangeKind) IsContainer() bool {
	return k&ChangeContainer != 0
}

// Span is a half-open index range [Start, Stop) of a list.
type Span struct {
	Start int
	Stop  int
}

// Len returns the number of indices covered.
func (s Span) Len() int {
	return s.Stop - s.Start
}

// Change describes one mutation of an atom attribute.
// A Change is a value; observers receive their own copy and the runtime
// does not retain it after the notification pass.
type Change struct {
	// Kind is the mutation shape.
	Kind ChangeKind

	// Object is the atom that was mutated.
	Object *Atom

	// Name is the member name.
	Name string

	// Old is the previous value. Nil for creates, inserts and events.
	Old any

	// New is the new value. Nil for deletes and removals.
	New any

	// Key locates container changes: an int index for lists, the key for
	// dicts, a Span for slices. Nil otherwise.
	Key any
}
