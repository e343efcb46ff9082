package atom

import "reflect"

type undefined struct{}

func (undefined) String() string { return "<undefined>" }

// Undefined marks an unset slot. It is distinct from nil and from every
// value a member can accept.
var Undefined any = &undefined{}

// valuesEqual reports whether a write of b over a is a no-op.
// Values of different dynamic types are never equal. Pointers, including
// containers and atoms, compare by identity. Values whose dynamic type is
// not comparable are always considered different.
func valuesEqual(a, b any) (equal bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	// structs and arrays may hold interface fields with incomparable values
	defer func() {
		if recover() != nil {
			equal = false
		}
	}()
	return a == b
}
