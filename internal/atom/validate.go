package atom

import (
	"fmt"
	"math"
	"reflect"
	"sort"
)

func (m *Member) className() string {
	if m.class == nil {
		return ""
	}
	return m.class.name
}

func (m *Member) typeError(v any, expected string) error {
	return &TypeMismatchError{Class: m.className(), Member: m.name, Value: v, Expected: expected}
}

func (m *Member) invalid(v any, format string, args ...any) error {
	return &ValidationError{Class: m.className(), Member: m.name, Value: v, Reason: fmt.Sprintf(format, args...)}
}

// runValidate applies the member's validate mode without the
// post-validate hook.
func (m *Member) runValidate(a *Atom, old, v any) (any, error) {
	return m.validateWith(m.validateMode, a, old, v)
}

func (m *Member) validateWith(mode ValidateMode, a *Atom, old, v any) (any, error) {
	switch mode.kind {
	case ValidateNoOp:
		return v, nil
	case ValidateBool:
		if _, ok := v.(bool); !ok {
			return nil, m.typeError(v, "bool")
		}
		return v, nil
	case ValidateInt:
		n, ok := toInt(v, mode.strict)
		if !ok {
			return nil, m.typeError(v, "int")
		}
		return n, nil
	case ValidateFloat:
		f, ok := toFloat(v, mode.strict)
		if !ok {
			return nil, m.typeError(v, "float")
		}
		return f, nil
	case ValidateStr:
		if _, ok := v.(string); !ok {
			return nil, m.typeError(v, "str")
		}
		return v, nil
	case ValidateBytes:
		if _, ok := v.([]byte); !ok {
			return nil, m.typeError(v, "bytes")
		}
		return v, nil
	case ValidateEnum:
		for _, item := range mode.items {
			if valuesEqual(item, v) {
				return v, nil
			}
		}
		return nil, m.invalid(v, "not one of %v", mode.items)
	case ValidateRange:
		n, ok := toInt(v, true)
		if !ok {
			return nil, m.typeError(v, "int")
		}
		if mode.low != nil && n < *mode.low {
			return nil, m.invalid(v, "less than minimum %d", *mode.low)
		}
		if mode.high != nil && n > *mode.high {
			return nil, m.invalid(v, "greater than maximum %d", *mode.high)
		}
		return n, nil
	case ValidateFloatRange:
		f, ok := toFloat(v, false)
		if !ok {
			return nil, m.typeError(v, "float")
		}
		if mode.flow != nil && f < *mode.flow {
			return nil, m.invalid(v, "less than minimum %g", *mode.flow)
		}
		if mode.fhigh != nil && f > *mode.fhigh {
			return nil, m.invalid(v, "greater than maximum %g", *mode.fhigh)
		}
		return f, nil
	case ValidateInstance:
		if v == nil || !assignableTo(v, mode.types) {
			return nil, m.typeError(v, typeNames(mode.types))
		}
		return v, nil
	case ValidateTyped:
		if v != nil && !assignableTo(v, mode.types) {
			return nil, m.typeError(v, typeNames(mode.types))
		}
		return v, nil
	case ValidateCoerced:
		if v != nil && assignableTo(v, mode.types) {
			return v, nil
		}
		if mode.coerce == nil {
			return nil, m.typeError(v, typeNames(mode.types))
		}
		c, err := mode.coerce(v)
		if err != nil {
			return nil, m.invalid(v, "coercion failed: %v", err)
		}
		if c == nil || !assignableTo(c, mode.types) {
			return nil, m.typeError(v, typeNames(mode.types))
		}
		return c, nil
	case ValidateCallable:
		if v != nil && reflect.TypeOf(v).Kind() != reflect.Func {
			return nil, m.typeError(v, "func")
		}
		return v, nil
	case ValidateList:
		return m.validateList(mode, a, v)
	case ValidateDict:
		return m.validateDict(mode, a, v)
	case ValidateRef:
		return m.validateRef(mode, a, v)
	case ValidateDelegate:
		if mode.item == nil {
			return v, nil
		}
		return m.validateWith(mode.item.validateMode, a, old, v)
	case ValidateCall:
		return mode.fn(a, m, old, v)
	default:
		return nil, fmt.Errorf("%w: unknown validate kind %d for %s", ErrInvalidClass, mode.kind, m)
	}
}

// bindOwner returns the owner a container accepted by m should be bound
// to. Members that are not bound to a class, such as list item members,
// produce detached containers.
func (m *Member) bindOwner(a *Atom) *owner {
	if a == nil || m.class == nil || a.class != m.class {
		return nil
	}
	return &owner{atom: a, member: m}
}

func (m *Member) validateList(mode ValidateMode, a *Atom, v any) (any, error) {
	// The list already bound to this slot is accepted as is.
	if l, ok := v.(*List); ok && l.own.boundTo(a, m) {
		return l, nil
	}
	items, ok := sequenceItems(v)
	if !ok {
		return nil, m.typeError(v, "list")
	}
	out := make([]any, len(items))
	for i, item := range items {
		accepted, err := validateElement(mode.item, a, item)
		if err != nil {
			return nil, err
		}
		out[i] = accepted
	}
	return &List{items: out, item: mode.item, own: m.bindOwner(a)}, nil
}

func (m *Member) validateDict(mode ValidateMode, a *Atom, v any) (any, error) {
	if d, ok := v.(*Dict); ok && d.own.boundTo(a, m) {
		return d, nil
	}
	entries, ok := mappingEntries(v)
	if !ok {
		return nil, m.typeError(v, "dict")
	}
	d := &Dict{key: mode.item, value: mode.value, index: make(map[any]int, len(entries))}
	for _, e := range entries {
		k, val, err := d.validateEntry(a, e.Key, e.Value)
		if err != nil {
			return nil, err
		}
		d.store(k, val)
	}
	d.own = m.bindOwner(a)
	return d, nil
}

func (m *Member) validateRef(mode ValidateMode, a *Atom, v any) (any, error) {
	if r, ok := v.(*Ref); ok {
		if r.own.boundTo(a, m) {
			return r, nil
		}
		v = r.value
	}
	accepted, err := validateElement(mode.item, a, v)
	if err != nil {
		return nil, err
	}
	return &Ref{value: accepted, inner: mode.item, own: m.bindOwner(a)}, nil
}

// validateElement validates a container element with an optional item
// member.
func validateElement(item *Member, a *Atom, v any) (any, error) {
	if item == nil {
		return v, nil
	}
	return item.Validate(a, Undefined, v)
}

// sequenceItems returns a copy of the elements of a slice, array or List.
func sequenceItems(v any) ([]any, bool) {
	switch s := v.(type) {
	case *List:
		return s.Items(), true
	case []any:
		return append([]any(nil), s...), true
	case nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if _, isBytes := v.([]byte); isBytes {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// mappingEntries returns the entries of a Dict in insertion order, or of
// a Go map sorted by the printed form of its keys.
func mappingEntries(v any) ([]Entry, bool) {
	switch d := v.(type) {
	case *Dict:
		return d.Items(), true
	case []Entry:
		return append([]Entry(nil), d...), true
	case nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return nil, false
	}
	out := make([]Entry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out = append(out, Entry{Key: iter.Key().Interface(), Value: iter.Value().Interface()})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return fmt.Sprint(out[i].Key) < fmt.Sprint(out[j].Key)
	})
	return out, true
}

func toInt(v any, strict bool) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		if n < math.MinInt || n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case uint:
		if n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		if n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case float32:
		return floatToInt(float64(n), strict)
	case float64:
		return floatToInt(n, strict)
	default:
		return 0, false
	}
}

func floatToInt(f float64, strict bool) (int, bool) {
	if strict || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int(f), true
}

func toFloat(v any, strict bool) (float64, bool) {
	switch f := v.(type) {
	case float64:
		return f, true
	case float32:
		return float64(f), true
	}
	if strict {
		return 0, false
	}
	if _, isBool := v.(bool); isBool {
		return 0, false
	}
	n, ok := toInt(v, true)
	if !ok {
		return 0, false
	}
	return float64(n), true
}

func assignableTo(v any, types []reflect.Type) bool {
	t := reflect.TypeOf(v)
	for _, want := range types {
		if t.AssignableTo(want) {
			return true
		}
	}
	return false
}

func typeNames(types []reflect.Type) string {
	switch len(types) {
	case 0:
		return "nothing"
	case 1:
		return types[0].String()
	}
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return fmt.Sprintf("one of %v", names)
}
