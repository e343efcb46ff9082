package atom

import "reflect"

// AccessKind selects how a member's slot is read, written and deleted.
type AccessKind uint8

const (
	// AccessSlot stores the value in the slot (the default).
	AccessSlot AccessKind = iota

	// AccessReadOnly allows a single write while the slot is unset.
	AccessReadOnly

	// AccessConstant always reads the default value and rejects writes.
	AccessConstant

	// AccessEvent validates and notifies on write without storing.
	AccessEvent

	// AccessSignal is a named signal; see Atom.Emit.
	AccessSignal

	// AccessProperty delegates reads, writes and deletes to functions.
	AccessProperty

	// AccessCachedProperty computes the value once and caches it in the slot.
	AccessCachedProperty
)

// String returns the access kind name.
func (k AccessKind) String() string {
	switch k {
	case AccessSlot:
		return "slot"
	case AccessReadOnly:
		return "readonly"
	case AccessConstant:
		return "constant"
	case AccessEvent:
		return "event"
	case AccessSignal:
		return "signal"
	case AccessProperty:
		return "property"
	case AccessCachedProperty:
		return "cached_property"
	default:
		return "unknown"
	}
}

// Getter computes a property value.
type Getter func(a *Atom) (any, error)

// Setter stores a property value.
type Setter func(a *Atom, value any) error

// Deleter deletes a property value.
type Deleter func(a *Atom) error

// AccessMode is the access behavior of a member.
type AccessMode struct {
	kind    AccessKind
	getter  Getter
	setter  Setter
	deleter Deleter
}

// Kind returns the access kind.
func (m AccessMode) Kind() AccessKind { return m.kind }

// SlotAccess stores values in the slot.
func SlotAccess() AccessMode { return AccessMode{kind: AccessSlot} }

// ReadOnlyAccess allows one write while the slot is unset.
func ReadOnlyAccess() AccessMode { return AccessMode{kind: AccessReadOnly} }

// ConstantAccess always reads the member default.
func ConstantAccess() AccessMode { return AccessMode{kind: AccessConstant} }

// EventAccess makes the member an event: writes notify but are not stored.
func EventAccess() AccessMode { return AccessMode{kind: AccessEvent} }

// SignalAccess makes the member a signal.
func SignalAccess() AccessMode { return AccessMode{kind: AccessSignal} }

// PropertyAccess delegates to the given functions. Nil functions make the
// corresponding operation unsupported.
func PropertyAccess(get Getter, set Setter, del Deleter) AccessMode {
	return AccessMode{kind: AccessProperty, getter: get, setter: set, deleter: del}
}

// CachedPropertyAccess computes the value with get on first read and
// caches it until the slot is reset.
func CachedPropertyAccess(get Getter) AccessMode {
	return AccessMode{kind: AccessCachedProperty, getter: get}
}

// DefaultKind selects how a member computes its initial value.
type DefaultKind uint8

const (
	// DefaultNoOp yields nil.
	DefaultNoOp DefaultKind = iota

	// DefaultStatic yields a fixed value.
	DefaultStatic

	// DefaultList yields a fresh empty list.
	DefaultList

	// DefaultDict yields a fresh empty map.
	DefaultDict

	// DefaultFactory calls a function with no arguments.
	DefaultFactory

	// DefaultCall calls a function with the atom.
	DefaultCall

	// DefaultDelegate uses another member's default.
	DefaultDelegate
)

// String returns the default kind name.
func (k DefaultKind) String() string {
	switch k {
	case DefaultNoOp:
		return "noop"
	case DefaultStatic:
		return "static"
	case DefaultList:
		return "list"
	case DefaultDict:
		return "dict"
	case DefaultFactory:
		return "factory"
	case DefaultCall:
		return "call"
	case DefaultDelegate:
		return "delegate"
	default:
		return "unknown"
	}
}

// DefaultMode is the default-value behavior of a member.
type DefaultMode struct {
	kind     DefaultKind
	value    any
	factory  func() (any, error)
	call     func(a *Atom) (any, error)
	delegate *Member
}

// Kind returns the default kind.
func (m DefaultMode) Kind() DefaultKind { return m.kind }

// Value returns the static default value, if any.
func (m DefaultMode) Value() any { return m.value }

// NoDefault yields nil.
func NoDefault() DefaultMode { return DefaultMode{kind: DefaultNoOp} }

// StaticDefault yields v.
func StaticDefault(v any) DefaultMode { return DefaultMode{kind: DefaultStatic, value: v} }

// ListDefault yields a fresh empty list for every atom.
func ListDefault() DefaultMode { return DefaultMode{kind: DefaultList} }

// DictDefault yields a fresh empty map for every atom.
func DictDefault() DefaultMode { return DefaultMode{kind: DefaultDict} }

// FactoryDefault calls fn for every atom.
func FactoryDefault(fn func() (any, error)) DefaultMode {
	return DefaultMode{kind: DefaultFactory, factory: fn}
}

// CallDefault calls fn with the atom being initialised.
func CallDefault(fn func(a *Atom) (any, error)) DefaultMode {
	return DefaultMode{kind: DefaultCall, call: fn}
}

// DelegateDefault uses the default of another member.
func DelegateDefault(m *Member) DefaultMode {
	return DefaultMode{kind: DefaultDelegate, delegate: m}
}

// ValidateKind selects how a member checks proposed values.
type ValidateKind uint8

const (
	ValidateNoOp ValidateKind = iota
	ValidateBool
	ValidateInt
	ValidateFloat
	ValidateStr
	ValidateBytes
	ValidateEnum
	ValidateRange
	ValidateFloatRange
	ValidateInstance
	ValidateTyped
	ValidateCoerced
	ValidateCallable
	ValidateList
	ValidateDict
	ValidateRef
	ValidateDelegate
	ValidateCall
)

var validateKindNames = [...]string{
	ValidateNoOp:       "noop",
	ValidateBool:       "bool",
	ValidateInt:        "int",
	ValidateFloat:      "float",
	ValidateStr:        "str",
	ValidateBytes:      "bytes",
	ValidateEnum:       "enum",
	ValidateRange:      "range",
	ValidateFloatRange: "float_range",
	ValidateInstance:   "instance",
	ValidateTyped:      "typed",
	ValidateCoerced:    "coerced",
	ValidateCallable:   "callable",
	ValidateList:       "list",
	ValidateDict:       "dict",
	ValidateRef:        "ref",
	ValidateDelegate:   "delegate",
	ValidateCall:       "call",
}

// String returns the validate kind name.
func (k ValidateKind) String() string {
	if int(k) < len(validateKindNames) {
		return validateKindNames[k]
	}
	return "unknown"
}

// ValidateFunc is a custom validator. It returns the accepted value.
type ValidateFunc func(a *Atom, m *Member, old, proposed any) (any, error)

// Coercer converts a value that failed the type check.
type Coercer func(v any) (any, error)

// ValidateMode is the validation behavior of a member.
type ValidateMode struct {
	kind   ValidateKind
	strict bool

	// enum
	items []any

	// range, float_range
	low, high   *int
	flow, fhigh *float64

	// instance, typed, coerced
	types  []reflect.Type
	coerce Coercer

	// list item, dict key/value, ref inner, delegate
	item  *Member
	value *Member

	fn ValidateFunc
}

// Kind returns the validate kind.
func (m ValidateMode) Kind() ValidateKind { return m.kind }

// Items returns the allowed values of an enum validator.
func (m ValidateMode) Items() []any { return append([]any(nil), m.items...) }

// Item returns the element member of a list/ref validator or the key
// member of a dict validator.
func (m ValidateMode) Item() *Member { return m.item }

// NoValidation accepts any value.
func NoValidation() ValidateMode { return ValidateMode{kind: ValidateNoOp} }

// BoolValidator accepts bool values.
func BoolValidator() ValidateMode { return ValidateMode{kind: ValidateBool} }

// IntValidator accepts Go integer values and stores them as int.
// When strict is false, floats with no fractional part are accepted too.
func IntValidator(strict bool) ValidateMode { return ValidateMode{kind: ValidateInt, strict: strict} }

// FloatValidator accepts float values and stores them as float64.
// When strict is false, integers are promoted.
func FloatValidator(strict bool) ValidateMode {
	return ValidateMode{kind: ValidateFloat, strict: strict}
}

// StrValidator accepts string values.
func StrValidator() ValidateMode { return ValidateMode{kind: ValidateStr} }

// BytesValidator accepts []byte values.
func BytesValidator() ValidateMode { return ValidateMode{kind: ValidateBytes} }

// EnumValidator accepts only the given values.
func EnumValidator(items ...any) ValidateMode {
	return ValidateMode{kind: ValidateEnum, items: append([]any(nil), items...)}
}

// RangeValidator accepts integers within [low, high]; nil bounds are open.
func RangeValidator(low, high *int) ValidateMode {
	return ValidateMode{kind: ValidateRange, low: low, high: high}
}

// FloatRangeValidator accepts numbers within [low, high]; nil bounds are open.
// Integers are promoted to float64.
func FloatRangeValidator(low, high *float64) ValidateMode {
	return ValidateMode{kind: ValidateFloatRange, flow: low, fhigh: high}
}

// InstanceValidator accepts non-nil values assignable to one of types.
func InstanceValidator(types ...reflect.Type) ValidateMode {
	return ValidateMode{kind: ValidateInstance, types: types}
}

// TypedValidator accepts nil or values assignable to t.
func TypedValidator(t reflect.Type) ValidateMode {
	return ValidateMode{kind: ValidateTyped, types: []reflect.Type{t}}
}

// CoercedValidator accepts values assignable to t, or converts other
// values with coerce.
func CoercedValidator(t reflect.Type, coerce Coercer) ValidateMode {
	return ValidateMode{kind: ValidateCoerced, types: []reflect.Type{t}, coerce: coerce}
}

// CallableValidator accepts nil or function values.
func CallableValidator() ValidateMode { return ValidateMode{kind: ValidateCallable} }

// ListValidator accepts slices and lists, validating each element with
// item when it is non-nil. The accepted value is an observable *List
// bound to the atom and member.
func ListValidator(item *Member) ValidateMode { return ValidateMode{kind: ValidateList, item: item} }

// DictValidator accepts maps and dicts, validating keys and values with
// the given members when non-nil. The accepted value is an observable
// *Dict bound to the atom and member.
func DictValidator(key, value *Member) ValidateMode {
	return ValidateMode{kind: ValidateDict, item: key, value: value}
}

// RefValidator wraps any value into an observable *Ref bound to the atom
// and member, validating the referenced value with inner when non-nil.
func RefValidator(inner *Member) ValidateMode { return ValidateMode{kind: ValidateRef, item: inner} }

// DelegateValidator validates with another member.
func DelegateValidator(m *Member) ValidateMode { return ValidateMode{kind: ValidateDelegate, item: m} }

// FuncValidator validates with fn.
func FuncValidator(fn ValidateFunc) ValidateMode { return ValidateMode{kind: ValidateCall, fn: fn} }

// HookKind describes whether a post-get, post-set or post-validate hook is configured.
type HookKind uint8

const (
	// HookNoOp means no hook is configured.
	HookNoOp HookKind = iota

	// HookCall means a function hook is configured.
	HookCall
)

// PostGetFunc transforms a value after it is read. The slot is not modified.
type PostGetFunc func(a *Atom, m *Member, value any) (any, error)

// PostSetFunc runs after a write has been stored and notified.
// Old is nil when the slot was previously unset.
type PostSetFunc func(a *Atom, m *Member, old, value any) error

// PostValidateFunc runs after validation and may replace the accepted value.
type PostValidateFunc func(a *Atom, m *Member, old, value any) (any, error)
