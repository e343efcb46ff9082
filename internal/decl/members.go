package decl

import (
	"reflect"

	"github.com/seanpm2001/atom/internal/atom"
)

func member(name string, base []atom.MemberOption, opts []atom.MemberOption) *atom.Member {
	return atom.NewMember(name, append(base, opts...)...)
}

// Value declares an unvalidated member with a static default.
func Value(name string, def any, opts ...atom.MemberOption) *atom.Member {
	return member(name, []atom.MemberOption{
		atom.WithDefault(atom.StaticDefault(def)),
	}, opts)
}

// Int declares an integer member. Floats are rejected.
func Int(name string, def int, opts ...atom.MemberOption) *atom.Member {
	return member(name, []atom.MemberOption{
		atom.WithDefault(atom.StaticDefault(def)),
		atom.WithValidate(atom.IntValidator(true)),
	}, opts)
}

// Float declares a float64 member. Integers are promoted.
func Float(name string, def float64, opts ...atom.MemberOption) *atom.Member {
	return member(name, []atom.MemberOption{
		atom.WithDefault(atom.StaticDefault(def)),
		atom.WithValidate(atom.FloatValidator(false)),
	}, opts)
}

// Str declares a string member.
func Str(name string, def string, opts ...atom.MemberOption) *atom.Member {
	return member(name, []atom.MemberOption{
		atom.WithDefault(atom.StaticDefault(def)),
		atom.WithValidate(atom.StrValidator()),
	}, opts)
}

// Bool declares a bool member.
func Bool(name string, def bool, opts ...atom.MemberOption) *atom.Member {
	return member(name, []atom.MemberOption{
		atom.WithDefault(atom.StaticDefault(def)),
		atom.WithValidate(atom.BoolValidator()),
	}, opts)
}

// Bytes declares a []byte member. Each atom gets its own copy of def.
func Bytes(name string, def []byte, opts ...atom.MemberOption) *atom.Member {
	return member(name, []atom.MemberOption{
		atom.WithDefault(atom.FactoryDefault(func() (any, error) {
			return append([]byte{}, def...), nil
		})),
		atom.WithValidate(atom.BytesValidator()),
	}, opts)
}

// Enum declares a member restricted to items. The first item is the default.
func Enum(name string, items []any, opts ...atom.MemberOption) *atom.Member {
	base := []atom.MemberOption{atom.WithValidate(atom.EnumValidator(items...))}
	if len(items) > 0 {
		base = append(base, atom.WithDefault(atom.StaticDefault(items[0])))
	}
	return member(name, base, opts)
}

// Range declares an integer member bounded by [low, high]; nil bounds are
// open. The default is low, or 0 when low is nil.
func Range(name string, low, high *int, opts ...atom.MemberOption) *atom.Member {
	def := 0
	if low != nil {
		def = *low
	}
	return member(name, []atom.MemberOption{
		atom.WithDefault(atom.StaticDefault(def)),
		atom.WithValidate(atom.RangeValidator(low, high)),
	}, opts)
}

// FloatRange declares a float64 member bounded by [low, high].
// The default is low, or 0 when low is nil.
func FloatRange(name string, low, high *float64, opts ...atom.MemberOption) *atom.Member {
	def := 0.0
	if low != nil {
		def = *low
	}
	return member(name, []atom.MemberOption{
		atom.WithDefault(atom.StaticDefault(def)),
		atom.WithValidate(atom.FloatRangeValidator(low, high)),
	}, opts)
}

// Instance declares a member holding a non-nil value of one of types.
// It reads as nil until written.
func Instance(name string, types []reflect.Type, opts ...atom.MemberOption) *atom.Member {
	return member(name, []atom.MemberOption{
		atom.WithValidate(atom.InstanceValidator(types...)),
	}, opts)
}

// Typed declares a member holding nil or a value of type t.
func Typed(name string, t reflect.Type, opts ...atom.MemberOption) *atom.Member {
	return member(name, []atom.MemberOption{
		atom.WithValidate(atom.TypedValidator(t)),
	}, opts)
}

// Coerced declares a member of type t converting other values with coerce.
func Coerced(name string, t reflect.Type, coerce atom.Coercer, def any, opts ...atom.MemberOption) *atom.Member {
	return member(name, []atom.MemberOption{
		atom.WithDefault(atom.StaticDefault(def)),
		atom.WithValidate(atom.CoercedValidator(t, coerce)),
	}, opts)
}

// Callable declares a member holding nil or a function.
func Callable(name string, opts ...atom.MemberOption) *atom.Member {
	return member(name, []atom.MemberOption{
		atom.WithValidate(atom.CallableValidator()),
	}, opts)
}

// List declares an observable list member with an optional item member.
func List(name string, item *atom.Member, opts ...atom.MemberOption) *atom.Member {
	return member(name, []atom.MemberOption{
		atom.WithDefault(atom.ListDefault()),
		atom.WithValidate(atom.ListValidator(item)),
	}, opts)
}

// Dict declares an observable dict member with optional key and value members.
func Dict(name string, key, value *atom.Member, opts ...atom.MemberOption) *atom.Member {
	return member(name, []atom.MemberOption{
		atom.WithDefault(atom.DictDefault()),
		atom.WithValidate(atom.DictValidator(key, value)),
	}, opts)
}

// Ref declares an observable reference member. The reference starts out
// holding nil, so inner must accept nil if the member is read before it is
// written.
func Ref(name string, inner *atom.Member, opts ...atom.MemberOption) *atom.Member {
	return member(name, []atom.MemberOption{
		atom.WithDefault(atom.StaticDefault(nil)),
		atom.WithValidate(atom.RefValidator(inner)),
	}, opts)
}

// Event declares an event member. Writes are validated with item, when
// non-nil, and delivered to observers without being stored.
func Event(name string, item *atom.Member, opts ...atom.MemberOption) *atom.Member {
	base := []atom.MemberOption{atom.WithAccess(atom.EventAccess())}
	if item != nil {
		base = append(base, atom.WithValidate(atom.DelegateValidator(item)))
	}
	return member(name, base, opts)
}

// Signal declares a signal member.
func Signal(name string, opts ...atom.MemberOption) *atom.Member {
	return member(name, []atom.MemberOption{atom.WithAccess(atom.SignalAccess())}, opts)
}

// Constant declares a member that always reads v.
func Constant(name string, v any, opts ...atom.MemberOption) *atom.Member {
	return member(name, []atom.MemberOption{
		atom.WithAccess(atom.ConstantAccess()),
		atom.WithDefault(atom.StaticDefault(v)),
	}, opts)
}

// Property declares a member computed by get and optionally written by
// set and deleted by del.
func Property(name string, get atom.Getter, set atom.Setter, del atom.Deleter, opts ...atom.MemberOption) *atom.Member {
	return member(name, []atom.MemberOption{
		atom.WithAccess(atom.PropertyAccess(get, set, del)),
	}, opts)
}

// CachedProperty declares a member computed once by get and cached until
// it is reset.
func CachedProperty(name string, get atom.Getter, opts ...atom.MemberOption) *atom.Member {
	return member(name, []atom.MemberOption{
		atom.WithAccess(atom.CachedPropertyAccess(get)),
	}, opts)
}

// Delegate declares a member that takes its default and validation from
// another member.
func Delegate(name string, to *atom.Member, opts ...atom.MemberOption) *atom.Member {
	return member(name, []atom.MemberOption{
		atom.WithDefault(atom.DelegateDefault(to)),
		atom.WithValidate(atom.DelegateValidator(to)),
	}, opts)
}

// ReadOnly makes a member writable only while it is unset.
func ReadOnly() atom.MemberOption {
	return atom.WithAccess(atom.ReadOnlyAccess())
}

// Doc attaches a documentation string as "doc" metadata.
func Doc(text string) atom.MemberOption {
	return atom.WithMetadata("doc", text)
}
