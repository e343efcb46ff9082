package schema

import (
	"fmt"
	"reflect"

	"github.com/seanpm2001/atom/internal/atom"
	"github.com/seanpm2001/atom/internal/decl"
)

// Kinds lists the member kinds a document may use.
var Kinds = []string{
	"value", "int", "float", "str", "bool", "bytes", "enum", "range", "float_range",
	"list", "dict", "ref", "event", "signal", "constant",
}

// Build creates a sealed class for every class definition in doc.
func Build(doc *Document) ([]*atom.Class, error) {
	classes := make([]*atom.Class, 0, len(doc.Classes))
	seen := make(map[string]bool, len(doc.Classes))
	for _, def := range doc.Classes {
		if seen[def.Name] {
			return nil, &DefinitionError{Class: def.Name, Err: fmt.Errorf("%w: defined twice", atom.ErrDuplicateClass)}
		}
		seen[def.Name] = true

		c, err := BuildClass(def)
		if err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}
	return classes, nil
}

// BuildClass creates a sealed class from def.
func BuildClass(def ClassDef) (*atom.Class, error) {
	if def.Name == "" {
		return nil, &DefinitionError{Class: "<unnamed>", Err: fmt.Errorf("%w: name", ErrMissingField)}
	}

	b := decl.Define(def.Name)
	for _, md := range def.Members {
		if md.Name == "" {
			return nil, &DefinitionError{Class: def.Name, Err: fmt.Errorf("%w: member name", ErrMissingField)}
		}
		m, err := buildMember(md.Name, &md)
		if err != nil {
			return nil, &DefinitionError{Class: def.Name, Member: md.Name, Err: err}
		}
		b.Add(m)
		for _, source := range md.DependsOn {
			b.DependOn(source, md.Name)
		}
		b.EmitOn(md.Name, md.Emits...)
	}

	c, err := b.Build()
	if err != nil {
		return nil, &DefinitionError{Class: def.Name, Err: err}
	}
	return c, nil
}

// buildMember converts a member definition. Nested item, key and value
// definitions may omit their name.
func buildMember(name string, md *MemberDef) (*atom.Member, error) {
	if md.Name != "" {
		name = md.Name
	}

	var opts []atom.MemberOption
	if md.Doc != "" {
		opts = append(opts, decl.Doc(md.Doc))
	}
	if md.ReadOnly {
		opts = append(opts, decl.ReadOnly())
	}

	switch md.Kind {
	case "value":
		return decl.Value(name, md.Default, opts...), nil

	case "int":
		def, err := intField("default", md.Default, 0)
		if err != nil {
			return nil, err
		}
		if md.Coerce {
			return decl.Coerced(name, reflect.TypeOf(0), decl.CoerceInt, def, opts...), nil
		}
		return decl.Int(name, def, opts...), nil

	case "float":
		def, err := floatField("default", md.Default, 0)
		if err != nil {
			return nil, err
		}
		if md.Coerce {
			return decl.Coerced(name, reflect.TypeOf(0.0), decl.CoerceFloat, def, opts...), nil
		}
		return decl.Float(name, def, opts...), nil

	case "str":
		def, ok := md.Default.(string)
		if md.Default != nil && !ok {
			return nil, fmt.Errorf("%w: default must be a string", ErrInvalidField)
		}
		if md.Coerce {
			return decl.Coerced(name, reflect.TypeOf(""), decl.CoerceStr, def, opts...), nil
		}
		return decl.Str(name, def, opts...), nil

	case "bool":
		def, ok := md.Default.(bool)
		if md.Default != nil && !ok {
			return nil, fmt.Errorf("%w: default must be a bool", ErrInvalidField)
		}
		if md.Coerce {
			return decl.Coerced(name, reflect.TypeOf(false), decl.CoerceBool, def, opts...), nil
		}
		return decl.Bool(name, def, opts...), nil

	case "bytes":
		def, ok := md.Default.(string)
		if md.Default != nil && !ok {
			return nil, fmt.Errorf("%w: default must be a string", ErrInvalidField)
		}
		return decl.Bytes(name, []byte(def), opts...), nil

	case "enum":
		if len(md.Items) == 0 {
			return nil, fmt.Errorf("%w: items", ErrMissingField)
		}
		items := md.Items
		if md.Default != nil {
			items = reorderDefault(items, md.Default)
			if items == nil {
				return nil, fmt.Errorf("%w: default %v is not one of the items", ErrInvalidField, md.Default)
			}
		}
		return decl.Enum(name, items, opts...), nil

	case "range":
		low, err := optionalInt("low", md.Low)
		if err != nil {
			return nil, err
		}
		high, err := optionalInt("high", md.High)
		if err != nil {
			return nil, err
		}
		if md.Default != nil {
			def, err := intField("default", md.Default, 0)
			if err != nil {
				return nil, err
			}
			opts = append(opts, atom.WithDefault(atom.StaticDefault(def)))
		}
		return decl.Range(name, low, high, opts...), nil

	case "float_range":
		low, err := optionalFloat("low", md.Low)
		if err != nil {
			return nil, err
		}
		high, err := optionalFloat("high", md.High)
		if err != nil {
			return nil, err
		}
		if md.Default != nil {
			def, err := floatField("default", md.Default, 0)
			if err != nil {
				return nil, err
			}
			opts = append(opts, atom.WithDefault(atom.StaticDefault(def)))
		}
		return decl.FloatRange(name, low, high, opts...), nil

	case "list":
		item, err := subMember(name+"[]", md.Item)
		if err != nil {
			return nil, err
		}
		return decl.List(name, item, opts...), nil

	case "dict":
		key, err := subMember(name+".key", md.Key)
		if err != nil {
			return nil, err
		}
		value, err := subMember(name+".value", md.Value)
		if err != nil {
			return nil, err
		}
		return decl.Dict(name, key, value, opts...), nil

	case "ref":
		item, err := subMember(name+".ref", md.Item)
		if err != nil {
			return nil, err
		}
		return decl.Ref(name, item, opts...), nil

	case "event":
		item, err := subMember(name+".event", md.Item)
		if err != nil {
			return nil, err
		}
		return decl.Event(name, item, opts...), nil

	case "signal":
		return decl.Signal(name, opts...), nil

	case "constant":
		return decl.Constant(name, md.Default, opts...), nil

	case "":
		return nil, fmt.Errorf("%w: kind", ErrMissingField)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, md.Kind)
	}
}

func subMember(name string, md *MemberDef) (*atom.Member, error) {
	if md == nil {
		return nil, nil
	}
	if len(md.DependsOn) > 0 || len(md.Emits) > 0 {
		return nil, fmt.Errorf("%w: %s cannot declare dependencies", ErrInvalidField, name)
	}
	return buildMember(name, md)
}

func reorderDefault(items []any, def any) []any {
	for i, item := range items {
		if reflect.DeepEqual(item, def) {
			out := append([]any{item}, items[:i]...)
			return append(out, items[i+1:]...)
		}
	}
	return nil
}

func intField(field string, v any, def int) (int, error) {
	switch x := v.(type) {
	case nil:
		return def, nil
	case int:
		return x, nil
	default:
		return 0, fmt.Errorf("%w: %s must be an integer, got %T", ErrInvalidField, field, v)
	}
}

func floatField(field string, v any, def float64) (float64, error) {
	switch x := v.(type) {
	case nil:
		return def, nil
	case int:
		return float64(x), nil
	case float64:
		return x, nil
	default:
		return 0, fmt.Errorf("%w: %s must be a number, got %T", ErrInvalidField, field, v)
	}
}

func optionalInt(field string, v any) (*int, error) {
	if v == nil {
		return nil, nil
	}
	n, err := intField(field, v, 0)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func optionalFloat(field string, v any) (*float64, error) {
	if v == nil {
		return nil, nil
	}
	f, err := floatField(field, v, 0)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
