package decl

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CoerceInt converts integral floats and decimal strings to int.
func CoerceInt(v any) (any, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		if x != math.Trunc(x) {
			return nil, fmt.Errorf("%v has a fractional part", x)
		}
		return int(x), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(x))
	default:
		return nil, fmt.Errorf("cannot convert %T to int", v)
	}
}

// CoerceFloat converts integers and numeric strings to float64.
func CoerceFloat(v any) (any, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	default:
		return nil, fmt.Errorf("cannot convert %T to float", v)
	}
}

// CoerceStr formats any value as a string.
func CoerceStr(v any) (any, error) {
	if v == nil {
		return nil, fmt.Errorf("cannot convert nil to string")
	}
	return fmt.Sprint(v), nil
}

// CoerceBool parses strings with strconv.ParseBool.
func CoerceBool(v any) (any, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(x))
	default:
		return nil, fmt.Errorf("cannot convert %T to bool", v)
	}
}
