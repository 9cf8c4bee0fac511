package wire

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/givelotus/chronik-go/schema"
)

// toLowerCamel converts snake_case to lowerCamelCase
func toLowerCamel(s string) string {
	if s == "" {
		return s
	}
	out := make([]byte, 0, len(s))
	upperNext := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '_' {
			upperNext = true
			continue
		}
		if len(out) == 0 {
			// first rune lowercased
			if c >= 'A' && c <= 'Z' {
				c = c - 'A' + 'a'
			}
			out = append(out, c)
			upperNext = false
			continue
		}
		if upperNext {
			if c >= 'a' && c <= 'z' {
				c = c - 'a' + 'A'
			}
			upperNext = false
		}
		out = append(out, c)
	}
	return string(out)
}

// jsonKey returns the plain-object key of a field.
func jsonKey(field *schema.Field) string {
	if field.JsonName != "" {
		return field.JsonName
	}
	return toLowerCamel(field.Name)
}

// Helpers to coerce inputs to integers (accept exponent/float forms if integral)
func coerceToInt64(v interface{}) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case int32:
		return int64(t), nil
	case int:
		return int64(t), nil
	case int16:
		return int64(t), nil
	case int8:
		return int64(t), nil
	case uint64:
		if t > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d overflows int64", ErrOutOfRange, t)
		}
		return int64(t), nil
	case uint32:
		return int64(t), nil
	case uint:
		if uint64(t) > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d overflows int64", ErrOutOfRange, t)
		}
		return int64(t), nil
	case uint16:
		return int64(t), nil
	case uint8:
		return int64(t), nil
	case json.Number:
		// Try integer first
		if iv, err := t.Int64(); err == nil {
			return iv, nil
		}
		return coerceToInt64(t.String())
	case float64:
		return floatToInt64(t)
	case float32:
		return floatToInt64(float64(t))
	case string:
		// allow explicit integer strings
		if strings.ContainsAny(t, ".eE") {
			f, err := strconv.ParseFloat(t, 64)
			if err != nil {
				return 0, fmt.Errorf("%w: %q is not a number", ErrTypeMismatch, t)
			}
			return floatToInt64(f)
		}
		iv, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an int64", ErrTypeMismatch, t)
		}
		return iv, nil
	default:
		return 0, typeMismatch("integer", v)
	}
}

func coerceToUint64(v interface{}) (uint64, error) {
	switch t := v.(type) {
	case uint64:
		return t, nil
	case uint32:
		return uint64(t), nil
	case uint:
		return uint64(t), nil
	case uint16:
		return uint64(t), nil
	case uint8:
		return uint64(t), nil
	case int64, int32, int, int16, int8:
		iv, _ := coerceToInt64(t)
		if iv < 0 {
			return 0, fmt.Errorf("%w: %d is negative", ErrOutOfRange, iv)
		}
		return uint64(iv), nil
	case json.Number:
		if uv, err := strconv.ParseUint(t.String(), 10, 64); err == nil {
			return uv, nil
		}
		return coerceToUint64(t.String())
	case float64:
		return floatToUint64(t)
	case float32:
		return floatToUint64(float64(t))
	case string:
		if strings.ContainsAny(t, ".eE") {
			f, err := strconv.ParseFloat(t, 64)
			if err != nil {
				return 0, fmt.Errorf("%w: %q is not a number", ErrTypeMismatch, t)
			}
			return floatToUint64(f)
		}
		uv, err := strconv.ParseUint(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a uint64", ErrTypeMismatch, t)
		}
		return uv, nil
	default:
		return 0, typeMismatch("unsigned integer", v)
	}
}

func floatToInt64(f float64) (int64, error) {
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: non-integer numeric %v for integer field", ErrTypeMismatch, f)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %v overflows int64", ErrOutOfRange, f)
	}
	return int64(f), nil
}

func floatToUint64(f float64) (uint64, error) {
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: non-integer numeric %v for unsigned field", ErrTypeMismatch, f)
	}
	if f < 0 || f >= math.MaxUint64 {
		return 0, fmt.Errorf("%w: %v overflows uint64", ErrOutOfRange, f)
	}
	return uint64(f), nil
}

func coerceToInt32(v interface{}) (int32, error) {
	iv, err := coerceToInt64(v)
	if err != nil {
		return 0, err
	}
	if iv < math.MinInt32 || iv > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %d overflows int32", ErrOutOfRange, iv)
	}
	return int32(iv), nil
}

func coerceToUint32(v interface{}) (uint32, error) {
	uv, err := coerceToUint64(v)
	if err != nil {
		return 0, err
	}
	if uv > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d overflows uint32", ErrOutOfRange, uv)
	}
	return uint32(uv), nil
}

func coerceToFloat64(v interface{}) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case json.Number:
		return t.Float64()
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrTypeMismatch, t)
		}
		return f, nil
	}
	if iv, err := coerceToInt64(v); err == nil {
		return float64(iv), nil
	}
	if uv, err := coerceToUint64(v); err == nil {
		return float64(uv), nil
	}
	return 0, typeMismatch("number", v)
}

// normalizePrimitive converts a Go value to the canonical representation of
// the primitive type: int32, int64, uint32, uint64, bool, string, []byte,
// float32 or float64. Integer conversions are range checked.
func normalizePrimitive(value interface{}, pt schema.PrimitiveType) (interface{}, error) {
	switch pt {
	case schema.TypeInt32, schema.TypeSint32, schema.TypeSfixed32:
		return coerceToInt32(value)
	case schema.TypeInt64, schema.TypeSint64, schema.TypeSfixed64:
		return coerceToInt64(value)
	case schema.TypeUint32, schema.TypeFixed32:
		return coerceToUint32(value)
	case schema.TypeUint64, schema.TypeFixed64:
		return coerceToUint64(value)
	case schema.TypeBool:
		b, ok := value.(bool)
		if !ok {
			return nil, typeMismatch("bool", value)
		}
		return b, nil
	case schema.TypeString:
		s, ok := value.(string)
		if !ok {
			return nil, typeMismatch("string", value)
		}
		return s, nil
	case schema.TypeBytes:
		b, ok := value.([]byte)
		if !ok {
			return nil, typeMismatch("[]byte", value)
		}
		if b == nil {
			return []byte{}, nil
		}
		return b, nil
	case schema.TypeFloat:
		f, err := coerceToFloat64(value)
		if err != nil {
			return nil, err
		}
		return float32(f), nil
	case schema.TypeDouble:
		return coerceToFloat64(value)
	default:
		return nil, fmt.Errorf("unsupported primitive type: %s", pt)
	}
}

// isZeroPrimitive reports whether a normalized primitive equals its type
// default and must therefore be left off the wire.
func isZeroPrimitive(value interface{}) bool {
	switch v := value.(type) {
	case int32:
		return v == 0
	case int64:
		return v == 0
	case uint32:
		return v == 0
	case uint64:
		return v == 0
	case bool:
		return !v
	case string:
		return v == ""
	case []byte:
		return len(v) == 0
	case float32:
		return v == 0 && !math.Signbit(float64(v))
	case float64:
		return v == 0 && !math.Signbit(v)
	}
	return false
}

// toInterfaceSlice accepts any slice type as the value of a repeated field.
// nil yields an empty slice.
func toInterfaceSlice(value interface{}) ([]interface{}, error) {
	if value == nil {
		return []interface{}{}, nil
	}
	if s, ok := value.([]interface{}); ok {
		return s, nil
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, typeMismatch("slice", value)
	}
	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

// toMessageMap accepts a sub-message value. nil is an absent message.
func toMessageMap(value interface{}) (map[string]interface{}, bool, error) {
	switch v := value.(type) {
	case nil:
		return nil, false, nil
	case map[string]interface{}:
		if v == nil {
			return nil, false, nil
		}
		return v, true, nil
	default:
		return nil, false, typeMismatch("map[string]interface{}", value)
	}
}
