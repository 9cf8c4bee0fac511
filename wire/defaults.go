package wire

import (
	"fmt"
	"strconv"

	"github.com/givelotus/chronik-go/registry"
	"github.com/givelotus/chronik-go/schema"
)

// DefaultValue returns the value an absent field reads as: zero numbers,
// false, "", empty bytes, an empty list, a nil sub-message or the enum
// value numbered 0. Unset oneof members are nil whatever their type, so
// the member that was set stays distinguishable.
func DefaultValue(field *schema.Field, reg *registry.Registry) interface{} {
	if field.Label == schema.LabelRepeated {
		return []interface{}{}
	}
	if field.Oneof != "" {
		return nil
	}
	switch field.Type.Kind {
	case schema.KindMessage:
		return nil
	case schema.KindEnum:
		enum, err := lookupEnum(reg, field.Type.EnumType)
		if err != nil {
			return EnumValue{}
		}
		return enumValueOf(enum, 0)
	}
	switch field.Type.PrimitiveType {
	case schema.TypeInt32, schema.TypeSint32, schema.TypeSfixed32:
		return int32(0)
	case schema.TypeInt64, schema.TypeSint64, schema.TypeSfixed64:
		return int64(0)
	case schema.TypeUint32, schema.TypeFixed32:
		return uint32(0)
	case schema.TypeUint64, schema.TypeFixed64:
		return uint64(0)
	case schema.TypeBool:
		return false
	case schema.TypeString:
		return ""
	case schema.TypeBytes:
		return []byte{}
	case schema.TypeFloat:
		return float32(0)
	case schema.TypeDouble:
		return float64(0)
	}
	return nil
}

// fillDefaults sets every field missing from result to its default.
func fillDefaults(result map[string]interface{}, msg *schema.Message, reg *registry.Registry) {
	for _, field := range msg.Fields {
		if _, ok := result[field.Name]; !ok {
			result[field.Name] = DefaultValue(field, reg)
		}
	}
}

// WithDefaults builds a complete message from a partial one. Keys may be
// proto or JSON field names; the result is keyed by proto name. Values are
// converted to their canonical Go type (range checked), provided
// sub-messages and repeated sub-messages are normalized recursively, and
// every unset field gets its default. Unknown keys are rejected.
func WithDefaults(partial map[string]interface{}, msg *schema.Message, reg *registry.Registry) (map[string]interface{}, error) {
	result := make(map[string]interface{}, len(msg.Fields))
	for key, value := range partial {
		field := msg.FieldByName(key)
		if field == nil {
			return nil, wrapWithField(ErrUnknownField, key)
		}
		if _, dup := result[field.Name]; dup {
			return nil, wrapWithField(fmt.Errorf("field set under both %s and %s", field.Name, jsonKey(field)), field.Name)
		}
		v, err := normalizeField(value, field, reg)
		if err != nil {
			return nil, wrapWithField(err, field.Name)
		}
		result[field.Name] = v
	}
	fillDefaults(result, msg, reg)
	return result, nil
}

func normalizeField(value interface{}, field *schema.Field, reg *registry.Registry) (interface{}, error) {
	if value == nil {
		return DefaultValue(field, reg), nil
	}
	if field.Label != schema.LabelRepeated {
		return normalizeSingle(value, field, reg)
	}
	slice, err := toInterfaceSlice(value)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, len(slice))
	for i, element := range slice {
		if element == nil && field.Type.Kind == schema.KindMessage {
			return nil, wrapWithField(fmt.Errorf("%w: repeated message element is nil", ErrTypeMismatch), strconv.Itoa(i))
		}
		v, err := normalizeSingle(element, field, reg)
		if err != nil {
			return nil, wrapWithField(err, strconv.Itoa(i))
		}
		out[i] = v
	}
	return out, nil
}

func normalizeSingle(value interface{}, field *schema.Field, reg *registry.Registry) (interface{}, error) {
	switch field.Type.Kind {
	case schema.KindPrimitive:
		return normalizePrimitive(value, field.Type.PrimitiveType)
	case schema.KindEnum:
		enum, err := lookupEnum(reg, field.Type.EnumType)
		if err != nil {
			return nil, err
		}
		return normalizeEnum(value, enum)
	case schema.KindMessage:
		data, present, err := toMessageMap(value)
		if err != nil || !present {
			return nil, err
		}
		sub, err := lookupMessage(reg, field.Type.MessageType)
		if err != nil {
			return nil, err
		}
		return WithDefaults(data, sub, reg)
	}
	return nil, fmt.Errorf("unsupported field type: %s", field.Type.Kind)
}

// ENUM HELPERS

func lookupEnum(reg *registry.Registry, name string) (*schema.Enum, error) {
	if reg == nil {
		return nil, fmt.Errorf("registry is required to resolve enum %s", name)
	}
	return reg.GetEnum(name)
}

func lookupMessage(reg *registry.Registry, name string) (*schema.Message, error) {
	if reg == nil {
		return nil, fmt.Errorf("registry is required to resolve message %s", name)
	}
	return reg.GetMessage(name)
}

// enumValueOf names a wire number, or returns the unrecognized sentinel.
func enumValueOf(enum *schema.Enum, number int32) EnumValue {
	if v := enum.ValueByNumber(number); v != nil {
		return EnumValue{Number: number, Name: v.Name}
	}
	return EnumValue{Number: number}
}

// normalizeEnum accepts an EnumValue, a symbolic name or an integer. The
// number always wins over a carried name, so values move between schema
// generations by number.
func normalizeEnum(value interface{}, enum *schema.Enum) (EnumValue, error) {
	switch v := value.(type) {
	case EnumValue:
		return enumValueOf(enum, v.Number), nil
	case *EnumValue:
		if v == nil {
			return enumValueOf(enum, 0), nil
		}
		return enumValueOf(enum, v.Number), nil
	case string:
		if ev := enum.ValueByName(v); ev != nil {
			return enumValueOf(enum, ev.Number), nil
		}
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			return enumValueOf(enum, int32(n)), nil
		}
		return EnumValue{}, fmt.Errorf("%w: %q is not a value of %s", ErrUnknownEnum, v, enum.Name)
	}
	n, err := coerceToInt32(value)
	if err != nil {
		return EnumValue{}, err
	}
	return enumValueOf(enum, n), nil
}
