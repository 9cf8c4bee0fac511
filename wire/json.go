package wire

import (
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/givelotus/chronik-go/registry"
	"github.com/givelotus/chronik-go/schema"
)

// ToPlainObject projects a message onto JSON-friendly values: lowerCamelCase
// keys, bytes as standard base64, 64-bit integers as decimal strings, enums
// by name (or number when unrecognized). Absent sub-messages are omitted.
// The input may be partial; missing fields are projected as defaults.
func ToPlainObject(data map[string]interface{}, msg *schema.Message, reg *registry.Registry) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(msg.Fields))
	for _, field := range msg.Fields {
		value, ok := data[field.Name]
		if !ok {
			value, ok = data[jsonKey(field)]
		}
		if !ok || value == nil {
			value = DefaultValue(field, reg)
		}
		if value == nil {
			continue // absent sub-message
		}

		var (
			projected interface{}
			err       error
		)
		if field.Label == schema.LabelRepeated {
			projected, err = projectRepeated(value, field, reg)
		} else {
			projected, err = projectSingle(value, field, reg)
		}
		if err != nil {
			return nil, wrapWithField(err, field.Name)
		}
		out[jsonKey(field)] = projected
	}
	return out, nil
}

func projectRepeated(value interface{}, field *schema.Field, reg *registry.Registry) ([]interface{}, error) {
	slice, err := toInterfaceSlice(value)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, len(slice))
	for i, element := range slice {
		v, err := projectSingle(element, field, reg)
		if err != nil {
			return nil, wrapWithField(err, strconv.Itoa(i))
		}
		out[i] = v
	}
	return out, nil
}

func projectSingle(value interface{}, field *schema.Field, reg *registry.Registry) (interface{}, error) {
	switch field.Type.Kind {
	case schema.KindMessage:
		data, present, err := toMessageMap(value)
		if err != nil {
			return nil, err
		}
		if !present {
			return nil, fmt.Errorf("%w: repeated message element is nil", ErrTypeMismatch)
		}
		sub, err := lookupMessage(reg, field.Type.MessageType)
		if err != nil {
			return nil, err
		}
		return ToPlainObject(data, sub, reg)
	case schema.KindEnum:
		enum, err := lookupEnum(reg, field.Type.EnumType)
		if err != nil {
			return nil, err
		}
		ev, err := normalizeEnum(value, enum)
		if err != nil {
			return nil, err
		}
		if ev.Known() {
			return ev.Name, nil
		}
		return ev.Number, nil
	}

	v, err := normalizePrimitive(value, field.Type.PrimitiveType)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case []byte:
		return base64.StdEncoding.EncodeToString(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case uint64:
		return strconv.FormatUint(t, 10), nil
	}
	return v, nil
}

// FromPlainObject is the inverse of ToPlainObject. Keys may be lowerCamelCase
// or proto field names; bytes are base64 strings; integers may be numbers or
// decimal strings; enums may be names or numbers. Missing or null fields take
// their default and unknown keys are ignored. The result is a complete
// message keyed by proto field name.
func FromPlainObject(obj map[string]interface{}, msg *schema.Message, reg *registry.Registry) (map[string]interface{}, error) {
	result := make(map[string]interface{}, len(msg.Fields))
	for key, value := range obj {
		field := msg.FieldByName(key)
		if field == nil {
			continue
		}
		if _, dup := result[field.Name]; dup {
			return nil, wrapWithField(fmt.Errorf("field set under both %s and %s", field.Name, jsonKey(field)), field.Name)
		}
		if value == nil {
			result[field.Name] = DefaultValue(field, reg)
			continue
		}

		var (
			v   interface{}
			err error
		)
		if field.Label == schema.LabelRepeated {
			v, err = parseRepeated(value, field, reg)
		} else {
			v, err = parseSingle(value, field, reg)
		}
		if err != nil {
			return nil, wrapWithField(err, field.Name)
		}
		result[field.Name] = v
	}
	fillDefaults(result, msg, reg)
	return result, nil
}

func parseRepeated(value interface{}, field *schema.Field, reg *registry.Registry) ([]interface{}, error) {
	slice, err := toInterfaceSlice(value)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, len(slice))
	for i, element := range slice {
		v, err := parseSingle(element, field, reg)
		if err != nil {
			return nil, wrapWithField(err, strconv.Itoa(i))
		}
		out[i] = v
	}
	return out, nil
}

func parseSingle(value interface{}, field *schema.Field, reg *registry.Registry) (interface{}, error) {
	switch field.Type.Kind {
	case schema.KindMessage:
		data, present, err := toMessageMap(value)
		if err != nil {
			return nil, err
		}
		if !present {
			return nil, fmt.Errorf("%w: message is null", ErrTypeMismatch)
		}
		sub, err := lookupMessage(reg, field.Type.MessageType)
		if err != nil {
			return nil, err
		}
		return FromPlainObject(data, sub, reg)
	case schema.KindEnum:
		enum, err := lookupEnum(reg, field.Type.EnumType)
		if err != nil {
			return nil, err
		}
		return normalizeEnum(value, enum)
	}

	if field.Type.PrimitiveType == schema.TypeBytes {
		if s, ok := value.(string); ok {
			return decodeBase64(s)
		}
	}
	return normalizePrimitive(value, field.Type.PrimitiveType)
}

// decodeBase64 accepts standard or URL-safe base64, padded or not.
func decodeBase64(s string) ([]byte, error) {
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, nil
		}
	}
	return nil, fmt.Errorf("%w: %q is not base64", ErrTypeMismatch, s)
}
