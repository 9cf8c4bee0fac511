package wire

import (
	"fmt"

	"github.com/givelotus/chronik-go/registry"
	"github.com/givelotus/chronik-go/schema"
)

// Decoder handles low-level protobuf wire format decoding
type Decoder struct {
	buf      []byte
	pos      int
	registry *registry.Registry
}

// NewDecoder returns a decoder positioned at the start of data.
func NewDecoder(data []byte, reg *registry.Registry) *Decoder {
	return &Decoder{buf: data, registry: reg}
}

// DecodeMessage decodes protobuf bytes using schema - main entry point. The
// result holds every field of msg; fields missing from data carry their
// type default. On error no partial result is returned.
func DecodeMessage(data []byte, msg *schema.Message, registry *registry.Registry) (map[string]interface{}, error) {
	decoder := NewDecoder(data, registry)
	return decoder.DecodeWithSchema(msg)
}

// DecodeMessageLength decodes exactly the first length bytes of data.
func DecodeMessageLength(data []byte, length int, msg *schema.Message, registry *registry.Registry) (map[string]interface{}, error) {
	if length < 0 {
		return nil, fmt.Errorf("failed to decode message %s: negative length %d", msg.Name, length)
	}
	if length > len(data) {
		return nil, fmt.Errorf("failed to decode message %s: need %d bytes, have %d: %w", msg.Name, length, len(data), ErrTruncatedInput)
	}
	return DecodeMessage(data[:length], msg, registry)
}

// DecodeTag reads and validates a field tag
func (d *Decoder) DecodeTag() (FieldNumber, WireType, error) {
	raw, err := d.readVarint()
	if err != nil {
		return 0, 0, err
	}
	tag := Tag(raw)
	if !tag.Valid() {
		num, wt := tag>>3, WireType(tag&0x7)
		return 0, 0, fmt.Errorf("%w: field %d wire type %d", ErrInvalidTag, num, wt)
	}
	fieldNumber, wireType := ParseTag(tag)
	return fieldNumber, wireType, nil
}

// DecodeWithSchema runs the tag loop over the whole buffer
func (d *Decoder) DecodeWithSchema(msg *schema.Message) (map[string]interface{}, error) {
	result := make(map[string]interface{}, len(msg.Fields))
	repeatedCollector := make(map[string][]interface{})

	for d.pos < len(d.buf) {
		fieldNumber, wireType, err := d.DecodeTag()
		if err != nil {
			return nil, fmt.Errorf("failed to decode message %s: %w", msg.Name, err)
		}

		field := msg.FieldByNumber(int32(fieldNumber))
		if field == nil {
			// Unknown field - skip it
			if err := d.skipValue(wireType); err != nil {
				return nil, fmt.Errorf("failed to decode message %s: %w", msg.Name, err)
			}
			continue
		}

		if wireType != getWireType(&field.Type) {
			if field.Label == schema.LabelRepeated && wireType == WireBytes && isPackable(&field.Type) {
				values, err := d.decodePacked(&field.Type)
				if err != nil {
					return nil, fmt.Errorf("failed to decode field %s.%s: %w", msg.Name, field.Name, err)
				}
				repeatedCollector[field.Name] = append(repeatedCollector[field.Name], values...)
				continue
			}
			// A number reused with another type (by a different schema
			// generation) reads as if the field were unknown.
			if err := d.skipValue(wireType); err != nil {
				return nil, fmt.Errorf("failed to decode message %s: %w", msg.Name, err)
			}
			continue
		}

		value, err := d.DecodeTypedField(&field.Type)
		if err != nil {
			return nil, fmt.Errorf("failed to decode field %s.%s: %w", msg.Name, field.Name, err)
		}

		if field.Label == schema.LabelRepeated {
			repeatedCollector[field.Name] = append(repeatedCollector[field.Name], value)
			continue
		}
		if field.Oneof != "" {
			// last member on the wire wins
			for _, sibling := range msg.Fields {
				if sibling.Oneof == field.Oneof && sibling != field {
					delete(result, sibling.Name)
				}
			}
		}
		result[field.Name] = value
	}

	for fieldName, repeatedData := range repeatedCollector {
		result[fieldName] = repeatedData
	}

	fillDefaults(result, msg, d.registry)
	return result, nil
}

// DecodeTypedField routes to the appropriate decoder based on field type
func (d *Decoder) DecodeTypedField(fieldType *schema.FieldType) (interface{}, error) {
	switch fieldType.Kind {
	case schema.KindPrimitive:
		return d.decodeScalar(fieldType.PrimitiveType)
	case schema.KindMessage:
		md := NewMessageDecoder(d)
		return md.DecodeMessage(fieldType.MessageType)
	case schema.KindEnum:
		raw, err := d.readVarint()
		if err != nil {
			return nil, err
		}
		number := int32(raw)
		enum, err := lookupEnum(d.registry, fieldType.EnumType)
		if err != nil {
			return nil, err
		}
		// numbers this generation does not know become the unrecognized
		// sentinel instead of an error
		return enumValueOf(enum, number), nil
	default:
		return nil, fmt.Errorf("unsupported field type: %s", fieldType.Kind)
	}
}

// decodePacked decodes a packed run of scalars. Encoders of this package
// never pack, but peers are free to.
func (d *Decoder) decodePacked(fieldType *schema.FieldType) ([]interface{}, error) {
	run, err := d.readLengthDelimited()
	if err != nil {
		return nil, err
	}
	packed := NewDecoder(run, d.registry)
	values := make([]interface{}, 0)
	for packed.pos < len(packed.buf) {
		v, err := packed.DecodeTypedField(fieldType)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}
