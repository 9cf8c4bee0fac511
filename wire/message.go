package wire

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/givelotus/chronik-go/schema"
)

// MessageDecoder handles message decoding operations
type MessageDecoder struct {
	decoder *Decoder
}

// MessageEncoder handles message encoding operations
type MessageEncoder struct {
	encoder *Encoder
}

// NewMessageDecoder creates a new message decoder
func NewMessageDecoder(d *Decoder) *MessageDecoder {
	return &MessageDecoder{decoder: d}
}

// NewMessageEncoder creates a new message encoder
func NewMessageEncoder(e *Encoder) *MessageEncoder {
	return &MessageEncoder{encoder: e}
}

// DECODER METHODS

// DecodeMessage decodes a nested message. The nested decoder only sees the
// bytes of the sub-message, so a corrupt length cannot read into the
// parent's remaining fields.
func (md *MessageDecoder) DecodeMessage(messageType string) (map[string]interface{}, error) {
	messageBytes, err := md.decoder.readLengthDelimited()
	if err != nil {
		return nil, err
	}

	if md.decoder.registry == nil {
		return nil, fmt.Errorf("registry is required to decode message fields")
	}
	msg, err := md.decoder.registry.GetMessage(messageType)
	if err != nil {
		return nil, err
	}

	nestedDecoder := NewDecoder(messageBytes, md.decoder.registry)
	return nestedDecoder.DecodeWithSchema(msg)
}

// ENCODER METHODS

// EncodeMessage encodes a message with the given data
func (me *MessageEncoder) EncodeMessage(data map[string]interface{}, msg *schema.Message) error {
	// Collect known fields first so they can be written sorted by field number.
	type fieldEntry struct {
		value interface{}
		field *schema.Field
	}
	entries := make([]fieldEntry, 0, len(data))
	seen := make(map[int32]struct{}, len(data))
	for fieldName, fieldValue := range data {
		field := msg.FieldByName(fieldName)
		if field == nil {
			continue // Skip unknown fields
		}
		if _, dup := seen[field.Number]; dup {
			return wrapWithField(fmt.Errorf("field set under both %s and %s", field.Name, jsonKey(field)), field.Name)
		}
		seen[field.Number] = struct{}{}
		entries = append(entries, fieldEntry{value: fieldValue, field: field})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].field.Number < entries[j].field.Number
	})

	oneofs := make(map[string]string)
	for _, entry := range entries {
		field := entry.field
		if field.Label == schema.LabelRepeated {
			if err := me.encodeRepeatedField(entry.value, field); err != nil {
				return wrapWithField(err, field.Name)
			}
			continue
		}

		written, err := me.encodeSingularField(entry.value, field)
		if err != nil {
			return wrapWithField(err, field.Name)
		}
		if written && field.Oneof != "" {
			if other, ok := oneofs[field.Oneof]; ok {
				return wrapWithField(fmt.Errorf("oneof %s already set by %s", field.Oneof, other), field.Name)
			}
			oneofs[field.Oneof] = field.Name
		}
	}
	return nil
}

// encodeSingularField writes tag and value of a non-repeated field unless it
// holds its default. Members of a oneof are only skipped when nil.
func (me *MessageEncoder) encodeSingularField(value interface{}, field *schema.Field) (bool, error) {
	if value == nil {
		return false, nil
	}
	switch field.Type.Kind {
	case schema.KindPrimitive:
		v, err := normalizePrimitive(value, field.Type.PrimitiveType)
		if err != nil {
			return false, err
		}
		if field.Oneof == "" && isZeroPrimitive(v) {
			return false, nil
		}
		me.encoder.AppendTag(FieldNumber(field.Number), getWireType(&field.Type))
		me.encoder.appendScalar(v, field.Type.PrimitiveType)
		return true, nil
	case schema.KindEnum:
		n, err := me.enumNumber(value, field.Type.EnumType)
		if err != nil {
			return false, err
		}
		if field.Oneof == "" && n == 0 {
			return false, nil
		}
		me.encoder.AppendTag(FieldNumber(field.Number), WireVarint)
		me.encoder.appendEnum(n)
		return true, nil
	case schema.KindMessage:
		if raw, ok := value.([]byte); ok {
			// already encoded sub-message
			me.encoder.AppendTag(FieldNumber(field.Number), WireBytes)
			me.encoder.AppendBytes(raw)
			return true, nil
		}
		data, present, err := toMessageMap(value)
		if err != nil || !present {
			return false, err
		}
		if err := me.encodeMessageField(data, field); err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, fmt.Errorf("unsupported field type: %s", field.Type.Kind)
	}
}

// encodeRepeatedField encodes a repeated field, one tag per element
func (me *MessageEncoder) encodeRepeatedField(value interface{}, field *schema.Field) error {
	slice, err := toInterfaceSlice(value)
	if err != nil {
		return err
	}

	for i, element := range slice {
		if err := me.encodeRepeatedElement(element, field); err != nil {
			return wrapWithField(err, strconv.Itoa(i))
		}
	}
	return nil
}

func (me *MessageEncoder) encodeRepeatedElement(element interface{}, field *schema.Field) error {
	switch field.Type.Kind {
	case schema.KindPrimitive:
		v, err := normalizePrimitive(element, field.Type.PrimitiveType)
		if err != nil {
			return err
		}
		me.encoder.AppendTag(FieldNumber(field.Number), getWireType(&field.Type))
		me.encoder.appendScalar(v, field.Type.PrimitiveType)
	case schema.KindEnum:
		n, err := me.enumNumber(element, field.Type.EnumType)
		if err != nil {
			return err
		}
		me.encoder.AppendTag(FieldNumber(field.Number), WireVarint)
		me.encoder.appendEnum(n)
	case schema.KindMessage:
		data, present, err := toMessageMap(element)
		if err != nil {
			return err
		}
		if !present {
			return fmt.Errorf("%w: repeated message element is nil", ErrTypeMismatch)
		}
		return me.encodeMessageField(data, field)
	default:
		return fmt.Errorf("unsupported repeated field type: %s", field.Type.Kind)
	}
	return nil
}

// encodeMessageField encodes a nested message as a length-delimited field.
// A present but empty message is still written so its presence survives.
func (me *MessageEncoder) encodeMessageField(data map[string]interface{}, field *schema.Field) error {
	if me.encoder.registry == nil {
		return fmt.Errorf("registry is required to encode message fields")
	}

	messageSchema, err := me.encoder.registry.GetMessage(field.Type.MessageType)
	if err != nil {
		return err
	}

	nestedEncoder := NewEncoder(me.encoder.registry)
	if err := NewMessageEncoder(nestedEncoder).EncodeMessage(data, messageSchema); err != nil {
		return err
	}

	me.encoder.AppendTag(FieldNumber(field.Number), WireBytes)
	me.encoder.AppendBytes(nestedEncoder.Bytes())
	return nil
}

// enumNumber resolves an enum field value to its wire number
func (me *MessageEncoder) enumNumber(value interface{}, enumType string) (int32, error) {
	enum, err := lookupEnum(me.encoder.registry, enumType)
	if err != nil {
		return 0, err
	}
	ev, err := normalizeEnum(value, enum)
	if err != nil {
		return 0, err
	}
	return ev.Number, nil
}
