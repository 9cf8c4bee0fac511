package wire

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/givelotus/chronik-go/schema"
)

// readVarint consumes one varint at the cursor.
func (d *Decoder) readVarint() (uint64, error) {
	v, n, err := ConsumeVarint(d.buf[d.pos:])
	if err != nil {
		return 0, err
	}
	d.pos += n
	return v, nil
}

func (d *Decoder) readFixed32() (uint32, error) {
	if len(d.buf)-d.pos < 4 {
		return 0, ErrTruncatedInput
	}
	v := binary.LittleEndian.Uint32(d.buf[d.pos:])
	d.pos += 4
	return v, nil
}

func (d *Decoder) readFixed64() (uint64, error) {
	if len(d.buf)-d.pos < 8 {
		return 0, ErrTruncatedInput
	}
	v := binary.LittleEndian.Uint64(d.buf[d.pos:])
	d.pos += 8
	return v, nil
}

// readLengthDelimited returns the next length-prefixed run. The slice
// shares the input buffer.
func (d *Decoder) readLengthDelimited() ([]byte, error) {
	length, err := d.readVarint()
	if err != nil {
		return nil, err
	}
	if length > uint64(len(d.buf)-d.pos) {
		return nil, ErrTruncatedInput
	}
	run := d.buf[d.pos : d.pos+int(length)]
	d.pos += int(length)
	return run, nil
}

// decodeScalar reads one primitive value of type t. bytes values are
// copied out of the input and are never nil.
func (d *Decoder) decodeScalar(t schema.PrimitiveType) (interface{}, error) {
	switch t {
	case schema.TypeString, schema.TypeBytes:
		run, err := d.readLengthDelimited()
		if err != nil {
			return nil, err
		}
		if t == schema.TypeString {
			return string(run), nil
		}
		return append(make([]byte, 0, len(run)), run...), nil
	case schema.TypeFixed32, schema.TypeSfixed32, schema.TypeFloat:
		v, err := d.readFixed32()
		if err != nil {
			return nil, err
		}
		switch t {
		case schema.TypeSfixed32:
			return int32(v), nil
		case schema.TypeFloat:
			return math.Float32frombits(v), nil
		}
		return v, nil
	case schema.TypeFixed64, schema.TypeSfixed64, schema.TypeDouble:
		v, err := d.readFixed64()
		if err != nil {
			return nil, err
		}
		switch t {
		case schema.TypeSfixed64:
			return int64(v), nil
		case schema.TypeDouble:
			return math.Float64frombits(v), nil
		}
		return v, nil
	}

	v, err := d.readVarint()
	if err != nil {
		return nil, err
	}
	switch t {
	case schema.TypeInt32:
		// negative values arrive sign extended to 64 bits
		return int32(v), nil
	case schema.TypeInt64:
		return int64(v), nil
	case schema.TypeUint32:
		return uint32(v), nil
	case schema.TypeUint64:
		return v, nil
	case schema.TypeSint32:
		return DecodeZigZag32(v), nil
	case schema.TypeSint64:
		return DecodeZigZag64(v), nil
	case schema.TypeBool:
		return v != 0, nil
	default:
		return nil, fmt.Errorf("unsupported primitive type: %s", t)
	}
}

// skipValue steps over one value of the given wire type.
func (d *Decoder) skipValue(wireType WireType) error {
	var err error
	switch wireType {
	case WireVarint:
		_, err = d.readVarint()
	case WireFixed64:
		_, err = d.readFixed64()
	case WireBytes:
		_, err = d.readLengthDelimited()
	case WireFixed32:
		_, err = d.readFixed32()
	default:
		err = fmt.Errorf("%w: wire type %d", ErrInvalidTag, wireType)
	}
	return err
}

// AppendTag writes a field tag.
func (e *Encoder) AppendTag(number FieldNumber, wireType WireType) {
	e.AppendVarint(uint64(MakeTag(number, wireType)))
}

func (e *Encoder) AppendVarint(v uint64) {
	e.buf = AppendVarint(e.buf, v)
}

func (e *Encoder) AppendFixed32(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

func (e *Encoder) AppendFixed64(v uint64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
}

// AppendBytes writes data with its varint length prefix.
func (e *Encoder) AppendBytes(data []byte) {
	e.AppendVarint(uint64(len(data)))
	e.buf = append(e.buf, data...)
}

// appendEnum writes an enum number; negative numbers take the 10 byte
// sign extended form like int32.
func (e *Encoder) appendEnum(n int32) {
	e.AppendVarint(uint64(int64(n)))
}

// appendScalar writes a value already normalized to the Go type of t.
func (e *Encoder) appendScalar(value interface{}, t schema.PrimitiveType) {
	switch t {
	case schema.TypeString:
		s := value.(string)
		e.AppendVarint(uint64(len(s)))
		e.buf = append(e.buf, s...)
	case schema.TypeBytes:
		e.AppendBytes(value.([]byte))
	case schema.TypeInt32:
		e.AppendVarint(uint64(int64(value.(int32))))
	case schema.TypeInt64:
		e.AppendVarint(uint64(value.(int64)))
	case schema.TypeUint32:
		e.AppendVarint(uint64(value.(uint32)))
	case schema.TypeUint64:
		e.AppendVarint(value.(uint64))
	case schema.TypeSint32:
		e.AppendVarint(EncodeZigZag32(value.(int32)))
	case schema.TypeSint64:
		e.AppendVarint(EncodeZigZag64(value.(int64)))
	case schema.TypeBool:
		if value.(bool) {
			e.AppendVarint(1)
		} else {
			e.AppendVarint(0)
		}
	case schema.TypeFixed32:
		e.AppendFixed32(value.(uint32))
	case schema.TypeFixed64:
		e.AppendFixed64(value.(uint64))
	case schema.TypeSfixed32:
		e.AppendFixed32(uint32(value.(int32)))
	case schema.TypeSfixed64:
		e.AppendFixed64(uint64(value.(int64)))
	case schema.TypeFloat:
		e.AppendFixed32(math.Float32bits(value.(float32)))
	case schema.TypeDouble:
		e.AppendFixed64(math.Float64bits(value.(float64)))
	}
}
