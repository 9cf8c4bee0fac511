package wire

import (
	"strconv"

	"github.com/givelotus/chronik-go/schema"
)

// ===== PROTOBUF WIRE FORMAT TYPES =====

// WireType represents protobuf wire format types
type WireType int32

const (
	WireVarint     WireType = 0 // int32, int64, uint32, uint64, sint32, sint64, bool, enum
	WireFixed64    WireType = 1 // fixed64, sfixed64, double
	WireBytes      WireType = 2 // string, bytes, embedded messages, packed repeated fields
	WireStartGroup WireType = 3 // deprecated groups, rejected
	WireEndGroup   WireType = 4 // deprecated groups, rejected
	WireFixed32    WireType = 5 // fixed32, sfixed32, float
)

// FieldNumber represents a protobuf field number
type FieldNumber int32

// MaxFieldNumber is the largest field number a tag can carry.
const MaxFieldNumber FieldNumber = 1<<29 - 1

// Tag represents a protobuf field tag (field number + wire type)
type Tag uint64

// MakeTag creates a tag from field number and wire type
func MakeTag(fieldNumber FieldNumber, wireType WireType) Tag {
	return Tag(uint64(fieldNumber)<<3 | uint64(wireType))
}

// ParseTag parses a tag into field number and wire type
func ParseTag(tag Tag) (FieldNumber, WireType) {
	return FieldNumber(tag >> 3), WireType(tag & 0x7)
}

// Valid reports whether the tag names a usable field number and a wire type
// this codec knows how to read or skip.
func (t Tag) Valid() bool {
	if t>>3 == 0 || t>>3 > Tag(MaxFieldNumber) {
		return false
	}
	switch WireType(t & 0x7) {
	case WireVarint, WireFixed64, WireBytes, WireFixed32:
		return true
	}
	return false
}

// EnumValue is the decoded form of an enum field. Name is empty when the
// number is not declared by the schema generation in use; the raw number is
// kept so the value survives a re-encode.
type EnumValue struct {
	Number int32
	Name   string
}

// Known reports whether the value has a symbolic name.
func (e EnumValue) Known() bool {
	return e.Name != ""
}

func (e EnumValue) String() string {
	if e.Name != "" {
		return e.Name
	}
	return strconv.FormatInt(int64(e.Number), 10)
}

// getWireType returns the wire type for a field type
func getWireType(fieldType *schema.FieldType) WireType {
	switch fieldType.Kind {
	case schema.KindPrimitive:
		switch fieldType.PrimitiveType {
		case schema.TypeString, schema.TypeBytes:
			return WireBytes
		case schema.TypeFloat, schema.TypeFixed32, schema.TypeSfixed32:
			return WireFixed32
		case schema.TypeDouble, schema.TypeFixed64, schema.TypeSfixed64:
			return WireFixed64
		default:
			return WireVarint
		}
	case schema.KindMessage:
		return WireBytes
	default:
		return WireVarint
	}
}

// isPackable reports whether a repeated field of this type may arrive in
// packed form (one length-delimited run of scalars).
func isPackable(fieldType *schema.FieldType) bool {
	return getWireType(fieldType) != WireBytes
}
