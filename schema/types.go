package schema

// ProtoRepo represents a collection of .proto files and their definitions.
type ProtoRepo struct {
	ProtoFiles map[string]*ProtoFile `json:"proto_files"`
}

// ProtoFile represents a single .proto file
type ProtoFile struct {
	Name     string     `json:"name"`     // chronik.proto
	Package  string     `json:"package"`  // package name
	Syntax   string     `json:"syntax"`   // proto2 or proto3
	Messages []*Message `json:"messages"` // message definitions
	Enums    []*Enum    `json:"enums"`    // enum definitions
}

// Message represents a protobuf message definition
type Message struct {
	Name        string     `json:"name"`         // "Tx"
	FullName    string     `json:"full_name"`    // "chronik.Tx"
	Fields      []*Field   `json:"fields"`       // message fields, sorted by number once registered
	NestedTypes []*Message `json:"nested_types"` // nested messages
	NestedEnums []*Enum    `json:"nested_enums"` // nested enums
	OneofGroups []*Oneof   `json:"oneof_groups"` // oneof groups

	byNumber map[int32]*Field
	byName   map[string]*Field
}

// Field represents a message field
type Field struct {
	Name     string     `json:"name"`      // "time_first_seen"
	JsonName string     `json:"json_name"` // "timeFirstSeen"
	Number   int32      `json:"number"`    // 9
	Label    FieldLabel `json:"label"`     // optional, repeated
	Type     FieldType  `json:"type"`      // field type information
	Oneof    string     `json:"oneof"`     // oneof group name, empty if not in a oneof
}

// Oneof represents a oneof group
type Oneof struct {
	Name   string   `json:"name"`   // "msg_type"
	Fields []*Field `json:"fields"` // fields in this oneof
}

// FieldLabel represents field labels
type FieldLabel string

const (
	LabelOptional FieldLabel = "optional"
	LabelRequired FieldLabel = "required"
	LabelRepeated FieldLabel = "repeated"
)

// FieldType represents field type information
type FieldType struct {
	Kind          TypeKind      `json:"kind"`                     // primitive, message, enum
	PrimitiveType PrimitiveType `json:"primitive_type,omitempty"` // for primitive types
	MessageType   string        `json:"message_type,omitempty"`   // for message types: "chronik.TxInput"
	EnumType      string        `json:"enum_type,omitempty"`      // for enum types
}

// TypeKind represents the kind of field type
type TypeKind string

const (
	KindPrimitive TypeKind = "primitive"
	KindMessage   TypeKind = "message"
	KindEnum      TypeKind = "enum"
)

// PrimitiveType represents protobuf primitive types
type PrimitiveType string

const (
	TypeDouble   PrimitiveType = "double"
	TypeFloat    PrimitiveType = "float"
	TypeInt64    PrimitiveType = "int64"
	TypeUint64   PrimitiveType = "uint64"
	TypeInt32    PrimitiveType = "int32"
	TypeFixed64  PrimitiveType = "fixed64"
	TypeFixed32  PrimitiveType = "fixed32"
	TypeBool     PrimitiveType = "bool"
	TypeString   PrimitiveType = "string"
	TypeBytes    PrimitiveType = "bytes"
	TypeUint32   PrimitiveType = "uint32"
	TypeSfixed32 PrimitiveType = "sfixed32"
	TypeSfixed64 PrimitiveType = "sfixed64"
	TypeSint32   PrimitiveType = "sint32"
	TypeSint64   PrimitiveType = "sint64"
)

var primitiveTypes = map[string]PrimitiveType{
	"double":   TypeDouble,
	"float":    TypeFloat,
	"int64":    TypeInt64,
	"uint64":   TypeUint64,
	"int32":    TypeInt32,
	"fixed64":  TypeFixed64,
	"fixed32":  TypeFixed32,
	"bool":     TypeBool,
	"string":   TypeString,
	"bytes":    TypeBytes,
	"uint32":   TypeUint32,
	"sfixed32": TypeSfixed32,
	"sfixed64": TypeSfixed64,
	"sint32":   TypeSint32,
	"sint64":   TypeSint64,
}

// LookupPrimitive returns the primitive type for a .proto scalar type name.
func LookupPrimitive(name string) (PrimitiveType, bool) {
	t, ok := primitiveTypes[name]
	return t, ok
}

// Is64Bit reports whether values of this type are 64 bits wide. The JSON
// projection renders these as decimal strings.
func (t PrimitiveType) Is64Bit() bool {
	switch t {
	case TypeInt64, TypeUint64, TypeFixed64, TypeSfixed64, TypeSint64:
		return true
	}
	return false
}

// Enum represents an enum definition
type Enum struct {
	Name     string       `json:"name"`      // "SlpTxType"
	FullName string       `json:"full_name"` // "chronik.SlpTxType"
	Values   []*EnumValue `json:"values"`    // enum values

	byNumber map[int32]*EnumValue
	byName   map[string]*EnumValue
}

// EnumValue represents an enum value
type EnumValue struct {
	Name   string `json:"name"`   // "GENESIS"
	Number int32  `json:"number"` // 0
}

// Index builds the lookup tables for the message. It must be called once
// the field list is final; the registry does this when a file is loaded.
func (m *Message) Index() {
	m.byNumber = make(map[int32]*Field, len(m.Fields))
	m.byName = make(map[string]*Field, 2*len(m.Fields))
	for _, f := range m.Fields {
		m.byNumber[f.Number] = f
		m.byName[f.Name] = f
		if f.JsonName != "" {
			m.byName[f.JsonName] = f
		}
	}
}

// FieldByNumber returns the field with the given number, or nil.
func (m *Message) FieldByNumber(number int32) *Field {
	if m.byNumber == nil {
		for _, f := range m.Fields {
			if f.Number == number {
				return f
			}
		}
		return nil
	}
	return m.byNumber[number]
}

// FieldByName returns the field with the given proto or JSON name, or nil.
func (m *Message) FieldByName(name string) *Field {
	if m.byName == nil {
		for _, f := range m.Fields {
			if f.Name == name || f.JsonName == name {
				return f
			}
		}
		return nil
	}
	return m.byName[name]
}

// Index builds the lookup tables for the enum.
func (e *Enum) Index() {
	e.byNumber = make(map[int32]*EnumValue, len(e.Values))
	e.byName = make(map[string]*EnumValue, len(e.Values))
	for _, v := range e.Values {
		// first declaration wins for aliased numbers
		if _, ok := e.byNumber[v.Number]; !ok {
			e.byNumber[v.Number] = v
		}
		e.byName[v.Name] = v
	}
}

// ValueByNumber returns the enum value with the given number, or nil if the
// number is not declared in this generation of the enum.
func (e *Enum) ValueByNumber(number int32) *EnumValue {
	if e.byNumber == nil {
		for _, v := range e.Values {
			if v.Number == number {
				return v
			}
		}
		return nil
	}
	return e.byNumber[number]
}

// ValueByName returns the enum value with the given symbolic name, or nil.
func (e *Enum) ValueByName(name string) *EnumValue {
	if e.byName == nil {
		for _, v := range e.Values {
			if v.Name == name {
				return v
			}
		}
		return nil
	}
	return e.byName[name]
}
