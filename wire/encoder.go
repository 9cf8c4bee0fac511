package wire

import (
	"github.com/givelotus/chronik-go/registry"
	"github.com/givelotus/chronik-go/schema"
)

// Encoder appends wire data to a growing buffer. Message fields are
// resolved through the registry.
type Encoder struct {
	buf      []byte
	registry *registry.Registry
}

// NewEncoder returns an encoder that resolves message and enum references
// through reg. reg may be nil when only scalars are written.
func NewEncoder(reg *registry.Registry) *Encoder {
	return &Encoder{registry: reg}
}

// Bytes returns the encoded bytes
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// EncodeMessage encodes a message using schema - main entry point. Fields
// are written in ascending field number order and fields holding their
// type default are left out.
func EncodeMessage(data map[string]interface{}, msg *schema.Message, registry *registry.Registry) ([]byte, error) {
	encoder := NewEncoder(registry)
	if err := NewMessageEncoder(encoder).EncodeMessage(data, msg); err != nil {
		return nil, err
	}
	return encoder.Bytes(), nil
}
