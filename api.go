package chronik

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/givelotus/chronik-go/protos"
	"github.com/givelotus/chronik-go/registry"
	"github.com/givelotus/chronik-go/schema"
	"github.com/givelotus/chronik-go/wire"
)

// Codec encodes and decodes the messages of one schema generation without
// generated code. It is safe for concurrent use.
type Codec struct {
	gen      protos.Generation
	registry *registry.Registry
	logger   *zap.Logger
}

// Option configures a Codec.
type Option func(*codecOptions)

type codecOptions struct {
	logger     *zap.Logger
	schemaPath string
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *codecOptions) { o.logger = l }
}

// WithSchemaPath loads the descriptor tables from a .proto file or a
// directory of them instead of the embedded generation.
func WithSchemaPath(path string) Option {
	return func(o *codecOptions) { o.schemaPath = path }
}

// New creates a Codec for the given schema generation.
func New(gen protos.Generation, opts ...Option) (*Codec, error) {
	o := &codecOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}

	gen, err := protos.ParseGeneration(string(gen))
	if err != nil {
		return nil, err
	}

	reg := registry.NewRegistry()
	if o.schemaPath != "" {
		err = reg.LoadSchema(o.schemaPath)
	} else {
		var content []byte
		content, err = protos.Load(gen)
		if err == nil {
			err = reg.LoadProto(string(gen)+"/"+protos.FileName, content)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load schema %s: %w", gen, err)
	}

	o.logger.Sugar().Debugw("Loaded schema",
		"generation", gen,
		"messages", len(reg.ListMessages()),
		"enums", len(reg.ListEnums()),
	)
	return &Codec{gen: gen, registry: reg, logger: o.logger}, nil
}

// MustNew is like New but panics on error. Only the embedded generations
// are expected to be used with it.
func MustNew(gen protos.Generation, opts ...Option) *Codec {
	c, err := New(gen, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Codec) message(messageType string) (*schema.Message, error) {
	msg, err := c.registry.GetMessage(messageType)
	if err != nil {
		return nil, fmt.Errorf("message type not found: %s", messageType)
	}
	return msg, nil
}

// Encode serializes msg as messageType.
func (c *Codec) Encode(messageType string, msg map[string]interface{}) ([]byte, error) {
	desc, err := c.message(messageType)
	if err != nil {
		return nil, err
	}
	data, err := wire.EncodeMessage(msg, desc, c.registry)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", messageType, err)
	}
	return data, nil
}

// Decode parses data as messageType. Every schema field is present in the
// result.
func (c *Codec) Decode(messageType string, data []byte) (map[string]interface{}, error) {
	desc, err := c.message(messageType)
	if err != nil {
		return nil, err
	}
	result, err := wire.DecodeMessage(data, desc, c.registry)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", messageType, err)
	}
	return result, nil
}

// DecodeLength parses exactly data[:length] as messageType.
func (c *Codec) DecodeLength(messageType string, data []byte, length int) (map[string]interface{}, error) {
	desc, err := c.message(messageType)
	if err != nil {
		return nil, err
	}
	result, err := wire.DecodeMessageLength(data, length, desc, c.registry)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", messageType, err)
	}
	return result, nil
}

// ToPlainObject projects msg onto JSON-friendly values.
func (c *Codec) ToPlainObject(messageType string, msg map[string]interface{}) (map[string]interface{}, error) {
	desc, err := c.message(messageType)
	if err != nil {
		return nil, err
	}
	obj, err := wire.ToPlainObject(msg, desc, c.registry)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", messageType, err)
	}
	return obj, nil
}

// FromPlainObject builds a complete message from its JSON projection.
func (c *Codec) FromPlainObject(messageType string, obj map[string]interface{}) (map[string]interface{}, error) {
	desc, err := c.message(messageType)
	if err != nil {
		return nil, err
	}
	msg, err := wire.FromPlainObject(obj, desc, c.registry)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", messageType, err)
	}
	return msg, nil
}

// WithDefaults builds a complete message from a partial one.
func (c *Codec) WithDefaults(messageType string, partial map[string]interface{}) (map[string]interface{}, error) {
	desc, err := c.message(messageType)
	if err != nil {
		return nil, err
	}
	msg, err := wire.WithDefaults(partial, desc, c.registry)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", messageType, err)
	}
	return msg, nil
}

// ===== REGISTRY ACCESS =====

func (c *Codec) Generation() protos.Generation { return c.gen }
func (c *Codec) Registry() *registry.Registry  { return c.registry }
func (c *Codec) ListMessages() []string        { return c.registry.ListMessages() }
func (c *Codec) ListEnums() []string           { return c.registry.ListEnums() }
