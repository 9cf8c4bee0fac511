package wire

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithDefaults_Complete(t *testing.T) {
	reg := newTestRegistry(t)
	msg := mustMessage(t, reg, "test.Scalars")

	got, err := WithDefaults(map[string]interface{}{}, msg, reg)
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{
		"f_int32":    int32(0),
		"f_int64":    int64(0),
		"f_uint32":   uint32(0),
		"f_uint64":   uint64(0),
		"f_bool":     false,
		"f_string":   "",
		"f_bytes":    []byte{},
		"f_sint32":   int32(0),
		"f_sint64":   int64(0),
		"f_fixed32":  uint32(0),
		"f_fixed64":  uint64(0),
		"f_sfixed32": int32(0),
		"f_sfixed64": int64(0),
		"f_float":    float32(0),
		"f_double":   float64(0),
	}, got)
}

func TestWithDefaults_NestedAndJSONKeys(t *testing.T) {
	reg := newTestRegistry(t)
	msg := mustMessage(t, reg, "test.Node")

	got, err := WithDefaults(map[string]interface{}{
		"name":     "n",
		"children": []interface{}{map[string]interface{}{"values": []int{4}}},
		"single":   map[string]interface{}{},
		"palette":  []interface{}{2, "RED"},
	}, msg, reg)
	require.NoError(t, err)

	assert.Equal(t, "n", got["name"])
	assert.Equal(t, EnumValue{Number: 0, Name: "COLOR_UNSPECIFIED"}, got["color"])
	assert.Nil(t, got["a"])
	assert.Equal(t, []interface{}{}, got["tags"])
	assert.Equal(t, map[string]interface{}{"f1": int32(0)}, got["single"])
	assert.Equal(t, []interface{}{EnumValue{Number: 2, Name: "GREEN"}, EnumValue{Number: 1, Name: "RED"}}, got["palette"])

	child := got["children"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, []interface{}{int32(4)}, child["values"])
	assert.Equal(t, "", child["name"])
	assert.Nil(t, child["single"])

	scalars := mustMessage(t, reg, "test.Scalars")
	got, err = WithDefaults(map[string]interface{}{"fUint64": "123"}, scalars, reg)
	require.NoError(t, err)
	assert.Equal(t, uint64(123), got["f_uint64"])
	assert.NotContains(t, got, "fUint64")
}

func TestWithDefaults_Errors(t *testing.T) {
	reg := newTestRegistry(t)
	node := mustMessage(t, reg, "test.Node")
	scalars := mustMessage(t, reg, "test.Scalars")

	tests := []struct {
		name     string
		msgName  string
		partial  map[string]interface{}
		wantPath string
		wantErr  error
	}{
		{"unknown_key", "node", map[string]interface{}{"nope": 1}, "nope", ErrUnknownField},
		{"nested_unknown_key", "node", map[string]interface{}{"single": map[string]interface{}{"f2": 1}}, "single.f2", ErrUnknownField},
		{"uint32_negative", "scalars", map[string]interface{}{"f_uint32": -1}, "f_uint32", ErrOutOfRange},
		{"int32_overflow", "scalars", map[string]interface{}{"f_int32": int64(math.MaxInt32) + 1}, "f_int32", ErrOutOfRange},
		{"fractional", "scalars", map[string]interface{}{"f_int64": 1.5}, "f_int64", ErrTypeMismatch},
		{"bool_from_int", "scalars", map[string]interface{}{"f_bool": 1}, "f_bool", ErrTypeMismatch},
		{"nil_repeated_message", "node", map[string]interface{}{"children": []interface{}{nil}}, "children.0", ErrTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := node
			if tt.msgName == "scalars" {
				msg = scalars
			}
			_, err := WithDefaults(tt.partial, msg, reg)
			require.Error(t, err)
			var fe *FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.wantPath, fe.Path())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWithDefaults_EncodeDecodeRoundTrip(t *testing.T) {
	reg := newTestRegistry(t)
	msg := mustMessage(t, reg, "test.Node")

	value, err := WithDefaults(map[string]interface{}{
		"name":    "root",
		"color":   EnumValue{Number: 7}, // unrecognized numbers survive
		"values":  []interface{}{int32(-1), int32(0), int32(1)},
		"a":       map[string]interface{}{},
		"palette": []interface{}{0, 1},
	}, msg, reg)
	require.NoError(t, err)

	encoded, err := EncodeMessage(value, msg, reg)
	require.NoError(t, err)
	decoded, err := DecodeMessage(encoded, msg, reg)
	require.NoError(t, err)
	assert.Equal(t, value, decoded)
}

func TestDefaultValue_EnumWithoutRegistry(t *testing.T) {
	reg := newTestRegistry(t)
	msg := mustMessage(t, reg, "test.Node")
	assert.Equal(t, EnumValue{}, DefaultValue(msg.FieldByName("color"), nil))
	assert.Equal(t, []interface{}{}, DefaultValue(msg.FieldByName("palette"), nil))
}

func TestScalarOneof_RoundTrip(t *testing.T) {
	reg := newTestRegistry(t)
	msg := mustMessage(t, reg, "test.Choice")

	tests := []struct {
		name    string
		partial map[string]interface{}
		want    map[string]interface{}
		wire    []byte
	}{
		{"num", map[string]interface{}{"num": 5}, map[string]interface{}{"num": int32(5), "text": nil}, []byte{0x08, 0x05}},
		{"zero_num_is_kept", map[string]interface{}{"num": 0}, map[string]interface{}{"num": int32(0), "text": nil}, []byte{0x08, 0x00}},
		{"text", map[string]interface{}{"text": "hi"}, map[string]interface{}{"num": nil, "text": "hi"}, []byte{0x12, 0x02, 'h', 'i'}},
		{"empty_text_is_kept", map[string]interface{}{"text": ""}, map[string]interface{}{"num": nil, "text": ""}, []byte{0x12, 0x00}},
		{"unset", map[string]interface{}{}, map[string]interface{}{"num": nil, "text": nil}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, err := WithDefaults(tt.partial, msg, reg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, value)

			encoded, err := EncodeMessage(value, msg, reg)
			require.NoError(t, err)
			assert.Equal(t, tt.wire, encoded)

			decoded, err := DecodeMessage(encoded, msg, reg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, decoded)

			again, err := EncodeMessage(decoded, msg, reg)
			require.NoError(t, err)
			assert.Equal(t, tt.wire, again)
		})
	}
}
