package wire

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/givelotus/chronik-go/registry"
	"github.com/givelotus/chronik-go/schema"
)

const testSchema = `syntax = "proto3";
package test;

message Scalars {
  int32 f_int32 = 1;
  int64 f_int64 = 2;
  uint32 f_uint32 = 3;
  uint64 f_uint64 = 4;
  bool f_bool = 5;
  string f_string = 6;
  bytes f_bytes = 7;
  sint32 f_sint32 = 8;
  sint64 f_sint64 = 9;
  fixed32 f_fixed32 = 10;
  fixed64 f_fixed64 = 11;
  sfixed32 f_sfixed32 = 12;
  sfixed64 f_sfixed64 = 13;
  float f_float = 14;
  double f_double = 15;
}

message Single {
  int32 f1 = 1;
}

message Blob {
  bytes f1 = 1;
}

message Choice {
  oneof kind {
    int32 num = 1;
    string text = 2;
  }
}

enum Color {
  COLOR_UNSPECIFIED = 0;
  RED = 1;
  GREEN = 2;
}

message Node {
  string name = 1;
  Color color = 2;
  repeated int32 values = 3;
  repeated Node children = 4;
  Single single = 5;
  repeated string tags = 6;
  oneof choice {
    Single a = 7;
    Blob b = 8;
  }
  repeated Color palette = 9;
}
`

func newTestRegistry(t testing.TB) *registry.Registry {
	t.Helper()
	reg := registry.NewRegistry()
	if err := reg.LoadProto("test.proto", []byte(testSchema)); err != nil {
		t.Fatalf("failed to load test schema: %v", err)
	}
	return reg
}

func mustMessage(t testing.TB, reg *registry.Registry, name string) *schema.Message {
	t.Helper()
	msg, err := reg.GetMessage(name)
	if err != nil {
		t.Fatal(err)
	}
	return msg
}

func TestDecoder_ReferenceExamples(t *testing.T) {
	reg := newTestRegistry(t)
	single := mustMessage(t, reg, "test.Single")
	blob := mustMessage(t, reg, "test.Blob")

	t.Run("default_int32_encodes_empty", func(t *testing.T) {
		got, err := EncodeMessage(map[string]interface{}{"f1": int32(0)}, single, reg)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 0 {
			t.Errorf("Expected empty encoding, got % x", got)
		}
	})

	t.Run("int32_five", func(t *testing.T) {
		got, err := EncodeMessage(map[string]interface{}{"f1": int32(5)}, single, reg)
		if err != nil {
			t.Fatal(err)
		}
		if want := []byte{0x08, 0x05}; !bytes.Equal(got, want) {
			t.Errorf("Expected % x, got % x", want, got)
		}
	})

	t.Run("bytes_field", func(t *testing.T) {
		got, err := EncodeMessage(map[string]interface{}{"f1": []byte{0xAA, 0xBB, 0xCC}}, blob, reg)
		if err != nil {
			t.Fatal(err)
		}
		if want := []byte{0x0A, 0x03, 0xAA, 0xBB, 0xCC}; !bytes.Equal(got, want) {
			t.Errorf("Expected % x, got % x", want, got)
		}
	})

	t.Run("empty_buffer_decodes_defaults", func(t *testing.T) {
		got, err := DecodeMessage(nil, single, reg)
		if err != nil {
			t.Fatal(err)
		}
		if want := map[string]interface{}{"f1": int32(0)}; !reflect.DeepEqual(got, want) {
			t.Errorf("Expected %v, got %v", want, got)
		}

		got, err = DecodeMessage([]byte{}, blob, reg)
		if err != nil {
			t.Fatal(err)
		}
		if b, ok := got["f1"].([]byte); !ok || b == nil || len(b) != 0 {
			t.Errorf("Expected empty non-nil bytes, got %#v", got["f1"])
		}
	})
}

func TestDecoder_PrimitiveTypes(t *testing.T) {
	reg := newTestRegistry(t)
	msg := mustMessage(t, reg, "test.Scalars")

	tests := []struct {
		name      string
		field     string
		testValue interface{}
	}{
		{"int32", "f_int32", int32(42)},
		{"int32_negative", "f_int32", int32(-42)},
		{"int64", "f_int64", int64(-1234567890123)},
		{"uint32", "f_uint32", uint32(4294967295)},
		{"uint64", "f_uint64", uint64(18446744073709551615)},
		{"bool_true", "f_bool", true},
		{"string", "f_string", "test string"},
		{"bytes", "f_bytes", []byte("test bytes")},
		{"sint32", "f_sint32", int32(-7)},
		{"sint64", "f_sint64", int64(-9000000000)},
		{"fixed32", "f_fixed32", uint32(0xDEADBEEF)},
		{"fixed64", "f_fixed64", uint64(0xDEADBEEFCAFEBABE)},
		{"sfixed32", "f_sfixed32", int32(-3)},
		{"sfixed64", "f_sfixed64", int64(-4)},
		{"float", "f_float", float32(3.14)},
		{"double", "f_double", float64(2.718281828)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			data := map[string]interface{}{test.field: test.testValue}

			encoded, err := EncodeMessage(data, msg, reg)
			if err != nil {
				t.Fatalf("Failed to encode: %v", err)
			}

			decoded, err := DecodeMessage(encoded, msg, reg)
			if err != nil {
				t.Fatalf("Failed to decode: %v", err)
			}
			if actual := decoded[test.field]; !reflect.DeepEqual(actual, test.testValue) {
				t.Errorf("Expected %v (%T), got %v (%T)", test.testValue, test.testValue, actual, actual)
			}
			if len(decoded) != len(msg.Fields) {
				t.Errorf("Expected every field to be filled, got %d of %d", len(decoded), len(msg.Fields))
			}
		})
	}
}

func TestDecoder_NegativeInt32IsSignExtended(t *testing.T) {
	reg := newTestRegistry(t)
	single := mustMessage(t, reg, "test.Single")

	encoded, err := EncodeMessage(map[string]interface{}{"f1": int32(-1)}, single, reg)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x08, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}
	if !bytes.Equal(encoded, want) {
		t.Fatalf("Expected % x, got % x", want, encoded)
	}

	decoded, err := DecodeMessage(encoded, single, reg)
	if err != nil {
		t.Fatal(err)
	}
	if decoded["f1"] != int32(-1) {
		t.Errorf("Expected -1, got %v", decoded["f1"])
	}
}

func TestDecoder_UnknownFieldsAreSkipped(t *testing.T) {
	reg := newTestRegistry(t)
	msg := mustMessage(t, reg, "test.Node")

	original := map[string]interface{}{
		"name":   "root",
		"color":  "RED",
		"values": []int32{1, 2},
		"single": map[string]interface{}{"f1": int32(9)},
	}
	encoded, err := EncodeMessage(original, msg, reg)
	if err != nil {
		t.Fatal(err)
	}
	want, err := DecodeMessage(encoded, msg, reg)
	if err != nil {
		t.Fatal(err)
	}

	tail := NewEncoder(nil)
	tail.AppendTag(99, WireVarint)
	tail.AppendVarint(123456)
	tail.AppendTag(100, WireBytes)
	tail.AppendBytes([]byte("ignored payload"))
	tail.AppendTag(101, WireFixed32)
	tail.AppendFixed32(7)
	tail.AppendTag(102, WireFixed64)
	tail.AppendFixed64(8)

	// unknown fields both before and after the known ones
	withUnknown := append(append(append([]byte{}, tail.Bytes()...), encoded...), tail.Bytes()...)
	got, err := DecodeMessage(withUnknown, msg, reg)
	if err != nil {
		t.Fatalf("unknown fields must not fail decoding: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestDecoder_WireTypeMismatchReadsAsDefault(t *testing.T) {
	reg := newTestRegistry(t)
	msg := mustMessage(t, reg, "test.Node")

	// f1 is an int32, sent here as bytes
	got, err := DecodeMessage([]byte{0x0A, 0x01, 0x05}, mustMessage(t, reg, "test.Single"), reg)
	if err != nil {
		t.Fatal(err)
	}
	if got["f1"] != int32(0) {
		t.Errorf("Expected f1 to read as default, got %v", got["f1"])
	}

	// name is a string, sent here as a varint
	got, err = DecodeMessage([]byte{0x08, 0x01}, msg, reg)
	if err != nil {
		t.Fatal(err)
	}
	if got["name"] != "" {
		t.Errorf("Expected name to read as default, got %q", got["name"])
	}
}

func TestDecoder_EnumForwardCompatibility(t *testing.T) {
	reg := newTestRegistry(t)
	msg := mustMessage(t, reg, "test.Node")

	data := []byte{0x10, 0x07} // color = 7, not declared
	got, err := DecodeMessage(data, msg, reg)
	if err != nil {
		t.Fatalf("unknown enum numbers must not fail decoding: %v", err)
	}
	color, ok := got["color"].(EnumValue)
	if !ok {
		t.Fatalf("Expected EnumValue, got %T", got["color"])
	}
	if color.Known() || color.Number != 7 {
		t.Errorf("Expected unrecognized sentinel carrying 7, got %+v", color)
	}

	reencoded, err := EncodeMessage(got, msg, reg)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(reencoded, data) {
		t.Errorf("Expected % x after re-encode, got % x", data, reencoded)
	}

	got, err = DecodeMessage([]byte{0x10, 0x02}, msg, reg)
	if err != nil {
		t.Fatal(err)
	}
	if want := (EnumValue{Number: 2, Name: "GREEN"}); got["color"] != want {
		t.Errorf("Expected %+v, got %+v", want, got["color"])
	}
	if want := (EnumValue{Number: 0, Name: "COLOR_UNSPECIFIED"}); DefaultValue(msg.FieldByName("color"), reg) != want {
		t.Errorf("Expected default %+v", want)
	}
}

func TestDecoder_Truncation(t *testing.T) {
	reg := newTestRegistry(t)
	msg := mustMessage(t, reg, "test.Node")

	// a single length-delimited field: every proper prefix cuts inside it
	encoded, err := EncodeMessage(map[string]interface{}{
		"single": map[string]interface{}{"f1": int32(150)},
	}, msg, reg)
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{0x2A, 0x03, 0x08, 0x96, 0x01}; !bytes.Equal(encoded, want) {
		t.Fatalf("Expected % x, got % x", want, encoded)
	}

	for i := 1; i < len(encoded); i++ {
		got, err := DecodeMessage(encoded[:i], msg, reg)
		if !errors.Is(err, ErrTruncatedInput) {
			t.Errorf("prefix %d: expected ErrTruncatedInput, got %v", i, err)
		}
		if got != nil {
			t.Errorf("prefix %d: expected no partial result, got %v", i, got)
		}
	}
}

// A cut between two fields leaves a valid, shorter message; protobuf has
// no end marker. Cuts inside a field fail.
func TestDecoder_TruncationAtFieldBoundary(t *testing.T) {
	reg := newTestRegistry(t)
	msg := mustMessage(t, reg, "test.Scalars")

	encoded, err := EncodeMessage(map[string]interface{}{"f_int32": 1, "f_int64": 2}, msg, reg)
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{0x08, 0x01, 0x10, 0x02}; !bytes.Equal(encoded, want) {
		t.Fatalf("Expected % x, got % x", want, encoded)
	}

	tests := []struct {
		cut       int
		wantInt32 int32
		wantInt64 int64
		wantErr   bool
	}{
		{cut: 0},
		{cut: 1, wantErr: true},
		{cut: 2, wantInt32: 1},
		{cut: 3, wantErr: true},
		{cut: 4, wantInt32: 1, wantInt64: 2},
	}
	for _, tt := range tests {
		got, err := DecodeMessage(encoded[:tt.cut], msg, reg)
		if tt.wantErr {
			if !errors.Is(err, ErrTruncatedInput) {
				t.Errorf("cut %d: expected ErrTruncatedInput, got %v", tt.cut, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("cut %d: unexpected error %v", tt.cut, err)
			continue
		}
		if got["f_int32"] != tt.wantInt32 || got["f_int64"] != tt.wantInt64 {
			t.Errorf("cut %d: got f_int32=%v f_int64=%v", tt.cut, got["f_int32"], got["f_int64"])
		}
	}
}

func TestDecoder_SubMessageIsBounded(t *testing.T) {
	reg := newTestRegistry(t)
	msg := mustMessage(t, reg, "test.Node")

	// single declares 2 bytes but its inner varint needs 3
	data := []byte{0x2A, 0x02, 0x08, 0x96, 0x01}
	if _, err := DecodeMessage(data, msg, reg); !errors.Is(err, ErrTruncatedInput) {
		t.Errorf("Expected ErrTruncatedInput, got %v", err)
	}
}

func TestDecoder_StructuralErrors(t *testing.T) {
	reg := newTestRegistry(t)
	msg := mustMessage(t, reg, "test.Node")

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"field_zero", []byte{0x00, 0x01}, ErrInvalidTag},
		{"start_group", []byte{0x0B}, ErrInvalidTag},
		{"end_group", []byte{0x0C}, ErrInvalidTag},
		{"wire_type_6", []byte{0x0E, 0x00}, ErrInvalidTag},
		{"wire_type_7", []byte{0x0F, 0x00}, ErrInvalidTag},
		{"varint_overflow", []byte{0x08, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}, ErrVarintOverflow},
		{"tenth_byte_too_large", []byte{0x08, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x02}, ErrMalformedVarint},
		{"truncated_tag", []byte{0x80}, ErrTruncatedInput},
		{"truncated_bytes", []byte{0x0A, 0x05, 'a'}, ErrTruncatedInput},
		{"truncated_unknown_fixed64", []byte{0xA1, 0x06, 0x01, 0x02}, ErrTruncatedInput},
		{"truncated_unknown_fixed32", []byte{0xAD, 0x06, 0x01}, ErrTruncatedInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeMessage(tt.data, msg, reg)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
			if got != nil {
				t.Errorf("Expected no partial result, got %v", got)
			}
		})
	}
}

func TestDecoder_RepeatedOrdering(t *testing.T) {
	reg := newTestRegistry(t)
	msg := mustMessage(t, reg, "test.Node")

	encoded, err := EncodeMessage(map[string]interface{}{
		"values": []interface{}{int32(3), int32(1), int32(2)},
		"tags":   []string{"c", "a", "b"},
	}, msg, reg)
	if err != nil {
		t.Fatal(err)
	}
	wantPrefix := []byte{0x18, 0x03, 0x18, 0x01, 0x18, 0x02}
	if !bytes.HasPrefix(encoded, wantPrefix) {
		t.Errorf("Expected one tag per element % x, got % x", wantPrefix, encoded)
	}

	decoded, err := DecodeMessage(encoded, msg, reg)
	if err != nil {
		t.Fatal(err)
	}
	if want := []interface{}{int32(3), int32(1), int32(2)}; !reflect.DeepEqual(decoded["values"], want) {
		t.Errorf("Expected %v, got %v", want, decoded["values"])
	}
	if want := []interface{}{"c", "a", "b"}; !reflect.DeepEqual(decoded["tags"], want) {
		t.Errorf("Expected %v, got %v", want, decoded["tags"])
	}
	if children, ok := decoded["children"].([]interface{}); !ok || children == nil || len(children) != 0 {
		t.Errorf("Expected empty non-nil children, got %#v", decoded["children"])
	}
}

func TestDecoder_PackedRepeated(t *testing.T) {
	reg := newTestRegistry(t)
	msg := mustMessage(t, reg, "test.Node")

	// values packed, followed by one unpacked element, palette packed
	data := []byte{0x1A, 0x03, 0x03, 0x01, 0x02, 0x18, 0x04, 0x4A, 0x02, 0x01, 0x05}
	decoded, err := DecodeMessage(data, msg, reg)
	if err != nil {
		t.Fatal(err)
	}
	if want := []interface{}{int32(3), int32(1), int32(2), int32(4)}; !reflect.DeepEqual(decoded["values"], want) {
		t.Errorf("Expected %v, got %v", want, decoded["values"])
	}
	want := []interface{}{EnumValue{Number: 1, Name: "RED"}, EnumValue{Number: 5}}
	if !reflect.DeepEqual(decoded["palette"], want) {
		t.Errorf("Expected %v, got %v", want, decoded["palette"])
	}
}

func TestDecoder_OneofLastWins(t *testing.T) {
	reg := newTestRegistry(t)
	msg := mustMessage(t, reg, "test.Node")

	// a = {f1: 1}, then b = {f1: 0xFF}
	data := []byte{0x3A, 0x02, 0x08, 0x01, 0x42, 0x03, 0x0A, 0x01, 0xFF}
	decoded, err := DecodeMessage(data, msg, reg)
	if err != nil {
		t.Fatal(err)
	}
	if decoded["a"] != nil {
		t.Errorf("Expected a to be cleared, got %v", decoded["a"])
	}
	b, ok := decoded["b"].(map[string]interface{})
	if !ok || !bytes.Equal(b["f1"].([]byte), []byte{0xFF}) {
		t.Errorf("Expected b.f1 = ff, got %v", decoded["b"])
	}
}

func TestDecoder_NestedMessages(t *testing.T) {
	reg := newTestRegistry(t)
	msg := mustMessage(t, reg, "test.Node")

	data := map[string]interface{}{
		"name": "root",
		"children": []interface{}{
			map[string]interface{}{"name": "left", "values": []int32{1}},
			map[string]interface{}{
				"name": "right",
				"children": []map[string]interface{}{
					{"name": "leaf", "color": EnumValue{Number: 1}},
				},
			},
			map[string]interface{}{}, // present but empty
		},
		"single": map[string]interface{}{},
	}
	encoded, err := EncodeMessage(data, msg, reg)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := DecodeMessage(encoded, msg, reg)
	if err != nil {
		t.Fatal(err)
	}

	want, err := WithDefaults(data, msg, reg)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(decoded, want) {
		t.Errorf("Round trip mismatch:\nwant %v\ngot  %v", want, decoded)
	}

	children := decoded["children"].([]interface{})
	if len(children) != 3 {
		t.Fatalf("Expected 3 children, got %d", len(children))
	}
	leaf := children[1].(map[string]interface{})["children"].([]interface{})[0].(map[string]interface{})
	if leaf["color"] != (EnumValue{Number: 1, Name: "RED"}) {
		t.Errorf("Expected leaf color RED, got %v", leaf["color"])
	}
	if decoded["single"] == nil {
		t.Error("Expected empty sub-message to stay present")
	}
}

func TestDecodeMessageLength(t *testing.T) {
	reg := newTestRegistry(t)
	single := mustMessage(t, reg, "test.Single")

	data := []byte{0x08, 0x05, 0x08, 0x06}
	got, err := DecodeMessageLength(data, 2, single, reg)
	if err != nil {
		t.Fatal(err)
	}
	if got["f1"] != int32(5) {
		t.Errorf("Expected f1=5, got %v", got["f1"])
	}

	if _, err := DecodeMessageLength(data, 5, single, reg); !errors.Is(err, ErrTruncatedInput) {
		t.Errorf("Expected ErrTruncatedInput, got %v", err)
	}
	if _, err := DecodeMessageLength(data, -1, single, reg); err == nil {
		t.Error("Expected error for negative length")
	}
}

func TestDecoder_BytesAreCopied(t *testing.T) {
	reg := newTestRegistry(t)
	blob := mustMessage(t, reg, "test.Blob")

	data := []byte{0x0A, 0x02, 0x01, 0x02}
	decoded, err := DecodeMessage(data, blob, reg)
	if err != nil {
		t.Fatal(err)
	}
	data[2] = 0xFF
	if got := decoded["f1"].([]byte); got[0] != 0x01 {
		t.Error("decoded bytes must not alias the input buffer")
	}
}
