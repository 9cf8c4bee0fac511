package chronik

import (
	"bytes"
	"testing"

	"github.com/givelotus/chronik-go/protos"
)

var (
	// Simple payload (scalars only)
	benchSimplePayload []byte

	// Complex payload (nested, repeated, enums)
	benchComplexPayload []byte
	benchComplexMessage map[string]interface{}

	benchCodec = MustNew(protos.GenerationV2)
)

func init() {
	var err error
	benchSimplePayload, err = benchCodec.Encode("BlockchainInfo", map[string]interface{}{
		"tip_hash":   bytes.Repeat([]byte{0xab}, 32),
		"tip_height": 820000,
	})
	if err != nil {
		panic("Failed to create simple payload: " + err.Error())
	}

	benchComplexMessage = benchTx()
	benchComplexPayload, err = benchCodec.Encode("Tx", benchComplexMessage)
	if err != nil {
		panic("Failed to create complex payload: " + err.Error())
	}
}

func benchTx() map[string]interface{} {
	token := map[string]interface{}{
		"token_id":       bytes.Repeat([]byte{0xcd}, 32),
		"token_protocol": "TOKEN_PROTOCOL_SLPV2",
		"amount":         "340282366920938463463374607431768211455",
	}
	inputs := make([]interface{}, 0, 4)
	outputs := make([]interface{}, 0, 4)
	for i := 0; i < 4; i++ {
		inputs = append(inputs, map[string]interface{}{
			"prev_out":      map[string]interface{}{"txid": bytes.Repeat([]byte{byte(i)}, 32), "out_idx": i},
			"input_script":  bytes.Repeat([]byte{0x51}, 107),
			"output_script": bytes.Repeat([]byte{0x76}, 25),
			"value":         int64(546 * (i + 1)),
			"sequence_no":   uint32(0xffffffff),
			"slp":           token,
		})
		outputs = append(outputs, map[string]interface{}{
			"value":         int64(1000 * (i + 1)),
			"output_script": bytes.Repeat([]byte{0xa9}, 23),
			"spent_by":      map[string]interface{}{"txid": bytes.Repeat([]byte{0xee}, 32), "input_idx": i},
			"slp":           token,
		})
	}
	return map[string]interface{}{
		"txid":            bytes.Repeat([]byte{0x11}, 32),
		"version":         2,
		"inputs":          inputs,
		"outputs":         outputs,
		"block":           map[string]interface{}{"height": 820000, "hash": bytes.Repeat([]byte{0x22}, 32), "timestamp": int64(1700000000)},
		"time_first_seen": int64(1699999990),
		"size":            uint32(900),
		"slpv2_sections": []interface{}{
			map[string]interface{}{"token_id": bytes.Repeat([]byte{0xcd}, 32), "section_type": "SEND"},
		},
	}
}

// ===== SIMPLE PAYLOAD BENCHMARKS =====

func BenchmarkSimple_Decode(b *testing.B) {
	b.ReportMetric(float64(len(benchSimplePayload)), "payload_bytes")
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := benchCodec.Decode("BlockchainInfo", benchSimplePayload); err != nil {
			b.Fatal(err)
		}
	}
}

// ===== COMPLEX PAYLOAD BENCHMARKS =====

func BenchmarkComplex_Decode(b *testing.B) {
	b.ReportMetric(float64(len(benchComplexPayload)), "payload_bytes")
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := benchCodec.Decode("Tx", benchComplexPayload); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkComplex_Encode(b *testing.B) {
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := benchCodec.Encode("Tx", benchComplexMessage); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkComplex_ToPlainObject(b *testing.B) {
	msg, err := benchCodec.Decode("Tx", benchComplexPayload)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := benchCodec.ToPlainObject("Tx", msg); err != nil {
			b.Fatal(err)
		}
	}
}

// TestBenchmarkVerification checks the benchmark payloads decode back to
// what was encoded.
func TestBenchmarkVerification(t *testing.T) {
	msg, err := benchCodec.Decode("Tx", benchComplexPayload)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	again, err := benchCodec.Encode("Tx", msg)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.Equal(again, benchComplexPayload) {
		t.Errorf("re-encoded payload differs: got %d bytes, want %d", len(again), len(benchComplexPayload))
	}
	if got := len(msg["inputs"].([]interface{})); got != 4 {
		t.Errorf("expected 4 inputs, got %d", got)
	}

	info, err := benchCodec.Decode("BlockchainInfo", benchSimplePayload)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if info["tip_height"] != int32(820000) {
		t.Errorf("expected tip_height 820000, got %v", info["tip_height"])
	}
}
