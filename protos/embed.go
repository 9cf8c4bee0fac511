// Package protos ships the Chronik schema generations as .proto descriptor
// text. Every generation is decoded by the same wire engine; only the
// descriptor tables differ.
package protos

import (
	"embed"
	"fmt"
	"path"
	"strings"
)

// Generation names a versioned Chronik schema.
type Generation string

const (
	// GenerationV1 is the legacy schema: SLP metadata on Tx, v1 Utxo,
	// Subscription based websocket messages and uint64 token amounts.
	GenerationV1 Generation = "v1"
	// GenerationV2 is the SLPv2 era schema: token protocols, string token
	// amounts, TokenInfo and the WsSub/WsMsg websocket protocol.
	GenerationV2 Generation = "v2"

	// Latest is the generation served by current Chronik instances.
	Latest = GenerationV2
)

// FileName is the name of the descriptor file inside each generation.
const FileName = "chronik.proto"

//go:embed v1/chronik.proto v2/chronik.proto
var files embed.FS

// Generations lists every shipped generation, oldest first.
func Generations() []Generation {
	return []Generation{GenerationV1, GenerationV2}
}

// ParseGeneration accepts "v1", "v2" or "latest" (case-insensitive).
func ParseGeneration(s string) (Generation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "v1", "1":
		return GenerationV1, nil
	case "v2", "2", "latest", "":
		return GenerationV2, nil
	}
	return "", fmt.Errorf("unknown schema generation %q", s)
}

// Load returns the .proto text of a generation.
func Load(gen Generation) ([]byte, error) {
	gen, err := ParseGeneration(string(gen))
	if err != nil {
		return nil, err
	}
	data, err := files.ReadFile(path.Join(string(gen), FileName))
	if err != nil {
		return nil, fmt.Errorf("failed to read schema %s: %w", gen, err)
	}
	return data, nil
}

func (g Generation) String() string {
	return string(g)
}
