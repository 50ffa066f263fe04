package rtdiag

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("rtdiag: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalStats serializes a Stats snapshot to canonical CBOR bytes.
func MarshalStats(s *Stats) ([]byte, error) {
	return cborEncMode.Marshal(s)
}

// UnmarshalStats deserializes a Stats snapshot from CBOR bytes.
func UnmarshalStats(data []byte) (*Stats, error) {
	var s Stats
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("rtdiag: unmarshal stats: %w", err)
	}
	return &s, nil
}
