package program

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// canonicalEnc produces deterministic CBOR with sorted map keys, so the
// fingerprint of a definition does not depend on JSON key order.
var canonicalEnc cbor.EncMode

func init() {
	enc, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("canonical cbor options rejected: %v", err))
	}
	canonicalEnc = enc
}

// Fingerprint derives the stable identity of a program definition as a
// hex SHA-256 over its canonical encoding.
func Fingerprint(def map[string]any, kind Kind, instructions string) (string, error) {
	payload, err := canonicalEnc.Marshal(map[string]any{
		"signature":    def,
		"kind":         string(kind),
		"instructions": instructions,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode fingerprint payload: %w", err)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
