package types

import (
	"encoding/hex"
	"fmt"
	"unicode/utf8"
)

// Hex represents a hex-encoded byte string as it appears inside Cardano
// asset identifiers (policy ids and asset names). It provides validation
// and decoding back to the original bytes or printable text.
type Hex string

// PolicyIDHexLen is the length, in hex characters, of a policy id
// (28 bytes on the ledger).
const PolicyIDHexLen = 56

// HexFromString validates the input string and returns a Hex value if valid.
func HexFromString(s string) (Hex, error) {
	if err := validateHex(s); err != nil {
		return "", err
	}
	return Hex(s), nil
}

// validateHex checks whether a string is a well-formed hex byte string
// (even length, hex digits only). The empty string is valid: assets may
// carry an empty asset name.
func validateHex(s string) error {
	if len(s)%2 != 0 {
		return fmt.Errorf("hex string must have even length, got %d", len(s))
	}

	if _, err := hex.DecodeString(s); err != nil {
		return fmt.Errorf("invalid hexadecimal value: %w", err)
	}

	return nil
}

// Bytes decodes the hex string into its raw bytes.
func (h Hex) Bytes() ([]byte, error) {
	return hex.DecodeString(string(h))
}

// Text decodes the hex string and returns it as text, reporting whether the
// decoded bytes form valid UTF-8. Asset names are arbitrary bytes on the
// ledger, so the second return value must be checked before display.
func (h Hex) Text() (string, bool) {
	b, err := h.Bytes()
	if err != nil {
		return "", false
	}

	if !utf8.Valid(b) {
		return "", false
	}

	return string(b), true
}

// IsPolicyID reports whether the hex string has the exact length and shape
// of a policy id.
func (h Hex) IsPolicyID() bool {
	return len(h) == PolicyIDHexLen && validateHex(string(h)) == nil
}

// String returns the hex string unchanged.
func (h Hex) String() string {
	return string(h)
}
