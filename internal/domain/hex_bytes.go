package domain

import (
	"encoding/hex"
	"fmt"

	"gopkg.in/yaml.v3"
)

// HexBytes is a byte slice stored as a lowercase hexadecimal string in record metadata.
type HexBytes []byte

var (
	_ yaml.Marshaler   = HexBytes(nil)
	_ yaml.Unmarshaler = (*HexBytes)(nil)
)

// String returns the lowercase hexadecimal form.
func (b HexBytes) String() string {
	return hex.EncodeToString(b)
}

// MarshalYAML implements yaml.Marshaler.
func (b HexBytes) MarshalYAML() (any, error) {
	return hex.EncodeToString(b), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *HexBytes) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("decode hex field: %w", err)
	}

	decoded, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("%w: hex field: %w", ErrValidation, err)
	}

	*b = decoded

	return nil
}
