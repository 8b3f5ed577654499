package encoding

import (
	"strings"
)

// crockfordAlphabet is Crockford's Base32 alphabet in lowercase.
const crockfordAlphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// EncodeCrockfordB32LC encodes input with Crockford's Base32 alphabet in lowercase,
// without padding. The alphabet avoids easily confused characters, which keeps
// generated identifiers safe to read aloud and to use as filenames.
//
//nolint:gosec
func EncodeCrockfordB32LC(input []byte) string {
	var (
		result strings.Builder
		bits   uint
		accum  uint32
	)

	result.Grow((len(input)*8 + 4) / 5)

	for _, b := range input {
		accum = accum<<8 | uint32(b)
		bits += 8

		for bits >= 5 {
			bits -= 5
			result.WriteByte(crockfordAlphabet[(accum>>bits)&0x1F])
		}
	}

	if bits > 0 {
		result.WriteByte(crockfordAlphabet[(accum<<(5-bits))&0x1F])
	}

	return result.String()
}

// NormalizeCrockfordB32LC canonicalizes a hand-typed Crockford Base32 string:
// whitespace is dropped, letters are lowercased, 'o' becomes '0' and
// 'i'/'l' become '1'. Hyphens are kept.
func NormalizeCrockfordB32LC(input string) string {
	var result strings.Builder

	for _, char := range strings.ToLower(input) {
		switch char {
		case ' ', '\t', '\n', '\r':
			continue
		case 'o':
			result.WriteRune('0')
		case 'i', 'l':
			result.WriteRune('1')
		default:
			result.WriteRune(char)
		}
	}

	return result.String()
}
