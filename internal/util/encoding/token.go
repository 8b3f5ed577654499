package encoding

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// TokenLength is the length of tokens returned by NewToken.
const TokenLength = 26

// MaxTokenAttempts bounds the collision retries of NewUniqueToken.
const MaxTokenAttempts = 16

// ErrTokenExhausted is returned when every generated token was already taken.
var ErrTokenExhausted = errors.New("no unused token found")

// NewToken returns a random, time-ordered identifier: a UUIDv7 in lowercase
// Crockford Base32. Tokens sort by creation time when compared as strings.
func NewToken() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("new uuid: %w", err)
	}

	return EncodeCrockfordB32LC(id[:]), nil
}

// NewUniqueToken generates tokens until taken reports one as free.
func NewUniqueToken(taken func(token string) bool) (string, error) {
	for range MaxTokenAttempts {
		token, err := NewToken()
		if err != nil {
			return "", err
		}

		if !taken(token) {
			return token, nil
		}
	}

	return "", fmt.Errorf("%w after %d attempts", ErrTokenExhausted, MaxTokenAttempts)
}
