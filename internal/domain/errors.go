package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when creating an entity whose identity is taken.
	ErrAlreadyExists = errors.New("already exists")
	// ErrDataMissing is returned when a partial update cannot supply both halves of a record.
	ErrDataMissing = errors.New("data missing")
	// ErrValidation is returned when an entity or identity is malformed.
	ErrValidation = errors.New("validation failed")
	// ErrStorageIntegrity is returned when stored data violates a structural invariant.
	ErrStorageIntegrity = errors.New("storage integrity violated")
)

// Upload rejections.
var (
	ErrImageTypeNotSupported = errors.New("unsupported image type")
	ErrImageTypeMismatch     = errors.New("image content does not match its extension")
	ErrImageTooLarge         = errors.New("image exceeds the size limit")
	ErrImageMalformed        = fmt.Errorf("%w: malformed image", ErrValidation)
)

// validationError tags msg with ErrValidation.
func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
