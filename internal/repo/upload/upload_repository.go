package upload

import (
	"context"
)

// Repository stores uploaded files under server-generated filenames.
type Repository interface {
	// NewFilename returns an unused filename: a fresh token followed by ext.
	NewFilename(ctx context.Context, ext string) (string, error)

	// PathFor returns the filesystem path of an upload.
	PathFor(filename string) (string, error)

	// Exists reports whether an upload is stored under filename.
	Exists(ctx context.Context, filename string) bool

	// Store writes data under filename, replacing any previous upload.
	Store(ctx context.Context, filename string, data []byte) error

	// Fetch reads the upload stored under filename.
	// Returns domain.ErrNotFound if there is none.
	Fetch(ctx context.Context, filename string) ([]byte, error)

	// Delete removes the upload stored under filename.
	Delete(ctx context.Context, filename string) error
}

// RepositoryFactory is a function that creates a new Repository instance.
type RepositoryFactory func(ctx context.Context) (Repository, error)
