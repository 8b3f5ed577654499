package blob

import (
	"context"

	"github.com/apiarian/village/internal/domain"
)

// Repository defines the interface for one flat storage area of files.
type Repository interface {
	// Exists checks if a blob with the given ID exists.
	Exists(ctx context.Context, id domain.BlobID) bool

	// Store writes the blob, wholly replacing any previous content.
	Store(ctx context.Context, blob *domain.Blob) error

	// Fetch retrieves a blob by its ID.
	// Returns domain.ErrNotFound if the blob does not exist.
	Fetch(ctx context.Context, id domain.BlobID) (*domain.Blob, error)

	// Delete removes a blob with the given ID.
	// Returns domain.ErrNotFound if the blob does not exist.
	Delete(ctx context.Context, id domain.BlobID) error

	// List returns the IDs of all blobs in the area, ordered by filename.
	List(ctx context.Context) ([]domain.BlobID, error)

	// GetFilename returns the path of the file backing the given ID.
	GetFilename(id domain.BlobID) string
}

// RepositoryFactory is a function that creates a new Repository instance.
// Parameters:
// - subdir: directory of the storage area below the base directory
// - ext: file extension appended to every ID, or "" to use IDs as filenames
type RepositoryFactory func(
	ctx context.Context,
	subdir string,
	ext string,
) (Repository, error)
