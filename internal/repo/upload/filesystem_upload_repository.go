package upload

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/apiarian/village/internal/domain"
	"github.com/apiarian/village/internal/infra/logging"
	"github.com/apiarian/village/internal/repo/blob"
	"github.com/apiarian/village/internal/util/encoding"
)

// Subdir is the storage area holding uploaded files.
const Subdir = "uploads"

//nolint:gochecknoglobals
var (
	extPattern      = regexp.MustCompile(`^\.[a-z0-9]+$`)
	filenamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+(\.[A-Za-z0-9]+)?$`)
)

// FileSystemUploadRepository implements Repository on a blob area whose
// blob ids are the upload filenames.
type FileSystemUploadRepository struct {
	area blob.Repository
	log  logging.Logger
}

var _ Repository = (*FileSystemUploadRepository)(nil)

// FileSystemUploadRepositoryFactory creates a factory function that returns a new
// FileSystemUploadRepository on top of the blob area produced by blobs.
func FileSystemUploadRepositoryFactory(blobs blob.RepositoryFactory) RepositoryFactory {
	return func(ctx context.Context) (Repository, error) {
		area, err := blobs(ctx, Subdir, "")
		if err != nil {
			return nil, fmt.Errorf("open upload area: %w", err)
		}

		return NewFileSystemUploadRepository(area), nil
	}
}

// NewFileSystemUploadRepository creates an upload repository over the given blob area.
func NewFileSystemUploadRepository(area blob.Repository) *FileSystemUploadRepository {
	return &FileSystemUploadRepository{
		area: area,
		log:  logging.GetLogger("repo.upload.filesystem_upload_repository"),
	}
}

// NormalizeExt lowercases ext and adds the leading dot if missing.
// An empty ext stays empty.
func NormalizeExt(ext string) (string, error) {
	if ext == "" {
		return "", nil
	}

	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	if !extPattern.MatchString(ext) {
		return "", fmt.Errorf("%w: upload extension %q", domain.ErrValidation, ext)
	}

	return ext, nil
}

// ValidateFilename rejects names that were not produced by NewFilename.
func ValidateFilename(filename string) error {
	if !filenamePattern.MatchString(filename) {
		return fmt.Errorf("%w: upload filename %q", domain.ErrValidation, filename)
	}

	return nil
}

func (r *FileSystemUploadRepository) NewFilename(ctx context.Context, ext string) (filename string, err error) {
	defer func() {
		if err != nil {
			r.log.ErrorContext(ctx, "allocate upload filename failed", "error", err)
		} else {
			r.log.DebugContext(ctx, "upload filename allocated", logging.Group("upload", "filename", filename))
		}
	}()

	ext, err = NormalizeExt(ext)
	if err != nil {
		return "", err
	}

	token, err := encoding.NewUniqueToken(func(token string) bool {
		return r.area.Exists(ctx, domain.BlobID(token+ext))
	})
	if err != nil {
		return "", fmt.Errorf("new upload filename: %w", err)
	}

	return token + ext, nil
}

func (r *FileSystemUploadRepository) PathFor(filename string) (string, error) {
	if err := ValidateFilename(filename); err != nil {
		return "", err
	}

	return r.area.GetFilename(domain.BlobID(filename)), nil
}

func (r *FileSystemUploadRepository) Exists(ctx context.Context, filename string) bool {
	if ValidateFilename(filename) != nil {
		return false
	}

	return r.area.Exists(ctx, domain.BlobID(filename))
}

func (r *FileSystemUploadRepository) Store(ctx context.Context, filename string, data []byte) (err error) {
	defer func() {
		log := r.log.With(logging.Group("upload", "filename", filename, "size", len(data)))
		if err != nil {
			log.ErrorContext(ctx, "upload store failed", "error", err)
		} else {
			log.InfoContext(ctx, "upload stored")
		}
	}()

	if err := ValidateFilename(filename); err != nil {
		return err
	}

	if err := r.area.Store(ctx, domain.NewBlob(domain.BlobID(filename), data)); err != nil {
		return fmt.Errorf("store upload: %w", err)
	}

	return nil
}

func (r *FileSystemUploadRepository) Fetch(ctx context.Context, filename string) ([]byte, error) {
	if err := ValidateFilename(filename); err != nil {
		return nil, err
	}

	data, err := r.area.Fetch(ctx, domain.BlobID(filename))
	if err != nil {
		return nil, fmt.Errorf("fetch upload: %w", err)
	}

	return data.Bytes(), nil
}

func (r *FileSystemUploadRepository) Delete(ctx context.Context, filename string) error {
	if err := ValidateFilename(filename); err != nil {
		return err
	}

	if err := r.area.Delete(ctx, domain.BlobID(filename)); err != nil {
		return fmt.Errorf("delete upload: %w", err)
	}

	return nil
}
