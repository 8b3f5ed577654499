package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/apiarian/village/internal/domain"
	"github.com/apiarian/village/internal/infra/logging"
)

var (
	ErrBytesWrittenMismatch = errors.New("bytes written mismatch")
	ErrBytesReadMismatch    = errors.New("bytes read mismatch")
)

const tempPrefix = ".tmp-"

// FileSystemBlobRepositoryConfig holds configuration for the filesystem-based blob repository.
type FileSystemBlobRepositoryConfig struct {
	// Basedir is the repository root holding one directory per storage area
	Basedir string `env:"BASEDIR" envDefault:"var/storage/village"`
}

// FileSystemBlobRepositoryFactory creates a factory function that returns a new FileSystemRepository.
// The factory function implements the RepositoryFactory type.
func FileSystemBlobRepositoryFactory(cfg FileSystemBlobRepositoryConfig) RepositoryFactory {
	return func(
		ctx context.Context,
		subdir string,
		ext string,
	) (Repository, error) {
		return NewFileSystemBlobRepository(ctx, subdir, ext, cfg)
	}
}

// NewFileSystemBlobRepository creates a new FileSystemRepository with the given parameters:
// - subdir: directory of the storage area below cfg.Basedir
// - ext: file extension for blob files, "" for none
// - cfg: repository configuration
// The area directory is created if missing.
func NewFileSystemBlobRepository(
	ctx context.Context,
	subdir string,
	ext string,
	cfg FileSystemBlobRepositoryConfig,
) (*FileSystemRepository, error) {
	log := logging.GetLogger("repo.blob.filesystem_repository").With(
		logging.Group("repo",
			"basedir", cfg.Basedir,
			"subdir", subdir,
			"ext", ext,
		),
	)

	repo := &FileSystemRepository{
		dir: filepath.Join(cfg.Basedir, subdir),
		ext: ext,
		log: log,
	}

	if err := repo.initStorage(ctx); err != nil {
		return nil, fmt.Errorf("init repo: %w", err)
	}

	return repo, nil
}

// FileSystemRepository implements Repository as a flat directory with one file per blob.
// Files are replaced by writing a temporary sibling and renaming it into place.
type FileSystemRepository struct {
	dir string
	ext string
	log logging.Logger
}

var _ Repository = (*FileSystemRepository)(nil)

func (fsRepo *FileSystemRepository) Exists(_ context.Context, id domain.BlobID) bool {
	if validateID(id) != nil {
		return false
	}

	info, err := os.Stat(fsRepo.GetFilename(id))

	return err == nil && info.Mode().IsRegular()
}

func (fsRepo *FileSystemRepository) Store(ctx context.Context, blob *domain.Blob) error {
	if err := fsRepo.storeBlob(ctx, blob); err != nil {
		return fmt.Errorf("store blob: %w", err)
	}

	return nil
}

func (fsRepo *FileSystemRepository) Fetch(ctx context.Context, id domain.BlobID) (*domain.Blob, error) {
	blob, err := fsRepo.fetchBlob(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch blob: %w", err)
	}

	return blob, nil
}

func (fsRepo *FileSystemRepository) Delete(ctx context.Context, id domain.BlobID) error {
	if err := fsRepo.deleteBlob(ctx, id); err != nil {
		return fmt.Errorf("delete blob: %w", err)
	}

	return nil
}

func (fsRepo *FileSystemRepository) List(ctx context.Context) (ids []domain.BlobID, err error) {
	defer func() {
		if err != nil {
			fsRepo.log.ErrorContext(ctx, "blob list failed", "error", err)
		} else {
			fsRepo.log.DebugContext(ctx, "blobs listed", "count", len(ids))
		}
	}()

	entries, err := os.ReadDir(fsRepo.dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	suffix := fsRepo.suffix()

	for _, entry := range entries {
		name := entry.Name()

		if !entry.Type().IsRegular() || strings.HasPrefix(name, tempPrefix) {
			continue
		}

		if !strings.HasSuffix(name, suffix) || len(name) == len(suffix) {
			continue
		}

		ids = append(ids, domain.BlobID(strings.TrimSuffix(name, suffix)))
	}

	return ids, nil
}

// GetFilename returns the full filesystem path for a blob with the given ID.
func (fsRepo *FileSystemRepository) GetFilename(id domain.BlobID) string {
	return filepath.Join(fsRepo.dir, string(id)+fsRepo.suffix())
}

func (fsRepo *FileSystemRepository) suffix() string {
	if fsRepo.ext == "" {
		return ""
	}

	return "." + fsRepo.ext
}

func (fsRepo *FileSystemRepository) initStorage(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			fsRepo.log.ErrorContext(ctx, "init storage failed", "error", err)
		} else {
			fsRepo.log.DebugContext(ctx, "init storage")
		}
	}()

	if err := os.MkdirAll(fsRepo.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir all: %w", err)
	}

	return nil
}

// validateID rejects IDs that would escape the storage area or collide with temp files.
func validateID(id domain.BlobID) error {
	s := string(id)

	switch {
	case s == "", s == ".", s == "..":
		return fmt.Errorf("%w: blob id %q", domain.ErrValidation, s)
	case strings.ContainsAny(s, `/\`), strings.ContainsRune(s, 0):
		return fmt.Errorf("%w: blob id %q contains a path separator", domain.ErrValidation, s)
	case strings.HasPrefix(s, tempPrefix):
		return fmt.Errorf("%w: blob id %q uses a reserved prefix", domain.ErrValidation, s)
	}

	return nil
}

func (fsRepo *FileSystemRepository) storeBlob(ctx context.Context, blob *domain.Blob) (err error) {
	filename := fsRepo.GetFilename(blob.ID)

	defer func() {
		log := fsRepo.log.With(logging.Group("blob", "id", blob.ID, "filename", filename))
		if err != nil {
			log.ErrorContext(ctx, "blob store failed", "error", err)
		} else {
			log.DebugContext(ctx, "blob stored", "size", blob.Size())
		}
	}()

	if err := validateID(blob.ID); err != nil {
		return err
	}

	file, err := os.CreateTemp(fsRepo.dir, tempPrefix+"*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}

	tempname := file.Name()

	defer func() {
		if err != nil {
			_ = os.Remove(tempname)
		}
	}()

	if err := writeAll(file, blob); err != nil {
		_ = file.Close()

		return err
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}

	if err := os.Chmod(tempname, 0o644); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}

	if err := os.Rename(tempname, filename); err != nil {
		return fmt.Errorf("rename: %w", err)
	}

	return nil
}

func writeAll(file *os.File, blob *domain.Blob) error {
	n, err := file.Write(blob.Body)
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}

	if err := file.Sync(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	if info, err := file.Stat(); err != nil {
		return fmt.Errorf("stat: %w", err)
	} else if int64(n) != info.Size() || int64(n) != blob.Size() {
		return fmt.Errorf("%w: expected %d, got %d", ErrBytesWrittenMismatch, blob.Size(), n)
	}

	return nil
}

func (fsRepo *FileSystemRepository) fetchBlob(
	ctx context.Context,
	blobID domain.BlobID,
) (blob *domain.Blob, err error) {
	filename := fsRepo.GetFilename(blobID)

	defer func() {
		log := fsRepo.log.With(logging.Group("blob", "id", blobID, "filename", filename))
		if err != nil {
			log.ErrorContext(ctx, "blob fetch failed", "error", err)
		} else {
			log.DebugContext(ctx, "blob fetched")
		}
	}()

	if err := validateID(blobID); err != nil {
		return nil, err
	}

	file, err := os.Open(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = errors.Join(domain.ErrNotFound, err)
		}

		return nil, fmt.Errorf("open: %w", err)
	}
	defer file.Close()

	body, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	if info, err := file.Stat(); err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	} else if int64(len(body)) != info.Size() {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrBytesReadMismatch, info.Size(), len(body))
	}

	return domain.NewBlob(blobID, body), nil
}

func (fsRepo *FileSystemRepository) deleteBlob(ctx context.Context, id domain.BlobID) (err error) {
	filename := fsRepo.GetFilename(id)

	defer func() {
		log := fsRepo.log.With(logging.Group("blob", "id", id, "filename", filename))
		if err != nil {
			log.ErrorContext(ctx, "blob delete failed", "error", err)
		} else {
			log.DebugContext(ctx, "blob deleted")
		}
	}()

	if err := validateID(id); err != nil {
		return err
	}

	if err := os.Remove(filename); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = errors.Join(domain.ErrNotFound, err)
		}

		return fmt.Errorf("remove: %w", err)
	}

	return nil
}
