package blob_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apiarian/village/internal/domain"

	. "github.com/apiarian/village/internal/repo/blob"
)

func setupFileSystemBlobTestRepo(t *testing.T, ext string) (repo *FileSystemRepository, tempDir string) {
	t.Helper()

	tempDir = t.TempDir()

	repo, err := NewFileSystemBlobRepository(context.TODO(), "test", ext, FileSystemBlobRepositoryConfig{
		Basedir: tempDir,
	})
	require.NoError(t, err)

	return repo, tempDir
}

func TestFileSystemBlobRepository_Store(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		blobs    []*domain.Blob
		wantBody []byte
	}{
		{
			name:     "handles new blob",
			blobs:    []*domain.Blob{domain.NewBlob("newblob", []byte("original content"))},
			wantBody: []byte("original content"),
		},
		{
			name: "replaces existing blob wholly",
			blobs: []*domain.Blob{
				domain.NewBlob("existingblob", []byte("a much longer original content")),
				domain.NewBlob("existingblob", []byte("new content")),
			},
			wantBody: []byte("new content"),
		},
		{
			name:     "handles empty blob",
			blobs:    []*domain.Blob{domain.NewBlob("emptyblob", []byte{})},
			wantBody: []byte{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo, tempDir := setupFileSystemBlobTestRepo(t, "yaml")

			for _, blob := range tt.blobs {
				require.NoError(t, repo.Store(context.TODO(), blob))
			}

			id := tt.blobs[0].ID
			storedPath := filepath.Join(tempDir, "test", string(id)+".yaml")
			assert.Equal(t, storedPath, repo.GetFilename(id))
			assert.True(t, repo.Exists(context.TODO(), id))

			content, err := os.ReadFile(storedPath)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBody, content)

			// no temp files are left behind
			entries, err := os.ReadDir(filepath.Join(tempDir, "test"))
			require.NoError(t, err)
			assert.Len(t, entries, 1)
		})
	}
}

func TestFileSystemBlobRepository_Fetch(t *testing.T) {
	t.Parallel()

	repo, _ := setupFileSystemBlobTestRepo(t, "yaml")
	require.NoError(t, repo.Store(context.TODO(), domain.NewBlob("existingblob", []byte("test content"))))

	tests := []struct {
		name     string
		id       domain.BlobID
		wantBody []byte
		wantErr  error
	}{
		{
			name:     "handles existing blob",
			id:       "existingblob",
			wantBody: []byte("test content"),
		},
		{
			name:    "handles missing blob",
			id:      "missingblob",
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "rejects path traversal",
			id:      "../escape",
			wantErr: domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			blob, err := repo.Fetch(context.TODO(), tt.id)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, blob)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.id, blob.ID)
			assert.Equal(t, tt.wantBody, blob.Bytes())
		})
	}
}

func TestFileSystemBlobRepository_Delete(t *testing.T) {
	t.Parallel()

	repo, _ := setupFileSystemBlobTestRepo(t, "")
	require.NoError(t, repo.Store(context.TODO(), domain.NewBlob("photo.png", []byte("png"))))

	require.NoError(t, repo.Delete(context.TODO(), "photo.png"))
	assert.False(t, repo.Exists(context.TODO(), "photo.png"))

	err := repo.Delete(context.TODO(), "photo.png")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFileSystemBlobRepository_List(t *testing.T) {
	t.Parallel()

	repo, tempDir := setupFileSystemBlobTestRepo(t, "yaml")

	for _, id := range []domain.BlobID{"carol", "alice", "bob"} {
		require.NoError(t, repo.Store(context.TODO(), domain.NewBlob(id, []byte(id))))
	}

	// files that do not belong to the area are skipped
	area := filepath.Join(tempDir, "test")
	require.NoError(t, os.WriteFile(filepath.Join(area, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(area, ".tmp-123"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(area, "dir.yaml"), 0o755))

	ids, err := repo.List(context.TODO())
	require.NoError(t, err)
	assert.Equal(t, []domain.BlobID{"alice", "bob", "carol"}, ids)
}
