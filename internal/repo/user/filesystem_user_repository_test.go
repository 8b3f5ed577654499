package user_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apiarian/village/internal/domain"
	"github.com/apiarian/village/internal/repo/blob"
	"github.com/apiarian/village/internal/repo/user"
)

func setupRepo(t *testing.T) (user.Repository, string) {
	t.Helper()

	dir := t.TempDir()
	factory := user.FileSystemUserRepositoryFactory(blob.FileSystemBlobRepositoryFactory(
		blob.FileSystemBlobRepositoryConfig{Basedir: dir},
	))

	repo, err := factory(context.TODO())
	require.NoError(t, err)

	return repo, filepath.Join(dir, user.Subdir)
}

func newUser(t *testing.T, username string) *domain.User {
	t.Helper()

	u, err := domain.NewUser(domain.Username(username), "Display "+username, "hunter2")
	require.NoError(t, err)

	return u
}

func TestCreateThenLoad(t *testing.T) {
	t.Parallel()

	ctx := context.TODO()
	repo, dir := setupRepo(t)

	alice := newUser(t, "alice")
	require.NoError(t, repo.CreateUser(ctx, alice, "hello\nworld"))

	assert.FileExists(t, filepath.Join(dir, "alice.yaml"))
	assert.True(t, repo.Exists(ctx, "alice"))

	loaded, err := repo.LoadUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice, loaded)
	assert.True(t, loaded.CheckPassword("hunter2"))

	content, err := repo.LoadUserContent(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld", content)
}

func TestCreateDuplicate(t *testing.T) {
	t.Parallel()

	ctx := context.TODO()
	repo, _ := setupRepo(t)

	require.NoError(t, repo.CreateUser(ctx, newUser(t, "alice"), ""))

	err := repo.CreateUser(ctx, newUser(t, "alice"), "other")
	require.ErrorIs(t, err, domain.ErrUserAlreadyExists)
	require.ErrorIs(t, err, domain.ErrAlreadyExists)

	content, err := repo.LoadUserContent(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, content)
}

func TestLoadMissing(t *testing.T) {
	t.Parallel()

	ctx := context.TODO()
	repo, _ := setupRepo(t)

	_, err := repo.LoadUser(ctx, "nobody")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.LoadUserContent(ctx, "nobody")
	require.ErrorIs(t, err, domain.ErrNotFound)

	assert.False(t, repo.Exists(ctx, "nobody"))
}

func TestPartialUpdates(t *testing.T) {
	t.Parallel()

	ctx := context.TODO()
	repo, _ := setupRepo(t)

	alice := newUser(t, "alice")
	require.NoError(t, repo.CreateUser(ctx, alice, "original bio"))

	t.Run("metadata keeps content", func(t *testing.T) {
		updated := alice.Clone()
		updated.DisplayName = "Alice Liddell"

		require.NoError(t, repo.UpdateUser(ctx, updated))

		loaded, err := repo.LoadUser(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "Alice Liddell", loaded.DisplayName)

		content, err := repo.LoadUserContent(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "original bio", content)
	})

	t.Run("content keeps metadata", func(t *testing.T) {
		require.NoError(t, repo.UpdateUserContent(ctx, "alice", "new bio\n"))

		loaded, err := repo.LoadUser(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "Alice Liddell", loaded.DisplayName)

		content, err := repo.LoadUserContent(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "new bio\n", content)
	})

	t.Run("content without record", func(t *testing.T) {
		err := repo.UpdateUserContent(ctx, "bob", "bio")
		require.ErrorIs(t, err, domain.ErrDataMissing)
		assert.False(t, repo.Exists(ctx, "bob"))
	})
}

func TestGetUserUsesCache(t *testing.T) {
	t.Parallel()

	ctx := context.TODO()
	repo, dir := setupRepo(t)

	require.NoError(t, repo.CreateUser(ctx, newUser(t, "alice"), ""))
	require.NoError(t, os.Remove(filepath.Join(dir, "alice.yaml")))

	cached, err := repo.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.Username("alice"), cached.Username)

	cached.DisplayName = "mutated"

	again, err := repo.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Display alice", again.DisplayName)

	_, err = repo.LoadUser(ctx, "alice")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInvalidUsernameRejected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		username domain.Username
	}{
		{name: "at sign", username: "al@ce"},
		{name: "space", username: "al ce"},
		{name: "path traversal", username: "../alice"},
		{name: "empty", username: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.TODO()
			repo, dir := setupRepo(t)

			u := newUser(t, "template")
			u.Username = tt.username

			err := repo.CreateUser(ctx, u, "")
			require.ErrorIs(t, err, domain.ErrValidation)

			_, err = repo.LoadUser(ctx, tt.username)
			require.ErrorIs(t, err, domain.ErrValidation)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestListUsers(t *testing.T) {
	t.Parallel()

	ctx := context.TODO()
	repo, dir := setupRepo(t)

	for _, name := range []string{"carol", "alice", "bob"} {
		require.NoError(t, repo.CreateUser(ctx, newUser(t, name), ""))
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)

	names := make([]domain.Username, 0, len(users))
	for _, u := range users {
		names = append(names, u.Username)
	}

	assert.Equal(t, []domain.Username{"alice", "bob", "carol"}, names)
}
