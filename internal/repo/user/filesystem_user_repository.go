package user

import (
	"context"
	"fmt"

	"github.com/apiarian/village/internal/domain"
	"github.com/apiarian/village/internal/infra/logging"
	"github.com/apiarian/village/internal/repo/blob"
	"github.com/apiarian/village/internal/repo/record"
)

const (
	// Subdir is the storage area holding user records.
	Subdir = "users"
	// Ext is the extension of user record files.
	Ext = "yaml"
)

// FileSystemUserRepository implements Repository with one hybrid record file per user.
type FileSystemUserRepository struct {
	store *record.Store[domain.User, *domain.User]
	log   logging.Logger
}

var _ Repository = (*FileSystemUserRepository)(nil)

// FileSystemUserRepositoryFactory creates a factory function that returns a new
// FileSystemUserRepository on top of the blob area produced by blobs.
// The factory function implements the RepositoryFactory type.
func FileSystemUserRepositoryFactory(blobs blob.RepositoryFactory) RepositoryFactory {
	return func(ctx context.Context) (Repository, error) {
		area, err := blobs(ctx, Subdir, Ext)
		if err != nil {
			return nil, fmt.Errorf("open user area: %w", err)
		}

		return NewFileSystemUserRepository(area), nil
	}
}

// NewFileSystemUserRepository creates a user repository over the given blob area.
func NewFileSystemUserRepository(area blob.Repository) *FileSystemUserRepository {
	return &FileSystemUserRepository{
		store: record.NewStore[domain.User](area, record.StoreConfig{
			Name: "user",
			ValidateID: func(id string) error {
				return domain.Username(id).Validate()
			},
			NotFound:      domain.ErrUserNotFound,
			AlreadyExists: domain.ErrUserAlreadyExists,
		}),
		log: logging.GetLogger("repo.user.filesystem_user_repository"),
	}
}

func (r *FileSystemUserRepository) Exists(ctx context.Context, username domain.Username) bool {
	return r.store.Exists(ctx, string(username))
}

func (r *FileSystemUserRepository) CreateUser(ctx context.Context, user *domain.User, content string) (err error) {
	defer func() {
		if err != nil {
			r.log.ErrorContext(ctx, "create user failed", logging.Group("user", "username", userName(user)), "error", err)
		} else {
			r.log.InfoContext(ctx, "user created", logging.Group("user", "username", user.Username))
		}
	}()

	if user == nil {
		return fmt.Errorf("%w: nil user", domain.ErrValidation)
	}

	if err := r.store.Create(ctx, user, content); err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *FileSystemUserRepository) LoadUser(ctx context.Context, username domain.Username) (*domain.User, error) {
	user, err := r.store.Load(ctx, string(username))
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	return user, nil
}

func (r *FileSystemUserRepository) GetUser(ctx context.Context, username domain.Username) (*domain.User, error) {
	user, err := r.store.Get(ctx, string(username))
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}

func (r *FileSystemUserRepository) LoadUserContent(ctx context.Context, username domain.Username) (string, error) {
	content, err := r.store.LoadContent(ctx, string(username))
	if err != nil {
		return "", fmt.Errorf("load user content: %w", err)
	}

	return content, nil
}

func (r *FileSystemUserRepository) UpdateUser(ctx context.Context, user *domain.User) error {
	if user == nil {
		return fmt.Errorf("update user: %w: nil user", domain.ErrValidation)
	}

	if err := r.store.Update(ctx, user.Identity(), user, nil); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	return nil
}

func (r *FileSystemUserRepository) UpdateUserContent(
	ctx context.Context,
	username domain.Username,
	content string,
) error {
	if err := r.store.Update(ctx, string(username), nil, &content); err != nil {
		return fmt.Errorf("update user content: %w", err)
	}

	return nil
}

func (r *FileSystemUserRepository) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := r.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return users, nil
}

func userName(user *domain.User) string {
	if user == nil {
		return ""
	}

	return string(user.Username)
}
