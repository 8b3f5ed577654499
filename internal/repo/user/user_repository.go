package user

import (
	"context"

	"github.com/apiarian/village/internal/domain"
)

// Repository defines the interface for user data persistence.
type Repository interface {
	// Exists reports whether a user record is stored for username.
	Exists(ctx context.Context, username domain.Username) bool

	// CreateUser adds a new user together with its content.
	// Returns ErrUserAlreadyExists if the username is already taken.
	CreateUser(ctx context.Context, user *domain.User, content string) error

	// LoadUser reads the user from storage, bypassing the cache.
	// Returns ErrUserNotFound if no record exists.
	LoadUser(ctx context.Context, username domain.Username) (*domain.User, error)

	// GetUser returns the cached user, loading it on a miss.
	GetUser(ctx context.Context, username domain.Username) (*domain.User, error)

	// LoadUserContent reads the user's free-text content.
	LoadUserContent(ctx context.Context, username domain.Username) (string, error)

	// UpdateUser replaces the user's metadata and keeps the stored content.
	UpdateUser(ctx context.Context, user *domain.User) error

	// UpdateUserContent replaces the user's content and keeps the stored metadata.
	UpdateUserContent(ctx context.Context, username domain.Username, content string) error

	// ListUsers loads every stored user, ordered by username.
	ListUsers(ctx context.Context) ([]*domain.User, error)
}

// RepositoryFactory is a function that creates a new Repository instance.
// Returns an error if initialization fails.
type RepositoryFactory func(ctx context.Context) (Repository, error)
