package post

import (
	"context"

	"github.com/apiarian/village/internal/domain"
)

// Repository defines the interface for post persistence.
// Posts are immutable once created.
type Repository interface {
	// Exists reports whether a post record is stored for id.
	Exists(ctx context.Context, id domain.PostID) bool

	// NewPostID returns a fresh id that no stored post uses.
	NewPostID(ctx context.Context) (domain.PostID, error)

	// CreatePost stores a new post together with its content.
	// Returns ErrPostAlreadyExists if the id is taken.
	CreatePost(ctx context.Context, post *domain.Post, content string) error

	// LoadPost reads the post from storage, bypassing the cache.
	// Returns ErrPostNotFound if no record exists.
	LoadPost(ctx context.Context, id domain.PostID) (*domain.Post, error)

	// GetPost returns the cached post, loading it on a miss.
	GetPost(ctx context.Context, id domain.PostID) (*domain.Post, error)

	// LoadPostContent reads the post's free-text content.
	LoadPostContent(ctx context.Context, id domain.PostID) (string, error)

	// ListPosts loads every stored post, ordered by id.
	ListPosts(ctx context.Context) ([]*domain.Post, error)
}

// RepositoryFactory is a function that creates a new Repository instance.
type RepositoryFactory func(ctx context.Context) (Repository, error)
