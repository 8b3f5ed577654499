package post

import (
	"context"
	"fmt"

	"github.com/apiarian/village/internal/domain"
	"github.com/apiarian/village/internal/infra/logging"
	"github.com/apiarian/village/internal/repo/blob"
	"github.com/apiarian/village/internal/repo/record"
	"github.com/apiarian/village/internal/util/encoding"
)

const (
	// Subdir is the storage area holding post records.
	Subdir = "posts"
	// Ext is the extension of post record files.
	Ext = "yaml"
)

// FileSystemPostRepository implements Repository with one hybrid record file per post.
type FileSystemPostRepository struct {
	store *record.Store[domain.Post, *domain.Post]
	log   logging.Logger
}

var _ Repository = (*FileSystemPostRepository)(nil)

// FileSystemPostRepositoryFactory creates a factory function that returns a new
// FileSystemPostRepository on top of the blob area produced by blobs.
func FileSystemPostRepositoryFactory(blobs blob.RepositoryFactory) RepositoryFactory {
	return func(ctx context.Context) (Repository, error) {
		area, err := blobs(ctx, Subdir, Ext)
		if err != nil {
			return nil, fmt.Errorf("open post area: %w", err)
		}

		return NewFileSystemPostRepository(area), nil
	}
}

// NewFileSystemPostRepository creates a post repository over the given blob area.
func NewFileSystemPostRepository(area blob.Repository) *FileSystemPostRepository {
	return &FileSystemPostRepository{
		store: record.NewStore[domain.Post](area, record.StoreConfig{
			Name: "post",
			ValidateID: func(id string) error {
				return domain.PostID(id).Validate()
			},
			NotFound:      domain.ErrPostNotFound,
			AlreadyExists: domain.ErrPostAlreadyExists,
		}),
		log: logging.GetLogger("repo.post.filesystem_post_repository"),
	}
}

func (r *FileSystemPostRepository) Exists(ctx context.Context, id domain.PostID) bool {
	return r.store.Exists(ctx, string(id))
}

func (r *FileSystemPostRepository) NewPostID(ctx context.Context) (id domain.PostID, err error) {
	defer func() {
		if err != nil {
			r.log.ErrorContext(ctx, "allocate post id failed", "error", err)
		} else {
			r.log.DebugContext(ctx, "post id allocated", logging.Group("post", "id", id))
		}
	}()

	token, err := encoding.NewUniqueToken(func(token string) bool {
		return r.store.Exists(ctx, token)
	})
	if err != nil {
		return "", fmt.Errorf("new post id: %w", err)
	}

	return domain.PostID(token), nil
}

func (r *FileSystemPostRepository) CreatePost(ctx context.Context, post *domain.Post, content string) (err error) {
	defer func() {
		if err != nil {
			r.log.ErrorContext(ctx, "create post failed", "error", err)
		} else {
			r.log.InfoContext(ctx, "post created", logging.Group("post",
				"id", post.ID,
				"author", post.Author,
				"context", len(post.Context),
			))
		}
	}()

	if post == nil {
		return fmt.Errorf("%w: nil post", domain.ErrValidation)
	}

	if err := r.store.Create(ctx, post, content); err != nil {
		return fmt.Errorf("create post: %w", err)
	}

	return nil
}

func (r *FileSystemPostRepository) LoadPost(ctx context.Context, id domain.PostID) (*domain.Post, error) {
	post, err := r.store.Load(ctx, string(id))
	if err != nil {
		return nil, fmt.Errorf("load post: %w", err)
	}

	return post, nil
}

func (r *FileSystemPostRepository) GetPost(ctx context.Context, id domain.PostID) (*domain.Post, error) {
	post, err := r.store.Get(ctx, string(id))
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}

	return post, nil
}

func (r *FileSystemPostRepository) LoadPostContent(ctx context.Context, id domain.PostID) (string, error) {
	content, err := r.store.LoadContent(ctx, string(id))
	if err != nil {
		return "", fmt.Errorf("load post content: %w", err)
	}

	return content, nil
}

func (r *FileSystemPostRepository) ListPosts(ctx context.Context) ([]*domain.Post, error) {
	posts, err := r.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	return posts, nil
}
