package contentsvc

import (
	"context"
	"fmt"
	"slices"

	"github.com/apiarian/village/internal/domain"
	"github.com/apiarian/village/internal/infra/logging"
	"github.com/apiarian/village/internal/svc/threadsvc"
)

// NewPostID allocates an unused post id.
func (s *ContentService) NewPostID(ctx context.Context) (domain.PostID, error) {
	//nolint:wrapcheck
	return s.PostRepo.NewPostID(ctx)
}

// CreatePost stores a new post with its content.
// Returns ErrPostAlreadyExists if the id is taken.
func (s *ContentService) CreatePost(ctx context.Context, p *domain.Post, content string) error {
	if err := s.PostRepo.CreatePost(ctx, p, content); err != nil {
		return fmt.Errorf("create post: %w", err)
	}

	s.invalidateGraph()

	return nil
}

// LoadPost reads the post from storage.
func (s *ContentService) LoadPost(ctx context.Context, id domain.PostID) (*domain.Post, error) {
	//nolint:wrapcheck
	return s.PostRepo.LoadPost(ctx, id)
}

// LoadPostContent reads the post's content.
func (s *ContentService) LoadPostContent(ctx context.Context, id domain.PostID) (string, error) {
	//nolint:wrapcheck
	return s.PostRepo.LoadPostContent(ctx, id)
}

// SubmitPost creates a post by author replying to parents, with a fresh id
// and the current time. uploadFilename, if not nil, must name a stored upload.
func (s *ContentService) SubmitPost(
	ctx context.Context,
	author domain.Username,
	title string,
	parents []domain.PostID,
	content string,
	uploadFilename *string,
) (p *domain.Post, err error) {
	log := s.Log.With(logging.Group("post", "author", author, "context", parents))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "submit post failed", "error", err)
		} else {
			log.InfoContext(ctx, "post submitted", logging.Group("post", "id", p.ID))
		}
	}()

	if uploadFilename != nil && !s.UploadRepo.Exists(ctx, *uploadFilename) {
		return nil, fmt.Errorf("%w: upload %q", domain.ErrNotFound, *uploadFilename)
	}

	id, err := s.PostRepo.NewPostID(ctx)
	if err != nil {
		return nil, fmt.Errorf("new post id: %w", err)
	}

	p, err = domain.NewPost(id, author, s.Now().UTC(), title, parents, uploadFilename)
	if err != nil {
		return nil, fmt.Errorf("new post: %w", err)
	}

	if err := s.CreatePost(ctx, p, content); err != nil {
		return nil, err
	}

	return p, nil
}

// ListTopLevelPosts returns the posts that start a thread, newest first.
func (s *ContentService) ListTopLevelPosts(ctx context.Context) ([]*domain.Post, error) {
	graph, err := s.Graph(ctx)
	if err != nil {
		return nil, err
	}

	top := clonePosts(graph.TopLevel())

	slices.SortStableFunc(top, func(a, b *domain.Post) int {
		return b.Timestamp.Compare(a.Timestamp)
	})

	return top, nil
}

// TailContext returns the ids of posts nothing replies to yet.
func (s *ContentService) TailContext(ctx context.Context) ([]domain.PostID, error) {
	graph, err := s.Graph(ctx)
	if err != nil {
		return nil, err
	}

	return graph.Tail(), nil
}

// LoadThread returns the thread rooted at root, parents before replies.
// Returns ErrPostNotFound if root does not exist.
func (s *ContentService) LoadThread(ctx context.Context, root domain.PostID) (thread []*domain.Post, err error) {
	log := s.Log.With(logging.Group("thread", "root", root))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "load thread failed", "error", err)
		} else {
			log.DebugContext(ctx, "thread loaded", logging.Group("thread", "posts", len(thread)))
		}
	}()

	graph, err := s.Graph(ctx)
	if err != nil {
		return nil, err
	}

	thread, err = graph.Expand(root)
	if err != nil {
		return nil, fmt.Errorf("expand thread: %w", err)
	}

	return clonePosts(thread), nil
}

// Graph returns the backlink graph over all stored posts. It is built on
// first use and rebuilt after a post is created through this service.
func (s *ContentService) Graph(ctx context.Context) (*threadsvc.Graph, error) {
	s.graphMu.Lock()
	defer s.graphMu.Unlock()

	if s.graph != nil {
		return s.graph, nil
	}

	posts, err := s.PostRepo.ListPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	s.graph = threadsvc.NewGraph(posts)

	s.Log.DebugContext(ctx, "post graph built", logging.Group("graph", "posts", s.graph.Len()))

	return s.graph, nil
}

func (s *ContentService) invalidateGraph() {
	s.graphMu.Lock()
	defer s.graphMu.Unlock()

	s.graph = nil
}

func clonePosts(posts []*domain.Post) []*domain.Post {
	clones := make([]*domain.Post, 0, len(posts))
	for _, p := range posts {
		clones = append(clones, p.Clone())
	}

	return clones
}
