// Package contentsvc is the content repository used by the site and the
// admin tools: users, posts, uploads and the thread views derived from them.
package contentsvc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/apiarian/village/internal/domain"
	"github.com/apiarian/village/internal/infra/logging"
	"github.com/apiarian/village/internal/repo/post"
	"github.com/apiarian/village/internal/repo/upload"
	"github.com/apiarian/village/internal/repo/user"
	"github.com/apiarian/village/internal/svc/imagesvc"
	"github.com/apiarian/village/internal/svc/threadsvc"
)

// ContentService combines the entity stores, the upload area and the
// thumbnail generator behind one API. It is safe for concurrent use within
// one process; writers in other processes are not coordinated.
type ContentService struct {
	UserRepo   user.Repository
	PostRepo   post.Repository
	UploadRepo upload.Repository
	Images     imagesvc.ImageService
	Log        logging.Logger
	// Now returns the timestamp of new posts.
	Now func() time.Time

	graph   *threadsvc.Graph
	graphMu sync.Mutex
}

// NewContentService creates a ContentService from the given repository factories.
// Returns an error if any repository cannot be created.
func NewContentService(
	ctx context.Context,
	userFactory user.RepositoryFactory,
	postFactory post.RepositoryFactory,
	uploadFactory upload.RepositoryFactory,
	images imagesvc.ImageService,
) (*ContentService, error) {
	userRepo, err := userFactory(ctx)
	if err != nil {
		return nil, fmt.Errorf("new user repo: %w", err)
	}

	postRepo, err := postFactory(ctx)
	if err != nil {
		return nil, fmt.Errorf("new post repo: %w", err)
	}

	uploadRepo, err := uploadFactory(ctx)
	if err != nil {
		return nil, fmt.Errorf("new upload repo: %w", err)
	}

	return &ContentService{
		UserRepo:   userRepo,
		PostRepo:   postRepo,
		UploadRepo: uploadRepo,
		Images:     images,
		Log:        logging.GetLogger("svc.contentsvc.content_service"),
		Now:        time.Now,
	}, nil
}

// CreateUser stores a new user with its bio.
func (s *ContentService) CreateUser(ctx context.Context, u *domain.User, content string) error {
	//nolint:wrapcheck
	return s.UserRepo.CreateUser(ctx, u, content)
}

// LoadUser reads the user from storage.
func (s *ContentService) LoadUser(ctx context.Context, username domain.Username) (*domain.User, error) {
	//nolint:wrapcheck
	return s.UserRepo.LoadUser(ctx, username)
}

// GetUser returns the cached user, loading it on a miss.
func (s *ContentService) GetUser(ctx context.Context, username domain.Username) (*domain.User, error) {
	//nolint:wrapcheck
	return s.UserRepo.GetUser(ctx, username)
}

// UpdateUser rewrites the user's metadata, keeping its bio.
func (s *ContentService) UpdateUser(ctx context.Context, u *domain.User) error {
	//nolint:wrapcheck
	return s.UserRepo.UpdateUser(ctx, u)
}

// LoadUserContent reads the user's bio.
func (s *ContentService) LoadUserContent(ctx context.Context, username domain.Username) (string, error) {
	//nolint:wrapcheck
	return s.UserRepo.LoadUserContent(ctx, username)
}

// UpdateUserContent rewrites the user's bio, keeping its metadata.
func (s *ContentService) UpdateUserContent(ctx context.Context, username domain.Username, content string) error {
	//nolint:wrapcheck
	return s.UserRepo.UpdateUserContent(ctx, username, content)
}

// ListUsers loads all users ordered by username.
func (s *ContentService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	//nolint:wrapcheck
	return s.UserRepo.ListUsers(ctx)
}

// RegisterUser creates an account whose password must be changed on first login.
// Returns ErrUserAlreadyExists if the username is taken.
func (s *ContentService) RegisterUser(
	ctx context.Context,
	username domain.Username,
	displayName string,
	password string,
) (u *domain.User, err error) {
	log := s.Log.With(logging.Group("user", "username", username))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "register user failed", "error", err)
		} else {
			log.InfoContext(ctx, "user registered")
		}
	}()

	u, err = domain.NewUser(username, displayName, password)
	if err != nil {
		return nil, fmt.Errorf("new user: %w", err)
	}

	if err := s.UserRepo.CreateUser(ctx, u, ""); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return u, nil
}

// Authenticate returns the user if password matches.
// Returns ErrInvalidCredentials for unknown users and wrong passwords alike.
func (s *ContentService) Authenticate(
	ctx context.Context,
	username domain.Username,
	password string,
) (u *domain.User, err error) {
	log := s.Log.With(logging.Group("user", "username", username))

	defer func() {
		if err != nil {
			log.WarnContext(ctx, "authentication failed", "error", err)
		} else {
			log.DebugContext(ctx, "authenticated", logging.Group("user",
				"new_password_required", u.NewPasswordRequired,
			))
		}
	}()

	u, err = s.UserRepo.LoadUser(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrValidation) {
			return nil, errors.Join(domain.ErrInvalidCredentials, err)
		}

		return nil, fmt.Errorf("load user: %w", err)
	}

	if !u.CheckPassword(password) {
		return nil, domain.ErrInvalidCredentials
	}

	return u, nil
}

// ChangePassword replaces the password after verifying the current one and
// clears the new password requirement.
func (s *ContentService) ChangePassword(
	ctx context.Context,
	username domain.Username,
	currentPassword string,
	newPassword string,
) (err error) {
	log := s.Log.With(logging.Group("user", "username", username))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "change password failed", "error", err)
		} else {
			log.InfoContext(ctx, "password changed")
		}
	}()

	u, err := s.UserRepo.LoadUser(ctx, username)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	if err := u.UpdatePassword(currentPassword, newPassword); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	u.NewPasswordRequired = false

	if err := s.UserRepo.UpdateUser(ctx, u); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	return nil
}

// ResetPassword replaces the password without verification. The user must
// change it on next login.
func (s *ContentService) ResetPassword(ctx context.Context, username domain.Username, newPassword string) (err error) {
	log := s.Log.With(logging.Group("user", "username", username))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "reset password failed", "error", err)
		} else {
			log.InfoContext(ctx, "password reset")
		}
	}()

	u, err := s.UserRepo.LoadUser(ctx, username)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	if err := u.ForceUpdatePassword(newPassword); err != nil {
		return fmt.Errorf("force update password: %w", err)
	}

	u.NewPasswordRequired = true

	if err := s.UserRepo.UpdateUser(ctx, u); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	return nil
}
