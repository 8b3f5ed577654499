package contentsvc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/apiarian/village/internal/domain"
	"github.com/apiarian/village/internal/infra/logging"
	"github.com/apiarian/village/internal/svc/imagesvc"
)

// NewUploadFilename allocates an unused upload filename ending in ext.
func (s *ContentService) NewUploadFilename(ctx context.Context, ext string) (string, error) {
	//nolint:wrapcheck
	return s.UploadRepo.NewFilename(ctx, ext)
}

// UploadPathFor returns the filesystem path of an upload.
func (s *ContentService) UploadPathFor(filename string) (string, error) {
	//nolint:wrapcheck
	return s.UploadRepo.PathFor(filename)
}

// StoreUpload writes data under a filename allocated by NewUploadFilename.
func (s *ContentService) StoreUpload(ctx context.Context, filename string, data []byte) error {
	//nolint:wrapcheck
	return s.UploadRepo.Store(ctx, filename, data)
}

// FetchUpload reads an upload.
func (s *ContentService) FetchUpload(ctx context.Context, filename string) ([]byte, error) {
	//nolint:wrapcheck
	return s.UploadRepo.Fetch(ctx, filename)
}

// SaveUpload validates an uploaded image and stores it under a fresh
// filename keeping the original extension.
func (s *ContentService) SaveUpload(ctx context.Context, originalName string, data []byte) (filename string, err error) {
	log := s.Log.With(logging.Group("upload", "original", originalName, "size", len(data)))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "save upload failed", "error", err)
		} else {
			log.DebugContext(ctx, "upload saved", logging.Group("upload", "filename", filename))
		}
	}()

	if _, err := s.Images.CheckUploadConstraints(originalName, int64(len(data)), data); err != nil {
		return "", fmt.Errorf("check upload constraints: %w", err)
	}

	filename, err = s.UploadRepo.NewFilename(ctx, filepath.Ext(originalName))
	if err != nil {
		return "", fmt.Errorf("new upload filename: %w", err)
	}

	if err := s.UploadRepo.Store(ctx, filename, data); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}

	return filename, nil
}

// MakeThumbnail derives the thumbnail of an uploaded image and stores it as
// a new upload of the same format. Returns the thumbnail's filename.
func (s *ContentService) MakeThumbnail(ctx context.Context, sourceFilename string) (filename string, err error) {
	log := s.Log.With(logging.Group("thumbnail", "source", sourceFilename))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "make thumbnail failed", "error", err)
		} else {
			log.InfoContext(ctx, "thumbnail stored", logging.Group("thumbnail", "filename", filename))
		}
	}()

	mimeType, err := imagesvc.TypeForFilename(sourceFilename)
	if err != nil {
		return "", fmt.Errorf("source type: %w", err)
	}

	data, err := s.UploadRepo.Fetch(ctx, sourceFilename)
	if err != nil {
		return "", fmt.Errorf("fetch source: %w", err)
	}

	src, err := s.Images.Decode(ctx, data, mimeType)
	if err != nil {
		return "", fmt.Errorf("decode source: %w", err)
	}

	thumb, extra, err := s.Images.MakeThumbnail(ctx, src)
	if err != nil {
		return "", fmt.Errorf("make thumbnail: %w", err)
	}

	var buf bytes.Buffer
	if err := s.Images.EncodeThumbnail(ctx, &buf, src, thumb, extra); err != nil {
		return "", fmt.Errorf("encode thumbnail: %w", err)
	}

	filename, err = s.UploadRepo.NewFilename(ctx, filepath.Ext(sourceFilename))
	if err != nil {
		return "", fmt.Errorf("new thumbnail filename: %w", err)
	}

	if err := s.UploadRepo.Store(ctx, filename, buf.Bytes()); err != nil {
		return "", fmt.Errorf("store thumbnail: %w", err)
	}

	return filename, nil
}

// SetUserImage stores a new profile image with its thumbnail and points the
// user at both. Earlier image files are left in place.
func (s *ContentService) SetUserImage(
	ctx context.Context,
	username domain.Username,
	originalName string,
	data []byte,
) (u *domain.User, err error) {
	log := s.Log.With(logging.Group("user", "username", username))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "set user image failed", "error", err)
		} else {
			log.InfoContext(ctx, "user image set", logging.Group("user",
				"image_filename", *u.ImageFilename,
				"image_thumbnail", *u.ImageThumbnail,
			))
		}
	}()

	u, err = s.UserRepo.LoadUser(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	imageFilename, err := s.SaveUpload(ctx, originalName, data)
	if err != nil {
		return nil, err
	}

	thumbFilename, err := s.MakeThumbnail(ctx, imageFilename)
	if err != nil {
		return nil, err
	}

	u.ImageFilename = &imageFilename
	u.ImageThumbnail = &thumbFilename

	if err := s.UserRepo.UpdateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	return u, nil
}

// RegenerateUserThumbnail rebuilds the user's thumbnail from the stored
// profile image under a fresh filename and removes the superseded one.
func (s *ContentService) RegenerateUserThumbnail(
	ctx context.Context,
	username domain.Username,
) (filename string, err error) {
	log := s.Log.With(logging.Group("user", "username", username))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "regenerate thumbnail failed", "error", err)
		} else {
			log.InfoContext(ctx, "thumbnail regenerated", logging.Group("user", "image_thumbnail", filename))
		}
	}()

	u, err := s.UserRepo.LoadUser(ctx, username)
	if err != nil {
		return "", fmt.Errorf("load user: %w", err)
	}

	if u.ImageFilename == nil {
		return "", fmt.Errorf("%w: user %q has no image", domain.ErrDataMissing, username)
	}

	filename, err = s.MakeThumbnail(ctx, *u.ImageFilename)
	if err != nil {
		return "", err
	}

	previous := u.ImageThumbnail
	u.ImageThumbnail = &filename

	if err := s.UserRepo.UpdateUser(ctx, u); err != nil {
		return "", fmt.Errorf("update user: %w", err)
	}

	if previous != nil && *previous != filename {
		if err := s.UploadRepo.Delete(ctx, *previous); err != nil && !errors.Is(err, domain.ErrNotFound) {
			log.WarnContext(ctx, "remove superseded thumbnail failed",
				logging.Group("user", "previous_thumbnail", *previous), "error", err)
		}
	}

	return filename, nil
}
