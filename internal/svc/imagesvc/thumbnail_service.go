package imagesvc

import (
	"context"
	"fmt"
	"image"
	"io"

	"golang.org/x/image/draw"

	"github.com/apiarian/village/internal/domain"
	"github.com/apiarian/village/internal/infra/logging"
)

// ThumbnailService implements ImageService with in-memory image processing.
type ThumbnailService struct {
	cfg      Config
	interpol draw.Interpolator
	log      logging.Logger
}

var _ ImageService = (*ThumbnailService)(nil)

// NewThumbnailService creates a ThumbnailService.
// Returns ErrUnknownInterpolator if cfg names an unsupported interpolator.
func NewThumbnailService(cfg Config) (*ThumbnailService, error) {
	interpol, err := interpolatorFor(cfg.Interpolator)
	if err != nil {
		return nil, fmt.Errorf("get interpolator: %w", err)
	}

	return &ThumbnailService{
		cfg:      cfg,
		interpol: interpol,
		log:      logging.GetLogger("svc.imagesvc.thumbnail_service"),
	}, nil
}

func (imageSvc *ThumbnailService) MaxSize() int64 {
	return imageSvc.cfg.MaxSize
}

func (imageSvc *ThumbnailService) CheckUploadConstraints(
	filename string,
	size int64,
	data []byte,
) (string, error) {
	if imageSvc.cfg.MaxSize > 0 && size > imageSvc.cfg.MaxSize {
		return "", fmt.Errorf("%w: %d exceeds %d", domain.ErrImageTooLarge, size, imageSvc.cfg.MaxSize)
	}

	imageType, err := TypeForFilename(filename)
	if err != nil {
		return "", err
	}

	f, err := formatByType(imageType)
	if err != nil {
		return "", err
	}

	if data != nil && !f.matches(data) {
		return "", fmt.Errorf("%w: %q is not %s", domain.ErrImageTypeMismatch, filename, imageType)
	}

	return imageType, nil
}

func (imageSvc *ThumbnailService) Decode(ctx context.Context, data []byte, mimeType string) (src *Source, err error) {
	log := imageSvc.log.With(logging.Group("image", "type", mimeType, "size", len(data)))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "image decode failed", "error", err)
		} else {
			log.DebugContext(ctx, "image decoded",
				logging.Group("image", "frames", len(src.Frames), "orientation", src.Orientation))
		}
	}()

	return Decode(data, mimeType)
}

func (imageSvc *ThumbnailService) MakeThumbnail(
	ctx context.Context,
	src *Source,
) (thumb image.Image, extra []image.Image, err error) {
	defer func() {
		if err != nil {
			imageSvc.log.ErrorContext(ctx, "thumbnail failed", "error", err)
		} else {
			imageSvc.log.DebugContext(ctx, "thumbnail made", logging.Group("thumbnail", "extra", len(extra)))
		}
	}()

	if src == nil || len(src.Frames) == 0 {
		return nil, nil, fmt.Errorf("%w: no frames", domain.ErrImageMalformed)
	}

	for i, frame := range src.Frames {
		if frame == nil || frame.Bounds().Empty() {
			return nil, nil, fmt.Errorf("%w: frame %d is empty", domain.ErrImageMalformed, i)
		}
	}

	thumb = thumbnailFrame(src.Frames[0], src.Orientation, imageSvc.interpol)

	rest := src.Frames[1:]
	if len(rest) > MaxExtraFrames {
		rest = rest[:MaxExtraFrames]
	}

	for _, frame := range rest {
		extra = append(extra, thumbnailFrame(frame, src.Orientation, imageSvc.interpol))
	}

	return thumb, extra, nil
}

func (imageSvc *ThumbnailService) EncodeThumbnail(
	ctx context.Context,
	w io.Writer,
	src *Source,
	thumb image.Image,
	extra []image.Image,
) (err error) {
	defer func() {
		if err != nil {
			imageSvc.log.ErrorContext(ctx, "thumbnail encode failed", "error", err)
		} else {
			imageSvc.log.DebugContext(ctx, "thumbnail encoded",
				logging.Group("thumbnail", "type", src.MIMEType, "frames", 1+len(extra)))
		}
	}()

	if src == nil || thumb == nil {
		return fmt.Errorf("%w: nothing to encode", domain.ErrImageMalformed)
	}

	return encodeThumbnail(w, src, thumb, extra)
}
