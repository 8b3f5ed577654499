package imagesvc

import (
	"context"
	"image"
	"io"
)

// ImageService defines the interface for validating uploads and deriving thumbnails.
// Implementations never touch storage; persisting results is the caller's job.
type ImageService interface {
	// MaxSize returns the maximum allowed file size in bytes.
	MaxSize() int64

	// CheckUploadConstraints checks the upload's size, extension and magic header.
	// Returns the MIME type of the image if all constraints are met.
	CheckUploadConstraints(filename string, size int64, data []byte) (string, error)

	// Decode decodes an image of the given MIME type.
	Decode(ctx context.Context, data []byte, mimeType string) (*Source, error)

	// MakeThumbnail derives the square thumbnail of the first frame, and of
	// up to MaxExtraFrames further frames of an animated source.
	MakeThumbnail(ctx context.Context, src *Source) (image.Image, []image.Image, error)

	// EncodeThumbnail writes a thumbnail in the source's format.
	EncodeThumbnail(ctx context.Context, w io.Writer, src *Source, thumb image.Image, extra []image.Image) error
}
