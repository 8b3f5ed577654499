package imagesvc

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/image/tiff"

	"github.com/apiarian/village/internal/domain"
)

const (
	MIMETypeJPEG = "image/jpeg"
	MIMETypePNG  = "image/png"
	MIMETypeGIF  = "image/gif"
	MIMETypeTIFF = "image/tiff"
)

// format describes one accepted upload type. GIF has no still codec here:
// it is decoded and encoded frame by frame.
type format struct {
	mimeType string
	exts     []string
	magic    []string
	decode   func(io.Reader) (image.Image, error)
	encode   func(io.Writer, image.Image) error
	// exif marks formats that may carry an orientation tag.
	exif bool
}

//nolint:gochecknoglobals
var formats = []format{
	{
		mimeType: MIMETypeJPEG,
		exts:     []string{".jpg", ".jpeg"},
		magic:    []string{"\xFF\xD8"},
		decode:   jpeg.Decode,
		encode:   func(w io.Writer, img image.Image) error { return jpeg.Encode(w, img, nil) },
		exif:     true,
	},
	{
		mimeType: MIMETypePNG,
		exts:     []string{".png"},
		magic:    []string{"\x89PNG\r\n\x1a\n"},
		decode:   png.Decode,
		encode:   png.Encode,
	},
	{
		mimeType: MIMETypeGIF,
		exts:     []string{".gif"},
		magic:    []string{"GIF87a", "GIF89a"},
	},
	{
		mimeType: MIMETypeTIFF,
		exts:     []string{".tif", ".tiff"},
		magic:    []string{"II*\x00", "MM\x00*"},
		decode:   tiff.Decode,
		encode:   func(w io.Writer, img image.Image) error { return tiff.Encode(w, img, nil) },
		exif:     true,
	},
}

// TypeForFilename returns the MIME type implied by the filename's extension.
func TypeForFilename(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	for _, f := range formats {
		if slices.Contains(f.exts, ext) {
			return f.mimeType, nil
		}
	}

	return "", fmt.Errorf("%w: %q", domain.ErrImageTypeNotSupported, ext)
}

func formatByType(mimeType string) (format, error) {
	for _, f := range formats {
		if f.mimeType == mimeType {
			return f, nil
		}
	}

	return format{}, fmt.Errorf("%w: %q", domain.ErrImageTypeNotSupported, mimeType)
}

// matches reports whether data starts with one of the format's signatures.
func (f format) matches(data []byte) bool {
	for _, sig := range f.magic {
		if bytes.HasPrefix(data, []byte(sig)) {
			return true
		}
	}

	return false
}
