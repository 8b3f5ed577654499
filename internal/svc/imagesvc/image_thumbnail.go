package imagesvc

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"golang.org/x/image/draw"
)

const (
	// ThumbnailSize is the edge length of every thumbnail frame.
	ThumbnailSize = 64
	// MaxExtraFrames caps the frames thumbnailed after the first one.
	MaxExtraFrames = 1000
)

var ErrUnknownInterpolator = errors.New("unknown interpolator")

//nolint:gochecknoglobals
var interpolators = map[string]draw.Interpolator{
	"nearestneighbor": draw.NearestNeighbor,
	"approxbilinear":  draw.ApproxBiLinear,
	"bilinear":        draw.BiLinear,
	"catmullrom":      draw.CatmullRom,
}

// Config holds the thumbnailer settings.
type Config struct {
	// Interpolator names the scaler: nearestneighbor, approxbilinear, bilinear or catmullrom.
	Interpolator string `env:"INTERPOLATOR" envDefault:"catmullrom"`
	// MaxSize limits uploads in bytes; zero disables the check.
	MaxSize int64 `env:"MAX_SIZE" envDefault:"20971520"`
}

func interpolatorFor(name string) (draw.Interpolator, error) {
	if interpol, ok := interpolators[strings.ToLower(name)]; ok {
		return interpol, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownInterpolator, name)
}

// CropRect returns the largest centered square inside bounds. When the
// excess is odd, the leftover pixel is trimmed from the trailing edge.
func CropRect(bounds image.Rectangle) image.Rectangle {
	w, h := bounds.Dx(), bounds.Dy()
	side := min(w, h)

	if w > h {
		excess := w - side
		left := bounds.Min.X + excess/2

		return image.Rect(left, bounds.Min.Y, left+side, bounds.Max.Y)
	}

	excess := h - side
	top := bounds.Min.Y + excess/2

	return image.Rect(bounds.Min.X, top, bounds.Max.X, top+side)
}

// thumbnailFrame orients, crops and scales one frame into a new bitmap.
func thumbnailFrame(frame image.Image, orientation int, interpol draw.Interpolator) *image.RGBA {
	oriented := Orient(frame, orientation)

	bitmap := image.NewRGBA(image.Rect(0, 0, ThumbnailSize, ThumbnailSize))
	interpol.Scale(bitmap, bitmap.Bounds(), oriented, CropRect(oriented.Bounds()), draw.Src, nil)

	return bitmap
}
