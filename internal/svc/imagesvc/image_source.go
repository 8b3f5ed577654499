package imagesvc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/draw"

	"github.com/apiarian/village/internal/domain"
)

// Source is a decoded image ready for thumbnailing. Frames are full
// canvases; animated GIFs are composited so every frame stands alone.
type Source struct {
	MIMEType string
	Frames   []image.Image
	// Delays and LoopCount carry GIF timing, in 100ths of a second.
	Delays    []int
	LoopCount int
	// Orientation is the EXIF orientation tag, 1 when absent.
	Orientation int
}

// NewSource wraps a single still image.
func NewSource(mimeType string, img image.Image) *Source {
	return &Source{
		MIMEType:    mimeType,
		Frames:      []image.Image{img},
		Orientation: OrientationNormal,
	}
}

// IsAnimated reports whether the source has more than one frame.
func (src *Source) IsAnimated() bool {
	return len(src.Frames) > 1
}

// Decode decodes data of the given MIME type. GIF frames past the first
// 1+MaxExtraFrames are not composited.
func Decode(data []byte, mimeType string) (*Source, error) {
	if mimeType == MIMETypeGIF {
		return decodeGIF(data)
	}

	f, err := formatByType(mimeType)
	if err != nil {
		return nil, err
	}

	img, err := f.decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Join(domain.ErrImageMalformed, fmt.Errorf("decode %s: %w", mimeType, err))
	}

	src := NewSource(mimeType, img)

	if f.exif {
		src.Orientation = readOrientation(data)
	}

	return src, nil
}

// readOrientation returns OrientationNormal when the EXIF block is missing or unreadable.
func readOrientation(data []byte) int {
	meta, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return OrientationNormal
	}

	tag, err := meta.Get(exif.Orientation)
	if err != nil {
		return OrientationNormal
	}

	orientation, err := tag.Int(0)
	if err != nil || orientation < OrientationNormal || orientation > OrientationRotate270 {
		return OrientationNormal
	}

	return orientation
}

func decodeGIF(data []byte) (*Source, error) {
	anim, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Join(domain.ErrImageMalformed, fmt.Errorf("decode gif: %w", err))
	}

	if len(anim.Image) == 0 {
		return nil, fmt.Errorf("%w: gif without frames", domain.ErrImageMalformed)
	}

	bounds := image.Rect(0, 0, anim.Config.Width, anim.Config.Height)
	if bounds.Empty() {
		bounds = anim.Image[0].Bounds()
	}

	count := min(len(anim.Image), 1+MaxExtraFrames)

	src := &Source{
		MIMEType:    MIMETypeGIF,
		Frames:      make([]image.Image, 0, count),
		Delays:      make([]int, 0, count),
		LoopCount:   anim.LoopCount,
		Orientation: OrientationNormal,
	}

	canvas := image.NewRGBA(bounds)

	for i, frame := range anim.Image[:count] {
		var disposal byte
		if i < len(anim.Disposal) {
			disposal = anim.Disposal[i]
		}

		var previous *image.RGBA
		if disposal == gif.DisposalPrevious {
			previous = cloneRGBA(canvas)
		}

		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)

		src.Frames = append(src.Frames, cloneRGBA(canvas))
		src.Delays = append(src.Delays, frameDelay(anim, i))

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			canvas = previous
		}
	}

	return src, nil
}

func frameDelay(anim *gif.GIF, i int) int {
	if i < len(anim.Delay) {
		return anim.Delay[i]
	}

	return 0
}

func cloneRGBA(img *image.RGBA) *image.RGBA {
	clone := image.NewRGBA(img.Bounds())
	copy(clone.Pix, img.Pix)

	return clone
}
