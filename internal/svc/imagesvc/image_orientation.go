package imagesvc

import (
	"image"

	"golang.org/x/image/draw"
)

// EXIF orientation values. Each names the transform that displays the
// stored pixels upright.
const (
	OrientationNormal     = 1
	OrientationFlipH      = 2
	OrientationRotate180  = 3
	OrientationFlipV      = 4
	OrientationTranspose  = 5
	OrientationRotate90   = 6
	OrientationTransverse = 7
	OrientationRotate270  = 8
)

// Orient returns img transformed for the given EXIF orientation.
// img is never modified; for OrientationNormal and unknown values it is
// returned as is.
func Orient(img image.Image, orientation int) image.Image {
	if orientation <= OrientationNormal || orientation > OrientationRotate270 {
		return img
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	dstW, dstH := w, h

	// dst(x, y) = src(mapping(x, y)), in coordinates relative to b.Min.
	var mapping func(x, y int) (int, int)

	switch orientation {
	case OrientationFlipH:
		mapping = func(x, y int) (int, int) { return w - 1 - x, y }
	case OrientationRotate180:
		mapping = func(x, y int) (int, int) { return w - 1 - x, h - 1 - y }
	case OrientationFlipV:
		mapping = func(x, y int) (int, int) { return x, h - 1 - y }
	case OrientationTranspose:
		dstW, dstH = h, w
		mapping = func(x, y int) (int, int) { return y, x }
	case OrientationRotate90:
		dstW, dstH = h, w
		mapping = func(x, y int) (int, int) { return y, h - 1 - x }
	case OrientationTransverse:
		dstW, dstH = h, w
		mapping = func(x, y int) (int, int) { return w - 1 - y, h - 1 - x }
	case OrientationRotate270:
		dstW, dstH = h, w
		mapping = func(x, y int) (int, int) { return w - 1 - y, x }
	}

	src := toRGBA(img)
	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))

	for y := range dstH {
		for x := range dstW {
			sx, sy := mapping(x, y)
			si := src.PixOffset(b.Min.X+sx, b.Min.Y+sy)
			di := dst.PixOffset(x, y)
			copy(dst.Pix[di:di+4], src.Pix[si:si+4])
		}
	}

	return dst
}

// toRGBA returns img itself if it already is an *image.RGBA, otherwise a converted copy.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}

	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)

	return rgba
}
