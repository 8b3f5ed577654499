package imagesvc_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apiarian/village/internal/domain"
	"github.com/apiarian/village/internal/svc/imagesvc"
)

// exifOrientation6 is a big-endian APP1 segment holding a single
// orientation tag with value 6.
const exifOrientation6 = "\xFF\xE1\x00\x22" +
	"Exif\x00\x00" +
	"MM\x00\x2A\x00\x00\x00\x08" +
	"\x00\x01" +
	"\x01\x12\x00\x03\x00\x00\x00\x01\x00\x06\x00\x00" +
	"\x00\x00\x00\x00"

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return buf.Bytes()
}

func encodeJPEG(t *testing.T, img image.Image, app1 string) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))

	data := buf.Bytes()

	// splice the segment in right after the SOI marker
	return append(append(append([]byte(nil), data[:2]...), app1...), data[2:]...)
}

func twoFrameGIF(t *testing.T) []byte {
	t.Helper()

	pal := color.Palette{color.Transparent, red, blue}

	first := image.NewPaletted(image.Rect(0, 0, 4, 4), pal)
	for i := range first.Pix {
		first.Pix[i] = 1
	}

	second := image.NewPaletted(image.Rect(2, 2, 4, 4), pal)
	for i := range second.Pix {
		second.Pix[i] = 2
	}

	var buf bytes.Buffer
	require.NoError(t, gif.EncodeAll(&buf, &gif.GIF{
		Image:     []*image.Paletted{first, second},
		Delay:     []int{10, 20},
		LoopCount: 0,
	}))

	return buf.Bytes()
}

func TestDecodeStill(t *testing.T) {
	t.Parallel()

	ctx := context.TODO()
	svc := newService(t)

	src, err := svc.Decode(ctx, encodePNG(t, bands(6, 3, false, 2, 4)), imagesvc.MIMETypePNG)
	require.NoError(t, err)

	assert.Equal(t, imagesvc.MIMETypePNG, src.MIMEType)
	assert.False(t, src.IsAnimated())
	assert.Equal(t, imagesvc.OrientationNormal, src.Orientation)
	assert.Equal(t, image.Rect(0, 0, 6, 3), src.Frames[0].Bounds())
}

func TestDecodeJPEGOrientation(t *testing.T) {
	t.Parallel()

	ctx := context.TODO()
	svc := newService(t)
	img := bands(8, 4, false, 2, 6)

	t.Run("without exif", func(t *testing.T) {
		t.Parallel()

		src, err := svc.Decode(ctx, encodeJPEG(t, img, ""), imagesvc.MIMETypeJPEG)
		require.NoError(t, err)
		assert.Equal(t, imagesvc.OrientationNormal, src.Orientation)
	})

	t.Run("rotated", func(t *testing.T) {
		t.Parallel()

		src, err := svc.Decode(ctx, encodeJPEG(t, img, exifOrientation6), imagesvc.MIMETypeJPEG)
		require.NoError(t, err)
		assert.Equal(t, imagesvc.OrientationRotate90, src.Orientation)
		assert.Equal(t, image.Rect(0, 0, 8, 4), src.Frames[0].Bounds())
	})
}

func TestDecodeGIFComposites(t *testing.T) {
	t.Parallel()

	ctx := context.TODO()
	svc := newService(t)

	src, err := svc.Decode(ctx, twoFrameGIF(t), imagesvc.MIMETypeGIF)
	require.NoError(t, err)

	require.Len(t, src.Frames, 2)
	assert.True(t, src.IsAnimated())
	assert.Equal(t, []int{10, 20}, src.Delays)
	assert.Equal(t, 0, src.LoopCount)

	for _, frame := range src.Frames {
		assert.Equal(t, image.Rect(0, 0, 4, 4), frame.Bounds())
	}

	assert.Equal(t, red, color.RGBAModel.Convert(src.Frames[1].At(0, 0)))
	assert.Equal(t, blue, color.RGBAModel.Convert(src.Frames[1].At(3, 3)))
	assert.Equal(t, red, color.RGBAModel.Convert(src.Frames[0].At(3, 3)))
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	ctx := context.TODO()
	svc := newService(t)

	tests := []struct {
		name     string
		data     []byte
		mimeType string
		wantErr  error
	}{
		{name: "unsupported type", data: []byte("BM"), mimeType: "image/bmp", wantErr: domain.ErrImageTypeNotSupported},
		{name: "broken png", data: []byte("\x89PNG\r\n\x1a\nbroken"), mimeType: imagesvc.MIMETypePNG, wantErr: domain.ErrImageMalformed},
		{name: "broken gif", data: []byte("GIF89a"), mimeType: imagesvc.MIMETypeGIF, wantErr: domain.ErrImageMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := svc.Decode(ctx, tt.data, tt.mimeType)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestEncodeThumbnail(t *testing.T) {
	t.Parallel()

	ctx := context.TODO()
	svc := newService(t)

	t.Run("animated gif", func(t *testing.T) {
		t.Parallel()

		src, err := svc.Decode(ctx, twoFrameGIF(t), imagesvc.MIMETypeGIF)
		require.NoError(t, err)

		src.LoopCount = 3

		thumb, extra, err := svc.MakeThumbnail(ctx, src)
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, svc.EncodeThumbnail(ctx, &buf, src, thumb, extra))

		anim, err := gif.DecodeAll(&buf)
		require.NoError(t, err)
		require.Len(t, anim.Image, 2)
		assert.Equal(t, []int{10, 20}, anim.Delay)
		assert.Equal(t, 3, anim.LoopCount)

		for _, frame := range anim.Image {
			assert.Equal(t, image.Rect(0, 0, imagesvc.ThumbnailSize, imagesvc.ThumbnailSize), frame.Bounds())
		}
	})

	t.Run("still png", func(t *testing.T) {
		t.Parallel()

		src := imagesvc.NewSource(imagesvc.MIMETypePNG, bands(100, 50, false, 25, 75))

		thumb, extra, err := svc.MakeThumbnail(ctx, src)
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, svc.EncodeThumbnail(ctx, &buf, src, thumb, extra))

		decoded, err := png.Decode(&buf)
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, imagesvc.ThumbnailSize, imagesvc.ThumbnailSize), decoded.Bounds())
		assert.Equal(t, green, color.RGBAModel.Convert(decoded.At(10, 10)))
	})

	t.Run("still jpeg", func(t *testing.T) {
		t.Parallel()

		src := imagesvc.NewSource(imagesvc.MIMETypeJPEG, bands(100, 50, false, 25, 75))

		thumb, extra, err := svc.MakeThumbnail(ctx, src)
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, svc.EncodeThumbnail(ctx, &buf, src, thumb, extra))

		cfg, err := jpeg.DecodeConfig(&buf)
		require.NoError(t, err)
		assert.Equal(t, imagesvc.ThumbnailSize, cfg.Width)
		assert.Equal(t, imagesvc.ThumbnailSize, cfg.Height)
	})
}
