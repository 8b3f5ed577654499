package imagesvc

import (
	"fmt"
	"image"
	"image/color/palette"
	"image/gif"
	"io"

	"golang.org/x/image/draw"
)

// encodeThumbnail writes thumb, followed by extra as animation frames, in
// the source's format. GIF output is always written as an animation with
// the source's timing.
func encodeThumbnail(w io.Writer, src *Source, thumb image.Image, extra []image.Image) error {
	if src.MIMEType == MIMETypeGIF {
		return encodeGIF(w, src, append([]image.Image{thumb}, extra...))
	}

	f, err := formatByType(src.MIMEType)
	if err != nil {
		return err
	}

	if err := f.encode(w, thumb); err != nil {
		return fmt.Errorf("encode %s: %w", src.MIMEType, err)
	}

	return nil
}

func encodeGIF(w io.Writer, src *Source, frames []image.Image) error {
	anim := &gif.GIF{
		Image:     make([]*image.Paletted, 0, len(frames)),
		Delay:     make([]int, 0, len(frames)),
		LoopCount: src.LoopCount,
	}

	for i, frame := range frames {
		paletted := image.NewPaletted(frame.Bounds(), palette.Plan9)
		draw.FloydSteinberg.Draw(paletted, paletted.Bounds(), frame, frame.Bounds().Min)

		delay := 0
		if i < len(src.Delays) {
			delay = src.Delays[i]
		}

		anim.Image = append(anim.Image, paletted)
		anim.Delay = append(anim.Delay, delay)
	}

	if err := gif.EncodeAll(w, anim); err != nil {
		return fmt.Errorf("encode gif: %w", err)
	}

	return nil
}
