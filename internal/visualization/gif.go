package visualization

import (
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"io"
	"os"
)

// EncodeGIF assembles the frames into a looping animation. frameDelay is in
// hundredths of a second, matching the gif container's resolution.
func EncodeGIF(w io.Writer, frames []image.Image, frameDelay int) error {
	if len(frames) == 0 {
		return fmt.Errorf("no frames to encode")
	}
	if frameDelay < 0 {
		return fmt.Errorf("frame delay must be non-negative, got %d", frameDelay)
	}

	anim := &gif.GIF{}
	for _, frame := range frames {
		paletted := image.NewPaletted(frame.Bounds(), palette.Plan9)
		draw.FloydSteinberg.Draw(paletted, frame.Bounds(), frame, image.Point{})
		anim.Image = append(anim.Image, paletted)
		anim.Delay = append(anim.Delay, frameDelay)
	}
	return gif.EncodeAll(w, anim)
}

// WriteGIF encodes the frames into a GIF file at path.
func WriteGIF(path string, frames []image.Image, frameDelay int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := EncodeGIF(f, frames, frameDelay); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}
