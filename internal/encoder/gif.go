package encoder

import (
	"context"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"os"

	"github.com/disintegration/imaging"
)

// GIFAnimator assembles animations in-process with image/gif. Frames are
// mapped to the nearest Plan 9 palette entry without dithering, which
// keeps flat quads flat.
type GIFAnimator struct{}

func (a *GIFAnimator) Name() string    { return "gif" }
func (a *GIFAnimator) Available() bool { return true }

func (a *GIFAnimator) Assemble(ctx context.Context, frames []Frame, out string) error {
	if len(frames) == 0 {
		return fmt.Errorf("gif: no frames")
	}

	anim := &gif.GIF{LoopCount: 0}
	for _, f := range frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		img, err := imaging.Open(f.Path)
		if err != nil {
			return fmt.Errorf("gif: read frame: %w", err)
		}
		anim.Image = append(anim.Image, toPaletted(img))
		anim.Delay = append(anim.Delay, f.Delay)
	}

	file, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("gif: %w", err)
	}
	if err := gif.EncodeAll(file, anim); err != nil {
		file.Close()
		return fmt.Errorf("gif: encode: %w", err)
	}
	return file.Close()
}

func toPaletted(img image.Image) *image.Paletted {
	b := img.Bounds()
	pm := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), palette.Plan9)
	draw.Draw(pm, pm.Rect, img, b.Min, draw.Src)
	return pm
}
