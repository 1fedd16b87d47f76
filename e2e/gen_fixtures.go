//go:build ignore

// gen_fixtures creates small test images for the E2E smoke test.
// Usage: go run gen_fixtures.go <output_dir>
//
// Then: quart render <output_dir> 200 2 -o out --gif && quart validate out
package main

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: gen_fixtures <output_dir>")
		os.Exit(1)
	}
	dir := os.Args[1]
	os.MkdirAll(filepath.Join(dir, "shapes"), 0o755)

	// Two flat halves: one split reaches zero error.
	save(filepath.Join(dir, "halves.png"), halves(64, 64))

	// Uniform: error is zero from the start.
	save(filepath.Join(dir, "uniform.png"), uniform(48, 48, color.NRGBA{R: 90, G: 140, B: 200, A: 255}))

	// Smooth gradient (JPEG, odd size): error falls slowly, frames are dense.
	save(filepath.Join(dir, "gradient.jpg"), gradient(301, 173))

	// Circles: detail concentrates along curved edges.
	for i := 1; i <= 2; i++ {
		name := fmt.Sprintf("circle-%d.png", i)
		save(filepath.Join(dir, "shapes", name), circle(160, 120, float64(i*25)))
	}

	fmt.Fprintf(os.Stderr, "[gen_fixtures] created 5 fixtures in %s\n", dir)
}

func halves(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: 255, A: 255}
			if x >= w/2 {
				c = color.NRGBA{B: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func uniform(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / w),
				G: uint8(y * 255 / h),
				B: 128,
				A: 255,
			})
		}
	}
	return img
}

func circle(w, h int, r float64) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	cx, cy := float64(w)/2, float64(h)/2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: 240, G: 230, B: 200, A: 255}
			if math.Hypot(float64(x)-cx, float64(y)-cy) < r {
				c = color.NRGBA{R: 30, G: 60, B: 120, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func save(path string, img image.Image) {
	if err := imaging.Save(img, path, imaging.JPEGQuality(85)); err != nil {
		panic(err)
	}
}
