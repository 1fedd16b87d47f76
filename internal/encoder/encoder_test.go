package encoder

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func checker(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: 255, A: 255}
			if (x/4+y/4)%2 == 1 {
				c = color.NRGBA{A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestPNGEncoderLossless(t *testing.T) {
	src := checker(16, 12)
	data, err := (&PNGEncoder{}).Encode(src, 0)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, src.Bounds(), img.Bounds())
	r, g, b, _ := img.At(4, 0).RGBA()
	require.Equal(t, [3]uint32{0, 0, 0}, [3]uint32{r, g, b})
}

func TestJPEGEncoder(t *testing.T) {
	enc := &JPEGEncoder{}
	require.Equal(t, "jpg", enc.Extension())
	data, err := enc.Encode(checker(32, 32), 0)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 32, 32), img.Bounds())
}

func TestRegistryEncoder(t *testing.T) {
	r := NewRegistry()
	require.Equal(t, "png", r.Encoder("PNG").Format())
	require.Equal(t, "jpeg", r.Encoder("jpg").Format())
	require.Nil(t, r.Encoder("webp"))
}

type fakeAnimator struct {
	name      string
	available bool
}

func (f *fakeAnimator) Name() string    { return f.name }
func (f *fakeAnimator) Available() bool { return f.available }
func (f *fakeAnimator) Assemble(context.Context, []Frame, string) error {
	return nil
}

func TestRegistryAnimatorAuto(t *testing.T) {
	r := newRegistry(&fakeAnimator{name: "convert"}, &GIFAnimator{})
	a, err := r.Animator(AnimatorAuto)
	require.NoError(t, err)
	require.Equal(t, "gif", a.Name())
	require.Equal(t, []string{"gif"}, r.Available())

	r = newRegistry(&fakeAnimator{name: "convert", available: true}, &GIFAnimator{})
	a, err = r.Animator("")
	require.NoError(t, err)
	require.Equal(t, "convert", a.Name())
}

func TestRegistryAnimatorExplicit(t *testing.T) {
	r := newRegistry(&fakeAnimator{name: "convert"}, &GIFAnimator{})

	_, err := r.Animator("convert")
	require.ErrorContains(t, err, "not available")

	_, err = r.Animator("apng")
	require.ErrorContains(t, err, "unknown animator")

	a, err := r.Animator("GIF")
	require.NoError(t, err)
	require.Equal(t, "gif", a.Name())
}

func TestRegistryNoAnimators(t *testing.T) {
	r := newRegistry(&fakeAnimator{name: "convert"})
	_, err := r.Animator(AnimatorAuto)
	require.Error(t, err)
	require.Equal(t, "no animators available", r.String())
}

func TestConvertArgs(t *testing.T) {
	frames := []Frame{
		{Path: "a.png", Delay: 20},
		{Path: "b.png", Delay: 20},
		{Path: "out.png", Delay: 200},
	}
	require.Equal(t,
		[]string{"-loop", "0", "-delay", "20", "a.png", "b.png", "-delay", "200", "out.png", "x.gif"},
		convertArgs(frames, "x.gif"),
	)
}

func TestGIFAnimatorAssemble(t *testing.T) {
	dir := t.TempDir()
	var frames []Frame
	for i, c := range []color.NRGBA{{R: 255, A: 255}, {G: 255, A: 255}, {B: 255, A: 255}} {
		img := image.NewNRGBA(image.Rect(0, 0, 8, 6))
		for y := 0; y < 6; y++ {
			for x := 0; x < 8; x++ {
				img.SetNRGBA(x, y, c)
			}
		}
		data, err := (&PNGEncoder{}).Encode(img, 0)
		require.NoError(t, err)
		path := filepath.Join(dir, string(rune('a'+i))+".png")
		require.NoError(t, os.WriteFile(path, data, 0o644))
		frames = append(frames, Frame{Path: path, Delay: 10 * (i + 1)})
	}

	out := filepath.Join(dir, "anim.gif")
	require.NoError(t, (&GIFAnimator{}).Assemble(context.Background(), frames, out))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	anim, err := gif.DecodeAll(f)
	require.NoError(t, err)
	require.Len(t, anim.Image, 3)
	require.Equal(t, []int{10, 20, 30}, anim.Delay)
	require.Equal(t, 0, anim.LoopCount)

	// Nearest palette entry, so only roughly green.
	r, g, b, _ := anim.Image[1].At(3, 3).RGBA()
	require.Greater(t, g, r)
	require.Greater(t, g, b)
}

func TestGIFAnimatorErrors(t *testing.T) {
	a := &GIFAnimator{}
	out := filepath.Join(t.TempDir(), "x.gif")
	require.Error(t, a.Assemble(context.Background(), nil, out))
	require.Error(t, a.Assemble(context.Background(), []Frame{{Path: "/does/not/exist.png", Delay: 1}}, out))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, a.Assemble(ctx, []Frame{{Path: "x", Delay: 1}}, out), context.Canceled)
}
