package encoder

import (
	"context"
	"image"
)

// Encoder encodes a still image to a specific format.
type Encoder interface {
	// Format returns the format name ("png", "jpeg").
	Format() string

	// Encode converts the image to bytes. quality (1-100) is ignored by
	// lossless formats.
	Encode(img image.Image, quality int) ([]byte, error)

	// Extension returns the file extension without dot.
	Extension() string
}

// Frame is one image of an animation.
type Frame struct {
	Path  string // encoded still on disk
	Delay int    // display time in centiseconds
}

// Animator assembles still frames into a looping animation.
type Animator interface {
	// Name identifies the animator ("convert", "gif").
	Name() string

	// Available reports whether the animator can run. External tools
	// may not be installed.
	Available() bool

	// Assemble writes an animation of frames, in order, to out.
	Assemble(ctx context.Context, frames []Frame, out string) error
}
