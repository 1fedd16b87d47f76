package encoder

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"sync"
)

// ConvertAnimator builds animations by shelling out to ImageMagick's
// convert. Install: brew install imagemagick / apt install imagemagick
type ConvertAnimator struct {
	once        sync.Once
	available   bool
	convertPath string
}

func (a *ConvertAnimator) Name() string { return "convert" }

func (a *ConvertAnimator) Available() bool {
	a.once.Do(func() {
		path, err := exec.LookPath("convert")
		if err == nil {
			a.available = true
			a.convertPath = path
		}
	})
	return a.available
}

func (a *ConvertAnimator) Assemble(ctx context.Context, frames []Frame, out string) error {
	if !a.Available() {
		return fmt.Errorf("convert not found in PATH; install with: brew install imagemagick")
	}
	if len(frames) == 0 {
		return fmt.Errorf("convert: no frames")
	}

	cmd := exec.CommandContext(ctx, a.convertPath, convertArgs(frames, out)...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("convert: %w: %s", err, string(output))
	}
	return nil
}

// convertArgs loops forever and sets -delay only when it changes.
func convertArgs(frames []Frame, out string) []string {
	args := []string{"-loop", "0"}
	last := -1
	for _, f := range frames {
		if f.Delay != last {
			args = append(args, "-delay", strconv.Itoa(f.Delay))
			last = f.Delay
		}
		args = append(args, f.Path)
	}
	return append(args, out)
}
