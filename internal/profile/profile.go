package profile

import (
	"fmt"
	"image/color"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// Profile defines how a run is rendered and when frames are captured.
type Profile struct {
	Name    string
	Padding int    // gap in output pixels between quads
	Fill    string // hex color behind the quads
	Format  string // still output format: "png" or "jpeg"
	Quality int    // jpeg quality 1-100

	// FrameThreshold is the drop in average model error since the last
	// snapshot that triggers the next one.
	FrameThreshold float64

	FrameDelay int // centiseconds per animation frame
	FinalDelay int // centiseconds the final image is held
}

// Built-in profiles.
var profiles = map[string]Profile{
	"classic": {
		Name:           "classic",
		Padding:        1,
		Fill:           "#000000",
		Format:         "png",
		Quality:        90,
		FrameThreshold: 50,
		FrameDelay:     20,
		FinalDelay:     200,
	},
	"seamless": {
		Name:           "seamless",
		Padding:        0,
		Fill:           "#000000",
		Format:         "png",
		Quality:        90,
		FrameThreshold: 50,
		FrameDelay:     20,
		FinalDelay:     200,
	},
	"paper": {
		Name:           "paper",
		Padding:        1,
		Fill:           "#ffffff",
		Format:         "png",
		Quality:        90,
		FrameThreshold: 50,
		FrameDelay:     20,
		FinalDelay:     200,
	},
	"fine": {
		Name:           "fine",
		Padding:        1,
		Fill:           "#000000",
		Format:         "png",
		Quality:        90,
		FrameThreshold: 10,
		FrameDelay:     8,
		FinalDelay:     200,
	},
}

// DefaultName is the profile used when none is requested.
const DefaultName = "classic"

// Get returns a profile by name. Unknown names fall back to classic.
func Get(name string) Profile {
	if p, ok := profiles[name]; ok {
		return p
	}
	p := profiles[DefaultName]
	p.Name = name // preserve requested name
	return p
}

// Lookup is like Get but reports whether name is built in.
func Lookup(name string) (Profile, bool) {
	p, ok := profiles[name]
	return p, ok
}

// Names returns the built-in profile names in sorted order.
func Names() []string {
	names := make([]string, 0, len(profiles))
	for n := range profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// FillColor parses Fill.
func (p Profile) FillColor() (color.NRGBA, error) {
	return ParseColor(p.Fill)
}

// ParseColor parses a "#rrggbb" or "#rgb" hex color as opaque NRGBA.
func ParseColor(hex string) (color.NRGBA, error) {
	c, err := colorful.Hex(expandShortHex(hex))
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("parse color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}, nil
}

// expandShortHex turns "#abc" into "#aabbcc"; anything else is returned
// as is.
func expandShortHex(s string) string {
	if len(s) != 4 || s[0] != '#' {
		return s
	}
	return string([]byte{'#', s[1], s[1], s[2], s[2], s[3], s[3]})
}

// Validate reports the first setting that cannot be used.
func (p Profile) Validate() error {
	if p.Padding < 0 {
		return fmt.Errorf("profile %s: negative padding %d", p.Name, p.Padding)
	}
	if _, err := p.FillColor(); err != nil {
		return fmt.Errorf("profile %s: %w", p.Name, err)
	}
	switch p.Format {
	case "png", "jpeg":
	default:
		return fmt.Errorf("profile %s: unsupported format %q", p.Name, p.Format)
	}
	if p.FrameThreshold < 0 {
		return fmt.Errorf("profile %s: negative frame threshold", p.Name)
	}
	if p.FrameDelay <= 0 || p.FinalDelay <= 0 {
		return fmt.Errorf("profile %s: frame delays must be positive", p.Name)
	}
	return nil
}
