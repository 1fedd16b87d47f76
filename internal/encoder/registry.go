package encoder

import (
	"fmt"
	"strings"
)

// AnimatorAuto selects the best available animator.
const AnimatorAuto = "auto"

// Registry holds the still encoders and animators, probing external
// tools once.
type Registry struct {
	encoders  map[string]Encoder
	animators map[string]Animator
	order     []string // animator preference for AnimatorAuto
}

// NewRegistry creates a registry with every built-in encoder and
// animator.
func NewRegistry() *Registry {
	return newRegistry(&ConvertAnimator{}, &GIFAnimator{})
}

func newRegistry(animators ...Animator) *Registry {
	r := &Registry{
		encoders:  make(map[string]Encoder),
		animators: make(map[string]Animator),
	}
	for _, enc := range []Encoder{&PNGEncoder{}, &JPEGEncoder{}} {
		r.encoders[enc.Format()] = enc
	}
	for _, a := range animators {
		r.animators[a.Name()] = a
		r.order = append(r.order, a.Name())
	}
	return r
}

// Encoder returns the still encoder for format, or nil. "jpg" is an
// alias for "jpeg".
func (r *Registry) Encoder(format string) Encoder {
	format = strings.ToLower(format)
	if format == "jpg" {
		format = "jpeg"
	}
	return r.encoders[format]
}

// Animator resolves name to an available animator. AnimatorAuto picks
// the first available one in preference order.
func (r *Registry) Animator(name string) (Animator, error) {
	name = strings.ToLower(name)
	if name == "" || name == AnimatorAuto {
		for _, n := range r.order {
			if a := r.animators[n]; a.Available() {
				return a, nil
			}
		}
		return nil, fmt.Errorf("no animator available")
	}

	a, ok := r.animators[name]
	if !ok {
		return nil, fmt.Errorf("unknown animator %q", name)
	}
	if !a.Available() {
		return nil, fmt.Errorf("animator %q is not available", name)
	}
	return a, nil
}

// Available returns the names of all available animators in
// preference order.
func (r *Registry) Available() []string {
	var result []string
	for _, n := range r.order {
		if r.animators[n].Available() {
			result = append(result, n)
		}
	}
	return result
}

// String returns a summary of available animators.
func (r *Registry) String() string {
	avail := r.Available()
	if len(avail) == 0 {
		return "no animators available"
	}
	return fmt.Sprintf("animators: %s", strings.Join(avail, ", "))
}
