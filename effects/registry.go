// Package effects provides ready made effects for an EffectPass and a
// registry that creates them by name.
package effects

import (
	"fmt"
	"slices"
	"sort"

	"github.com/richinsley/goshaderfx/postfx"
)

// Constructor creates an effect from decoded parameters.
type Constructor func(Params) (postfx.Effect, error)

var registry = map[string]Constructor{
	"vignette":            newVignette,
	"noise":               newNoise,
	"brightness-contrast": newBrightnessContrast,
	"pixelation":          newPixelation,
	"depth":               newDepth,
	"blur":                newBlur,
}

// Register adds a constructor for kind, replacing any existing one.
func Register(kind string, c Constructor) {
	registry[kind] = c
}

// Kinds returns the registered effect kinds in sorted order.
func Kinds() []string {
	kinds := make([]string, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// New creates an effect of the given kind.
func New(kind string, params Params) (postfx.Effect, error) {
	c, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("unknown effect %q, expected one of %v", kind, Kinds())
	}
	e, err := c(params)
	if err != nil {
		return nil, fmt.Errorf("effect %q: %w", kind, err)
	}
	return e, nil
}

// checkParams rejects parameters a constructor does not know.
func checkParams(p Params, known ...string) error {
	for name := range p {
		if !slices.Contains(known, name) {
			return fmt.Errorf("unknown parameter %q", name)
		}
	}
	return nil
}

func newVignette(p Params) (postfx.Effect, error) {
	if err := checkParams(p, "offset", "darkness"); err != nil {
		return nil, err
	}
	offset, err := p.Float("offset", 0.5)
	if err != nil {
		return nil, err
	}
	darkness, err := p.Float("darkness", 0.5)
	if err != nil {
		return nil, err
	}
	return NewVignette(offset, darkness), nil
}

func newNoise(p Params) (postfx.Effect, error) {
	if err := checkParams(p, "premultiply"); err != nil {
		return nil, err
	}
	premultiply, err := p.Bool("premultiply", false)
	if err != nil {
		return nil, err
	}
	return NewNoise(premultiply), nil
}

func newBrightnessContrast(p Params) (postfx.Effect, error) {
	if err := checkParams(p, "brightness", "contrast"); err != nil {
		return nil, err
	}
	brightness, err := p.Float("brightness", 0)
	if err != nil {
		return nil, err
	}
	contrast, err := p.Float("contrast", 0)
	if err != nil {
		return nil, err
	}
	return NewBrightnessContrast(brightness, contrast), nil
}

func newPixelation(p Params) (postfx.Effect, error) {
	if err := checkParams(p, "granularity"); err != nil {
		return nil, err
	}
	granularity, err := p.Float("granularity", 30)
	if err != nil {
		return nil, err
	}
	return NewPixelation(granularity), nil
}

func newDepth(p Params) (postfx.Effect, error) {
	if err := checkParams(p, "inverted"); err != nil {
		return nil, err
	}
	inverted, err := p.Bool("inverted", false)
	if err != nil {
		return nil, err
	}
	return NewDepth(inverted), nil
}

func newBlur(p Params) (postfx.Effect, error) {
	if err := checkParams(p, "radius", "window", "scale"); err != nil {
		return nil, err
	}
	radius, err := p.Int("radius", 4)
	if err != nil {
		return nil, err
	}
	name, err := p.String("window", string(WindowHann))
	if err != nil {
		return nil, err
	}
	w, err := ParseWindow(name)
	if err != nil {
		return nil, err
	}
	scale, err := p.Float("scale", 1)
	if err != nil {
		return nil, err
	}
	b, err := NewBlur(radius, w, scale)
	if err != nil {
		return nil, err
	}
	return b, nil
}
