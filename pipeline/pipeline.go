// Package pipeline describes composer pipelines in TOML files.
//
//	[composer]
//	stencil-buffer = true
//
//	[[pass]]
//	type = "render"
//
//	[[pass]]
//	type = "effect"
//	dithering = true
//
//	  [[pass.effect]]
//	  kind = "vignette"
//	  blend = "multiply"
//	  params = { darkness = 0.6 }
package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/richinsley/goshaderfx/effects"
	"github.com/richinsley/goshaderfx/graphics"
	"github.com/richinsley/goshaderfx/postfx"
)

// Pass types.
const (
	TypeClear     = "clear"
	TypeRender    = "render"
	TypeEffect    = "effect"
	TypeMask      = "mask"
	TypeClearMask = "clear-mask"
	TypeCopy      = "copy"
)

// DefaultScene is the scene used by render and mask passes that do not
// name one.
const DefaultScene = "main"

// Config is a decoded pipeline file.
type Config struct {
	Composer ComposerConfig `toml:"composer"`
	Passes   []PassConfig   `toml:"pass"`
}

type ComposerConfig struct {
	DepthBuffer        *bool `toml:"depth-buffer"`
	StencilBuffer      bool  `toml:"stencil-buffer"`
	HighPrecision      bool  `toml:"high-precision"`
	AutoRenderToScreen *bool `toml:"auto-render-to-screen"`
}

// PassConfig describes one pass. Only the fields of its type are used.
type PassConfig struct {
	Type           string `toml:"type"`
	Enabled        *bool  `toml:"enabled"`
	RenderToScreen bool   `toml:"render-to-screen"`

	// render and mask
	Scene string `toml:"scene"`
	// mask
	Inverse bool `toml:"inverse"`

	// clear, and the clear step of render
	Color      *bool     `toml:"color"`
	Depth      *bool     `toml:"depth"`
	Stencil    *bool     `toml:"stencil"`
	ClearColor []float32 `toml:"clear-color"`
	NoClear    bool      `toml:"no-clear"`

	// effect
	Dithering bool           `toml:"dithering"`
	Strict    bool           `toml:"strict"`
	Effects   []EffectConfig `toml:"effect"`

	// copy
	Opacity *float32 `toml:"opacity"`
}

// EffectConfig describes one effect of an effect pass.
type EffectConfig struct {
	Kind    string         `toml:"kind"`
	Blend   string         `toml:"blend"`
	Opacity *float32       `toml:"opacity"`
	Params  effects.Params `toml:"params"`
}

// Load reads and parses a pipeline file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates a pipeline description. Unknown keys are
// rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("invalid pipeline at line %d, column %d: %w", row, col, err)
		}
		return nil, fmt.Errorf("invalid pipeline: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks pass types, blend functions and clear colors. Effect
// kinds and parameters are checked when the pipeline is built.
func (c *Config) Validate() error {
	for i, p := range c.Passes {
		if err := p.validate(); err != nil {
			return fmt.Errorf("pass %d: %w", i, err)
		}
	}
	return nil
}

func (p *PassConfig) validate() error {
	switch p.Type {
	case TypeClear, TypeRender, TypeMask, TypeClearMask, TypeCopy:
	case TypeEffect:
		for j, e := range p.Effects {
			if e.Kind == "" {
				return fmt.Errorf("effect %d: missing kind", j)
			}
			if e.Blend != "" {
				if _, err := postfx.ParseBlendFunction(e.Blend); err != nil {
					return fmt.Errorf("effect %d: %w", j, err)
				}
			}
		}
	case "":
		return errors.New("missing type")
	default:
		return fmt.Errorf("unknown type %q", p.Type)
	}
	if len(p.Effects) > 0 && p.Type != TypeEffect {
		return fmt.Errorf("%s pass cannot have effects", p.Type)
	}
	if n := len(p.ClearColor); n != 0 && n != 3 && n != 4 {
		return fmt.Errorf("clear-color needs 3 or 4 components, got %d", n)
	}
	return nil
}

// ComposerOptions returns the composer options, using
// postfx.DefaultComposerOptions for unset values.
func (c *Config) ComposerOptions() postfx.ComposerOptions {
	opts := postfx.DefaultComposerOptions()
	if c.Composer.DepthBuffer != nil {
		opts.DepthBuffer = *c.Composer.DepthBuffer
	}
	opts.StencilBuffer = c.Composer.StencilBuffer
	opts.HighPrecision = c.Composer.HighPrecision
	if c.Composer.AutoRenderToScreen != nil {
		opts.AutoRenderToScreen = *c.Composer.AutoRenderToScreen
	}
	return opts
}

// NewComposer creates a composer for r and adds the configured passes.
func (c *Config) NewComposer(r graphics.Renderer, camera graphics.Camera, scenes map[string]graphics.Scene) (*postfx.EffectComposer, error) {
	composer, err := postfx.NewEffectComposer(r, c.ComposerOptions())
	if err != nil {
		return nil, err
	}
	if _, err := c.Build(composer, camera, scenes); err != nil {
		composer.Dispose()
		return nil, err
	}
	return composer, nil
}

// Build creates the configured passes and adds them to composer. Render
// and mask passes draw the scene they name, or DefaultScene.
func (c *Config) Build(composer *postfx.EffectComposer, camera graphics.Camera, scenes map[string]graphics.Scene) ([]postfx.Pass, error) {
	passes := make([]postfx.Pass, 0, len(c.Passes))
	for i := range c.Passes {
		pc := &c.Passes[i]
		p, err := pc.build(camera, scenes)
		if err == nil {
			if err = composer.AddPass(p); err != nil {
				composer.RemovePass(p)
				p.Dispose()
			}
		}
		if err != nil {
			for _, added := range passes {
				composer.RemovePass(added)
				added.Dispose()
			}
			return nil, fmt.Errorf("pass %d (%s): %w", i, pc.Type, err)
		}
		passes = append(passes, p)
	}
	return passes, nil
}

func (p *PassConfig) scene(scenes map[string]graphics.Scene) (graphics.Scene, error) {
	name := p.Scene
	if name == "" {
		name = DefaultScene
	}
	s, ok := scenes[name]
	if !ok {
		return nil, fmt.Errorf("unknown scene %q", name)
	}
	return s, nil
}

func (p *PassConfig) clearColor() *graphics.Color {
	if len(p.ClearColor) == 0 {
		return nil
	}
	c := graphics.Color{0, 0, 0, 1}
	copy(c[:], p.ClearColor)
	return &c
}

func flag(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func (p *PassConfig) build(camera graphics.Camera, scenes map[string]graphics.Scene) (postfx.Pass, error) {
	var pass postfx.Pass
	switch p.Type {
	case TypeClear:
		cp := postfx.NewClearPass(flag(p.Color, true), flag(p.Depth, true), flag(p.Stencil, false))
		cp.OverrideClearColor = p.clearColor()
		pass = cp

	case TypeRender:
		scene, err := p.scene(scenes)
		if err != nil {
			return nil, err
		}
		rp := postfx.NewRenderPass(scene, camera)
		rp.ClearPass().SetEnabled(!p.NoClear)
		rp.ClearPass().OverrideClearColor = p.clearColor()
		pass = rp

	case TypeMask:
		scene, err := p.scene(scenes)
		if err != nil {
			return nil, err
		}
		mp := postfx.NewMaskPass(scene, camera)
		mp.Inverse = p.Inverse
		pass = mp

	case TypeClearMask:
		pass = postfx.NewClearMaskPass()

	case TypeCopy:
		cp := postfx.NewCopyPass()
		if p.Opacity != nil {
			cp.Uniforms().At("opacity").Value = *p.Opacity
		}
		pass = cp

	case TypeEffect:
		list := make([]postfx.Effect, 0, len(p.Effects))
		for j, ec := range p.Effects {
			e, err := ec.build()
			if err != nil {
				return nil, fmt.Errorf("effect %d: %w", j, err)
			}
			list = append(list, e)
		}
		ep, err := postfx.NewEffectPass(postfx.EffectPassOptions{
			Camera:    camera,
			Effects:   list,
			Dithering: p.Dithering,
			Strict:    p.Strict,
		})
		if err != nil {
			return nil, err
		}
		pass = ep

	default:
		return nil, fmt.Errorf("unknown type %q", p.Type)
	}

	pass.SetEnabled(flag(p.Enabled, true))
	if p.RenderToScreen {
		pass.SetRenderToScreen(true)
	}
	return pass, nil
}

func (e *EffectConfig) build() (postfx.Effect, error) {
	effect, err := effects.New(e.Kind, e.Params)
	if err != nil {
		return nil, err
	}
	if e.Blend != "" {
		fn, err := postfx.ParseBlendFunction(e.Blend)
		if err != nil {
			return nil, err
		}
		effect.BlendMode().SetFunction(fn)
	}
	if e.Opacity != nil {
		effect.BlendMode().SetOpacity(*e.Opacity)
	}
	return effect, nil
}
