package postfx

import (
	"errors"
	"slices"
	"strconv"

	"github.com/richinsley/goshaderfx/graphics"
	"github.com/richinsley/goshaderfx/shader"
)

// Time limits of the time uniform. The time wraps back to DefaultMinTime
// once it would exceed DefaultMaxTime, which keeps float precision usable
// in long running sessions.
const (
	DefaultMinTime float32 = 1
	DefaultMaxTime float32 = 1000
)

// EffectPassOptions configures an EffectPass.
type EffectPassOptions struct {
	// Camera provides near and far plane uniforms. Optional.
	Camera  graphics.Camera
	Effects []Effect
	// Dithering enables output dithering.
	Dithering bool
	// Strict makes NewEffectPass fail when an effect violates the shader
	// contract instead of dropping it.
	Strict bool
}

// EffectPass merges a list of effects into a single fullscreen program.
type EffectPass struct {
	BasePass

	effects   []Effect
	material  *EffectMaterial
	dithering bool
	errs      []error

	attributes    EffectAttribute
	active        int
	uniformCount  int
	varyingCount  int
	skipRendering bool

	depthTexture graphics.Texture
	depthPacking graphics.DepthPacking
	width        int
	height       int

	time    float32
	MinTime float32
	MaxTime float32

	compileFailed bool
}

// NewEffectPass composes the given effects. Effects that violate the
// shader contract are logged and left out, unless opts.Strict is set.
func NewEffectPass(opts EffectPassOptions) (*EffectPass, error) {
	p := &EffectPass{
		BasePass:     NewBasePass("EffectPass", nil, opts.Camera),
		effects:      slices.Clone(opts.Effects),
		dithering:    opts.Dithering,
		depthPacking: graphics.BasicDepthPacking,
		MinTime:      DefaultMinTime,
		MaxTime:      DefaultMaxTime,
	}
	p.Recompile()
	if opts.Strict && len(p.errs) > 0 {
		p.material.Dispose()
		return nil, errors.Join(p.errs...)
	}
	return p, nil
}

// Recompile regenerates the program from the current effect list. The
// render size and the bound depth texture are kept.
func (p *EffectPass) Recompile() {
	c := compose(p.effects)
	for _, err := range c.errs {
		Logger().Error("dropping effect", "pass", p.name, "err", err)
	}

	if p.material != nil {
		p.material.Dispose()
	}
	perspective := p.camera != nil && p.camera.Perspective()
	p.material = c.material(p.depthPacking, perspective, p.dithering)

	p.errs = c.errs
	p.attributes = c.attributes
	p.active = c.active
	p.uniformCount = shader.EffectUniforms + c.uniforms.Len()
	p.varyingCount = c.varyings
	p.skipRendering = c.active == 0
	p.needsSwap = !p.skipRendering
	p.needsDepthTexture = c.attributes.Has(AttributeDepth)
	p.compileFailed = false

	Logger().Debug("composed effect pass", "pass", p.name, "effects", c.active,
		"uniforms", p.uniformCount, "varyings", p.varyingCount, "attributes", c.attributes)
}

// Effects returns the effects in the order they were given.
func (p *EffectPass) Effects() []Effect { return slices.Clone(p.effects) }

// SetEffects replaces the effect list and recompiles.
func (p *EffectPass) SetEffects(effects ...Effect) {
	p.effects = slices.Clone(effects)
	p.Recompile()
}

// Errors returns the shader contract violations of the last composition.
func (p *EffectPass) Errors() []error { return p.errs }

// Material returns the generated material.
func (p *EffectPass) Material() *EffectMaterial { return p.material }

// Attributes returns the merged attributes of all composed effects.
func (p *EffectPass) Attributes() EffectAttribute { return p.attributes }

func (p *EffectPass) UniformCount() int   { return p.uniformCount }
func (p *EffectPass) VaryingCount() int   { return p.varyingCount }
func (p *EffectPass) SkipRendering() bool { return p.skipRendering }

// DepthTexture returns the depth texture handed to the pass, if any.
func (p *EffectPass) DepthTexture() graphics.Texture { return p.depthTexture }

// Time returns the current value of the time uniform.
func (p *EffectPass) Time() float32 { return p.time }

func (p *EffectPass) Dithering() bool { return p.dithering }

// SetDithering toggles output dithering.
func (p *EffectPass) SetDithering(enabled bool) {
	p.dithering = enabled
	if enabled {
		p.material.SetDefine("DITHERING", "1")
	} else {
		p.material.DeleteDefine("DITHERING")
	}
}

// Initialize warns when the generated program exceeds the limits of the
// rendering context and initializes every effect.
func (p *EffectPass) Initialize(r graphics.Renderer, alpha bool) {
	caps := r.Capabilities()
	maxUniforms := min(caps.MaxFragmentUniforms, caps.MaxVertexUniforms)
	if p.uniformCount > maxUniforms {
		Logger().Warn("effect pass uses more uniforms than supported",
			"pass", p.name, "uniforms", p.uniformCount, "max", maxUniforms)
	}
	if p.varyingCount > caps.MaxVaryings {
		Logger().Warn("effect pass uses more varyings than supported",
			"pass", p.name, "varyings", p.varyingCount, "max", caps.MaxVaryings)
	}
	for _, e := range p.effects {
		e.Initialize(r, alpha)
	}
}

func (p *EffectPass) SetSize(width, height int) {
	p.width, p.height = width, height
	for _, e := range p.effects {
		e.SetSize(width, height)
	}
}

func (p *EffectPass) SetDepthTexture(t graphics.Texture, packing graphics.DepthPacking) {
	p.depthTexture = t
	p.depthPacking = packing
	p.material.SetDefine("DEPTH_PACKING", strconv.Itoa(int(packing)))
	for _, e := range p.effects {
		e.SetDepthTexture(t, packing)
	}
}

func (p *EffectPass) Render(r graphics.Renderer, input, output graphics.RenderTarget, deltaTime float32, stencilTest bool) {
	if t := p.time + deltaTime; t < p.MaxTime {
		p.time = t
	} else {
		p.time = p.MinTime
	}
	for _, e := range p.effects {
		e.Update(r, input, deltaTime)
	}
	if p.skipRendering && !p.renderToScreen {
		return
	}

	program, err := p.material.Program(r)
	if err != nil {
		if !p.compileFailed {
			Logger().Error("skipping effect pass", "pass", p.name, "err", err)
			p.compileFailed = true
		}
		return
	}

	w, h := p.width, p.height
	if w <= 0 || h <= 0 {
		w, h = input.Width(), input.Height()
	}
	program.SetUniform("inputBuffer", input.Texture())
	if p.depthTexture != nil {
		program.SetUniform("depthBuffer", p.depthTexture)
	}
	program.SetUniform("resolution", [2]float32{float32(w), float32(h)})
	program.SetUniform("texelSize", [2]float32{1 / float32(w), 1 / float32(h)})
	program.SetUniform("aspect", float32(w)/float32(h))
	program.SetUniform("time", p.time)
	if p.camera != nil {
		program.SetUniform("cameraNear", p.camera.Near())
		program.SetUniform("cameraFar", p.camera.Far())
	}
	for i, name := range p.material.Uniforms.Keys {
		program.SetUniform(name, p.material.Uniforms.Values[i].Value)
	}

	r.SetRenderTarget(p.target(output))
	r.DrawFullscreen(program)
}

// Dispose releases the generated program and disposes every effect.
func (p *EffectPass) Dispose() {
	p.material.Dispose()
	for _, e := range p.effects {
		e.Dispose()
	}
}
