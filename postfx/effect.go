package postfx

import (
	"github.com/richinsley/goshaderfx/graphics"
)

// Effect is a self-contained shader contribution that an EffectPass merges
// with other effects into a single program.
//
// The fragment shader must define
//
//	void mainImage(const in vec4 inputColor, const in vec2 uv, out vec4 outputColor)
//	void mainImage(const in vec4 inputColor, const in vec2 uv, const in float depth, out vec4 outputColor)
//
// where the depth variant requires AttributeDepth,
// and/or
//
//	void mainUv(inout vec2 uv)
//
// The optional vertex shader may define mainSupport() or
// mainSupport(const in vec2 uv).
type Effect interface {
	graphics.Disposable

	Name() string
	FragmentShader() string
	VertexShader() string
	Defines() *Defines
	Uniforms() *Uniforms
	Attributes() EffectAttribute
	BlendMode() *BlendMode
	Extensions() []string

	// Initialize is called when the owning pass is added to a composer.
	Initialize(r graphics.Renderer, alpha bool)
	// Update is called every frame before the owning pass draws.
	Update(r graphics.Renderer, input graphics.RenderTarget, deltaTime float32)
	SetSize(width, height int)
	SetDepthTexture(t graphics.Texture, packing graphics.DepthPacking)
}

// EffectOptions configures a BaseEffect.
type EffectOptions struct {
	Vertex     string
	Defines    *Defines
	Uniforms   *Uniforms
	Attributes EffectAttribute
	// Blend defaults to a normal blend with full opacity.
	Blend      *BlendMode
	Extensions []string
}

// BaseEffect implements Effect with no-op hooks. Concrete effects embed it
// and override the hooks they need.
type BaseEffect struct {
	name       string
	fragment   string
	vertex     string
	defines    *Defines
	uniforms   *Uniforms
	attributes EffectAttribute
	blendMode  *BlendMode
	extensions []string
}

// NewEffect creates an effect from a fragment shader.
func NewEffect(name, fragment string, opts EffectOptions) *BaseEffect {
	e := &BaseEffect{
		name:       name,
		fragment:   fragment,
		vertex:     opts.Vertex,
		defines:    opts.Defines,
		uniforms:   opts.Uniforms,
		attributes: opts.Attributes,
		blendMode:  opts.Blend,
		extensions: opts.Extensions,
	}
	if e.defines == nil {
		e.defines = &Defines{}
	}
	if e.uniforms == nil {
		e.uniforms = &Uniforms{}
	}
	if e.blendMode == nil {
		e.blendMode = NewBlendMode(BlendNormal)
	}
	return e
}

func (e *BaseEffect) Name() string                { return e.name }
func (e *BaseEffect) FragmentShader() string      { return e.fragment }
func (e *BaseEffect) VertexShader() string        { return e.vertex }
func (e *BaseEffect) Defines() *Defines           { return e.defines }
func (e *BaseEffect) Uniforms() *Uniforms         { return e.uniforms }
func (e *BaseEffect) Attributes() EffectAttribute { return e.attributes }
func (e *BaseEffect) BlendMode() *BlendMode       { return e.blendMode }
func (e *BaseEffect) Extensions() []string        { return e.extensions }

// SetAttributes replaces the attribute mask. Owning passes must be
// recompiled afterwards.
func (e *BaseEffect) SetAttributes(a EffectAttribute) { e.attributes = a }

// SetFragmentShader replaces the fragment shader. Owning passes must be
// recompiled afterwards.
func (e *BaseEffect) SetFragmentShader(src string) { e.fragment = src }

// SetVertexShader replaces the vertex shader. Owning passes must be
// recompiled afterwards.
func (e *BaseEffect) SetVertexShader(src string) { e.vertex = src }

// Uniform returns the named uniform, or nil.
func (e *BaseEffect) Uniform(name string) *Uniform {
	return e.uniforms.At(name)
}

func (e *BaseEffect) Initialize(graphics.Renderer, bool)                       {}
func (e *BaseEffect) Update(graphics.Renderer, graphics.RenderTarget, float32) {}
func (e *BaseEffect) SetSize(int, int)                                         {}
func (e *BaseEffect) SetDepthTexture(graphics.Texture, graphics.DepthPacking)  {}
func (e *BaseEffect) Dispose()                                                 {}
