package postfx

import (
	"github.com/richinsley/goshaderfx/graphics"
)

// Pass is one step of an EffectComposer pipeline.
type Pass interface {
	graphics.Disposable

	Name() string
	Enabled() bool
	SetEnabled(enabled bool)
	// NeedsSwap reports whether the composer must exchange its input and
	// output buffers after the pass has rendered.
	NeedsSwap() bool
	NeedsDepthTexture() bool
	RenderToScreen() bool
	SetRenderToScreen(enabled bool)

	// Render reads from input and writes to output, or to the screen when
	// RenderToScreen is set. The buffers must not be retained.
	Render(r graphics.Renderer, input, output graphics.RenderTarget, deltaTime float32, stencilTest bool)
	SetSize(width, height int)
	Initialize(r graphics.Renderer, alpha bool)
	// SetDepthTexture hands the composer's shared depth texture to the pass.
	// A nil texture revokes it.
	SetDepthTexture(t graphics.Texture, packing graphics.DepthPacking)
}

// StencilToggler is implemented by passes that enable or disable the
// stencil test for the passes that follow them.
type StencilToggler interface {
	// StencilTest returns the stencil test state after the pass.
	StencilTest() bool
}

// BasePass holds the flags shared by all passes. Concrete passes embed it
// and implement Render.
type BasePass struct {
	name              string
	enabled           bool
	needsSwap         bool
	needsDepthTexture bool
	renderToScreen    bool
	scene             graphics.Scene
	camera            graphics.Camera
}

// NewBasePass returns an enabled pass that requests a swap.
func NewBasePass(name string, scene graphics.Scene, camera graphics.Camera) BasePass {
	return BasePass{
		name:      name,
		enabled:   true,
		needsSwap: true,
		scene:     scene,
		camera:    camera,
	}
}

func (p *BasePass) Name() string                   { return p.name }
func (p *BasePass) Enabled() bool                  { return p.enabled }
func (p *BasePass) SetEnabled(enabled bool)        { p.enabled = enabled }
func (p *BasePass) NeedsSwap() bool                { return p.needsSwap }
func (p *BasePass) SetNeedsSwap(enabled bool)      { p.needsSwap = enabled }
func (p *BasePass) NeedsDepthTexture() bool        { return p.needsDepthTexture }
func (p *BasePass) RenderToScreen() bool           { return p.renderToScreen }
func (p *BasePass) SetRenderToScreen(enabled bool) { p.renderToScreen = enabled }
func (p *BasePass) Scene() graphics.Scene          { return p.scene }
func (p *BasePass) Camera() graphics.Camera        { return p.camera }

func (p *BasePass) SetSize(int, int)                                        {}
func (p *BasePass) Initialize(graphics.Renderer, bool)                      {}
func (p *BasePass) SetDepthTexture(graphics.Texture, graphics.DepthPacking) {}
func (p *BasePass) Dispose()                                                {}

// target returns the render target a pass draws into.
func (p *BasePass) target(output graphics.RenderTarget) graphics.RenderTarget {
	if p.renderToScreen {
		return nil
	}
	return output
}
