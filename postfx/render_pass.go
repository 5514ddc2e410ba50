package postfx

import (
	"github.com/richinsley/goshaderfx/graphics"
)

// RenderPass draws a scene into the input buffer.
type RenderPass struct {
	BasePass
	clearPass *ClearPass
}

// NewRenderPass returns a pass that clears color and depth and renders
// scene with camera.
func NewRenderPass(scene graphics.Scene, camera graphics.Camera) *RenderPass {
	p := &RenderPass{
		BasePass:  NewBasePass("RenderPass", scene, camera),
		clearPass: NewClearPass(true, true, false),
	}
	p.needsSwap = false
	return p
}

// ClearPass returns the pass that clears the buffer before the scene is
// drawn. Disable it to draw on top of the previous contents.
func (p *RenderPass) ClearPass() *ClearPass { return p.clearPass }

func (p *RenderPass) Render(r graphics.Renderer, input, output graphics.RenderTarget, deltaTime float32, stencilTest bool) {
	if p.clearPass.Enabled() {
		p.clearPass.SetRenderToScreen(p.renderToScreen)
		p.clearPass.Render(r, input, output, deltaTime, stencilTest)
	}
	r.SetRenderTarget(p.target(input))
	r.Render(p.scene, p.camera)
}
