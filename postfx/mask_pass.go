package postfx

import (
	"github.com/richinsley/goshaderfx/graphics"
)

// MaskPass writes the silhouette of a scene into the stencil buffer of both
// ping-pong buffers. Passes that follow only draw where the mask is set,
// until a ClearMaskPass runs.
type MaskPass struct {
	BasePass
	clearPass *ClearPass
	// Inverse restricts drawing to the area outside of the mask.
	Inverse bool
}

// NewMaskPass returns a mask pass for scene.
func NewMaskPass(scene graphics.Scene, camera graphics.Camera) *MaskPass {
	p := &MaskPass{
		BasePass:  NewBasePass("MaskPass", scene, camera),
		clearPass: NewClearPass(false, false, true),
	}
	p.needsSwap = false
	return p
}

// ClearPass returns the pass that clears the stencil before the mask is drawn.
func (p *MaskPass) ClearPass() *ClearPass { return p.clearPass }

// StencilTest reports that the stencil test is active after this pass.
func (p *MaskPass) StencilTest() bool { return true }

func (p *MaskPass) Render(r graphics.Renderer, input, output graphics.RenderTarget, deltaTime float32, stencilTest bool) {
	write, clear := 1, 0
	if p.Inverse {
		write, clear = 0, 1
	}

	r.SetColorMask(false)
	r.SetDepthMask(false)
	r.SetStencil(graphics.StencilState{
		Test:  true,
		Func:  graphics.Always,
		Ref:   write,
		Mask:  0xffffffff,
		Fail:  graphics.Replace,
		ZFail: graphics.Replace,
		ZPass: graphics.Replace,
		Clear: clear,
	})

	if p.clearPass.Enabled() {
		p.clearPass.SetRenderToScreen(p.renderToScreen)
		if p.renderToScreen {
			p.clearPass.Render(r, nil, nil, deltaTime, stencilTest)
		} else {
			p.clearPass.Render(r, input, nil, deltaTime, stencilTest)
			p.clearPass.Render(r, output, nil, deltaTime, stencilTest)
		}
	}

	if p.renderToScreen {
		r.SetRenderTarget(nil)
		r.Render(p.scene, p.camera)
	} else {
		r.SetRenderTarget(input)
		r.Render(p.scene, p.camera)
		r.SetRenderTarget(output)
		r.Render(p.scene, p.camera)
	}

	r.SetColorMask(true)
	r.SetDepthMask(true)
	r.SetStencil(graphics.StencilState{
		Test:  true,
		Func:  graphics.Equal,
		Ref:   1,
		Mask:  0xffffffff,
		Fail:  graphics.Keep,
		ZFail: graphics.Keep,
		ZPass: graphics.Keep,
		Clear: clear,
	})
}

// ClearMaskPass disables the stencil test enabled by a MaskPass.
type ClearMaskPass struct {
	BasePass
}

// NewClearMaskPass returns a pass that ends a masked section.
func NewClearMaskPass() *ClearMaskPass {
	p := &ClearMaskPass{BasePass: NewBasePass("ClearMaskPass", nil, nil)}
	p.needsSwap = false
	return p
}

// StencilTest reports that the stencil test is inactive after this pass.
func (p *ClearMaskPass) StencilTest() bool { return false }

func (p *ClearMaskPass) Render(r graphics.Renderer, _, _ graphics.RenderTarget, _ float32, _ bool) {
	s := r.Stencil()
	s.Test = false
	r.SetStencil(s)
}
