package postfx

import (
	"github.com/richinsley/goshaderfx/graphics"
)

// ClearPass clears the input buffer, or the screen when rendering to screen.
type ClearPass struct {
	BasePass

	Color   bool
	Depth   bool
	Stencil bool
	// OverrideClearColor replaces the renderer clear color for this pass.
	OverrideClearColor *graphics.Color
}

// NewClearPass returns a pass that clears the selected buffers.
func NewClearPass(color, depth, stencil bool) *ClearPass {
	p := &ClearPass{
		BasePass: NewBasePass("ClearPass", nil, nil),
		Color:    color,
		Depth:    depth,
		Stencil:  stencil,
	}
	p.needsSwap = false
	return p
}

func (p *ClearPass) Render(r graphics.Renderer, input, _ graphics.RenderTarget, _ float32, _ bool) {
	if p.OverrideClearColor != nil {
		saved := r.ClearColor()
		r.SetClearColor(*p.OverrideClearColor)
		defer r.SetClearColor(saved)
	}
	r.SetRenderTarget(p.target(input))
	r.Clear(p.Color, p.Depth, p.Stencil)
}
