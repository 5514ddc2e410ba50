package effects

import (
	"github.com/chewxy/math32"

	"github.com/richinsley/goshaderfx/postfx"
)

const pixelationFragment = `uniform bool active;
uniform vec4 d;

void mainUv(inout vec2 uv) {
	if(active) {
		uv = d.xy * (floor(uv * d.zw) + 0.5);
	}
}
`

// Pixelation snaps texture coordinates to a grid of square cells. It only
// transforms coordinates and therefore cannot share a pass with a
// convolution effect.
type Pixelation struct {
	*postfx.BaseEffect
	active      *postfx.Uniform
	d           *postfx.Uniform
	granularity float32
	width       int
	height      int
}

// NewPixelation returns a pixelation effect with cells of granularity
// pixels.
func NewPixelation(granularity float32) *Pixelation {
	p := &Pixelation{
		active: postfx.NewUniform(false),
		d:      postfx.NewUniform([4]float32{}),
		width:  1,
		height: 1,
	}
	uniforms := &postfx.Uniforms{}
	uniforms.Set("active", p.active)
	uniforms.Set("d", p.d)
	p.BaseEffect = postfx.NewEffect("Pixelation", pixelationFragment, postfx.EffectOptions{
		Uniforms: uniforms,
	})
	p.SetGranularity(granularity)
	return p
}

func (p *Pixelation) Granularity() float32 { return p.granularity }

// SetGranularity sets the cell size in pixels. Fractions are dropped and
// odd sizes are raised to the next even size. Zero disables the effect.
func (p *Pixelation) SetGranularity(g float32) {
	g = math32.Floor(math32.Max(0, g))
	if math32.Mod(g, 2) > 0 {
		g++
	}
	p.granularity = g
	p.update()
}

func (p *Pixelation) SetSize(width, height int) {
	p.width, p.height = max(width, 1), max(height, 1)
	p.update()
}

func (p *Pixelation) update() {
	x := p.granularity / float32(p.width)
	y := p.granularity / float32(p.height)
	p.active.Value = p.granularity > 0
	if p.granularity > 0 {
		p.d.Value = [4]float32{x, y, 1 / x, 1 / y}
	} else {
		p.d.Value = [4]float32{}
	}
}

// Cell returns the uniform cell size in texture coordinates.
func (p *Pixelation) Cell() [2]float32 {
	d := p.d.Value.([4]float32)
	return [2]float32{d[0], d[1]}
}
