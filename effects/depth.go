package effects

import (
	"github.com/richinsley/goshaderfx/postfx"
)

const depthFragment = `void mainImage(const in vec4 inputColor, const in vec2 uv, const in float depth, out vec4 outputColor) {
#ifdef INVERTED
	vec3 color = vec3(1.0 - depth);
#else
	vec3 color = vec3(depth);
#endif
	outputColor = vec4(color, inputColor.a);
}
`

// Depth visualizes the scene depth buffer.
type Depth struct {
	*postfx.BaseEffect
}

func NewDepth(inverted bool) *Depth {
	d := &Depth{BaseEffect: postfx.NewEffect("Depth", depthFragment, postfx.EffectOptions{
		Attributes: postfx.AttributeDepth,
	})}
	d.SetInverted(inverted)
	return d
}

func (d *Depth) Inverted() bool {
	_, ok := d.Defines().AtTry("INVERTED")
	return ok
}

// SetInverted toggles depth inversion. Owning passes must be recompiled
// afterwards.
func (d *Depth) SetInverted(inverted bool) {
	if inverted {
		d.Defines().Set("INVERTED", "1")
	} else {
		d.Defines().DeleteByKey("INVERTED")
	}
}
