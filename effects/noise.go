package effects

import (
	"github.com/richinsley/goshaderfx/postfx"
)

const noiseFragment = `float rand(const in vec2 uv) {
	return fract(sin(dot(uv, vec2(12.9898, 78.233))) * 43758.5453);
}

void mainImage(const in vec4 inputColor, const in vec2 uv, out vec4 outputColor) {
	vec3 noise = vec3(rand(uv * (1.0 + time)));

#ifdef PREMULTIPLY
	outputColor = vec4(min(inputColor.rgb * noise, vec3(1.0)), inputColor.a);
#else
	outputColor = vec4(noise, inputColor.a);
#endif
}
`

// Noise adds animated film grain. It screens the grain over the image by
// default.
type Noise struct {
	*postfx.BaseEffect
}

// NewNoise returns a noise effect. Premultiplied noise is multiplied with
// the input color before blending.
func NewNoise(premultiply bool) *Noise {
	n := &Noise{BaseEffect: postfx.NewEffect("Noise", noiseFragment, postfx.EffectOptions{
		Blend: postfx.NewBlendMode(postfx.BlendScreen),
	})}
	n.SetPremultiply(premultiply)
	return n
}

func (n *Noise) Premultiply() bool {
	_, ok := n.Defines().AtTry("PREMULTIPLY")
	return ok
}

// SetPremultiply toggles premultiplication. Owning passes must be
// recompiled afterwards.
func (n *Noise) SetPremultiply(enabled bool) {
	if enabled {
		n.Defines().Set("PREMULTIPLY", "1")
	} else {
		n.Defines().DeleteByKey("PREMULTIPLY")
	}
}
