package effects

import (
	"github.com/richinsley/goshaderfx/postfx"
)

const vignetteFragment = `uniform float offset;
uniform float darkness;

void mainImage(const in vec4 inputColor, const in vec2 uv, out vec4 outputColor) {
	const vec2 center = vec2(0.5);
	vec3 color = inputColor.rgb;
	float d = distance(uv, center);
	color *= smoothstep(0.8, offset * 0.799, d * (darkness + offset));
	outputColor = vec4(color, inputColor.a);
}
`

// Vignette darkens the image towards its borders.
type Vignette struct {
	*postfx.BaseEffect
	offset   *postfx.Uniform
	darkness *postfx.Uniform
}

// NewVignette returns a vignette with the given falloff offset and darkness.
func NewVignette(offset, darkness float32) *Vignette {
	v := &Vignette{
		offset:   postfx.NewUniform(offset),
		darkness: postfx.NewUniform(darkness),
	}
	uniforms := &postfx.Uniforms{}
	uniforms.Set("offset", v.offset)
	uniforms.Set("darkness", v.darkness)
	v.BaseEffect = postfx.NewEffect("Vignette", vignetteFragment, postfx.EffectOptions{
		Uniforms: uniforms,
	})
	return v
}

func (v *Vignette) Offset() float32       { return v.offset.Value.(float32) }
func (v *Vignette) SetOffset(x float32)   { v.offset.Value = x }
func (v *Vignette) Darkness() float32     { return v.darkness.Value.(float32) }
func (v *Vignette) SetDarkness(x float32) { v.darkness.Value = x }
