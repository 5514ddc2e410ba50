package effects

import (
	"github.com/chewxy/math32"

	"github.com/richinsley/goshaderfx/postfx"
)

const brightnessContrastFragment = `uniform float brightness;
uniform float contrast;

void mainImage(const in vec4 inputColor, const in vec2 uv, out vec4 outputColor) {
	vec3 color = inputColor.rgb + vec3(brightness - 0.5);

	if(contrast > 0.0) {
		color /= vec3(1.0 - contrast);
	} else {
		color *= vec3(1.0 + contrast);
	}

	outputColor = vec4(color + vec3(0.5), inputColor.a);
}
`

// BrightnessContrast shifts brightness and scales contrast. Both settings
// range from -1 to 1 with 0 as neutral.
type BrightnessContrast struct {
	*postfx.BaseEffect
	brightness *postfx.Uniform
	contrast   *postfx.Uniform
}

func NewBrightnessContrast(brightness, contrast float32) *BrightnessContrast {
	e := &BrightnessContrast{
		brightness: postfx.NewUniform(float32(0)),
		contrast:   postfx.NewUniform(float32(0)),
	}
	uniforms := &postfx.Uniforms{}
	uniforms.Set("brightness", e.brightness)
	uniforms.Set("contrast", e.contrast)
	e.BaseEffect = postfx.NewEffect("BrightnessContrast", brightnessContrastFragment, postfx.EffectOptions{
		Uniforms: uniforms,
	})
	e.SetBrightness(brightness)
	e.SetContrast(contrast)
	return e
}

func clampUnit(v float32) float32 {
	return math32.Max(-1, math32.Min(1, v))
}

func (e *BrightnessContrast) Brightness() float32 { return e.brightness.Value.(float32) }
func (e *BrightnessContrast) Contrast() float32   { return e.contrast.Value.(float32) }

// SetBrightness sets the brightness, clamped to [-1, 1].
func (e *BrightnessContrast) SetBrightness(v float32) {
	e.brightness.Value = clampUnit(v)
}

// SetContrast sets the contrast, clamped to [-1, 1]. A contrast of exactly
// 1 would divide by zero and is lowered slightly.
func (e *BrightnessContrast) SetContrast(v float32) {
	e.contrast.Value = math32.Min(clampUnit(v), 0.999)
}
