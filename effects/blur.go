package effects

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mjibson/go-dsp/window"

	"github.com/richinsley/goshaderfx/postfx"
)

const blurFragment = `uniform float weights[KERNEL_SIZE];
uniform float scale;

void mainImage(const in vec4 inputColor, const in vec2 uv, out vec4 outputColor) {
	vec4 sum = vec4(0.0);

	for(int i = 0; i < KERNEL_SIZE; ++i) {
		for(int j = 0; j < KERNEL_SIZE; ++j) {
			vec2 offset = vec2(float(i - KERNEL_RADIUS), float(j - KERNEL_RADIUS)) * texelSize * scale;
			sum += texture(inputBuffer, uv + offset) * weights[i] * weights[j];
		}
	}

	outputColor = sum;
}
`

// Window names a window function used to derive blur kernel weights.
type Window string

const (
	WindowRectangular Window = "rectangular"
	WindowHann        Window = "hann"
	WindowHamming     Window = "hamming"
	WindowBlackman    Window = "blackman"
	WindowBartlett    Window = "bartlett"
	WindowFlatTop     Window = "flattop"
)

var windows = map[Window]func(int) []float64{
	WindowRectangular: window.Rectangular,
	WindowHann:        window.Hann,
	WindowHamming:     window.Hamming,
	WindowBlackman:    window.Blackman,
	WindowBartlett:    window.Bartlett,
	WindowFlatTop:     window.FlatTop,
}

// ParseWindow parses a window function name.
func ParseWindow(s string) (Window, error) {
	w := Window(strings.ToLower(strings.ReplaceAll(s, "-", "")))
	if _, ok := windows[w]; !ok {
		return "", fmt.Errorf("unknown window function %q", s)
	}
	return w, nil
}

// KernelWeights returns 2*radius+1 normalized one dimensional weights
// shaped by the window function. The window is evaluated one sample wider
// on each side so that windows which vanish at their ends still weigh the
// outermost taps.
func KernelWeights(radius int, w Window) ([]float32, error) {
	fn, ok := windows[w]
	if !ok {
		return nil, fmt.Errorf("unknown window function %q", w)
	}
	if radius < 0 {
		return nil, fmt.Errorf("invalid blur radius %d", radius)
	}
	n := 2*radius + 1
	full := fn(n + 2)
	var sum float64
	for _, v := range full[1 : n+1] {
		sum += v
	}
	weights := make([]float32, n)
	for i := range weights {
		weights[i] = float32(full[i+1] / sum)
	}
	return weights, nil
}

// Blur is a windowed box blur. It samples neighboring texels and is
// therefore a convolution effect: it always runs first in its pass and
// cannot share a pass with another convolution or with a uv transform.
type Blur struct {
	*postfx.BaseEffect
	weights *postfx.Uniform
	scale   *postfx.Uniform
	radius  int
	window  Window
}

// NewBlur returns a blur with the given kernel radius in texels.
func NewBlur(radius int, w Window, scale float32) (*Blur, error) {
	weights, err := KernelWeights(radius, w)
	if err != nil {
		return nil, err
	}
	b := &Blur{
		weights: postfx.NewUniform(weights),
		scale:   postfx.NewUniform(scale),
		radius:  radius,
		window:  w,
	}
	uniforms := &postfx.Uniforms{}
	uniforms.Set("weights", b.weights)
	uniforms.Set("scale", b.scale)
	defines := &postfx.Defines{}
	defines.Set("KERNEL_SIZE", strconv.Itoa(len(weights)))
	defines.Set("KERNEL_RADIUS", strconv.Itoa(radius))
	b.BaseEffect = postfx.NewEffect("Blur", blurFragment, postfx.EffectOptions{
		Uniforms:   uniforms,
		Defines:    defines,
		Attributes: postfx.AttributeConvolution,
	})
	return b, nil
}

func (b *Blur) Radius() int            { return b.radius }
func (b *Blur) Window() Window         { return b.window }
func (b *Blur) Weights() []float32     { return b.weights.Value.([]float32) }
func (b *Blur) Scale() float32         { return b.scale.Value.(float32) }
func (b *Blur) SetScale(scale float32) { b.scale.Value = scale }

// SetWindow reshapes the kernel without changing its size.
func (b *Blur) SetWindow(w Window) error {
	weights, err := KernelWeights(b.radius, w)
	if err != nil {
		return err
	}
	b.window = w
	b.weights.Value = weights
	return nil
}

// SetRadius resizes the kernel. Owning passes must be recompiled
// afterwards.
func (b *Blur) SetRadius(radius int) error {
	weights, err := KernelWeights(radius, b.window)
	if err != nil {
		return err
	}
	b.radius = radius
	b.weights.Value = weights
	b.Defines().Set("KERNEL_SIZE", strconv.Itoa(len(weights)))
	b.Defines().Set("KERNEL_RADIUS", strconv.Itoa(radius))
	return nil
}
