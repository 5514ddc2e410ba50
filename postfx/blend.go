package postfx

import (
	"fmt"
	"strings"

	"github.com/chewxy/math32"
)

// BlendFunction selects how the output of an effect is combined with the
// color produced by the effects before it.
type BlendFunction int

const (
	BlendSkip BlendFunction = iota
	BlendAdd
	BlendAlpha
	BlendAverage
	BlendColorBurn
	BlendColorDodge
	BlendDarken
	BlendDifference
	BlendExclusion
	BlendLighten
	BlendMultiply
	BlendDivide
	BlendNegation
	BlendNormal
	BlendOverlay
	BlendReflect
	BlendScreen
	BlendSoftLight
	BlendSubtract

	blendFunctionCount
)

var blendFunctionNames = [blendFunctionCount]string{
	"Skip", "Add", "Alpha", "Average", "ColorBurn", "ColorDodge", "Darken",
	"Difference", "Exclusion", "Lighten", "Multiply", "Divide", "Negation",
	"Normal", "Overlay", "Reflect", "Screen", "SoftLight", "Subtract",
}

// String returns the name used in generated shader code, e.g. "SoftLight".
func (f BlendFunction) String() string {
	if f < 0 || f >= blendFunctionCount {
		return fmt.Sprintf("BlendFunction(%d)", int(f))
	}
	return blendFunctionNames[f]
}

// ParseBlendFunction parses names such as "soft-light", "soft_light" or
// "SoftLight".
func ParseBlendFunction(s string) (BlendFunction, error) {
	key := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(s))
	for i, name := range blendFunctionNames {
		if strings.ToLower(name) == key {
			return BlendFunction(i), nil
		}
	}
	return BlendSkip, fmt.Errorf("unknown blend function %q", s)
}

// blendFunctionBodies maps every blend function to a GLSL function named
// "blend" that combines the running color x with the effect color y.
var blendFunctionBodies = [blendFunctionCount]string{
	BlendSkip: `vec4 blend(const in vec4 x, const in vec4 y, const in float opacity) {
	return x;
}`,
	BlendAdd: `vec4 blend(const in vec4 x, const in vec4 y, const in float opacity) {
	return mix(x, min(x + y, 1.0), opacity);
}`,
	BlendAlpha: `vec4 blend(const in vec4 x, const in vec4 y, const in float opacity) {
	return mix(x, y, min(y.a, opacity));
}`,
	BlendAverage: `vec4 blend(const in vec4 x, const in vec4 y, const in float opacity) {
	return mix(x, (x + y) * 0.5, opacity);
}`,
	BlendColorBurn: `vec4 blend(const in vec4 x, const in vec4 y, const in float opacity) {
	vec4 z = mix(max(1.0 - (1.0 - x) / max(y, 1e-5), 0.0), vec4(0.0), step(y, vec4(0.0)));
	return mix(x, z, opacity);
}`,
	BlendColorDodge: `vec4 blend(const in vec4 x, const in vec4 y, const in float opacity) {
	vec4 z = mix(min(x / max(1.0 - y, 1e-5), 1.0), vec4(1.0), step(1.0, y));
	return mix(x, z, opacity);
}`,
	BlendDarken: `vec4 blend(const in vec4 x, const in vec4 y, const in float opacity) {
	return mix(x, min(x, y), opacity);
}`,
	BlendDifference: `vec4 blend(const in vec4 x, const in vec4 y, const in float opacity) {
	return mix(x, abs(x - y), opacity);
}`,
	BlendExclusion: `vec4 blend(const in vec4 x, const in vec4 y, const in float opacity) {
	return mix(x, x + y - 2.0 * x * y, opacity);
}`,
	BlendLighten: `vec4 blend(const in vec4 x, const in vec4 y, const in float opacity) {
	return mix(x, max(x, y), opacity);
}`,
	BlendMultiply: `vec4 blend(const in vec4 x, const in vec4 y, const in float opacity) {
	return mix(x, x * y, opacity);
}`,
	BlendDivide: `vec4 blend(const in vec4 x, const in vec4 y, const in float opacity) {
	return mix(x, min(x / max(y, 1e-5), 1.0), opacity);
}`,
	BlendNegation: `vec4 blend(const in vec4 x, const in vec4 y, const in float opacity) {
	return mix(x, 1.0 - abs(1.0 - x - y), opacity);
}`,
	BlendNormal: `vec4 blend(const in vec4 x, const in vec4 y, const in float opacity) {
	return mix(x, y, opacity);
}`,
	BlendOverlay: `vec4 blend(const in vec4 x, const in vec4 y, const in float opacity) {
	vec4 z = mix(2.0 * x * y, 1.0 - 2.0 * (1.0 - x) * (1.0 - y), step(0.5, x));
	return mix(x, z, opacity);
}`,
	BlendReflect: `vec4 blend(const in vec4 x, const in vec4 y, const in float opacity) {
	vec4 z = mix(min(x * x / max(1.0 - y, 1e-5), 1.0), y, step(1.0, y));
	return mix(x, z, opacity);
}`,
	BlendScreen: `vec4 blend(const in vec4 x, const in vec4 y, const in float opacity) {
	return mix(x, 1.0 - (1.0 - x) * (1.0 - y), opacity);
}`,
	BlendSoftLight: `vec4 blend(const in vec4 x, const in vec4 y, const in float opacity) {
	vec4 z = (1.0 - 2.0 * y) * x * x + 2.0 * y * x;
	return mix(x, z, opacity);
}`,
	BlendSubtract: `vec4 blend(const in vec4 x, const in vec4 y, const in float opacity) {
	return mix(x, max(x + y - 1.0, 0.0), opacity);
}`,
}

// BlendMode pairs a blend function with an opacity uniform.
type BlendMode struct {
	function BlendFunction
	// Opacity is shared with every program the owning effect is merged into.
	Opacity *Uniform
}

// NewBlendMode returns a blend mode with full opacity.
func NewBlendMode(fn BlendFunction) *BlendMode {
	return &BlendMode{function: fn, Opacity: NewUniform(float32(1))}
}

// Function returns the blend function.
func (b *BlendMode) Function() BlendFunction { return b.function }

// SetFunction changes the blend function. Passes that merged the owning
// effect must be recompiled for the change to take effect.
func (b *BlendMode) SetFunction(fn BlendFunction) { b.function = fn }

// SetOpacity sets the opacity, clamped to [0, 1].
func (b *BlendMode) SetOpacity(v float32) {
	b.Opacity.Value = math32.Max(0, math32.Min(1, v))
}

// ShaderSource returns the GLSL function implementing the blend function.
// The function is called "blend"; callers rename it when several blend
// functions are combined.
func (b *BlendMode) ShaderSource() string {
	if b.function < 0 || b.function >= blendFunctionCount {
		return blendFunctionBodies[BlendSkip]
	}
	return blendFunctionBodies[b.function]
}
