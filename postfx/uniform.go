package postfx

import (
	"cogentcore.org/core/base/keylist"
)

// Uniform is a shader uniform value shared by reference between the effect
// that owns it and every program it is merged into. Supported values are
// float32, int32, bool, [2]float32, [3]float32, [4]float32, []float32 and
// graphics.Texture.
type Uniform struct {
	Value any
}

// NewUniform returns a uniform holding v.
func NewUniform(v any) *Uniform {
	return &Uniform{Value: v}
}

// Defines is an ordered set of preprocessor macros.
type Defines = keylist.List[string, string]

// Uniforms is an ordered set of named uniforms.
type Uniforms = keylist.List[string, *Uniform]
