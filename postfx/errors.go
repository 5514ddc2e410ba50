package postfx

import "errors"

// Shader contract violations. They are reported per effect, wrapped with the
// effect name, and cause the offending effect to be left out of the
// generated program.
var (
	ErrMissingFragment   = errors.New("missing fragment shader")
	ErrMissingEntryPoint = errors.New("fragment shader contains neither a mainImage nor a mainUv function")
	ErrUvConvolution     = errors.New("effects that transform uv coordinates are incompatible with convolution effects")
	ErrConvolutionMerge  = errors.New("convolution effects cannot be merged")
	ErrUndeclaredDepth   = errors.New("mainImage reads depth but the effect does not have the depth attribute")
)
