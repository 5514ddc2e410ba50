package postfx

import "strings"

// EffectAttribute is a bitmask of special needs of an effect.
type EffectAttribute uint8

const (
	AttributeNone EffectAttribute = 0
	// AttributeDepth marks effects that read the scene depth.
	AttributeDepth EffectAttribute = 1 << 0
	// AttributeConvolution marks effects that sample neighboring input
	// texels. At most one such effect can be merged into a program and it
	// must run before any other effect changes the color.
	AttributeConvolution EffectAttribute = 1 << 1
)

// Has reports whether all bits of flag are set.
func (a EffectAttribute) Has(flag EffectAttribute) bool {
	return a&flag == flag && flag != 0
}

func (a EffectAttribute) String() string {
	if a == AttributeNone {
		return "none"
	}
	var parts []string
	if a.Has(AttributeDepth) {
		parts = append(parts, "depth")
	}
	if a.Has(AttributeConvolution) {
		parts = append(parts, "convolution")
	}
	return strings.Join(parts, "|")
}
