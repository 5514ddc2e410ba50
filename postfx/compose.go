package postfx

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/richinsley/goshaderfx/glsl"
	"github.com/richinsley/goshaderfx/graphics"
	"github.com/richinsley/goshaderfx/shader"
)

// Entry points recognized in effect shaders.
const (
	mainImage   = "mainImage"
	mainUv      = "mainUv"
	mainSupport = "mainSupport"
)

// composition accumulates the generated program of an EffectPass.
type composition struct {
	sections   shader.Sections
	head       strings.Builder
	mainUv     strings.Builder
	mainImage  strings.Builder
	vertexHead strings.Builder
	support    strings.Builder

	defines    *Defines
	uniforms   *Uniforms
	extensions []string

	attributes   EffectAttribute
	blends       []BlendFunction
	active       int
	varyings     int
	readsDepth   bool
	transformsUv bool
	errs         []error
}

// orderEffects returns effects in composition order. Convolution effects
// sample the unmodified input and are moved to the front; the relative
// order of all other effects is kept.
func orderEffects(effects []Effect) []Effect {
	sorted := slices.Clone(effects)
	slices.SortStableFunc(sorted, func(a, b Effect) int {
		ca, cb := a.Attributes().Has(AttributeConvolution), b.Attributes().Has(AttributeConvolution)
		switch {
		case ca && !cb:
			return -1
		case cb && !ca:
			return 1
		}
		return 0
	})
	return sorted
}

// compose merges effects into one set of shader sections.
func compose(effects []Effect) *composition {
	c := &composition{
		defines:  &Defines{},
		uniforms: &Uniforms{},
	}
	for _, e := range orderEffects(effects) {
		attrs := e.Attributes()
		switch {
		case e.BlendMode().Function() == BlendSkip:
			c.attributes |= attrs & AttributeDepth
		case c.attributes.Has(AttributeConvolution) && attrs.Has(AttributeConvolution):
			c.fail(e, ErrConvolutionMerge)
		default:
			if err := c.integrate("e"+strconv.Itoa(c.active), e); err != nil {
				c.fail(e, err)
				continue
			}
			c.active++
			c.attributes |= attrs
		}
	}
	c.finish()
	return c
}

func (c *composition) fail(e Effect, err error) {
	c.errs = append(c.errs, fmt.Errorf("effect %q: %w", e.Name(), err))
	c.attributes |= e.Attributes() & AttributeDepth
}

// integrate renames the private symbols of e with prefix and appends its
// code to the sections. Nothing is written when e violates the shader
// contract.
func (c *composition) integrate(prefix string, e Effect) error {
	fragment := e.FragmentShader()
	if strings.TrimSpace(fragment) == "" {
		return ErrMissingFragment
	}
	fragmentTokens := glsl.Tokenize(fragment)
	functions := glsl.Functions(fragmentTokens)
	hasMainImage := slices.Contains(functions, mainImage)
	hasMainUv := slices.Contains(functions, mainUv)
	readsDepth := false
	if hasMainImage {
		n, _ := glsl.Parameters(fragmentTokens, mainImage)
		readsDepth = n == 4
	}
	switch {
	case !hasMainImage && !hasMainUv:
		return ErrMissingEntryPoint
	case hasMainUv && (c.attributes | e.Attributes()).Has(AttributeConvolution):
		return ErrUvConvolution
	case readsDepth && !e.Attributes().Has(AttributeDepth):
		return ErrUndeclaredDepth
	}

	renamer := glsl.NewRenamer(prefix)
	renamer.Add(glsl.Function, functions...)

	vertex := e.VertexShader()
	var vertexTokens []glsl.Token
	if strings.TrimSpace(vertex) != "" {
		vertexTokens = glsl.Tokenize(vertex)
		renamer.Add(glsl.Function, glsl.Functions(vertexTokens)...)
		renamer.Add(glsl.Varying, glsl.Varyings(vertexTokens)...)
	}
	renamer.Add(glsl.Uniform, e.Uniforms().Keys...)
	renamer.Add(glsl.Define, e.Defines().Keys...)

	blend := e.BlendMode()
	opacity := prefix + "BlendOpacity"

	fmt.Fprintf(&c.head, "uniform float %s;\n\n%s\n", opacity, renamer.Apply(fragment))

	if hasMainUv {
		c.transformsUv = true
		fmt.Fprintf(&c.mainUv, "\t%s(UV);\n", renamer.Name(mainUv))
	}

	if hasMainImage {
		args := "color0, UV, "
		if readsDepth {
			c.readsDepth = true
			args += "depth, "
		}
		fn := blend.Function()
		fmt.Fprintf(&c.mainImage, "\t%s(%scolor1);\n", renamer.Name(mainImage), args)
		fmt.Fprintf(&c.mainImage, "\tcolor0 = blend%s(color0, color1, %s);\n\n", fn, opacity)
		if !slices.Contains(c.blends, fn) {
			c.blends = append(c.blends, fn)
		}
	}

	if vertexTokens != nil {
		c.varyings += renamer.Count(glsl.Varying)
		c.vertexHead.WriteString(renamer.Apply(vertex))
		c.vertexHead.WriteString("\n")
		if n, ok := glsl.Parameters(vertexTokens, mainSupport); ok {
			if n > 0 {
				fmt.Fprintf(&c.support, "\t%s(vUv);\n", renamer.Name(mainSupport))
			} else {
				fmt.Fprintf(&c.support, "\t%s();\n", renamer.Name(mainSupport))
			}
		}
	}

	for i, name := range e.Defines().Keys {
		c.defines.Set(renamer.Name(name), renamer.Apply(e.Defines().Values[i]))
	}
	for i, name := range e.Uniforms().Keys {
		c.uniforms.Set(renamer.Name(name), e.Uniforms().Values[i])
	}
	c.uniforms.Set(opacity, blend.Opacity)

	for _, ext := range e.Extensions() {
		if !slices.Contains(c.extensions, ext) {
			c.extensions = append(c.extensions, ext)
		}
	}
	return nil
}

// finish emits the blend functions and the uv and depth preambles.
func (c *composition) finish() {
	for _, fn := range c.blends {
		source := (&BlendMode{function: fn}).ShaderSource()
		c.head.WriteString(glsl.Replace(source, map[string]string{"blend": "blend" + fn.String()}))
		c.head.WriteString("\n\n")
	}

	mainUv := c.mainUv.String()
	if c.transformsUv {
		mainUv = "\tvec2 transformedUv = vUv;\n" + mainUv
	}
	mainImage := c.mainImage.String()
	if c.readsDepth && c.attributes.Has(AttributeDepth) {
		mainImage = "\tfloat depth = readDepth(UV);\n\n" + mainImage
	}

	c.sections = shader.Sections{
		FragmentHead:      c.head.String(),
		FragmentMainUv:    mainUv,
		FragmentMainImage: mainImage,
		VertexHead:        c.vertexHead.String(),
		VertexMainSupport: c.support.String(),
	}
	c.sections.Trim()
}

// uvDefine returns the expression the UV macro expands to.
func (c *composition) uvDefine() string {
	if c.transformsUv {
		return "transformedUv"
	}
	return "vUv"
}

// material builds the generated material.
func (c *composition) material(packing graphics.DepthPacking, perspective, dithering bool) *EffectMaterial {
	defines := &Defines{}
	defines.Set("DEPTH_PACKING", strconv.Itoa(int(packing)))
	for i, name := range c.defines.Keys {
		defines.Set(name, c.defines.Values[i])
	}
	defines.Set("UV", c.uvDefine())
	if perspective {
		defines.Set("PERSPECTIVE_CAMERA", "1")
	}
	if dithering {
		defines.Set("DITHERING", "1")
	}
	return &EffectMaterial{
		Sections:   c.sections,
		Defines:    defines,
		Uniforms:   c.uniforms,
		Extensions: c.extensions,
	}
}
