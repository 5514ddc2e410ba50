package postfx

import (
	"fmt"

	"github.com/richinsley/goshaderfx/graphics"
	"github.com/richinsley/goshaderfx/shader"
)

// ShaderPass draws a fullscreen program that samples the input buffer
// through the "inputBuffer" uniform.
type ShaderPass struct {
	BasePass

	vertex   string
	fragment string
	uniforms *Uniforms

	program graphics.Program
	err     error
}

// NewShaderPass returns a pass for the given program sources.
func NewShaderPass(name, vertex, fragment string, uniforms *Uniforms) *ShaderPass {
	if uniforms == nil {
		uniforms = &Uniforms{}
	}
	return &ShaderPass{
		BasePass: NewBasePass(name, nil, nil),
		vertex:   vertex,
		fragment: fragment,
		uniforms: uniforms,
	}
}

// NewCopyPass returns a pass that copies its input, scaled by the
// "opacity" uniform.
func NewCopyPass() *ShaderPass {
	uniforms := &Uniforms{}
	uniforms.Set("opacity", NewUniform(float32(1)))
	return NewShaderPass("CopyPass", shader.GenerateVertexShader(), shader.GetCopyFragmentShader(), uniforms)
}

// Uniforms returns the uniforms applied on every draw.
func (p *ShaderPass) Uniforms() *Uniforms { return p.uniforms }

func (p *ShaderPass) Render(r graphics.Renderer, input, output graphics.RenderTarget, _ float32, _ bool) {
	if p.program == nil {
		if p.err != nil {
			return
		}
		program, err := r.NewProgram(p.vertex, p.fragment)
		if err != nil {
			p.err = fmt.Errorf("failed to compile %s program: %w", p.name, err)
			Logger().Error("skipping shader pass", "pass", p.name, "err", p.err)
			return
		}
		p.program = program
	}
	p.program.SetUniform("inputBuffer", input.Texture())
	for i, name := range p.uniforms.Keys {
		p.program.SetUniform(name, p.uniforms.Values[i].Value)
	}
	r.SetRenderTarget(p.target(output))
	r.DrawFullscreen(p.program)
}

func (p *ShaderPass) Dispose() {
	if p.program != nil {
		p.program.Dispose()
		p.program = nil
	}
	p.err = nil
}
