package postfx

import (
	"fmt"

	"github.com/richinsley/goshaderfx/graphics"
	"github.com/richinsley/goshaderfx/shader"
)

// EffectMaterial is the program generated by an EffectPass: the substituted
// template sections together with the merged defines, uniforms and
// extensions. The program itself is compiled on first use.
type EffectMaterial struct {
	Sections   shader.Sections
	Defines    *Defines
	Uniforms   *Uniforms
	Extensions []string

	program graphics.Program
	err     error
}

// SetDefine sets a macro. The program is rebuilt on the next draw.
func (m *EffectMaterial) SetDefine(name, value string) {
	if v, ok := m.Defines.AtTry(name); ok && v == value {
		return
	}
	m.Defines.Set(name, value)
	m.invalidate()
}

// DeleteDefine removes a macro. The program is rebuilt on the next draw.
func (m *EffectMaterial) DeleteDefine(name string) {
	if m.Defines.DeleteByKey(name) {
		m.invalidate()
	}
}

func (m *EffectMaterial) header() string {
	defines := make([]shader.Define, 0, m.Defines.Len())
	for i, name := range m.Defines.Keys {
		defines = append(defines, shader.Define{Name: name, Value: m.Defines.Values[i]})
	}
	return shader.Header(m.Extensions, defines)
}

// FragmentShader returns the complete fragment shader source.
func (m *EffectMaterial) FragmentShader() string {
	return m.header() + m.Sections.Fragment()
}

// VertexShader returns the complete vertex shader source.
func (m *EffectMaterial) VertexShader() string {
	return m.header() + m.Sections.Vertex()
}

// Program compiles the material on first use. A failed compilation is
// remembered until the material changes.
func (m *EffectMaterial) Program(r graphics.Renderer) (graphics.Program, error) {
	if m.program != nil || m.err != nil {
		return m.program, m.err
	}
	p, err := r.NewProgram(m.VertexShader(), m.FragmentShader())
	if err != nil {
		m.err = fmt.Errorf("failed to compile effect program: %w", err)
		return nil, m.err
	}
	m.program = p
	return p, nil
}

// Compiled reports whether the program has been built.
func (m *EffectMaterial) Compiled() bool { return m.program != nil }

func (m *EffectMaterial) invalidate() {
	if m.program != nil {
		m.program.Dispose()
		m.program = nil
	}
	m.err = nil
}

// Dispose releases the compiled program.
func (m *EffectMaterial) Dispose() {
	m.invalidate()
}
