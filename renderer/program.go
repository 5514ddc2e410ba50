package renderer

import (
	"fmt"
	"log"
	"strings"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"github.com/richinsley/goshaderfx/graphics"
	"github.com/richinsley/goshaderfx/translator"
)

// Program is a linked program built from translated GLSL ES 3.00 sources.
// Uniforms are addressed by their original names.
type Program struct {
	id          uint32
	vertex      *translator.Shader
	fragment    *translator.Shader
	locations   map[string]int32
	uniforms    map[string]any
	units       []uint32
	writesDepth bool
	warned      map[string]bool
}

func (r *Renderer) NewProgram(vertex, fragment string) (graphics.Program, error) {
	gles := r.context.IsGLES()
	vs, err := translator.Translate(vertex, "vertex", gles)
	if err != nil {
		return nil, err
	}
	fs, err := translator.Translate(fragment, "fragment", gles)
	if err != nil {
		return nil, err
	}
	id, err := newProgram(vs.Code, fs.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to create shader program: %w", err)
	}
	return &Program{
		id:          id,
		vertex:      vs,
		fragment:    fs,
		locations:   make(map[string]int32),
		uniforms:    make(map[string]any),
		writesDepth: strings.Contains(fragment, "gl_FragDepth"),
		warned:      make(map[string]bool),
	}, nil
}

// TranslatedSources returns the sources that were compiled.
func (p *Program) TranslatedSources() (vertex, fragment string) {
	return p.vertex.Code, p.fragment.Code
}

func (p *Program) SetUniform(name string, value any) { p.uniforms[name] = value }

func (p *Program) Dispose() {
	if p.id != 0 {
		gl.DeleteProgram(p.id)
		p.id = 0
	}
}

// GetUniformLocation returns the location of a uniform by its original
// name, or -1 when the program does not use it.
func (p *Program) GetUniformLocation(name string) int32 {
	if loc, ok := p.locations[name]; ok {
		return loc
	}
	mapped, ok := p.fragment.MappedName(name)
	if !ok {
		mapped, _ = p.vertex.MappedName(name)
	}
	loc := gl.GetUniformLocation(p.id, gl.Str(mapped+"\x00"))
	if loc < 0 && !strings.HasSuffix(mapped, "]") {
		loc = gl.GetUniformLocation(p.id, gl.Str(mapped+"[0]\x00"))
	}
	p.locations[name] = loc
	return loc
}

// apply binds the program and uploads every stored uniform. Textures are
// bound to consecutive units.
func (p *Program) apply() {
	gl.UseProgram(p.id)
	p.units = p.units[:0]
	for name, value := range p.uniforms {
		if value == nil {
			continue
		}
		loc := p.GetUniformLocation(name)
		if loc < 0 {
			continue
		}
		switch v := value.(type) {
		case float32:
			gl.Uniform1f(loc, v)
		case float64:
			gl.Uniform1f(loc, float32(v))
		case int:
			gl.Uniform1i(loc, int32(v))
		case int32:
			gl.Uniform1i(loc, v)
		case bool:
			var i int32
			if v {
				i = 1
			}
			gl.Uniform1i(loc, i)
		case [2]float32:
			gl.Uniform2f(loc, v[0], v[1])
		case [3]float32:
			gl.Uniform3f(loc, v[0], v[1], v[2])
		case [4]float32:
			gl.Uniform4f(loc, v[0], v[1], v[2], v[3])
		case graphics.Color:
			gl.Uniform4f(loc, v[0], v[1], v[2], v[3])
		case []float32:
			if len(v) > 0 {
				gl.Uniform1fv(loc, int32(len(v)), &v[0])
			}
		case *Texture:
			if v == nil {
				continue
			}
			unit := uint32(len(p.units))
			gl.ActiveTexture(gl.TEXTURE0 + unit)
			gl.BindTexture(gl.TEXTURE_2D, v.id)
			gl.Uniform1i(loc, int32(unit))
			p.units = append(p.units, unit)
		default:
			if !p.warned[name] {
				log.Printf("Warning: unsupported value %T for uniform %q", value, name)
				p.warned[name] = true
			}
		}
	}
}

func (p *Program) unbind() {
	for _, unit := range p.units {
		gl.ActiveTexture(gl.TEXTURE0 + unit)
		gl.BindTexture(gl.TEXTURE_2D, 0)
	}
	gl.ActiveTexture(gl.TEXTURE0)
}

func newProgram(vertexShaderSource, fragmentShaderSource string) (uint32, error) {
	vertexShader, err := compileShader(vertexShaderSource, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fragmentShader, err := compileShader(fragmentShaderSource, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vertexShader)
		return 0, err
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)
	gl.DeleteShader(vertexShader)
	gl.DeleteShader(fragmentShader)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(logText))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("failed to link program: %v", logText)
	}
	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(logText))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("failed to compile shader: %v", logText)
	}
	return shader, nil
}
