// Package scene provides fullscreen shader scenes that feed a composer.
//
// A scene source defines a Shadertoy style entry point
//
//	void mainImage(out vec4 fragColor, in vec2 fragCoord)
//
// and may define
//
//	float mainDepth(in vec2 fragCoord)
//
// to write the depth buffer. The uniforms iResolution, iTime, iTimeDelta,
// iFrame and iMouse are provided.
package scene

import (
	"fmt"
	"log"
	"os"
	"slices"

	"github.com/richinsley/goshaderfx/glsl"
	"github.com/richinsley/goshaderfx/graphics"
	"github.com/richinsley/goshaderfx/shader"
)

// Camera is a fixed projection.
type Camera struct {
	NearPlane    float32
	FarPlane     float32
	Orthographic bool
}

// DefaultCamera returns a perspective camera with a 0.1 to 100 depth range.
func DefaultCamera() *Camera {
	return &Camera{NearPlane: 0.1, FarPlane: 100}
}

func (c *Camera) Near() float32     { return c.NearPlane }
func (c *Camera) Far() float32      { return c.FarPlane }
func (c *Camera) Perspective() bool { return !c.Orthographic }

const fragmentPrologue = `precision highp float;
precision highp int;

uniform vec3 iResolution;
uniform float iTime;
uniform float iTimeDelta;
uniform int iFrame;
uniform vec4 iMouse;

out vec4 fragColor;

`

const fragmentEpilogue = `

void main() {
	mainImage(fragColor, gl_FragCoord.xy);
#ifdef WRITE_DEPTH
	gl_FragDepth = clamp(mainDepth(gl_FragCoord.xy), 0.0, 1.0);
#endif
}
`

// ShaderScene draws one fragment shader over the whole render target.
type ShaderScene struct {
	name    string
	source  string
	depth   bool
	program graphics.Program
	failed  bool
	time    float32
	delta   float32
	frame   int32
	mouse   [4]float32
}

// New checks source for the entry points and returns a scene.
func New(name, source string) (*ShaderScene, error) {
	fns := glsl.Functions(glsl.Tokenize(source))
	if !slices.Contains(fns, "mainImage") {
		return nil, fmt.Errorf("scene %q: missing mainImage", name)
	}
	return &ShaderScene{
		name:   name,
		source: source,
		depth:  slices.Contains(fns, "mainDepth"),
	}, nil
}

// Load reads a scene source from a file.
func Load(name, path string) (*ShaderScene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene %q: %w", name, err)
	}
	return New(name, string(data))
}

func (s *ShaderScene) Name() string          { return s.name }
func (s *ShaderScene) WritesDepth() bool     { return s.depth }
func (s *ShaderScene) Time() float32         { return s.time }
func (s *ShaderScene) Frame() int32          { return s.frame }
func (s *ShaderScene) SetMouse(m [4]float32) { s.mouse = m }

// FragmentShader returns the complete fragment shader.
func (s *ShaderScene) FragmentShader() string {
	var defines []shader.Define
	if s.depth {
		defines = append(defines, shader.Define{Name: "WRITE_DEPTH", Value: "1"})
	}
	return shader.Header(nil, defines) + fragmentPrologue + s.source + fragmentEpilogue
}

// Advance moves the scene clock forward by one frame.
func (s *ShaderScene) Advance(deltaTime float32) {
	s.time += deltaTime
	s.delta = deltaTime
	s.frame++
}

// Draw renders the scene into the current render target. A program that
// fails to compile is reported once and the scene draws nothing.
func (s *ShaderScene) Draw(r graphics.Renderer, _ graphics.Camera) {
	if s.program == nil {
		if s.failed {
			return
		}
		p, err := r.NewProgram(shader.GenerateVertexShader(), s.FragmentShader())
		if err != nil {
			log.Printf("Error compiling scene %q: %v", s.name, err)
			s.failed = true
			return
		}
		s.program = p
	}

	w, h := r.DrawingBufferSize()
	if t := r.RenderTarget(); t != nil {
		w, h = t.Width(), t.Height()
	}
	s.program.SetUniform("iResolution", [3]float32{float32(w), float32(h), 1})
	s.program.SetUniform("iTime", s.time)
	s.program.SetUniform("iTimeDelta", s.delta)
	s.program.SetUniform("iFrame", s.frame)
	s.program.SetUniform("iMouse", s.mouse)
	r.DrawFullscreen(s.program)
}

func (s *ShaderScene) Dispose() {
	if s.program != nil {
		s.program.Dispose()
		s.program = nil
	}
	s.failed = false
}
