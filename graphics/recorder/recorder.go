// Package recorder implements graphics.Renderer without a GPU. Every call
// is appended to a log so that pass scheduling and generated programs can
// be inspected in tests and dry runs.
package recorder

import (
	"fmt"

	"github.com/richinsley/goshaderfx/graphics"
)

// Op names a recorded renderer call.
type Op string

const (
	OpSetTarget Op = "set-target"
	OpRender    Op = "render"
	OpClear     Op = "clear"
	OpDraw      Op = "draw"
)

// Call is one recorded renderer call.
type Call struct {
	Op Op
	// Target is the render target bound when the call was made; nil means the screen.
	Target  *Target
	Program *Program
	// Input is the texture bound to the "inputBuffer" uniform at draw time.
	Input     graphics.Texture
	Stencil   graphics.StencilState
	ColorMask bool
	// Buffers holds the color, depth and stencil flags of a clear.
	Buffers [3]bool
}

// Texture is a recorded texture.
type Texture struct {
	ID       int
	W, H     int
	Depth    bool
	Format   graphics.DepthFormat
	Disposed int
}

func (t *Texture) Width() int  { return t.W }
func (t *Texture) Height() int { return t.H }
func (t *Texture) Dispose()    { t.Disposed++ }

func (t *Texture) String() string {
	if t.Depth {
		return fmt.Sprintf("depth-texture#%d", t.ID)
	}
	return fmt.Sprintf("texture#%d", t.ID)
}

// Target is a recorded render target.
type Target struct {
	ID       int
	W, H     int
	Options  graphics.TargetOptions
	Color    *Texture
	depth    graphics.Texture
	Disposed int
	Resizes  int
}

func (t *Target) Width() int                         { return t.W }
func (t *Target) Height() int                        { return t.H }
func (t *Target) Texture() graphics.Texture          { return t.Color }
func (t *Target) DepthBuffer() bool                  { return t.Options.DepthBuffer }
func (t *Target) StencilBuffer() bool                { return t.Options.StencilBuffer }
func (t *Target) DepthTexture() graphics.Texture     { return t.depth }
func (t *Target) SetDepthTexture(d graphics.Texture) { t.depth = d }
func (t *Target) Dispose()                           { t.Disposed++ }

func (t *Target) SetSize(width, height int) {
	t.W, t.H = width, height
	t.Color.W, t.Color.H = width, height
	if d, ok := t.depth.(*Texture); ok {
		d.W, d.H = width, height
	}
	t.Resizes++
}

func (t *Target) String() string { return fmt.Sprintf("target#%d", t.ID) }

// Program is a recorded shader program.
type Program struct {
	ID       int
	Vertex   string
	Fragment string
	Uniforms map[string]any
	Disposed int
}

func (p *Program) SetUniform(name string, value any) { p.Uniforms[name] = value }
func (p *Program) Dispose()                          { p.Disposed++ }

// Renderer records calls instead of drawing.
type Renderer struct {
	Caps graphics.Capabilities
	// ProgramError, when set, is returned by NewProgram.
	ProgramError error

	Calls    []Call
	Targets  []*Target
	Textures []*Texture
	Programs []*Program

	width, height int
	target        *Target
	stencil       graphics.StencilState
	clearColor    graphics.Color
	colorMask     bool
	depthMask     bool
	nextID        int
}

// New returns a recorder with a drawing buffer of the given size and
// generous capabilities.
func New(width, height int) *Renderer {
	return &Renderer{
		Caps: graphics.Capabilities{
			MaxFragmentUniforms: 1024,
			MaxVertexUniforms:   1024,
			MaxVaryings:         16,
			Alpha:               true,
		},
		width:     width,
		height:    height,
		stencil:   graphics.DefaultStencil(),
		colorMask: true,
		depthMask: true,
	}
}

func (r *Renderer) id() int {
	r.nextID++
	return r.nextID
}

func (r *Renderer) record(c Call) {
	c.Target = r.target
	c.Stencil = r.stencil
	c.ColorMask = r.colorMask
	r.Calls = append(r.Calls, c)
}

// Filter returns the recorded calls with the given op.
func (r *Renderer) Filter(op Op) []Call {
	var res []Call
	for _, c := range r.Calls {
		if c.Op == op {
			res = append(res, c)
		}
	}
	return res
}

// ResetCalls clears the call log.
func (r *Renderer) ResetCalls() { r.Calls = nil }

func (r *Renderer) SetRenderTarget(target graphics.RenderTarget) {
	t, _ := target.(*Target)
	r.target = t
	r.record(Call{Op: OpSetTarget})
}

func (r *Renderer) RenderTarget() graphics.RenderTarget {
	if r.target == nil {
		return nil
	}
	return r.target
}

func (r *Renderer) Render(scene graphics.Scene, camera graphics.Camera) {
	r.record(Call{Op: OpRender})
	if scene != nil {
		scene.Draw(r, camera)
	}
}

func (r *Renderer) Clear(color, depth, stencil bool) {
	r.record(Call{Op: OpClear, Buffers: [3]bool{color, depth, stencil}})
}

func (r *Renderer) ClearColor() graphics.Color     { return r.clearColor }
func (r *Renderer) SetClearColor(c graphics.Color) { r.clearColor = c }

func (r *Renderer) DrawingBufferSize() (int, int) { return r.width, r.height }
func (r *Renderer) SetSize(width, height int)     { r.width, r.height = width, height }

func (r *Renderer) Capabilities() graphics.Capabilities { return r.Caps }

func (r *Renderer) Stencil() graphics.StencilState     { return r.stencil }
func (r *Renderer) SetStencil(s graphics.StencilState) { r.stencil = s }
func (r *Renderer) SetColorMask(enabled bool)          { r.colorMask = enabled }
func (r *Renderer) SetDepthMask(enabled bool)          { r.depthMask = enabled }

// ColorMask reports the current color write mask.
func (r *Renderer) ColorMask() bool { return r.colorMask }

// DepthMask reports the current depth write mask.
func (r *Renderer) DepthMask() bool { return r.depthMask }

func (r *Renderer) NewRenderTarget(width, height int, opts graphics.TargetOptions) (graphics.RenderTarget, error) {
	color := &Texture{ID: r.id(), W: width, H: height}
	r.Textures = append(r.Textures, color)
	t := &Target{ID: r.id(), W: width, H: height, Options: opts, Color: color}
	r.Targets = append(r.Targets, t)
	return t, nil
}

func (r *Renderer) NewDepthTexture(width, height int, format graphics.DepthFormat) (graphics.Texture, error) {
	t := &Texture{ID: r.id(), W: width, H: height, Depth: true, Format: format}
	r.Textures = append(r.Textures, t)
	return t, nil
}

func (r *Renderer) NewProgram(vertex, fragment string) (graphics.Program, error) {
	if r.ProgramError != nil {
		return nil, r.ProgramError
	}
	p := &Program{ID: r.id(), Vertex: vertex, Fragment: fragment, Uniforms: make(map[string]any)}
	r.Programs = append(r.Programs, p)
	return p, nil
}

func (r *Renderer) DrawFullscreen(program graphics.Program) {
	p, _ := program.(*Program)
	c := Call{Op: OpDraw, Program: p}
	if p != nil {
		if tex, ok := p.Uniforms["inputBuffer"].(graphics.Texture); ok {
			c.Input = tex
		}
	}
	r.record(c)
}
