// Package renderer implements graphics.Renderer on top of OpenGL 4.1 core.
// All methods must be called from the thread the context is current on.
package renderer

import (
	"fmt"
	"log"
	"sync"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"github.com/richinsley/goshaderfx/graphics"
)

var glInitOnce sync.Once

// Renderer draws into the framebuffers of a graphics.Context.
type Renderer struct {
	context graphics.Context
	caps    graphics.Capabilities

	width, height int
	target        *Target
	stencil       graphics.StencilState
	clearColor    graphics.Color
	colorMask     bool
	depthMask     bool
}

// NewRenderer makes ctx current, loads the OpenGL bindings and prepares the
// shared fullscreen geometry.
func NewRenderer(ctx graphics.Context) (*Renderer, error) {
	ctx.MakeCurrent()

	var initErr error
	glInitOnce.Do(func() {
		initErr = gl.Init()
	})
	if initErr != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", initErr)
	}
	log.Printf("OpenGL version: %s", gl.GoStr(gl.GetString(gl.VERSION)))

	if err := triangle.acquire(); err != nil {
		return nil, err
	}

	w, h := ctx.GetFramebufferSize()
	r := &Renderer{
		context:   ctx,
		caps:      queryCapabilities(),
		width:     w,
		height:    h,
		stencil:   graphics.DefaultStencil(),
		colorMask: true,
		depthMask: true,
	}
	r.SetStencil(r.stencil)
	return r, nil
}

func queryCapabilities() graphics.Capabilities {
	var frag, vert, varyings, alpha int32
	gl.GetIntegerv(gl.MAX_FRAGMENT_UNIFORM_VECTORS, &frag)
	gl.GetIntegerv(gl.MAX_VERTEX_UNIFORM_VECTORS, &vert)
	gl.GetIntegerv(gl.MAX_VARYING_VECTORS, &varyings)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.GetFramebufferAttachmentParameteriv(gl.FRAMEBUFFER, gl.BACK_LEFT, gl.FRAMEBUFFER_ATTACHMENT_ALPHA_SIZE, &alpha)
	return graphics.Capabilities{
		MaxFragmentUniforms: int(frag),
		MaxVertexUniforms:   int(vert),
		MaxVaryings:         int(varyings),
		Alpha:               alpha > 0,
	}
}

// Context returns the context the renderer draws into.
func (r *Renderer) Context() graphics.Context { return r.context }

// Shutdown releases the shared geometry. Targets and programs are owned by
// their creators.
func (r *Renderer) Shutdown() {
	triangle.release()
}

func (r *Renderer) SetRenderTarget(target graphics.RenderTarget) {
	t, _ := target.(*Target)
	r.target = t
	if t == nil {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		gl.Viewport(0, 0, int32(r.width), int32(r.height))
		return
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	gl.Viewport(0, 0, int32(t.width), int32(t.height))
}

func (r *Renderer) RenderTarget() graphics.RenderTarget {
	if r.target == nil {
		return nil
	}
	return r.target
}

func (r *Renderer) Render(scene graphics.Scene, camera graphics.Camera) {
	if scene != nil {
		scene.Draw(r, camera)
	}
}

func (r *Renderer) Clear(color, depth, stencil bool) {
	var mask uint32
	if color {
		mask |= gl.COLOR_BUFFER_BIT
	}
	if depth {
		mask |= gl.DEPTH_BUFFER_BIT
	}
	if stencil {
		mask |= gl.STENCIL_BUFFER_BIT
	}
	if mask != 0 {
		gl.Clear(mask)
	}
}

func (r *Renderer) ClearColor() graphics.Color { return r.clearColor }

func (r *Renderer) SetClearColor(c graphics.Color) {
	r.clearColor = c
	gl.ClearColor(c[0], c[1], c[2], c[3])
}

func (r *Renderer) DrawingBufferSize() (int, int)       { return r.width, r.height }
func (r *Renderer) Capabilities() graphics.Capabilities { return r.caps }

// SetSize sets the size of the default framebuffer. Windowed hosts call it
// with the framebuffer size after a resize.
func (r *Renderer) SetSize(width, height int) {
	r.width, r.height = width, height
	if r.target == nil {
		gl.Viewport(0, 0, int32(width), int32(height))
	}
}

func (r *Renderer) Stencil() graphics.StencilState { return r.stencil }

func (r *Renderer) SetStencil(s graphics.StencilState) {
	r.stencil = s
	if s.Test {
		gl.Enable(gl.STENCIL_TEST)
	} else {
		gl.Disable(gl.STENCIL_TEST)
	}
	gl.StencilFunc(compareFuncs[s.Func], int32(s.Ref), s.Mask)
	gl.StencilOp(stencilOps[s.Fail], stencilOps[s.ZFail], stencilOps[s.ZPass])
	gl.ClearStencil(int32(s.Clear))
}

func (r *Renderer) SetColorMask(enabled bool) {
	r.colorMask = enabled
	gl.ColorMask(enabled, enabled, enabled, enabled)
}

func (r *Renderer) SetDepthMask(enabled bool) {
	r.depthMask = enabled
	gl.DepthMask(enabled)
}

// DrawFullscreen draws the shared triangle with program. Depth testing is
// only enabled for programs that write gl_FragDepth, so post-processing
// passes leave an attached depth texture untouched.
func (r *Renderer) DrawFullscreen(program graphics.Program) {
	p, ok := program.(*Program)
	if !ok || p.id == 0 {
		return
	}
	if p.writesDepth {
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthFunc(gl.ALWAYS)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
	p.apply()
	triangle.draw()
	p.unbind()
	gl.Disable(gl.DEPTH_TEST)
}

// ReadPixels reads the color attachment of target, or of the default
// framebuffer when target is nil, as tightly packed RGBA8 rows starting at
// the bottom.
func (r *Renderer) ReadPixels(target graphics.RenderTarget, dst []byte) (int, int, error) {
	w, h := r.width, r.height
	fbo := uint32(0)
	if t, ok := target.(*Target); ok && t != nil {
		w, h, fbo = t.width, t.height, t.fbo
	}
	if len(dst) < w*h*4 {
		return 0, 0, fmt.Errorf("pixel buffer too small: need %d bytes, got %d", w*h*4, len(dst))
	}
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, fbo)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(&dst[0]))
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	return w, h, nil
}

var compareFuncs = map[graphics.CompareFunc]uint32{
	graphics.Always:       gl.ALWAYS,
	graphics.Never:        gl.NEVER,
	graphics.Equal:        gl.EQUAL,
	graphics.NotEqual:     gl.NOTEQUAL,
	graphics.Less:         gl.LESS,
	graphics.LessEqual:    gl.LEQUAL,
	graphics.Greater:      gl.GREATER,
	graphics.GreaterEqual: gl.GEQUAL,
}

var stencilOps = map[graphics.StencilOp]uint32{
	graphics.Keep:      gl.KEEP,
	graphics.Zero:      gl.ZERO,
	graphics.Replace:   gl.REPLACE,
	graphics.Increment: gl.INCR,
	graphics.Decrement: gl.DECR,
	graphics.Invert:    gl.INVERT,
}
