package renderer

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"github.com/richinsley/goshaderfx/graphics"
)

// Texture is a 2D color or depth texture.
type Texture struct {
	id     uint32
	width  int
	height int
	depth  bool
	format graphics.DepthFormat
	high   bool
}

func (t *Texture) ID() uint32  { return t.id }
func (t *Texture) Width() int  { return t.width }
func (t *Texture) Height() int { return t.height }

func (t *Texture) Dispose() {
	if t.id != 0 {
		gl.DeleteTextures(1, &t.id)
		t.id = 0
	}
}

func (t *Texture) formats() (internal int32, format, xtype uint32) {
	switch {
	case t.depth && t.format == graphics.DepthStencil:
		return gl.DEPTH24_STENCIL8, gl.DEPTH_STENCIL, gl.UNSIGNED_INT_24_8
	case t.depth:
		return gl.DEPTH_COMPONENT24, gl.DEPTH_COMPONENT, gl.UNSIGNED_INT
	case t.high:
		return gl.RGBA16F, gl.RGBA, gl.HALF_FLOAT
	default:
		return gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE
	}
}

func (t *Texture) allocate(width, height int) {
	t.width, t.height = width, height
	internal, format, xtype := t.formats()
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, int32(width), int32(height), 0, format, xtype, nil)
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

func newTexture(width, height int, depth, high bool, format graphics.DepthFormat) *Texture {
	t := &Texture{depth: depth, high: high, format: format}
	filter := int32(gl.LINEAR)
	if depth {
		filter = gl.NEAREST
	}
	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	t.allocate(width, height)
	return t
}

// Target is a framebuffer with a color texture and an optional depth or
// depth-stencil renderbuffer. An attached depth texture replaces the
// renderbuffer until it is detached.
type Target struct {
	fbo          uint32
	color        *Texture
	renderbuffer uint32
	depthTexture *Texture
	opts         graphics.TargetOptions
	width        int
	height       int
}

func (r *Renderer) NewRenderTarget(width, height int, opts graphics.TargetOptions) (graphics.RenderTarget, error) {
	t := &Target{
		color:  newTexture(width, height, false, opts.HighPrecision, graphics.DepthComponent),
		opts:   opts,
		width:  width,
		height: height,
	}
	gl.GenFramebuffers(1, &t.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, t.color.id, 0)

	if opts.DepthBuffer || opts.StencilBuffer {
		gl.GenRenderbuffers(1, &t.renderbuffer)
		t.allocateRenderbuffer()
		gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, t.attachment(), gl.RENDERBUFFER, t.renderbuffer)
	}

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		t.Dispose()
		return nil, fmt.Errorf("render target is not complete: 0x%x", status)
	}
	r.rebind()
	return t, nil
}

func (r *Renderer) NewDepthTexture(width, height int, format graphics.DepthFormat) (graphics.Texture, error) {
	t := newTexture(width, height, true, false, format)
	if t.id == 0 {
		return nil, fmt.Errorf("failed to create %s texture", format)
	}
	return t, nil
}

// rebind restores the framebuffer of the current target after a resource
// was created.
func (r *Renderer) rebind() {
	if r.target != nil {
		gl.BindFramebuffer(gl.FRAMEBUFFER, r.target.fbo)
	}
}

func (t *Target) attachment() uint32 {
	if t.opts.StencilBuffer {
		return gl.DEPTH_STENCIL_ATTACHMENT
	}
	return gl.DEPTH_ATTACHMENT
}

func (t *Target) allocateRenderbuffer() {
	format := uint32(gl.DEPTH_COMPONENT24)
	if t.opts.StencilBuffer {
		format = gl.DEPTH24_STENCIL8
	}
	gl.BindRenderbuffer(gl.RENDERBUFFER, t.renderbuffer)
	gl.RenderbufferStorage(gl.RENDERBUFFER, format, int32(t.width), int32(t.height))
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)
}

func (t *Target) Width() int                      { return t.width }
func (t *Target) Height() int                     { return t.height }
func (t *Target) Texture() graphics.Texture       { return t.color }
func (t *Target) DepthBuffer() bool               { return t.opts.DepthBuffer }
func (t *Target) StencilBuffer() bool             { return t.opts.StencilBuffer }
func (t *Target) FramebufferID() uint32           { return t.fbo }
func (t *Target) Options() graphics.TargetOptions { return t.opts }

func (t *Target) DepthTexture() graphics.Texture {
	if t.depthTexture == nil {
		return nil
	}
	return t.depthTexture
}

func (t *Target) SetDepthTexture(d graphics.Texture) {
	tex, _ := d.(*Texture)
	var previous int32
	gl.GetIntegerv(gl.FRAMEBUFFER_BINDING, &previous)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)

	if tex == nil {
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_STENCIL_ATTACHMENT, gl.TEXTURE_2D, 0, 0)
		if t.renderbuffer != 0 {
			gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, t.attachment(), gl.RENDERBUFFER, t.renderbuffer)
		}
	} else {
		attachment := uint32(gl.DEPTH_ATTACHMENT)
		if tex.format == graphics.DepthStencil {
			attachment = gl.DEPTH_STENCIL_ATTACHMENT
		}
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, attachment, gl.TEXTURE_2D, tex.id, 0)
	}
	t.depthTexture = tex

	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(previous))
}

// SetSize reallocates every attachment, including an attached depth
// texture.
func (t *Target) SetSize(width, height int) {
	if width == t.width && height == t.height {
		return
	}
	t.width, t.height = width, height
	t.color.allocate(width, height)
	if t.renderbuffer != 0 {
		t.allocateRenderbuffer()
	}
	if t.depthTexture != nil {
		t.depthTexture.allocate(width, height)
	}
}

// Dispose deletes the framebuffer, its color texture and renderbuffer. An
// attached depth texture belongs to its creator and is left alone.
func (t *Target) Dispose() {
	if t.fbo != 0 {
		gl.DeleteFramebuffers(1, &t.fbo)
		t.fbo = 0
	}
	if t.renderbuffer != 0 {
		gl.DeleteRenderbuffers(1, &t.renderbuffer)
		t.renderbuffer = 0
	}
	t.color.Dispose()
}
