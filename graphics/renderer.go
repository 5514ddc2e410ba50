package graphics

// Disposable is implemented by every resource that owns GPU memory.
type Disposable interface {
	Dispose()
}

// Color is a linear RGBA color.
type Color [4]float32

// Capabilities reports the limits of the rendering context that matter
// when several effects are merged into one program.
type Capabilities struct {
	MaxFragmentUniforms int
	MaxVertexUniforms   int
	MaxVaryings         int
	// Alpha reports whether the default framebuffer carries an alpha channel.
	Alpha bool
}

// DepthPacking describes how depth values are stored in a depth texture.
type DepthPacking int

const (
	BasicDepthPacking DepthPacking = 3200
	RGBADepthPacking  DepthPacking = 3201
)

// DepthFormat selects the pixel format of a depth texture.
type DepthFormat int

const (
	// DepthComponent is a 24-bit unsigned depth texture.
	DepthComponent DepthFormat = iota
	// DepthStencil packs 24 bits of depth and 8 bits of stencil.
	DepthStencil
)

func (f DepthFormat) String() string {
	if f == DepthStencil {
		return "depth-stencil"
	}
	return "depth"
}

// Texture is a sampled GPU image.
type Texture interface {
	Disposable
	Width() int
	Height() int
}

// TargetOptions configures a new render target.
type TargetOptions struct {
	DepthBuffer   bool
	StencilBuffer bool
	// HighPrecision selects a half float color format instead of RGBA8.
	HighPrecision bool
}

// RenderTarget is an off-screen framebuffer with a color texture and
// optional depth and stencil attachments.
type RenderTarget interface {
	Disposable
	Width() int
	Height() int
	SetSize(width, height int)
	Texture() Texture
	DepthBuffer() bool
	StencilBuffer() bool
	// DepthTexture returns the depth texture attached to this target, if any.
	DepthTexture() Texture
	// SetDepthTexture attaches t as the depth attachment. Passing nil
	// restores the internal depth buffer.
	SetDepthTexture(t Texture)
}

// Program is a linked shader program. Uniform values are stored and
// applied on the next draw.
type Program interface {
	Disposable
	SetUniform(name string, value any)
}

// Camera exposes the projection settings that effects may need.
type Camera interface {
	Near() float32
	Far() float32
	Perspective() bool
}

// Scene is anything the host can draw with a camera.
type Scene interface {
	Draw(r Renderer, camera Camera)
}

// CompareFunc is a stencil comparison function.
type CompareFunc int

const (
	Always CompareFunc = iota
	Never
	Equal
	NotEqual
	Less
	LessEqual
	Greater
	GreaterEqual
)

// StencilOp is a stencil buffer update operation.
type StencilOp int

const (
	Keep StencilOp = iota
	Zero
	Replace
	Increment
	Decrement
	Invert
)

// StencilState is the complete stencil configuration of a renderer.
type StencilState struct {
	Test  bool
	Func  CompareFunc
	Ref   int
	Mask  uint32
	Fail  StencilOp
	ZFail StencilOp
	ZPass StencilOp
	Clear int
}

// DefaultStencil returns a disabled stencil test with pass-through operations.
func DefaultStencil() StencilState {
	return StencilState{Func: Always, Mask: 0xffffffff}
}

// Renderer is the host rendering context the post-processing core draws with.
type Renderer interface {
	// SetRenderTarget selects the framebuffer for subsequent draws.
	// A nil target selects the screen.
	SetRenderTarget(target RenderTarget)
	RenderTarget() RenderTarget
	Render(scene Scene, camera Camera)
	Clear(color, depth, stencil bool)
	ClearColor() Color
	SetClearColor(c Color)
	DrawingBufferSize() (int, int)
	SetSize(width, height int)
	Capabilities() Capabilities

	Stencil() StencilState
	SetStencil(s StencilState)
	SetColorMask(enabled bool)
	SetDepthMask(enabled bool)

	NewRenderTarget(width, height int, opts TargetOptions) (RenderTarget, error)
	NewDepthTexture(width, height int, format DepthFormat) (Texture, error)
	NewProgram(vertex, fragment string) (Program, error)
	// DrawFullscreen draws a screen-covering triangle with program into
	// the current render target.
	DrawFullscreen(program Program)
}
