package postfx

import (
	"fmt"
	"slices"

	"github.com/richinsley/goshaderfx/graphics"
)

// ComposerOptions configures the ping-pong buffers of an EffectComposer.
type ComposerOptions struct {
	DepthBuffer   bool
	StencilBuffer bool
	HighPrecision bool
	// AutoRenderToScreen makes the last pass draw to the screen. It turns
	// itself off when a pass that already renders to screen is added.
	AutoRenderToScreen bool
}

// DefaultComposerOptions returns buffers with a depth buffer and no stencil.
func DefaultComposerOptions() ComposerOptions {
	return ComposerOptions{
		DepthBuffer:        true,
		AutoRenderToScreen: true,
	}
}

// EffectComposer runs an ordered list of passes over a pair of render
// targets whose roles are swapped whenever a pass asks for it.
type EffectComposer struct {
	renderer graphics.Renderer
	opts     ComposerOptions

	inputBuffer  graphics.RenderTarget
	outputBuffer graphics.RenderTarget
	depthTexture graphics.Texture

	passes   []Pass
	copyPass *ShaderPass

	autoRenderToScreen bool
}

// NewEffectComposer creates the buffer pair at the drawing buffer size of r.
func NewEffectComposer(r graphics.Renderer, opts ComposerOptions) (*EffectComposer, error) {
	c := &EffectComposer{
		renderer:           r,
		opts:               opts,
		autoRenderToScreen: opts.AutoRenderToScreen,
	}
	input, output, err := c.createBuffers()
	if err != nil {
		return nil, err
	}
	c.inputBuffer, c.outputBuffer = input, output
	c.copyPass = NewCopyPass()
	return c, nil
}

func (c *EffectComposer) createBuffers() (graphics.RenderTarget, graphics.RenderTarget, error) {
	w, h := c.renderer.DrawingBufferSize()
	opts := graphics.TargetOptions{
		DepthBuffer:   c.opts.DepthBuffer,
		StencilBuffer: c.opts.StencilBuffer,
		HighPrecision: c.opts.HighPrecision,
	}
	input, err := c.renderer.NewRenderTarget(w, h, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create input buffer: %w", err)
	}
	output, err := c.renderer.NewRenderTarget(w, h, opts)
	if err != nil {
		input.Dispose()
		return nil, nil, fmt.Errorf("failed to create output buffer: %w", err)
	}
	return input, output, nil
}

func (c *EffectComposer) Renderer() graphics.Renderer         { return c.renderer }
func (c *EffectComposer) InputBuffer() graphics.RenderTarget  { return c.inputBuffer }
func (c *EffectComposer) OutputBuffer() graphics.RenderTarget { return c.outputBuffer }
func (c *EffectComposer) DepthTexture() graphics.Texture      { return c.depthTexture }
func (c *EffectComposer) Passes() []Pass                      { return slices.Clone(c.passes) }
func (c *EffectComposer) AutoRenderToScreen() bool            { return c.autoRenderToScreen }
func (c *EffectComposer) SetAutoRenderToScreen(enabled bool)  { c.autoRenderToScreen = enabled }

// createDepthTexture attaches a new depth texture to the input buffer.
func (c *EffectComposer) createDepthTexture() (graphics.Texture, error) {
	format := graphics.DepthComponent
	if c.opts.StencilBuffer {
		format = graphics.DepthStencil
	}
	w, h := c.inputBuffer.Width(), c.inputBuffer.Height()
	t, err := c.renderer.NewDepthTexture(w, h, format)
	if err != nil {
		return nil, fmt.Errorf("failed to create depth texture: %w", err)
	}
	c.inputBuffer.SetDepthTexture(t)
	c.depthTexture = t
	Logger().Debug("created depth texture", "width", w, "height", h, "format", format)
	return t, nil
}

func (c *EffectComposer) deleteDepthTexture() {
	if c.depthTexture == nil {
		return
	}
	c.depthTexture.Dispose()
	c.depthTexture = nil
	if c.inputBuffer != nil {
		c.inputBuffer.SetDepthTexture(nil)
	}
	for _, p := range c.passes {
		p.SetDepthTexture(nil, graphics.BasicDepthPacking)
	}
	Logger().Debug("deleted depth texture")
}

// AddPass sizes and initializes pass and inserts it at index, or appends
// it when no valid index is given. The shared depth texture is created on
// demand and handed to every pass.
func (c *EffectComposer) AddPass(pass Pass, index ...int) error {
	w, h := c.renderer.DrawingBufferSize()
	pass.SetSize(w, h)
	pass.Initialize(c.renderer, c.renderer.Capabilities().Alpha)

	if c.autoRenderToScreen {
		if n := len(c.passes); n > 0 {
			c.passes[n-1].SetRenderToScreen(false)
		}
		if pass.RenderToScreen() {
			c.autoRenderToScreen = false
		}
	}

	if len(index) > 0 && index[0] >= 0 && index[0] <= len(c.passes) {
		c.passes = slices.Insert(c.passes, index[0], pass)
	} else {
		c.passes = append(c.passes, pass)
	}

	if c.autoRenderToScreen {
		c.passes[len(c.passes)-1].SetRenderToScreen(true)
	}

	switch {
	case c.depthTexture != nil:
		pass.SetDepthTexture(c.depthTexture, graphics.BasicDepthPacking)
	case slices.ContainsFunc(c.passes, Pass.NeedsDepthTexture):
		t, err := c.createDepthTexture()
		if err != nil {
			return err
		}
		for _, p := range c.passes {
			p.SetDepthTexture(t, graphics.BasicDepthPacking)
		}
	}
	return nil
}

// RemovePass removes pass from the pipeline without disposing it. The
// shared depth texture is disposed once no remaining pass needs it.
// Removing a pass that was never added does nothing.
func (c *EffectComposer) RemovePass(pass Pass) {
	i := slices.Index(c.passes, pass)
	if i < 0 {
		return
	}
	c.passes = slices.Delete(c.passes, i, i+1)

	if c.depthTexture != nil && !slices.ContainsFunc(c.passes, Pass.NeedsDepthTexture) {
		pass.SetDepthTexture(nil, graphics.BasicDepthPacking)
		c.deleteDepthTexture()
	}

	if c.autoRenderToScreen && i == len(c.passes) {
		pass.SetRenderToScreen(false)
		if n := len(c.passes); n > 0 {
			c.passes[n-1].SetRenderToScreen(true)
		}
	}
}

// RemoveAllPasses removes every pass without disposing them.
func (c *EffectComposer) RemoveAllPasses() {
	for len(c.passes) > 0 {
		c.RemovePass(c.passes[len(c.passes)-1])
	}
}

// Render runs every enabled pass once. Every frame starts from the same
// input buffer, the one the depth texture is attached to.
func (c *EffectComposer) Render(deltaTime float32) {
	r := c.renderer
	input, output := c.inputBuffer, c.outputBuffer
	stencilTest := false

	for _, pass := range c.passes {
		if !pass.Enabled() {
			continue
		}
		pass.Render(r, input, output, deltaTime, stencilTest)

		if pass.NeedsSwap() {
			if stencilTest {
				// keep the pixels outside of the mask
				s := r.Stencil()
				s.Func, s.Ref, s.Mask = graphics.NotEqual, 1, 0xffffffff
				r.SetStencil(s)
				c.copyPass.SetRenderToScreen(pass.RenderToScreen())
				c.copyPass.Render(r, input, output, deltaTime, stencilTest)
				s.Func = graphics.Equal
				r.SetStencil(s)
			}
			input, output = output, input
		}

		if t, ok := pass.(StencilToggler); ok {
			stencilTest = t.StencilTest()
		}
	}
}

// SetSize resizes the drawing buffer, both buffers and every pass.
func (c *EffectComposer) SetSize(width, height int) {
	c.renderer.SetSize(width, height)
	w, h := c.renderer.DrawingBufferSize()
	if c.inputBuffer != nil {
		c.inputBuffer.SetSize(w, h)
		c.outputBuffer.SetSize(w, h)
	}
	for _, p := range c.passes {
		p.SetSize(w, h)
	}
}

// Reset disposes every pass and all buffers and creates a fresh buffer
// pair. Passes have to be added again.
func (c *EffectComposer) Reset() error {
	input, output, err := c.createBuffers()
	if err != nil {
		return err
	}
	auto := c.autoRenderToScreen
	c.Dispose()
	c.autoRenderToScreen = auto
	c.inputBuffer, c.outputBuffer = input, output
	c.copyPass = NewCopyPass()
	return nil
}

// Dispose releases every pass, both buffers, the depth texture and the
// internal copy pass.
func (c *EffectComposer) Dispose() {
	for _, p := range c.passes {
		p.Dispose()
	}
	c.passes = nil

	if c.depthTexture != nil {
		c.depthTexture.Dispose()
		c.depthTexture = nil
	}
	if c.inputBuffer != nil {
		c.inputBuffer.Dispose()
		c.inputBuffer = nil
	}
	if c.outputBuffer != nil {
		c.outputBuffer.Dispose()
		c.outputBuffer = nil
	}
	if c.copyPass != nil {
		c.copyPass.Dispose()
		c.copyPass = nil
	}
}
