package postfx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/goshaderfx/graphics"
	"github.com/richinsley/goshaderfx/graphics/recorder"
)

type probePass struct {
	BasePass
	inputs   []graphics.RenderTarget
	stencils []bool
	depth    graphics.Texture
	width    int
	height   int
	inits    int
	disposed int
}

func newProbePass(name string, swap, depth bool) *probePass {
	p := &probePass{BasePass: NewBasePass(name, nil, nil)}
	p.needsSwap = swap
	p.needsDepthTexture = depth
	return p
}

func (p *probePass) Render(_ graphics.Renderer, input, _ graphics.RenderTarget, _ float32, stencilTest bool) {
	p.inputs = append(p.inputs, input)
	p.stencils = append(p.stencils, stencilTest)
}

func (p *probePass) SetDepthTexture(t graphics.Texture, _ graphics.DepthPacking) { p.depth = t }
func (p *probePass) SetSize(width, height int)                                   { p.width, p.height = width, height }
func (p *probePass) Initialize(graphics.Renderer, bool)                          { p.inits++ }
func (p *probePass) Dispose()                                                    { p.disposed++ }

func newComposer(t *testing.T, r *recorder.Renderer, opts ComposerOptions) *EffectComposer {
	t.Helper()
	c, err := NewEffectComposer(r, opts)
	require.NoError(t, err)
	return c
}

func TestComposerCreatesBuffers(t *testing.T) {
	r := recorder.New(640, 480)
	c := newComposer(t, r, ComposerOptions{DepthBuffer: true, StencilBuffer: true})

	require.Len(t, r.Targets, 2)
	assert.Same(t, r.Targets[0], c.InputBuffer())
	assert.Same(t, r.Targets[1], c.OutputBuffer())
	for _, target := range r.Targets {
		assert.Equal(t, 640, target.W)
		assert.Equal(t, 480, target.H)
		assert.True(t, target.DepthBuffer())
		assert.True(t, target.StencilBuffer())
	}
	assert.Nil(t, c.DepthTexture())
}

func TestComposerSwapAlternates(t *testing.T) {
	r := recorder.New(64, 64)
	c := newComposer(t, r, ComposerOptions{})
	in, out := c.InputBuffer(), c.OutputBuffer()

	passes := make([]*probePass, 5)
	for i := range passes {
		passes[i] = newProbePass("swap", true, false)
		require.NoError(t, c.AddPass(passes[i]))
	}

	for frame := 0; frame < 2; frame++ {
		c.Render(0.016)
		for i, p := range passes {
			require.Len(t, p.inputs, frame+1)
			want := in
			if i%2 == 1 {
				want = out
			}
			assert.Same(t, want, p.inputs[frame], "pass %d frame %d", i, frame)
		}
	}
	assert.Same(t, in, c.InputBuffer())
	assert.Same(t, out, c.OutputBuffer())
}

func TestComposerOnlySwapsWhenRequested(t *testing.T) {
	r := recorder.New(64, 64)
	c := newComposer(t, r, ComposerOptions{})
	in, out := c.InputBuffer(), c.OutputBuffer()

	a := newProbePass("a", true, false)
	b := newProbePass("b", false, false)
	disabled := newProbePass("disabled", true, false)
	disabled.SetEnabled(false)
	d := newProbePass("d", true, false)
	for _, p := range []Pass{a, b, disabled, d} {
		require.NoError(t, c.AddPass(p))
	}

	c.Render(0)
	assert.Same(t, in, a.inputs[0])
	assert.Same(t, out, b.inputs[0])
	assert.Empty(t, disabled.inputs)
	assert.Same(t, out, d.inputs[0])
}

func TestComposerAddPassInitializes(t *testing.T) {
	r := recorder.New(320, 200)
	c := newComposer(t, r, ComposerOptions{})
	a := newProbePass("a", true, false)
	b := newProbePass("b", true, false)
	require.NoError(t, c.AddPass(a))
	require.NoError(t, c.AddPass(b, 0))

	assert.Equal(t, []Pass{b, a}, c.Passes())
	assert.Equal(t, 1, a.inits)
	assert.Equal(t, 320, a.width)
	assert.Equal(t, 200, a.height)

	// out of range indexes append
	x := newProbePass("x", true, false)
	require.NoError(t, c.AddPass(x, 7))
	assert.Equal(t, []Pass{b, a, x}, c.Passes())
}

func TestComposerSharesDepthTexture(t *testing.T) {
	r := recorder.New(64, 64)
	c := newComposer(t, r, ComposerOptions{DepthBuffer: true})

	plain := newProbePass("plain", false, false)
	first := newProbePass("first", true, true)
	second := newProbePass("second", true, true)

	require.NoError(t, c.AddPass(plain))
	assert.Nil(t, c.DepthTexture())

	require.NoError(t, c.AddPass(first))
	depth := c.DepthTexture()
	require.NotNil(t, depth)
	assert.Same(t, depth, plain.depth)
	assert.Same(t, depth, first.depth)
	assert.Same(t, depth, c.InputBuffer().DepthTexture())
	assert.Nil(t, c.OutputBuffer().DepthTexture())

	require.NoError(t, c.AddPass(second))
	assert.Same(t, depth, c.DepthTexture())
	assert.Same(t, depth, second.depth)

	tex := depth.(*recorder.Texture)
	assert.Equal(t, graphics.DepthComponent, tex.Format)
	assert.Equal(t, 64, tex.W)

	c.RemovePass(first)
	assert.Equal(t, 0, tex.Disposed)
	assert.Same(t, depth, c.DepthTexture())

	c.RemovePass(second)
	assert.Equal(t, 1, tex.Disposed)
	assert.Nil(t, c.DepthTexture())
	assert.Nil(t, plain.depth)
	assert.Nil(t, second.depth)
	assert.Nil(t, c.InputBuffer().DepthTexture())

	c.RemovePass(plain)
	c.Dispose()
	assert.Equal(t, 1, tex.Disposed)
}

func TestComposerDepthTextureForExistingPass(t *testing.T) {
	r := recorder.New(64, 64)
	c := newComposer(t, r, ComposerOptions{DepthBuffer: true})

	effects, err := NewEffectPass(EffectPassOptions{Effects: []Effect{newImageEffect("image", BlendNormal)}})
	require.NoError(t, err)
	require.NoError(t, c.AddPass(effects))
	assert.Nil(t, c.DepthTexture())

	effects.SetEffects(NewEffect("depth", depthShader, EffectOptions{Attributes: AttributeDepth}))
	require.True(t, effects.NeedsDepthTexture())

	plain := newProbePass("plain", false, false)
	require.NoError(t, c.AddPass(plain))
	depth := c.DepthTexture()
	require.NotNil(t, depth)
	assert.Same(t, depth, effects.DepthTexture())
	assert.Same(t, depth, plain.depth)
}

func TestComposerDepthTextureFormat(t *testing.T) {
	r := recorder.New(64, 64)
	c := newComposer(t, r, ComposerOptions{DepthBuffer: true, StencilBuffer: true})
	require.NoError(t, c.AddPass(newProbePass("depth", true, true)))

	tex := c.DepthTexture().(*recorder.Texture)
	assert.Equal(t, graphics.DepthStencil, tex.Format)
}

func TestComposerRemoveUnknownPass(t *testing.T) {
	r := recorder.New(64, 64)
	c := newComposer(t, r, DefaultComposerOptions())
	a := newProbePass("a", true, true)
	require.NoError(t, c.AddPass(a))

	stranger := newProbePass("stranger", true, true)
	assert.NotPanics(t, func() { c.RemovePass(stranger) })
	assert.Equal(t, []Pass{a}, c.Passes())
	assert.NotNil(t, c.DepthTexture())
	assert.True(t, a.RenderToScreen())
}

func TestComposerAutoRenderToScreen(t *testing.T) {
	r := recorder.New(64, 64)
	c := newComposer(t, r, DefaultComposerOptions())
	a := newProbePass("a", true, false)
	b := newProbePass("b", true, false)
	require.NoError(t, c.AddPass(a))
	assert.True(t, a.RenderToScreen())

	require.NoError(t, c.AddPass(b))
	assert.False(t, a.RenderToScreen())
	assert.True(t, b.RenderToScreen())

	c.RemovePass(b)
	assert.True(t, a.RenderToScreen())
	assert.False(t, b.RenderToScreen())

	manual := newProbePass("manual", true, false)
	manual.SetRenderToScreen(true)
	require.NoError(t, c.AddPass(manual))
	assert.False(t, c.AutoRenderToScreen())
	assert.False(t, a.RenderToScreen())

	c.SetAutoRenderToScreen(false)
	require.NoError(t, c.AddPass(b))
	assert.False(t, b.RenderToScreen())
}

func TestComposerPreservesUnmaskedPixels(t *testing.T) {
	r := recorder.New(64, 64)
	c := newComposer(t, r, ComposerOptions{DepthBuffer: true, StencilBuffer: true})
	in, out := c.InputBuffer(), c.OutputBuffer()

	mask := NewMaskPass(nil, nil)
	masked := newProbePass("masked", true, false)
	clearMask := NewClearMaskPass()
	after := newProbePass("after", true, false)
	for _, p := range []Pass{mask, masked, clearMask, after} {
		require.NoError(t, c.AddPass(p))
	}

	c.Render(0.016)

	assert.Equal(t, []bool{true}, masked.stencils)
	assert.Equal(t, []bool{false}, after.stencils)

	// the stencil is written into both buffers
	renders := r.Filter(recorder.OpRender)
	require.Len(t, renders, 2)
	assert.Same(t, in, renders[0].Target)
	assert.Same(t, out, renders[1].Target)
	assert.False(t, renders[0].ColorMask)
	clears := r.Filter(recorder.OpClear)
	require.Len(t, clears, 2)
	assert.Equal(t, [3]bool{false, false, true}, clears[0].Buffers)

	draws := r.Filter(recorder.OpDraw)
	require.Len(t, draws, 1)
	copyDraw := draws[0]
	assert.Same(t, in, masked.inputs[0])
	assert.Same(t, in.Texture(), copyDraw.Input)
	assert.Same(t, out, copyDraw.Target)
	assert.True(t, copyDraw.Stencil.Test)
	assert.Equal(t, graphics.NotEqual, copyDraw.Stencil.Func)
	assert.Equal(t, 1, copyDraw.Stencil.Ref)
	assert.True(t, copyDraw.ColorMask)

	assert.Same(t, out, after.inputs[0])
	assert.False(t, r.Stencil().Test)
	assert.Equal(t, graphics.Equal, r.Stencil().Func)
}

func TestComposerInverseMask(t *testing.T) {
	r := recorder.New(64, 64)
	c := newComposer(t, r, ComposerOptions{StencilBuffer: true})
	mask := NewMaskPass(nil, nil)
	mask.Inverse = true
	require.NoError(t, c.AddPass(mask))

	c.Render(0)
	renders := r.Filter(recorder.OpRender)
	require.NotEmpty(t, renders)
	assert.Equal(t, 0, renders[0].Stencil.Ref)
	assert.Equal(t, 1, renders[0].Stencil.Clear)
	assert.Equal(t, graphics.Replace, renders[0].Stencil.ZPass)
}

func TestComposerSetSize(t *testing.T) {
	r := recorder.New(64, 64)
	c := newComposer(t, r, ComposerOptions{})
	p := newProbePass("p", true, true)
	require.NoError(t, c.AddPass(p))

	c.SetSize(320, 240)

	w, h := r.DrawingBufferSize()
	assert.Equal(t, 320, w)
	assert.Equal(t, 240, h)
	for _, target := range r.Targets {
		assert.Equal(t, 320, target.W)
		assert.Equal(t, 240, target.H)
	}
	assert.Equal(t, 320, p.width)
	assert.Equal(t, 240, p.height)
	assert.Equal(t, 320, c.DepthTexture().Width())
}

func TestComposerReset(t *testing.T) {
	r := recorder.New(64, 64)
	c := newComposer(t, r, DefaultComposerOptions())
	p := newProbePass("p", true, true)
	require.NoError(t, c.AddPass(p))
	oldIn := c.InputBuffer().(*recorder.Target)
	oldOut := c.OutputBuffer().(*recorder.Target)
	depth := c.DepthTexture().(*recorder.Texture)

	require.NoError(t, c.Reset())

	assert.Equal(t, 1, oldIn.Disposed)
	assert.Equal(t, 1, oldOut.Disposed)
	assert.Equal(t, 1, depth.Disposed)
	assert.Equal(t, 1, p.disposed)
	assert.Empty(t, c.Passes())
	assert.Nil(t, c.DepthTexture())
	assert.NotSame(t, oldIn, c.InputBuffer())
	assert.Len(t, r.Targets, 4)
	assert.True(t, c.AutoRenderToScreen())

	q := newProbePass("q", true, false)
	require.NoError(t, c.AddPass(q))
	c.Render(0)
	assert.Same(t, c.InputBuffer(), q.inputs[0])
}

func TestComposerDispose(t *testing.T) {
	r := recorder.New(64, 64)
	c := newComposer(t, r, DefaultComposerOptions())
	a := newProbePass("a", true, true)
	b := newProbePass("b", true, false)
	require.NoError(t, c.AddPass(a))
	require.NoError(t, c.AddPass(b))
	depth := c.DepthTexture().(*recorder.Texture)

	c.Dispose()
	c.Dispose()

	assert.Equal(t, 1, a.disposed)
	assert.Equal(t, 1, b.disposed)
	assert.Equal(t, 1, depth.Disposed)
	for _, target := range r.Targets {
		assert.Equal(t, 1, target.Disposed)
	}
	assert.NotPanics(t, func() { c.Render(0) })
}

type flatCamera struct{}

func (flatCamera) Near() float32     { return 0.1 }
func (flatCamera) Far() float32      { return 100 }
func (flatCamera) Perspective() bool { return true }

type countingScene struct{ draws int }

func (s *countingScene) Draw(graphics.Renderer, graphics.Camera) { s.draws++ }

func TestComposerRendersEffectsToScreen(t *testing.T) {
	r := recorder.New(128, 64)
	c := newComposer(t, r, DefaultComposerOptions())
	scene := &countingScene{}
	camera := flatCamera{}

	depthEffect := NewEffect("depth", depthShader, EffectOptions{Attributes: AttributeDepth})
	effects, err := NewEffectPass(EffectPassOptions{Camera: camera, Effects: []Effect{depthEffect}})
	require.NoError(t, err)

	require.NoError(t, c.AddPass(NewRenderPass(scene, camera)))
	require.NoError(t, c.AddPass(effects))
	require.NotNil(t, c.DepthTexture())
	assert.Same(t, c.DepthTexture(), effects.DepthTexture())
	assert.Equal(t, "1", effects.Material().Defines.At("PERSPECTIVE_CAMERA"))

	c.Render(0.016)
	assert.Equal(t, 1, scene.draws)

	renders := r.Filter(recorder.OpRender)
	require.Len(t, renders, 1)
	assert.Same(t, c.InputBuffer(), renders[0].Target)

	draws := r.Filter(recorder.OpDraw)
	require.Len(t, draws, 1)
	assert.Nil(t, draws[0].Target)
	assert.Same(t, c.InputBuffer().Texture(), draws[0].Input)
	u := draws[0].Program.Uniforms
	assert.Same(t, c.DepthTexture(), u["depthBuffer"])
	assert.Equal(t, float32(0.1), u["cameraNear"])
	assert.Equal(t, float32(100), u["cameraFar"])
}

func TestClearPassOverridesColor(t *testing.T) {
	r := recorder.New(8, 8)
	target, _ := r.NewRenderTarget(8, 8, graphics.TargetOptions{})
	r.SetClearColor(graphics.Color{0, 0, 0, 1})

	p := NewClearPass(true, true, false)
	red := graphics.Color{1, 0, 0, 1}
	p.OverrideClearColor = &red
	assert.False(t, p.NeedsSwap())

	p.Render(r, target, nil, 0, false)
	clears := r.Filter(recorder.OpClear)
	require.Len(t, clears, 1)
	assert.Same(t, target, clears[0].Target)
	assert.Equal(t, [3]bool{true, true, false}, clears[0].Buffers)
	assert.Equal(t, graphics.Color{0, 0, 0, 1}, r.ClearColor())
}

func TestCopyPassOpacity(t *testing.T) {
	r := recorder.New(8, 8)
	input, _ := r.NewRenderTarget(8, 8, graphics.TargetOptions{})
	output, _ := r.NewRenderTarget(8, 8, graphics.TargetOptions{})

	p := NewCopyPass()
	p.Uniforms().At("opacity").Value = float32(0.25)
	p.Render(r, input, output, 0, false)

	draws := r.Filter(recorder.OpDraw)
	require.Len(t, draws, 1)
	assert.Same(t, output, draws[0].Target)
	assert.Equal(t, float32(0.25), draws[0].Program.Uniforms["opacity"])
	assert.Contains(t, draws[0].Program.Fragment, "uniform float opacity;")

	p.Dispose()
	assert.Equal(t, 1, r.Programs[0].Disposed)
}
