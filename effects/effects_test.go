package effects

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/goshaderfx/graphics"
	"github.com/richinsley/goshaderfx/graphics/recorder"
	"github.com/richinsley/goshaderfx/postfx"
	"github.com/richinsley/goshaderfx/shader"
)

func TestRegistryCreatesEveryKind(t *testing.T) {
	for _, kind := range Kinds() {
		t.Run(kind, func(t *testing.T) {
			e, err := New(kind, nil)
			require.NoError(t, err)

			p, err := postfx.NewEffectPass(postfx.EffectPassOptions{Effects: []postfx.Effect{e}, Strict: true})
			require.NoError(t, err)
			assert.False(t, p.SkipRendering())
		})
	}
}

func TestRegistryErrors(t *testing.T) {
	_, err := New("bloom", nil)
	assert.ErrorContains(t, err, `unknown effect "bloom"`)

	_, err = New("vignette", Params{"offset": "far"})
	assert.ErrorContains(t, err, `parameter "offset"`)

	_, err = New("vignette", Params{"radius": 3})
	assert.ErrorContains(t, err, `unknown parameter "radius"`)

	_, err = New("blur", Params{"window": "gauss"})
	assert.ErrorContains(t, err, "unknown window function")

	_, err = New("blur", Params{"radius": 1.5})
	assert.Error(t, err)
}

func TestRegistryParams(t *testing.T) {
	e, err := New("blur", Params{"radius": int64(2), "window": "Flat-Top", "scale": 2.0})
	require.NoError(t, err)
	b := e.(*Blur)
	assert.Equal(t, 2, b.Radius())
	assert.Equal(t, WindowFlatTop, b.Window())
	assert.Equal(t, float32(2), b.Scale())

	e, err = New("vignette", Params{"offset": int64(1), "darkness": 0.25})
	require.NoError(t, err)
	v := e.(*Vignette)
	assert.Equal(t, float32(1), v.Offset())
	assert.Equal(t, float32(0.25), v.Darkness())
}

func TestEffectsComposeTogether(t *testing.T) {
	p, err := postfx.NewEffectPass(postfx.EffectPassOptions{
		Effects: []postfx.Effect{
			NewPixelation(8),
			NewBrightnessContrast(0.1, 0.2),
			NewVignette(0.5, 0.5),
			NewNoise(true),
		},
		Strict: true,
	})
	require.NoError(t, err)

	m := p.Material()
	assert.Equal(t, "transformedUv", m.Defines.At("UV"))
	assert.Equal(t, "1", m.Defines.At("e3PREMULTIPLY"))
	assert.Contains(t, m.Sections.FragmentMainUv, "e0MainUv(UV);")
	assert.Contains(t, m.Sections.FragmentHead, "uniform vec4 e0D;")
	assert.Contains(t, m.Sections.FragmentHead, "e0D.xy * (floor(uv * e0D.zw) + 0.5)")
	assert.Contains(t, m.Sections.FragmentMainImage, "color0 = blendScreen(color0, color1, e3BlendOpacity);")
	assert.Equal(t, shader.EffectUniforms+10, p.UniformCount())
	assert.False(t, p.NeedsDepthTexture())
}

func TestBlurIsConvolution(t *testing.T) {
	postfx.SetLogger(nil)
	t.Cleanup(func() { postfx.SetLogger(slog.Default()) })

	blur, err := NewBlur(2, WindowHann, 1)
	require.NoError(t, err)
	other, err := NewBlur(1, WindowRectangular, 1)
	require.NoError(t, err)

	p, err := postfx.NewEffectPass(postfx.EffectPassOptions{Effects: []postfx.Effect{NewVignette(0.5, 0.5), blur, NewPixelation(4), other}})
	require.NoError(t, err)
	require.Len(t, p.Errors(), 2)
	assert.ErrorIs(t, p.Errors()[0], postfx.ErrConvolutionMerge)
	assert.ErrorIs(t, p.Errors()[1], postfx.ErrUvConvolution)

	m := p.Material()
	assert.Equal(t, "5", m.Defines.At("e0KERNEL_SIZE"))
	assert.Equal(t, "2", m.Defines.At("e0KERNEL_RADIUS"))
	assert.Contains(t, m.Sections.FragmentHead, "uniform float e0Weights[e0KERNEL_SIZE];")
	assert.Contains(t, m.Sections.FragmentMainImage, "e1MainImage")

	r := recorder.New(32, 32)
	input, _ := r.NewRenderTarget(32, 32, graphics.TargetOptions{})
	output, _ := r.NewRenderTarget(32, 32, graphics.TargetOptions{})
	p.Render(r, input, output, 0, false)
	draws := r.Filter(recorder.OpDraw)
	require.Len(t, draws, 1)
	assert.Equal(t, blur.Weights(), draws[0].Program.Uniforms["e0Weights"])
}

func TestKernelWeights(t *testing.T) {
	for w := range windows {
		weights, err := KernelWeights(3, w)
		require.NoError(t, err, w)
		require.Len(t, weights, 7)
		var sum float32
		for i, v := range weights {
			sum += v
			assert.InDelta(t, v, weights[len(weights)-1-i], 1e-6, "%s is symmetric", w)
		}
		assert.InDelta(t, 1, sum, 1e-5, w)
	}

	box, err := KernelWeights(2, WindowRectangular)
	require.NoError(t, err)
	for _, v := range box {
		assert.InDelta(t, 0.2, v, 1e-6)
	}

	hann, err := KernelWeights(2, WindowHann)
	require.NoError(t, err)
	assert.Greater(t, hann[2], hann[1])
	assert.Greater(t, hann[1], hann[0])
	assert.Greater(t, hann[0], float32(0))

	single, err := KernelWeights(0, WindowBlackman)
	require.NoError(t, err)
	assert.InDelta(t, 1, single[0], 1e-6)

	_, err = KernelWeights(-1, WindowHann)
	assert.Error(t, err)
}

func TestBlurSetters(t *testing.T) {
	b, err := NewBlur(1, WindowHann, 1)
	require.NoError(t, err)

	require.NoError(t, b.SetWindow(WindowRectangular))
	assert.InDelta(t, 1.0/3, b.Weights()[0], 1e-6)

	require.NoError(t, b.SetRadius(3))
	assert.Len(t, b.Weights(), 7)
	assert.Equal(t, "7", b.Defines().At("KERNEL_SIZE"))
	assert.Equal(t, "3", b.Defines().At("KERNEL_RADIUS"))

	assert.Error(t, b.SetWindow("gauss"))
	assert.Equal(t, WindowRectangular, b.Window())
}

func TestPixelation(t *testing.T) {
	p := NewPixelation(3)
	assert.Equal(t, float32(4), p.Granularity())

	p.SetSize(400, 200)
	assert.Equal(t, [2]float32{0.01, 0.02}, p.Cell())
	assert.Equal(t, true, p.Uniform("active").Value)
	assert.Equal(t, [4]float32{0.01, 0.02, 100, 50}, p.Uniform("d").Value)

	p.SetGranularity(0)
	assert.Equal(t, false, p.Uniform("active").Value)

	p.SetGranularity(6.7)
	assert.Equal(t, float32(6), p.Granularity())
}

func TestPixelationFollowsPassSize(t *testing.T) {
	pix := NewPixelation(10)
	p, err := postfx.NewEffectPass(postfx.EffectPassOptions{Effects: []postfx.Effect{pix}})
	require.NoError(t, err)

	p.SetSize(1000, 500)
	assert.Equal(t, [2]float32{0.01, 0.02}, pix.Cell())
}

func TestBrightnessContrastClamps(t *testing.T) {
	e := NewBrightnessContrast(2, 1)
	assert.Equal(t, float32(1), e.Brightness())
	assert.Equal(t, float32(0.999), e.Contrast())

	e.SetContrast(-5)
	assert.Equal(t, float32(-1), e.Contrast())
}

func TestDefineToggles(t *testing.T) {
	n := NewNoise(false)
	assert.False(t, n.Premultiply())
	n.SetPremultiply(true)
	assert.True(t, n.Premultiply())

	d := NewDepth(true)
	assert.True(t, d.Inverted())
	assert.Equal(t, postfx.AttributeDepth, d.Attributes())
	d.SetInverted(false)
	assert.False(t, d.Inverted())

	p, err := postfx.NewEffectPass(postfx.EffectPassOptions{Effects: []postfx.Effect{d}})
	require.NoError(t, err)
	assert.True(t, p.NeedsDepthTexture())
	assert.Contains(t, p.Material().Sections.FragmentMainImage, "float depth = readDepth(UV);")
}
