package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/goshaderfx/effects"
	"github.com/richinsley/goshaderfx/graphics"
	"github.com/richinsley/goshaderfx/graphics/recorder"
	"github.com/richinsley/goshaderfx/postfx"
)

type countingScene struct{ draws int }

func (s *countingScene) Draw(graphics.Renderer, graphics.Camera) { s.draws++ }

func TestLoadDemo(t *testing.T) {
	cfg, err := Load("testdata/demo.toml")
	require.NoError(t, err)

	require.Len(t, cfg.Passes, 6)
	assert.Equal(t, TypeRender, cfg.Passes[0].Type)
	assert.Equal(t, []float32{0.1, 0.1, 0.15}, cfg.Passes[0].ClearColor)
	assert.Equal(t, "logo", cfg.Passes[2].Scene)
	require.Len(t, cfg.Passes[3].Effects, 2)
	vignette := cfg.Passes[3].Effects[1]
	assert.Equal(t, "multiply", vignette.Blend)
	require.NotNil(t, vignette.Opacity)
	assert.Equal(t, float32(0.8), *vignette.Opacity)
	assert.Equal(t, 0.6, vignette.Params["darkness"])

	opts := cfg.ComposerOptions()
	assert.True(t, opts.StencilBuffer)
	assert.True(t, opts.DepthBuffer)
	assert.True(t, opts.AutoRenderToScreen)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("testdata/missing.toml")
	assert.ErrorContains(t, err, "failed to read pipeline")
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"unknown key", "[[pass]]\ntype = \"copy\"\nopacty = 0.5\n", "invalid pipeline"},
		{"syntax", "[[pass]\ntype = \"copy\"\n", "invalid pipeline at line 1"},
		{"missing type", "[[pass]]\nenabled = false\n", "pass 0: missing type"},
		{"unknown type", "[[pass]]\ntype = \"bloom\"\n", `unknown type "bloom"`},
		{"bad blend", "[[pass]]\ntype = \"effect\"\n[[pass.effect]]\nkind = \"noise\"\nblend = \"glow\"\n", `unknown blend function "glow"`},
		{"missing kind", "[[pass]]\ntype = \"effect\"\n[[pass.effect]]\nblend = \"add\"\n", "effect 0: missing kind"},
		{"misplaced effect", "[[pass]]\ntype = \"copy\"\n[[pass.effect]]\nkind = \"noise\"\n", "copy pass cannot have effects"},
		{"clear color", "[[pass]]\ntype = \"clear\"\nclear-color = [1.0, 0.5]\n", "clear-color needs 3 or 4 components, got 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestComposerOptionsOverrides(t *testing.T) {
	cfg, err := Parse([]byte("[composer]\ndepth-buffer = false\nhigh-precision = true\nauto-render-to-screen = false\n"))
	require.NoError(t, err)

	opts := cfg.ComposerOptions()
	assert.False(t, opts.DepthBuffer)
	assert.False(t, opts.StencilBuffer)
	assert.True(t, opts.HighPrecision)
	assert.False(t, opts.AutoRenderToScreen)
}

func TestNewComposerRendersDemo(t *testing.T) {
	cfg, err := Load("testdata/demo.toml")
	require.NoError(t, err)

	mainScene, logo := &countingScene{}, &countingScene{}
	r := recorder.New(320, 240)
	composer, err := cfg.NewComposer(r, nil, map[string]graphics.Scene{"main": mainScene, "logo": logo})
	require.NoError(t, err)
	defer composer.Dispose()

	passes := composer.Passes()
	require.Len(t, passes, 6)
	assert.IsType(t, &postfx.RenderPass{}, passes[0])
	assert.IsType(t, &postfx.EffectPass{}, passes[1])
	assert.IsType(t, &postfx.MaskPass{}, passes[2])
	assert.IsType(t, &postfx.ClearMaskPass{}, passes[4])
	assert.True(t, passes[5].RenderToScreen())
	assert.NotNil(t, composer.DepthTexture())

	first := passes[1].(*postfx.EffectPass)
	assert.Empty(t, first.Errors())
	assert.True(t, first.NeedsDepthTexture())

	second := passes[3].(*postfx.EffectPass)
	assert.True(t, second.Dithering())
	require.Len(t, second.Effects(), 2)
	assert.Equal(t, postfx.BlendMultiply, second.Effects()[1].BlendMode().Function())
	assert.Equal(t, float32(0.8), second.Effects()[1].BlendMode().Opacity.Value)

	render := passes[0].(*postfx.RenderPass)
	require.NotNil(t, render.ClearPass().OverrideClearColor)
	assert.Equal(t, graphics.Color{0.1, 0.1, 0.15, 1}, *render.ClearPass().OverrideClearColor)

	composer.Render(0.016)
	assert.Equal(t, 1, mainScene.draws)
	assert.Equal(t, 2, logo.draws)

	// three effect passes plus the copy that keeps pixels outside the mask
	draws := r.Filter(recorder.OpDraw)
	require.Len(t, draws, 4)
	assert.Nil(t, draws[3].Target)
}

func TestBuildPassOptions(t *testing.T) {
	cfg, err := Parse([]byte(`
[[pass]]
type = "clear"
stencil = true
clear-color = [1.0, 0.0, 0.0, 0.5]

[[pass]]
type = "render"
no-clear = true
enabled = false

[[pass]]
type = "mask"
inverse = true

[[pass]]
type = "copy"
opacity = 0.5
render-to-screen = true
`))
	require.NoError(t, err)

	r := recorder.New(64, 64)
	composer, err := postfx.NewEffectComposer(r, cfg.ComposerOptions())
	require.NoError(t, err)
	passes, err := cfg.Build(composer, nil, map[string]graphics.Scene{DefaultScene: &countingScene{}})
	require.NoError(t, err)
	require.Len(t, passes, 4)

	cp := passes[0].(*postfx.ClearPass)
	assert.True(t, cp.Color)
	assert.True(t, cp.Depth)
	assert.True(t, cp.Stencil)
	assert.Equal(t, graphics.Color{1, 0, 0, 0.5}, *cp.OverrideClearColor)

	render := passes[1].(*postfx.RenderPass)
	assert.False(t, render.Enabled())
	assert.False(t, render.ClearPass().Enabled())

	assert.True(t, passes[2].(*postfx.MaskPass).Inverse)

	copyPass := passes[3].(*postfx.ShaderPass)
	assert.Equal(t, float32(0.5), copyPass.Uniforms().At("opacity").Value)
	assert.True(t, copyPass.RenderToScreen())
	assert.False(t, composer.AutoRenderToScreen())
}

func TestBuildRollsBack(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"unknown scene", "[[pass]]\ntype = \"render\"\n[[pass]]\ntype = \"mask\"\nscene = \"hud\"\n", `pass 1 (mask): unknown scene "hud"`},
		{"unknown effect", "[[pass]]\ntype = \"render\"\n[[pass]]\ntype = \"effect\"\n[[pass.effect]]\nkind = \"bloom\"\n", `pass 1 (effect): effect 0: unknown effect "bloom"`},
		{"strict", "[[pass]]\ntype = \"render\"\n[[pass]]\ntype = \"effect\"\nstrict = true\n[[pass.effect]]\nkind = \"blur\"\n[[pass.effect]]\nkind = \"blur\"\n", "pass 1 (effect)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.data))
			require.NoError(t, err)

			r := recorder.New(64, 64)
			composer, err := postfx.NewEffectComposer(r, cfg.ComposerOptions())
			require.NoError(t, err)
			_, err = cfg.Build(composer, nil, map[string]graphics.Scene{"main": &countingScene{}})
			assert.ErrorContains(t, err, tt.want)
			assert.Empty(t, composer.Passes())
		})
	}
}

func TestEffectOpacityIsClamped(t *testing.T) {
	opacity := float32(3)
	e, err := (&EffectConfig{Kind: "noise", Blend: "screen", Opacity: &opacity, Params: effects.Params{"premultiply": true}}).build()
	require.NoError(t, err)
	assert.Equal(t, postfx.BlendScreen, e.BlendMode().Function())
	assert.Equal(t, float32(1), e.BlendMode().Opacity.Value)
	assert.True(t, e.(*effects.Noise).Premultiply())
}
