package scene

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/goshaderfx/graphics"
	"github.com/richinsley/goshaderfx/graphics/recorder"
	"github.com/richinsley/goshaderfx/shader"
)

func TestBuiltins(t *testing.T) {
	assert.Equal(t, []string{"bars", "disc", "plasma"}, Builtins())

	plasma, err := Builtin("plasma")
	require.NoError(t, err)
	assert.True(t, plasma.WritesDepth())
	fs := plasma.FragmentShader()
	assert.True(t, strings.HasPrefix(fs, shader.Version))
	assert.Contains(t, fs, "#define WRITE_DEPTH 1")
	assert.Contains(t, fs, "gl_FragDepth")

	disc, err := Builtin("disc")
	require.NoError(t, err)
	assert.False(t, disc.WritesDepth())
	assert.NotContains(t, disc.FragmentShader(), "#define WRITE_DEPTH")

	_, err = Builtin("teapot")
	assert.ErrorContains(t, err, `unknown scene "teapot"`)
}

func TestNewRequiresMainImage(t *testing.T) {
	_, err := New("empty", "void main() {}")
	assert.ErrorContains(t, err, "missing mainImage")
}

func TestDrawSetsUniforms(t *testing.T) {
	s, err := Builtin("bars")
	require.NoError(t, err)
	s.Advance(0.25)
	s.Advance(0.25)
	s.SetMouse([4]float32{1, 2, 3, 4})

	r := recorder.New(320, 240)
	r.Render(s, DefaultCamera())
	r.Render(s, DefaultCamera())

	require.Len(t, r.Programs, 1)
	draws := r.Filter(recorder.OpDraw)
	require.Len(t, draws, 2)
	u := draws[1].Program.Uniforms
	assert.Equal(t, [3]float32{320, 240, 1}, u["iResolution"])
	assert.Equal(t, float32(0.5), u["iTime"])
	assert.Equal(t, float32(0.25), u["iTimeDelta"])
	assert.Equal(t, int32(2), u["iFrame"])
	assert.Equal(t, [4]float32{1, 2, 3, 4}, u["iMouse"])
	assert.Equal(t, float32(0.5), s.Time())
	assert.Equal(t, int32(2), s.Frame())
}

func TestDrawUsesTargetSize(t *testing.T) {
	s, err := Builtin("disc")
	require.NoError(t, err)

	r := recorder.New(320, 240)
	target, err := r.NewRenderTarget(64, 32, graphics.TargetOptions{})
	require.NoError(t, err)
	r.SetRenderTarget(target)
	r.Render(s, nil)

	draws := r.Filter(recorder.OpDraw)
	require.Len(t, draws, 1)
	assert.Equal(t, [3]float32{64, 32, 1}, draws[0].Program.Uniforms["iResolution"])
}

func TestDrawSkipsFailedProgram(t *testing.T) {
	s, err := Builtin("plasma")
	require.NoError(t, err)

	r := recorder.New(16, 16)
	r.ProgramError = errors.New("bad shader")
	r.Render(s, nil)
	r.ProgramError = nil
	r.Render(s, nil)
	assert.Empty(t, r.Filter(recorder.OpDraw))

	s.Dispose()
	r.Render(s, nil)
	assert.Len(t, r.Filter(recorder.OpDraw), 1)
}

func TestDispose(t *testing.T) {
	s, err := Builtin("plasma")
	require.NoError(t, err)
	r := recorder.New(16, 16)
	r.Render(s, nil)
	require.Len(t, r.Programs, 1)

	s.Dispose()
	assert.Equal(t, 1, r.Programs[0].Disposed)
	s.Dispose()
	assert.Equal(t, 1, r.Programs[0].Disposed)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "solid.frag")
	require.NoError(t, os.WriteFile(path, []byte("void mainImage(out vec4 c, in vec2 p) { c = vec4(1.0); }\n"), 0o644))

	s, err := Load("solid", path)
	require.NoError(t, err)
	assert.Equal(t, "solid", s.Name())

	_, err = Load("missing", filepath.Join(t.TempDir(), "missing.frag"))
	assert.ErrorContains(t, err, `failed to read scene "missing"`)
}

func TestCamera(t *testing.T) {
	c := DefaultCamera()
	assert.Equal(t, float32(0.1), c.Near())
	assert.Equal(t, float32(100), c.Far())
	assert.True(t, c.Perspective())
	c.Orthographic = true
	assert.False(t, c.Perspective())
}
