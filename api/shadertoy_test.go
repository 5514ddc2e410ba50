package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const imageCode = "void mainImage(out vec4 c, in vec2 p) { c = vec4(1.0); }"

type fakeSite struct {
	apiCalls, siteCalls atomic.Int32
	apiError            string
}

func (f *fakeSite) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/shaders/", func(w http.ResponseWriter, r *http.Request) {
		f.apiCalls.Add(1)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		if f.apiError != "" {
			json.NewEncoder(w).Encode(Response{Error: f.apiError})
			return
		}
		json.NewEncoder(w).Encode(Response{Shader: &Shader{
			Info: Info{ID: "abc123", Name: "Api", Username: "iq"},
			RenderPass: []RenderPass{
				{Type: "common", Code: "float k() { return 1.0; }"},
				{Type: "image", Code: imageCode},
			},
		}})
	})
	mux.HandleFunc("/shadertoy", func(w http.ResponseWriter, r *http.Request) {
		f.siteCalls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, r.ParseForm())
		assert.JSONEq(t, `{"shaders":["abc123"]}`, r.PostForm.Get("s"))
		w.Write([]byte(`[{"info":{"id":"abc123","name":"Site","username":"iq"},
			"renderpass":[{"type":"image","code":"` + imageCode + `",
			"inputs":[{"channel":0,"type":"texture","filepath":"/media/a/x.png"}]}]}]`))
	})
	return mux
}

func newTestClient(t *testing.T, f *fakeSite, key string) *Client {
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return &Client{HTTP: srv.Client(), BaseURL: srv.URL, Key: key, CacheDir: t.TempDir()}
}

func TestFetchUsesAPIAndCache(t *testing.T) {
	f := &fakeSite{}
	c := newTestClient(t, f, "secret")

	s, err := c.Fetch(context.Background(), "https://www.shadertoy.com/view/abc123/")
	require.NoError(t, err)
	assert.Equal(t, `"Api" by iq`, s.Title())
	assert.FileExists(t, filepath.Join(c.CacheDir, "abc123.json"))

	src, err := s.ImageSource()
	require.NoError(t, err)
	assert.Equal(t, "float k() { return 1.0; }\n"+imageCode, src)

	again, err := c.Fetch(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, s, again)
	assert.Equal(t, int32(1), f.apiCalls.Load())
	assert.Equal(t, int32(0), f.siteCalls.Load())
}

func TestFetchFallsBackToSite(t *testing.T) {
	f := &fakeSite{apiError: "Shader not found"}
	c := newTestClient(t, f, "secret")

	s, err := c.Fetch(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "Site", s.Info.Name)
	require.Len(t, s.RenderPass, 1)
	assert.Equal(t, []Input{{Channel: 0, CType: "texture", Src: "/media/a/x.png"}}, s.RenderPass[0].Inputs)
	assert.Equal(t, int32(1), f.apiCalls.Load())
	assert.Equal(t, int32(1), f.siteCalls.Load())

	_, err = s.ImageSource()
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestFetchWithoutKeySkipsAPI(t *testing.T) {
	f := &fakeSite{}
	c := newTestClient(t, f, "")
	c.CacheDir = ""

	_, err := c.Fetch(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, int32(0), f.apiCalls.Load())
	assert.Equal(t, int32(1), f.siteCalls.Load())
}

func TestFetchErrors(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)
	c := &Client{HTTP: srv.Client(), BaseURL: srv.URL}

	_, err := c.Fetch(context.Background(), "abc123")
	assert.ErrorContains(t, err, "404")

	_, err = c.Fetch(context.Background(), "")
	assert.ErrorContains(t, err, "invalid shader id")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{"), 0644))
	c.CacheDir = dir
	_, err = c.Fetch(context.Background(), "bad")
	assert.ErrorContains(t, err, "failed to decode cached shader")
}

func TestImageSource(t *testing.T) {
	s := &Shader{RenderPass: []RenderPass{{Type: "image", Code: imageCode}}}
	src, err := s.ImageSource()
	require.NoError(t, err)
	assert.Equal(t, imageCode, src)

	s.RenderPass = append(s.RenderPass, RenderPass{Type: "buffer", Name: "Buffer A"})
	_, err = s.ImageSource()
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = (&Shader{}).ImageSource()
	assert.ErrorContains(t, err, "no image pass")
}

func TestShaderID(t *testing.T) {
	assert.Equal(t, "abc123", ShaderID("abc123"))
	assert.Equal(t, "abc123", ShaderID("https://www.shadertoy.com/view/abc123"))
	assert.Equal(t, "abc123", ShaderID("https://www.shadertoy.com/view/abc123/"))
}
