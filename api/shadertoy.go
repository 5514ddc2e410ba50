// Package api fetches single pass shaders from shadertoy.com so they can be
// used as scenes.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	DefaultBaseURL = "https://www.shadertoy.com"
	userAgent      = "goshaderfx (+https://github.com/richinsley/goshaderfx)"
)

// ErrUnsupported is returned for shaders that need more than a single
// image pass with optional common code.
var ErrUnsupported = errors.New("unsupported shader")

type Response struct {
	Shader *Shader `json:"Shader"`
	Error  string  `json:"Error,omitempty"`
}

type Shader struct {
	Info       Info         `json:"info"`
	RenderPass []RenderPass `json:"renderpass"`
}

type Info struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

type RenderPass struct {
	Inputs []Input `json:"inputs"`
	Code   string  `json:"code"`
	Name   string  `json:"name"`
	Type   string  `json:"type"`
}

type Input struct {
	Channel int    `json:"channel"`
	CType   string `json:"ctype"`
	Src     string `json:"src"`
}

// The site endpoint answers with a list and names input fields differently.
type rawShader struct {
	Info       Info `json:"info"`
	RenderPass []struct {
		Inputs []struct {
			Channel  int    `json:"channel"`
			Type     string `json:"type"`
			Filepath string `json:"filepath"`
		} `json:"inputs"`
		Code string `json:"code"`
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"renderpass"`
}

func (raw *rawShader) shader() *Shader {
	s := &Shader{Info: raw.Info, RenderPass: make([]RenderPass, len(raw.RenderPass))}
	for i, rp := range raw.RenderPass {
		pass := RenderPass{Code: rp.Code, Name: rp.Name, Type: rp.Type}
		for _, in := range rp.Inputs {
			pass.Inputs = append(pass.Inputs, Input{Channel: in.Channel, CType: in.Type, Src: in.Filepath})
		}
		s.RenderPass[i] = pass
	}
	return s
}

// Title returns the shader name and author.
func (s *Shader) Title() string {
	return fmt.Sprintf("%q by %s", s.Info.Name, s.Info.Username)
}

// ImageSource returns the common code followed by the image pass code.
// Shaders with buffer passes or channel inputs are rejected.
func (s *Shader) ImageSource() (string, error) {
	var common, image string
	found := false
	for _, rp := range s.RenderPass {
		switch rp.Type {
		case "image":
			if len(rp.Inputs) > 0 {
				return "", fmt.Errorf("%w: image pass reads %d channel(s)", ErrUnsupported, len(rp.Inputs))
			}
			image = rp.Code
			found = true
		case "common":
			common = rp.Code
		default:
			return "", fmt.Errorf("%w: %s pass %q", ErrUnsupported, rp.Type, rp.Name)
		}
	}
	if !found {
		return "", fmt.Errorf("%w: no image pass", ErrUnsupported)
	}
	if common == "" {
		return image, nil
	}
	return common + "\n" + image, nil
}

// Client talks to the shadertoy API. The zero value is not usable; see
// NewClient.
type Client struct {
	HTTP    *http.Client
	BaseURL string
	// Key is the API key. Without one only the site endpoint is used.
	Key string
	// CacheDir holds fetched shaders as <id>.json. Empty disables caching.
	CacheDir string
}

// NewClient returns a client using SHADERTOY_KEY and the user cache
// directory.
func NewClient() *Client {
	c := &Client{
		HTTP:    &http.Client{Transport: &headerTransport{http.DefaultTransport}},
		BaseURL: DefaultBaseURL,
		Key:     os.Getenv("SHADERTOY_KEY"),
	}
	if dir, err := CacheDir(); err == nil {
		c.CacheDir = dir
	} else {
		log.Printf("Warning: shader cache disabled: %v", err)
	}
	return c
}

type headerTransport struct {
	Transport http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", userAgent)
	return t.Transport.RoundTrip(req)
}

// CacheDir returns the OS specific shader cache directory.
func CacheDir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("LOCALAPPDATA")
		if base == "" {
			return "", errors.New("LOCALAPPDATA environment variable not set")
		}
	case "darwin":
		home := os.Getenv("HOME")
		if home == "" {
			return "", errors.New("HOME environment variable not set")
		}
		base = filepath.Join(home, "Library", "Caches")
	default:
		base = os.Getenv("XDG_CACHE_HOME")
		if base == "" {
			home := os.Getenv("HOME")
			if home == "" {
				return "", errors.New("HOME environment variable not set")
			}
			base = filepath.Join(home, ".cache")
		}
	}
	return filepath.Join(base, "goshaderfx", "shaders"), nil
}

// ShaderID extracts the id from an id or a shader URL.
func ShaderID(idOrURL string) string {
	if strings.Contains(idOrURL, "/") {
		return filepath.Base(strings.TrimSuffix(idOrURL, "/"))
	}
	return idOrURL
}

// Fetch returns the shader with the given id or URL, from the cache when
// possible. The public API is tried first when a key is set, then the site
// endpoint.
func (c *Client) Fetch(ctx context.Context, idOrURL string) (*Shader, error) {
	id := ShaderID(idOrURL)
	if id == "" || id == "." {
		return nil, fmt.Errorf("invalid shader id %q", idOrURL)
	}
	if s, err := c.cached(id); err != nil {
		return nil, err
	} else if s != nil {
		return s, nil
	}

	var s *Shader
	var err error
	if c.Key != "" {
		s, err = c.fetchAPI(ctx, id)
		if err != nil {
			log.Printf("Warning: shadertoy API failed for %s: %v (is it public+api?)", id, err)
		}
	}
	if s == nil {
		s, err = c.fetchSite(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch shader %s: %w", id, err)
		}
	}
	if err := c.store(id, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (c *Client) cachePath(id string) string {
	return filepath.Join(c.CacheDir, id+".json")
}

func (c *Client) cached(id string) (*Shader, error) {
	if c.CacheDir == "" {
		return nil, nil
	}
	data, err := os.ReadFile(c.cachePath(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached shader: %w", err)
	}
	var s Shader
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode cached shader %s: %w", id, err)
	}
	return &s, nil
}

func (c *Client) store(id string, s *Shader) error {
	if c.CacheDir == "" {
		return nil
	}
	if err := os.MkdirAll(c.CacheDir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory at %s: %w", c.CacheDir, err)
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.cachePath(id), data, 0644); err != nil {
		return fmt.Errorf("failed to write shader to cache: %w", err)
	}
	log.Printf("Shader %s cached at %s", id, c.cachePath(id))
	return nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad response status: %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) fetchAPI(ctx context.Context, id string) (*Shader, error) {
	u := fmt.Sprintf("%s/api/v1/shaders/%s?%s", c.BaseURL, url.PathEscape(id), url.Values{"key": {c.Key}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode shader JSON: %w", err)
	}
	if resp.Error != "" {
		return nil, errors.New(resp.Error)
	}
	if resp.Shader == nil {
		return nil, errors.New("invalid JSON response: 'Shader' key is missing")
	}
	return resp.Shader, nil
}

func (c *Client) fetchSite(ctx context.Context, id string) (*Shader, error) {
	payload, err := json.Marshal(map[string][]string{"shaders": {id}})
	if err != nil {
		return nil, err
	}
	form := url.Values{"s": {string(payload)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/shadertoy", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Origin", c.BaseURL)
	req.Header.Set("Referer", c.BaseURL+"/browse")
	body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	var list []rawShader
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("failed to decode raw shader JSON: %w", err)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("raw shader response is empty for %s", id)
	}
	return list[0].shader(), nil
}
