package shader

import (
	"fmt"
	"strings"
)

// Version is the GLSL dialect every generated program is written in. The
// renderer translates it to the dialect of the current context.
const Version = "#version 300 es"

// Placeholders substituted into the effect templates.
const (
	FragmentHead      = "FRAGMENT_HEAD"
	FragmentMainUv    = "FRAGMENT_MAIN_UV"
	FragmentMainImage = "FRAGMENT_MAIN_IMAGE"
	VertexHead        = "VERTEX_HEAD"
	VertexMainSupport = "VERTEX_MAIN_SUPPORT"
)

// ─────────────────────────────── Effect program ────────────────────────────────

const effectVertexTemplate = `precision highp float;

layout(location = 0) in vec2 position;

uniform vec2 resolution;
uniform vec2 texelSize;
uniform float cameraNear;
uniform float cameraFar;
uniform float aspect;
uniform float time;

out vec2 vUv;

VERTEX_HEAD

void main() {
	vUv = position * 0.5 + 0.5;
	VERTEX_MAIN_SUPPORT
	gl_Position = vec4(position, 1.0, 1.0);
}
`

const effectFragmentTemplate = `precision highp float;
precision highp int;

uniform sampler2D inputBuffer;
uniform sampler2D depthBuffer;

uniform vec2 resolution;
uniform vec2 texelSize;
uniform float cameraNear;
uniform float cameraFar;
uniform float aspect;
uniform float time;

in vec2 vUv;
out vec4 fragColor;

const float UnpackDownscale = 255. / 256.;
const vec3 PackFactors = vec3(256. * 256. * 256., 256. * 256., 256.);
const vec4 UnpackFactors = UnpackDownscale / vec4(PackFactors, 1.);

float unpackRGBAToDepth(const in vec4 v) {
	return dot(v, UnpackFactors);
}

float readDepth(const in vec2 uv) {
#if DEPTH_PACKING == 3201
	return unpackRGBAToDepth(texture(depthBuffer, uv));
#else
	return texture(depthBuffer, uv).r;
#endif
}

#ifdef DITHERING
// interleaved gradient noise
vec3 dither(const in vec3 color) {
	float noise = fract(52.9829189 * fract(dot(gl_FragCoord.xy, vec2(0.06711056, 0.00583715))));
	return color + (noise - 0.5) / 255.0;
}
#endif

FRAGMENT_HEAD

void main() {
	FRAGMENT_MAIN_UV
	vec4 color0 = texture(inputBuffer, UV);
	vec4 color1 = vec4(0.0);

	FRAGMENT_MAIN_IMAGE

	fragColor = color0;
#ifdef DITHERING
	fragColor.rgb = dither(fragColor.rgb);
#endif
}
`

// EffectUniforms is the number of distinct uniforms the effect templates
// declare before any effect code is added.
const EffectUniforms = 8

// Sections holds the generated code that is substituted into the effect
// templates.
type Sections struct {
	FragmentHead      string
	FragmentMainUv    string
	FragmentMainImage string
	VertexHead        string
	VertexMainSupport string
}

// Trim trims every section and moves a leading preprocessor directive onto
// its own line.
func (s *Sections) Trim() {
	for _, p := range []*string{&s.FragmentHead, &s.FragmentMainUv, &s.FragmentMainImage, &s.VertexHead, &s.VertexMainSupport} {
		*p = trimSection(*p)
	}
}

func trimSection(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		s = "\n" + s
	}
	return s
}

// Fragment returns the effect fragment template with all sections substituted.
func (s Sections) Fragment() string {
	return strings.NewReplacer(
		FragmentHead, s.FragmentHead,
		FragmentMainUv, s.FragmentMainUv,
		FragmentMainImage, s.FragmentMainImage,
	).Replace(effectFragmentTemplate)
}

// Vertex returns the effect vertex template with all sections substituted.
func (s Sections) Vertex() string {
	return strings.NewReplacer(
		VertexHead, s.VertexHead,
		VertexMainSupport, s.VertexMainSupport,
	).Replace(effectVertexTemplate)
}

// Define is a preprocessor macro.
type Define struct {
	Name  string
	Value string
}

// Header builds the version line, extension directives and macro
// definitions that precede a program body.
func Header(extensions []string, defines []Define) string {
	var sb strings.Builder
	sb.WriteString(Version)
	sb.WriteString("\n")
	for _, ext := range extensions {
		fmt.Fprintf(&sb, "#extension %s : enable\n", ext)
	}
	for _, d := range defines {
		fmt.Fprintf(&sb, "#define %s %s\n", d.Name, d.Value)
	}
	sb.WriteString("\n")
	return sb.String()
}

// ───────────────────────────────── Copy program ────────────────────────────────

const commonVertexSource = `precision highp float;

layout(location = 0) in vec2 position;
out vec2 vUv;

void main() {
	vUv = position * 0.5 + 0.5;
	gl_Position = vec4(position, 1.0, 1.0);
}
`

const copyFragmentSource = `precision highp float;

uniform sampler2D inputBuffer;
uniform float opacity;

in vec2 vUv;
out vec4 fragColor;

void main() {
	vec4 texel = texture(inputBuffer, vUv);
	fragColor = opacity * texel;
}
`

// GenerateVertexShader returns the vertex shader shared by simple fullscreen
// passes.
func GenerateVertexShader() string {
	return Header(nil, nil) + commonVertexSource
}

// GetCopyFragmentShader returns a fragment shader that copies inputBuffer
// scaled by opacity.
func GetCopyFragmentShader() string {
	return Header(nil, nil) + copyFragmentSource
}
