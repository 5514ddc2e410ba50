package scene

import (
	"fmt"
	"sort"
)

var builtins = map[string]string{
	// animated plasma over a tilted ground plane with depth
	"plasma": `float groundDepth(vec2 uv) {
	return mix(0.35, 0.98, uv.y);
}

void mainImage(out vec4 fragColor, in vec2 fragCoord) {
	vec2 uv = fragCoord / iResolution.xy;
	vec2 p = uv * 6.0 - 3.0;
	float v = sin(p.x + iTime) + sin(p.y * 1.3 - iTime * 0.7) + sin(length(p) * 2.0 - iTime * 1.5);
	vec3 col = 0.5 + 0.5 * cos(vec3(0.0, 2.1, 4.2) + v);
	col *= 0.6 + 0.4 * (1.0 - groundDepth(uv));
	fragColor = vec4(col, 1.0);
}

float mainDepth(in vec2 fragCoord) {
	return groundDepth(fragCoord / iResolution.xy);
}
`,
	// a pulsing disc, used as a stencil mask
	"disc": `void mainImage(out vec4 fragColor, in vec2 fragCoord) {
	vec2 p = (2.0 * fragCoord - iResolution.xy) / iResolution.y;
	float r = 0.5 + 0.1 * sin(iTime * 2.0);
	if (length(p) > r) {
		discard;
	}
	fragColor = vec4(1.0);
}
`,
	// horizontal color bars, handy for checking blend functions
	"bars": `void mainImage(out vec4 fragColor, in vec2 fragCoord) {
	vec2 uv = fragCoord / iResolution.xy;
	float band = floor(uv.x * 8.0) / 7.0;
	vec3 col = vec3(band, 1.0 - band, abs(sin(uv.y * 3.14159 + iTime)));
	fragColor = vec4(col, 1.0);
}
`,
}

// Builtins returns the names of the built-in scenes.
func Builtins() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtin returns a new instance of the named built-in scene.
func Builtin(name string) (*ShaderScene, error) {
	src, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown scene %q, expected one of %v", name, Builtins())
	}
	return New(name, src)
}
