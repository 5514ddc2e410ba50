// Package translator converts the GLSL ES 3.00 programs generated by the
// post-processing core into the dialect of the current context.
package translator

import (
	"context"
	"fmt"
	"sync"

	gst "github.com/richinsley/goshadertranslator"
)

var (
	once       sync.Once
	translator *gst.ShaderTranslator
	initErr    error
)

// GetTranslator returns the process wide translator, creating it on first
// use.
func GetTranslator() (*gst.ShaderTranslator, error) {
	once.Do(func() {
		translator, initErr = gst.NewShaderTranslator(context.Background())
	})
	return translator, initErr
}

// Shader is a translated shader stage.
type Shader struct {
	Code string
	// Variables maps the original names of active variables to their
	// translated declarations.
	Variables map[string]gst.ShaderVariable
}

// Translate converts a "vertex" or "fragment" stage to desktop GLSL 4.10,
// or to ESSL when gles is set.
func Translate(source, stage string, gles bool) (*Shader, error) {
	t, err := GetTranslator()
	if err != nil {
		return nil, fmt.Errorf("failed to create shader translator: %w", err)
	}
	outputFormat := gst.OutputFormatGLSL410
	if gles {
		outputFormat = gst.OutputFormatESSL
	}
	res, err := t.TranslateShader(source, stage, gst.ShaderSpecWebGL2, outputFormat)
	if err != nil {
		return nil, fmt.Errorf("%s shader translation failed: %w", stage, err)
	}
	return &Shader{Code: res.Code, Variables: res.Variables}, nil
}

// MappedName returns the translated name of a uniform. Arrays may be
// reported under their first element. Unknown names are returned as is.
func (s *Shader) MappedName(name string) (string, bool) {
	if v, ok := s.Variables[name]; ok {
		return v.MappedName, true
	}
	if v, ok := s.Variables[name+"[0]"]; ok {
		return v.MappedName, true
	}
	return name, false
}
