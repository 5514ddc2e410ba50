package effects

import (
	"fmt"
)

// Params holds effect settings as decoded from a pipeline file.
type Params map[string]any

// Float returns the named number, or def when it is absent.
func (p Params) Float(name string, def float32) (float32, error) {
	v, ok := p[name]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return float32(n), nil
	case float32:
		return n, nil
	case int64:
		return float32(n), nil
	case int:
		return float32(n), nil
	}
	return def, fmt.Errorf("parameter %q: expected a number, got %T", name, v)
}

// Int returns the named integer, or def when it is absent.
func (p Params) Int(name string, def int) (int, error) {
	v, ok := p[name]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case int64:
		return int(n), nil
	case int:
		return n, nil
	case float64:
		if n == float64(int(n)) {
			return int(n), nil
		}
	}
	return def, fmt.Errorf("parameter %q: expected an integer, got %v", name, v)
}

// Bool returns the named flag, or def when it is absent.
func (p Params) Bool(name string, def bool) (bool, error) {
	v, ok := p[name]
	if !ok {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return def, fmt.Errorf("parameter %q: expected a boolean, got %T", name, v)
	}
	return b, nil
}

// String returns the named string, or def when it is absent.
func (p Params) String(name string, def string) (string, error) {
	v, ok := p[name]
	if !ok {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return def, fmt.Errorf("parameter %q: expected a string, got %T", name, v)
	}
	return s, nil
}
