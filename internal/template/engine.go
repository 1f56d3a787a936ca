package template

import (
	"bytes"
	"fmt"
	"sort"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// Engine renders text/template strings with the sprig function library.
// Missing keys are an error rather than "<no value>".
type Engine struct {
	funcs template.FuncMap
}

// New creates a new template engine
func New() *Engine {
	return &Engine{funcs: sprig.TxtFuncMap()}
}

// Parse compiles text once so it can be executed repeatedly.
func (e *Engine) Parse(name, text string) (*template.Template, error) {
	tmpl, err := template.New(name).Funcs(e.funcs).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}
	return tmpl, nil
}

// Render executes text against data.
func (e *Engine) Render(name, text string, data interface{}) (string, error) {
	tmpl, err := e.Parse(name, text)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return buf.String(), nil
}

// RenderSlice renders every element of values.
func (e *Engine) RenderSlice(name string, values []string, data interface{}) ([]string, error) {
	if values == nil {
		return nil, nil
	}

	out := make([]string, len(values))
	for i, value := range values {
		rendered, err := e.Render(fmt.Sprintf("%s[%d]", name, i), value, data)
		if err != nil {
			return nil, err
		}
		out[i] = rendered
	}
	return out, nil
}

// RenderMap renders every value of values. Keys are left untouched.
func (e *Engine) RenderMap(name string, values map[string]string, data interface{}) (map[string]string, error) {
	if values == nil {
		return nil, nil
	}

	// Render in key order so the first error is deterministic.
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make(map[string]string, len(values))
	for _, key := range keys {
		rendered, err := e.Render(fmt.Sprintf("%s.%s", name, key), values[key], data)
		if err != nil {
			return nil, err
		}
		out[key] = rendered
	}
	return out, nil
}
