// Package template renders configuration templates with text/template and
// the sprig function library.
//
// It is used for the proxy's Caddyfile and for the arguments and
// environment of declared modules:
//
//	engine := template.New()
//	args, err := engine.RenderSlice("args", []string{"--port", "{{ .Port }}"}, data)
package template
