// Package templates renders the viewer page and the HTML fragments patched in over Datastar SSE.
package templates

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

//go:embed fragments/*.html pages/*.html
var embedded embed.FS

// Renderer manages page and fragment templates.
type Renderer struct {
	templates *template.Template
	mu        sync.RWMutex
}

// New creates a renderer from the embedded templates.
func New() (*Renderer, error) {
	tmpl, err := parse(embedded)
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: tmpl}, nil
}

// Must is New for package-level wiring and tests; the embedded set always parses.
func Must() *Renderer {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

// Render renders a named template to a string.
func (r *Renderer) Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.Execute(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderToBuffer renders a named template to a buffer.
func (r *Renderer) RenderToBuffer(buf *bytes.Buffer, name string, data any) error {
	return r.Execute(buf, name, data)
}

// Execute renders a named template to w.
func (r *Renderer) Execute(w io.Writer, name string, data any) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.templates.ExecuteTemplate(w, name, data)
}

// Reload replaces the templates with those under webDir/templates, which
// must mirror the embedded fragments/ and pages/ layout.
func (r *Renderer) Reload(webDir string) error {
	root := filepath.Join(webDir, "templates")
	if _, err := os.Stat(root); err != nil {
		return err
	}
	tmpl, err := parse(os.DirFS(root))
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.templates = tmpl
	r.mu.Unlock()

	return nil
}

func parse(fsys fs.FS) (*template.Template, error) {
	return template.New("").ParseFS(fsys, "fragments/*.html", "pages/*.html")
}
