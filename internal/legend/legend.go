// Package legend renders renderer entries as (swatch, label) items and
// tracks whether the legend is shown.
package legend

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"sync"

	"github.com/joeblew999/plat-symbology/internal/symbology"
	"github.com/joeblew999/plat-symbology/internal/templates"
)

// Swatch dimensions in CSS pixels.
const (
	SwatchWidth  = 20
	SwatchHeight = 5
)

// Options controls legend item rendering.
type Options struct {
	// EscapeLabels HTML-escapes labels. When false labels are inserted as markup.
	EscapeLabels bool
}

// Container is the render target for legend items. It mirrors a DOM element's
// inner content: a sequence of HTML children.
type Container struct {
	mu       sync.RWMutex
	children []string
}

// Clear removes all children.
func (c *Container) Clear() {
	c.mu.Lock()
	c.children = nil
	c.mu.Unlock()
}

// Replace swaps all children at once.
func (c *Container) Replace(children []string) {
	c.mu.Lock()
	c.children = children
	c.mu.Unlock()
}

// Len is the number of children.
func (c *Container) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.children)
}

// InnerHTML is the concatenated children, "" when empty.
func (c *Container) InnerHTML() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return strings.Join(c.children, "")
}

type itemData struct {
	Color  template.CSS
	Width  int
	Height int
	Label  any
}

// Render replaces the container's children with one item per entry, in
// entry order. Rendering the same entries twice leaves exactly len(entries)
// items. On error the container is left empty.
func Render(r *templates.Renderer, entries []symbology.RendererEntry, container *Container, opts Options) error {
	children := make([]string, 0, len(entries))
	var buf bytes.Buffer
	for i, e := range entries {
		buf.Reset()
		var label any = template.HTML(e.Label)
		if opts.EscapeLabels {
			label = e.Label
		}
		err := r.RenderToBuffer(&buf, "legend-item", itemData{
			Color:  template.CSS(e.Symbol.Color.CSS()),
			Width:  SwatchWidth,
			Height: SwatchHeight,
			Label:  label,
		})
		if err != nil {
			container.Clear()
			return fmt.Errorf("render legend item %d: %w", i, err)
		}
		children = append(children, buf.String())
	}
	container.Replace(children)
	return nil
}
