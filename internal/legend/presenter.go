package legend

import (
	"github.com/joeblew999/plat-symbology/internal/symbology"
	"github.com/joeblew999/plat-symbology/internal/templates"
)

// Presenter is the presentation surface for a legend.
type Presenter interface {
	Render(entries []symbology.RendererEntry) error
	Show()
	Hide()
}

// Panel is the in-memory Presenter: a Container plus its Visibility.
type Panel struct {
	renderer   *templates.Renderer
	opts       Options
	container  Container
	visibility Visibility
}

var _ Presenter = (*Panel)(nil)

// NewPanel creates a hidden, empty panel.
func NewPanel(r *templates.Renderer, opts Options) *Panel {
	return &Panel{renderer: r, opts: opts}
}

func (p *Panel) Render(entries []symbology.RendererEntry) error {
	return Render(p.renderer, entries, &p.container, p.opts)
}

func (p *Panel) Show() {
	p.visibility.show()
}

func (p *Panel) Hide() {
	p.visibility.MapClick()
}

// Toggle forwards a toggle-button click.
func (p *Panel) Toggle() State { return p.visibility.Toggle() }

// MapClick forwards a map click.
func (p *Panel) MapClick() State { return p.visibility.MapClick() }

// State is the current visibility.
func (p *Panel) State() State { return p.visibility.State() }

// HTML is the container content.
func (p *Panel) HTML() string { return p.container.InnerHTML() }

// Items is the number of rendered legend items.
func (p *Panel) Items() int { return p.container.Len() }
