// Package mapview composes the map: basemap, the remote feature layer styled
// from its renderer, the label overlay and the legend, one session per map.
package mapview

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/joeblew999/plat-symbology/internal/arcgis"
	"github.com/joeblew999/plat-symbology/internal/config"
	"github.com/joeblew999/plat-symbology/internal/legend"
	"github.com/joeblew999/plat-symbology/internal/metrics"
	"github.com/joeblew999/plat-symbology/internal/service"
	"github.com/joeblew999/plat-symbology/internal/task"
	"github.com/joeblew999/plat-symbology/internal/templates"
)

var (
	ErrSessionNotFound    = errors.New("map session not found")
	ErrStylingUnavailable = errors.New("feature styling unavailable")
)

// Deps are the collaborators of a Composition. Nil fields get defaults.
type Deps struct {
	Client   *arcgis.Client
	Renderer *templates.Renderer
	Bus      *service.EventBus
	Metrics  *metrics.Manager
	Logger   *zap.Logger
}

// Composition is the application context shared by every map session.
type Composition struct {
	cfg      *config.Config
	client   *arcgis.Client
	renderer *templates.Renderer
	bus      *service.EventBus
	metrics  *metrics.Manager
	log      *zap.Logger
	sessions *SessionStore
}

// New creates a Composition for cfg.
func New(cfg *config.Config, deps Deps) *Composition {
	c := &Composition{
		cfg:      cfg,
		client:   deps.Client,
		renderer: deps.Renderer,
		bus:      deps.Bus,
		metrics:  deps.Metrics,
		log:      deps.Logger,
		sessions: NewSessionStore(),
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if c.metrics == nil {
		c.metrics = metrics.New()
	}
	if c.bus == nil {
		c.bus = service.NewEventBus()
	}
	if c.renderer == nil {
		c.renderer = templates.Must()
	}
	if c.client == nil {
		c.client = arcgis.NewClient(
			arcgis.WithTimeout(cfg.Fetch.Timeout),
			arcgis.WithLogger(c.log),
			arcgis.WithObserver(c.metrics.ObserveFetch),
		)
	}
	c.log = c.log.Named("mapview")
	return c
}

// Config returns the map profile.
func (c *Composition) Config() *config.Config { return c.cfg }

// Bus returns the session event bus.
func (c *Composition) Bus() *service.EventBus { return c.bus }

// Renderer returns the template renderer.
func (c *Composition) Renderer() *templates.Renderer { return c.renderer }

// Start opens a map session and issues its renderer metadata fetches.
// The fetches outlive ctx's cancellation; nothing aborts them.
func (c *Composition) Start(ctx context.Context) *Session {
	id := uuid.NewString()
	bg := context.WithoutCancel(ctx)

	sess := &Session{
		ID:      id,
		Created: time.Now(),
		comp:    c,
		log:     c.log.With(zap.String("session", id)),
		panel:   legend.NewPanel(c.renderer, legend.Options{EscapeLabels: c.cfg.Legend.EscapeLabels}),
	}
	sess.touch()

	sess.styling = task.Go(bg, c.fetchLayer(sess, service.ResourceStyle))
	if c.cfg.Fetch.Mode == config.FetchIndependent {
		sess.legendSrc = task.Go(bg, c.fetchLayer(sess, service.ResourceLegend))
	} else {
		sess.legendSrc = sess.styling
	}

	c.sessions.Add(sess)
	c.metrics.SetSessions(c.sessions.Len())
	c.log.Info("map session started",
		zap.String("session", id),
		zap.String("fetch_mode", c.cfg.Fetch.Mode))
	return sess
}

func (c *Composition) fetchLayer(sess *Session, purpose string) func(context.Context) (*arcgis.Layer, error) {
	return func(ctx context.Context) (*arcgis.Layer, error) {
		layer, err := c.client.FetchLayer(ctx, c.cfg.Layer.URL)
		if err != nil {
			sess.log.Error("Error fetching metadata",
				zap.String("purpose", purpose),
				zap.String("url", c.cfg.Layer.URL),
				zap.Error(err))
			if purpose == service.ResourceStyle {
				c.bus.Publish(service.Event{Session: sess.ID, Resource: purpose, Action: service.ActionFailed})
			}
			return nil, err
		}
		if purpose == service.ResourceStyle {
			c.bus.Publish(service.Event{Session: sess.ID, Resource: purpose, Action: service.ActionReady})
		}
		return layer, nil
	}
}

// Session returns an open session and marks it as seen.
func (c *Composition) Session(id string) (*Session, error) {
	sess, ok := c.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.touch()
	return sess, nil
}

// End closes a session.
func (c *Composition) End(id string) error {
	if !c.sessions.Delete(id) {
		return ErrSessionNotFound
	}
	c.metrics.SetSessions(c.sessions.Len())
	c.log.Info("map session ended", zap.String("session", id))
	return nil
}

// List returns the open sessions, oldest first.
func (c *Composition) List() []*Session {
	sessions := c.sessions.List()
	slices.SortFunc(sessions, func(a, b *Session) int { return a.Created.Compare(b.Created) })
	return sessions
}

// Sessions is the number of open sessions.
func (c *Composition) Sessions() int { return c.sessions.Len() }

// Sweep ends sessions idle longer than the configured TTL.
func (c *Composition) Sweep(now time.Time) int {
	if c.cfg.SessionTTL <= 0 {
		return 0
	}
	removed := c.sessions.Sweep(now, c.cfg.SessionTTL)
	if len(removed) > 0 {
		c.metrics.SetSessions(c.sessions.Len())
		c.log.Info("idle map sessions swept", zap.Int("count", len(removed)))
	}
	return len(removed)
}

// RunSweeper sweeps every interval until ctx is done.
func (c *Composition) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			c.Sweep(now)
		}
	}
}

// View returns the browser wiring for a session.
func (c *Composition) View(sessionID string) View {
	return newView(c.cfg, sessionID)
}
