package mapview

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/joeblew999/plat-symbology/internal/arcgis"
	"github.com/joeblew999/plat-symbology/internal/legend"
	"github.com/joeblew999/plat-symbology/internal/service"
	"github.com/joeblew999/plat-symbology/internal/symbology"
	"github.com/joeblew999/plat-symbology/internal/task"
)

// StyleProperty is the feature property styled features carry their paint in.
const StyleProperty = "style"

// Session is one map session: its metadata tasks and its legend.
// In shared fetch mode styling and legendSrc are the same task.
type Session struct {
	ID      string
	Created time.Time

	comp      *Composition
	log       *zap.Logger
	styling   *task.Future[*arcgis.Layer]
	legendSrc *task.Future[*arcgis.Layer]
	panel     *legend.Panel
	lastSeen  atomic.Int64
	streams   atomic.Int32
}

// Status is a snapshot of a session.
type Status struct {
	ID           string    `json:"id" doc:"Session ID"`
	Created      time.Time `json:"created" doc:"Session start"`
	LegendState  string    `json:"legendState" enum:"hidden,visible" doc:"Legend visibility"`
	LegendItems  int       `json:"legendItems" doc:"Rendered legend items"`
	StylingReady bool      `json:"stylingReady" doc:"Whether the styling metadata fetch has completed"`
	StylingError string    `json:"stylingError,omitempty" doc:"Styling fetch failure, if any"`
	SharedFetch  bool      `json:"sharedFetch" doc:"Whether styling and legend share one fetch"`
}

// Status returns the current session snapshot.
func (s *Session) Status() Status {
	st := Status{
		ID:           s.ID,
		Created:      s.Created,
		LegendState:  s.panel.State().String(),
		LegendItems:  s.panel.Items(),
		StylingReady: s.styling.Ready(),
		SharedFetch:  s.styling == s.legendSrc,
	}
	if err := s.styling.Err(); err != nil {
		st.StylingError = err.Error()
	}
	return st
}

// Resolver waits for the styling metadata and returns a resolver over its entries.
func (s *Session) Resolver(ctx context.Context) (*symbology.Resolver, error) {
	layer, err := s.styling.Await(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStylingUnavailable, err)
	}
	return symbology.NewResolver(layer.Entries, s.observeStyle), nil
}

func (s *Session) observeStyle(d string, outcome symbology.Outcome) {
	s.comp.metrics.ObserveStyle(string(outcome))
	if outcome == symbology.OutcomeFallback {
		s.log.Debug("no renderer entry for feature, using fallback style", zap.String("value", d))
	}
}

// Entries returns the renderer entries used for styling.
func (s *Session) Entries(ctx context.Context) ([]symbology.RendererEntry, error) {
	r, err := s.Resolver(ctx)
	if err != nil {
		return nil, err
	}
	return r.Entries(), nil
}

// Style resolves a single discriminant value.
func (s *Session) Style(ctx context.Context, d string) (symbology.Style, error) {
	r, err := s.Resolver(ctx)
	if err != nil {
		return symbology.Style{}, err
	}
	return r.Resolve(d), nil
}

// Field is the discriminant attribute: the configured field, else the renderer's field1.
func (s *Session) Field(ctx context.Context) (string, error) {
	if f := s.comp.cfg.Layer.Field; f != "" {
		return f, nil
	}
	layer, err := s.styling.Await(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStylingUnavailable, err)
	}
	return layer.Field, nil
}

// StyleFeatures writes a Style into every feature's StyleProperty. Every
// feature gets exactly one style.
func (s *Session) StyleFeatures(ctx context.Context, fc *geojson.FeatureCollection) error {
	r, err := s.Resolver(ctx)
	if err != nil {
		return err
	}
	field, err := s.Field(ctx)
	if err != nil {
		return err
	}
	for _, f := range fc.Features {
		if f.Properties == nil {
			f.Properties = geojson.Properties{}
		}
		f.Properties[StyleProperty] = r.Resolve(symbology.Discriminant(f.Properties[field]))
	}
	return nil
}

// Features queries the remote layer while the styling metadata loads, then
// styles the result. No feature is returned unstyled.
func (s *Session) Features(ctx context.Context) (*geojson.FeatureCollection, error) {
	if err := s.styling.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStylingUnavailable, err)
	}

	var fc *geojson.FeatureCollection

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.Resolver(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		fc, err = s.comp.client.QueryFeatures(gctx, s.comp.cfg.Layer.URL, s.comp.cfg.Layer.Where, "*")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := s.StyleFeatures(ctx, fc); err != nil {
		return nil, err
	}
	return fc, nil
}

// RenderLegend waits for the legend metadata and renders it into the session
// panel. On failure the error is logged and the panel is left as it was
// (empty until a render succeeds).
func (s *Session) RenderLegend(ctx context.Context) (string, error) {
	layer, err := s.legendSrc.Await(ctx)
	if err == nil {
		err = s.panel.Render(layer.Entries)
	}
	if ctx.Err() != nil {
		return s.panel.HTML(), err
	}
	s.comp.metrics.ObserveLegendRender(err)
	if err != nil {
		s.log.Error("Legend not rendered", zap.Error(err))
		s.comp.bus.Publish(service.Event{Session: s.ID, Resource: service.ResourceLegend, Action: service.ActionFailed})
		return s.panel.HTML(), err
	}
	s.comp.bus.Publish(service.Event{Session: s.ID, Resource: service.ResourceLegend, Action: service.ActionRendered})
	return s.panel.HTML(), nil
}

// LegendHTML is the current legend content.
func (s *Session) LegendHTML() string { return s.panel.HTML() }

// LegendState is the current legend visibility.
func (s *Session) LegendState() legend.State { return s.panel.State() }

// ToggleLegend handles a legend-button click.
func (s *Session) ToggleLegend() legend.State {
	return s.transition("toggle", s.panel.Toggle())
}

// ClickMap handles a click on the map, which always hides the legend.
func (s *Session) ClickMap() legend.State {
	return s.transition("map_click", s.panel.MapClick())
}

func (s *Session) transition(trigger string, state legend.State) legend.State {
	s.comp.metrics.ObserveLegendTransition(trigger, state.String())
	action := service.ActionHidden
	if state == legend.Visible {
		action = service.ActionVisible
	}
	s.comp.bus.Publish(service.Event{Session: s.ID, Resource: service.ResourceLegend, Action: action})
	return state
}

// OpenStream marks a viewer stream as attached; the returned func detaches it.
func (s *Session) OpenStream() func() {
	s.streams.Add(1)
	return func() {
		s.streams.Add(-1)
		s.touch()
	}
}

// LastSeen is the last time the session was accessed.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

func (s *Session) touch() {
	s.lastSeen.Store(time.Now().UnixNano())
}

func (s *Session) streaming() bool {
	return s.streams.Load() > 0
}
