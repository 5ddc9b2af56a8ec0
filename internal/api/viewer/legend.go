// Package viewer contains the Datastar SSE handlers and the page behind the
// browser map viewer.
package viewer

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/joeblew999/plat-symbology/internal/humastar"
	"github.com/joeblew999/plat-symbology/internal/legend"
	"github.com/joeblew999/plat-symbology/internal/mapview"
	"github.com/joeblew999/plat-symbology/internal/service"
)

// Datastar signals driven by the legend stream.
const (
	OpenSignal  = "legendOpen" // bound to the legend content's data-show
	StyleSignal = "styleReady" // true once the styling metadata has loaded
)

type SessionInput struct {
	ID string `path:"id" doc:"Map session ID"`
}

type LegendStateBody struct {
	State      string `json:"state" enum:"hidden,visible" doc:"Legend visibility after the event"`
	LegendOpen bool   `json:"legendOpen" doc:"Whether the legend content is shown"`
}

// LegendHandler drives the legend control of a viewer session over SSE.
type LegendHandler struct {
	humastar.Handler
	comp *mapview.Composition
	log  *zap.Logger
}

func NewLegendHandler(comp *mapview.Composition, log *zap.Logger) *LegendHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &LegendHandler{
		Handler: humastar.Handler{Renderer: comp.Renderer()},
		comp:    comp,
		log:     log.Named("viewer"),
	}
}

func (h *LegendHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, mapview.ViewerPath+"/{id}/legend", h.Legend,
		huma.OperationTags("viewer"),
	)
	huma.Post(api, mapview.ViewerPath+"/{id}/legend/toggle", h.Toggle,
		huma.OperationTags("viewer"),
	)
	huma.Post(api, mapview.ViewerPath+"/{id}/click", h.Click,
		huma.OperationTags("viewer"),
	)
}

// Legend renders the legend into the content element once its metadata
// arrives, then follows the session's visibility and styling changes until
// the client goes away.
func (h *LegendHandler) Legend(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	sess, err := h.session(input.ID)
	if err != nil {
		return nil, err
	}
	selector := "#" + h.comp.Config().Legend.Content

	return h.Stream(func(sse humastar.SSE) {
		detach := sess.OpenStream()
		defer detach()

		bus := h.comp.Bus()
		ch := bus.Subscribe()
		defer bus.Unsubscribe(ch)

		html, err := sess.RenderLegend(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			_ = sse.Error("legend unavailable")
		} else if err := sse.Patch(html, selector); err != nil {
			h.log.Warn("legend patch failed", zap.String("session", sess.ID), zap.Error(err))
			return
		}
		if err := sse.Signals(openSignals(sess.LegendState())); err != nil {
			return
		}
		if st := sess.Status(); st.StylingReady {
			if err := h.sendStyle(sse, st); err != nil {
				return
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				if ev.Session != sess.ID {
					continue
				}
				var err error
				switch {
				case ev.Resource == service.ResourceLegend && (ev.Action == service.ActionVisible || ev.Action == service.ActionHidden):
					err = sse.Signals(openSignals(sess.LegendState()))
				case ev.Resource == service.ResourceStyle:
					err = h.sendStyle(sse, sess.Status())
				}
				if err != nil {
					return
				}
			}
		}
	}), nil
}

// Toggle handles a click on the legend button.
func (h *LegendHandler) Toggle(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	sess, err := h.session(input.ID)
	if err != nil {
		return nil, err
	}
	state := sess.ToggleLegend()
	return h.Stream(func(sse humastar.SSE) {
		_ = sse.Signals(openSignals(state))
	}), nil
}

// Click handles a click anywhere on the map, which hides the legend.
func (h *LegendHandler) Click(ctx context.Context, input *SessionInput) (*struct{ Body LegendStateBody }, error) {
	sess, err := h.session(input.ID)
	if err != nil {
		return nil, err
	}
	state := sess.ClickMap()
	return &struct{ Body LegendStateBody }{Body: LegendStateBody{
		State:      state.String(),
		LegendOpen: state == legend.Visible,
	}}, nil
}

func (h *LegendHandler) session(id string) (*mapview.Session, error) {
	sess, err := h.comp.Session(id)
	if errors.Is(err, mapview.ErrSessionNotFound) {
		return nil, huma.Error404NotFound("map session not found")
	}
	return sess, err
}

// sendStyle reports the styling fetch outcome to the page.
func (h *LegendHandler) sendStyle(sse humastar.SSE, st mapview.Status) error {
	if st.StylingError != "" {
		if err := sse.Error("styling unavailable"); err != nil {
			return err
		}
	}
	return sse.Signals(styleSignals(st))
}

func openSignals(state legend.State) map[string]any {
	return map[string]any{OpenSignal: state == legend.Visible}
}

func styleSignals(st mapview.Status) map[string]any {
	return map[string]any{StyleSignal: st.StylingReady && st.StylingError == ""}
}
