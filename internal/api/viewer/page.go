package viewer

import (
	"encoding/json"
	"maps"
	"net/http"

	"go.uber.org/zap"

	"github.com/joeblew999/plat-symbology/internal/mapview"
)

// PageData is what the viewer page template renders.
type PageData struct {
	Title   string
	Signals string
	View    mapview.View
	Control ControlData
}

// ControlData is the legend control fragment.
type ControlData struct {
	Button    string
	Content   string
	ToggleURL string
	StreamURL string
}

// PageHandler serves the viewer page. Every load opens a new map session.
type PageHandler struct {
	comp  *mapview.Composition
	log   *zap.Logger
	title string
}

func NewPageHandler(comp *mapview.Composition, log *zap.Logger, title string) *PageHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &PageHandler{comp: comp, log: log.Named("viewer"), title: title}
}

func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sess := h.comp.Start(r.Context())
	data, err := h.pageData(sess)
	if err != nil {
		h.log.Error("viewer page data", zap.Error(err))
		http.Error(w, "viewer unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := h.comp.Renderer().Execute(w, "viewer", data); err != nil {
		h.log.Error("viewer page render", zap.String("session", sess.ID), zap.Error(err))
	}
}

func (h *PageHandler) pageData(sess *mapview.Session) (PageData, error) {
	initial := openSignals(sess.LegendState())
	maps.Copy(initial, styleSignals(sess.Status()))
	signals, err := json.Marshal(initial)
	if err != nil {
		return PageData{}, err
	}
	view := h.comp.View(sess.ID)
	return PageData{
		Title:   h.title,
		Signals: string(signals),
		View:    view,
		Control: ControlData{
			Button:    view.Legend.Button,
			Content:   view.Legend.Content,
			ToggleURL: view.Legend.ToggleURL,
			StreamURL: view.Legend.StreamURL,
		},
	}, nil
}
