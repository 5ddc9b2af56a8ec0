// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/joeblew999/plat-symbology/internal/humastar"
	"github.com/joeblew999/plat-symbology/internal/mapview"
	"github.com/joeblew999/plat-symbology/internal/symbology"
)

// GeoJSONContentType is the media type of the styled features.
const GeoJSONContentType = "application/geo+json"

// Types

type IDInput struct {
	ID string `path:"id" doc:"Map session ID" example:"6f1c2a5e-8f7b-4d7e-9a53-0c1f5d1b2e77"`
}

type StyleInput struct {
	IDInput
	Value string `query:"value" doc:"Discriminant value of a feature; empty matches only an empty entry value" example:"Operative"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

type MessageBody struct {
	Message string `json:"message" doc:"Result message"`
}

// SessionBody is a map session with its browser wiring.
type SessionBody struct {
	mapview.Status
	View mapview.View `json:"view" doc:"Map wiring for this session"`
}

var sessionActions = []humastar.ActionDef{
	{Rel: "features", Path: mapview.FeaturesPath, Method: http.MethodGet, Title: "Styled features"},
	{Rel: "legend", Path: mapview.LegendStreamPath, Method: http.MethodGet, Title: "Legend stream"},
	{Rel: "toggle-legend", Path: mapview.LegendTogglePath, Method: http.MethodPost, Title: "Toggle the legend"},
	{Rel: "map-click", Path: mapview.MapClickPath, Method: http.MethodPost, Title: "Click the map"},
	{Rel: "end", Path: func(id string) string { return mapview.SessionsPath + "/" + id }, Method: http.MethodDelete, Title: "End the session"},
}

// Actions lists what can be done with the session.
func (b SessionBody) Actions() []humastar.Action {
	return humastar.ActionsFor(b.ID, sessionActions)
}

type SessionOutput struct {
	Body SessionBody
}

type RendererBody struct {
	Field   string                    `json:"field" doc:"Discriminant attribute" example:"current_st"`
	Entries []symbology.RendererEntry `json:"entries" doc:"Unique value entries in source order"`
}

type FeaturesOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// APIHandler holds the REST handlers for map sessions. Methods named
// Register* are called by RegisterAll.
type APIHandler struct {
	comp *mapview.Composition
	log  *zap.Logger
}

func NewAPIHandler(comp *mapview.Composition, log *zap.Logger) *APIHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &APIHandler{comp: comp, log: log.Named("api")}
}

// RegisterAll registers every route group.
func (h *APIHandler) RegisterAll(api huma.API) {
	h.RegisterHealth(api)
	h.RegisterSessions(api)
	h.RegisterSymbology(api)
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterSessions registers map session routes.
func (h *APIHandler) RegisterSessions(api huma.API) {
	huma.Get(api, mapview.SessionsPath, h.ListSessions, huma.OperationTags("sessions"))
	huma.Post(api, mapview.SessionsPath, h.CreateSession, huma.OperationTags("sessions"),
		func(o *huma.Operation) { o.DefaultStatus = http.StatusCreated })
	huma.Get(api, mapview.SessionsPath+"/{id}", h.GetSession, huma.OperationTags("sessions"))
	huma.Delete(api, mapview.SessionsPath+"/{id}", h.DeleteSession, huma.OperationTags("sessions"))
}

// RegisterSymbology registers renderer, style and feature routes.
func (h *APIHandler) RegisterSymbology(api huma.API) {
	huma.Get(api, mapview.SessionsPath+"/{id}/renderer", h.GetRenderer, huma.OperationTags("symbology"))
	huma.Get(api, mapview.SessionsPath+"/{id}/style", h.GetStyle, huma.OperationTags("symbology"))
	huma.Register(api, huma.Operation{
		OperationID: "get-features",
		Method:      http.MethodGet,
		Path:        mapview.SessionsPath + "/{id}/features",
		Summary:     "Get styled features",
		Description: "Queries the remote layer and returns its features as GeoJSON, each with a style property.",
		Tags:        []string{"symbology"},
		Responses: map[string]*huma.Response{
			"200": {
				Description: "Styled FeatureCollection",
				Content:     map[string]*huma.MediaType{GeoJSONContentType: {}},
			},
		},
	}, h.GetFeatures)
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *humastar.EmptyInput) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: "1.0.0"}}, nil
}

func (h *APIHandler) ListSessions(ctx context.Context, input *humastar.EmptyInput) (*struct{ Body []mapview.Status }, error) {
	sessions := h.comp.List()
	out := make([]mapview.Status, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Status())
	}
	return &struct{ Body []mapview.Status }{Body: out}, nil
}

func (h *APIHandler) CreateSession(ctx context.Context, input *humastar.EmptyInput) (*SessionOutput, error) {
	sess := h.comp.Start(ctx)
	return &SessionOutput{Body: h.sessionBody(sess)}, nil
}

func (h *APIHandler) GetSession(ctx context.Context, input *IDInput) (*SessionOutput, error) {
	sess, err := h.comp.Session(input.ID)
	if err != nil {
		return nil, h.toHumaError(err)
	}
	return &SessionOutput{Body: h.sessionBody(sess)}, nil
}

func (h *APIHandler) DeleteSession(ctx context.Context, input *IDInput) (*struct{ Body MessageBody }, error) {
	if err := h.comp.End(input.ID); err != nil {
		return nil, h.toHumaError(err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Session ended"}}, nil
}

func (h *APIHandler) GetRenderer(ctx context.Context, input *IDInput) (*struct{ Body RendererBody }, error) {
	sess, err := h.comp.Session(input.ID)
	if err != nil {
		return nil, h.toHumaError(err)
	}
	entries, err := sess.Entries(ctx)
	if err != nil {
		return nil, h.toHumaError(err)
	}
	field, err := sess.Field(ctx)
	if err != nil {
		return nil, h.toHumaError(err)
	}
	return &struct{ Body RendererBody }{Body: RendererBody{Field: field, Entries: entries}}, nil
}

func (h *APIHandler) GetStyle(ctx context.Context, input *StyleInput) (*struct{ Body symbology.Style }, error) {
	sess, err := h.comp.Session(input.ID)
	if err != nil {
		return nil, h.toHumaError(err)
	}
	st, err := sess.Style(ctx, input.Value)
	if err != nil {
		return nil, h.toHumaError(err)
	}
	return &struct{ Body symbology.Style }{Body: st}, nil
}

func (h *APIHandler) GetFeatures(ctx context.Context, input *IDInput) (*FeaturesOutput, error) {
	sess, err := h.comp.Session(input.ID)
	if err != nil {
		return nil, h.toHumaError(err)
	}
	fc, err := sess.Features(ctx)
	if err != nil {
		return nil, h.toHumaError(err)
	}
	body, err := fc.MarshalJSON()
	if err != nil {
		return nil, huma.Error500InternalServerError("encode features", err)
	}
	return &FeaturesOutput{ContentType: GeoJSONContentType, Body: body}, nil
}

func (h *APIHandler) sessionBody(sess *mapview.Session) SessionBody {
	return SessionBody{Status: sess.Status(), View: h.comp.View(sess.ID)}
}

// toHumaError maps domain errors to HTTP problems.
func (h *APIHandler) toHumaError(err error) error {
	switch {
	case errors.Is(err, mapview.ErrSessionNotFound):
		return huma.Error404NotFound("map session not found")
	case errors.Is(err, mapview.ErrStylingUnavailable):
		return huma.Error503ServiceUnavailable("feature styling unavailable", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return huma.Error504GatewayTimeout("request ended before the remote layer answered", err)
	default:
		h.log.Error("remote layer request failed", zap.Error(err))
		return huma.Error502BadGateway("remote layer request failed", err)
	}
}
