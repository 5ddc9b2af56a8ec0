package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-symbology/internal/config"
	"github.com/joeblew999/plat-symbology/internal/humastar"
)

type InfoHandler struct {
	cfg *config.Config
}

func NewInfoHandler(cfg *config.Config) *InfoHandler {
	return &InfoHandler{cfg: cfg}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name      string   `json:"name" doc:"Service name"`
	Version   string   `json:"version" doc:"Service version"`
	LayerURL  string   `json:"layer_url" doc:"Remote feature layer endpoint"`
	Field     string   `json:"field" doc:"Discriminant attribute; empty means the renderer's field1"`
	FetchMode string   `json:"fetch_mode" enum:"shared,independent" doc:"How styling and the legend obtain renderer metadata"`
	Features  []string `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *humastar.EmptyInput) (*struct{ Body InfoBody }, error) {
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:      "plat-symbology",
		Version:   "0.1.0",
		LayerURL:  h.cfg.Layer.URL,
		Field:     h.cfg.Layer.Field,
		FetchMode: h.cfg.Fetch.Mode,
		Features:  []string{"unique-value-styling", "legend", "geojson", "datastar"},
	}}, nil
}
