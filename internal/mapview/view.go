package mapview

import (
	"github.com/joeblew999/plat-symbology/internal/config"
)

// View is the map wiring handed to the browser for one session, in
// composition order: canvas, panes, basemap, feature layer, labels, legend.
type View struct {
	Map          MapView          `json:"map" doc:"Map canvas"`
	Panes        []Pane           `json:"panes" doc:"Extra rendering panes"`
	Basemap      BasemapView      `json:"basemap" doc:"Vector basemap"`
	FeatureLayer FeatureLayerView `json:"featureLayer" doc:"Remote feature layer"`
	Labels       LabelsView       `json:"labels" doc:"Label-only tile overlay"`
	Legend       LegendView       `json:"legend" doc:"Legend control"`
}

// MapView is the canvas bound to a DOM container.
type MapView struct {
	Container string     `json:"container" doc:"DOM element ID" example:"map"`
	Center    [2]float64 `json:"center" doc:"Initial [lat, lng]"`
	Zoom      int        `json:"zoom" doc:"Initial zoom" example:"13"`
	MinZoom   int        `json:"minZoom" doc:"Minimum zoom" example:"2"`
}

// Pane is a layered rendering surface stacked by ZIndex.
type Pane struct {
	Name          string `json:"name" doc:"Pane name" example:"labels"`
	ZIndex        int    `json:"zIndex" doc:"Stacking order" example:"650"`
	PointerEvents string `json:"pointerEvents" doc:"CSS pointer-events" example:"none"`
}

// BasemapView is the keyed vector basemap.
type BasemapView struct {
	Style  string `json:"style" doc:"Basemap style or item ID"`
	APIKey string `json:"apiKey" doc:"Static basemap API key"`
}

// FeatureLayerView is the remote layer and where its styled features are served.
type FeatureLayerView struct {
	URL         string `json:"url" doc:"Remote layer endpoint"`
	Field       string `json:"field" doc:"Discriminant attribute" example:"current_st"`
	FeaturesURL string `json:"featuresUrl" doc:"Styled GeoJSON for this session"`
}

// LabelsView is the label tile overlay.
type LabelsView struct {
	URL          string  `json:"url" doc:"Tile URL template"`
	Subdomains   string  `json:"subdomains" doc:"Tile subdomains" example:"abcd"`
	MaxZoom      int     `json:"maxZoom" doc:"Maximum zoom" example:"20"`
	Opacity      float64 `json:"opacity" doc:"Overlay opacity" example:"1"`
	Attribution  string  `json:"attribution" doc:"Attribution markup"`
	Pane         string  `json:"pane" doc:"Pane to render into" example:"labels"`
	BringToFront bool    `json:"bringToFront" doc:"Raise above the feature layer whenever it is added"`
}

// LegendView is the legend control and its session endpoints.
type LegendView struct {
	Button    string `json:"button" doc:"Toggle button ID" example:"legend-button"`
	Content   string `json:"content" doc:"Legend content ID" example:"legend-content"`
	Position  string `json:"position" doc:"Control corner" example:"topright"`
	ToggleURL string `json:"toggleUrl" doc:"Toggle endpoint"`
	ClickURL  string `json:"clickUrl" doc:"Map click endpoint"`
	StreamURL string `json:"streamUrl" doc:"Legend SSE stream"`
}

// Session endpoint paths. The api packages register the matching patterns.
const (
	SessionsPath = "/api/v1/sessions"
	ViewerPath   = "/api/v1/viewer/sessions"
)

func FeaturesPath(id string) string     { return SessionsPath + "/" + id + "/features" }
func LegendStreamPath(id string) string { return ViewerPath + "/" + id + "/legend" }
func LegendTogglePath(id string) string { return ViewerPath + "/" + id + "/legend/toggle" }
func MapClickPath(id string) string     { return ViewerPath + "/" + id + "/click" }

func newView(cfg *config.Config, sessionID string) View {
	return View{
		Map: MapView{
			Container: cfg.Map.Container,
			Center:    cfg.Map.Center,
			Zoom:      cfg.Map.Zoom,
			MinZoom:   cfg.Map.MinZoom,
		},
		Panes: []Pane{{
			Name:          cfg.Labels.Pane,
			ZIndex:        cfg.Labels.ZIndex,
			PointerEvents: "none",
		}},
		Basemap: BasemapView{
			Style:  cfg.Basemap.Style,
			APIKey: cfg.Basemap.APIKey,
		},
		FeatureLayer: FeatureLayerView{
			URL:         cfg.Layer.URL,
			Field:       cfg.Layer.Field,
			FeaturesURL: FeaturesPath(sessionID),
		},
		Labels: LabelsView{
			URL:          cfg.Labels.URL,
			Subdomains:   cfg.Labels.Subdomains,
			MaxZoom:      cfg.Labels.MaxZoom,
			Opacity:      cfg.Labels.Opacity,
			Attribution:  cfg.Labels.Attribution,
			Pane:         cfg.Labels.Pane,
			BringToFront: true,
		},
		Legend: LegendView{
			Button:    cfg.Legend.Button,
			Content:   cfg.Legend.Content,
			Position:  cfg.Legend.Position,
			ToggleURL: LegendTogglePath(sessionID),
			ClickURL:  MapClickPath(sessionID),
			StreamURL: LegendStreamPath(sessionID),
		},
	}
}
