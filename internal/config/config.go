// Package config defines the map profile and loads it from defaults, an
// optional YAML file and SYMBOLOGY_* environment variables.
package config

import "time"

// Fetch modes for the remote renderer metadata.
const (
	// FetchShared fetches once per session and shares the entries between
	// styling and the legend.
	FetchShared = "shared"
	// FetchIndependent issues two unsynchronized fetches, one per consumer.
	FetchIndependent = "independent"
)

// Config is the map profile.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	Map     MapConfig     `koanf:"map"`
	Layer   LayerConfig   `koanf:"layer"`
	Basemap BasemapConfig `koanf:"basemap"`
	Labels  LabelsConfig  `koanf:"labels"`
	Legend  LegendConfig  `koanf:"legend"`
	Fetch   FetchConfig   `koanf:"fetch"`

	// SessionTTL bounds how long an idle map session is kept.
	SessionTTL time.Duration `koanf:"session_ttl"`
}

// MapConfig is the map canvas.
type MapConfig struct {
	Container string     `koanf:"container"`
	Center    [2]float64 `koanf:"center"`
	Zoom      int        `koanf:"zoom"`
	MinZoom   int        `koanf:"min_zoom"`
}

// LayerConfig is the remote feature layer.
type LayerConfig struct {
	URL string `koanf:"url"`
	// Field is the discriminant attribute. Empty means the renderer's field1.
	Field string `koanf:"field"`
	Where string `koanf:"where"`
}

// BasemapConfig is the vector basemap.
type BasemapConfig struct {
	Style  string `koanf:"style"`
	APIKey string `koanf:"api_key"`
}

// LabelsConfig is the label-only tile overlay and its pane.
type LabelsConfig struct {
	URL         string  `koanf:"url"`
	Subdomains  string  `koanf:"subdomains"`
	MaxZoom     int     `koanf:"max_zoom"`
	Opacity     float64 `koanf:"opacity"`
	Attribution string  `koanf:"attribution"`
	Pane        string  `koanf:"pane"`
	ZIndex      int     `koanf:"z_index"`
}

// LegendConfig is the legend control.
type LegendConfig struct {
	Button       string `koanf:"button"`
	Content      string `koanf:"content"`
	Position     string `koanf:"position"`
	EscapeLabels bool   `koanf:"escape_labels"`
}

// FetchConfig controls remote metadata reads.
type FetchConfig struct {
	Mode string `koanf:"mode"`
	// Timeout of zero leaves requests unbounded.
	Timeout time.Duration `koanf:"timeout"`
}

// New returns the default profile: the Wellington district plan road
// classification layer over an Esri vector basemap with CARTO labels.
func New() *Config {
	return &Config{
		LogLevel: "info",
		Map: MapConfig{
			Container: "map",
			Center:    [2]float64{-41.2866, 174.7756},
			Zoom:      13,
			MinZoom:   2,
		},
		Layer: LayerConfig{
			URL:   "https://gis.wcc.govt.nz/arcgis/rest/services/DistrictPlanProposed/DistrictPlanProposed/MapServer/30",
			Field: "current_st",
			Where: "1=1",
		},
		Basemap: BasemapConfig{
			Style: "b6748ab300af448db21ea90956d29949",
		},
		Labels: LabelsConfig{
			URL:         "https://{s}.basemaps.cartocdn.com/light_only_labels/{z}/{x}/{y}{r}.png",
			Subdomains:  "abcd",
			MaxZoom:     20,
			Opacity:     1,
			Attribution: `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors &copy; <a href="https://carto.com/attributions">CARTO</a>`,
			Pane:        "labels",
			ZIndex:      650,
		},
		Legend: LegendConfig{
			Button:   "legend-button",
			Content:  "legend-content",
			Position: "topright",
		},
		Fetch: FetchConfig{
			Mode: FetchShared,
		},
		SessionTTL: time.Hour,
	}
}
