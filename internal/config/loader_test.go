package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/joeblew999/plat-symbology/internal/config"
)

func TestConfigLoader(t *testing.T) {
	Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx, "")

			Convey("Then the original map profile is used", func() {
				So(err, ShouldBeNil)
				So(cfg.Map.Container, ShouldEqual, "map")
				So(cfg.Map.Center, ShouldResemble, [2]float64{-41.2866, 174.7756})
				So(cfg.Map.Zoom, ShouldEqual, 13)
				So(cfg.Map.MinZoom, ShouldEqual, 2)
				So(cfg.Layer.Field, ShouldEqual, "current_st")
				So(cfg.Labels.Pane, ShouldEqual, "labels")
				So(cfg.Labels.ZIndex, ShouldEqual, 650)
				So(cfg.Legend.Button, ShouldEqual, "legend-button")
				So(cfg.Legend.Content, ShouldEqual, "legend-content")
				So(cfg.Fetch.Mode, ShouldEqual, config.FetchShared)
				So(cfg.Fetch.Timeout, ShouldEqual, time.Duration(0))
			})
		})

		Convey("When loading config with YAML file", func() {
			path := writeConfig(t, `
map:
  zoom: 10
  center: [-36.85, 174.76]
layer:
  url: https://example.com/arcgis/rest/services/Roads/MapServer/0
fetch:
  mode: independent
  timeout: 5s
legend:
  escape_labels: true
`)
			cfg, err := config.Load(ctx, path)

			Convey("Then file values override defaults and the rest is kept", func() {
				So(err, ShouldBeNil)
				So(cfg.Map.Zoom, ShouldEqual, 10)
				So(cfg.Map.MinZoom, ShouldEqual, 2)
				So(cfg.Map.Center, ShouldResemble, [2]float64{-36.85, 174.76})
				So(cfg.Layer.URL, ShouldEqual, "https://example.com/arcgis/rest/services/Roads/MapServer/0")
				So(cfg.Layer.Field, ShouldEqual, "current_st")
				So(cfg.Fetch.Mode, ShouldEqual, config.FetchIndependent)
				So(cfg.Fetch.Timeout, ShouldEqual, 5*time.Second)
				So(cfg.Legend.EscapeLabels, ShouldBeTrue)
			})

			Convey("And env vars override the file", func() {
				_ = os.Setenv("SYMBOLOGY_MAP__ZOOM", "15")
				_ = os.Setenv("SYMBOLOGY_BASEMAP__API_KEY", "secret")
				_ = os.Setenv("SYMBOLOGY_LOG_LEVEL", "debug")

				cfg, err := config.Load(ctx, path)
				So(err, ShouldBeNil)
				So(cfg.Map.Zoom, ShouldEqual, 15)
				So(cfg.Basemap.APIKey, ShouldEqual, "secret")
				So(cfg.LogLevel, ShouldEqual, "debug")
			})
		})

		Convey("When the file path comes from SYMBOLOGY_CONFIG", func() {
			path := writeConfig(t, "map:\n  min_zoom: 4\n")
			_ = os.Setenv("SYMBOLOGY_CONFIG", path)

			cfg, err := config.Load(ctx, "")
			So(err, ShouldBeNil)
			So(cfg.Map.MinZoom, ShouldEqual, 4)
		})

		Convey("When the file does not exist", func() {
			_, err := config.Load(ctx, filepath.Join(t.TempDir(), "missing.yaml"))

			So(errors.Is(err, config.ErrLoadConfig), ShouldBeTrue)
		})

		Convey("When the fetch mode is unknown", func() {
			_ = os.Setenv("SYMBOLOGY_FETCH__MODE", "twice")

			_, err := config.Load(ctx, "")
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("When the layer URL is relative", func() {
			_ = os.Setenv("SYMBOLOGY_LAYER__URL", "MapServer/30")

			_, err := config.Load(ctx, "")
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("When zoom is below min zoom", func() {
			_ = os.Setenv("SYMBOLOGY_MAP__ZOOM", "1")

			_, err := config.Load(ctx, "")
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})
	})
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "symbology.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearConfigEnvVars() {
	for _, key := range []string{
		"SYMBOLOGY_CONFIG",
		"SYMBOLOGY_MAP__ZOOM",
		"SYMBOLOGY_BASEMAP__API_KEY",
		"SYMBOLOGY_LOG_LEVEL",
		"SYMBOLOGY_FETCH__MODE",
		"SYMBOLOGY_LAYER__URL",
	} {
		_ = os.Unsetenv(key)
	}
}
