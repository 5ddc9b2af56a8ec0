package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-symbology/internal/arcgis"
	"github.com/joeblew999/plat-symbology/internal/config"
	"github.com/joeblew999/plat-symbology/internal/logger"
	"github.com/joeblew999/plat-symbology/internal/server"
	"github.com/joeblew999/plat-symbology/internal/symbology"
)

// Options defines all CLI flags and env vars for the map server.
// Flags: --host, --port, --config, --web-dir, --debug
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_CONFIG, SERVICE_WEB_DIR, SERVICE_DEBUG
type Options struct {
	Host   string `doc:"Host to bind to" default:"0.0.0.0"`
	Port   int    `doc:"Port to listen on" short:"p" default:"8086"`
	Config string `doc:"Path to a YAML map profile (overrides SYMBOLOGY_CONFIG)"`
	WebDir string `doc:"Path to web/ directory with static/ and template overrides"`
	Debug  bool   `doc:"Development logging"`
}

type app struct {
	profile *config.Config
	log     *zap.Logger
}

func setup(opts *Options) (*app, error) {
	profile, err := config.Load(context.Background(), opts.Config)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(profile.LogLevel, opts.Debug)
	if err != nil {
		return nil, err
	}
	return &app{profile: profile, log: log}, nil
}

func newServer(opts *Options, a *app) (*server.Server, error) {
	return server.New(server.Config{
		Host:   opts.Host,
		Port:   fmt.Sprintf("%d", opts.Port),
		WebDir: opts.WebDir,
	}, a.profile, a.log)
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		hooks.OnStart(func() {
			a, err := setup(opts)
			if err != nil {
				fatal("Startup error", err)
			}
			defer a.log.Sync()

			srv, err := newServer(opts, a)
			if err != nil {
				fatal("Startup error", err)
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			srv.Start(ctx)
			defer srv.Close()

			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			fmt.Println()
			fmt.Printf("plat-symbology map server starting...\n")
			fmt.Printf("  Server:  %s\n", baseURL)
			fmt.Printf("  Layer:   %s\n", a.profile.Layer.URL)
			fmt.Println()
			fmt.Printf("  Viewer:  %s/viewer\n", baseURL)
			fmt.Printf("  Docs:    %s/docs\n", baseURL)
			fmt.Printf("  OpenAPI: %s/openapi.json\n", baseURL)
			fmt.Printf("  Metrics: %s/metrics\n", baseURL)
			fmt.Println()

			hs := &http.Server{Addr: addr, Handler: srv, ReadHeaderTimeout: 10 * time.Second}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = hs.Shutdown(shutdownCtx)
			}()

			a.log.Info("listening", zap.String("addr", addr), zap.String("fetch_mode", a.profile.Fetch.Mode))
			if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Fatal("server error", zap.Error(err))
			}
		})
	})

	cli.Root().Use = "symbology"
	cli.Root().Short = "Map server styling an ArcGIS feature layer from its unique value renderer"
	cli.Root().Version = "0.1.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			a, err := setup(opts)
			if err != nil {
				fatal("Error loading config", err)
			}
			srv, err := newServer(opts, a)
			if err != nil {
				fatal("Error building server", err)
			}
			useYAML, _ := cmd.Flags().GetBool("yaml")
			output, err := marshal(srv.OpenAPI(), useYAML)
			if err != nil {
				fatal("Error marshaling spec", err)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// fetch subcommand: read the renderer once and print the legend it yields
	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the layer renderer and print its entries with resolved styles",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			a, err := setup(opts)
			if err != nil {
				fatal("Error loading config", err)
			}
			endpoint := a.profile.Layer.URL
			if u, _ := cmd.Flags().GetString("url"); u != "" {
				endpoint = u
			}

			client := arcgis.NewClient(arcgis.WithTimeout(a.profile.Fetch.Timeout), arcgis.WithLogger(a.log))
			layer, err := client.FetchLayer(cmd.Context(), endpoint)
			if err != nil {
				fatal("Error fetching metadata", err)
			}

			useYAML, _ := cmd.Flags().GetBool("yaml")
			output, err := marshal(newFetchReport(endpoint, layer), useYAML)
			if err != nil {
				fatal("Error marshaling entries", err)
			}
			fmt.Println(string(output))
		}),
	}
	fetchCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	fetchCmd.Flags().String("url", "", "Layer endpoint (defaults to the profile's layer.url)")
	cli.Root().AddCommand(fetchCmd)

	cli.Run()
}

type fetchEntry struct {
	Value string          `json:"value" yaml:"value"`
	Label string          `json:"label" yaml:"label"`
	Style symbology.Style `json:"style" yaml:"style"`
}

type fetchReport struct {
	URL      string       `json:"url" yaml:"url"`
	Renderer string       `json:"renderer" yaml:"renderer"`
	Field    string       `json:"field" yaml:"field"`
	Entries  []fetchEntry `json:"entries" yaml:"entries"`
}

func newFetchReport(endpoint string, layer *arcgis.Layer) fetchReport {
	r := fetchReport{
		URL:      endpoint,
		Renderer: layer.RendererType,
		Field:    layer.Field,
		Entries:  make([]fetchEntry, 0, len(layer.Entries)),
	}
	for _, e := range layer.Entries {
		r.Entries = append(r.Entries, fetchEntry{Value: e.Value, Label: e.Label, Style: symbology.StyleOf(e)})
	}
	return r
}

func marshal(v any, useYAML bool) ([]byte, error) {
	if useYAML {
		return yaml.Marshal(v)
	}
	return json.MarshalIndent(v, "", "  ")
}
