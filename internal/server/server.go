package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"go.uber.org/zap"

	"github.com/joeblew999/plat-symbology/internal/api"
	"github.com/joeblew999/plat-symbology/internal/api/viewer"
	"github.com/joeblew999/plat-symbology/internal/arcgis"
	"github.com/joeblew999/plat-symbology/internal/config"
	"github.com/joeblew999/plat-symbology/internal/humastar"
	"github.com/joeblew999/plat-symbology/internal/mapview"
	"github.com/joeblew999/plat-symbology/internal/metrics"
	"github.com/joeblew999/plat-symbology/internal/service"
	"github.com/joeblew999/plat-symbology/internal/templates"
)

// Title is the viewer page title.
const Title = "Road Classification"

// Config holds the server configuration.
type Config struct {
	Host   string
	Port   string
	WebDir string // Optional web/ directory with static/ and template overrides

	// SweepInterval is how often idle map sessions are swept. Zero means a minute.
	SweepInterval time.Duration
}

// Server is the map HTTP server.
type Server struct {
	config  Config
	mux     *http.ServeMux
	humaAPI huma.API
	links   *humastar.Links
	comp    *mapview.Composition
	metrics *metrics.Manager
	log     *zap.Logger
	base    *zap.Logger

	stop context.CancelFunc
	wg   sync.WaitGroup
}

// New creates a map server for the given profile.
func New(cfg Config, profile *config.Config, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	base := log
	log = log.Named("server")

	renderer, err := templates.New()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if cfg.WebDir != "" {
		if err := renderer.Reload(cfg.WebDir); err == nil {
			log.Info("loaded templates", zap.String("dir", filepath.Join(cfg.WebDir, "templates")))
		}
	}

	m := metrics.New()
	client := arcgis.NewClient(
		arcgis.WithTimeout(profile.Fetch.Timeout),
		arcgis.WithLogger(base),
		arcgis.WithObserver(m.ObserveFetch),
	)
	comp := mapview.New(profile, mapview.Deps{
		Client:   client,
		Renderer: renderer,
		Bus:      service.NewEventBus(),
		Metrics:  m,
		Logger:   base,
	})

	mux := http.NewServeMux()
	links := api.NewLinks()

	// Create Huma API with humago (pure stdlib) adapter
	humaConfig := huma.DefaultConfig("plat-symbology API", "1.0.0")
	humaConfig.Info.Description = "Map sessions over an ArcGIS feature layer styled from its unique value renderer."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append([]huma.Transformer{links.Transformer()}, humaConfig.Transformers...)

	s := &Server{
		config:  cfg,
		mux:     mux,
		humaAPI: humago.New(mux, humaConfig),
		links:   links,
		comp:    comp,
		metrics: m,
		log:     log,
		base:    base,
	}
	s.routes()
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// OpenAPI returns the API description.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Composition exposes the map composition.
func (s *Server) Composition() *mapview.Composition {
	return s.comp
}

// Start runs the session sweeper until Close.
func (s *Server) Start(ctx context.Context) {
	interval := s.config.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ctx, s.stop = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.comp.RunSweeper(ctx, interval)
	}()
}

// Close stops the sweeper.
func (s *Server) Close() error {
	if s.stop != nil {
		s.stop()
	}
	s.wg.Wait()
	return nil
}

func (s *Server) routes() {
	// Huma REST API routes (OpenAPI-documented JSON endpoints)
	api.NewAPIHandler(s.comp, s.base).RegisterAll(s.humaAPI)
	api.NewInfoHandler(s.comp.Config()).RegisterRoutes(s.humaAPI)

	// Viewer SSE routes using Huma + Datastar SDK
	viewer.NewLegendHandler(s.comp, s.base).RegisterRoutes(s.humaAPI)

	s.links.Generate(s.humaAPI)

	s.mux.Handle("/metrics", s.metrics.Handler())

	if s.config.WebDir != "" {
		staticDir := filepath.Join(s.config.WebDir, "static")
		s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	}

	// Page routes
	s.mux.Handle("/viewer", viewer.NewPageHandler(s.comp, s.base, Title))
	s.mux.HandleFunc("/", s.handleRoot)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	for _, link := range s.links.Root() {
		w.Header().Add("Link", link)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"service":  "plat-symbology",
		"status":   "running",
		"sessions": s.comp.Sessions(),
	})
}
