package arcgis

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/joeblew999/plat-symbology/internal/symbology"
)

// Request kinds reported to the Observer.
const (
	KindMetadata = "metadata"
	KindFeatures = "features"
)

// Observer is called once per remote request with its outcome.
type Observer func(kind string, err error, elapsed time.Duration)

// Client reads ArcGIS REST layer endpoints.
type Client struct {
	http     *http.Client
	log      *zap.Logger
	observer Observer
	timeout  time.Duration
	queries  singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds each request. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithObserver sets the request observer.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// NewClient creates a client. By default requests have no timeout.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http: &http.Client{},
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	c.log = c.log.Named("arcgis")
	return c
}

// FetchRendererEntries reads <endpoint>?f=json and returns its unique value entries.
func (c *Client) FetchRendererEntries(ctx context.Context, endpoint string) ([]symbology.RendererEntry, error) {
	layer, err := c.FetchLayer(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	return layer.Entries, nil
}

// FetchLayer reads and parses the layer metadata document.
func (c *Client) FetchLayer(ctx context.Context, endpoint string) (layer *Layer, err error) {
	start := time.Now()
	defer func() { c.observe(KindMetadata, err, start) }()

	u, err := withQuery(endpoint, url.Values{"f": {"json"}})
	if err != nil {
		return nil, err
	}
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	layer, err = ParseLayer(body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", endpoint, err)
	}

	c.log.Debug("layer metadata fetched",
		zap.String("url", endpoint),
		zap.String("renderer", layer.RendererType),
		zap.Int("entries", len(layer.Entries)))
	return layer, nil
}

// QueryFeatures reads <endpoint>/query as GeoJSON. Concurrent identical
// queries share one request; each caller gets its own decoded copy. A caller
// whose ctx ends stops waiting, while the shared request runs on for the rest.
func (c *Client) QueryFeatures(ctx context.Context, endpoint, where, outFields string) (fc *geojson.FeatureCollection, err error) {
	start := time.Now()
	defer func() { c.observe(KindFeatures, err, start) }()

	if where == "" {
		where = "1=1"
	}
	if outFields == "" {
		outFields = "*"
	}
	base, err := url.JoinPath(endpoint, "query")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	u, err := withQuery(base, url.Values{
		"where":     {where},
		"outFields": {outFields},
		"outSR":     {"4326"},
		"f":         {"geojson"},
	})
	if err != nil {
		return nil, err
	}

	ch := c.queries.DoChan(u, func() (any, error) {
		return c.get(context.WithoutCancel(ctx), u)
	})
	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		return nil, res.Err
	}
	if res.Shared {
		c.log.Debug("feature query shared", zap.String("url", u))
	}

	fc, err = geojson.UnmarshalFeatureCollection(res.Val.([]byte))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return fc, nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: %w: %d", u, ErrHTTPStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", u, err)
	}
	return body, nil
}

func (c *Client) observe(kind string, err error, start time.Time) {
	if c.observer != nil {
		c.observer(kind, err, time.Since(start))
	}
}

func withQuery(endpoint string, params url.Values) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("%w: endpoint %q: %v", ErrMalformed, endpoint, err)
	}
	q := u.Query()
	for k, v := range params {
		q[k] = v
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
