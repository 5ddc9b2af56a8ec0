package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/joeblew999/plat-symbology/internal/config"
	"github.com/joeblew999/plat-symbology/internal/mapview"
)

const roadsLayer = `{
  "drawingInfo": {
    "renderer": {
      "type": "uniqueValue",
      "field1": "current_st",
      "uniqueValueInfos": [
        {"value": "Operative", "label": "Operative Road", "symbol": {"color": [255, 0, 0, 255], "width": 2}},
        {"value": "Proposed", "label": "Proposed Road", "symbol": {"color": [0, 0, 255, 255], "width": 1.5}}
      ]
    }
  }
}`

var sessionInPage = regexp.MustCompile(`/api/v1/viewer/sessions/([0-9a-f-]{36})/legend`)

func newTestServer() (*httptest.Server, *httptest.Server) {
	return newTestServerWith(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(roadsLayer))
	}))
}

func newTestServerWith(h http.Handler) (*httptest.Server, *httptest.Server) {
	layer := httptest.NewServer(h)
	profile := config.New()
	profile.Layer.URL = layer.URL + "/MapServer/30"

	srv, err := New(Config{Host: "localhost", Port: "0"}, profile, nil)
	So(err, ShouldBeNil)
	return httptest.NewServer(srv), layer
}

// sseLines streams the body of an SSE response line by line.
func sseLines(body io.Reader) <-chan string {
	lines := make(chan string, 64)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(body)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()
	return lines
}

// waitFor reads lines until every wanted substring has been seen.
func waitFor(lines <-chan string, wants ...string) bool {
	ok, _ := readUntil(lines, wants...)
	return ok
}

// readUntil is waitFor that also returns every line read.
func readUntil(lines <-chan string, wants ...string) (bool, string) {
	var seen strings.Builder
	pending := make(map[string]bool, len(wants))
	for _, w := range wants {
		pending[w] = true
	}
	timeout := time.After(3 * time.Second)
	for len(pending) > 0 {
		select {
		case line, ok := <-lines:
			if !ok {
				return false, seen.String()
			}
			seen.WriteString(line + "\n")
			for w := range pending {
				if strings.Contains(line, w) {
					delete(pending, w)
				}
			}
		case <-timeout:
			return false, seen.String()
		}
	}
	return true, seen.String()
}

func TestServer(t *testing.T) {
	Convey("Given a running map server", t, func() {
		ts, layer := newTestServer()
		defer layer.Close()
		defer ts.Close()

		Convey("When the root is requested", func() {
			resp, err := http.Get(ts.URL + "/")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it reports the service status", func() {
				var body map[string]any
				So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
				So(body["service"], ShouldEqual, "plat-symbology")
				So(body["status"], ShouldEqual, "running")
			})
		})

		Convey("When the viewer page is loaded", func() {
			resp, err := http.Get(ts.URL + "/viewer")
			So(err, ShouldBeNil)
			page, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			html := string(page)

			Convey("Then it holds the map and the legend control", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(html, ShouldContainSubstring, `<div id="map"></div>`)
				So(html, ShouldContainSubstring, `id="legend-button"`)
				So(html, ShouldContainSubstring, `id="legend-content"`)
				So(html, ShouldContainSubstring, "esri-leaflet-vector")
				So(sessionInPage.MatchString(html), ShouldBeTrue)
			})

			Convey("Then its legend stream renders the entries and follows the toggle", func() {
				id := sessionInPage.FindStringSubmatch(html)[1]

				ctx, cancel := context.WithCancel(context.Background())
				defer cancel()
				req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+mapview.LegendStreamPath(id), nil)
				stream, err := http.DefaultClient.Do(req)
				So(err, ShouldBeNil)
				defer stream.Body.Close()
				So(stream.Header.Get("Content-Type"), ShouldStartWith, "text/event-stream")

				lines := sseLines(stream.Body)
				So(waitFor(lines, "#legend-content", "Operative Road", "Proposed Road", `"legendOpen":false`, `"styleReady":true`), ShouldBeTrue)

				toggle, err := http.Post(ts.URL+mapview.LegendTogglePath(id), "application/json", strings.NewReader("{}"))
				So(err, ShouldBeNil)
				toggled, _ := io.ReadAll(toggle.Body)
				toggle.Body.Close()
				So(string(toggled), ShouldContainSubstring, `"legendOpen":true`)
				So(waitFor(lines, `"legendOpen":true`), ShouldBeTrue)

				click, err := http.Post(ts.URL+mapview.MapClickPath(id), "application/json", nil)
				So(err, ShouldBeNil)
				click.Body.Close()
				So(click.StatusCode, ShouldEqual, http.StatusOK)
				So(waitFor(lines, `"legendOpen":false`), ShouldBeTrue)
			})
		})

		Convey("When a stream is opened for an unknown session", func() {
			resp, err := http.Get(ts.URL + mapview.LegendStreamPath("missing"))
			So(err, ShouldBeNil)
			resp.Body.Close()

			Convey("Then it is not found", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When metrics are scraped after a session", func() {
			_, err := http.Post(ts.URL+mapview.SessionsPath, "application/json", nil)
			So(err, ShouldBeNil)
			resp, err := http.Get(ts.URL + "/metrics")
			So(err, ShouldBeNil)
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()

			Convey("Then the session gauge is exposed", func() {
				So(string(body), ShouldContainSubstring, "symbology_sessions_active 1")
			})
		})
	})
}

func TestServerUnavailableMetadata(t *testing.T) {
	Convey("Given a server whose layer metadata fails", t, func() {
		ts, layer := newTestServerWith(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer layer.Close()
		defer ts.Close()

		resp, err := http.Post(ts.URL+mapview.SessionsPath, "application/json", nil)
		So(err, ShouldBeNil)
		var sess struct {
			ID string `json:"id"`
		}
		So(json.NewDecoder(resp.Body).Decode(&sess), ShouldBeNil)
		resp.Body.Close()

		Convey("When the legend stream is opened", func() {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+mapview.LegendStreamPath(sess.ID), nil)
			stream, err := http.DefaultClient.Do(req)
			So(err, ShouldBeNil)
			defer stream.Body.Close()
			lines := sseLines(stream.Body)

			Convey("Then it reports the failure, patches nothing and still follows the toggle", func() {
				ok, seen := readUntil(lines, `"error":"legend unavailable"`, `"legendOpen":false`, `"styleReady":false`)
				So(ok, ShouldBeTrue)

				toggle, err := http.Post(ts.URL+mapview.LegendTogglePath(sess.ID), "application/json", strings.NewReader("{}"))
				So(err, ShouldBeNil)
				toggle.Body.Close()
				ok, more := readUntil(lines, `"legendOpen":true`)
				So(ok, ShouldBeTrue)
				So(seen+more, ShouldNotContainSubstring, "#legend-content")

				features, err := http.Get(ts.URL + mapview.FeaturesPath(sess.ID))
				So(err, ShouldBeNil)
				features.Body.Close()
				So(features.StatusCode, ShouldEqual, http.StatusServiceUnavailable)
			})
		})
	})
}

func TestServerSweeper(t *testing.T) {
	Convey("Given a server with a short session TTL", t, func() {
		profile := config.New()
		profile.Layer.URL = "http://127.0.0.1:1/MapServer/30"
		profile.SessionTTL = time.Millisecond

		srv, err := New(Config{SweepInterval: 5 * time.Millisecond}, profile, nil)
		So(err, ShouldBeNil)
		srv.Composition().Start(context.Background())

		Convey("When the sweeper runs", func() {
			srv.Start(context.Background())
			defer srv.Close()

			Convey("Then idle sessions are ended", func() {
				deadline := time.Now().Add(2 * time.Second)
				for srv.Composition().Sessions() > 0 && time.Now().Before(deadline) {
					time.Sleep(5 * time.Millisecond)
				}
				So(srv.Composition().Sessions(), ShouldEqual, 0)
			})
		})
	})
}
