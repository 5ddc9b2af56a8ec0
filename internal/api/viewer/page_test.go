package viewer

import (
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/joeblew999/plat-symbology/internal/config"
	"github.com/joeblew999/plat-symbology/internal/mapview"
)

func TestPageHandler(t *testing.T) {
	Convey("Given the viewer page handler", t, func() {
		cfg := config.New()
		cfg.Layer.URL = "http://127.0.0.1:1/MapServer/30"
		comp := mapview.New(cfg, mapview.Deps{})
		h := NewPageHandler(comp, nil, "Roads")

		Convey("When the page is requested", func() {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/viewer", nil))

			Convey("Then a session is opened and wired into the page", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Header().Get("Content-Type"), ShouldStartWith, "text/html")
				So(comp.Sessions(), ShouldEqual, 1)

				sess := comp.List()[0]
				body := rec.Body.String()
				So(body, ShouldContainSubstring, "<title>Roads</title>")
				So(body, ShouldContainSubstring, mapview.LegendStreamPath(sess.ID))
				So(body, ShouldContainSubstring, `data-show="$legendOpen"`)
			})
		})

		Convey("When page data is built", func() {
			sess := comp.Start(t.Context())
			data, err := h.pageData(sess)

			Convey("Then the legend starts hidden and points at the session", func() {
				So(err, ShouldBeNil)
				So(data.Signals, ShouldStartWith, `{"legendOpen":false,"styleReady":`)
				So(data.Control.Button, ShouldEqual, "legend-button")
				So(data.Control.Content, ShouldEqual, "legend-content")
				So(data.Control.ToggleURL, ShouldEqual, mapview.LegendTogglePath(sess.ID))
			})
		})
	})
}
