package humastar

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLinks(t *testing.T) {
	Convey("Given a link set", t, func() {
		l := NewLinks("/health", "viewer")

		Convey("When the same link is added twice", func() {
			l.Add("/health", "/api/v1/sessions", "sessions")
			l.Add("/health", "/api/v1/sessions", "sessions")

			Convey("Then it is kept once and served as a root link", func() {
				So(l.Root(), ShouldResemble, []string{`</api/v1/sessions>; rel="sessions"`})
				So(l.For("/missing"), ShouldBeEmpty)
			})
		})

		Convey("When a header value is parsed", func() {
			rel, href := parseLinkHeader(`</api/v1/sessions/{id}>; rel="item"`)

			Convey("Then rel and target are split out", func() {
				So(rel, ShouldEqual, "item")
				So(href, ShouldEqual, "/api/v1/sessions/{id}")
			})
		})
	})
}

func TestActions(t *testing.T) {
	Convey("Given action templates", t, func() {
		defs := []ActionDef{
			{Rel: "toggle-legend", Path: func(id string) string { return "/s/" + id + "/legend/toggle" }, Method: "POST", Title: "Toggle the legend"},
			{Rel: "legend", Path: func(id string) string { return "/s/" + id + "/legend" }},
		}

		Convey("When actions are built for a session", func() {
			actions := ActionsFor("abc", defs)

			Convey("Then each carries its resolved URL", func() {
				So(actions, ShouldHaveLength, 2)
				So(actions[0].LinkHeader(), ShouldEqual, `</s/abc/legend/toggle>; rel="toggle-legend"; method="POST"; title="Toggle the legend"`)
				So(actions[1].LinkHeader(), ShouldEqual, `</s/abc/legend>; rel="legend"`)
			})
		})
	})
}
