package symbology

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func entry(value, label string, color Color, width float64) RendererEntry {
	return RendererEntry{Value: value, Label: label, Symbol: Symbol{Color: color, Width: width}}
}

func TestColorCSS(t *testing.T) {
	Convey("Given renderer colors", t, func() {
		Convey("Then every component is joined verbatim", func() {
			So(Color{255, 0, 0, 255}.CSS(), ShouldEqual, "rgb(255,0,0,255)")
			So(Color{12, 34, 56}.CSS(), ShouldEqual, "rgb(12,34,56)")
		})

		Convey("Then fractional components are kept", func() {
			So(Color{0, 0, 0, 0.5}.CSS(), ShouldEqual, "rgb(0,0,0,0.5)")
		})

		Convey("Then an empty tuple still formats", func() {
			So(Color(nil).CSS(), ShouldEqual, "rgb()")
		})
	})
}

func TestResolveStyle(t *testing.T) {
	Convey("Given a renderer with one operative road entry", t, func() {
		entries := []RendererEntry{
			entry("Operative", "Operative Road", Color{255, 0, 0, 255}, 2),
		}

		Convey("When a feature matches", func() {
			style := ResolveStyle("Operative", entries)

			Convey("Then it gets the entry symbol", func() {
				So(style, ShouldResemble, Style{Color: "rgb(255,0,0,255)", Weight: 2})
			})
		})

		Convey("When a feature matches nothing", func() {
			style := ResolveStyle("Proposed", entries)

			Convey("Then it gets the fallback", func() {
				So(style, ShouldResemble, Style{Color: "black", Weight: 1})
			})
		})
	})

	Convey("Given entries sharing a discriminant", t, func() {
		entries := []RendererEntry{
			entry("Road", "first", Color{1, 2, 3, 255}, 1),
			entry("Other", "other", Color{9, 9, 9, 255}, 9),
			entry("Road", "second", Color{4, 5, 6, 255}, 4),
		}

		Convey("Then the first one always wins", func() {
			for i := 0; i < 10; i++ {
				So(ResolveStyle("Road", entries), ShouldResemble, Style{Color: "rgb(1,2,3,255)", Weight: 1})
			}
		})
	})

	Convey("Given no entries at all", t, func() {
		Convey("Then every discriminant degrades to the fallback", func() {
			So(ResolveStyle("", nil), ShouldResemble, Fallback)
			So(ResolveStyle("Operative", []RendererEntry{}), ShouldResemble, Fallback)
		})
	})

	Convey("Given the same inputs twice", t, func() {
		entries := []RendererEntry{entry("A", "a", Color{10, 20, 30, 255}, 3)}

		Convey("Then results are identical and the input is untouched", func() {
			first := ResolveStyle("A", entries)
			second := ResolveStyle("A", entries)
			So(first, ShouldResemble, second)
			So(entries[0].Symbol.Color, ShouldResemble, Color{10, 20, 30, 255})
		})
	})
}

func TestResolver(t *testing.T) {
	Convey("Given a resolver with an observer", t, func() {
		var outcomes []Outcome
		r := NewResolver([]RendererEntry{entry("A", "a", Color{1, 1, 1, 255}, 1)}, func(_ string, o Outcome) {
			outcomes = append(outcomes, o)
		})

		Convey("When resolving a hit and a miss", func() {
			hit := r.Resolve("A")
			miss := r.Resolve("B")

			Convey("Then styles match ResolveStyle and outcomes are reported", func() {
				So(hit, ShouldResemble, ResolveStyle("A", r.Entries()))
				So(miss, ShouldResemble, Fallback)
				So(outcomes, ShouldResemble, []Outcome{OutcomeMatch, OutcomeFallback})
			})
		})
	})

	Convey("Given a resolver without an observer", t, func() {
		r := NewResolver(nil, nil)

		Convey("Then it still resolves", func() {
			So(r.Resolve("x"), ShouldResemble, Fallback)
		})
	})
}

func TestDiscriminant(t *testing.T) {
	Convey("Given feature attribute values", t, func() {
		So(Discriminant("Operative"), ShouldEqual, "Operative")
		So(Discriminant(nil), ShouldEqual, "")
		So(Discriminant(float64(3)), ShouldEqual, "3")
		So(Discriminant(2.5), ShouldEqual, "2.5")
		So(Discriminant(true), ShouldEqual, "true")
		So(Discriminant(int64(7)), ShouldEqual, "7")
	})
}
