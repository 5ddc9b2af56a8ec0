// Package symbology holds the renderer data model and resolves feature styles from it.
package symbology

import (
	"strconv"
	"strings"
)

// Color is an RGBA-like numeric tuple as delivered by the remote renderer.
type Color []float64

// CSS returns the color as a CSS rgb() string, joining every component as given.
// A four-component tuple keeps its alpha: [255,0,0,255] → "rgb(255,0,0,255)".
func (c Color) CSS() string {
	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return "rgb(" + strings.Join(parts, ",") + ")"
}

// Symbol is the paint part of a renderer entry.
type Symbol struct {
	Color Color   `json:"color" doc:"RGBA color tuple" example:"[255,0,0,255]"`
	Width float64 `json:"width" doc:"Stroke width" example:"2"`
}

// RendererEntry is one row of a unique value renderer.
type RendererEntry struct {
	Value  string `json:"value" doc:"Discriminant attribute value" example:"Operative"`
	Label  string `json:"label" doc:"Display text" example:"Operative Road"`
	Symbol Symbol `json:"symbol" doc:"Paint symbol"`
}

// Style is the paint applied to a single rendered feature.
type Style struct {
	Color  string  `json:"color" doc:"CSS color" example:"rgb(255,0,0,255)"`
	Weight float64 `json:"weight" doc:"Stroke weight" example:"2"`
}

// Fallback is used for features whose discriminant matches no entry.
var Fallback = Style{Color: "black", Weight: 1}

// StyleOf converts an entry's symbol into a Style.
func StyleOf(e RendererEntry) Style {
	return Style{Color: e.Symbol.Color.CSS(), Weight: e.Symbol.Width}
}
