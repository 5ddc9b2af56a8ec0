package api

import (
	"github.com/joeblew999/plat-symbology/internal/humastar"
	"github.com/joeblew999/plat-symbology/internal/mapview"
)

// links are the relations the OpenAPI walk cannot infer. They enable
// restish hypermedia navigation via `restish links <url>`.
var links = map[string][][2]string{
	"/health": {
		{"/api/v1/info", "info"},
	},
	"/api/v1/info": {
		{"/health", "health"},
		{mapview.SessionsPath, "sessions"},
	},
	mapview.SessionsPath + "/{id}/renderer": {
		{mapview.SessionsPath + "/{id}/style", "style"},
	},
	mapview.SessionsPath + "/{id}/style": {
		{mapview.SessionsPath + "/{id}/renderer", "renderer"},
	},
}

// NewLinks returns the Link header set seeded with the static links. Its
// Transformer goes into the huma config; call Generate once routes are
// registered. Viewer SSE endpoints get no generated links.
func NewLinks() *humastar.Links {
	l := humastar.NewLinks("/health", "viewer")
	for from, targets := range links {
		for _, t := range targets {
			l.Add(from, t[0], t[1])
		}
	}
	return l
}
