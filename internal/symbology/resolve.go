package symbology

import (
	"fmt"
	"strconv"
)

// ResolveStyle returns the style of the first entry whose value equals d,
// or Fallback when none does. It never fails.
func ResolveStyle(d string, entries []RendererEntry) Style {
	style, _ := lookup(d, entries)
	return style
}

func lookup(d string, entries []RendererEntry) (Style, bool) {
	for _, e := range entries {
		if e.Value == d {
			return StyleOf(e), true
		}
	}
	return Fallback, false
}

// Outcome tells an Observer whether a resolution matched an entry.
type Outcome string

const (
	OutcomeMatch    Outcome = "match"
	OutcomeFallback Outcome = "fallback"
)

// Observer is notified after every resolution.
type Observer func(d string, outcome Outcome)

// Resolver binds an entry list so the per-feature styling hook only passes
// the discriminant.
type Resolver struct {
	entries  []RendererEntry
	observer Observer
}

// NewResolver creates a resolver over entries. observer may be nil.
func NewResolver(entries []RendererEntry, observer Observer) *Resolver {
	return &Resolver{entries: entries, observer: observer}
}

// Resolve resolves a single discriminant.
func (r *Resolver) Resolve(d string) Style {
	style, ok := lookup(d, r.entries)
	if r.observer != nil {
		outcome := OutcomeFallback
		if ok {
			outcome = OutcomeMatch
		}
		r.observer(d, outcome)
	}
	return style
}

// Entries returns the bound entry list.
func (r *Resolver) Entries() []RendererEntry {
	return r.entries
}

// Discriminant converts a feature attribute value into the string compared
// against RendererEntry.Value.
func Discriminant(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
