package humastar

import (
	"fmt"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/danielgtaylor/huma/v2"
)

// Links holds RFC 8288 Link header values keyed by operation path.
type Links struct {
	mu    sync.RWMutex
	byOp  map[string][]string
	entry string
	skip  string
}

// NewLinks creates an empty link set. entry is the entry-point path that
// links to every collection; operations tagged skip get no generated links.
func NewLinks(entry, skip string) *Links {
	return &Links{byOp: map[string][]string{}, entry: entry, skip: skip}
}

// Add registers a link from one operation path to a target.
func (l *Links) Add(from, to, rel string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.add(from, to, rel)
}

// For returns the links of an operation path.
func (l *Links) For(opPath string) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.byOp[opPath])
}

// Root returns the entry-point links, for non-Huma handlers.
func (l *Links) Root() []string {
	return l.For(l.entry)
}

// Generate walks the OpenAPI paths and derives collection, item, up and
// describedby links. Call after all routes are registered.
func (l *Links) Generate(api huma.API) {
	oapi := api.OpenAPI()

	l.mu.Lock()
	defer l.mu.Unlock()

	var collections, items []string
	for p, pi := range oapi.Paths {
		if slices.Contains(primaryTags(pi), l.skip) {
			continue
		}
		if strings.Contains(p, "{") {
			items = append(items, p)
		} else {
			collections = append(collections, p)
		}
	}
	slices.Sort(collections)
	slices.Sort(items)

	// Item to its parent: the collection when it exists, else the nearest item.
	for _, item := range items {
		parent := path.Dir(item)
		if _, ok := oapi.Paths[parent]; !ok {
			continue
		}
		if strings.Contains(parent, "{") {
			l.add(item, parent, "up")
			continue
		}
		l.add(item, parent, "collection")
		l.add(item, parent, "up")
		l.add(parent, item, "item")
	}

	for _, coll := range collections {
		if coll == l.entry {
			continue
		}
		l.add(coll, l.entry, "up")
		l.add(l.entry, coll, lastSegment(coll))
	}
	l.add(l.entry, "/openapi.json", "describedby")
	l.add(l.entry, "/openapi.json", "service-desc")
	l.add(l.entry, "/docs", "service-doc")

	for p, pi := range oapi.Paths {
		headers, ok := l.byOp[p]
		if !ok {
			continue
		}
		for _, op := range operationsOf(pi) {
			if op != nil {
				injectResponseLinks(op, headers)
			}
		}
	}
}

// Transformer returns a Huma Transformer that writes the Link headers of the
// current operation, a self link for item paths, and any response actions.
func (l *Links) Transformer() huma.Transformer {
	return func(ctx huma.Context, status string, v any) (any, error) {
		op := ctx.Operation()
		if op == nil {
			return v, nil
		}

		for _, link := range l.For(op.Path) {
			ctx.AppendHeader("Link", link)
		}
		if strings.Contains(op.Path, "{") {
			ctx.AppendHeader("Link", fmt.Sprintf(`<%s>; rel="self"`, ctx.URL().Path))
		}
		if a, ok := v.(Actor); ok {
			for _, action := range a.Actions() {
				ctx.AppendHeader("Link", action.LinkHeader())
			}
		}
		return v, nil
	}
}

func (l *Links) add(from, to, rel string) {
	val := fmt.Sprintf(`<%s>; rel="%s"`, to, rel)
	if slices.Contains(l.byOp[from], val) {
		return
	}
	l.byOp[from] = append(l.byOp[from], val)
}

func primaryTags(pi *huma.PathItem) []string {
	for _, op := range operationsOf(pi) {
		if op != nil && len(op.Tags) > 0 {
			return op.Tags
		}
	}
	return nil
}

func operationsOf(pi *huma.PathItem) []*huma.Operation {
	return []*huma.Operation{pi.Get, pi.Post, pi.Put, pi.Patch, pi.Delete}
}

func lastSegment(p string) string {
	parts := strings.Split(strings.TrimRight(p, "/"), "/")
	return parts[len(parts)-1]
}

// injectResponseLinks documents the links on the operation's 2xx response.
func injectResponseLinks(op *huma.Operation, headers []string) {
	if op.Responses == nil {
		return
	}
	var resp *huma.Response
	for code, r := range op.Responses {
		if strings.HasPrefix(code, "2") {
			resp = r
			break
		}
	}
	if resp == nil {
		return
	}
	if resp.Links == nil {
		resp.Links = map[string]*huma.Link{}
	}
	for _, h := range headers {
		rel, href := parseLinkHeader(h)
		if rel == "" {
			continue
		}
		resp.Links[rel] = &huma.Link{
			OperationRef: href,
			Description:  fmt.Sprintf("Related: %s", rel),
		}
	}
}

func parseLinkHeader(h string) (rel, href string) {
	parts := strings.SplitN(h, ";", 2)
	if len(parts) < 2 {
		return "", ""
	}
	href = strings.Trim(strings.TrimSpace(parts[0]), "<>")
	relPart := strings.TrimSpace(parts[1])
	if strings.HasPrefix(relPart, `rel="`) {
		rel = strings.Trim(relPart[4:], `"`)
	}
	return rel, href
}
