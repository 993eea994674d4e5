// Package linker runs the post-pass edge resolution phase: it maps every
// call edge's textual target to a concrete item id using a global name
// index built from all extracted items.
package linker

import (
	"strings"

	"github.com/SakuraCase/perchwork-sub001/internal/graph"
)

// Index is the global name-to-id lookup. Every item registers its bare
// name; methods additionally register their Owner::method form. Later
// registrations overwrite earlier ones on collision, a documented
// imprecision the registry accepts. Tests are excluded: by convention they
// are edge sources only, never targets.
type Index struct {
	byName map[string]string
}

// BuildIndex constructs the name index from the complete item set.
func BuildIndex(files []*graph.FileAnalysis) *Index {
	ix := &Index{byName: make(map[string]string)}
	for _, fa := range files {
		for _, item := range fa.Items {
			ix.byName[item.Name] = item.ID
			if item.Kind == graph.KindMethod && item.ImplFor != "" {
				ix.byName[item.ImplFor+"::"+item.Name] = item.ID
			}
		}
	}
	return ix
}

// Resolve maps a textual call target to an item id. Order: exact match
// first, then the last two ::-delimited segments when the target carries a
// longer qualification. There is deliberately no bare-method-name fallback:
// it resolved calls into unrelated types that happened to share a method
// name, so unmatched targets stay unmatched.
func (ix *Index) Resolve(target string) (string, bool) {
	if id, ok := ix.byName[target]; ok {
		return id, true
	}
	parts := strings.Split(target, "::")
	if len(parts) > 2 {
		short := strings.Join(parts[len(parts)-2:], "::")
		if id, ok := ix.byName[short]; ok {
			return id, true
		}
	}
	return "", false
}

// Result holds the outcome of the linking phase.
type Result struct {
	Edges   []*graph.CallEdge // resolved: To now holds an item id
	Dropped int               // targets outside the analyzed codebase
}

// Link resolves every edge's target against the index. Edges that resolve
// to nothing are treated as calls to code outside the analyzed codebase and
// dropped from the final graph, not reported as errors.
func Link(edges []*graph.CallEdge, ix *Index) *Result {
	res := &Result{}
	for _, e := range edges {
		id, ok := ix.Resolve(e.To)
		if !ok {
			res.Dropped++
			continue
		}
		res.Edges = append(res.Edges, &graph.CallEdge{
			From:    e.From,
			To:      id,
			File:    e.File,
			Line:    e.Line,
			Context: e.Context,
		})
	}
	return res
}
