package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"
)

// IndexVersion is the format version stamped into the global index document.
const IndexVersion = "1.0"

// FileDoc is the per-file document consumed by the rendering layer. Edges
// are deliberately absent: the renderer joins files to the call-graph
// document by item id.
type FileDoc struct {
	Path  string           `json:"path"`
	Items []*ExtractedItem `json:"items"`
	Tests []*TestInfo      `json:"tests"`
}

// IndexStats summarizes an index document.
type IndexStats struct {
	TotalFiles int `json:"total_files"`
	TotalItems int `json:"total_items"`
	TotalTests int `json:"total_tests"`
	TotalEdges int `json:"total_edges"`
}

// IndexDoc is the global index document.
type IndexDoc struct {
	Version     string     `json:"version"`
	GeneratedAt time.Time  `json:"generated_at"`
	TargetDir   string     `json:"target_dir"`
	Stats       IndexStats `json:"stats"`
	Files       []*FileDoc `json:"files"`
}

// CallGraphDoc holds the resolved call edges. Edges whose target could not
// be mapped to an item id never appear here.
type CallGraphDoc struct {
	GeneratedAt time.Time   `json:"generated_at"`
	TotalEdges  int         `json:"total_edges"`
	Edges       []*CallEdge `json:"edges"`
}

// UnresolvedSummary is the diagnostic document grouping unresolved edges by
// reason and by method name. It is not consumed by the rendering layer.
type UnresolvedSummary struct {
	GeneratedAt     time.Time         `json:"generated_at"`
	TotalUnresolved int               `json:"total_unresolved"`
	ByReason        map[string]int    `json:"by_reason"`
	ByMethod        map[string]int    `json:"by_method"`
	ResolutionRate  float64           `json:"resolution_rate"`
	Edges           []*UnresolvedEdge `json:"edges"`
}

// NewIndexDoc assembles the global index document from per-file analyses.
// Files are sorted by path so repeated runs produce identical output.
func NewIndexDoc(targetDir string, files []*FileAnalysis, totalEdges int) *IndexDoc {
	doc := &IndexDoc{
		Version:     IndexVersion,
		GeneratedAt: time.Now().UTC(),
		TargetDir:   targetDir,
	}
	sorted := make([]*FileAnalysis, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	for _, fa := range sorted {
		doc.Files = append(doc.Files, &FileDoc{
			Path:  fa.Path,
			Items: fa.Items,
			Tests: fa.Tests,
		})
		doc.Stats.TotalItems += len(fa.Items)
		doc.Stats.TotalTests += len(fa.Tests)
	}
	doc.Stats.TotalFiles = len(sorted)
	doc.Stats.TotalEdges = totalEdges
	return doc
}

// NewCallGraphDoc assembles the call-graph document, sorting edges for
// stable output.
func NewCallGraphDoc(edges []*CallEdge) *CallGraphDoc {
	sorted := make([]*CallEdge, len(edges))
	copy(sorted, edges)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].From != sorted[j].From {
			return sorted[i].From < sorted[j].From
		}
		if sorted[i].To != sorted[j].To {
			return sorted[i].To < sorted[j].To
		}
		return sorted[i].Line < sorted[j].Line
	})
	return &CallGraphDoc{
		GeneratedAt: time.Now().UTC(),
		TotalEdges:  len(sorted),
		Edges:       sorted,
	}
}

// NewUnresolvedSummary groups unresolved edges for diagnostics. resolved is
// the count of call sites that produced a resolved edge; the rate is
// resolved / (resolved + unresolved).
func NewUnresolvedSummary(unresolved []*UnresolvedEdge, resolved int) *UnresolvedSummary {
	s := &UnresolvedSummary{
		GeneratedAt:     time.Now().UTC(),
		TotalUnresolved: len(unresolved),
		ByReason:        make(map[string]int),
		ByMethod:        make(map[string]int),
		Edges:           unresolved,
	}
	for _, u := range unresolved {
		s.ByReason[string(u.Reason)]++
		s.ByMethod[u.Method]++
	}
	if resolved+len(unresolved) > 0 {
		s.ResolutionRate = float64(resolved) / float64(resolved+len(unresolved))
	}
	return s
}

// WriteJSON writes v to w as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// fileDocEnvelope covers the two persisted per-file document shapes seen in
// the wild: a flat {path, items, tests} document and a nested
// {files: [...]} collection. Exactly one of the shapes is expected; the
// envelope makes the choice explicit instead of sniffing raw JSON.
type fileDocEnvelope struct {
	Path  string           `json:"path"`
	Items []*ExtractedItem `json:"items"`
	Tests []*TestInfo      `json:"tests"`
	Files []*FileDoc       `json:"files"`
}

// DecodeFileDocs reads per-file documents from r, accepting either the flat
// or the nested document shape.
func DecodeFileDocs(r io.Reader) ([]*FileDoc, error) {
	var env fileDocEnvelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode file document: %w", err)
	}
	if env.Files != nil {
		return env.Files, nil
	}
	if env.Path == "" {
		return nil, fmt.Errorf("decode file document: neither flat nor nested shape")
	}
	return []*FileDoc{{Path: env.Path, Items: env.Items, Tests: env.Tests}}, nil
}
