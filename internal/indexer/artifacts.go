package indexer

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/SakuraCase/perchwork-sub001/internal/graph"
	"github.com/SakuraCase/perchwork-sub001/internal/linker"
	"github.com/SakuraCase/perchwork-sub001/internal/registry"
)

// Artifact file names under the output directory.
const (
	IndexFile      = "index.json"
	CallGraphFile  = "callgraph.json"
	UnresolvedFile = "unresolved.json"
	RegistryFile   = "type_registry.json"
	FilesDir       = "files"
)

// registryDoc wraps the registry dump with a generation timestamp for the
// diagnostic artifact.
type registryDoc struct {
	GeneratedAt time.Time `json:"generated_at"`
	*registry.Dump
}

// writeArtifacts writes the index, call-graph, and diagnostic documents,
// plus one per-file document per analyzed file.
func (d *Driver) writeArtifacts(targetDir string, analyses []*graph.FileAnalysis, linked *linker.Result, unresolved []*graph.UnresolvedEdge, reg *registry.TypeRegistry) error {
	outDir := d.cfg.OutputDir
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	if err := writeDoc(filepath.Join(outDir, IndexFile),
		graph.NewIndexDoc(targetDir, analyses, len(linked.Edges))); err != nil {
		return err
	}
	if err := writeDoc(filepath.Join(outDir, CallGraphFile),
		graph.NewCallGraphDoc(linked.Edges)); err != nil {
		return err
	}
	if err := writeDoc(filepath.Join(outDir, UnresolvedFile),
		graph.NewUnresolvedSummary(unresolved, len(linked.Edges))); err != nil {
		return err
	}
	if err := writeDoc(filepath.Join(outDir, RegistryFile),
		&registryDoc{GeneratedAt: time.Now().UTC(), Dump: reg.DumpAll()}); err != nil {
		return err
	}

	for _, fa := range analyses {
		doc := &graph.FileDoc{Path: fa.Path, Items: fa.Items, Tests: fa.Tests}
		dest := filepath.Join(outDir, FilesDir, filepath.FromSlash(fa.Path)+".json")
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return fmt.Errorf("create file doc dir: %w", err)
		}
		if err := writeDoc(dest, doc); err != nil {
			return err
		}
	}
	return nil
}

func writeDoc(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := graph.WriteJSON(f, v); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
