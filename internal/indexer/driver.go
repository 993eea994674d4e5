// Package indexer orchestrates analysis runs: full-codebase and
// changed-files-only. Both modes rebuild the type registry and the name
// index from the complete item set; only the per-file passes are scoped.
package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/SakuraCase/perchwork-sub001/internal/config"
	"github.com/SakuraCase/perchwork-sub001/internal/extract"
	"github.com/SakuraCase/perchwork-sub001/internal/graph"
	"github.com/SakuraCase/perchwork-sub001/internal/linker"
	"github.com/SakuraCase/perchwork-sub001/internal/registry"
	"github.com/SakuraCase/perchwork-sub001/internal/resolve"
	"github.com/SakuraCase/perchwork-sub001/internal/scan"
	"github.com/SakuraCase/perchwork-sub001/internal/store"
)

// Config holds dependencies for the Driver.
type Config struct {
	Cfg      *config.Config
	Snapshot *store.SnapshotStore
	Verbose  bool
	Logger   func(format string, args ...any) // defaults to stderr
}

// RunStats summarizes one analysis run.
type RunStats struct {
	Files      int      `json:"files"`
	Items      int      `json:"items"`
	Tests      int      `json:"tests"`
	Resolved   int      `json:"resolved_edges"`
	Unresolved int      `json:"unresolved_edges"`
	Dropped    int      `json:"dropped_edges"`
	Rate       float64  `json:"resolution_rate"`
	Errors     []string `json:"errors,omitempty"`
}

// Driver runs the two-pass pipeline. Pass 1 must complete for all files
// before the registry is built, and the registry must be complete before
// any Pass 2 work begins; those barriers are hard, not advisory.
type Driver struct {
	cfg      *config.Config
	snapshot *store.SnapshotStore
	workers  int
	verbose  bool
	log      func(format string, args ...any)

	mu     sync.Mutex
	errors []string
}

// New creates a Driver.
func New(c Config) *Driver {
	logFn := c.Logger
	if logFn == nil {
		logFn = func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}
	}
	workers := c.Cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Driver{
		cfg:      c.Cfg,
		snapshot: c.Snapshot,
		workers:  workers,
		verbose:  c.Verbose,
		log:      logFn,
	}
}

// RunFull analyzes every source file under the target root.
func (d *Driver) RunFull(ctx context.Context) (*RunStats, error) {
	d.resetErrors()
	matcher, err := scan.NewMatcher(d.cfg.Exclude)
	if err != nil {
		return nil, err
	}
	files, err := scan.Collect(d.cfg.TargetDir, d.cfg.Extensions, matcher)
	if err != nil {
		return nil, err
	}
	if d.verbose {
		d.log("Full analysis: %d files under %s", len(files), d.cfg.TargetDir)
	}

	analyses, err := d.pass1(ctx, files)
	if err != nil {
		return nil, err
	}

	reg := registry.Build(analyses)

	if err := d.pass2(ctx, analyses, reg); err != nil {
		return nil, err
	}

	stats, err := d.finish(d.cfg.TargetDir, analyses, reg)
	if err != nil {
		return nil, err
	}

	if d.snapshot != nil {
		if err := d.persistSnapshots(analyses, true); err != nil {
			return nil, err
		}
	}
	return stats, nil
}

// RunIncremental re-derives items and edges for the changed files only,
// reusing persisted snapshots for everything else. The registry and the
// name index are still rebuilt from the complete union: type shapes can
// change anywhere, so entries from a stale run cannot be trusted. Edges of
// unchanged files are reused as-is; if a changed file alters a type that an
// unchanged file's call sites reference, those edges go stale until the
// next full run. That trade-off is documented behavior.
func (d *Driver) RunIncremental(ctx context.Context, changed []string) (*RunStats, error) {
	if d.snapshot == nil {
		return nil, fmt.Errorf("incremental mode requires a snapshot store")
	}
	d.resetErrors()

	changedSet := make(map[string]struct{}, len(changed))
	normalized := make([]string, 0, len(changed))
	for _, f := range changed {
		rel := filepath.ToSlash(f)
		changedSet[rel] = struct{}{}
		normalized = append(normalized, rel)
	}

	previous, err := d.snapshot.All()
	if err != nil {
		return nil, err
	}

	if d.verbose {
		d.log("Incremental analysis: %d changed files, %d snapshots", len(normalized), len(previous))
	}

	fresh, err := d.pass1(ctx, normalized)
	if err != nil {
		return nil, err
	}

	// Union: snapshots for unchanged files plus fresh analyses for changed
	// ones. A changed file that disappeared from disk simply drops out.
	union := make([]*graph.FileAnalysis, 0, len(previous)+len(fresh))
	for _, fa := range previous {
		if _, ok := changedSet[fa.Path]; !ok {
			union = append(union, fa)
		}
	}
	union = append(union, fresh...)

	reg := registry.Build(union)

	if err := d.pass2(ctx, fresh, reg); err != nil {
		return nil, err
	}

	stats, err := d.finish(d.cfg.TargetDir, union, reg)
	if err != nil {
		return nil, err
	}

	for _, rel := range normalized {
		found := false
		for _, fa := range fresh {
			if fa.Path == rel {
				found = true
				break
			}
		}
		if !found {
			// Deleted or unreadable changed file: drop its stale snapshot.
			if err := d.snapshot.Delete(rel); err != nil {
				return nil, err
			}
		}
	}
	if err := d.persistSnapshots(fresh, false); err != nil {
		return nil, err
	}
	return stats, nil
}

// pass1 extracts items and tests for the given relative paths on a bounded
// worker pool. Per-file read and parse errors are recorded and the file is
// skipped; the run continues.
func (d *Driver) pass1(ctx context.Context, files []string) ([]*graph.FileAnalysis, error) {
	results := make([]*graph.FileAnalysis, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for i, rel := range files {
		i, rel := i, rel
		g.Go(func() error {
			content, err := os.ReadFile(filepath.Join(d.cfg.TargetDir, filepath.FromSlash(rel)))
			if err != nil {
				d.recordError("read %s: %v", rel, err)
				return nil
			}
			res, err := extract.File(gctx, rel, content)
			if err != nil {
				d.recordError("extract %s: %v", rel, err)
				return nil
			}
			results[i] = &graph.FileAnalysis{
				Path:  rel,
				Items: res.Items,
				Tests: res.Tests,
			}
			if d.verbose {
				d.log("  %s: %d items, %d tests", rel, len(res.Items), len(res.Tests))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := results[:0]
	for _, fa := range results {
		if fa != nil {
			out = append(out, fa)
		}
	}
	return out, nil
}

// pass2 resolves calls for the files in subset. The registry is an
// immutable shared snapshot at this point; per-file work has no cross-file
// dependency.
func (d *Driver) pass2(ctx context.Context, subset []*graph.FileAnalysis, reg *registry.TypeRegistry) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for _, fa := range subset {
		fa := fa
		g.Go(func() error {
			content, err := os.ReadFile(filepath.Join(d.cfg.TargetDir, filepath.FromSlash(fa.Path)))
			if err != nil {
				d.recordError("read %s: %v", fa.Path, err)
				return nil
			}
			res, err := resolve.File(gctx, fa.Path, content, reg)
			if err != nil {
				d.recordError("resolve %s: %v", fa.Path, err)
				return nil
			}
			fa.Edges = res.Edges
			fa.Unresolved = res.Unresolved
			return nil
		})
	}
	return g.Wait()
}

// finish links edges globally, writes all artifacts, and assembles stats.
func (d *Driver) finish(targetDir string, analyses []*graph.FileAnalysis, reg *registry.TypeRegistry) (*RunStats, error) {
	var edges []*graph.CallEdge
	var unresolved []*graph.UnresolvedEdge
	for _, fa := range analyses {
		edges = append(edges, fa.Edges...)
		unresolved = append(unresolved, fa.Unresolved...)
	}

	ix := linker.BuildIndex(analyses)
	linked := linker.Link(edges, ix)
	if d.verbose {
		d.log("Linked %d edges (%d dropped as external)", len(linked.Edges), linked.Dropped)
	}

	if err := d.writeArtifacts(targetDir, analyses, linked, unresolved, reg); err != nil {
		return nil, err
	}

	stats := &RunStats{
		Files:      len(analyses),
		Resolved:   len(linked.Edges),
		Unresolved: len(unresolved),
		Dropped:    linked.Dropped,
	}
	for _, fa := range analyses {
		stats.Items += len(fa.Items)
		stats.Tests += len(fa.Tests)
	}
	if stats.Resolved+stats.Unresolved > 0 {
		stats.Rate = float64(stats.Resolved) / float64(stats.Resolved+stats.Unresolved)
	}
	d.mu.Lock()
	stats.Errors = append(stats.Errors, d.errors...)
	d.mu.Unlock()
	return stats, nil
}

// persistSnapshots writes snapshots for the given analyses. When prune is
// set, snapshots for files no longer in the set are removed.
func (d *Driver) persistSnapshots(analyses []*graph.FileAnalysis, prune bool) error {
	current := make(map[string]struct{}, len(analyses))
	for _, fa := range analyses {
		current[fa.Path] = struct{}{}
		if err := d.snapshot.Put(fa); err != nil {
			return err
		}
	}
	if !prune {
		return nil
	}
	previous, err := d.snapshot.All()
	if err != nil {
		return err
	}
	for _, fa := range previous {
		if _, ok := current[fa.Path]; !ok {
			if err := d.snapshot.Delete(fa.Path); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *Driver) resetErrors() {
	d.mu.Lock()
	d.errors = nil
	d.mu.Unlock()
}

func (d *Driver) recordError(format string, args ...any) {
	d.mu.Lock()
	d.errors = append(d.errors, fmt.Sprintf(format, args...))
	d.mu.Unlock()
	if d.verbose {
		d.log("  skipped: "+format, args...)
	}
}
