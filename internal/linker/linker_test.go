package linker

import (
	"testing"

	"github.com/SakuraCase/perchwork-sub001/internal/graph"
)

func testFiles() []*graph.FileAnalysis {
	return []*graph.FileAnalysis{
		{
			Path: "src/app.rs",
			Items: []*graph.ExtractedItem{
				{ID: "app::App::struct", Kind: graph.KindStruct, Name: "App"},
				{ID: "app::App::new::method", Kind: graph.KindMethod, Name: "new", ImplFor: "App"},
				{ID: "app::App::run::method", Kind: graph.KindMethod, Name: "run", ImplFor: "App"},
				{ID: "app::setup::function", Kind: graph.KindFunction, Name: "setup"},
			},
			Tests: []*graph.TestInfo{
				{ID: "app::test_run::test", Name: "test_run"},
			},
		},
		{
			Path: "src/worker.rs",
			Items: []*graph.ExtractedItem{
				{ID: "worker::Worker::new::method", Kind: graph.KindMethod, Name: "new", ImplFor: "Worker"},
			},
		},
	}
}

func TestResolveExactAndQualified(t *testing.T) {
	ix := BuildIndex(testFiles())

	if id, ok := ix.Resolve("setup"); !ok || id != "app::setup::function" {
		t.Errorf("Resolve(setup) = %q, %v", id, ok)
	}
	if id, ok := ix.Resolve("App::run"); !ok || id != "app::App::run::method" {
		t.Errorf("Resolve(App::run) = %q, %v", id, ok)
	}
	// Longer qualification falls back to the last two segments.
	if id, ok := ix.Resolve("crate::app::App::run"); !ok || id != "app::App::run::method" {
		t.Errorf("Resolve(crate::app::App::run) = %q, %v", id, ok)
	}
}

func TestResolveNoBareMethodFallback(t *testing.T) {
	ix := BuildIndex(testFiles())

	// Worker::new and App::new both exist; an unknown owner must not fall
	// back to either bare "new" registration.
	if id, ok := ix.Resolve("Stranger::new"); ok {
		t.Errorf("Resolve(Stranger::new) = %q, want no match", id)
	}
	if _, ok := ix.Resolve("Vec::push"); ok {
		t.Error("Resolve(Vec::push) should not match anything")
	}
}

func TestResolveTestsExcluded(t *testing.T) {
	ix := BuildIndex(testFiles())

	if id, ok := ix.Resolve("test_run"); ok {
		t.Errorf("Resolve(test_run) = %q, want no match (tests are not targets)", id)
	}
}

func TestLink(t *testing.T) {
	ix := BuildIndex(testFiles())

	edges := []*graph.CallEdge{
		{From: "app::App::run::method", To: "setup", File: "src/app.rs", Line: 10},
		{From: "app::App::run::method", To: "Worker::new", File: "src/app.rs", Line: 11},
		{From: "app::setup::function", To: "std::env::var", File: "src/app.rs", Line: 20},
		{From: "app::test_run::test", To: "App::run", File: "src/app.rs", Line: 30,
			Context: &graph.ControlFlowContext{Type: graph.CtxIf, Condition: "ok"}},
	}

	res := Link(edges, ix)

	if res.Dropped != 1 {
		t.Errorf("Dropped = %d, want 1", res.Dropped)
	}
	if len(res.Edges) != 3 {
		t.Fatalf("resolved edges = %d, want 3", len(res.Edges))
	}

	if res.Edges[0].To != "app::setup::function" {
		t.Errorf("edge[0].To = %q", res.Edges[0].To)
	}
	if res.Edges[1].To != "worker::Worker::new::method" {
		t.Errorf("edge[1].To = %q", res.Edges[1].To)
	}
	last := res.Edges[2]
	if last.From != "app::test_run::test" || last.To != "app::App::run::method" {
		t.Errorf("edge[2] = %s -> %s", last.From, last.To)
	}
	if last.Context == nil || last.Context.Type != graph.CtxIf {
		t.Error("edge[2] should keep its control-flow context")
	}
	if last.File != "src/app.rs" || last.Line != 30 {
		t.Errorf("edge[2] location = %s:%d", last.File, last.Line)
	}
}

func TestBuildIndexLastWriteWins(t *testing.T) {
	files := []*graph.FileAnalysis{
		{
			Path: "src/a.rs",
			Items: []*graph.ExtractedItem{
				{ID: "a::First::init::method", Kind: graph.KindMethod, Name: "init", ImplFor: "First"},
			},
		},
		{
			Path: "src/b.rs",
			Items: []*graph.ExtractedItem{
				{ID: "b::Second::init::method", Kind: graph.KindMethod, Name: "init", ImplFor: "Second"},
			},
		},
	}
	ix := BuildIndex(files)

	// The bare name collides; the owner-qualified forms never do.
	if id, ok := ix.Resolve("First::init"); !ok || id != "a::First::init::method" {
		t.Errorf("Resolve(First::init) = %q, %v", id, ok)
	}
	if id, ok := ix.Resolve("Second::init"); !ok || id != "b::Second::init::method" {
		t.Errorf("Resolve(Second::init) = %q, %v", id, ok)
	}
	if id, ok := ix.Resolve("init"); !ok || id != "b::Second::init::method" {
		t.Errorf("Resolve(init) = %q, %v; later registration should win", id, ok)
	}
}
