package graph

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestItemID(t *testing.T) {
	cases := []struct {
		stem, implFor, name string
		kind                ItemKind
		want                string
	}{
		{"app", "", "setup", KindFunction, "app::setup::function"},
		{"app", "App", "run", KindMethod, "app::App::run::method"},
		{"model", "", "User", KindStruct, "model::User::struct"},
	}
	for _, c := range cases {
		if got := ItemID(c.stem, c.implFor, c.name, c.kind); got != c.want {
			t.Errorf("ItemID = %q, want %q", got, c.want)
		}
	}

	if got := TestID("app", "", "test_run"); got != "app::test_run::test" {
		t.Errorf("TestID = %q", got)
	}
	if got := TestID("app", "App", "test_run"); got != "app::App::test_run::test" {
		t.Errorf("TestID = %q", got)
	}
}

func TestFileStem(t *testing.T) {
	cases := []struct{ in, want string }{
		{"src/app.rs", "app"},
		{"app.rs", "app"},
		{"src/nested/mod.rs", "mod"},
		{"src\\win\\path.rs", "path"},
		{"no_ext", "no_ext"},
	}
	for _, c := range cases {
		if got := FileStem(c.in); got != c.want {
			t.Errorf("FileStem(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNewIndexDocSorted(t *testing.T) {
	files := []*FileAnalysis{
		{Path: "src/z.rs", Items: []*ExtractedItem{{ID: "z::f::function"}}},
		{Path: "src/a.rs", Items: []*ExtractedItem{{ID: "a::f::function"}, {ID: "a::g::function"}}, Tests: []*TestInfo{{ID: "a::t::test"}}},
	}

	doc := NewIndexDoc("/tmp/src", files, 7)

	if doc.Version != IndexVersion {
		t.Errorf("Version = %q, want %q", doc.Version, IndexVersion)
	}
	if len(doc.Files) != 2 || doc.Files[0].Path != "src/a.rs" {
		t.Errorf("files not sorted by path: %v, %v", doc.Files[0].Path, doc.Files[1].Path)
	}
	if doc.Stats.TotalFiles != 2 || doc.Stats.TotalItems != 3 || doc.Stats.TotalTests != 1 || doc.Stats.TotalEdges != 7 {
		t.Errorf("stats = %+v", doc.Stats)
	}

	// Input order is untouched.
	if files[0].Path != "src/z.rs" {
		t.Error("NewIndexDoc must not reorder its input")
	}
}

func TestNewCallGraphDocSorted(t *testing.T) {
	edges := []*CallEdge{
		{From: "b", To: "x", Line: 5},
		{From: "a", To: "y", Line: 9},
		{From: "a", To: "x", Line: 3},
		{From: "a", To: "x", Line: 1},
	}
	doc := NewCallGraphDoc(edges)

	if doc.TotalEdges != 4 {
		t.Fatalf("TotalEdges = %d, want 4", doc.TotalEdges)
	}
	wantOrder := []int{1, 3, 9, 5}
	for i, want := range wantOrder {
		if doc.Edges[i].Line != want {
			t.Errorf("edge[%d].Line = %d, want %d", i, doc.Edges[i].Line, want)
		}
	}
}

func TestNewUnresolvedSummary(t *testing.T) {
	unresolved := []*UnresolvedEdge{
		{Method: "poke", Reason: ReasonVariableNotInScope},
		{Method: "poke", Reason: ReasonTypeLookupFailed},
		{Method: "prod", Reason: ReasonVariableNotInScope},
	}

	s := NewUnresolvedSummary(unresolved, 9)

	if s.TotalUnresolved != 3 {
		t.Errorf("TotalUnresolved = %d, want 3", s.TotalUnresolved)
	}
	if s.ByReason["variable_not_in_scope"] != 2 {
		t.Errorf("ByReason = %v", s.ByReason)
	}
	if s.ByMethod["poke"] != 2 {
		t.Errorf("ByMethod = %v", s.ByMethod)
	}
	if s.ResolutionRate != 0.75 {
		t.Errorf("ResolutionRate = %v, want 0.75", s.ResolutionRate)
	}

	empty := NewUnresolvedSummary(nil, 0)
	if empty.ResolutionRate != 0 {
		t.Errorf("empty rate = %v, want 0", empty.ResolutionRate)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, map[string]int{"a": 1}); err != nil {
		t.Fatalf("WriteJSON returned error: %v", err)
	}
	if !strings.Contains(buf.String(), "\n  \"a\": 1") {
		t.Errorf("output not indented: %q", buf.String())
	}
}

func TestDecodeFileDocs(t *testing.T) {
	flat := `{"path": "src/app.rs", "items": [{"id": "app::App::struct", "kind": "struct", "name": "App"}], "tests": []}`
	docs, err := DecodeFileDocs(strings.NewReader(flat))
	if err != nil {
		t.Fatalf("flat decode error: %v", err)
	}
	if len(docs) != 1 || docs[0].Path != "src/app.rs" || len(docs[0].Items) != 1 {
		t.Errorf("flat docs = %+v", docs)
	}

	nested := `{"files": [{"path": "src/a.rs"}, {"path": "src/b.rs"}]}`
	docs, err = DecodeFileDocs(strings.NewReader(nested))
	if err != nil {
		t.Fatalf("nested decode error: %v", err)
	}
	if len(docs) != 2 || docs[1].Path != "src/b.rs" {
		t.Errorf("nested docs = %+v", docs)
	}

	if _, err := DecodeFileDocs(strings.NewReader(`{}`)); err == nil {
		t.Error("expected error for document with neither shape")
	}

	if _, err := DecodeFileDocs(strings.NewReader(`not json`)); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestCallEdgeJSONOmitsEmptyContext(t *testing.T) {
	data, err := json.Marshal(&CallEdge{From: "a", To: "b", File: "f", Line: 1})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "context") {
		t.Errorf("nil context serialized: %s", data)
	}
}
