package extract

import (
	"context"
	"strings"
	"testing"

	"github.com/SakuraCase/perchwork-sub001/internal/graph"
)

const testSource = `use std::collections::HashMap;

/// Connection status.
pub enum Status {
    Ok,
    Failed(String),
    Retry { after: u32 },
}

pub trait Greeter {
    fn greet(&self) -> String;
}

/// A greeting service.
pub struct GreetingService {
    pub prefix: String,
    count: u32,
}

impl GreetingService {
    pub fn new(prefix: String) -> Self {
        GreetingService { prefix, count: 0 }
    }

    pub(crate) fn get_count(&self) -> u32 {
        self.count
    }

    async fn refresh(&mut self) {
        self.count = 0;
    }
}

impl Greeter for GreetingService {
    fn greet(&self) -> String {
        format!("{} world", self.prefix)
    }
}

pub fn helper(
    prefix: String,
    count: u32,
) -> String {
    String::from("help")
}

fn internal_helper() {
    helper();
}

#[test]
fn test_helper() {
    helper(String::new(), 0);
}

#[tokio::test]
async fn test_refresh() {
    let mut s = GreetingService::new(String::new());
    s.refresh().await;
}
`

func indexByName(items []*graph.ExtractedItem) map[string]*graph.ExtractedItem {
	m := make(map[string]*graph.ExtractedItem)
	for _, it := range items {
		m[it.Name] = it
	}
	return m
}

func TestExtract(t *testing.T) {
	res, err := File(context.Background(), "src/greeting.rs", []byte(testSource))
	if err != nil {
		t.Fatalf("File returned error: %v", err)
	}

	counts := make(map[graph.ItemKind]int)
	for _, it := range res.Items {
		counts[it.Kind]++
	}
	if counts[graph.KindStruct] != 1 {
		t.Errorf("structs = %d, want 1", counts[graph.KindStruct])
	}
	if counts[graph.KindEnum] != 1 {
		t.Errorf("enums = %d, want 1", counts[graph.KindEnum])
	}
	if counts[graph.KindTrait] != 1 {
		t.Errorf("traits = %d, want 1", counts[graph.KindTrait])
	}
	// helper + internal_helper; the trait's greet is a bodyless signature
	// and the impl's greet is a method.
	if counts[graph.KindFunction] != 2 {
		t.Errorf("functions = %d, want 2", counts[graph.KindFunction])
	}
	// new, get_count, refresh, greet (from the trait impl)
	if counts[graph.KindMethod] != 4 {
		t.Errorf("methods = %d, want 4", counts[graph.KindMethod])
	}
	if len(res.Tests) != 2 {
		t.Fatalf("tests = %d, want 2", len(res.Tests))
	}

	byName := indexByName(res.Items)

	st, ok := byName["GreetingService"]
	if !ok {
		t.Fatal("expected GreetingService struct item")
	}
	if st.ID != "greeting::GreetingService::struct" {
		t.Errorf("struct ID = %q, want %q", st.ID, "greeting::GreetingService::struct")
	}
	if st.Visibility != graph.VisPublic {
		t.Errorf("struct visibility = %q, want public", st.Visibility)
	}
	if len(st.Fields) != 2 {
		t.Fatalf("struct fields = %d, want 2", len(st.Fields))
	}
	if st.Fields[0].Name != "prefix" || st.Fields[0].Type != "String" {
		t.Errorf("field[0] = %+v, want prefix String", st.Fields[0])
	}
	if st.Fields[1].Name != "count" || st.Fields[1].Type != "u32" {
		t.Errorf("field[1] = %+v, want count u32", st.Fields[1])
	}

	en, ok := byName["Status"]
	if !ok {
		t.Fatal("expected Status enum item")
	}
	if len(en.Fields) != 3 {
		t.Fatalf("enum variants = %d, want 3", len(en.Fields))
	}
	if en.Fields[0].Name != "Ok" || en.Fields[0].Type != "" {
		t.Errorf("unit variant = %+v, want Ok with empty payload", en.Fields[0])
	}
	if en.Fields[1].Name != "Failed" || !strings.Contains(en.Fields[1].Type, "String") {
		t.Errorf("tuple variant = %+v, want Failed(String)", en.Fields[1])
	}
	if en.Fields[2].Name != "Retry" {
		t.Errorf("struct variant name = %q, want Retry", en.Fields[2].Name)
	}

	newFn, ok := byName["new"]
	if !ok {
		t.Fatal("expected new method item")
	}
	if newFn.Kind != graph.KindMethod {
		t.Errorf("new kind = %q, want method", newFn.Kind)
	}
	if newFn.ImplFor != "GreetingService" {
		t.Errorf("new ImplFor = %q, want GreetingService", newFn.ImplFor)
	}
	if newFn.ID != "greeting::GreetingService::new::method" {
		t.Errorf("new ID = %q", newFn.ID)
	}
	if newFn.Signature != "pub fn new(prefix: String) -> Self" {
		t.Errorf("new signature = %q", newFn.Signature)
	}

	if gc, ok := byName["get_count"]; !ok {
		t.Error("expected get_count method item")
	} else if gc.Visibility != graph.VisCrate {
		t.Errorf("get_count visibility = %q, want crate", gc.Visibility)
	}

	if rf, ok := byName["refresh"]; !ok {
		t.Error("expected refresh method item")
	} else if !rf.IsAsync {
		t.Error("refresh should be async")
	}

	greet, ok := byName["greet"]
	if !ok {
		t.Fatal("expected greet method item")
	}
	if greet.TraitName != "Greeter" {
		t.Errorf("greet TraitName = %q, want Greeter", greet.TraitName)
	}

	helper, ok := byName["helper"]
	if !ok {
		t.Fatal("expected helper function item")
	}
	if helper.ImplFor != "" {
		t.Errorf("helper ImplFor = %q, want empty", helper.ImplFor)
	}
	// Multi-line signature: trimmed lines joined with newlines.
	wantSig := "pub fn helper(\nprefix: String,\ncount: u32,\n) -> String"
	if helper.Signature != wantSig {
		t.Errorf("helper signature = %q, want %q", helper.Signature, wantSig)
	}
	if helper.LineStart >= helper.LineEnd {
		t.Errorf("helper line range = [%d, %d], want start < end", helper.LineStart, helper.LineEnd)
	}

	if ih, ok := byName["internal_helper"]; !ok {
		t.Error("expected internal_helper function item")
	} else if ih.Visibility != graph.VisPrivate {
		t.Errorf("internal_helper visibility = %q, want private", ih.Visibility)
	}
}

func TestExtractTests(t *testing.T) {
	res, err := File(context.Background(), "src/greeting.rs", []byte(testSource))
	if err != nil {
		t.Fatalf("File returned error: %v", err)
	}

	byName := make(map[string]*graph.TestInfo)
	for _, ti := range res.Tests {
		byName[ti.Name] = ti
	}

	th, ok := byName["test_helper"]
	if !ok {
		t.Fatal("expected test_helper record")
	}
	if th.ID != "greeting::test_helper::test" {
		t.Errorf("test ID = %q, want %q", th.ID, "greeting::test_helper::test")
	}
	if th.IsAsync {
		t.Error("test_helper should not be async")
	}

	tr, ok := byName["test_refresh"]
	if !ok {
		t.Fatal("expected test_refresh record")
	}
	if !tr.IsAsync {
		t.Error("test_refresh should be async")
	}

	// Test functions never appear as items.
	for _, it := range res.Items {
		if it.Name == "test_helper" || it.Name == "test_refresh" {
			t.Errorf("test function %s extracted as item", it.Name)
		}
	}
}

func TestExtractNestedFunction(t *testing.T) {
	src := `fn outer() {
    fn inner() {}
    inner();
}
`
	res, err := File(context.Background(), "src/nested.rs", []byte(src))
	if err != nil {
		t.Fatalf("File returned error: %v", err)
	}
	byName := indexByName(res.Items)
	if _, ok := byName["outer"]; !ok {
		t.Error("expected outer function item")
	}
	if inner, ok := byName["inner"]; !ok {
		t.Error("expected inner function item")
	} else if inner.Kind != graph.KindFunction {
		t.Errorf("inner kind = %q, want function", inner.Kind)
	}
}

func TestExtractGenericImpl(t *testing.T) {
	src := `impl<T: Clone> Wrapper<T> {
    pub fn get(&self) -> &T {
        &self.value
    }
}
`
	res, err := File(context.Background(), "src/wrapper.rs", []byte(src))
	if err != nil {
		t.Fatalf("File returned error: %v", err)
	}
	byName := indexByName(res.Items)
	get, ok := byName["get"]
	if !ok {
		t.Fatal("expected get method item")
	}
	// Generic parameters are stripped from the impl type.
	if get.ImplFor != "Wrapper" {
		t.Errorf("get ImplFor = %q, want Wrapper", get.ImplFor)
	}
}

func TestExtractMalformedSource(t *testing.T) {
	// tree-sitter recovers from syntax errors; extraction keeps whatever
	// declarations still parse.
	src := `pub struct Good { x: u32 }

fn broken( {
`
	res, err := File(context.Background(), "src/broken.rs", []byte(src))
	if err != nil {
		t.Fatalf("File returned error: %v", err)
	}
	byName := indexByName(res.Items)
	if _, ok := byName["Good"]; !ok {
		t.Error("expected Good struct despite syntax error later in file")
	}
}
