package scan

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, root, rel string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("fn x() {}\n"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestMatcher(t *testing.T) {
	m, err := NewMatcher([]string{"**/target/**", "**/.git/**"})
	if err != nil {
		t.Fatalf("NewMatcher returned error: %v", err)
	}

	cases := []struct {
		rel  string
		want bool
	}{
		{"src/main.rs", false},
		{"target/debug/main.rs", true},
		{"sub/target/debug/lib.rs", true},
		{".git/config", true},
		{"src/targeted.rs", false},
	}
	for _, c := range cases {
		if got := m.Match(c.rel); got != c.want {
			t.Errorf("Match(%q) = %v, want %v", c.rel, got, c.want)
		}
	}
}

func TestMatcherBadPattern(t *testing.T) {
	if _, err := NewMatcher([]string{"[unclosed"}); err == nil {
		t.Error("expected error for malformed pattern")
	}
}

func TestCollect(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/main.rs")
	writeFile(t, root, "src/lib.rs")
	writeFile(t, root, "src/notes.md")
	writeFile(t, root, "target/debug/build.rs")
	writeFile(t, root, "benches/bench.rs")

	m, err := NewMatcher([]string{"**/target/**"})
	if err != nil {
		t.Fatal(err)
	}

	files, err := Collect(root, []string{".rs"}, m)
	if err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}

	want := []string{"benches/bench.rs", "src/lib.rs", "src/main.rs"}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("Collect = %v, want %v", files, want)
	}
}

func TestCollectExtensionWithoutDot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.rs")

	m, err := NewMatcher(nil)
	if err != nil {
		t.Fatal(err)
	}
	files, err := Collect(root, []string{"rs"}, m)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0] != "a.rs" {
		t.Errorf("Collect = %v, want [a.rs]", files)
	}
}
