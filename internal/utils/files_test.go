package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/ecomenu/internal/utils"
)

func TestSafeWriteFileReplacesContent(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.json")
	if err := utils.SafeWriteFile(p, []byte("one")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := utils.SafeWriteFile(p, []byte("two")); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "two" {
		t.Fatalf("content=%q", b)
	}
	if _, err := os.Stat(p + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestFindUpWalksParents(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "data", "raw", "x.csv")
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(target, []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}
	deep := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(deep, 0o755); err != nil {
		t.Fatal(err)
	}
	got, err := utils.FindUp(deep, filepath.Join("data", "raw", "x.csv"))
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got != target {
		t.Fatalf("got %s want %s", got, target)
	}
	if _, err := utils.FindUp(deep, "nope.csv"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestPrettyJSON(t *testing.T) {
	b, err := utils.PrettyJSON(map[string]int{"a": 1})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "{\n  \"a\": 1\n}" {
		t.Fatalf("got %q", b)
	}
}
