package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSafeJoin(t *testing.T) {
	if got := SafeJoin("/docs", "policy.md"); got != filepath.Join("/docs", "policy.md") {
		t.Fatalf("got %q", got)
	}
	if got := SafeJoin("/docs", "../../etc/passwd"); got != filepath.Join("/docs", "passwd") {
		t.Fatalf("traversal not stripped: %q", got)
	}
	if got := SafeJoin("/docs", "nested/dir/file.md"); got != filepath.Join("/docs", "file.md") {
		t.Fatalf("got %q", got)
	}
}

func TestWriteJSONAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "summary.json")
	if err := WriteJSONAtomic(path, map[string]int{"questions": 3}); err != nil {
		t.Fatalf("WriteJSONAtomic: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(b) == "" {
		t.Fatal("empty file")
	}
}
