package util

import (
	"strings"
	"testing"
)

func TestSanitizeText(t *testing.T) {
	in := "Returns\x00 accepted within\x01 14 days"
	out := SanitizeText(in)
	if strings.ContainsRune(out, 0) {
		t.Fatalf("NUL byte survived: %q", out)
	}
	if !strings.Contains(out, "14 days") {
		t.Fatalf("content lost: %q", out)
	}
}

func TestDisplaySnippet(t *testing.T) {
	in := "Beverages:\x00   unopened 14 days \n\t from delivery"
	out := DisplaySnippet(in, 100)
	if out != "Beverages: unopened 14 days from delivery" {
		t.Fatalf("unexpected snippet: %q", out)
	}
	long := strings.Repeat("policy ", 200)
	if got := DisplaySnippet(long, 50); !strings.HasSuffix(got, "...") {
		t.Fatalf("expected truncation, got %q", got)
	}
}
