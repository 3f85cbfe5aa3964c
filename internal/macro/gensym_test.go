package macro

import (
	"strings"
	"testing"
)

func TestGensymDefaultsBaseName(t *testing.T) {
	g := NewGensym()
	name := g.Next("")
	if !strings.HasPrefix(name, "##g#") {
		t.Errorf("Next(\"\") = %q, want it to default to base \"g\"", name)
	}
}

func TestGensymNamesAreUniquePerCall(t *testing.T) {
	g := NewGensym()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		name := g.Next("tmp")
		if seen[name] {
			t.Fatalf("Next(\"tmp\") repeated a name: %q", name)
		}
		seen[name] = true
		if !strings.Contains(name, "tmp") {
			t.Errorf("Next(\"tmp\") = %q, want it to retain the base name", name)
		}
	}
}

func TestGensymNamesAreUniqueAcrossGenerators(t *testing.T) {
	a := NewGensym().Next("x")
	b := NewGensym().Next("x")
	if a == b {
		t.Errorf("two fresh generators produced the same name: %q", a)
	}
}
