package knol

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	expected := "what is htmx?\na library for ajax."
	normalized := Normalize("  What is HTMX? \r\n", "A library for AJAX.")

	if normalized != expected {
		t.Errorf("Expected normalized string to be '%s', but got '%s'", expected, normalized)
	}
}

func TestHash(t *testing.T) {
	t.Run("hash is deterministic", func(t *testing.T) {
		if Hash("Test", "") != Hash("Test", "") {
			t.Error("Expected hashes for identical cards to be the same")
		}
	})

	t.Run("normalization produces same hash", func(t *testing.T) {
		h1 := Hash("  what is go? ", "A programming language.")
		h2 := Hash("What Is Go?", "A programming language.")
		if h1 != h2 {
			t.Error("Expected hashes to be the same after normalization, but they were different.")
		}
	})

	t.Run("field boundary matters", func(t *testing.T) {
		if Hash("ab", "c") == Hash("a", "bc") {
			t.Error("Expected hashes for differently split content to differ")
		}
	})

	t.Run("hex sha256", func(t *testing.T) {
		if len(Hash("Q", "A")) != 64 {
			t.Errorf("Expected a 64 character hex digest, got %d characters", len(Hash("Q", "A")))
		}
	})
}

func TestID(t *testing.T) {
	id := ID("Q", "A")
	if !strings.HasPrefix(id, "knol-") || len(id) != len("knol-")+32 {
		t.Errorf("Unexpected id shape: %s", id)
	}
	if id != ID(" q ", "a") {
		t.Error("Expected ids to follow normalization")
	}
}
