package telegram

import (
	"strings"
	"testing"
)

func TestSplitHTML(t *testing.T) {
	t.Run("short text stays whole", func(t *testing.T) {
		chunks := splitHTML("hello", 100)
		if len(chunks) != 1 || chunks[0] != "hello" {
			t.Errorf("got %v", chunks)
		}
	})

	t.Run("splits at newline when available", func(t *testing.T) {
		text := strings.Repeat("a", 60) + "\n" + strings.Repeat("b", 60)
		chunks := splitHTML(text, 100)
		if len(chunks) != 2 {
			t.Fatalf("got %d chunks, want 2", len(chunks))
		}
		if !strings.HasSuffix(chunks[0], "a") || !strings.HasPrefix(chunks[1], "b") {
			t.Errorf("split did not respect the newline: %q | %q", chunks[0], chunks[1])
		}
	})

	t.Run("hard split without newline", func(t *testing.T) {
		text := strings.Repeat("x", 250)
		chunks := splitHTML(text, 100)
		if len(chunks) != 3 {
			t.Fatalf("got %d chunks, want 3", len(chunks))
		}
		for i, c := range chunks {
			if len(c) > 100 {
				t.Errorf("chunk %d exceeds limit: %d", i, len(c))
			}
		}
	})
}
