package vectorstore

import (
	"context"
	"hash/fnv"
	"strings"
	"testing"

	"Quill/internal/memory"
)

// wordEmbedding is a deterministic bag-of-words embedding: texts sharing
// words end up close to each other.
func wordEmbedding(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, 64)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(strings.Trim(w, ".,?!")))
		vec[h.Sum32()%64]++
	}
	vec[63] += 0.01
	return vec, nil
}

func newTestStore(t *testing.T) *ChromemStore {
	t.Helper()
	store, err := Open(t.TempDir(), wordEmbedding)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	return store
}

func TestChromemStore(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	t.Run("Search empty store", func(t *testing.T) {
		results, err := store.Search(ctx, "anything", 5)
		if err != nil || len(results) != 0 {
			t.Errorf("Search on empty store = %v, %v", results, err)
		}
	})

	t.Run("Add and Search Document", func(t *testing.T) {
		if err := store.AddDocument(ctx, "doc1", "the capital of france is paris", map[string]string{"type": "test"}); err != nil {
			t.Fatalf("AddDocument failed: %v", err)
		}
		if err := store.AddDocument(ctx, "doc2", "two plus two equals four", nil); err != nil {
			t.Fatalf("AddDocument failed: %v", err)
		}

		// limit above the document count is clamped
		results, err := store.Search(ctx, "paris france", 10)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("expected 2 results, got %d", len(results))
		}
		if results[0].ID != "doc1" {
			t.Errorf("expected doc1 first, got %s", results[0].ID)
		}
		if results[0].Metadata["type"] != "test" {
			t.Errorf("metadata lost: %v", results[0].Metadata)
		}
	})

	t.Run("Delete Document", func(t *testing.T) {
		if err := store.DeleteDocument(ctx, "doc2"); err != nil {
			t.Fatalf("DeleteDocument failed: %v", err)
		}
		if store.Count() != 1 {
			t.Errorf("Count = %d, want 1", store.Count())
		}
	})
}

func TestIndexSession(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	s := memory.NewSession("gpt-test")
	h := memory.NewHistory(10, "system prompt")
	h.Add(memory.RoleUser, "tell me about the eiffel tower")
	h.AddTool("wikipedia", "The Eiffel Tower is a tower in Paris")
	h.Add(memory.RoleAssistant, "   ")
	s.Record(h)

	n, err := IndexSession(ctx, store, s)
	if err != nil {
		t.Fatalf("IndexSession error: %v", err)
	}
	if n != 2 || store.Count() != 2 {
		t.Fatalf("indexed %d (count %d), want 2", n, store.Count())
	}

	results, err := store.Search(ctx, "eiffel tower paris", 1)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(results) != 1 || results[0].Metadata["session_id"] != s.ID {
		t.Errorf("unexpected results %+v", results)
	}
	if results[0].Metadata["tool"] != "wikipedia" {
		t.Errorf("expected the tool message first, got %+v", results[0])
	}

	if err := store.DeleteSession(ctx, s.ID); err != nil {
		t.Fatalf("DeleteSession error: %v", err)
	}
	if store.Count() != 0 {
		t.Errorf("Count after DeleteSession = %d", store.Count())
	}
}

func TestIndexEmptySession(t *testing.T) {
	n, err := IndexSession(context.Background(), newTestStore(t), memory.NewSession("m"))
	if err != nil || n != 0 {
		t.Errorf("IndexSession = %d, %v", n, err)
	}
}

func TestNewEmbeddingFunc(t *testing.T) {
	if _, err := NewEmbeddingFunc(EmbedderOptions{Provider: "ollama"}); err != nil {
		t.Errorf("ollama: %v", err)
	}
	if _, err := NewEmbeddingFunc(EmbedderOptions{Provider: "openai"}); err == nil {
		t.Error("openai without a key should fail")
	}
	if _, err := NewEmbeddingFunc(EmbedderOptions{Provider: "openai", BaseURL: "http://localhost:8080/v1", Model: "m"}); err != nil {
		t.Errorf("openai compat: %v", err)
	}
	if _, err := NewEmbeddingFunc(EmbedderOptions{Provider: "cohere"}); err == nil {
		t.Error("unknown provider should fail")
	}
}
