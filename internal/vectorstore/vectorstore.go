// Package vectorstore indexes finished conversations for semantic search.
package vectorstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/philippgille/chromem-go"
)

const (
	CollectionName = "quill_sessions"
	VectorDBPath   = ".quill/vectordb"
)

// VectorStore interface for vector storage backends
type VectorStore interface {
	AddDocument(ctx context.Context, id, content string, metadata map[string]string) error
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
	DeleteDocument(ctx context.Context, id string) error
	Count() int
}

// SearchResult represents a search result from vector store
type SearchResult struct {
	ID       string
	Content  string
	Score    float32
	Metadata map[string]string
}

// EmbedderOptions selects the embedding backend.
type EmbedderOptions struct {
	// Provider is "ollama" or "openai".
	Provider string
	Model    string
	APIKey   string
	// BaseURL points "openai" at any OpenAI-compatible server.
	BaseURL string
}

// NewEmbeddingFunc builds the embedding function for opts.
func NewEmbeddingFunc(opts EmbedderOptions) (chromem.EmbeddingFunc, error) {
	switch opts.Provider {
	case "ollama", "":
		model := opts.Model
		if model == "" {
			model = "nomic-embed-text"
		}
		return chromem.NewEmbeddingFuncOllama(model, opts.BaseURL), nil
	case "openai":
		if opts.BaseURL != "" {
			return chromem.NewEmbeddingFuncOpenAICompat(opts.BaseURL, opts.APIKey, opts.Model, nil), nil
		}
		if opts.APIKey == "" {
			return nil, fmt.Errorf("openai embeddings need an API key")
		}
		return chromem.NewEmbeddingFuncOpenAI(opts.APIKey, chromem.EmbeddingModelOpenAI3Small), nil
	default:
		return nil, fmt.Errorf("unsupported embedder: %s", opts.Provider)
	}
}

// ChromemStore implements VectorStore using chromem-go (embedded)
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// DefaultPath is ~/.quill/vectordb.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, VectorDBPath)
}

// Open opens (or creates) the persistent store at dbPath.
func Open(dbPath string, ef chromem.EmbeddingFunc) (*ChromemStore, error) {
	if dbPath == "" {
		dbPath = DefaultPath()
	}
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create vectordb directory: %w", err)
	}

	db, err := chromem.NewPersistentDB(dbPath, false)
	if err != nil {
		return nil, fmt.Errorf("failed to create chromem db: %w", err)
	}
	return newChromemStore(db, ef)
}

// OpenMemory creates a store that lives only in memory.
func OpenMemory(ef chromem.EmbeddingFunc) (*ChromemStore, error) {
	return newChromemStore(chromem.NewDB(), ef)
}

func newChromemStore(db *chromem.DB, ef chromem.EmbeddingFunc) (*ChromemStore, error) {
	collection, err := db.GetOrCreateCollection(CollectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("failed to get/create collection: %w", err)
	}
	return &ChromemStore{db: db, collection: collection}, nil
}

// AddDocument adds a document to the vector store, replacing one with the same ID.
func (c *ChromemStore) AddDocument(ctx context.Context, id, content string, metadata map[string]string) error {
	return c.collection.AddDocument(ctx, chromem.Document{
		ID:       id,
		Content:  content,
		Metadata: metadata,
	})
}

// AddDocuments adds multiple documents at once
func (c *ChromemStore) AddDocuments(ctx context.Context, docs []chromem.Document) error {
	return c.collection.AddDocuments(ctx, docs, 4)
}

// Search finds similar documents. The limit is clamped to the number of
// indexed documents.
func (c *ChromemStore) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	n := c.collection.Count()
	if n == 0 || limit <= 0 {
		return nil, nil
	}
	if limit > n {
		limit = n
	}

	results, err := c.collection.Query(ctx, query, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	searchResults := make([]SearchResult, 0, len(results))
	for _, r := range results {
		searchResults = append(searchResults, SearchResult{
			ID:       r.ID,
			Content:  r.Content,
			Score:    r.Similarity,
			Metadata: r.Metadata,
		})
	}
	return searchResults, nil
}

// DeleteDocument removes a document from the store
func (c *ChromemStore) DeleteDocument(ctx context.Context, id string) error {
	return c.collection.Delete(ctx, nil, nil, id)
}

// DeleteSession removes every document indexed for sessionID.
func (c *ChromemStore) DeleteSession(ctx context.Context, sessionID string) error {
	if c.collection.Count() == 0 {
		return nil
	}
	return c.collection.Delete(ctx, map[string]string{"session_id": sessionID}, nil)
}

// Count returns the number of indexed documents.
func (c *ChromemStore) Count() int {
	return c.collection.Count()
}
