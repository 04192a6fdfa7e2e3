package vectorDB

import (
	"context"
	"fmt"

	"github.com/akolanti/pdfrag/internal/domain/commonModels"
)

type CollectionSpec struct {
	Name      string
	Dimension int
	Distance  string
}

// Store is the vector database contract used by ingestion and by the chat path.
type Store interface {
	// EnsureCollection creates the collection if absent. An existing collection with a different
	// vector size or distance is a ConfigurationError.
	EnsureCollection(ctx context.Context, spec CollectionSpec) error

	// CheckCollection reports whether the collection exists without creating it. An existing
	// collection that does not match spec is a ConfigurationError.
	CheckCollection(ctx context.Context, spec CollectionSpec) (bool, error)

	// Upsert writes one point per chunk, keyed by the chunk's deterministic id.
	Upsert(ctx context.Context, collection string, chunks []commonModels.Chunk, vectors [][]float32) error

	Search(ctx context.Context, collection string, vector []float32, topK int) ([]commonModels.SearchResult, error)
	Stats(ctx context.Context, collection string) (commonModels.CollectionStats, error)
	Close() error
}

// BatchError reports the chunk range [Start, End) of the upsert batch that failed.
// Batches before it are already committed.
type BatchError struct {
	Start int
	End   int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("upsert batch [%d,%d) failed: %v", e.Start, e.End, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}
