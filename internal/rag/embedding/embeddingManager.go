package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/pdfrag/internal/domain/ragErrors"
	"golang.org/x/sync/errgroup"
)

// Mode tells the embedding model whether it is looking at a question or at stored text.
type Mode int

const (
	ModeQuery Mode = iota
	ModeDocument
)

func (m Mode) String() string {
	if m == ModeDocument {
		return "document"
	}
	return "query"
}

// Prefix is the instruction prefix nomic style models expect in front of every input.
func (m Mode) Prefix() string {
	if m == ModeDocument {
		return "search_document: "
	}
	return "search_query: "
}

// Embedder returns one vector per input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string, mode Mode) ([][]float32, error)
	Dimension() int
}

type BatchFunc func(ctx context.Context, batch []string) ([][]float32, error)

// BatchEmbed splits texts into batches of at most batchSize and calls fn once per batch.
// With concurrency > 1 batches run in parallel, results still come back in input order.
// Any failed batch fails the whole call and nothing partial is returned.
func BatchEmbed(ctx context.Context, texts []string, batchSize int, concurrency int, fn BatchFunc) ([][]float32, error) {
	if batchSize <= 0 {
		return nil, ragErrors.NewValidationError("batch_size", "must be positive, got %d", batchSize)
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if concurrency < 1 {
		concurrency = 1
	}

	numBatches := (len(texts) + batchSize - 1) / batchSize
	results := make([][][]float32, numBatches)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for b := 0; b < numBatches; b++ {
		start := b * batchSize
		end := min(start+batchSize, len(texts))
		g.Go(func() error {
			vectors, err := fn(gctx, texts[start:end])
			if err != nil {
				return asRemote(err, fmt.Sprintf("embed batch [%d,%d)", start, end))
			}
			if len(vectors) != end-start {
				return ragErrors.NewRemoteServiceError("embedding", "embed",
					fmt.Errorf("batch [%d,%d) returned %d vectors for %d inputs", start, end, len(vectors), end-start))
			}
			results[b] = vectors
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([][]float32, 0, len(texts))
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

// CheckDimension rejects a response containing any vector of the wrong length.
func CheckDimension(service string, vectors [][]float32, dimension int) error {
	for i, v := range vectors {
		if len(v) != dimension {
			return ragErrors.NewRemoteServiceError(service, "embed",
				fmt.Errorf("vector %d has dimension %d, expected %d", i, len(v), dimension))
		}
	}
	return nil
}

func asRemote(err error, op string) error {
	var remote *ragErrors.RemoteServiceError
	if errors.As(err, &remote) {
		return err
	}
	return ragErrors.NewRemoteServiceError("embedding", op, err)
}
