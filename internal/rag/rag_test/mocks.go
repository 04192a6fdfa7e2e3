package rag_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/akolanti/pdfrag/internal/domain/commonModels"
	"github.com/akolanti/pdfrag/internal/rag/embedding"
	"github.com/akolanti/pdfrag/internal/rag/llm"
	"github.com/akolanti/pdfrag/internal/rag/vectorDB"
)

// MockVectorDB implements vectorDB.Store. Without handlers it keeps upserted points in memory
// keyed by collection and point id, so repeated upserts of the same chunk overwrite each other.
type MockVectorDB struct {
	OnEnsureCollection func(ctx context.Context, spec vectorDB.CollectionSpec) error
	OnCheckCollection  func(ctx context.Context, spec vectorDB.CollectionSpec) (bool, error)
	OnUpsert           func(ctx context.Context, collection string, chunks []commonModels.Chunk, vectors [][]float32) error
	OnSearch           func(ctx context.Context, collection string, vector []float32, topK int) ([]commonModels.SearchResult, error)
	OnStats            func(ctx context.Context, collection string) (commonModels.CollectionStats, error)

	// PointID keys stored chunks, defaults to hash_index.
	PointID func(chunk commonModels.Chunk) string

	mu          sync.Mutex
	Points      map[string]map[string]commonModels.Chunk
	UpsertCalls int
	Specs       []vectorDB.CollectionSpec
}

func (m *MockVectorDB) EnsureCollection(ctx context.Context, spec vectorDB.CollectionSpec) error {
	m.mu.Lock()
	m.Specs = append(m.Specs, spec)
	m.mu.Unlock()
	if m.OnEnsureCollection != nil {
		return m.OnEnsureCollection(ctx, spec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collection(spec.Name)
	return nil
}

// CheckCollection defaults to reporting collections created through EnsureCollection.
func (m *MockVectorDB) CheckCollection(ctx context.Context, spec vectorDB.CollectionSpec) (bool, error) {
	if m.OnCheckCollection != nil {
		return m.OnCheckCollection(ctx, spec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Points[spec.Name]
	return ok, nil
}

// collection must be called with mu held.
func (m *MockVectorDB) collection(name string) map[string]commonModels.Chunk {
	if m.Points == nil {
		m.Points = map[string]map[string]commonModels.Chunk{}
	}
	points, ok := m.Points[name]
	if !ok {
		points = map[string]commonModels.Chunk{}
		m.Points[name] = points
	}
	return points
}

func (m *MockVectorDB) Upsert(ctx context.Context, collection string, chunks []commonModels.Chunk, vectors [][]float32) error {
	m.mu.Lock()
	m.UpsertCalls++
	m.mu.Unlock()
	if m.OnUpsert != nil {
		return m.OnUpsert(ctx, collection, chunks, vectors)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	points := m.collection(collection)
	for _, c := range chunks {
		points[m.idFor(c)] = c
	}
	return nil
}

func (m *MockVectorDB) idFor(c commonModels.Chunk) string {
	if m.PointID != nil {
		return m.PointID(c)
	}
	return fmt.Sprintf("%s_%d", c.Metadata.ContentHash, c.Metadata.ChunkIndex)
}

func (m *MockVectorDB) Search(ctx context.Context, collection string, vector []float32, topK int) ([]commonModels.SearchResult, error) {
	if m.OnSearch != nil {
		return m.OnSearch(ctx, collection, vector, topK)
	}
	return []commonModels.SearchResult{{Text: "default context", PageNumber: 1, Source: "default.pdf", Score: 0.5}}, nil
}

func (m *MockVectorDB) Stats(ctx context.Context, collection string) (commonModels.CollectionStats, error) {
	if m.OnStats != nil {
		return m.OnStats(ctx, collection)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return commonModels.CollectionStats{PointCount: uint64(len(m.Points[collection])), Status: "green"}, nil
}

func (m *MockVectorDB) Close() error { return nil }

// MockEmbedder implements embedding.Embedder. The default returns one vector of Dim values per text.
type MockEmbedder struct {
	OnEmbed func(ctx context.Context, texts []string, mode embedding.Mode) ([][]float32, error)
	Dim     int

	mu    sync.Mutex
	Calls []int
}

func (m *MockEmbedder) Embed(ctx context.Context, texts []string, mode embedding.Mode) ([][]float32, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, len(texts))
	m.mu.Unlock()
	if m.OnEmbed != nil {
		return m.OnEmbed(ctx, texts, mode)
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = make([]float32, m.Dimension())
	}
	return out, nil
}

func (m *MockEmbedder) Dimension() int {
	if m.Dim == 0 {
		return 4
	}
	return m.Dim
}

// MockLLM implements llm.Provider
type MockLLM struct {
	OnGenerate func(ctx context.Context, messages []commonModels.Message) (llm.Completion, error)
	ModelName  string
}

func (m *MockLLM) Generate(ctx context.Context, messages []commonModels.Message) (llm.Completion, error) {
	if m.OnGenerate != nil {
		return m.OnGenerate(ctx, messages)
	}
	return llm.Completion{Text: "mocked llm response", Model: m.Model()}, nil
}

func (m *MockLLM) Model() string {
	if m.ModelName == "" {
		return "mock-model"
	}
	return m.ModelName
}
