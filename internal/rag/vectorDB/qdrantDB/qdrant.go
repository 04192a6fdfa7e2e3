package qdrantDB

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/internal/domain/commonModels"
	"github.com/akolanti/pdfrag/internal/domain/ragErrors"
	"github.com/akolanti/pdfrag/internal/rag/ingest"
	"github.com/akolanti/pdfrag/internal/rag/vectorDB"
	"github.com/akolanti/pdfrag/pkg/logger_i"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"
)

const serviceName = "qdrant"

// qdrantAPI is the part of *qdrant.Client this package calls.
type qdrantAPI interface {
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	GetCollectionInfo(ctx context.Context, collectionName string) (*qdrant.CollectionInfo, error)
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Close() error
}

type ClientHolder struct {
	QObj      qdrantAPI
	dimension int
	batchSize int
	logger    *logger_i.Logger
}

var _ vectorDB.Store = (*ClientHolder)(nil)

// NewClient opens the gRPC pool. The connection is lazy, the first call surfaces an unreachable server.
func NewClient(cfg config.QdrantConfig, dimension int) (*ClientHolder, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		APIKey:   cfg.APIKey,
		UseTLS:   cfg.UseTLS,
		PoolSize: uint(cfg.PoolSize),
		GrpcOptions: []grpc.DialOption{
			grpc.WithKeepaliveParams(keepalive.ClientParameters{
				Time:                config.QdrantKeepAliveTimeout,
				PermitWithoutStream: true,
			}),
		},
	})
	if err != nil {
		return nil, ragErrors.NewRemoteServiceError(serviceName, "connect", err)
	}
	holder := newHolder(client, dimension)
	holder.logger.Info("Qdrant client created", "host", cfg.Host, "port", cfg.Port, "poolSize", cfg.PoolSize)
	return holder, nil
}

func newHolder(api qdrantAPI, dimension int) *ClientHolder {
	return &ClientHolder{
		QObj:      api,
		dimension: dimension,
		batchSize: config.UpsertBatchSize,
		logger:    logger_i.NewLogger("Qdrant"),
	}
}

func (db *ClientHolder) Close() error {
	db.logger.Info("Shutting down Qdrant")
	return db.QObj.Close()
}

func (db *ClientHolder) EnsureCollection(ctx context.Context, spec vectorDB.CollectionSpec) error {
	exists, err := db.CheckCollection(ctx, spec)
	if err != nil || exists {
		return err
	}
	distance, _ := ParseDistance(spec.Distance)
	log := db.logger.WithTrace(ctx, config.TRACE_ID_KEY).With("collection", spec.Name)

	log.Info("Creating collection", "dimension", spec.Dimension, "distance", distance.String())
	err = db.QObj.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: spec.Name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(spec.Dimension),
			Distance: distance,
		}),
	})
	if err != nil {
		return ragErrors.NewRemoteServiceError(serviceName, "create_collection", err)
	}
	return nil
}

func (db *ClientHolder) CheckCollection(ctx context.Context, spec vectorDB.CollectionSpec) (bool, error) {
	if spec.Name == "" {
		return false, ragErrors.NewValidationError("collection", "empty collection name")
	}
	if spec.Dimension <= 0 {
		return false, ragErrors.NewValidationError("dimension", "must be positive, got %d", spec.Dimension)
	}
	distance, err := ParseDistance(spec.Distance)
	if err != nil {
		return false, err
	}

	exists, err := db.QObj.CollectionExists(ctx, spec.Name)
	if err != nil {
		return false, ragErrors.NewRemoteServiceError(serviceName, "collection_exists", err)
	}
	if !exists {
		return false, nil
	}
	return true, db.checkCollection(ctx, spec, distance)
}

func (db *ClientHolder) checkCollection(ctx context.Context, spec vectorDB.CollectionSpec, distance qdrant.Distance) error {
	info, err := db.QObj.GetCollectionInfo(ctx, spec.Name)
	if err != nil {
		return ragErrors.NewRemoteServiceError(serviceName, "get_collection_info", err)
	}
	params := info.GetConfig().GetParams().GetVectorsConfig().GetParams()
	if params == nil {
		// named vectors, this service only ever writes the default unnamed one
		return ragErrors.NewConfigurationError("QDRANT_COLLECTION", "collection %q has no default vector configuration", spec.Name)
	}
	if params.GetSize() != uint64(spec.Dimension) {
		return ragErrors.NewConfigurationError("EMBEDDING_DIMENSION",
			"collection %q stores vectors of size %d, embedding dimension is %d", spec.Name, params.GetSize(), spec.Dimension)
	}
	if params.GetDistance() != distance {
		return ragErrors.NewConfigurationError("QDRANT_DISTANCE",
			"collection %q uses %s distance, configured %s", spec.Name, params.GetDistance().String(), distance.String())
	}
	return nil
}

func (db *ClientHolder) Upsert(ctx context.Context, collection string, chunks []commonModels.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return ragErrors.NewValidationError("vectors", "mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}
	for i, v := range vectors {
		if len(v) != db.dimension {
			return ragErrors.NewValidationError("vectors", "vector %d has dimension %d, expected %d", i, len(v), db.dimension)
		}
	}
	log := db.logger.WithTrace(ctx, config.TRACE_ID_KEY).With("collection", collection)

	for start := 0; start < len(chunks); start += db.batchSize {
		end := min(start+db.batchSize, len(chunks))

		points, err := toPoints(chunks[start:end], vectors[start:end])
		if err != nil {
			return &vectorDB.BatchError{Start: start, End: end, Err: ragErrors.NewValidationError("payload", "%v", err)}
		}
		_, err = db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collection,
			Points:         points,
			Wait:           qdrant.PtrOf(true),
		})
		if err != nil {
			log.Error("Upsert batch failed", "start", start, "end", end, "error", err)
			return &vectorDB.BatchError{
				Start: start,
				End:   end,
				Err:   ragErrors.NewRemoteServiceError(serviceName, "upsert", err),
			}
		}
		log.Debug("Upserted batch", "start", start, "end", end)
	}
	return nil
}

func toPoints(chunks []commonModels.Chunk, vectors [][]float32) ([]*qdrant.PointStruct, error) {
	points := make([]*qdrant.PointStruct, len(chunks))
	for i, chunk := range chunks {
		md := chunk.Metadata
		payload, err := qdrant.TryValueMap(map[string]any{
			"page_number":  md.PageNumber,
			"source":       md.Source,
			"content_hash": md.ContentHash,
			"chunk_index":  md.ChunkIndex,
			"text":         chunk.Text,
		})
		if err != nil {
			return nil, fmt.Errorf("chunk %d of %s page %d: %w", md.ChunkIndex, md.Source, md.PageNumber, err)
		}
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(ingest.PointID(md.ContentHash, md.ChunkIndex)),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: payload,
		}
	}
	return points, nil
}

func (db *ClientHolder) Search(ctx context.Context, collection string, vector []float32, topK int) ([]commonModels.SearchResult, error) {
	if topK <= 0 {
		return nil, ragErrors.NewValidationError("top_k", "must be positive, got %d", topK)
	}
	log := db.logger.WithTrace(ctx, config.TRACE_ID_KEY)

	hits, err := db.QObj.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		log.Error("Error querying Qdrant", "error", err)
		return nil, ragErrors.NewRemoteServiceError(serviceName, "query", err)
	}

	results := make([]commonModels.SearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, fromPayload(hit))
	}
	log.Debug("Found matches", "count", len(results))
	return results, nil
}

func fromPayload(hit *qdrant.ScoredPoint) commonModels.SearchResult {
	p := hit.GetPayload()
	return commonModels.SearchResult{
		Text:        p["text"].GetStringValue(),
		PageNumber:  int(p["page_number"].GetIntegerValue()),
		Source:      p["source"].GetStringValue(),
		ContentHash: p["content_hash"].GetStringValue(),
		ChunkIndex:  int(p["chunk_index"].GetIntegerValue()),
		Score:       hit.GetScore(),
	}
}

func (db *ClientHolder) Stats(ctx context.Context, collection string) (commonModels.CollectionStats, error) {
	info, err := db.QObj.GetCollectionInfo(ctx, collection)
	if err != nil {
		return commonModels.CollectionStats{}, ragErrors.NewRemoteServiceError(serviceName, "get_collection_info", err)
	}
	return commonModels.CollectionStats{
		PointCount: info.GetPointsCount(),
		Status:     strings.ToLower(info.GetStatus().String()),
	}, nil
}

func ParseDistance(name string) (qdrant.Distance, error) {
	switch strings.ToLower(name) {
	case "", "cosine":
		return qdrant.Distance_Cosine, nil
	case "dot":
		return qdrant.Distance_Dot, nil
	case "euclid":
		return qdrant.Distance_Euclid, nil
	case "manhattan":
		return qdrant.Distance_Manhattan, nil
	}
	return qdrant.Distance_UnknownDistance, ragErrors.NewConfigurationError("QDRANT_DISTANCE", "unsupported distance %q", name)
}

// IsBatchError reports whether err is an upsert failure and which chunk range it covered.
func IsBatchError(err error) (start int, end int, ok bool) {
	var be *vectorDB.BatchError
	if errors.As(err, &be) {
		return be.Start, be.End, true
	}
	return 0, 0, false
}
