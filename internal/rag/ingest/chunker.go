package ingest

import (
	"github.com/akolanti/pdfrag/internal/domain/commonModels"
	"github.com/akolanti/pdfrag/internal/domain/ragErrors"
)

// MinChunkTokens is the smallest window kept. Shorter tails are mostly headers and page numbers.
const MinChunkTokens = 20

// ChunkPages splits every page into overlapping token windows of chunkSize, advancing by chunkSize-overlap.
// Output is a pure function of the pages and parameters.
func ChunkPages(pages []commonModels.Page, chunkSize int, overlap int, tok Tokenizer) ([]commonModels.Chunk, error) {
	if chunkSize <= 0 {
		return nil, ragErrors.NewValidationError("chunk_size", "must be positive, got %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, ragErrors.NewValidationError("chunk_overlap", "must be in [0, %d), got %d", chunkSize, overlap)
	}
	if tok == nil {
		return nil, ragErrors.NewValidationError("tokenizer", "is required")
	}

	var chunks []commonModels.Chunk
	for _, page := range pages {
		chunks = append(chunks, chunkPage(page, chunkSize, overlap, tok)...)
	}
	return chunks, nil
}

func chunkPage(page commonModels.Page, chunkSize int, overlap int, tok Tokenizer) []commonModels.Chunk {
	tokens := tok.Encode(page.Content)
	n := len(tokens)
	if n == 0 {
		return nil
	}

	step := chunkSize - overlap
	var chunks []commonModels.Chunk
	chunkIndex := 0

	for start := 0; start < n; start += step {
		end := min(start+chunkSize, n)
		window := tokens[start:end]

		if len(window) >= MinChunkTokens {
			chunks = append(chunks, commonModels.Chunk{
				Text: tok.Decode(window),
				Metadata: commonModels.ChunkMetadata{
					PageNumber:  page.PageNumber,
					Source:      page.Source,
					ContentHash: page.ContentHash,
					ChunkIndex:  chunkIndex,
				},
			})
			chunkIndex++
		}

		if start+chunkSize >= n {
			break
		}
	}
	return chunks
}
