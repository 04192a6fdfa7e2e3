package commonModels

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"path/filepath"
	"strings"
)

// Page is one extracted, non-blank page. Build it with NewPage so the hash always matches the content.
type Page struct {
	Content     string `json:"content"`
	PageNumber  int    `json:"page_number"`
	Source      string `json:"source"`
	ContentHash string `json:"content_hash"`
}

func NewPage(content string, pageNumber int, source string) Page {
	sum := sha256.Sum256([]byte(content))
	return Page{
		Content:     content,
		PageNumber:  pageNumber,
		Source:      source,
		ContentHash: hex.EncodeToString(sum[:]),
	}
}

type ChunkMetadata struct {
	PageNumber  int    `json:"page_number"`
	Source      string `json:"source"`
	ContentHash string `json:"content_hash"`
	ChunkIndex  int    `json:"chunk_index"`
}

type Chunk struct {
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Source is a retrieved chunk as shown to the caller.
type Source struct {
	Text       string  `json:"text"`
	PageNumber int     `json:"page_number"`
	Source     string  `json:"source"`
	Score      float64 `json:"score"`
}

// SearchResult is what the vector store hands back for one hit.
type SearchResult struct {
	Text        string
	PageNumber  int
	Source      string
	ContentHash string
	ChunkIndex  int
	Score       float32
}

func (r SearchResult) ToSource() Source {
	return Source{
		Text:       r.Text,
		PageNumber: r.PageNumber,
		Source:     r.Source,
		Score:      RoundScore(r.Score),
	}
}

// RoundScore rounds to 4 decimal places.
func RoundScore(score float32) float64 {
	return math.Round(float64(score)*10000) / 10000
}

type CollectionStats struct {
	PointCount uint64 `json:"point_count"`
	Status     string `json:"status"`
}

// PageLedger remembers which pages of a source were already stored. Entries live under a scope
// so a different collection or chunking setup never reuses another one's records.
type PageLedger interface {
	Seen(ctx context.Context, scope string, source string) (map[string]bool, error)
	Record(ctx context.Context, scope string, source string, entries []string) error
}

type DocType string

const (
	PDF  DocType = "PDF"
	DOCX DocType = "DOCX"
	ERR  DocType = "ERROR"
)

// GetDocType picks an extractor by file extension.
func GetDocType(path string) DocType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return PDF
	case ".docx", ".odt", ".rtf", ".txt":
		return DOCX
	default:
		return ERR
	}
}

func (p Page) String() string {
	return fmt.Sprintf("%s#%d", p.Source, p.PageNumber)
}
