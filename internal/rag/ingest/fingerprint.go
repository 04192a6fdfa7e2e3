package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// Fingerprint is the lowercase hex SHA-256 of content.
func Fingerprint(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// PointID derives the vector store id of a chunk. Same hash and index always give the same UUIDv5,
// so re-ingesting overwrites instead of duplicating.
func PointID(contentHash string, chunkIndex int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s_%d", contentHash, chunkIndex))).String()
}
