package ingest

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// Tokenizer turns text into token ids and back. Decode(Encode(s)) must reproduce s, and Decode must
// return valid UTF-8 for any slice of ids since window edges can split a multibyte character.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
	Name() string
}

var loaderOnce sync.Once

type tiktokenTokenizer struct {
	encoding string
	tke      *tiktoken.Tiktoken
}

// NewTiktokenTokenizer loads an encoding from the embedded BPE tables, no network access.
func NewTiktokenTokenizer(encoding string) (Tokenizer, error) {
	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})

	tke, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get tiktoken encoding %q: %w", encoding, err)
	}
	return &tiktokenTokenizer{encoding: encoding, tke: tke}, nil
}

func (t *tiktokenTokenizer) Encode(text string) []int {
	return t.tke.Encode(text, nil, nil)
}

func (t *tiktokenTokenizer) Decode(tokens []int) string {
	return strings.ToValidUTF8(t.tke.Decode(tokens), "\uFFFD")
}

func (t *tiktokenTokenizer) Name() string {
	return t.encoding
}
