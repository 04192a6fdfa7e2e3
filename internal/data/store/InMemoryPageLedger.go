package store

import (
	"context"
	"sync"

	"github.com/akolanti/pdfrag/internal/domain/commonModels"
)

// InMemoryPageLedger is used when no Redis is configured. It only dedupes within one process.
type InMemoryPageLedger struct {
	lock    sync.RWMutex
	sources map[string]map[string]bool
}

func memoryKey(scope string, source string) string {
	return scope + ":" + source
}

var _ commonModels.PageLedger = (*InMemoryPageLedger)(nil)

func NewInMemoryPageLedger() *InMemoryPageLedger {
	return &InMemoryPageLedger{
		sources: make(map[string]map[string]bool),
	}
}

func (l *InMemoryPageLedger) Seen(ctx context.Context, scope string, source string) (map[string]bool, error) {
	l.lock.RLock()
	defer l.lock.RUnlock()
	set := l.sources[memoryKey(scope, source)]
	seen := make(map[string]bool, len(set))
	for h := range set {
		seen[h] = true
	}
	return seen, nil
}

func (l *InMemoryPageLedger) Record(ctx context.Context, scope string, source string, entries []string) error {
	l.lock.Lock()
	defer l.lock.Unlock()
	key := memoryKey(scope, source)
	set, ok := l.sources[key]
	if !ok {
		set = make(map[string]bool, len(entries))
		l.sources[key] = set
	}
	for _, h := range entries {
		set[h] = true
	}
	return nil
}
