package store

import (
	"context"

	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/internal/data/redisStore"
	"github.com/akolanti/pdfrag/internal/domain/commonModels"
	"github.com/akolanti/pdfrag/pkg/logger_i"
)

const ledgerKeyPrefix = "ingest:ledger:"

// RedisPageLedger keeps one set of page entries per scope and source file.
type RedisPageLedger struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

var _ commonModels.PageLedger = (*RedisPageLedger)(nil)

func NewRedisPageLedger(s *redisStore.Store) *RedisPageLedger {
	return &RedisPageLedger{
		store:  s,
		logger: logger_i.NewLogger("PageLedger"),
	}
}

func ledgerKey(scope string, source string) string {
	return ledgerKeyPrefix + scope + ":" + source
}

func (l *RedisPageLedger) Seen(ctx context.Context, scope string, source string) (map[string]bool, error) {
	log := l.logger.WithTrace(ctx, config.TRACE_ID_KEY).With("scope", scope, "source", source)
	hashes, err := l.store.SetMembers(ctx, ledgerKey(scope, source))
	if err != nil {
		log.Error("Failed to read ledger", "error", err)
		return nil, err
	}
	seen := make(map[string]bool, len(hashes))
	for _, h := range hashes {
		seen[h] = true
	}
	log.Debug("Read ledger", "entries", len(seen))
	return seen, nil
}

func (l *RedisPageLedger) Record(ctx context.Context, scope string, source string, entries []string) error {
	log := l.logger.WithTrace(ctx, config.TRACE_ID_KEY).With("scope", scope, "source", source)
	if err := l.store.SetAdd(ctx, ledgerKey(scope, source), entries...); err != nil {
		log.Error("Failed to record ledger", "error", err)
		return err
	}
	log.Debug("Recorded ledger", "entries", len(entries))
	return nil
}
