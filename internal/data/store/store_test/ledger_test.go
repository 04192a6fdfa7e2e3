package store_test

import (
	"context"
	"testing"

	"github.com/akolanti/pdfrag/internal/config"
	"github.com/akolanti/pdfrag/internal/data/redisStore"
	"github.com/akolanti/pdfrag/internal/data/store"
	"github.com/akolanti/pdfrag/internal/domain/commonModels"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const scope = "pdf_chunks|cl100k_base|512|50"

func exerciseLedger(t *testing.T, ledger commonModels.PageLedger) {
	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")

	t.Run("Unknown source is empty", func(t *testing.T) {
		seen, err := ledger.Seen(ctx, scope, "never.pdf")
		if err != nil {
			t.Fatalf("Seen failed: %v", err)
		}
		if len(seen) != 0 {
			t.Errorf("expected no hashes, got %v", seen)
		}
	})

	t.Run("Record and read back", func(t *testing.T) {
		if err := ledger.Record(ctx, scope, "a.pdf", []string{"h1", "h2"}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
		if err := ledger.Record(ctx, scope, "a.pdf", []string{"h2", "h3"}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
		seen, err := ledger.Seen(ctx, scope, "a.pdf")
		if err != nil {
			t.Fatal(err)
		}
		if len(seen) != 3 || !seen["h1"] || !seen["h2"] || !seen["h3"] {
			t.Errorf("unexpected ledger contents %v", seen)
		}
	})

	t.Run("Sources are independent", func(t *testing.T) {
		if err := ledger.Record(ctx, scope, "b.pdf", []string{"h1"}); err != nil {
			t.Fatal(err)
		}
		seen, _ := ledger.Seen(ctx, scope, "b.pdf")
		if len(seen) != 1 {
			t.Errorf("b.pdf should hold one hash, got %v", seen)
		}
	})

	t.Run("Scopes are independent", func(t *testing.T) {
		other := "other_collection|cl100k_base|512|50"
		seen, err := ledger.Seen(ctx, other, "a.pdf")
		if err != nil {
			t.Fatal(err)
		}
		if len(seen) != 0 {
			t.Errorf("a.pdf under another scope should be empty, got %v", seen)
		}
		if err := ledger.Record(ctx, other, "a.pdf", []string{"h9"}); err != nil {
			t.Fatal(err)
		}
		seen, _ = ledger.Seen(ctx, scope, "a.pdf")
		if seen["h9"] {
			t.Errorf("record under one scope leaked into another: %v", seen)
		}
	})

	t.Run("Empty record is a no-op", func(t *testing.T) {
		if err := ledger.Record(ctx, scope, "c.pdf", nil); err != nil {
			t.Errorf("empty record failed: %v", err)
		}
	})
}

func TestRedisPageLedger(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	ledger := store.NewRedisPageLedger(redisStore.NewTestStore(client))
	exerciseLedger(t, ledger)

	members, err := mr.Members("ingest:ledger:" + scope + ":a.pdf")
	if err != nil {
		t.Fatalf("ledger key missing: %v", err)
	}
	if len(members) != 3 {
		t.Errorf("expected 3 members under the ledger key, got %v", members)
	}
}

func TestRedisPageLedger_Offline(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ledger := store.NewRedisPageLedger(redisStore.NewTestStore(client))
	mr.Close()

	if _, err := ledger.Seen(context.Background(), scope, "a.pdf"); err == nil {
		t.Error("expected an error from a closed redis")
	}
}

func TestInMemoryPageLedger(t *testing.T) {
	exerciseLedger(t, store.NewInMemoryPageLedger())
}

func TestNewRedisStore_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := redisStore.NewRedisStore(context.Background(), config.RedisConfig{Addr: addr}); err == nil {
		t.Error("expected ping failure")
	}
}

func TestNewRedisStore_Connects(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := redisStore.NewRedisStore(context.Background(), config.RedisConfig{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer s.Close()

	ledger := store.NewRedisPageLedger(s)
	if err := ledger.Record(context.Background(), scope, "x.pdf", []string{"h"}); err != nil {
		t.Fatal(err)
	}
	if ok, _ := mr.SIsMember("ingest:ledger:"+scope+":x.pdf", "h"); !ok {
		t.Error("hash not stored")
	}
}
