package repositories_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"leetclone/internal/models"
	"leetclone/internal/repositories"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) repositories.DocStore {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return repositories.NewRedisDocStore(rdb, "test:")
}

type counter struct {
	N int `json:"n"`
}

func TestRedisDocStoreGetSetDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	var got counter
	if err := store.Get(ctx, "counters", "a", &got); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.Set(ctx, "counters", "a", counter{N: 3}); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := store.Get(ctx, "counters", "a", &got); err != nil || got.N != 3 {
		t.Fatalf("unexpected get: %+v %v", got, err)
	}

	if err := store.Delete(ctx, "counters", "a"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := store.Get(ctx, "counters", "a", &got); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	raws, err := store.Query(ctx, "counters", repositories.Query{})
	if err != nil || len(raws) != 0 {
		t.Fatalf("expected empty collection, got %d %v", len(raws), err)
	}
}

func TestRedisDocStoreMerge(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.Set(ctx, "notes", "n1", map[string]any{"content": "old", "uid": "u1"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := store.Merge(ctx, "notes", "n1", map[string]any{"content": "new"}); err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	var got map[string]any
	if err := store.Get(ctx, "notes", "n1", &got); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got["content"] != "new" || got["uid"] != "u1" {
		t.Fatalf("unexpected merged doc: %v", got)
	}
}

func TestRedisDocStoreQuery(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	recs := []models.SubmissionRecord{
		{ID: "1", UID: "u1", TitleSlug: "two-sum", Timestamp: base},
		{ID: "2", UID: "u1", TitleSlug: "two-sum", Timestamp: base.Add(2 * time.Hour)},
		{ID: "3", UID: "u1", TitleSlug: "add-two", Timestamp: base.Add(time.Hour)},
		{ID: "4", UID: "u2", TitleSlug: "two-sum", Timestamp: base.Add(3 * time.Hour)},
	}
	for i := range recs {
		if err := store.Set(ctx, "submissions", recs[i].ID, &recs[i]); err != nil {
			t.Fatalf("set failed: %v", err)
		}
	}

	got, err := repositories.QueryInto[models.SubmissionRecord](ctx, store, "submissions", repositories.Query{
		Where:   []repositories.Filter{repositories.Where("uid", "u1"), repositories.Where("titleSlug", "two-sum")},
		OrderBy: "timestamp",
		Desc:    true,
	})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != "2" || got[1].ID != "1" {
		t.Fatalf("unexpected query result: %+v", got)
	}

	limited, err := store.Query(ctx, "submissions", repositories.Query{OrderBy: "timestamp", Limit: 1})
	if err != nil || len(limited) != 1 {
		t.Fatalf("unexpected limited query: %d %v", len(limited), err)
	}
}

func TestRedisDocStoreQueryByBoolAndArrayLength(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_ = store.Set(ctx, "doubts", "a", map[string]any{"solved": true, "likes": []string{"x"}})
	_ = store.Set(ctx, "doubts", "b", map[string]any{"solved": true, "likes": []string{"x", "y", "z"}})
	_ = store.Set(ctx, "doubts", "c", map[string]any{"solved": false, "likes": []string{}})

	raws, err := store.Query(ctx, "doubts", repositories.Query{
		Where:   []repositories.Filter{repositories.Where("solved", true)},
		OrderBy: "likes",
		Desc:    true,
	})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(raws) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(raws))
	}
	var first map[string]any
	_ = json.Unmarshal(raws[0], &first)
	if len(first["likes"].([]any)) != 3 {
		t.Fatalf("expected most liked first, got %v", first)
	}
}

func TestRedisDocStoreUpdateInTxIsAtomic(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	const workers = 4
	const perWorker = 5

	var wg sync.WaitGroup
	var applied atomic.Int64
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				err := repositories.UpdateDoc(ctx, store, "counters", "shared", func(c *counter, _ bool) error {
					c.N++
					return nil
				})
				switch {
				case err == nil:
					applied.Add(1)
				case !errors.Is(err, repositories.ErrTxConflict):
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("update failed: %v", err)
	}

	var got counter
	if err := store.Get(ctx, "counters", "shared", &got); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if int64(got.N) != applied.Load() {
		t.Fatalf("lost update: counter %d, applied %d", got.N, applied.Load())
	}
}

func TestRedisDocStoreUpdateInTxAbort(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	_ = store.Set(ctx, "counters", "a", counter{N: 1})

	boom := errors.New("boom")
	err := store.UpdateInTx(ctx, "counters", "a", func(json.RawMessage) (any, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}

	var got counter
	_ = store.Get(ctx, "counters", "a", &got)
	if got.N != 1 {
		t.Fatalf("document changed after aborted update: %d", got.N)
	}
}
