//go:build integration

package repositories_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"

	"leetclone/internal/repositories"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	_ "github.com/go-sql-driver/mysql"
)

// Run with: MYSQL_TEST_DSN='user:pass@tcp(127.0.0.1:3306)/leetclone_test' go test -tags integration ./internal/repositories/
func newMySQLTestStore(t *testing.T) (repositories.DocStore, string) {
	t.Helper()
	dsn := os.Getenv("MYSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("MYSQL_TEST_DSN not set")
	}
	ctx := context.Background()
	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("open mysql failed: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("ping mysql failed: %v", err)
	}
	if err := repositories.MigrateDocuments(ctx, db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	collection := "test_" + uuid.NewString()[:8]
	t.Cleanup(func() {
		_, _ = db.ExecContext(context.Background(), `DELETE FROM documents WHERE collection = ?`, collection)
		_ = db.Close()
	})
	return repositories.NewMySQLDocStore(db), collection
}

func TestMySQLDocStoreGetSetDelete(t *testing.T) {
	ctx := context.Background()
	store, coll := newMySQLTestStore(t)

	var got counter
	if err := store.Get(ctx, coll, "a", &got); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Set(ctx, coll, "a", counter{N: 3}); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := store.Set(ctx, coll, "a", counter{N: 4}); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	if err := store.Get(ctx, coll, "a", &got); err != nil || got.N != 4 {
		t.Fatalf("unexpected get: %+v %v", got, err)
	}
	if err := store.Delete(ctx, coll, "a"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := store.Get(ctx, coll, "a", &got); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMySQLDocStoreMergeAndQuery(t *testing.T) {
	ctx := context.Background()
	store, coll := newMySQLTestStore(t)

	_ = store.Set(ctx, coll, "a", map[string]any{"uid": "u1", "likes": []string{"x"}})
	_ = store.Set(ctx, coll, "b", map[string]any{"uid": "u1", "likes": []string{"x", "y"}})
	_ = store.Set(ctx, coll, "c", map[string]any{"uid": "u2", "likes": []string{}})

	if err := store.Merge(ctx, coll, "a", map[string]any{"solved": true}); err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if err := store.Merge(ctx, coll, "d", map[string]any{"uid": "u3"}); err != nil {
		t.Fatalf("merge into missing doc failed: %v", err)
	}

	raws, err := store.Query(ctx, coll, repositories.Query{
		Where:   []repositories.Filter{repositories.Where("uid", "u1")},
		OrderBy: "likes",
		Desc:    true,
	})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(raws) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(raws))
	}
	var first, second map[string]any
	_ = json.Unmarshal(raws[0], &first)
	_ = json.Unmarshal(raws[1], &second)
	if len(first["likes"].([]any)) != 2 || second["solved"] != true || second["uid"] != "u1" {
		t.Fatalf("unexpected query result: %v %v", first, second)
	}

	all, err := store.Query(ctx, coll, repositories.Query{})
	if err != nil || len(all) != 4 {
		t.Fatalf("expected 4 documents, got %d %v", len(all), err)
	}
}

func TestMySQLDocStoreUpdateInTxIsAtomic(t *testing.T) {
	ctx := context.Background()
	store, coll := newMySQLTestStore(t)
	if err := store.Set(ctx, coll, "shared", counter{}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	const workers = 4
	const perWorker = 5

	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				err := repositories.UpdateDoc(ctx, store, coll, "shared", func(c *counter, _ bool) error {
					c.N++
					return nil
				})
				if err != nil {
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
	if err := store.Get(ctx, coll, "shared", &got); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.N != workers*perWorker {
		t.Fatalf("lost update: counter %d, want %d", got.N, workers*perWorker)
	}
}

func TestMySQLDocStoreUpdateInTxAbort(t *testing.T) {
	ctx := context.Background()
	store, coll := newMySQLTestStore(t)
	_ = store.Set(ctx, coll, "a", counter{N: 1})

	boom := errors.New("boom")
	err := store.UpdateInTx(ctx, coll, "a", func(json.RawMessage) (any, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}

	var got counter
	_ = store.Get(ctx, coll, "a", &got)
	if got.N != 1 {
		t.Fatalf("document changed after aborted update: %d", got.N)
	}
}
