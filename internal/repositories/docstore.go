package repositories

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"
)

var (
	ErrNotFound = errors.New("document not found")
	// ErrTxConflict is returned when an atomic update kept losing to concurrent writers.
	ErrTxConflict = errors.New("transaction conflict: too many retries")
)

// Filter matches documents whose top-level Field equals Value.
type Filter struct {
	Field string
	Value any
}

type Query struct {
	Where   []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

func Where(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

// TxFunc receives the current document (nil when absent) and returns the
// document to store. Returning a nil doc with a nil error skips the write.
type TxFunc func(current json.RawMessage) (next any, err error)

// DocStore persists JSON documents grouped in collections.
type DocStore interface {
	Get(ctx context.Context, collection, id string, dest any) error
	Set(ctx context.Context, collection, id string, doc any) error
	// Merge overwrites the given top-level fields, creating the document if needed.
	Merge(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, collection string, q Query) ([]json.RawMessage, error)
	// UpdateInTx runs fn as an atomic read-modify-write of one document.
	UpdateInTx(ctx context.Context, collection, id string, fn TxFunc) error
}

// QueryInto runs q and decodes every match into a slice of T.
func QueryInto[T any](ctx context.Context, store DocStore, collection string, q Query) ([]T, error) {
	raws, err := store.Query(ctx, collection, q)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode %s document: %w", collection, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// UpdateDoc is UpdateInTx with typed decoding. fn sees exists=false and a
// zero T when the document is missing.
func UpdateDoc[T any](ctx context.Context, store DocStore, collection, id string, fn func(doc *T, exists bool) error) error {
	return store.UpdateInTx(ctx, collection, id, func(current json.RawMessage) (any, error) {
		var doc T
		exists := current != nil
		if exists {
			if err := json.Unmarshal(current, &doc); err != nil {
				return nil, fmt.Errorf("decode %s/%s: %w", collection, id, err)
			}
		}
		if err := fn(&doc, exists); err != nil {
			return nil, err
		}
		return &doc, nil
	})
}

func mergeFields(current json.RawMessage, fields map[string]any) ([]byte, error) {
	doc := map[string]any{}
	if current != nil {
		if err := json.Unmarshal(current, &doc); err != nil {
			return nil, err
		}
	}
	for k, v := range fields {
		doc[k] = v
	}
	return json.Marshal(doc)
}

type decodedDoc struct {
	raw    json.RawMessage
	fields map[string]any
}

// applyQuery filters, orders and limits raw documents in memory.
func applyQuery(raws []json.RawMessage, q Query) ([]json.RawMessage, error) {
	want := make([]any, len(q.Where))
	for i, f := range q.Where {
		v, err := normalize(f.Value)
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", f.Field, err)
		}
		want[i] = v
	}

	docs := make([]decodedDoc, 0, len(raws))
	for _, raw := range raws {
		var fields map[string]any
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, err
		}
		match := true
		for i, f := range q.Where {
			if !reflect.DeepEqual(fields[f.Field], want[i]) {
				match = false
				break
			}
		}
		if match {
			docs = append(docs, decodedDoc{raw: raw, fields: fields})
		}
	}

	if q.OrderBy != "" {
		slices.SortStableFunc(docs, func(a, b decodedDoc) int {
			c := compareValues(a.fields[q.OrderBy], b.fields[q.OrderBy])
			if q.Desc {
				return -c
			}
			return c
		})
	}
	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}

	out := make([]json.RawMessage, len(docs))
	for i, d := range docs {
		out[i] = d.raw
	}
	return out, nil
}

// normalize brings a Go value to the shape encoding/json decodes into any.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	err = json.Unmarshal(data, &out)
	return out, err
}

// compareValues orders numbers numerically, RFC 3339 strings by instant,
// arrays by length and everything else as strings. Missing values sort first.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	switch av := a.(type) {
	case float64:
		if bv, ok := b.(float64); ok {
			return cmp.Compare(av, bv)
		}
	case []any:
		if bv, ok := b.([]any); ok {
			return cmp.Compare(len(av), len(bv))
		}
	case bool:
		if bv, ok := b.(bool); ok {
			return cmp.Compare(boolInt(av), boolInt(bv))
		}
	case string:
		if bv, ok := b.(string); ok {
			ta, errA := time.Parse(time.RFC3339Nano, av)
			tb, errB := time.Parse(time.RFC3339Nano, bv)
			if errA == nil && errB == nil {
				return ta.Compare(tb)
			}
			return strings.Compare(av, bv)
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
