package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"leetclone/internal/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultTxRetries = 10

type redisDocStore struct {
	rdb        redis.UniversalClient
	prefix     string
	maxRetries int
}

// NewRedisDocStore keeps each document as a JSON string at
// <prefix>doc:<collection>:<id> and the ids of a collection in a set.
func NewRedisDocStore(rdb redis.UniversalClient, prefix string) DocStore {
	return &redisDocStore{rdb: rdb, prefix: prefix, maxRetries: defaultTxRetries}
}

func (s *redisDocStore) docKey(collection, id string) string {
	return fmt.Sprintf("%sdoc:%s:%s", s.prefix, collection, id)
}

func (s *redisDocStore) indexKey(collection string) string {
	return fmt.Sprintf("%sdocs:%s", s.prefix, collection)
}

func (s *redisDocStore) Get(ctx context.Context, collection, id string, dest any) error {
	data, err := s.rdb.Get(ctx, s.docKey(collection, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return json.Unmarshal(data, dest)
}

func (s *redisDocStore) Set(ctx context.Context, collection, id string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.docKey(collection, id), data, 0)
		pipe.SAdd(ctx, s.indexKey(collection), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *redisDocStore) Merge(ctx context.Context, collection, id string, fields map[string]any) error {
	return s.UpdateInTx(ctx, collection, id, func(current json.RawMessage) (any, error) {
		merged, err := mergeFields(current, fields)
		if err != nil {
			return nil, err
		}
		return json.RawMessage(merged), nil
	})
}

func (s *redisDocStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.docKey(collection, id))
		pipe.SRem(ctx, s.indexKey(collection), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *redisDocStore) Query(ctx context.Context, collection string, q Query) ([]json.RawMessage, error) {
	ids, err := s.rdb.SMembers(ctx, s.indexKey(collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	if len(ids) == 0 {
		return []json.RawMessage{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.docKey(collection, id)
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", collection, err)
	}

	raws := make([]json.RawMessage, 0, len(vals))
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		raws = append(raws, json.RawMessage(str))
	}
	return applyQuery(raws, q)
}

// UpdateInTx watches the document key and retries when another client
// writes it between the read and the EXEC.
func (s *redisDocStore) UpdateInTx(ctx context.Context, collection, id string, fn TxFunc) error {
	key := s.docKey(collection, id)

	txf := func(tx *redis.Tx) error {
		var current json.RawMessage
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			current = data
		}

		next, err := fn(current)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}
		encoded, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode %s/%s: %w", collection, id, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, 0)
			pipe.SAdd(ctx, s.indexKey(collection), id)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		err := s.rdb.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			logger.FromContext(ctx).Debug("Document transaction retry",
				zap.String("collection", collection),
				zap.String("id", id),
				zap.Int("attempt", attempt+1))
			continue
		}
		return err
	}
	return ErrTxConflict
}
