package workerpool

import (
	"context"
	"errors"
	"time"

	"leetclone/internal/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Handler processes one stream entry. Entries are acknowledged whether or
// not it succeeds.
type Handler func(ctx context.Context, msg redis.XMessage) error

type Worker struct {
	id     string
	rdb    redis.UniversalClient
	stream string
	group  string
	block  time.Duration
	handle Handler

	cancel context.CancelFunc
	done   chan struct{}
}

func NewWorker(id string, rdb redis.UniversalClient, stream, group string, block time.Duration, handle Handler) *Worker {
	return &Worker{
		id:     id,
		rdb:    rdb,
		stream: stream,
		group:  group,
		block:  block,
		handle: handle,
		done:   make(chan struct{}),
	}
}

func (w *Worker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	go func() {
		defer close(w.done)
		for {
			if ctx.Err() != nil {
				return
			}
			entries, err := w.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
				Group:    w.group,
				Consumer: w.id,
				Streams:  []string{w.stream, ">"},
				Count:    10,
				Block:    w.block,
			}).Result()

			if err != nil {
				if errors.Is(err, redis.Nil) || ctx.Err() != nil {
					continue
				}
				logger.Log.Error("Redis operation failed",
					zap.String("worker_id", w.id),
					zap.Error(err))
				select {
				case <-ctx.Done():
				case <-time.After(time.Second):
				}
				continue
			}

			for _, stream := range entries {
				for _, msg := range stream.Messages {
					w.processJob(ctx, msg)
				}
			}
		}
	}()
}

func (w *Worker) processJob(ctx context.Context, msg redis.XMessage) {
	if err := w.handle(ctx, msg); err != nil {
		logger.Log.Error("Job failed",
			zap.String("worker_id", w.id),
			zap.String("job_id", msg.ID),
			zap.Error(err))
	} else {
		logger.Log.Debug("Finished processing job",
			zap.String("worker_id", w.id),
			zap.String("job_id", msg.ID))
	}

	if err := w.rdb.XAck(context.WithoutCancel(ctx), w.stream, w.group, msg.ID).Err(); err != nil {
		logger.Log.Warn("Failed to acknowledge job",
			zap.String("worker_id", w.id),
			zap.Error(err))
	}
}

// Stop cancels the read loop and waits for the in-flight batch.
func (w *Worker) Stop() {
	logger.Log.Info("Closing worker",
		zap.String("worker_id", w.id))
	if w.cancel != nil {
		w.cancel()
		<-w.done
	}
}
