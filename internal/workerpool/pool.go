package workerpool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"leetclone/internal/logger"
	"leetclone/internal/models"
	"leetclone/internal/repositories"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	payloadField = "payload"
	streamMaxLen = 10000
	defaultBlock = 5 * time.Second
)

// ProgressPool consumes solved-flag updates from a Redis stream and writes
// them to the progress repository.
type ProgressPool struct {
	workers    []*Worker
	numWorkers int
	rdb        redis.UniversalClient
	stream     string
	group      string
	block      time.Duration
	progress   repositories.ProgressRepository
}

type PoolOption func(*ProgressPool)

// WithBlock sets how long a worker waits on an empty stream before polling again.
func WithBlock(d time.Duration) PoolOption {
	return func(p *ProgressPool) { p.block = d }
}

func NewProgressPool(numWorkers int, rdb redis.UniversalClient, stream, group string,
	progress repositories.ProgressRepository, opts ...PoolOption) *ProgressPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	p := &ProgressPool{
		numWorkers: numWorkers,
		rdb:        rdb,
		stream:     stream,
		group:      group,
		block:      defaultBlock,
		progress:   progress,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *ProgressPool) Start(ctx context.Context) error {
	_, err := p.rdb.XGroupCreateMkStream(ctx, p.stream, p.group, "0").Result()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	p.workers = make([]*Worker, p.numWorkers)
	for i := 0; i < p.numWorkers; i++ {
		worker := NewWorker(
			fmt.Sprintf("ProgressWorker-%d", i+1),
			p.rdb,
			p.stream,
			p.group,
			p.block,
			p.apply,
		)
		worker.Start(ctx)
		p.workers[i] = worker

		logger.Log.Info("Starting progress worker",
			zap.String("worker_id", worker.id))
	}

	logger.Log.Info("Progress worker pool started",
		zap.Int("num_workers", p.numWorkers),
		zap.String("stream", p.stream))
	return nil
}

func (p *ProgressPool) apply(ctx context.Context, msg redis.XMessage) error {
	raw, ok := msg.Values[payloadField].(string)
	if !ok {
		return fmt.Errorf("message %s has no %s field", msg.ID, payloadField)
	}
	var update models.QuestionProgress
	if err := json.Unmarshal([]byte(raw), &update); err != nil {
		return fmt.Errorf("decode progress update: %w", err)
	}
	if err := p.progress.UpsertProgress(ctx, update); err != nil {
		return err
	}
	logger.Log.Info("Question progress updated",
		zap.String("uid", update.UID),
		zap.String("title_slug", update.TitleSlug),
		zap.Bool("solved", update.Solved))
	return nil
}

// Stop terminates all workers in the pool
func (p *ProgressPool) Stop() {
	for _, worker := range p.workers {
		worker.Stop()
	}
}

// StreamPublisher appends progress updates to the stream the pool reads.
type StreamPublisher struct {
	rdb    redis.UniversalClient
	stream string
}

func NewStreamPublisher(rdb redis.UniversalClient, stream string) *StreamPublisher {
	return &StreamPublisher{rdb: rdb, stream: stream}
}

func (s *StreamPublisher) PublishProgress(ctx context.Context, update models.QuestionProgress) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("encode progress update: %w", err)
	}
	err = s.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: streamMaxLen,
		Approx: true,
		ID:     "*",
		Values: map[string]any{
			payloadField: string(payload),
			"uid":        update.UID,
			"title_slug": update.TitleSlug,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to add progress update to stream: %w", err)
	}
	return nil
}
