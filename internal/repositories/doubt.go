package repositories

import (
	"context"
	"fmt"

	"leetclone/internal/models"
)

const (
	collDoubts  = "doubts"
	collThreads = "threads"
)

// Sort orders accepted by the doubt section listings.
const (
	SortRecent = "recent"
	SortLikes  = "likes"
)

func listOrder(sort string) Query {
	if sort == SortLikes {
		return Query{OrderBy: "likes", Desc: true}
	}
	return Query{OrderBy: "createdAt", Desc: true}
}

type DoubtRepository interface {
	CreateDoubt(ctx context.Context, d *models.Doubt) error
	GetDoubt(ctx context.Context, id string) (*models.Doubt, error)
	ListDoubts(ctx context.Context, titleSlug, sort string) ([]models.Doubt, error)
	UpdateDoubt(ctx context.Context, id string, fn func(d *models.Doubt) error) error
	DeleteDoubt(ctx context.Context, id string) error
}

type doubtRepository struct {
	store DocStore
}

func NewDoubtRepository(store DocStore) DoubtRepository {
	return &doubtRepository{store: store}
}

func (r *doubtRepository) CreateDoubt(ctx context.Context, d *models.Doubt) error {
	if err := r.store.Set(ctx, collDoubts, d.ID, d); err != nil {
		return fmt.Errorf("failed to create doubt: %w", err)
	}
	return nil
}

func (r *doubtRepository) GetDoubt(ctx context.Context, id string) (*models.Doubt, error) {
	var d models.Doubt
	if err := r.store.Get(ctx, collDoubts, id, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *doubtRepository) ListDoubts(ctx context.Context, titleSlug, sort string) ([]models.Doubt, error) {
	q := listOrder(sort)
	q.Where = []Filter{Where("titleSlug", titleSlug)}
	out, err := QueryInto[models.Doubt](ctx, r.store, collDoubts, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list doubts: %w", err)
	}
	return out, nil
}

func (r *doubtRepository) UpdateDoubt(ctx context.Context, id string, fn func(d *models.Doubt) error) error {
	return updateExisting(ctx, r.store, collDoubts, id, fn)
}

func (r *doubtRepository) DeleteDoubt(ctx context.Context, id string) error {
	return r.store.Delete(ctx, collDoubts, id)
}

type ThreadRepository interface {
	CreateThread(ctx context.Context, t *models.Thread) error
	GetThread(ctx context.Context, id string) (*models.Thread, error)
	ListThreads(ctx context.Context, titleSlug, sort string) ([]models.Thread, error)
	UpdateThread(ctx context.Context, id string, fn func(t *models.Thread) error) error
	DeleteThread(ctx context.Context, id string) error
}

type threadRepository struct {
	store DocStore
}

func NewThreadRepository(store DocStore) ThreadRepository {
	return &threadRepository{store: store}
}

func (r *threadRepository) CreateThread(ctx context.Context, t *models.Thread) error {
	if err := r.store.Set(ctx, collThreads, t.ID, t); err != nil {
		return fmt.Errorf("failed to create thread: %w", err)
	}
	return nil
}

func (r *threadRepository) GetThread(ctx context.Context, id string) (*models.Thread, error) {
	var t models.Thread
	if err := r.store.Get(ctx, collThreads, id, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *threadRepository) ListThreads(ctx context.Context, titleSlug, sort string) ([]models.Thread, error) {
	q := listOrder(sort)
	q.Where = []Filter{Where("titleSlug", titleSlug)}
	out, err := QueryInto[models.Thread](ctx, r.store, collThreads, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	return out, nil
}

func (r *threadRepository) UpdateThread(ctx context.Context, id string, fn func(t *models.Thread) error) error {
	return updateExisting(ctx, r.store, collThreads, id, fn)
}

func (r *threadRepository) DeleteThread(ctx context.Context, id string) error {
	return r.store.Delete(ctx, collThreads, id)
}
