package repositories

import (
	"context"
	"fmt"

	"leetclone/internal/models"
)

const (
	collSubmissions = "submissions"
	collProgress    = "questions"
)

type SubmissionRepository interface {
	SaveSubmission(ctx context.Context, rec *models.SubmissionRecord) error
	// ListSubmissions returns the records of uid on titleSlug, newest first.
	ListSubmissions(ctx context.Context, uid, titleSlug string) ([]models.SubmissionRecord, error)
}

type submissionRepository struct {
	store DocStore
}

func NewSubmissionRepository(store DocStore) SubmissionRepository {
	return &submissionRepository{store: store}
}

func (r *submissionRepository) SaveSubmission(ctx context.Context, rec *models.SubmissionRecord) error {
	if err := r.store.Set(ctx, collSubmissions, rec.ID, rec); err != nil {
		return fmt.Errorf("failed to save submission: %w", err)
	}
	return nil
}

func (r *submissionRepository) ListSubmissions(ctx context.Context, uid, titleSlug string) ([]models.SubmissionRecord, error) {
	q := Query{OrderBy: "timestamp", Desc: true}
	q.Where = append(q.Where, Where("uid", uid))
	if titleSlug != "" {
		q.Where = append(q.Where, Where("titleSlug", titleSlug))
	}
	recs, err := QueryInto[models.SubmissionRecord](ctx, r.store, collSubmissions, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return recs, nil
}

// ProgressRepository keeps one solved-flag document per user and problem.
type ProgressRepository interface {
	UpsertProgress(ctx context.Context, p models.QuestionProgress) error
	ListProgress(ctx context.Context, uid string) ([]models.QuestionProgress, error)
}

type progressRepository struct {
	store DocStore
}

func NewProgressRepository(store DocStore) ProgressRepository {
	return &progressRepository{store: store}
}

func ProgressID(uid, titleSlug string) string {
	return uid + "_" + titleSlug
}

// UpsertProgress merges the update into the existing document. Last write wins.
func (r *progressRepository) UpsertProgress(ctx context.Context, p models.QuestionProgress) error {
	err := r.store.Merge(ctx, collProgress, ProgressID(p.UID, p.TitleSlug), map[string]any{
		"uid":           p.UID,
		"titleSlug":     p.TitleSlug,
		"solved":        p.Solved,
		"points":        p.Points,
		"submittedDate": p.SubmittedDate,
	})
	if err != nil {
		return fmt.Errorf("failed to update question progress: %w", err)
	}
	return nil
}

func (r *progressRepository) ListProgress(ctx context.Context, uid string) ([]models.QuestionProgress, error) {
	out, err := QueryInto[models.QuestionProgress](ctx, r.store, collProgress, Query{
		Where:   []Filter{Where("uid", uid)},
		OrderBy: "submittedDate",
		Desc:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list question progress: %w", err)
	}
	return out, nil
}
