package repositories

import (
	"context"
	"fmt"
	"time"

	"leetclone/internal/models"
)

const collNotes = "notes"

type NoteRepository interface {
	GetNote(ctx context.Context, uid, titleSlug string) (*models.Note, error)
	SaveNote(ctx context.Context, uid, titleSlug, content string, at time.Time) (*models.Note, error)
	ListNotes(ctx context.Context, uid string) ([]models.Note, error)
}

type noteRepository struct {
	store DocStore
}

func NewNoteRepository(store DocStore) NoteRepository {
	return &noteRepository{store: store}
}

func noteID(uid, titleSlug string) string {
	return uid + "_" + titleSlug
}

func (r *noteRepository) GetNote(ctx context.Context, uid, titleSlug string) (*models.Note, error) {
	var n models.Note
	if err := r.store.Get(ctx, collNotes, noteID(uid, titleSlug), &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *noteRepository) SaveNote(ctx context.Context, uid, titleSlug, content string, at time.Time) (*models.Note, error) {
	note := &models.Note{UID: uid, TitleSlug: titleSlug, Content: content, UpdatedAt: at}
	err := r.store.Merge(ctx, collNotes, noteID(uid, titleSlug), map[string]any{
		"uid":       note.UID,
		"titleSlug": note.TitleSlug,
		"content":   note.Content,
		"updatedAt": note.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save note: %w", err)
	}
	return note, nil
}

func (r *noteRepository) ListNotes(ctx context.Context, uid string) ([]models.Note, error) {
	out, err := QueryInto[models.Note](ctx, r.store, collNotes, Query{
		Where:   []Filter{Where("uid", uid)},
		OrderBy: "updatedAt",
		Desc:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	return out, nil
}
