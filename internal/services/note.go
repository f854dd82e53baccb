package services

import (
	"context"
	"time"

	"leetclone/internal/models"
	"leetclone/internal/repositories"
)

type NoteService struct {
	notes repositories.NoteRepository
	now   func() time.Time
}

func NewNoteService(notes repositories.NoteRepository) *NoteService {
	return &NoteService{notes: notes, now: time.Now}
}

// GetNote returns an empty note when none was saved yet.
func (s *NoteService) GetNote(ctx context.Context, uid, titleSlug string) (*models.Note, error) {
	n, err := s.notes.GetNote(ctx, uid, titleSlug)
	if repositories.IsNotFound(err) {
		return &models.Note{UID: uid, TitleSlug: titleSlug}, nil
	}
	if err != nil {
		return nil, StoreError(err, "note")
	}
	return n, nil
}

func (s *NoteService) SaveNote(ctx context.Context, uid, titleSlug, content string) (*models.Note, error) {
	n, err := s.notes.SaveNote(ctx, uid, titleSlug, content, s.now())
	if err != nil {
		return nil, StoreError(err, "note")
	}
	return n, nil
}

func (s *NoteService) ListNotes(ctx context.Context, uid string) ([]models.Note, error) {
	out, err := s.notes.ListNotes(ctx, uid)
	return out, StoreError(err, "notes")
}
