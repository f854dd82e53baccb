package services

import (
	"context"
	"slices"
	"strings"
	"time"

	"leetclone/internal/apperrors"
	"leetclone/internal/commenttree"
	"leetclone/internal/logger"
	"leetclone/internal/models"
	"leetclone/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DoubtService runs the per-problem doubt section: questions answered by the
// chat model, and user threads with a flat comment list.
type DoubtService struct {
	doubts  repositories.DoubtRepository
	threads repositories.ThreadRepository
	chat    Completer
	now     func() time.Time
	newID   func() string
}

func NewDoubtService(doubts repositories.DoubtRepository, threads repositories.ThreadRepository, chat Completer) *DoubtService {
	return &DoubtService{
		doubts:  doubts,
		threads: threads,
		chat:    chat,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

var errForbidden = apperrors.New(apperrors.Forbidden, "only the author can delete this")

func validSort(sort string) string {
	if sort == repositories.SortLikes {
		return sort
	}
	return repositories.SortRecent
}

// AskDoubt cleans the question, asks the chat model, and stores both. A
// failed completion stores nothing.
func (s *DoubtService) AskDoubt(ctx context.Context, author models.Author, req models.DoubtRequest) (*models.Doubt, error) {
	content := CleanContent(req.Content)
	if content == "" {
		return nil, apperrors.New(apperrors.InvalidParams, "content cannot be empty")
	}

	answer, err := s.chat.Complete(ctx, content)
	if err != nil {
		return nil, err
	}

	now := s.now()
	d := &models.Doubt{
		ID:           s.newID(),
		Content:      content,
		Response:     answer,
		ResponseTime: now,
		UserID:       author.ID,
		Username:     author.Name,
		UserPhotoURL: author.ProfileImage,
		CreatedAt:    now,
		Likes:        []string{},
		TitleSlug:    req.TitleSlug,
	}
	if err := s.doubts.CreateDoubt(ctx, d); err != nil {
		return nil, StoreError(err, "doubt")
	}
	logger.FromContext(ctx).Info("Doubt answered",
		zap.String("doubt_id", d.ID),
		zap.String("title_slug", d.TitleSlug))
	return d, nil
}

func (s *DoubtService) ListDoubts(ctx context.Context, titleSlug, sort string) ([]models.Doubt, error) {
	out, err := s.doubts.ListDoubts(ctx, titleSlug, validSort(sort))
	return out, StoreError(err, "doubts")
}

func (s *DoubtService) DeleteDoubt(ctx context.Context, userID, id string) error {
	d, err := s.doubts.GetDoubt(ctx, id)
	if err != nil {
		return StoreError(err, "doubt")
	}
	if d.UserID != userID {
		return errForbidden
	}
	return StoreError(s.doubts.DeleteDoubt(ctx, id), "doubt")
}

func (s *DoubtService) ToggleDoubtLike(ctx context.Context, userID, id string) (*models.Doubt, error) {
	var out models.Doubt
	err := s.doubts.UpdateDoubt(ctx, id, func(d *models.Doubt) error {
		d.Likes = commenttree.ToggleMember(d.Likes, userID)
		out = *d
		return nil
	})
	if err != nil {
		return nil, StoreError(err, "doubt")
	}
	return &out, nil
}

func (s *DoubtService) CreateThread(ctx context.Context, author models.Author, req models.DoubtRequest) (*models.Thread, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, apperrors.New(apperrors.InvalidParams, "content cannot be empty")
	}
	t := &models.Thread{
		ID:           s.newID(),
		Content:      req.Content,
		UserID:       author.ID,
		Username:     author.Name,
		UserPhotoURL: author.ProfileImage,
		CreatedAt:    s.now(),
		Likes:        []string{},
		Comments:     []models.Comment{},
		TitleSlug:    req.TitleSlug,
	}
	if err := s.threads.CreateThread(ctx, t); err != nil {
		return nil, StoreError(err, "thread")
	}
	return t, nil
}

func (s *DoubtService) ListThreads(ctx context.Context, titleSlug, sort string) ([]models.Thread, error) {
	out, err := s.threads.ListThreads(ctx, titleSlug, validSort(sort))
	return out, StoreError(err, "threads")
}

func (s *DoubtService) DeleteThread(ctx context.Context, userID, id string) error {
	t, err := s.threads.GetThread(ctx, id)
	if err != nil {
		return StoreError(err, "thread")
	}
	if t.UserID != userID {
		return errForbidden
	}
	return StoreError(s.threads.DeleteThread(ctx, id), "thread")
}

func (s *DoubtService) ToggleThreadLike(ctx context.Context, userID, id string) (*models.Thread, error) {
	var out models.Thread
	err := s.threads.UpdateThread(ctx, id, func(t *models.Thread) error {
		t.Likes = commenttree.ToggleMember(t.Likes, userID)
		out = *t
		return nil
	})
	if err != nil {
		return nil, StoreError(err, "thread")
	}
	return &out, nil
}

func (s *DoubtService) AddThreadComment(ctx context.Context, threadID string, author models.Author, content string) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.New(apperrors.InvalidParams, "content cannot be empty")
	}
	c := models.Comment{
		ID:      s.newID(),
		Content: content,
		User:    author,
		Date:    s.now(),
		Likes:   []string{},
		Replies: []models.Comment{},
	}
	err := s.threads.UpdateThread(ctx, threadID, func(t *models.Thread) error {
		t.Comments = append(t.Comments, c)
		return nil
	})
	if err != nil {
		return nil, StoreError(err, "thread")
	}
	return &c, nil
}

func (s *DoubtService) ToggleThreadCommentLike(ctx context.Context, userID, threadID, commentID string) (*models.Comment, error) {
	var liked models.Comment
	err := s.threads.UpdateThread(ctx, threadID, func(t *models.Thread) error {
		updated, found := commenttree.ToggleLike(t.Comments, commentID, userID)
		if !found {
			return apperrors.New(apperrors.NotFound, "comment not found")
		}
		t.Comments = updated
		liked, _ = commenttree.Find(updated, commentID)
		return nil
	})
	if err != nil {
		return nil, StoreError(err, "thread")
	}
	return &liked, nil
}

// DeleteThreadComment removes a comment from the thread's own list. Nested
// replies are not searched.
func (s *DoubtService) DeleteThreadComment(ctx context.Context, userID, threadID, commentID string) error {
	err := s.threads.UpdateThread(ctx, threadID, func(t *models.Thread) error {
		idx := slices.IndexFunc(t.Comments, func(c models.Comment) bool { return c.ID == commentID })
		if idx < 0 {
			return apperrors.New(apperrors.NotFound, "comment not found")
		}
		if t.Comments[idx].User.ID != userID {
			return errForbidden
		}
		t.Comments, _ = commenttree.RemoveComment(t.Comments, commentID)
		return nil
	})
	return StoreError(err, "thread")
}
