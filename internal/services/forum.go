package services

import (
	"context"
	"errors"
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

// StoreError maps a repository error to a coded error.
func StoreError(err error, what string) error {
	if err == nil {
		return nil
	}
	if repositories.IsNotFound(err) {
		return apperrors.Wrap(err, apperrors.NotFound, what+" not found")
	}
	var coded *apperrors.Error
	if errors.As(err, &coded) {
		return err
	}
	return apperrors.Wrap(err, apperrors.PersistenceFailure, "failed to access "+what)
}

type ForumService struct {
	posts repositories.PostRepository
	now   func() time.Time
	newID func() string
}

func NewForumService(posts repositories.PostRepository) *ForumService {
	return &ForumService{posts: posts, now: time.Now, newID: uuid.NewString}
}

func (s *ForumService) newComment(author models.Author, content string) models.Comment {
	return models.Comment{
		ID:      s.newID(),
		Content: content,
		User:    author,
		Date:    s.now(),
		Likes:   []string{},
		Replies: []models.Comment{},
	}
}

func (s *ForumService) CreatePost(ctx context.Context, author models.Author, req models.CreatePostRequest) (*models.Post, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, apperrors.New(apperrors.InvalidParams, "content cannot be empty")
	}
	post := &models.Post{
		ID:       s.newID(),
		Title:    req.Title,
		Content:  req.Content,
		User:     author,
		Date:     s.now(),
		Comments: []models.Comment{},
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, StoreError(err, "post")
	}
	logger.FromContext(ctx).Info("Post created", zap.String("post_id", post.ID))
	return post, nil
}

func (s *ForumService) ListPosts(ctx context.Context) ([]models.Post, error) {
	posts, err := s.posts.ListPosts(ctx)
	if err != nil {
		return nil, StoreError(err, "posts")
	}
	return posts, nil
}

// AddComment appends a root comment to a post.
func (s *ForumService) AddComment(ctx context.Context, postID string, author models.Author, content string) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.New(apperrors.InvalidParams, "content cannot be empty")
	}
	comment := s.newComment(author, content)
	err := s.posts.UpdatePost(ctx, postID, func(post *models.Post) error {
		post.Comments = append(post.Comments, comment)
		return nil
	})
	if err != nil {
		return nil, StoreError(err, "post")
	}
	s.index(ctx, comment.ID, postID)
	return &comment, nil
}

// Reply inserts a reply under the comment with commentID, at any depth, as
// one atomic read-modify-write of the owning post.
func (s *ForumService) Reply(ctx context.Context, commentID string, author models.Author, content string) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.New(apperrors.InvalidParams, "content cannot be empty")
	}
	postID, err := s.postForComment(ctx, commentID)
	if err != nil {
		return nil, err
	}

	reply := s.newComment(author, content)
	err = s.posts.UpdatePost(ctx, postID, func(post *models.Post) error {
		updated, found := commenttree.InsertReply(post.Comments, commentID, reply)
		if !found {
			return apperrors.New(apperrors.NotFound, "comment not found")
		}
		post.Comments = updated
		return nil
	})
	if err != nil {
		return nil, StoreError(err, "post")
	}
	s.index(ctx, reply.ID, postID)
	return &reply, nil
}

// ToggleCommentLike flips userID in the likes of a comment anywhere in the post.
func (s *ForumService) ToggleCommentLike(ctx context.Context, postID, commentID, userID string) (*models.Comment, error) {
	var liked models.Comment
	err := s.posts.UpdatePost(ctx, postID, func(post *models.Post) error {
		updated, found := commenttree.ToggleLike(post.Comments, commentID, userID)
		if !found {
			return apperrors.New(apperrors.NotFound, "comment not found")
		}
		post.Comments = updated
		liked, _ = commenttree.Find(updated, commentID)
		return nil
	})
	if err != nil {
		return nil, StoreError(err, "post")
	}
	return &liked, nil
}

// postForComment resolves the post owning commentID through the comment
// index, falling back to a scan of every post when the index has no entry.
// A comment found by the scan is re-indexed.
func (s *ForumService) postForComment(ctx context.Context, commentID string) (string, error) {
	postID, err := s.posts.PostIDForComment(ctx, commentID)
	if err == nil {
		return postID, nil
	}
	if !repositories.IsNotFound(err) {
		return "", StoreError(err, "comment")
	}

	posts, err := s.posts.ListPosts(ctx)
	if err != nil {
		return "", StoreError(err, "posts")
	}
	for _, post := range posts {
		if _, ok := commenttree.Find(post.Comments, commentID); ok {
			s.index(ctx, commentID, post.ID)
			return post.ID, nil
		}
	}
	return "", apperrors.New(apperrors.NotFound, "comment not found")
}

func (s *ForumService) index(ctx context.Context, commentID, postID string) {
	if err := s.posts.IndexComment(ctx, commentID, postID); err != nil {
		logger.FromContext(ctx).Error("Failed to index comment",
			zap.String("comment_id", commentID),
			zap.String("post_id", postID),
			zap.Error(err))
	}
}
