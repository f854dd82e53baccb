package repositories

import (
	"context"
	"errors"
	"fmt"

	"leetclone/internal/models"
)

const (
	collPosts        = "posts"
	collCommentIndex = "comment_index"
)

type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id string) (*models.Post, error)
	ListPosts(ctx context.Context) ([]models.Post, error)
	// UpdatePost applies fn to the stored post atomically.
	UpdatePost(ctx context.Context, id string, fn func(post *models.Post) error) error
	IndexComment(ctx context.Context, commentID, postID string) error
	PostIDForComment(ctx context.Context, commentID string) (string, error)
}

type postRepository struct {
	store DocStore
}

func NewPostRepository(store DocStore) PostRepository {
	return &postRepository{store: store}
}

type commentIndexEntry struct {
	PostID string `json:"postId"`
}

func (r *postRepository) CreatePost(ctx context.Context, post *models.Post) error {
	if err := r.store.Set(ctx, collPosts, post.ID, post); err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

func (r *postRepository) GetPost(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := r.store.Get(ctx, collPosts, id, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) ListPosts(ctx context.Context) ([]models.Post, error) {
	posts, err := QueryInto[models.Post](ctx, r.store, collPosts, Query{OrderBy: "date", Desc: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

func (r *postRepository) UpdatePost(ctx context.Context, id string, fn func(post *models.Post) error) error {
	return updateExisting(ctx, r.store, collPosts, id, fn)
}

func (r *postRepository) IndexComment(ctx context.Context, commentID, postID string) error {
	if err := r.store.Set(ctx, collCommentIndex, commentID, commentIndexEntry{PostID: postID}); err != nil {
		return fmt.Errorf("failed to index comment: %w", err)
	}
	return nil
}

func (r *postRepository) PostIDForComment(ctx context.Context, commentID string) (string, error) {
	var entry commentIndexEntry
	if err := r.store.Get(ctx, collCommentIndex, commentID, &entry); err != nil {
		return "", err
	}
	return entry.PostID, nil
}

// updateExisting fails with ErrNotFound instead of creating the document.
func updateExisting[T any](ctx context.Context, store DocStore, collection, id string, fn func(doc *T) error) error {
	return UpdateDoc(ctx, store, collection, id, func(doc *T, exists bool) error {
		if !exists {
			return ErrNotFound
		}
		return fn(doc)
	})
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
