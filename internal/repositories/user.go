package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"leetclone/internal/models"
)

const (
	collUsers      = "users"
	collUserEmails = "user_emails"
)

var ErrDuplicateUser = errors.New("username or email already exists")

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, fn func(u *models.User) error) error
}

type userRepository struct {
	store DocStore
}

func NewUserRepository(store DocStore) UserRepository {
	return &userRepository{store: store}
}

type emailIndexEntry struct {
	UserID string `json:"userId"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser claims the email index entry first so two registrations with
// the same email cannot both succeed.
func (r *userRepository) CreateUser(ctx context.Context, user *models.User) error {
	email := normalizeEmail(user.Email)
	err := r.store.UpdateInTx(ctx, collUserEmails, email, func(current json.RawMessage) (any, error) {
		if current != nil {
			return nil, ErrDuplicateUser
		}
		return emailIndexEntry{UserID: user.ID}, nil
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateUser) {
			return err
		}
		return fmt.Errorf("failed to reserve email: %w", err)
	}

	taken, err := QueryInto[models.User](ctx, r.store, collUsers, Query{
		Where: []Filter{Where("username", user.Username)},
		Limit: 1,
	})
	if err != nil {
		return fmt.Errorf("failed to check username: %w", err)
	}
	if len(taken) > 0 {
		_ = r.store.Delete(ctx, collUserEmails, email)
		return ErrDuplicateUser
	}

	if err := r.store.Set(ctx, collUsers, user.ID, user); err != nil {
		_ = r.store.Delete(ctx, collUserEmails, email)
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.store.Get(ctx, collUsers, id, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var entry emailIndexEntry
	if err := r.store.Get(ctx, collUserEmails, normalizeEmail(email), &entry); err != nil {
		return nil, err
	}
	return r.GetUserByID(ctx, entry.UserID)
}

func (r *userRepository) UpdateUser(ctx context.Context, id string, fn func(u *models.User) error) error {
	return updateExisting(ctx, r.store, collUsers, id, fn)
}
