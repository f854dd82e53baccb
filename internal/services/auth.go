package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"leetclone/internal/apperrors"
	"leetclone/internal/logger"
	"leetclone/internal/models"
	"leetclone/internal/repositories"
	"leetclone/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errInvalidCredentials = apperrors.New(apperrors.Unauthorized, "Invalid credentials")

type LoginResult struct {
	User         models.UserInfo
	AccessToken  string
	RefreshToken string
}

type AuthService struct {
	users  repositories.UserRepository
	tokens *TokenService
	cache  Cache
	now    func() time.Time
	newID  func() string
}

func NewAuthService(users repositories.UserRepository, tokens *TokenService, cache Cache) *AuthService {
	return &AuthService{users: users, tokens: tokens, cache: cache, now: time.Now, newID: uuid.NewString}
}

func refreshTokenKey(token string) string {
	return fmt.Sprintf("refresh_token:%s", token)
}

func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.UserInfo, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidParams, err.Error())
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           s.newID(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Username,
		CreatedAt:    s.now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateUser) {
			return nil, apperrors.Wrap(err, apperrors.Conflict, "Username or email already exists")
		}
		return nil, StoreError(err, "user")
	}

	logger.FromContext(ctx).Info("User registered", zap.String("user_id", user.ID))
	info := user.Info()
	return &info, nil
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*LoginResult, error) {
	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, errInvalidCredentials
		}
		return nil, StoreError(err, "user")
	}
	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, errInvalidCredentials
	}

	access, refresh, err := s.tokens.GenerateTokens(user.ID, user.Username, user.Email)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, refreshTokenKey(refresh), user.ID, RefreshTokenTTL); err != nil {
		return nil, apperrors.Wrap(err, apperrors.PersistenceFailure, "failed to store refresh token")
	}

	return &LoginResult{User: user.Info(), AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.cache.Delete(ctx, refreshTokenKey(refreshToken))
}

// Verify accepts a valid access token, or falls back to a live refresh token
// and mints a new access token from it. newAccess is empty in the first case.
func (s *AuthService) Verify(ctx context.Context, accessToken, refreshToken string) (claims *Claims, newAccess string, err error) {
	if accessToken != "" {
		if claims, err := s.tokens.ValidateToken(accessToken); err == nil {
			return claims, "", nil
		}
	}
	if refreshToken == "" {
		return nil, "", apperrors.New(apperrors.Unauthorized, "Authorization required")
	}

	live, err := s.cache.Exists(ctx, refreshTokenKey(refreshToken))
	if err != nil || !live {
		return nil, "", apperrors.New(apperrors.Unauthorized, "Invalid session")
	}
	claims, err = s.tokens.ValidateToken(refreshToken)
	if err != nil {
		return nil, "", apperrors.New(apperrors.Unauthorized, "Invalid token")
	}

	newAccess, _, err = s.tokens.GenerateTokens(claims.UserID, claims.Username, claims.Email)
	if err != nil {
		return nil, "", err
	}
	return claims, newAccess, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*models.UserInfo, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, StoreError(err, "user")
	}
	info := user.Info()
	return &info, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.UserInfo, error) {
	var info models.UserInfo
	err := s.users.UpdateUser(ctx, userID, func(u *models.User) error {
		if req.Name != nil {
			u.Name = strings.TrimSpace(*req.Name)
		}
		if req.ProfileImage != nil {
			u.ProfileImage = *req.ProfileImage
		}
		info = u.Info()
		return nil
	})
	if err != nil {
		return nil, StoreError(err, "user")
	}
	return &info, nil
}

// Author resolves the public identity of the session user. A missing user
// record falls back to the token's username.
func (s *AuthService) Author(ctx context.Context, session models.Session) models.Author {
	user, err := s.users.GetUserByID(ctx, session.UserID)
	if err != nil {
		if !repositories.IsNotFound(err) {
			logger.FromContext(ctx).Warn("Failed to load author", zap.String("user_id", session.UserID), zap.Error(err))
		}
		return models.Author{ID: session.UserID, Name: session.Username}
	}
	return user.Author()
}
