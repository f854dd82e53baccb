package services_test

import (
	"context"
	"testing"

	"leetclone/internal/apperrors"
	"leetclone/internal/models"
	"leetclone/internal/repositories"
	"leetclone/internal/services"
)

func newAuthService(t *testing.T) (*services.AuthService, *services.TokenService) {
	rdb := newRedis(t)
	tokens := services.NewTokenService("test-secret")
	svc := services.NewAuthService(
		repositories.NewUserRepository(repositories.NewRedisDocStore(rdb, "")),
		tokens,
		services.NewRedisCache(rdb, "auth:"),
	)
	return svc, tokens
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, tokens := newAuthService(t)

	info, err := svc.Register(ctx, models.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, err := svc.Register(ctx, models.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "password123"}); !apperrors.Is(err, apperrors.Conflict) {
		t.Fatalf("expected Conflict, got %v", err)
	}

	if _, err := svc.Login(ctx, models.LoginRequest{Email: "alice@example.com", Password: "nope"}); !apperrors.Is(err, apperrors.Unauthorized) {
		t.Fatalf("expected Unauthorized, got %v", err)
	}

	res, err := svc.Login(ctx, models.LoginRequest{Email: "alice@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	claims, err := tokens.ValidateToken(res.AccessToken)
	if err != nil || claims.UserID != info.ID || claims.Username != "alice" {
		t.Fatalf("unexpected claims: %+v %v", claims, err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newAuthService(t)
	_, err := svc.Register(context.Background(), models.RegisterRequest{Username: "al", Email: "bad", Password: "short"})
	if !apperrors.Is(err, apperrors.InvalidParams) {
		t.Fatalf("expected InvalidParams, got %v", err)
	}
}

func TestVerifyFallsBackToRefreshToken(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthService(t)

	_, _ = svc.Register(ctx, models.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "password123"})
	res, _ := svc.Login(ctx, models.LoginRequest{Email: "alice@example.com", Password: "password123"})

	claims, fresh, err := svc.Verify(ctx, "garbage", res.RefreshToken)
	if err != nil || fresh == "" || claims.Username != "alice" {
		t.Fatalf("unexpected verify: %+v %q %v", claims, fresh, err)
	}

	if err := svc.Logout(ctx, res.RefreshToken); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, _, err := svc.Verify(ctx, "", res.RefreshToken); !apperrors.Is(err, apperrors.Unauthorized) {
		t.Fatalf("expected revoked refresh token to fail, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthService(t)

	info, _ := svc.Register(ctx, models.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "password123"})
	name := "Alice L."
	updated, err := svc.UpdateProfile(ctx, info.ID, models.UpdateProfileRequest{Name: &name})
	if err != nil || updated.Name != "Alice L." {
		t.Fatalf("unexpected update: %+v %v", updated, err)
	}

	author := svc.Author(ctx, models.Session{UserID: info.ID})
	if author.Name != "Alice L." {
		t.Fatalf("unexpected author: %+v", author)
	}
}
