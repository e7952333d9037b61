package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/dlrntm-png/bangguy/config"
	"github.com/dlrntm-png/bangguy/internal/dto"
	"github.com/dlrntm-png/bangguy/pkg/jwt"
)

func newTestAuthService(t *testing.T, cfg *config.Config) (AuthService, *mockAdminCredRepo) {
	t.Helper()
	repo, _, _, _, _, adminCred := newTestRepository()
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = "test-secret-0123456789abcdef"
	}
	jwtMgr := jwt.NewManager(&cfg.Auth)
	return NewAuthService(cfg, repo, jwtMgr, nil, zap.NewNop()), adminCred
}

func TestLoginWithStoredHash(t *testing.T) {
	cfg := &config.Config{}
	svc, adminCred := newTestAuthService(t, cfg)
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	adminCred.hash = string(hash)
	ctx := context.Background()

	res, err := svc.Login(ctx, &dto.AdminLoginRequest{Password: "correct-horse"})
	if err != nil {
		t.Fatalf("登录失败: %v", err)
	}
	if res.Token == "" {
		t.Error("登录成功应返回 Token")
	}

	if _, err := svc.Login(ctx, &dto.AdminLoginRequest{Password: "wrong"}); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("期望 ErrInvalidPassword，实际=%v", err)
	}
}

func TestLoginFallsBackToEnvHash(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("env-password"), bcrypt.MinCost)
	cfg := &config.Config{}
	cfg.Auth.AdminPasswordHash = string(hash)
	svc, _ := newTestAuthService(t, cfg)

	if _, err := svc.Login(context.Background(), &dto.AdminLoginRequest{Password: "env-password"}); err != nil {
		t.Errorf("数据库无哈希时应回退环境哈希: %v", err)
	}
}

func TestLoginDevFallbackPassword(t *testing.T) {
	cfg := &config.Config{}
	cfg.Auth.AdminPassword = "admin123"
	svc, _ := newTestAuthService(t, cfg)
	ctx := context.Background()

	if _, err := svc.Login(ctx, &dto.AdminLoginRequest{Password: "admin123"}); err != nil {
		t.Errorf("应接受开发兜底口令: %v", err)
	}
	if _, err := svc.Login(ctx, &dto.AdminLoginRequest{Password: "nope"}); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("期望 ErrInvalidPassword，实际=%v", err)
	}
}

func TestLoginWithoutAnyCredential(t *testing.T) {
	svc, _ := newTestAuthService(t, &config.Config{})
	if _, err := svc.Login(context.Background(), &dto.AdminLoginRequest{Password: "x"}); !errors.Is(err, ErrPasswordNotInited) {
		t.Errorf("期望 ErrPasswordNotInited，实际=%v", err)
	}
}

func TestChangePassword(t *testing.T) {
	cfg := &config.Config{}
	svc, adminCred := newTestAuthService(t, cfg)
	hash, _ := bcrypt.GenerateFromPassword([]byte("old-password"), bcrypt.MinCost)
	adminCred.hash = string(hash)
	ctx := context.Background()

	err := svc.ChangePassword(ctx, &dto.AdminChangePasswordRequest{
		CurrentPassword: "old-password", NewPassword: "new-password-1",
	})
	if err != nil {
		t.Fatalf("改密失败: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(adminCred.hash), []byte("new-password-1")) != nil {
		t.Error("新口令哈希未生效")
	}

	// 旧口令登录应失败，新口令应成功
	if _, err := svc.Login(ctx, &dto.AdminLoginRequest{Password: "old-password"}); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("旧口令不应再可用: %v", err)
	}
	if _, err := svc.Login(ctx, &dto.AdminLoginRequest{Password: "new-password-1"}); err != nil {
		t.Errorf("新口令登录失败: %v", err)
	}
}

func TestChangePasswordValidation(t *testing.T) {
	cfg := &config.Config{}
	svc, adminCred := newTestAuthService(t, cfg)
	hash, _ := bcrypt.GenerateFromPassword([]byte("old-password"), bcrypt.MinCost)
	adminCred.hash = string(hash)
	ctx := context.Background()

	err := svc.ChangePassword(ctx, &dto.AdminChangePasswordRequest{
		CurrentPassword: "old-password", NewPassword: "short",
	})
	if !errors.Is(err, ErrWeakPassword) {
		t.Errorf("期望 ErrWeakPassword，实际=%v", err)
	}

	err = svc.ChangePassword(ctx, &dto.AdminChangePasswordRequest{
		CurrentPassword: "wrong", NewPassword: "new-password-1",
	})
	if !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("期望 ErrInvalidPassword，实际=%v", err)
	}
}

func TestChangePasswordFirstInit(t *testing.T) {
	// 尚未设置任何口令时允许直接初始化
	svc, adminCred := newTestAuthService(t, &config.Config{})
	err := svc.ChangePassword(context.Background(), &dto.AdminChangePasswordRequest{
		CurrentPassword: "", NewPassword: "initial-password",
	})
	if err != nil {
		t.Fatalf("首次初始化失败: %v", err)
	}
	if adminCred.hash == "" {
		t.Error("初始化后应写入哈希")
	}
}
