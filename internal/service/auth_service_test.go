package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/visionaihq/visionai-api/internal/config"
	"github.com/visionaihq/visionai-api/internal/models"
	"github.com/visionaihq/visionai-api/internal/repository"
)

func newTestAuthService() (*AuthService, *mockUserRepository) {
	users := newMockUserRepository()
	cfg := &config.Config{
		JWTSecret: "test-secret",
		JWTExpiry: time.Hour,
	}
	svc := NewAuthService(cfg, &repository.Repositories{Users: users}, testLogger())
	return svc, users
}

func TestRegisterGrantsSignupCredits(t *testing.T) {
	svc, _ := newTestAuthService()

	result, err := svc.Register(context.Background(), "New@Example.com", "New User", "hunter22")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if result.Token == "" {
		t.Error("Register() should issue a token")
	}
	if result.User.Credits != models.SignupCredits {
		t.Errorf("Credits = %d, want %d", result.User.Credits, models.SignupCredits)
	}
	if result.User.Plan != models.PlanFree {
		t.Errorf("Plan = %s, want free", result.User.Plan)
	}
	if result.User.Email != "new@example.com" {
		t.Errorf("Email = %q, want lowercased", result.User.Email)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestAuthService()

	if _, err := svc.Register(context.Background(), "a@example.com", "A", "hunter22"); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	_, err := svc.Register(context.Background(), "a@example.com", "B", "hunter22")
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("error = %v, want ErrEmailTaken", err)
	}
}

func TestLoginRoundTrip(t *testing.T) {
	svc, _ := newTestAuthService()

	reg, err := svc.Register(context.Background(), "a@example.com", "A", "hunter22")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	result, err := svc.Login(context.Background(), "a@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.User.ID != reg.User.ID {
		t.Error("Login() returned a different user")
	}
	if result.User.LastLoginAt == nil {
		t.Error("LastLoginAt should be set on login")
	}

	claims, err := svc.VerifyToken(result.Token)
	if err != nil {
		t.Fatalf("VerifyToken() error = %v", err)
	}
	if claims.UserID != reg.User.ID {
		t.Errorf("claims.UserID = %q, want %q", claims.UserID, reg.User.ID)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestAuthService()

	if _, err := svc.Register(context.Background(), "a@example.com", "A", "hunter22"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, err := svc.Login(context.Background(), "a@example.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("error = %v, want ErrInvalidCredentials", err)
	}

	// Unknown email gets the same error as a bad password.
	_, err = svc.Login(context.Background(), "nobody@example.com", "hunter22")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("error = %v, want ErrInvalidCredentials for unknown email", err)
	}
}

func TestVerifyTokenRejectsTampered(t *testing.T) {
	svc, _ := newTestAuthService()

	reg, err := svc.Register(context.Background(), "a@example.com", "A", "hunter22")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if _, err := svc.VerifyToken(reg.Token + "x"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("error = %v, want ErrInvalidToken for tampered token", err)
	}
	if _, err := svc.VerifyToken("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("error = %v, want ErrInvalidToken for garbage", err)
	}
}

func TestVerifyTokenExpired(t *testing.T) {
	users := newMockUserRepository()
	cfg := &config.Config{JWTSecret: "test-secret", JWTExpiry: -time.Minute}
	svc := NewAuthService(cfg, &repository.Repositories{Users: users}, testLogger())

	reg, err := svc.Register(context.Background(), "a@example.com", "A", "hunter22")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if _, err := svc.VerifyToken(reg.Token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("error = %v, want ErrTokenExpired", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := newTestAuthService()

	reg, err := svc.Register(context.Background(), "a@example.com", "A", "hunter22")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	updated, err := svc.UpdateProfile(context.Background(), reg.User.ID, "Renamed", "")
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if updated.Name != "Renamed" {
		t.Errorf("Name = %q, want Renamed", updated.Name)
	}

	_, err = svc.UpdateProfile(context.Background(), "missing", "X", "")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("error = %v, want ErrUserNotFound", err)
	}
}
