package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/visionaihq/visionai-api/internal/models"
)

func TestUserGrantCredits(t *testing.T) {
	db := setupTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	InsertTestUser(t, db, "user-1", "a@example.com", 20)

	balance, err := repos.Users.GrantCredits(ctx, "user-1", 1000)
	if err != nil {
		t.Fatalf("GrantCredits() error = %v", err)
	}
	if balance != 1020 {
		t.Errorf("balance = %d, want 1020", balance)
	}
}

func TestUserSpendCredits(t *testing.T) {
	db := setupTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	InsertTestUser(t, db, "user-1", "a@example.com", 2)

	balance, err := repos.Users.SpendCredits(ctx, "user-1", 1)
	if err != nil {
		t.Fatalf("SpendCredits() error = %v", err)
	}
	if balance != 1 {
		t.Errorf("balance = %d, want 1", balance)
	}

	if _, err := repos.Users.SpendCredits(ctx, "user-1", 1); err != nil {
		t.Fatalf("SpendCredits() error = %v", err)
	}

	// Balance is now zero, further spends must be rejected.
	_, err = repos.Users.SpendCredits(ctx, "user-1", 1)
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Errorf("SpendCredits() error = %v, want ErrInsufficientCredits", err)
	}

	u, _ := repos.Users.GetByID(ctx, "user-1")
	if u.Credits != 0 {
		t.Errorf("Credits = %d, want 0 after rejected spend", u.Credits)
	}
}

func TestUserSetUnlimitedCredits(t *testing.T) {
	db := setupTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	InsertTestUser(t, db, "user-1", "a@example.com", 500)

	balance, err := repos.Users.SetUnlimitedCredits(ctx, "user-1")
	if err != nil {
		t.Fatalf("SetUnlimitedCredits() error = %v", err)
	}
	if balance != models.UnlimitedCreditsCeiling {
		t.Errorf("balance = %d, want %d", balance, models.UnlimitedCreditsCeiling)
	}

	// The ceiling is pinned, not added.
	u, _ := repos.Users.GetByID(ctx, "user-1")
	if u.Credits != models.UnlimitedCreditsCeiling {
		t.Errorf("Credits = %d, want %d", u.Credits, models.UnlimitedCreditsCeiling)
	}
}

func TestUserGetByEmail(t *testing.T) {
	db := setupTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	InsertTestUser(t, db, "user-1", "a@example.com", 20)

	u, err := repos.Users.GetByEmail(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if u == nil || u.ID != "user-1" {
		t.Fatalf("GetByEmail() = %+v, want user-1", u)
	}

	missing, err := repos.Users.GetByEmail(ctx, "nobody@example.com")
	if err != nil {
		t.Fatalf("GetByEmail(missing) error = %v", err)
	}
	if missing != nil {
		t.Error("GetByEmail(missing) should return nil")
	}
}

func TestUserEmailUnique(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repos := NewRepositories(db)

	InsertTestUser(t, db, "user-1", "a@example.com", 20)

	err := repos.Users.Create(ctx, &models.User{
		ID:           "user-2",
		Email:        "a@example.com",
		Name:         "Dup",
		PasswordHash: "x",
		Credits:      models.SignupCredits,
		Plan:         models.PlanFree,
		IsActive:     true,
	})
	if err == nil {
		t.Error("Create() with duplicate email should fail")
	}
}

func TestUserIncrementGenerationStats(t *testing.T) {
	db := setupTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	InsertTestUser(t, db, "user-1", "a@example.com", 20)

	if err := repos.Users.IncrementGenerationStats(ctx, "user-1", 1); err != nil {
		t.Fatalf("IncrementGenerationStats() error = %v", err)
	}
	if err := repos.Users.IncrementGenerationStats(ctx, "user-1", 1); err != nil {
		t.Fatalf("IncrementGenerationStats() error = %v", err)
	}

	u, _ := repos.Users.GetByID(ctx, "user-1")
	if u.ImagesGenerated != 2 {
		t.Errorf("ImagesGenerated = %d, want 2", u.ImagesGenerated)
	}
	if u.CreditsSpent != 2 {
		t.Errorf("CreditsSpent = %d, want 2", u.CreditsSpent)
	}
}
