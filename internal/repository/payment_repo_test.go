package repository

import (
	"context"
	"testing"
	"time"

	"github.com/visionaihq/visionai-api/internal/models"
)

func TestPaymentCreateAndGetByIntentID(t *testing.T) {
	db := setupTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	InsertTestUser(t, db, "user-1", "a@example.com", 20)
	InsertTestPayment(t, db, "pay-1", "user-1", "pi_abc", "pending", 1000, time.Now())

	p, err := repos.Payments.GetByIntentID(ctx, "pi_abc")
	if err != nil {
		t.Fatalf("GetByIntentID() error = %v", err)
	}
	if p == nil {
		t.Fatal("GetByIntentID() returned nil for existing record")
	}
	if p.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", p.UserID)
	}
	if p.CreditsToGrant != 1000 {
		t.Errorf("CreditsToGrant = %d, want 1000", p.CreditsToGrant)
	}
	if p.Status.Terminal() {
		t.Errorf("Status = %s, want pending", p.Status)
	}

	missing, err := repos.Payments.GetByIntentID(ctx, "pi_missing")
	if err != nil {
		t.Fatalf("GetByIntentID(missing) error = %v", err)
	}
	if missing != nil {
		t.Error("GetByIntentID(missing) should return nil")
	}
}

func TestPaymentIntentIDUnique(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	InsertTestUser(t, db, "user-1", "a@example.com", 20)
	InsertTestPayment(t, db, "pay-1", "user-1", "pi_dup", "pending", 1000, time.Now())

	repos := NewRepositories(db)
	now := time.Now().UTC()
	err := repos.Payments.Create(ctx, &models.PaymentRecord{
		ID:              "pay-2",
		UserID:          "user-1",
		GatewayIntentID: "pi_dup",
		AmountMinor:     2999,
		Currency:        "usd",
		Status:          models.PaymentStatusPending,
		CreditsToGrant:  1000,
		PlanID:          "pro",
		PlanName:        "Professional",
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err == nil {
		t.Error("Create() with duplicate gateway_intent_id should fail")
	}
}

func TestPaymentMarkSucceededExactlyOnce(t *testing.T) {
	db := setupTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	InsertTestUser(t, db, "user-1", "a@example.com", 20)
	InsertTestPayment(t, db, "pay-1", "user-1", "pi_abc", "pending", 1000, time.Now())

	rows, err := repos.Payments.MarkSucceeded(ctx, "pi_abc", true, time.Now().UTC())
	if err != nil {
		t.Fatalf("MarkSucceeded() error = %v", err)
	}
	if rows != 1 {
		t.Errorf("first MarkSucceeded() rows = %d, want 1", rows)
	}

	// Second transition attempt must be a no-op.
	rows, err = repos.Payments.MarkSucceeded(ctx, "pi_abc", false, time.Now().UTC())
	if err != nil {
		t.Fatalf("second MarkSucceeded() error = %v", err)
	}
	if rows != 0 {
		t.Errorf("second MarkSucceeded() rows = %d, want 0", rows)
	}

	p, _ := repos.Payments.GetByIntentID(ctx, "pi_abc")
	if !p.WebhookConfirmed {
		t.Error("WebhookConfirmed should reflect the winning path, not the loser")
	}
	if p.ProcessedAt == nil {
		t.Error("ProcessedAt should be set after the transition")
	}
}

func TestPaymentMarkSucceededUnknownIntent(t *testing.T) {
	repos := setupTestRepos(t)

	rows, err := repos.Payments.MarkSucceeded(context.Background(), "pi_nope", true, time.Now().UTC())
	if err != nil {
		t.Fatalf("MarkSucceeded() error = %v", err)
	}
	if rows != 0 {
		t.Errorf("rows = %d, want 0 for unknown intent", rows)
	}
}

func TestPaymentCancelStalePending(t *testing.T) {
	db := setupTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	InsertTestUser(t, db, "user-1", "a@example.com", 20)
	InsertTestPayment(t, db, "pay-old", "user-1", "pi_old", "pending", 1000, time.Now().Add(-48*time.Hour))
	InsertTestPayment(t, db, "pay-new", "user-1", "pi_new", "pending", 1000, time.Now())
	InsertTestPayment(t, db, "pay-done", "user-1", "pi_done", "succeeded", 1000, time.Now().Add(-48*time.Hour))

	n, err := repos.Payments.CancelStalePending(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("CancelStalePending() error = %v", err)
	}
	if n != 1 {
		t.Errorf("canceled = %d, want 1", n)
	}

	old, _ := repos.Payments.GetByIntentID(ctx, "pi_old")
	if old.Status != "canceled" {
		t.Errorf("stale payment status = %s, want canceled", old.Status)
	}
	fresh, _ := repos.Payments.GetByIntentID(ctx, "pi_new")
	if fresh.Status != "pending" {
		t.Errorf("fresh payment status = %s, want pending", fresh.Status)
	}
	done, _ := repos.Payments.GetByIntentID(ctx, "pi_done")
	if done.Status != "succeeded" {
		t.Errorf("succeeded payment status = %s, want succeeded", done.Status)
	}
}

func TestPaymentMarkRefunded(t *testing.T) {
	db := setupTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	InsertTestUser(t, db, "user-1", "a@example.com", 20)
	InsertTestPayment(t, db, "pay-1", "user-1", "pi_abc", "succeeded", 1000, time.Now())

	if err := repos.Payments.MarkRefunded(ctx, "pi_abc", 2999, time.Now().UTC()); err != nil {
		t.Fatalf("MarkRefunded() error = %v", err)
	}

	p, _ := repos.Payments.GetByIntentID(ctx, "pi_abc")
	if p.Status != "refunded" {
		t.Errorf("Status = %s, want refunded", p.Status)
	}
	if p.RefundAmountMinor == nil || *p.RefundAmountMinor != 2999 {
		t.Errorf("RefundAmountMinor = %v, want 2999", p.RefundAmountMinor)
	}
	if p.RefundedAt == nil {
		t.Error("RefundedAt should be set")
	}
}

func TestPaymentGetByUserID(t *testing.T) {
	db := setupTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	InsertTestUser(t, db, "user-1", "a@example.com", 20)
	InsertTestUser(t, db, "user-2", "b@example.com", 20)
	InsertTestPayment(t, db, "pay-1", "user-1", "pi_1", "succeeded", 1000, time.Now().Add(-2*time.Hour))
	InsertTestPayment(t, db, "pay-2", "user-1", "pi_2", "pending", 1000, time.Now().Add(-1*time.Hour))
	InsertTestPayment(t, db, "pay-3", "user-2", "pi_3", "pending", 1000, time.Now())

	payments, err := repos.Payments.GetByUserID(ctx, "user-1", 10, 0)
	if err != nil {
		t.Fatalf("GetByUserID() error = %v", err)
	}
	if len(payments) != 2 {
		t.Fatalf("len(payments) = %d, want 2", len(payments))
	}
	// Newest first
	if payments[0].GatewayIntentID != "pi_2" {
		t.Errorf("payments[0] = %s, want pi_2", payments[0].GatewayIntentID)
	}
}
