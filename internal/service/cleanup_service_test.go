package service

import (
	"context"
	"testing"
	"time"

	"github.com/visionaihq/visionai-api/internal/config"
	"github.com/visionaihq/visionai-api/internal/models"
)

func TestCleanupRunOnce(t *testing.T) {
	svc, users, payments, _ := newTestPaymentService()
	users.addUser("user-1", 20)
	payments.addPending("pi_stale", "user-1", "pro", 1000)
	payments.mu.Lock()
	payments.records["pi_stale"].CreatedAt = time.Now().UTC().Add(-48 * time.Hour)
	payments.mu.Unlock()

	cfg := &config.Config{
		CleanupEnabled:  true,
		CleanupMaxAge:   24 * time.Hour,
		CleanupInterval: time.Hour,
	}
	cleanup := NewCleanupService(cfg, svc, testLogger())
	cleanup.runOnce(context.Background())

	record, _ := payments.GetByIntentID(context.Background(), "pi_stale")
	if record.Status != models.PaymentStatusCanceled {
		t.Errorf("Status = %s, want canceled", record.Status)
	}
}

func TestCleanupDisabledReturnsImmediately(t *testing.T) {
	svc, _, _, _ := newTestPaymentService()
	cfg := &config.Config{CleanupEnabled: false}
	cleanup := NewCleanupService(cfg, svc, testLogger())

	done := make(chan struct{})
	go func() {
		cleanup.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run() should return immediately when disabled")
	}
}
