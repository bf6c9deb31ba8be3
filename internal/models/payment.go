package models

import "time"

// PaymentStatus is the lifecycle state of a payment record.
// pending is the only non-terminal state; a record transitions to
// exactly one terminal state, exactly once.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCanceled  PaymentStatus = "canceled"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Terminal reports whether the status is a terminal state.
func (s PaymentStatus) Terminal() bool {
	return s != PaymentStatusPending
}

// ReconcileSource tags which confirmation path triggered a reconcile.
type ReconcileSource string

const (
	SourceWebhook  ReconcileSource = "webhook"
	SourceFallback ReconcileSource = "fallback"
)

// PaymentRecord is the durable record of a payment attempt.
//
// CreditsToGrant is snapshotted from the plan catalog at creation time and
// never recomputed, so later catalog changes cannot retroactively alter a
// pending payment's reward. WebhookConfirmed records which path performed
// the succeeded transition, for audit only.
type PaymentRecord struct {
	ID              string        `json:"id"`
	UserID          string        `json:"user_id"`
	GatewayIntentID string        `json:"gateway_intent_id"`
	AmountMinor     int64         `json:"amount_minor"`
	Currency        string        `json:"currency"`
	Status          PaymentStatus `json:"status"`
	CreditsToGrant  int64         `json:"credits_to_grant"`
	PlanID          string        `json:"plan_id"`
	PlanName        string        `json:"plan_name"`
	WebhookConfirmed bool         `json:"webhook_confirmed"`

	ProcessedAt *time.Time `json:"processed_at,omitempty"`

	// Refund bookkeeping
	RefundedAt        *time.Time `json:"refunded_at,omitempty"`
	RefundAmountMinor *int64     `json:"refund_amount_minor,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
