package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"

	"github.com/visionaihq/visionai-api/internal/config"
	"github.com/visionaihq/visionai-api/internal/models"
	"github.com/visionaihq/visionai-api/internal/service"
)

// PaymentReconciler is the slice of the payment service the webhook needs.
type PaymentReconciler interface {
	Reconcile(ctx context.Context, intentID string, source models.ReconcileSource, callerUserID string) (*service.ReconcileResult, error)
	HandleRefund(ctx context.Context, intentID string, amountMinor int64) error
}

// StripeWebhookHandler handles Stripe webhook events. Signature verification
// stands in for caller authentication on this path: a verified event is
// trusted without re-querying the provider.
type StripeWebhookHandler struct {
	cfg        *config.Config
	paymentSvc PaymentReconciler
	logger     *slog.Logger
}

// NewStripeWebhookHandler creates a new Stripe webhook handler.
func NewStripeWebhookHandler(cfg *config.Config, paymentSvc PaymentReconciler, logger *slog.Logger) *StripeWebhookHandler {
	return &StripeWebhookHandler{
		cfg:        cfg,
		paymentSvc: paymentSvc,
		logger:     logger,
	}
}

// HandleWebhook processes incoming Stripe webhooks.
// This is a raw HTTP handler since huma doesn't handle raw body verification well.
func (h *StripeWebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	const maxBodySize = 65536 // 64KB

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Error("failed to read webhook body", "error", err)
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, h.cfg.StripeWebhookSecret,
		webhook.ConstructEventOptions{
			// CLI-forwarded and replayed events carry their own api_version.
			IgnoreAPIVersionMismatch: true,
		})
	if err != nil {
		h.logger.Error("failed to verify webhook signature", "error", err)
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	if err := h.handleEvent(r.Context(), event); err != nil {
		h.logger.Error("failed to handle webhook event", "type", event.Type, "error", err)
		// Reconciliation is idempotent, so letting Stripe retry is safe.
		http.Error(w, "event handling failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// handleEvent routes events to appropriate handlers.
func (h *StripeWebhookHandler) handleEvent(ctx context.Context, event stripe.Event) error {
	h.logger.Info("received Stripe webhook", "type", event.Type, "id", event.ID)

	switch event.Type {
	case "payment_intent.succeeded":
		return h.handleIntentSucceeded(ctx, event)

	case "payment_intent.payment_failed":
		return h.handleIntentFailed(ctx, event)

	case "charge.refunded":
		return h.handleChargeRefunded(ctx, event)

	default:
		h.logger.Debug("unhandled webhook event type", "type", event.Type)
		return nil
	}
}

// handleIntentSucceeded reconciles the payment for a succeeded intent.
func (h *StripeWebhookHandler) handleIntentSucceeded(ctx context.Context, event stripe.Event) error {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return fmt.Errorf("failed to unmarshal payment intent: %w", err)
	}

	result, err := h.paymentSvc.Reconcile(ctx, intent.ID, models.SourceWebhook, "")
	if err != nil {
		if errors.Is(err, service.ErrPaymentNotFound) {
			// Not an intent we opened (another environment sharing the
			// Stripe account). Acknowledge so Stripe stops retrying.
			h.logger.Warn("webhook for unknown intent", "intent_id", intent.ID)
			return nil
		}
		return fmt.Errorf("failed to reconcile payment: %w", err)
	}

	if result.AlreadyProcessed {
		h.logger.Info("webhook repeat ignored", "intent_id", intent.ID)
		return nil
	}

	h.logger.Info("payment settled via webhook",
		"intent_id", intent.ID,
		"credits", result.CreditsAdded,
	)
	return nil
}

// handleIntentFailed logs a failed payment attempt. The record stays pending
// so a later retry on the same intent can still settle it; abandoned records
// are swept by the cleanup service.
func (h *StripeWebhookHandler) handleIntentFailed(ctx context.Context, event stripe.Event) error {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return fmt.Errorf("failed to unmarshal payment intent: %w", err)
	}

	h.logger.Info("payment attempt failed", "intent_id", intent.ID)
	return nil
}

// handleChargeRefunded records a provider-side refund.
func (h *StripeWebhookHandler) handleChargeRefunded(ctx context.Context, event stripe.Event) error {
	var charge stripe.Charge
	if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
		return fmt.Errorf("failed to unmarshal charge: %w", err)
	}

	if charge.PaymentIntent == nil {
		h.logger.Warn("refunded charge has no payment intent", "charge_id", charge.ID)
		return nil
	}

	if err := h.paymentSvc.HandleRefund(ctx, charge.PaymentIntent.ID, charge.AmountRefunded); err != nil {
		if errors.Is(err, service.ErrPaymentNotFound) {
			h.logger.Warn("refund for unknown intent", "intent_id", charge.PaymentIntent.ID)
			return nil
		}
		return fmt.Errorf("failed to record refund: %w", err)
	}

	h.logger.Info("refund recorded",
		"intent_id", charge.PaymentIntent.ID,
		"amount_minor", charge.AmountRefunded,
	)
	return nil
}
