package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/danielgtaylor/huma/v2"

	"github.com/visionaihq/visionai-api/internal/models"
	"github.com/visionaihq/visionai-api/internal/service"
)

// PaymentHandler handles the payment endpoints: opening intents, the
// client-side fallback confirmation and payment history.
type PaymentHandler struct {
	paymentSvc *service.PaymentService
	logger     *slog.Logger
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(paymentSvc *service.PaymentService, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc, logger: logger}
}

// CreateIntentInput is the request for opening a payment.
type CreateIntentInput struct {
	Body struct {
		PlanID string `json:"plan_id" minLength:"1" doc:"Catalog plan to purchase"`
	}
}

// CreateIntentOutput carries the provider handle the browser needs to
// collect the payment.
type CreateIntentOutput struct {
	Body struct {
		PaymentID    string `json:"payment_id" doc:"Local payment record id"`
		IntentID     string `json:"intent_id" doc:"Provider payment intent id"`
		ClientSecret string `json:"client_secret" doc:"Provider client secret for the browser SDK"`
		AmountMinor  int64  `json:"amount_minor"`
		Currency     string `json:"currency"`
	}
}

// CreateIntent opens a provider intent and a pending payment record for it.
func (h *PaymentHandler) CreateIntent(ctx context.Context, input *CreateIntentInput) (*CreateIntentOutput, error) {
	result, err := h.paymentSvc.CreatePendingPayment(ctx, getUserID(ctx), input.Body.PlanID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPlan):
			return nil, huma.Error400BadRequest("plan is not purchasable")
		case errors.Is(err, service.ErrPaymentNotFound):
			return nil, huma.Error404NotFound("user not found")
		case errors.Is(err, service.ErrGateway):
			return nil, huma.Error502BadGateway("payment provider unavailable")
		}
		h.logger.Error("failed to open payment", "error", err)
		return nil, huma.Error500InternalServerError("failed to open payment")
	}

	out := &CreateIntentOutput{}
	out.Body.PaymentID = result.PaymentID
	out.Body.IntentID = result.IntentID
	out.Body.ClientSecret = result.ClientSecret
	out.Body.AmountMinor = result.AmountMinor
	out.Body.Currency = result.Currency
	return out, nil
}

// ConfirmPaymentInput is the request for the fallback confirmation path.
type ConfirmPaymentInput struct {
	Body struct {
		IntentID string `json:"intent_id" minLength:"1" doc:"Provider payment intent id returned by CreateIntent"`
	}
}

// ConfirmPaymentOutput reports the reconcile outcome. A repeat confirmation
// returns already_processed=true with the originally recorded grant.
type ConfirmPaymentOutput struct {
	Body struct {
		CreditsAdded     int64 `json:"credits_added" doc:"Credits recorded for this payment (-1 = unlimited plan)"`
		NewBalance       int64 `json:"new_balance" doc:"Credit balance after reconciliation"`
		AlreadyProcessed bool  `json:"already_processed" doc:"True when the payment was settled earlier"`
	}
}

// ConfirmPayment reconciles a payment from the client side. The webhook is
// the primary notification path; this endpoint covers webhook delays and
// misses, and re-verifies the intent with the provider before crediting.
func (h *PaymentHandler) ConfirmPayment(ctx context.Context, input *ConfirmPaymentInput) (*ConfirmPaymentOutput, error) {
	result, err := h.paymentSvc.Reconcile(ctx, input.Body.IntentID, models.SourceFallback, getUserID(ctx))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentNotFound):
			return nil, huma.Error404NotFound("payment not found")
		case errors.Is(err, service.ErrGatewayVerificationFailed):
			return nil, huma.Error409Conflict("payment is not confirmed by the provider")
		}
		h.logger.Error("fallback confirmation failed", "intent_id", input.Body.IntentID, "error", err)
		return nil, huma.Error500InternalServerError("failed to confirm payment")
	}

	out := &ConfirmPaymentOutput{}
	out.Body.CreditsAdded = result.CreditsAdded
	out.Body.NewBalance = result.NewBalance
	out.Body.AlreadyProcessed = result.AlreadyProcessed
	return out, nil
}

// HistoryInput selects a page of payment history.
type HistoryInput struct {
	Limit  int `query:"limit" minimum:"1" maximum:"100" required:"false" doc:"Page size (default 20)"`
	Offset int `query:"offset" minimum:"0" required:"false" doc:"Page offset"`
}

// HistoryOutput is a page of the caller's payment records, newest first.
type HistoryOutput struct {
	Body struct {
		Payments []*models.PaymentRecord `json:"payments"`
	}
}

// History returns the caller's payment records.
func (h *PaymentHandler) History(ctx context.Context, input *HistoryInput) (*HistoryOutput, error) {
	payments, err := h.paymentSvc.History(ctx, getUserID(ctx), input.Limit, input.Offset)
	if err != nil {
		h.logger.Error("failed to load payment history", "error", err)
		return nil, huma.Error500InternalServerError("failed to load payment history")
	}

	out := &HistoryOutput{}
	out.Body.Payments = payments
	return out, nil
}
