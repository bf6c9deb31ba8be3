package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/visionaihq/visionai-api/internal/gateway"
	"github.com/visionaihq/visionai-api/internal/models"
	"github.com/visionaihq/visionai-api/internal/repository"
)

var (
	// ErrInvalidPlan indicates an unknown or non-purchasable plan.
	ErrInvalidPlan = errors.New("invalid plan")

	// ErrPaymentNotFound indicates no payment record matches the intent.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrGateway indicates the payment provider call failed.
	ErrGateway = errors.New("payment gateway error")

	// ErrGatewayVerificationFailed indicates the provider does not consider
	// the intent paid, so the fallback confirmation was rejected.
	ErrGatewayVerificationFailed = errors.New("gateway verification failed")
)

// PaymentIntentResult is returned when a pending payment is opened.
// ClientSecret is the handle the browser hands to the provider SDK.
type PaymentIntentResult struct {
	PaymentID    string
	IntentID     string
	ClientSecret string
	AmountMinor  int64
	Currency     string
}

// ReconcileResult reports the outcome of a reconcile call. Repeats and
// race losers get AlreadyProcessed=true with the originally recorded grant.
type ReconcileResult struct {
	CreditsAdded     int64
	NewBalance       int64
	AlreadyProcessed bool
}

// PaymentService owns the payment lifecycle: opening pending records
// against gateway intents and reconciling them to succeeded exactly once.
type PaymentService struct {
	repos          *repository.Repositories
	gw             gateway.Gateway
	gatewayTimeout time.Duration
	logger         *slog.Logger

	// Per-intent locks serialize concurrent reconciles for the same intent
	// inside this process. The conditional store update is the real
	// exactly-once guarantee; this keeps the loser from doing a wasted
	// gateway round-trip mid-race.
	mu    sync.Mutex
	locks map[string]*intentLock
}

type intentLock struct {
	mu   sync.Mutex
	refs int
}

// NewPaymentService creates a new payment service.
func NewPaymentService(repos *repository.Repositories, gw gateway.Gateway, gatewayTimeout time.Duration, logger *slog.Logger) *PaymentService {
	return &PaymentService{
		repos:          repos,
		gw:             gw,
		gatewayTimeout: gatewayTimeout,
		logger:         logger,
		locks:          make(map[string]*intentLock),
	}
}

// Plans returns the purchasable plan catalog.
func (s *PaymentService) Plans() []models.Plan {
	return models.Plans
}

// CreatePendingPayment opens a gateway intent for the plan's price and
// persists a pending payment record for it. The record is only written
// after the gateway confirms intent creation, so a gateway failure never
// leaves an orphaned pending record behind.
func (s *PaymentService) CreatePendingPayment(ctx context.Context, userID, planID string) (*PaymentIntentResult, error) {
	plan, ok := models.PlanByID(planID)
	if !ok {
		return nil, ErrInvalidPlan
	}
	if plan.PriceMinor <= 0 {
		// The free tier has nothing to charge for.
		return nil, ErrInvalidPlan
	}

	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, ErrPaymentNotFound
	}

	gwCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	intent, err := s.gw.CreateIntent(gwCtx, gateway.CreateIntentRequest{
		AmountMinor: plan.PriceMinor,
		Currency:    plan.Currency,
		UserID:      userID,
		PlanID:      plan.ID,
	})
	if err != nil {
		s.logger.Error("gateway intent creation failed", "user_id", userID, "plan_id", planID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	now := time.Now().UTC()
	record := &models.PaymentRecord{
		ID:              ulid.Make().String(),
		UserID:          userID,
		GatewayIntentID: intent.ID,
		AmountMinor:     plan.PriceMinor,
		Currency:        plan.Currency,
		Status:          models.PaymentStatusPending,
		CreditsToGrant:  plan.Credits,
		PlanID:          plan.ID,
		PlanName:        plan.Name,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repos.Payments.Create(ctx, record); err != nil {
		// The intent exists at the gateway but has no local record; it will
		// never be reconciled and expires provider-side.
		s.logger.Error("failed to persist payment record", "intent_id", intent.ID, "error", err)
		return nil, fmt.Errorf("failed to create payment record: %w", err)
	}

	s.logger.Info("pending payment created",
		"payment_id", record.ID,
		"intent_id", intent.ID,
		"user_id", userID,
		"plan_id", plan.ID,
		"amount_minor", plan.PriceMinor,
	)

	return &PaymentIntentResult{
		PaymentID:    record.ID,
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		AmountMinor:  plan.PriceMinor,
		Currency:     plan.Currency,
	}, nil
}

// Reconcile transitions the payment record for intentID to succeeded and
// grants the recorded credits, exactly once. Both notification paths call
// it: the webhook handler after signature verification, and the fallback
// confirm endpoint with the authenticated caller's user id.
//
// The fallback path re-verifies the intent with the gateway because the
// call is client-triggered and the client is untrusted. callerUserID is
// ignored for the webhook path.
func (s *PaymentService) Reconcile(ctx context.Context, intentID string, source models.ReconcileSource, callerUserID string) (*ReconcileResult, error) {
	unlock := s.lockIntent(intentID)
	defer unlock()

	record, err := s.repos.Payments.GetByIntentID(ctx, intentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment record: %w", err)
	}
	if record == nil {
		return nil, ErrPaymentNotFound
	}

	if source == models.SourceFallback {
		// A caller can only confirm their own payment. Report not-found
		// rather than forbidden so intent ids are not probeable.
		if record.UserID != callerUserID {
			return nil, ErrPaymentNotFound
		}
	}

	if record.Status.Terminal() {
		return s.noopResult(ctx, record)
	}

	if source == models.SourceFallback {
		gwCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
		defer cancel()

		intent, err := s.gw.RetrieveIntent(gwCtx, intentID)
		if err != nil {
			s.logger.Warn("fallback verification call failed", "intent_id", intentID, "error", err)
			return nil, fmt.Errorf("%w: %v", ErrGatewayVerificationFailed, err)
		}
		if !intent.Succeeded() {
			s.logger.Warn("fallback confirm for unpaid intent",
				"intent_id", intentID,
				"gateway_status", intent.Status,
				"user_id", callerUserID,
			)
			return nil, ErrGatewayVerificationFailed
		}
	}

	rows, err := s.repos.Payments.MarkSucceeded(ctx, intentID, source == models.SourceWebhook, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to transition payment: %w", err)
	}
	if rows == 0 {
		// Another caller won the conditional update between our read and
		// write. Reload and report the no-op.
		record, err = s.repos.Payments.GetByIntentID(ctx, intentID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload payment record: %w", err)
		}
		if record == nil {
			return nil, ErrPaymentNotFound
		}
		return s.noopResult(ctx, record)
	}

	newBalance, err := s.grantCredits(ctx, record)
	if err != nil {
		// The record is already succeeded; crediting must not be retried
		// blindly or the grant could double-apply. Surface for manual
		// reconciliation.
		s.logger.Error("credit grant failed after payment transition",
			"intent_id", intentID,
			"user_id", record.UserID,
			"credits", record.CreditsToGrant,
			"error", err,
		)
		return nil, fmt.Errorf("failed to grant credits: %w", err)
	}

	if record.PlanID != models.PlanFree {
		if err := s.repos.Users.SetPlan(ctx, record.UserID, record.PlanID); err != nil {
			s.logger.Error("failed to update user plan", "user_id", record.UserID, "plan_id", record.PlanID, "error", err)
		}
	}

	s.logger.Info("payment reconciled",
		"intent_id", intentID,
		"user_id", record.UserID,
		"source", source,
		"credits", record.CreditsToGrant,
		"balance", newBalance,
	)

	return &ReconcileResult{
		CreditsAdded: record.CreditsToGrant,
		NewBalance:   newBalance,
	}, nil
}

// HandleRefund records a provider-side refund on the payment record.
// Spent credits are not clawed back.
func (s *PaymentService) HandleRefund(ctx context.Context, intentID string, amountMinor int64) error {
	record, err := s.repos.Payments.GetByIntentID(ctx, intentID)
	if err != nil {
		return fmt.Errorf("failed to load payment record: %w", err)
	}
	if record == nil {
		return ErrPaymentNotFound
	}

	if err := s.repos.Payments.MarkRefunded(ctx, intentID, amountMinor, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to mark refunded: %w", err)
	}

	s.logger.Info("payment refunded", "intent_id", intentID, "amount_minor", amountMinor)
	return nil
}

// History returns the user's payment records, newest first.
func (s *PaymentService) History(ctx context.Context, userID string, limit, offset int) ([]*models.PaymentRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repos.Payments.GetByUserID(ctx, userID, limit, offset)
}

// CancelStale cancels pending records older than maxAge.
func (s *PaymentService) CancelStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	return s.repos.Payments.CancelStalePending(ctx, time.Now().UTC().Add(-maxAge))
}

// noopResult builds the idempotent response for an already-terminal record.
func (s *PaymentService) noopResult(ctx context.Context, record *models.PaymentRecord) (*ReconcileResult, error) {
	user, err := s.repos.Users.GetByID(ctx, record.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	var balance int64
	if user != nil {
		balance = user.Credits
	}
	return &ReconcileResult{
		CreditsAdded:     record.CreditsToGrant,
		NewBalance:       balance,
		AlreadyProcessed: true,
	}, nil
}

// grantCredits applies the snapshotted grant to the user's balance.
func (s *PaymentService) grantCredits(ctx context.Context, record *models.PaymentRecord) (int64, error) {
	if record.CreditsToGrant == models.UnlimitedCredits {
		return s.repos.Users.SetUnlimitedCredits(ctx, record.UserID)
	}
	return s.repos.Users.GrantCredits(ctx, record.UserID, record.CreditsToGrant)
}

// lockIntent acquires the per-intent mutex, creating it on first use and
// dropping it from the map once the last holder releases.
func (s *PaymentService) lockIntent(intentID string) func() {
	s.mu.Lock()
	l, ok := s.locks[intentID]
	if !ok {
		l = &intentLock{}
		s.locks[intentID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, intentID)
		}
		s.mu.Unlock()
	}
}
