package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/visionaihq/visionai-api/internal/models"
)

// SQLitePaymentRepository implements PaymentRepository for SQLite.
type SQLitePaymentRepository struct {
	db *sql.DB
}

// NewSQLitePaymentRepository creates a new SQLite payment repository.
func NewSQLitePaymentRepository(db *sql.DB) *SQLitePaymentRepository {
	return &SQLitePaymentRepository{db: db}
}

const paymentColumns = `id, user_id, gateway_intent_id, amount_minor, currency, status, credits_to_grant,
	plan_id, plan_name, webhook_confirmed, processed_at, refunded_at, refund_amount_minor, created_at, updated_at`

func (r *SQLitePaymentRepository) Create(ctx context.Context, payment *models.PaymentRecord) error {
	query := `INSERT INTO payments (id, user_id, gateway_intent_id, amount_minor, currency, status, credits_to_grant,
		plan_id, plan_name, webhook_confirmed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		payment.ID, payment.UserID, payment.GatewayIntentID, payment.AmountMinor, payment.Currency,
		payment.Status, payment.CreditsToGrant, payment.PlanID, payment.PlanName, payment.WebhookConfirmed,
		payment.CreatedAt.Format(time.RFC3339), payment.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLitePaymentRepository) GetByIntentID(ctx context.Context, intentID string) (*models.PaymentRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE gateway_intent_id = ?`, intentID)
	return scanPayment(row)
}

func scanPayment(row *sql.Row) (*models.PaymentRecord, error) {
	var p models.PaymentRecord
	var processedAt, refundedAt sql.NullString
	var refundAmount sql.NullInt64
	var createdAt, updatedAt string

	err := row.Scan(&p.ID, &p.UserID, &p.GatewayIntentID, &p.AmountMinor, &p.Currency, &p.Status,
		&p.CreditsToGrant, &p.PlanID, &p.PlanName, &p.WebhookConfirmed,
		&processedAt, &refundedAt, &refundAmount, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if processedAt.Valid {
		t, _ := time.Parse(time.RFC3339, processedAt.String)
		p.ProcessedAt = &t
	}
	if refundedAt.Valid {
		t, _ := time.Parse(time.RFC3339, refundedAt.String)
		p.RefundedAt = &t
	}
	if refundAmount.Valid {
		p.RefundAmountMinor = &refundAmount.Int64
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &p, nil
}

// MarkSucceeded is the atomic claim that makes crediting exactly-once:
// only one caller observes rows=1 for a given intent, no matter how many
// webhook retries and client confirmations race on it.
func (r *SQLitePaymentRepository) MarkSucceeded(ctx context.Context, intentID string, webhookConfirmed bool, at time.Time) (int64, error) {
	query := `UPDATE payments SET status = ?, webhook_confirmed = ?, processed_at = ?, updated_at = ?
		WHERE gateway_intent_id = ? AND status = ?`
	result, err := r.db.ExecContext(ctx, query,
		models.PaymentStatusSucceeded, webhookConfirmed,
		at.Format(time.RFC3339), at.Format(time.RFC3339),
		intentID, models.PaymentStatusPending)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *SQLitePaymentRepository) CancelStalePending(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `UPDATE payments SET status = ?, updated_at = ? WHERE status = ? AND created_at < ?`
	result, err := r.db.ExecContext(ctx, query,
		models.PaymentStatusCanceled, time.Now().UTC().Format(time.RFC3339),
		models.PaymentStatusPending, cutoff.Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *SQLitePaymentRepository) MarkRefunded(ctx context.Context, intentID string, amountMinor int64, at time.Time) error {
	query := `UPDATE payments SET status = ?, refunded_at = ?, refund_amount_minor = ?, updated_at = ?
		WHERE gateway_intent_id = ? AND status = ?`
	_, err := r.db.ExecContext(ctx, query,
		models.PaymentStatusRefunded, at.Format(time.RFC3339), amountMinor, at.Format(time.RFC3339),
		intentID, models.PaymentStatusSucceeded)
	return err
}

func (r *SQLitePaymentRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*models.PaymentRecord, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE user_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var payments []*models.PaymentRecord
	for rows.Next() {
		var p models.PaymentRecord
		var processedAt, refundedAt sql.NullString
		var refundAmount sql.NullInt64
		var createdAt, updatedAt string

		if err := rows.Scan(&p.ID, &p.UserID, &p.GatewayIntentID, &p.AmountMinor, &p.Currency, &p.Status,
			&p.CreditsToGrant, &p.PlanID, &p.PlanName, &p.WebhookConfirmed,
			&processedAt, &refundedAt, &refundAmount, &createdAt, &updatedAt); err != nil {
			return nil, err
		}

		if processedAt.Valid {
			t, _ := time.Parse(time.RFC3339, processedAt.String)
			p.ProcessedAt = &t
		}
		if refundedAt.Valid {
			t, _ := time.Parse(time.RFC3339, refundedAt.String)
			p.RefundedAt = &t
		}
		if refundAmount.Valid {
			p.RefundAmountMinor = &refundAmount.Int64
		}
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

		payments = append(payments, &p)
	}

	return payments, rows.Err()
}
