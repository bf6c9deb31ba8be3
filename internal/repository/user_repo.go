package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/visionaihq/visionai-api/internal/models"
)

// SQLiteUserRepository implements UserRepository for SQLite.
type SQLiteUserRepository struct {
	db *sql.DB
}

// NewSQLiteUserRepository creates a new SQLite user repository.
func NewSQLiteUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

const userColumns = `id, email, name, password_hash, avatar_url, credits, plan, is_active, email_verified,
	images_generated, credits_spent, followers_count, following_count, last_login_at, created_at, updated_at`

func (r *SQLiteUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (id, email, name, password_hash, avatar_url, credits, plan, is_active, email_verified,
		images_generated, credits_spent, followers_count, following_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Name, user.PasswordHash, user.AvatarURL, user.Credits, user.Plan,
		user.IsActive, user.EmailVerified,
		user.ImagesGenerated, user.CreditsSpent, user.FollowersCount, user.FollowingCount,
		user.CreatedAt.Format(time.RFC3339), user.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *SQLiteUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	var lastLoginAt sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.AvatarURL,
		&user.Credits, &user.Plan, &user.IsActive, &user.EmailVerified,
		&user.ImagesGenerated, &user.CreditsSpent, &user.FollowersCount, &user.FollowingCount,
		&lastLoginAt, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if lastLoginAt.Valid {
		t, _ := time.Parse(time.RFC3339, lastLoginAt.String)
		user.LastLoginAt = &t
	}
	user.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	user.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &user, nil
}

func (r *SQLiteUserRepository) UpdateProfile(ctx context.Context, id, name, avatarURL string) error {
	query := `UPDATE users SET name = ?, avatar_url = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, name, avatarURL, time.Now().UTC().Format(time.RFC3339), id)
	return err
}

func (r *SQLiteUserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE users SET last_login_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, at.Format(time.RFC3339), id)
	return err
}

func (r *SQLiteUserRepository) GrantCredits(ctx context.Context, id string, amount int64) (int64, error) {
	query := `UPDATE users SET credits = credits + ?, updated_at = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, amount, time.Now().UTC().Format(time.RFC3339), id); err != nil {
		return 0, err
	}
	return r.balance(ctx, id)
}

func (r *SQLiteUserRepository) SetUnlimitedCredits(ctx context.Context, id string) (int64, error) {
	query := `UPDATE users SET credits = ?, updated_at = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, models.UnlimitedCreditsCeiling, time.Now().UTC().Format(time.RFC3339), id); err != nil {
		return 0, err
	}
	return models.UnlimitedCreditsCeiling, nil
}

func (r *SQLiteUserRepository) SpendCredits(ctx context.Context, id string, cost int64) (int64, error) {
	// Conditional decrement: the WHERE clause is the concurrency guard, a
	// losing racer sees zero rows affected.
	query := `UPDATE users SET credits = credits - ?, updated_at = ? WHERE id = ? AND credits >= ?`
	result, err := r.db.ExecContext(ctx, query, cost, time.Now().UTC().Format(time.RFC3339), id, cost)
	if err != nil {
		return 0, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if rows == 0 {
		return 0, ErrInsufficientCredits
	}
	return r.balance(ctx, id)
}

func (r *SQLiteUserRepository) SetPlan(ctx context.Context, id, plan string) error {
	query := `UPDATE users SET plan = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, plan, time.Now().UTC().Format(time.RFC3339), id)
	return err
}

func (r *SQLiteUserRepository) IncrementGenerationStats(ctx context.Context, id string, creditsSpent int64) error {
	query := `UPDATE users SET images_generated = images_generated + 1, credits_spent = credits_spent + ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, creditsSpent, id)
	return err
}

func (r *SQLiteUserRepository) balance(ctx context.Context, id string) (int64, error) {
	var credits int64
	err := r.db.QueryRowContext(ctx, `SELECT credits FROM users WHERE id = ?`, id).Scan(&credits)
	return credits, err
}
