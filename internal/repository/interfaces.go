// Package repository defines repository interfaces for data access.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/visionaihq/visionai-api/internal/models"
)

// ErrInsufficientCredits is returned when a conditional spend finds the
// balance below the requested amount.
var ErrInsufficientCredits = errors.New("insufficient credits")

// UserRepository defines methods for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, id, name, avatarURL string) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	// GrantCredits atomically increments the balance and returns the new value.
	GrantCredits(ctx context.Context, id string, amount int64) (int64, error)
	// SetUnlimitedCredits pins the balance to the unlimited ceiling.
	SetUnlimitedCredits(ctx context.Context, id string) (int64, error)
	// SpendCredits decrements the balance only if it covers cost.
	// Returns ErrInsufficientCredits otherwise.
	SpendCredits(ctx context.Context, id string, cost int64) (int64, error)
	SetPlan(ctx context.Context, id, plan string) error
	// IncrementGenerationStats bumps images_generated and credits_spent.
	IncrementGenerationStats(ctx context.Context, id string, creditsSpent int64) error
}

// PaymentRepository defines methods for payment record data access.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.PaymentRecord) error
	GetByIntentID(ctx context.Context, intentID string) (*models.PaymentRecord, error)
	// MarkSucceeded transitions a record from pending to succeeded.
	// The update is conditional on status='pending'; the returned row count
	// is 1 for the winning caller and 0 for everyone else.
	MarkSucceeded(ctx context.Context, intentID string, webhookConfirmed bool, at time.Time) (int64, error)
	// CancelStalePending cancels pending records older than cutoff and
	// returns how many were canceled.
	CancelStalePending(ctx context.Context, cutoff time.Time) (int64, error)
	MarkRefunded(ctx context.Context, intentID string, amountMinor int64, at time.Time) error
	GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*models.PaymentRecord, error)
}

// ImageRepository defines methods for generated image data access.
type ImageRepository interface {
	Create(ctx context.Context, image *models.Image) error
	GetByID(ctx context.Context, id string) (*models.Image, error)
	GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*models.Image, error)
	SetShared(ctx context.Context, id string, shared bool) error
	SetStorageKey(ctx context.Context, id, key string) error
	Delete(ctx context.Context, id string) error
	// Feed returns shared images ordered per sort.
	Feed(ctx context.Context, sort models.FeedSort, limit, offset int) ([]*models.Image, error)
}

// CommunityRepository defines methods for likes, comments and follows.
// Mutations keep the denormalized counters on images/users in step inside
// a single transaction.
type CommunityRepository interface {
	// Like records a like and bumps likes_count. Returns false if the user
	// already liked the image.
	Like(ctx context.Context, imageID, userID string) (bool, error)
	Unlike(ctx context.Context, imageID, userID string) (bool, error)
	HasLiked(ctx context.Context, imageID, userID string) (bool, error)
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetComments(ctx context.Context, imageID string, limit, offset int) ([]*models.Comment, error)
	DeleteComment(ctx context.Context, id, userID string) (bool, error)
	Follow(ctx context.Context, followerID, followeeID string) (bool, error)
	Unfollow(ctx context.Context, followerID, followeeID string) (bool, error)
	IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error)
}

// Repositories holds all repository instances.
type Repositories struct {
	Users     UserRepository
	Payments  PaymentRepository
	Images    ImageRepository
	Community CommunityRepository
}

// NewRepositories creates all repository instances.
func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Users:     NewSQLiteUserRepository(db),
		Payments:  NewSQLitePaymentRepository(db),
		Images:    NewSQLiteImageRepository(db),
		Community: NewSQLiteCommunityRepository(db),
	}
}
