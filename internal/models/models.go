// Package models defines the domain models for the application.
package models

import "time"

// ========================================
// Users
// ========================================

// User represents an account with a credit balance.
// credits is the single mutable quantity the payment core protects:
// it only ever increases through a payment record's succeeded transition
// (plus the fixed signup grant) and decreases through generation spend.
type User struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	PasswordHash  string     `json:"-"`
	AvatarURL     string     `json:"avatar_url,omitempty"`
	Credits       int64      `json:"credits"`
	Plan          string     `json:"plan"`
	IsActive      bool       `json:"is_active"`
	EmailVerified bool       `json:"email_verified"`

	// Denormalized counters
	ImagesGenerated int64 `json:"images_generated"`
	CreditsSpent    int64 `json:"credits_spent"`
	FollowersCount  int64 `json:"followers_count"`
	FollowingCount  int64 `json:"following_count"`

	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// SignupCredits is the fixed grant applied once at account creation.
const SignupCredits = 20

// ========================================
// Generated images
// ========================================

// Image is a generated image record. The URL points at the external
// provider; StorageKey is set when the image has been mirrored to the
// configured object storage bucket.
type Image struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	URL            string    `json:"url"`
	Prompt         string    `json:"prompt"`
	NegativePrompt string    `json:"negative_prompt,omitempty"`
	Style          string    `json:"style"`
	Width          int       `json:"width"`
	Height         int       `json:"height"`
	Seed           int64     `json:"seed"`
	Model          string    `json:"model"`
	Shared         bool      `json:"shared"`
	LikesCount     int64     `json:"likes_count"`
	CommentsCount  int64     `json:"comments_count"`
	StorageKey     string    `json:"storage_key,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// GenerationCost is the credit cost of a single image generation.
const GenerationCost = 1

// ========================================
// Community
// ========================================

// Comment is a user comment on a shared image.
type Comment struct {
	ID        string    `json:"id"`
	ImageID   string    `json:"image_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedSort controls community feed ordering.
type FeedSort string

const (
	FeedSortRecent  FeedSort = "recent"
	FeedSortPopular FeedSort = "popular"
)
