package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"github.com/visionaihq/visionai-api/internal/models"
	"github.com/visionaihq/visionai-api/internal/repository"
)

var (
	// ErrCommentNotFound indicates the comment does not exist or is not
	// deletable by the caller.
	ErrCommentNotFound = errors.New("comment not found")

	// ErrEmptyComment indicates a blank comment body.
	ErrEmptyComment = errors.New("comment body is empty")

	// ErrSelfFollow indicates a user tried to follow themselves.
	ErrSelfFollow = errors.New("cannot follow yourself")
)

// maxCommentLength bounds comment bodies, counted in runes.
const maxCommentLength = 1000

// CommunityService handles the shared feed: likes, comments and follows.
type CommunityService struct {
	repos  *repository.Repositories
	logger *slog.Logger
}

// NewCommunityService creates a new community service.
func NewCommunityService(repos *repository.Repositories, logger *slog.Logger) *CommunityService {
	return &CommunityService{
		repos:  repos,
		logger: logger,
	}
}

// Feed returns shared images, ordered by recency or popularity.
func (s *CommunityService) Feed(ctx context.Context, sort models.FeedSort, limit, offset int) ([]*models.Image, error) {
	if sort != models.FeedSortPopular {
		sort = models.FeedSortRecent
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repos.Images.Feed(ctx, sort, limit, offset)
}

// Like records a like on a shared image. Liking twice is a no-op.
func (s *CommunityService) Like(ctx context.Context, imageID, userID string) (int64, error) {
	image, err := s.sharedImage(ctx, imageID)
	if err != nil {
		return 0, err
	}

	added, err := s.repos.Community.Like(ctx, imageID, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to like image: %w", err)
	}
	count := image.LikesCount
	if added {
		count++
	}
	return count, nil
}

// Unlike removes a like. Unliking an image never liked is a no-op.
func (s *CommunityService) Unlike(ctx context.Context, imageID, userID string) (int64, error) {
	image, err := s.sharedImage(ctx, imageID)
	if err != nil {
		return 0, err
	}

	removed, err := s.repos.Community.Unlike(ctx, imageID, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to unlike image: %w", err)
	}
	count := image.LikesCount
	if removed && count > 0 {
		count--
	}
	return count, nil
}

// Comment adds a comment to a shared image.
func (s *CommunityService) Comment(ctx context.Context, imageID, userID, body string) (*models.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyComment
	}
	// Truncate on a rune boundary so a multi-byte character is never split.
	if utf8.RuneCountInString(body) > maxCommentLength {
		body = string([]rune(body)[:maxCommentLength])
	}

	if _, err := s.sharedImage(ctx, imageID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ID:        ulid.Make().String(),
		ImageID:   imageID,
		UserID:    userID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repos.Community.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return comment, nil
}

// Comments lists comments on a shared image, newest first.
func (s *CommunityService) Comments(ctx context.Context, imageID string, limit, offset int) ([]*models.Comment, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if _, err := s.sharedImage(ctx, imageID); err != nil {
		return nil, err
	}
	return s.repos.Community.GetComments(ctx, imageID, limit, offset)
}

// DeleteComment removes the caller's own comment.
func (s *CommunityService) DeleteComment(ctx context.Context, commentID, userID string) error {
	ok, err := s.repos.Community.DeleteComment(ctx, commentID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	if !ok {
		return ErrCommentNotFound
	}
	return nil
}

// Follow subscribes the caller to another user's shared images.
func (s *CommunityService) Follow(ctx context.Context, followerID, followeeID string) error {
	if followerID == followeeID {
		return ErrSelfFollow
	}

	followee, err := s.repos.Users.GetByID(ctx, followeeID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if followee == nil || !followee.IsActive {
		return ErrUserNotFound
	}

	if _, err := s.repos.Community.Follow(ctx, followerID, followeeID); err != nil {
		return fmt.Errorf("failed to follow: %w", err)
	}
	return nil
}

// Unfollow removes a follow edge.
func (s *CommunityService) Unfollow(ctx context.Context, followerID, followeeID string) error {
	if _, err := s.repos.Community.Unfollow(ctx, followerID, followeeID); err != nil {
		return fmt.Errorf("failed to unfollow: %w", err)
	}
	return nil
}

// sharedImage loads an image that must exist and be shared.
func (s *CommunityService) sharedImage(ctx context.Context, imageID string) (*models.Image, error) {
	image, err := s.repos.Images.GetByID(ctx, imageID)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	if image == nil || !image.Shared {
		return nil, ErrImageNotFound
	}
	return image, nil
}
