package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/visionaihq/visionai-api/internal/config"
	"github.com/visionaihq/visionai-api/internal/models"
	"github.com/visionaihq/visionai-api/internal/repository"
)

var (
	// ErrInsufficientCredits indicates the balance cannot cover a generation.
	ErrInsufficientCredits = repository.ErrInsufficientCredits

	// ErrImageNotFound indicates no image matches the id.
	ErrImageNotFound = errors.New("image not found")

	// ErrNotImageOwner indicates the caller does not own the image.
	ErrNotImageOwner = errors.New("not image owner")
)

// GenerateRequest carries the generation parameters.
type GenerateRequest struct {
	Prompt         string
	NegativePrompt string
	Style          string
	Width          int
	Height         int
	Seed           int64
}

// GenerateResult pairs the stored image with the caller's new balance.
type GenerateResult struct {
	Image      *models.Image
	NewBalance int64
}

// ImageService handles image generation and the per-user gallery.
// The provider is an opaque URL-producing service: the generation URL
// encodes prompt and parameters, the provider renders on fetch.
type ImageService struct {
	cfg     *config.Config
	repos   *repository.Repositories
	storage *StorageService
	logger  *slog.Logger

	httpClient *http.Client
}

// NewImageService creates a new image service.
func NewImageService(cfg *config.Config, repos *repository.Repositories, storage *StorageService, logger *slog.Logger) *ImageService {
	return &ImageService{
		cfg:     cfg,
		repos:   repos,
		storage: storage,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Generate deducts one credit and records a generated image. The deduction
// happens first through a conditional update, so two concurrent requests
// against a one-credit balance cannot both pass.
func (s *ImageService) Generate(ctx context.Context, userID string, req GenerateRequest) (*GenerateResult, error) {
	if req.Width <= 0 {
		req.Width = 1024
	}
	if req.Height <= 0 {
		req.Height = 1024
	}
	if req.Seed == 0 {
		req.Seed = rand.Int63n(1_000_000_000)
	}

	newBalance, err := s.repos.Users.SpendCredits(ctx, userID, models.GenerationCost)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientCredits) {
			return nil, ErrInsufficientCredits
		}
		return nil, fmt.Errorf("failed to spend credits: %w", err)
	}

	now := time.Now().UTC()
	image := &models.Image{
		ID:             ulid.Make().String(),
		UserID:         userID,
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		Style:          req.Style,
		Width:          req.Width,
		Height:         req.Height,
		Seed:           req.Seed,
		Model:          s.cfg.ImageProviderModel,
		CreatedAt:      now,
	}
	image.URL = s.providerURL(req)

	if err := s.repos.Images.Create(ctx, image); err != nil {
		// The credit is spent but nothing was recorded; give it back.
		if _, refundErr := s.repos.Users.GrantCredits(ctx, userID, models.GenerationCost); refundErr != nil {
			s.logger.Error("failed to refund credit after record failure",
				"user_id", userID, "error", refundErr)
		}
		return nil, fmt.Errorf("failed to record image: %w", err)
	}

	if err := s.repos.Users.IncrementGenerationStats(ctx, userID, models.GenerationCost); err != nil {
		s.logger.Warn("failed to update generation stats", "user_id", userID, "error", err)
	}

	// Best effort: mirror the provider output into our own bucket so the
	// image survives provider-side expiry. The provider URL remains valid
	// either way.
	if s.storage.IsEnabled() {
		if key, err := s.mirror(ctx, image); err != nil {
			s.logger.Warn("failed to mirror image to storage", "image_id", image.ID, "error", err)
		} else if err := s.repos.Images.SetStorageKey(ctx, image.ID, key); err != nil {
			s.logger.Warn("failed to record storage key", "image_id", image.ID, "error", err)
		} else {
			image.StorageKey = key
		}
	}

	s.logger.Info("image generated",
		"image_id", image.ID,
		"user_id", userID,
		"size", fmt.Sprintf("%dx%d", image.Width, image.Height),
		"balance", newBalance,
	)

	return &GenerateResult{Image: image, NewBalance: newBalance}, nil
}

// Gallery returns the user's own images, newest first.
func (s *ImageService) Gallery(ctx context.Context, userID string, limit, offset int) ([]*models.Image, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repos.Images.GetByUserID(ctx, userID, limit, offset)
}

// Get returns a single image. Unshared images are only visible to their owner.
func (s *ImageService) Get(ctx context.Context, imageID, callerID string) (*models.Image, error) {
	image, err := s.repos.Images.GetByID(ctx, imageID)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	if image == nil {
		return nil, ErrImageNotFound
	}
	if !image.Shared && image.UserID != callerID {
		return nil, ErrImageNotFound
	}
	return image, nil
}

// DownloadURL returns a fetchable URL for the image, subject to the same
// visibility rules as Get. Mirrored images get a short-lived presigned URL
// for the bucket copy; everything else falls back to the provider URL.
func (s *ImageService) DownloadURL(ctx context.Context, imageID, callerID string) (string, error) {
	image, err := s.Get(ctx, imageID, callerID)
	if err != nil {
		return "", err
	}

	if image.StorageKey != "" && s.storage.IsEnabled() {
		signed, err := s.storage.ImagePresignedURL(ctx, image.StorageKey, 15*time.Minute)
		if err != nil {
			s.logger.Warn("failed to presign mirrored image", "image_id", imageID, "error", err)
			return image.URL, nil
		}
		return signed, nil
	}

	return image.URL, nil
}

// SetShared publishes or unpublishes an image on the community feed.
func (s *ImageService) SetShared(ctx context.Context, imageID, callerID string, shared bool) error {
	image, err := s.repos.Images.GetByID(ctx, imageID)
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}
	if image == nil {
		return ErrImageNotFound
	}
	if image.UserID != callerID {
		return ErrNotImageOwner
	}
	return s.repos.Images.SetShared(ctx, imageID, shared)
}

// Delete removes an image and its mirrored copy.
func (s *ImageService) Delete(ctx context.Context, imageID, callerID string) error {
	image, err := s.repos.Images.GetByID(ctx, imageID)
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}
	if image == nil {
		return ErrImageNotFound
	}
	if image.UserID != callerID {
		return ErrNotImageOwner
	}

	if err := s.repos.Images.Delete(ctx, imageID); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}

	if err := s.storage.DeleteImage(ctx, image.StorageKey); err != nil {
		s.logger.Warn("failed to delete mirrored image", "image_id", imageID, "error", err)
	}

	return nil
}

// providerURL builds the provider's render URL for the request.
func (s *ImageService) providerURL(req GenerateRequest) string {
	prompt := req.Prompt
	if req.Style != "" {
		prompt = fmt.Sprintf("%s, %s style", prompt, req.Style)
	}

	params := url.Values{}
	params.Set("width", fmt.Sprintf("%d", req.Width))
	params.Set("height", fmt.Sprintf("%d", req.Height))
	params.Set("seed", fmt.Sprintf("%d", req.Seed))
	params.Set("model", s.cfg.ImageProviderModel)
	params.Set("nologo", "true")
	if req.NegativePrompt != "" {
		params.Set("negative_prompt", req.NegativePrompt)
	}

	return fmt.Sprintf("%s/%s?%s", s.cfg.ImageProviderURL, url.PathEscape(prompt), params.Encode())
}

// mirror fetches the rendered image and uploads it to the bucket.
func (s *ImageService) mirror(ctx context.Context, image *models.Image) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, image.URL, nil)
	if err != nil {
		return "", err
	}

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to fetch provider image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}

	return s.storage.StoreImage(ctx, image.ID, resp.Body, contentType)
}
