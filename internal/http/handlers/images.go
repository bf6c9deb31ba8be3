package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/danielgtaylor/huma/v2"

	"github.com/visionaihq/visionai-api/internal/models"
	"github.com/visionaihq/visionai-api/internal/service"
)

// ImageHandler handles image generation and the personal gallery.
type ImageHandler struct {
	imageSvc *service.ImageService
	logger   *slog.Logger
}

// NewImageHandler creates a new image handler.
func NewImageHandler(imageSvc *service.ImageService, logger *slog.Logger) *ImageHandler {
	return &ImageHandler{imageSvc: imageSvc, logger: logger}
}

// GenerateImageInput is the request for image generation.
type GenerateImageInput struct {
	Body struct {
		Prompt         string `json:"prompt" minLength:"1" maxLength:"1000" doc:"Generation prompt"`
		NegativePrompt string `json:"negative_prompt,omitempty" maxLength:"1000" required:"false" doc:"Things to avoid"`
		Style          string `json:"style,omitempty" maxLength:"50" required:"false" doc:"Style modifier appended to the prompt"`
		Width          int    `json:"width,omitempty" minimum:"64" maximum:"2048" required:"false" doc:"Width in pixels (default 1024)"`
		Height         int    `json:"height,omitempty" minimum:"64" maximum:"2048" required:"false" doc:"Height in pixels (default 1024)"`
		Seed           int64  `json:"seed,omitempty" minimum:"0" required:"false" doc:"Seed for reproducible output (0 = random)"`
	}
}

// GenerateImageOutput pairs the stored image with the new credit balance.
type GenerateImageOutput struct {
	Body struct {
		Image      *models.Image `json:"image"`
		NewBalance int64         `json:"new_balance" doc:"Credit balance after the spend"`
	}
}

// Generate deducts one credit and records a generated image.
func (h *ImageHandler) Generate(ctx context.Context, input *GenerateImageInput) (*GenerateImageOutput, error) {
	result, err := h.imageSvc.Generate(ctx, getUserID(ctx), service.GenerateRequest{
		Prompt:         input.Body.Prompt,
		NegativePrompt: input.Body.NegativePrompt,
		Style:          input.Body.Style,
		Width:          input.Body.Width,
		Height:         input.Body.Height,
		Seed:           input.Body.Seed,
	})
	if err != nil {
		if errors.Is(err, service.ErrInsufficientCredits) {
			return nil, huma.Error400BadRequest("insufficient credits")
		}
		h.logger.Error("image generation failed", "error", err)
		return nil, huma.Error500InternalServerError("failed to generate image")
	}

	out := &GenerateImageOutput{}
	out.Body.Image = result.Image
	out.Body.NewBalance = result.NewBalance
	return out, nil
}

// GalleryInput selects a page of the caller's own images.
type GalleryInput struct {
	Limit  int `query:"limit" minimum:"1" maximum:"100" required:"false" doc:"Page size (default 20)"`
	Offset int `query:"offset" minimum:"0" required:"false" doc:"Page offset"`
}

// GalleryOutput is a page of images, newest first.
type GalleryOutput struct {
	Body struct {
		Images []*models.Image `json:"images"`
	}
}

// Gallery returns the caller's own images.
func (h *ImageHandler) Gallery(ctx context.Context, input *GalleryInput) (*GalleryOutput, error) {
	images, err := h.imageSvc.Gallery(ctx, getUserID(ctx), input.Limit, input.Offset)
	if err != nil {
		h.logger.Error("failed to load gallery", "error", err)
		return nil, huma.Error500InternalServerError("failed to load gallery")
	}

	out := &GalleryOutput{}
	out.Body.Images = images
	return out, nil
}

// ImageIDInput identifies one image.
type ImageIDInput struct {
	ID string `path:"id" doc:"Image id"`
}

// ImageOutput wraps a single image.
type ImageOutput struct {
	Body struct {
		Image *models.Image `json:"image"`
	}
}

// GetImage returns one image. Unshared images are only visible to the owner.
func (h *ImageHandler) GetImage(ctx context.Context, input *ImageIDInput) (*ImageOutput, error) {
	image, err := h.imageSvc.Get(ctx, input.ID, getUserID(ctx))
	if err != nil {
		if errors.Is(err, service.ErrImageNotFound) {
			return nil, huma.Error404NotFound("image not found")
		}
		h.logger.Error("failed to load image", "image_id", input.ID, "error", err)
		return nil, huma.Error500InternalServerError("failed to load image")
	}

	out := &ImageOutput{}
	out.Body.Image = image
	return out, nil
}

// DownloadImageOutput carries a fetchable URL for the image.
type DownloadImageOutput struct {
	Body struct {
		URL string `json:"url" doc:"Direct download URL; presigned and short-lived for mirrored images"`
	}
}

// Download returns a download URL for the image. Mirrored images resolve to
// a presigned bucket URL, others to the provider render URL.
func (h *ImageHandler) Download(ctx context.Context, input *ImageIDInput) (*DownloadImageOutput, error) {
	downloadURL, err := h.imageSvc.DownloadURL(ctx, input.ID, getUserID(ctx))
	if err != nil {
		if errors.Is(err, service.ErrImageNotFound) {
			return nil, huma.Error404NotFound("image not found")
		}
		h.logger.Error("failed to resolve download URL", "image_id", input.ID, "error", err)
		return nil, huma.Error500InternalServerError("failed to resolve download URL")
	}

	out := &DownloadImageOutput{}
	out.Body.URL = downloadURL
	return out, nil
}

// ShareImageInput toggles community sharing for an image.
type ShareImageInput struct {
	ID   string `path:"id" doc:"Image id"`
	Body struct {
		Shared bool `json:"shared" doc:"True to publish on the community feed"`
	}
}

// Share publishes or unpublishes the caller's image on the community feed.
func (h *ImageHandler) Share(ctx context.Context, input *ShareImageInput) (*MessageOutput, error) {
	if err := h.imageSvc.SetShared(ctx, input.ID, getUserID(ctx), input.Body.Shared); err != nil {
		switch {
		case errors.Is(err, service.ErrImageNotFound):
			return nil, huma.Error404NotFound("image not found")
		case errors.Is(err, service.ErrNotImageOwner):
			return nil, huma.Error403Forbidden("not your image")
		}
		h.logger.Error("failed to update sharing", "image_id", input.ID, "error", err)
		return nil, huma.Error500InternalServerError("failed to update sharing")
	}

	if input.Body.Shared {
		return message("image shared"), nil
	}
	return message("image unshared"), nil
}

// DeleteImage removes the caller's image and its mirrored copy.
func (h *ImageHandler) DeleteImage(ctx context.Context, input *ImageIDInput) (*MessageOutput, error) {
	if err := h.imageSvc.Delete(ctx, input.ID, getUserID(ctx)); err != nil {
		switch {
		case errors.Is(err, service.ErrImageNotFound):
			return nil, huma.Error404NotFound("image not found")
		case errors.Is(err, service.ErrNotImageOwner):
			return nil, huma.Error403Forbidden("not your image")
		}
		h.logger.Error("failed to delete image", "image_id", input.ID, "error", err)
		return nil, huma.Error500InternalServerError("failed to delete image")
	}
	return message("image deleted"), nil
}
