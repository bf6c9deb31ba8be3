package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/danielgtaylor/huma/v2"

	"github.com/visionaihq/visionai-api/internal/models"
	"github.com/visionaihq/visionai-api/internal/service"
)

// CommunityHandler handles the shared feed: likes, comments and follows.
type CommunityHandler struct {
	communitySvc *service.CommunityService
	logger       *slog.Logger
}

// NewCommunityHandler creates a new community handler.
func NewCommunityHandler(communitySvc *service.CommunityService, logger *slog.Logger) *CommunityHandler {
	return &CommunityHandler{communitySvc: communitySvc, logger: logger}
}

// FeedInput selects a page of the community feed.
type FeedInput struct {
	Sort   string `query:"sort" enum:"recent,popular" required:"false" doc:"Feed ordering (default recent)"`
	Limit  int    `query:"limit" minimum:"1" maximum:"100" required:"false" doc:"Page size (default 20)"`
	Offset int    `query:"offset" minimum:"0" required:"false" doc:"Page offset"`
}

// FeedOutput is a page of shared images.
type FeedOutput struct {
	Body struct {
		Images []*models.Image `json:"images"`
	}
}

// Feed returns shared images ordered by recency or popularity.
func (h *CommunityHandler) Feed(ctx context.Context, input *FeedInput) (*FeedOutput, error) {
	images, err := h.communitySvc.Feed(ctx, models.FeedSort(input.Sort), input.Limit, input.Offset)
	if err != nil {
		h.logger.Error("failed to load feed", "error", err)
		return nil, huma.Error500InternalServerError("failed to load feed")
	}

	out := &FeedOutput{}
	out.Body.Images = images
	return out, nil
}

// LikeOutput reports the resulting like count.
type LikeOutput struct {
	Body struct {
		LikesCount int64 `json:"likes_count"`
	}
}

// Like records a like on a shared image. Liking twice is a no-op.
func (h *CommunityHandler) Like(ctx context.Context, input *ImageIDInput) (*LikeOutput, error) {
	count, err := h.communitySvc.Like(ctx, input.ID, getUserID(ctx))
	if err != nil {
		if errors.Is(err, service.ErrImageNotFound) {
			return nil, huma.Error404NotFound("image not found")
		}
		h.logger.Error("failed to like image", "image_id", input.ID, "error", err)
		return nil, huma.Error500InternalServerError("failed to like image")
	}

	out := &LikeOutput{}
	out.Body.LikesCount = count
	return out, nil
}

// Unlike removes a like.
func (h *CommunityHandler) Unlike(ctx context.Context, input *ImageIDInput) (*LikeOutput, error) {
	count, err := h.communitySvc.Unlike(ctx, input.ID, getUserID(ctx))
	if err != nil {
		if errors.Is(err, service.ErrImageNotFound) {
			return nil, huma.Error404NotFound("image not found")
		}
		h.logger.Error("failed to unlike image", "image_id", input.ID, "error", err)
		return nil, huma.Error500InternalServerError("failed to unlike image")
	}

	out := &LikeOutput{}
	out.Body.LikesCount = count
	return out, nil
}

// CreateCommentInput is the request for commenting on a shared image.
type CreateCommentInput struct {
	ID   string `path:"id" doc:"Image id"`
	Body struct {
		Body string `json:"body" minLength:"1" maxLength:"1000" doc:"Comment text"`
	}
}

// CommentOutput wraps a single comment.
type CommentOutput struct {
	Body struct {
		Comment *models.Comment `json:"comment"`
	}
}

// CreateComment adds a comment to a shared image.
func (h *CommunityHandler) CreateComment(ctx context.Context, input *CreateCommentInput) (*CommentOutput, error) {
	comment, err := h.communitySvc.Comment(ctx, input.ID, getUserID(ctx), input.Body.Body)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrImageNotFound):
			return nil, huma.Error404NotFound("image not found")
		case errors.Is(err, service.ErrEmptyComment):
			return nil, huma.Error400BadRequest("comment body is empty")
		}
		h.logger.Error("failed to create comment", "image_id", input.ID, "error", err)
		return nil, huma.Error500InternalServerError("failed to create comment")
	}

	out := &CommentOutput{}
	out.Body.Comment = comment
	return out, nil
}

// ListCommentsInput selects a page of comments on an image.
type ListCommentsInput struct {
	ID     string `path:"id" doc:"Image id"`
	Limit  int    `query:"limit" minimum:"1" maximum:"100" required:"false" doc:"Page size (default 20)"`
	Offset int    `query:"offset" minimum:"0" required:"false" doc:"Page offset"`
}

// ListCommentsOutput is a page of comments, newest first.
type ListCommentsOutput struct {
	Body struct {
		Comments []*models.Comment `json:"comments"`
	}
}

// ListComments returns comments on a shared image.
func (h *CommunityHandler) ListComments(ctx context.Context, input *ListCommentsInput) (*ListCommentsOutput, error) {
	comments, err := h.communitySvc.Comments(ctx, input.ID, input.Limit, input.Offset)
	if err != nil {
		if errors.Is(err, service.ErrImageNotFound) {
			return nil, huma.Error404NotFound("image not found")
		}
		h.logger.Error("failed to load comments", "image_id", input.ID, "error", err)
		return nil, huma.Error500InternalServerError("failed to load comments")
	}

	out := &ListCommentsOutput{}
	out.Body.Comments = comments
	return out, nil
}

// CommentIDInput identifies one comment.
type CommentIDInput struct {
	ID string `path:"id" doc:"Comment id"`
}

// DeleteComment removes the caller's own comment.
func (h *CommunityHandler) DeleteComment(ctx context.Context, input *CommentIDInput) (*MessageOutput, error) {
	if err := h.communitySvc.DeleteComment(ctx, input.ID, getUserID(ctx)); err != nil {
		if errors.Is(err, service.ErrCommentNotFound) {
			return nil, huma.Error404NotFound("comment not found")
		}
		h.logger.Error("failed to delete comment", "comment_id", input.ID, "error", err)
		return nil, huma.Error500InternalServerError("failed to delete comment")
	}
	return message("comment deleted"), nil
}

// UserIDInput identifies another user.
type UserIDInput struct {
	ID string `path:"id" doc:"User id"`
}

// Follow subscribes the caller to another user's shared images.
func (h *CommunityHandler) Follow(ctx context.Context, input *UserIDInput) (*MessageOutput, error) {
	if err := h.communitySvc.Follow(ctx, getUserID(ctx), input.ID); err != nil {
		switch {
		case errors.Is(err, service.ErrSelfFollow):
			return nil, huma.Error400BadRequest("cannot follow yourself")
		case errors.Is(err, service.ErrUserNotFound):
			return nil, huma.Error404NotFound("user not found")
		}
		h.logger.Error("failed to follow user", "followee_id", input.ID, "error", err)
		return nil, huma.Error500InternalServerError("failed to follow user")
	}
	return message("following"), nil
}

// Unfollow removes a follow edge. Unfollowing a user never followed is a no-op.
func (h *CommunityHandler) Unfollow(ctx context.Context, input *UserIDInput) (*MessageOutput, error) {
	if err := h.communitySvc.Unfollow(ctx, getUserID(ctx), input.ID); err != nil {
		h.logger.Error("failed to unfollow user", "followee_id", input.ID, "error", err)
		return nil, huma.Error500InternalServerError("failed to unfollow user")
	}
	return message("unfollowed"), nil
}
