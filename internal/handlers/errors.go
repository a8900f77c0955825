package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/mvibe/marketplace/internal/services"
	"github.com/mvibe/marketplace/internal/storage"
	"github.com/mvibe/marketplace/pkg/logger"
	"github.com/mvibe/marketplace/pkg/response"
)

// User-facing failure messages. Mutations do not tell the cause apart
// beyond what the client can act on.
const (
	MsgSaveFailed      = "Failed to save app"
	MsgDeleteFailed    = "Failed to delete app"
	MsgReviewFailed    = "Failed to submit review. You might have already reviewed this app."
	MsgColorFailed     = "Failed to update color"
	MsgUploadFailed    = "Failed to upload image"
	MsgSignInToReview  = "Please sign in to leave a review."
	MsgScreenshotLimit = "You can only add up to 3 screenshots."
	MsgConfirmDelete   = "Are you sure you want to delete this app? Repeat the request with confirm=true."
)

var errUploadTooLarge = errors.New("upload too large")

// respondError maps service errors to HTTP responses. Anything unexpected is
// logged and answered with the generic fallback message.
func respondError(c *gin.Context, err error, fallback string) {
	var appErr *response.AppError
	switch {
	case errors.As(err, &appErr):
	case errors.Is(err, services.ErrProjectNotFound):
		appErr = response.NewNotFound("project not found")
	case errors.Is(err, services.ErrProfileNotFound):
		appErr = response.NewNotFound("profile not found")
	case errors.Is(err, services.ErrNotOwner):
		appErr = response.NewForbidden("only the owner can change this app")
	case errors.Is(err, services.ErrSelfReview):
		appErr = response.NewForbidden("You cannot review your own app.")
	case errors.Is(err, services.ErrDuplicateReview):
		appErr = response.NewConflict(fallback)
	case errors.Is(err, services.ErrConfirmationRequired):
		appErr = response.NewPreconditionRequired(MsgConfirmDelete)
	case errors.Is(err, services.ErrScreenshotLimit):
		appErr = response.NewBadRequest(MsgScreenshotLimit)
	case errors.Is(err, services.ErrInvalidProject),
		errors.Is(err, services.ErrScreenshotIndex),
		errors.Is(err, services.ErrInvalidSort),
		errors.Is(err, services.ErrInvalidRating),
		errors.Is(err, services.ErrEmptyComment),
		errors.Is(err, services.ErrInvalidColor),
		errors.Is(err, storage.ErrNotImage),
		errors.Is(err, storage.ErrInvalidKey):
		appErr = response.NewBadRequest(err.Error())
	case errors.Is(err, errUploadTooLarge):
		appErr = response.NewTooLarge("image is too large")
	default:
		logger.FromGin(c).Error().Err(err).Str("path", c.FullPath()).Msg(fallback)
		appErr = response.NewServerError(fallback)
	}
	response.Error(c, appErr)
}
