package services

import "errors"

var (
	ErrProjectNotFound      = errors.New("project not found")
	ErrProfileNotFound      = errors.New("profile not found")
	ErrNotOwner             = errors.New("only the owner can change this project")
	ErrInvalidProject       = errors.New("invalid project")
	ErrConfirmationRequired = errors.New("deletion was not confirmed")
	ErrScreenshotLimit      = errors.New("screenshot limit reached")
	ErrScreenshotIndex      = errors.New("screenshot index out of range")
	ErrInvalidSort          = errors.New("invalid sort mode")
	ErrInvalidRating        = errors.New("rating must be between 1 and 5")
	ErrEmptyComment         = errors.New("comment is required")
	ErrSelfReview           = errors.New("owners cannot review their own project")
	ErrDuplicateReview      = errors.New("project already reviewed by this user")
	ErrInvalidColor         = errors.New("color is not in the palette")
)
