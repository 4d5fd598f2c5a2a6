package application

import "errors"

var (
	ErrPostNotFound       = errors.New("post not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingCover       = errors.New("cover image is required")
	ErrInvalidImage       = errors.New("invalid image")
	ErrInvalidFilename    = errors.New("invalid image filename")
)
