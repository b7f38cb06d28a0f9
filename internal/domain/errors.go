package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrValidation        = errors.New("invalid forecast submission")
	ErrQuestionClosed    = errors.New("question is closed to forecasts")
	ErrAlreadyResolved   = errors.New("question already resolved")
	ErrInvalidResolution = errors.New("resolution does not match question shape")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrRateLimited       = errors.New("rate limited")
)
