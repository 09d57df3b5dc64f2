package apperrors

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation failed")
	ErrConflict         = errors.New("conflict")
	ErrInvalidProvider  = errors.New("invalid provider")
	ErrProviderArchived = errors.New("provider is archived")
	ErrSelfPartnership  = errors.New("a provider cannot partner with itself")
)
