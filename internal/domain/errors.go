package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrGeneration        = errors.New("generation failed")
	ErrDownload          = errors.New("download failed")
	ErrStorage           = errors.New("storage failure")
	ErrPersistence       = errors.New("persistence failure")
	ErrOwnershipConflict = errors.New("ownership conflict")
)
