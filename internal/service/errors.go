package service

import (
	"errors"
	"fmt"

	"propertyapi/internal/asset"
)

var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("property not found")
	ErrPersistence = errors.New("persistence failed")
	ErrAssetStore  = asset.ErrAssetStore
)

// ValidationError names the offending field. It unwraps to ErrValidation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
