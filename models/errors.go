// ABOUTME: Sentinel errors for deal validation and lookup
// ABOUTME: Callers match them with errors.Is after wrapping
package models

import "errors"

var (
	ErrInvalidStage = errors.New("invalid stage")
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("deal not found")
)
