package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the forecast pipeline. Components wrap them with
// context; callers match with errors.Is.
var (
	ErrNotFound        = errors.New("history file not found")
	ErrSchema          = errors.New("invalid history schema")
	ErrFit             = errors.New("cannot fit model")
	ErrInvalidHorizon  = errors.New("invalid forecast horizon")
	ErrUnknownScenario = errors.New("unknown scenario")
	ErrInvalidLevel    = errors.New("invalid current level")
	ErrNotInitialized  = errors.New("forecast model not initialized")
)

// ValidateHorizon returns ErrInvalidHorizon unless months is positive.
func ValidateHorizon(months int) error {
	if months <= 0 {
		return fmt.Errorf("%w: %d months, must be a positive integer", ErrInvalidHorizon, months)
	}
	return nil
}
