package mealplan

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownOriginalRef = errors.New("substitution original is not part of the selection grid")
	ErrEmptyGrid          = errors.New("selection grid has no assigned recipes")
	ErrNoSlots            = errors.New("selection grid defines no meal slots")
	ErrInvalidTimezone    = errors.New("invalid timezone id")
	ErrInvalidDays        = errors.New("plan must cover at least one day")
)

// UnknownRefError names the substitution original missing from the grid
type UnknownRefError struct {
	Ref RecipeRef
}

func (e *UnknownRefError) Error() string {
	return fmt.Sprintf("%v: %s", ErrUnknownOriginalRef, e.Ref)
}

func (e *UnknownRefError) Unwrap() error {
	return ErrUnknownOriginalRef
}
