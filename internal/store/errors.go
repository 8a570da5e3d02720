package store

import "errors"

// Sentinel errors for the categories callers must branch on (spec error
// kinds "not found" and "invalid input"); everything else is wrapped with
// fmt.Errorf and surfaced as a plain storage error.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)
