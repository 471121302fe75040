package club

import "errors"

var (
	// ErrValidation marks input rejected before any mutation.
	ErrValidation = errors.New("validation failed")
	// ErrRoundInProgress is returned when a new round is requested while
	// matches of the current round are still unscored.
	ErrRoundInProgress = errors.New("round in progress: score all pending matches first")
	// ErrNotFound is returned when a student or match is absent from the batch.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyScored is returned when a result is recorded twice.
	ErrAlreadyScored = errors.New("match already scored")
)
