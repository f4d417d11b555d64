package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	ErrSubjectRequired = errors.New("subject id is required")
	ErrContextRequired = errors.New("context id is required")
	ErrJobNotFound     = errors.New("job not found")
)
