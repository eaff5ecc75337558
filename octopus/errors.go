package octopus

import "github.com/pkg/errors"

var (
	// ErrMissingField is returned when a payload lacks a required field.
	ErrMissingField = errors.New("missing required field")
	// ErrInvalidField is returned when a payload field is present but cannot be decoded.
	ErrInvalidField = errors.New("invalid field")
)
