package learning

import "errors"

var (
	// ErrNotFound is returned when a (user, item) pair has no progress record.
	ErrNotFound = errors.New("progress not found")
	// ErrCollectionNotFound is returned for an unknown book id.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrInvalidArgument is returned for inputs rejected before any store access.
	ErrInvalidArgument = errors.New("invalid argument")
)
