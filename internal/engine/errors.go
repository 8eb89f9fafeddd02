package engine

import "errors"

var (
	// ErrInvalidCategory rejects a creation request whose category is
	// not one of the enumerated values.
	ErrInvalidCategory = errors.New("invalid alert category")
	// ErrInvalidPriorityFilter rejects a retrieval call with an unknown
	// priority filter value.
	ErrInvalidPriorityFilter = errors.New("invalid priority filter")
)
