package domain

import "errors"

var (
	// ErrInvalidPolygon is returned for fewer than 3 vertices, out-of-range
	// coordinates, or an all-colinear vertex list.
	ErrInvalidPolygon = errors.New("invalid polygon")

	// ErrMissingAttributes is returned when name or fee is absent at commit.
	ErrMissingAttributes = errors.New("missing attributes")

	// ErrPersistenceFailure wraps a rejected store write, delete or read.
	ErrPersistenceFailure = errors.New("persistence failure")

	// ErrMalformedDocument is returned when a stored document cannot be normalised.
	ErrMalformedDocument = errors.New("malformed document")

	ErrInvalidWindow     = errors.New("invalid geo window")
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrInvalidState      = errors.New("invalid drawing state")
	ErrOutOfWindow       = errors.New("vertex outside capture window")
	ErrZoneNotFound      = errors.New("zone not found")
	ErrSessionNotFound   = errors.New("drawing session not found")
)
