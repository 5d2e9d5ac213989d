package domain

import "errors"

var (
	// ErrNotFound is returned when a document id or hash is unknown.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicate is returned when a document hash is already registered.
	ErrDuplicate = errors.New("document hash already registered")
)
