package storage

import "errors"

var (
	// ErrNotFound should be returned if the file was not found.
	ErrNotFound = errors.New("Not found")

	// ErrUnknownPayload is returned if an expected payload is returned by the store.
	ErrUnknownPayload = errors.New("Unknown payload")
)
