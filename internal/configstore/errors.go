package configstore

import "errors"

// Errors returned by the store.
var (
	// ErrMalformedRecord indicates the backup record could not be decoded.
	ErrMalformedRecord = errors.New("malformed settings record")

	// ErrUnknownField indicates a record key that names no setting.
	ErrUnknownField = errors.New("unknown settings field")

	// ErrClosed indicates the store was used after Close.
	ErrClosed = errors.New("settings store is closed")
)
