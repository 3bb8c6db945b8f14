package model

import "errors"

// Common errors used across the application
var (
	// Document errors
	ErrDocumentNotFound  = errors.New("document not found")
	ErrMalformedDocument = errors.New("malformed account document")

	// Account errors
	ErrNotPopulated  = errors.New("account was not loaded from the store")
	ErrExtraNotFound = errors.New("extra value not present")
	ErrExtraType     = errors.New("extra value has unexpected type")
	ErrReservedKey   = errors.New("key is reserved for a typed account field")

	// Role errors
	ErrInvalidRole = errors.New("invalid role")
)
