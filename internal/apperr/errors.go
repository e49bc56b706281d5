// Package apperr holds the sentinel errors shared across packages.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidDate   = errors.New("invalid date")
	ErrMalformedJSON = errors.New("malformed json")
	ErrNotObject     = errors.New("root is not an object")
)
