// Package handlers defines HTTP-layer error codes used across the read API.
//
// Codes are lowercase snake_case and stable; clients can branch on them
// instead of parsing messages.
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeNotReady         = "not_ready"
)
