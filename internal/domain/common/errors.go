package common

import "errors"

// Sentinel errors shared by services and repositories. Callers wrap them with
// context and the HTTP layer maps them onto status codes with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
	ErrConflict     = errors.New("already exists")
	ErrUnauthorized = errors.New("unauthorized")
)
