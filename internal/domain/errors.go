// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a uniqueness or state conflict (duplicate domain, email, etc.).
var ErrConflict = errors.New("conflict")

// ErrValidation indicates invalid caller input. Wrapped messages are shown to the client.
var ErrValidation = errors.New("validation failed")

// ErrForbidden indicates the caller is authenticated but not permitted to act.
var ErrForbidden = errors.New("forbidden")

// ErrUnauthorized indicates missing or invalid credentials.
var ErrUnauthorized = errors.New("unauthorized")
