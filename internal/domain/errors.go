package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing required field, malformed group code).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrPermissionDenied is returned by the repo layer when the database rejects
// a statement for lack of privileges. The wrapped message tells the operator
// how to fix it. Handlers should map this to HTTP 403.
var ErrPermissionDenied = errors.New("permission denied")

// ErrForbidden is returned when the caller is authenticated but the operation
// is reserved for someone else (e.g. deleting a group you did not create).
var ErrForbidden = errors.New("forbidden")

// ErrUnauthenticated is returned for missing sessions and bad credentials.
// Handlers should map this to HTTP 401.
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrConflict is returned when a unique constraint rejects a write.
// Handlers should map this to HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrMissingIndex is returned by ordered queries whose supporting index has
// not been created. Callers may fall back to an unordered read.
var ErrMissingIndex = errors.New("missing index")
