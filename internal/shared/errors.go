package shared

import "errors"

// Sentinel errors classifying expected, caller-recoverable failures.
// Services wrap these with fmt.Errorf("module: detail: %w", ...) so the
// boundary layer can map them to transport status codes with errors.Is.
var (
	// ErrNotFound indicates the referenced resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness conflict such as a duplicate pending request.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidState indicates a transition attempted from a terminal or wrong state.
	ErrInvalidState = errors.New("invalid state")
	// ErrPermissionDenied indicates the actor may not perform the action.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrInvalidInput indicates the payload failed domain validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrAccountInactive indicates the acting account has been deactivated.
	ErrAccountInactive = errors.New("account inactive")
	// ErrUnauthenticated indicates a missing or unverifiable credential.
	ErrUnauthenticated = errors.New("unauthenticated")
)
