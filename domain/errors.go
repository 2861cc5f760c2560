package domain

import "errors"

// Error classes shared by the auth, storage and api packages. Callers wrap
// them with context using fmt.Errorf("%w: ...") and classify with errors.Is.
var (
	// ErrValidation marks malformed or missing input.
	ErrValidation = errors.New("validation error")
	// ErrConflict marks a duplicate unique field, such as a registered email.
	ErrConflict = errors.New("conflict")
	// ErrInvalidCredentials is returned for both unknown emails and wrong
	// passwords so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated marks a missing, malformed, forged or expired token.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrNotFound marks a missing resource, or one owned by someone else.
	ErrNotFound = errors.New("not found")
	// ErrStorage marks a persistence failure. Its wrapped text is internal.
	ErrStorage = errors.New("storage error")
)
