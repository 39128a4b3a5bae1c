package core

import "errors"

var (
	// Expected, user-facing outcomes. None of them is a fault.
	ErrInvalidURL       = errors.New("invalid url")
	ErrInvalidCode      = errors.New("invalid code")
	ErrRateLimited      = errors.New("rate limited")
	ErrSpamDetected     = errors.New("spam detected")
	ErrCodeTaken        = errors.New("code already taken")
	ErrAllocationFailed = errors.New("unable to allocate a unique code")
	ErrNotFound         = errors.New("not found")
)

// validationError carries a user-facing message while still matching its
// sentinel through errors.Is.
type validationError struct {
	kind error
	msg  string
}

func (e *validationError) Error() string { return e.msg }
func (e *validationError) Unwrap() error { return e.kind }

func invalidURL(msg string) error  { return &validationError{kind: ErrInvalidURL, msg: msg} }
func invalidCode(msg string) error { return &validationError{kind: ErrInvalidCode, msg: msg} }

// IsNotFound reports whether err is a not-found condition.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsValidation reports whether err is a rejected URL or custom code.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidURL) || errors.Is(err, ErrInvalidCode)
}

// IsConflict reports whether err means no code could be assigned.
func IsConflict(err error) bool {
	return errors.Is(err, ErrCodeTaken) || errors.Is(err, ErrAllocationFailed)
}

// IsThrottled reports whether err is a rate-limit or spam denial.
func IsThrottled(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrSpamDetected)
}
