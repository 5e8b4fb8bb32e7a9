package auth

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrEmailSend          = errors.New("failed to send email")
)

// ValidationError carries a field name to message mapping for bad input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %d field(s)", len(e.Fields))
}

// RateLimitError reports how long the caller must wait, in seconds.
type RateLimitError struct {
	RetryAfter int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("too many attempts, retry in %d seconds", e.RetryAfter)
}

// LockedError distinguishes a timed lockout (Until set, clears by waiting)
// from a counter-only lock (Until nil, clears only via password reset or
// email verification).
type LockedError struct {
	Until *time.Time
}

func (e *LockedError) Error() string {
	if e.Until != nil {
		minutes := int(time.Until(*e.Until).Minutes())
		if minutes < 1 {
			minutes = 1
		}
		return fmt.Sprintf("Account temporarily locked. Try again in %d minutes.", minutes)
	}
	return "Account locked due to too many failed attempts. Please reset your password."
}
