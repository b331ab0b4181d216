package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrRoleRequired    = errors.New("role is required")
	ErrInvalidInput    = errors.New("invalid input")
	ErrViewClosed      = errors.New("view closed")
	ErrUnknownView     = errors.New("unknown view")
)

// RemoteError is a failure reported by the remote API with a non-2xx status.
// Message is the human-readable text from the error payload, possibly empty.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote api: status %d", e.Status)
	}
	return fmt.Sprintf("remote api: status %d: %s", e.Status, e.Message)
}

// RemoteMessage returns the remote API's message carried by err, if any.
func RemoteMessage(err error) string {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Message
	}
	return ""
}

// LoginError is a failed login. Message is what the user is shown.
type LoginError struct {
	Message string
	Err     error
}

func (e *LoginError) Error() string {
	if e.Err == nil {
		return "login failed: " + e.Message
	}
	return fmt.Sprintf("login failed: %s: %v", e.Message, e.Err)
}

func (e *LoginError) Unwrap() error { return e.Err }
