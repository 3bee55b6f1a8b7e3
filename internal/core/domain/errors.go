package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMissingToken       = errors.New("missing auth token")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNoSession          = errors.New("no active session")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("access forbidden")
)

// ErrorKind classifies a NotificationError.
type ErrorKind string

const (
	KindMissingToken ErrorKind = "missing_token"
	KindUnauthorized ErrorKind = "unauthorized"
	KindTransport    ErrorKind = "transport"
	KindStatus       ErrorKind = "status"
	KindDecode       ErrorKind = "decode"
)

// NotificationError is the typed failure returned by the notification and
// auth API layers. Status is the HTTP status code for KindStatus and
// KindUnauthorized, zero otherwise.
type NotificationError struct {
	Op     string
	Kind   ErrorKind
	Status int
	Err    error
}

func (e *NotificationError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d): %v", e.Op, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

// MissingToken builds the error returned when a call is attempted without
// a bearer token.
func MissingToken(op string) *NotificationError {
	return &NotificationError{Op: op, Kind: KindMissingToken, Err: ErrMissingToken}
}

// KindOf returns the kind of err when it wraps a NotificationError.
func KindOf(err error) (ErrorKind, bool) {
	var ne *NotificationError
	if errors.As(err, &ne) {
		return ne.Kind, true
	}
	return "", false
}
