// Package chaterr defines the error kinds shared by the chat core.
// Callers classify failures with errors.Is against ErrValidation, ErrNotFound
// and ErrPersistence; the concrete errors below wrap one of those kinds.
package chaterr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("not found")
	ErrPersistence = errors.New("persistence failed")
)

var (
	ErrInvalidRoomType = kind(ErrValidation, "invalid chat room type")
	ErrRoomNotFound    = kind(ErrNotFound, "chat room not found")
	ErrNotParticipant  = kind(ErrValidation, "user is not a participant of this chat")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func kind(k error, msg string) error {
	return &kindError{kind: k, msg: msg}
}

// Validation builds a ValidationError with a formatted message.
func Validation(format string, args ...any) error {
	return kind(ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound builds a NotFoundError with a formatted message.
func NotFound(format string, args ...any) error {
	return kind(ErrNotFound, fmt.Sprintf(format, args...))
}

// Persistence marks err as a store failure of operation op.
// Errors that already carry a kind (e.g. ErrRoomNotFound) are returned as is.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) || errors.Is(err, ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
