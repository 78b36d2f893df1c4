package service

import (
	"errors"
	"fmt"
)

var (
	ErrContactNotFound = errors.New("contact not found")
	ErrProfileNotFound = errors.New("profile not found")
)

// ValidationError reports a client-fixable problem with the request payload.
// Validation always runs before any transaction is opened.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// DuplicatePhoneError reports that a phone value is already taken within its
// uniqueness scope. The message names the offending value.
type DuplicatePhoneError struct {
	Phone string
}

func (e *DuplicatePhoneError) Error() string {
	return fmt.Sprintf("phone number already in use: %s", e.Phone)
}
