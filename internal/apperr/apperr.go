// Package apperr defines the failure taxonomy shared by every service.
// Handlers map codes to HTTP statuses in one place; services never emit
// transport-specific errors.
package apperr

import (
	"errors"
	"fmt"
)

const (
	CodeUnauthenticated   = "UNAUTHENTICATED"
	CodeUserNotFound      = "USER_NOT_FOUND"
	CodeNotFound          = "NOT_FOUND"
	CodeForbidden         = "FORBIDDEN"
	CodeValidation        = "VALIDATION_ERROR"
	CodeAlreadyMember     = "ALREADY_MEMBER"
	CodeCannotRemoveAdmin = "CANNOT_REMOVE_ADMIN"
	CodeInvalidState      = "INVALID_STATE"
)

// Error is a typed failure with a stable code.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Is makes errors.Is match on the code, so sentinel-style comparisons
// work across wrapped instances.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

func Unauthenticated() *Error {
	return &Error{Code: CodeUnauthenticated, Message: "no verified caller identity"}
}

func UserNotFound() *Error {
	return &Error{Code: CodeUserNotFound, Message: "no user record for this identity yet"}
}

func NotFound(what string) *Error {
	return &Error{Code: CodeNotFound, Message: what + " not found"}
}

func Forbidden(msg string) *Error {
	return &Error{Code: CodeForbidden, Message: msg}
}

func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

func AlreadyMember() *Error {
	return &Error{Code: CodeAlreadyMember, Message: "user is already a member of this group"}
}

func CannotRemoveAdmin() *Error {
	return &Error{Code: CodeCannotRemoveAdmin, Message: "the group admin cannot be removed"}
}

func InvalidState(msg string) *Error {
	return &Error{Code: CodeInvalidState, Message: msg}
}

// CodeOf extracts the taxonomy code from err, or "" for untyped errors.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
