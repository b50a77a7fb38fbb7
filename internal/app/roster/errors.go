package roster

import (
	"fmt"

	"github.com/lilrhino/dojopal-api/internal/domain"
	"github.com/lilrhino/dojopal-api/internal/validation"
)

// Error is an application-layer error that can be mapped to an HTTP response.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

// StoreError reports a failed document store call. The cause is passed through untouched.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func validationError(fields validation.FieldErrors) *Error {
	return &Error{
		Status:  422,
		Code:    "VALIDATION_ERROR",
		Message: "invalid request",
		Details: fields.Details(),
	}
}

func accountNotFound(id domain.AccountID) *Error {
	return &Error{
		Status:  404,
		Code:    "ACCOUNT_NOT_FOUND",
		Message: "account not found",
		Details: map[string]any{"accountId": string(id)},
	}
}

func studentNotFound(sel Selector) *Error {
	return &Error{
		Status:  404,
		Code:    "STUDENT_NOT_FOUND",
		Message: "student not found",
		Details: sel.details(),
	}
}

func studentAmbiguous(sel Selector, matches int) *Error {
	d := sel.details()
	d["matches"] = matches
	return &Error{
		Status:  409,
		Code:    "STUDENT_KEY_AMBIGUOUS",
		Message: "more than one student matches; resolve the duplicate records first",
		Details: d,
	}
}
