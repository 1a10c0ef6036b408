// Package apperr carries the error taxonomy shared by the helpdesk engines.
// Engines return these for every expected failure; only genuine store faults
// travel as plain errors. The HTTP boundary maps kinds to status codes.
package apperr

import "errors"

type Kind int

const (
	KindValidation Kind = iota + 1
	KindForbidden
	KindNotFound
	KindConflict
)

type Error struct {
	Kind Kind
	Code string
}

func (e *Error) Error() string { return e.Code }

func Validation(code string) *Error { return &Error{Kind: KindValidation, Code: code} }
func Forbidden(code string) *Error  { return &Error{Kind: KindForbidden, Code: code} }
func NotFound(code string) *Error   { return &Error{Kind: KindNotFound, Code: code} }
func Conflict(code string) *Error   { return &Error{Kind: KindConflict, Code: code} }

// KindOf reports the kind of err, or 0 if err is not an *Error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return 0
}

// CodeOf reports the code of err, or "" if err is not an *Error.
func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}
