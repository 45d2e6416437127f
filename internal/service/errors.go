package service

import "fmt"

// Kind classifies a service failure so the HTTP layer can pick a status
// code and a machine-checkable error code without matching on message
// strings.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindRateLimited  Kind = "rate_limited"
	KindStore        Kind = "store_error"
)

// Error carries a caller-safe message and a kind. The wrapped cause, if
// any, is for logs only and must never reach a client.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Invalid(msg string) error      { return &Error{Kind: KindValidation, Message: msg} }
func Unauthorized(msg string) error { return &Error{Kind: KindUnauthorized, Message: msg} }
func Forbidden(msg string) error    { return &Error{Kind: KindForbidden, Message: msg} }
func NotFound(msg string) error     { return &Error{Kind: KindNotFound, Message: msg} }
func Conflict(msg string) error     { return &Error{Kind: KindConflict, Message: msg} }
func RateLimited(msg string) error  { return &Error{Kind: KindRateLimited, Message: msg} }

// StoreError wraps a storage failure. Clients only ever see the generic
// message, the cause goes to the logs.
func StoreError(err error) error {
	return &Error{Kind: KindStore, Message: "something went wrong", Err: err}
}
