package apperrors

import (
	"context"
	"errors"
	"net/http"
)

// Kind classifies where a failure originated.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindBackend    Kind = "backend"
	KindTransport  Kind = "transport"
)

// TransportMessage is shown when the inventory backend could not be reached at all.
const TransportMessage = "failed to reach server"

// Error is the single normalized failure shape returned by the batch gateway. Message is
// always safe to display to an operator as-is.
type Error struct {
	Kind    Kind
	Message string
	// Status holds the backend HTTP status for not_found and backend errors.
	Status int
	Err    error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

// Validation reports input rejected locally, before any request was sent.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// NotFound reports a 404 from the backend.
func NotFound(msg string) *Error {
	if msg == "" {
		msg = "stock batch not found"
	}
	return &Error{Kind: KindNotFound, Message: msg, Status: http.StatusNotFound}
}

// Backend reports any other 4xx/5xx answer. msg should be the message the backend put in its body.
func Backend(status int, msg string) *Error {
	if msg == "" {
		msg = http.StatusText(status)
		if msg == "" {
			msg = "request failed"
		}
		msg = "request failed: " + msg
	}
	return &Error{Kind: KindBackend, Message: msg, Status: status}
}

// Transport reports a request that never produced an HTTP response.
func Transport(err error) *Error {
	return &Error{Kind: KindTransport, Message: TransportMessage, Err: err}
}

// KindOf returns the kind of err, or "" when err is not normalized.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

func IsValidation(err error) bool { return KindOf(err) == KindValidation }
func IsNotFound(err error) bool   { return KindOf(err) == KindNotFound }
func IsBackend(err error) bool    { return KindOf(err) == KindBackend }
func IsTransport(err error) bool  { return KindOf(err) == KindTransport }

// Normalize leaves normalized errors untouched and treats anything else as a transport failure.
func Normalize(err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != "" {
		return err
	}
	return Transport(err)
}

// Message extracts the display message of err.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// HTTPStatus maps err to the status the dashboard-facing API answers with.
func HTTPStatus(err error) int {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}

	switch appErr.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindBackend:
		if appErr.Status >= http.StatusBadRequest {
			return appErr.Status
		}
		return http.StatusBadGateway
	case KindTransport:
		if errors.Is(appErr.Err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
