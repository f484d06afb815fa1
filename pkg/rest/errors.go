package rest

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrPrecanceled is the failure of a request canceled before dispatch.
	ErrPrecanceled = errors.New("precanceled")

	// ErrCanceled is the failure of a request canceled while in flight.
	ErrCanceled = errors.New("canceled")

	// ErrTimeout is the failure of a request that got no response within the
	// configured bound.
	ErrTimeout = errors.New("timeout")

	// ErrLoad is the failure of a transfer the transport could not complete.
	ErrLoad = errors.New("loaderror")

	// ErrMimeUnknown is returned when no converter is registered for a media
	// type and the negotiation is not permissive.
	ErrMimeUnknown = errors.New("mime-unknown")

	// ErrMimeSerialization is returned when a converter fails writing a
	// request entity.
	ErrMimeSerialization = errors.New("mime-serialization")

	// ErrMimeDeserialization is returned when a converter fails reading a
	// response entity.
	ErrMimeDeserialization = errors.New("mime-deserialization")

	// ErrHypermediaExpected is returned when following a relationship of an
	// entity that carries no links.
	ErrHypermediaExpected = errors.New("Hypermedia response expected")

	// ErrUnknownRelationship is returned when following a relationship the
	// entity does not advertise.
	ErrUnknownRelationship = errors.New("Unknown relationship")

	// ErrHandlerPanic wraps a panic raised by an interceptor handler.
	ErrHandlerPanic = errors.New("rest: interceptor handler panicked")

	// ErrAborted is the failure of an abort signal that fired without a value.
	ErrAborted = errors.New("aborted")

	// ErrTooManyRedirects is returned when a redirect chain exceeds its bound.
	ErrTooManyRedirects = errors.New("too many redirects")
)

// StatusError is the failure of a response whose status code is considered
// an error.
type StatusError struct {
	// Response is the response that caused this error. It is always non-nil.
	*Response
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	code := strings.ReplaceAll(strings.ToLower(http.StatusText(e.Status.Code)), " ", "_")
	if code == "" {
		code = "unknown_status"
	}
	return fmt.Sprintf("%d %s", e.Status.Code, code)
}

func unknownRelationship(rel string) error {
	return fmt.Errorf("%w: %s", ErrUnknownRelationship, rel)
}
