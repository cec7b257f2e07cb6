package wire

import "net/http"

// Code is the error taxonomy from the control-plane's error handling design:
// BAD_REQUEST, NOT_FOUND, NO_CAPACITY, INTERNAL. TRANSPORT errors never
// cross a process boundary as a CodedError, they're handled locally by
// whichever caller made the outbound call (client retries the next replica,
// heartbeat loop retries next tick).
type Code string

const (
	BadRequest Code = "BAD_REQUEST"
	NotFound   Code = "NOT_FOUND"
	NoCapacity Code = "NO_CAPACITY"
	Internal   Code = "INTERNAL"
)

// CodedError carries an error taxonomy code alongside a message, so HTTP
// handlers can map it to a status code in one place instead of scattering
// http.Error calls through handler bodies.
type CodedError struct {
	Code    Code
	Message string
}

func (e *CodedError) Error() string { return e.Message }

func NewBadRequest(msg string) *CodedError { return &CodedError{BadRequest, msg} }
func NewNotFound(msg string) *CodedError   { return &CodedError{NotFound, msg} }
func NewNoCapacity(msg string) *CodedError { return &CodedError{NoCapacity, msg} }
func NewInternal(msg string) *CodedError   { return &CodedError{Internal, msg} }

// HTTPStatus maps a taxonomy code to the documented HTTP status.
func (c Code) HTTPStatus() int {
	switch c {
	case BadRequest:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case NoCapacity:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// AsCoded unwraps err into a *CodedError, defaulting to INTERNAL with an
// opaque message when err isn't already coded, per the error handling
// design's "unexpected exception → HTTP 500 with an opaque message" rule.
func AsCoded(err error) *CodedError {
	if ce, ok := err.(*CodedError); ok {
		return ce
	}
	return &CodedError{Internal, "internal error"}
}
