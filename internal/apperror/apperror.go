package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation     Kind = "validation"
	KindNotFound       Kind = "not_found"
	KindUnknownCrop    Kind = "unknown_crop"
	KindUpstream       Kind = "upstream"
	KindMissingFeature Kind = "missing_feature"
	KindForbidden      Kind = "forbidden"
	KindInternal       Kind = "internal"
)

// Application error codes returned in the "code" field of error responses.
const (
	CodeRatioSum            = 1001
	CodeBadRequest          = 400
	CodeForbidden           = 403
	CodeNotFound            = 404
	CodeInternal            = 500
	CodeUpstreamUnavailable = 502
	CodeMissingFeature      = 5001
)

// Error is the typed error every service returns across the HTTP boundary.
type Error struct {
	Kind    Kind
	Code    int
	Status  int
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

// Is matches on Kind so callers can write errors.Is(err, apperror.ErrUpstream).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

// Sentinels for errors.Is checks.
var (
	ErrValidation     = &Error{Kind: KindValidation}
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrUnknownCrop    = &Error{Kind: KindUnknownCrop}
	ErrUpstream       = &Error{Kind: KindUpstream}
	ErrMissingFeature = &Error{Kind: KindMissingFeature}
	ErrForbidden      = &Error{Kind: KindForbidden}
)

func Validation(code int, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Status: http.StatusBadRequest, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, Status: http.StatusNotFound, Message: message}
}

func UnknownCrop(cropName string) *Error {
	return &Error{
		Kind:    KindUnknownCrop,
		Code:    CodeNotFound,
		Status:  http.StatusNotFound,
		Message: fmt.Sprintf("Data for %s could not be found.", cropName),
	}
}

// Upstream reports an external service that answered but had nothing usable:
// a non-success status or an empty payload.
func Upstream(message string, err error) *Error {
	return &Error{Kind: KindUpstream, Code: CodeNotFound, Status: http.StatusNotFound, Message: message, Err: err}
}

// UpstreamUnavailable reports an external service that could not be reached
// or did not answer before the timeout.
func UpstreamUnavailable(message string, err error) *Error {
	return &Error{Kind: KindUpstream, Code: CodeUpstreamUnavailable, Status: http.StatusBadGateway, Message: message, Err: err}
}

func MissingFeature(message string) *Error {
	return &Error{Kind: KindMissingFeature, Code: CodeMissingFeature, Status: http.StatusInternalServerError, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Code: CodeForbidden, Status: http.StatusForbidden, Message: message}
}

func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternal, Status: http.StatusInternalServerError, Message: message, Err: err}
}

// From returns err as an *Error, classifying anything untyped as internal.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred.", err)
}
