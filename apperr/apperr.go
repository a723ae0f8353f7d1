// Package apperr defines the error taxonomy shared by cropwatch packages.
//
// Error taxonomy
//
//	ErrInvalidInputType – an uploaded file is not an image. Reported as a Notice,
//	                      the file is skipped and the rest of the batch continues.
//	ErrOutOfRangeScore  – a score outside [0,100]. Classifiers clamp instead of
//	                      failing; Validate exposes the strict variant.
//	ErrAnalysisFailed   – the analysis provider could not produce a result. The
//	                      target record is left untouched.
//	ErrNotFound         – no record with the requested id.
//
// Everything else is a plain Go error wrapped with fmt.Errorf("context: %w", err).
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidInputType = errors.New("file is not an image")
	ErrOutOfRangeScore  = errors.New("score out of range")
	ErrAnalysisFailed   = errors.New("analysis generation failed")
	ErrNotFound         = errors.New("not found")
	ErrDuplicateID      = errors.New("duplicate id")
	ErrTooLarge         = errors.New("file too large")
	ErrInvalidArgument  = errors.New("invalid argument")
)

// Notice is a non-fatal, per-item failure that is reported back to the caller
// instead of aborting the surrounding operation.
type Notice struct {
	Index   int    `json:"index"` // position of the item in its batch
	Subject string `json:"file"`
	Message string `json:"error"`
	err     error
}

func (n *Notice) Error() string { return fmt.Sprintf("%s: %s", n.Subject, n.Message) }

func (n *Notice) Unwrap() error { return n.err }

// NewNotice builds a Notice for subject from err.
func NewNotice(subject string, err error) *Notice {
	return &Notice{Subject: subject, Message: err.Error(), err: err}
}

// Invalidf wraps ErrInvalidArgument with a formatted message.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// HTTPStatus maps an error to the status code the API answers with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInputType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrDuplicateID):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, ErrOutOfRangeScore):
		return http.StatusBadRequest
	case errors.Is(err, ErrAnalysisFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
