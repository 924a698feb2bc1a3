package apierr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/yungbote/studynotes-backend/internal/domain"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

const (
	CodeValidation   = "validation_error"
	CodeNotFound     = "not_found"
	CodeInFlight     = "generation_in_flight"
	CodeGeneration   = "generation_error"
	CodeStorage      = "storage_error"
	CodeInvalidInput = "invalid_input"
	CodeInternal     = "internal_error"
)

// FromDomain classifies a domain error into an HTTP status and code. The message
// carried by the result is the user-facing one.
func FromDomain(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	switch {
	case errors.Is(err, domain.ErrLessonNotFound):
		return New(http.StatusNotFound, CodeNotFound, err)
	case errors.Is(err, domain.ErrGenerationInFlight):
		return New(http.StatusConflict, CodeInFlight, err)
	case domain.IsValidation(err):
		return New(http.StatusBadRequest, CodeValidation, err)
	case domain.IsGeneration(err):
		return New(http.StatusBadGateway, CodeGeneration, errors.New(domain.UserMessage(err)))
	case domain.IsStorage(err):
		return New(http.StatusInternalServerError, CodeStorage, err)
	default:
		return New(http.StatusInternalServerError, CodeInternal, err)
	}
}
