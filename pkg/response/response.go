package response

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Response struct {
	ResponseError `json:"error,omitzero"`
}

type ResponseError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Error Codes
type ErrCode string

var (
	FAILED_REQUEST    ErrCode = "REQUEST_FAILED"
	BAD_REQUEST       ErrCode = "FAILED_TO_DECODE"
	VALIDATION_FAILED ErrCode = "VALIDATION_FAILED"
	NOT_FOUND         ErrCode = "NOT_FOUND"
	LOCKED            ErrCode = "LOCKED"
	CONFLICT          ErrCode = "CONFLICT"
	TOKEN_INVALID     ErrCode = "TOKEN_INVALID"
	UNAUTHORIZED      ErrCode = "UNAUTHORIZED"
	FORBIDDEN         ErrCode = "FORBIDDEN"
	TOO_MANY_REQUESTS ErrCode = "TOO_MANY_REQUESTS"
)

var (
	ErrBadRequest = errors.New("bad request")
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("resource not found")
	ErrLocked     = errors.New("resource is locked")
	ErrConflict   = errors.New("conflict")
	ErrToken      = errors.New("invalid or expired link")
	ErrForbidden  = errors.New("forbidden")
)

// TokenMessage is the only text shown for any failed link, whatever the cause.
const TokenMessage = "This link is invalid or has expired. Please contact the administrator."

// FieldError collects per-field rejection reasons. It matches ErrValidation.
type FieldError struct {
	Fields map[string]string
}

func NewFieldError(field, reason string) *FieldError {
	return &FieldError{Fields: map[string]string{field: reason}}
}

func (e *FieldError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}

	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *FieldError) Unwrap() error {
	return ErrValidation
}

func Error(code, msg string) Response {
	return Response{
		ResponseError: ResponseError{
			Code:    code,
			Message: msg,
		},
	}
}

func Fields(err *FieldError) Response {
	return Response{
		ResponseError: ResponseError{
			Code:    string(VALIDATION_FAILED),
			Message: err.Error(),
			Fields:  err.Fields,
		},
	}
}

func ValidationError(errs validator.ValidationErrors) Response {
	var errMsg []string
	fields := make(map[string]string, len(errs))

	for _, err := range errs {
		var msg string
		switch err.ActualTag() {
		case "required":
			msg = fmt.Sprintf("Field '%s' is required", err.Field())
		case "min":
			msg = fmt.Sprintf("Field '%s' must be at least %s", err.Field(), err.Param())
		case "max":
			msg = fmt.Sprintf("Field '%s' must be at most %s", err.Field(), err.Param())
		case "oneof":
			msg = fmt.Sprintf("Field '%s' must be one of [%s]", err.Field(), err.Param())
		case "datetime":
			msg = fmt.Sprintf("Field '%s' must match layout %s", err.Field(), err.Param())
		default:
			msg = fmt.Sprintf("Field '%s' is invalid", err.Field())
		}
		errMsg = append(errMsg, msg)
		fields[err.Field()] = msg
	}

	return Response{
		ResponseError: ResponseError{
			Code:    string(VALIDATION_FAILED),
			Message: strings.Join(errMsg, ", "),
			Fields:  fields,
		},
	}
}
