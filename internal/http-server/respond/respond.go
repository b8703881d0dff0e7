// Package respond holds the request decoding and error mapping shared by the
// HTTP handlers.
package respond

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"coach-schedule/pkg/response"
	"coach-schedule/pkg/sl"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Decode reads the JSON body into req and validates its tags. On failure the
// error response is already written and false is returned.
func Decode(w http.ResponseWriter, r *http.Request, log *slog.Logger, req any) bool {
	if err := render.DecodeJSON(r.Body, req); err != nil {
		log.Error("Failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
		return false
	}

	log.Debug("Request body decoded", slog.Any("request", req))

	return Validate(w, r, log, req)
}

// DecodeOptional is Decode for endpoints whose body may be left out.
func DecodeOptional(w http.ResponseWriter, r *http.Request, log *slog.Logger, req any) bool {
	if err := render.DecodeJSON(r.Body, req); err != nil && !errors.Is(err, io.EOF) {
		log.Error("Failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
		return false
	}

	return Validate(w, r, log, req)
}

func Validate(w http.ResponseWriter, r *http.Request, log *slog.Logger, req any) bool {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			log.Error("Invalid request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(verrs))
			return false
		}

		log.Error("Failed to validate request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "invalid request"))
		return false
	}

	return true
}

// Fail maps a service error onto a status code and error body. what names
// the failed action in the generic 500 message.
func Fail(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error, what string) {
	var fe *response.FieldError

	switch {
	case errors.Is(err, response.ErrToken):
		log.Warn("Rejected link", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(string(response.TOKEN_INVALID), response.TokenMessage))

	case errors.As(err, &fe):
		log.Warn("Validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Fields(fe))

	case errors.Is(err, response.ErrValidation):
		log.Warn("Validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(string(response.VALIDATION_FAILED), err.Error()))

	case errors.Is(err, response.ErrNotFound):
		log.Error("resource not found", sl.Err(err))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))

	case errors.Is(err, response.ErrLocked):
		log.Error("resource is locked", sl.Err(err))
		render.Status(r, http.StatusLocked)
		render.JSON(w, r, response.Error(string(response.LOCKED), "resource is locked"))

	case errors.Is(err, response.ErrConflict):
		log.Error("conflict", sl.Err(err))
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error(string(response.CONFLICT), "resource already exists"))

	case errors.Is(err, response.ErrForbidden):
		log.Error("forbidden", sl.Err(err))
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error(string(response.FORBIDDEN), "forbidden"))

	default:
		log.Error("Failed to "+what, sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to "+what))
	}
}

// Param writes a 400 and returns false when a required URL or query value is empty.
func Param(w http.ResponseWriter, r *http.Request, log *slog.Logger, name, value string) bool {
	if value != "" {
		return true
	}

	log.Error(name + " is empty")
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, response.Error(string(response.BAD_REQUEST), name+" is required"))

	return false
}
