package server

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/hupe1980/lyceum/core"
	"github.com/hupe1980/lyceum/logging"
)

// Response is the envelope of every API reply.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// SuccessResponse wraps data in a successful envelope.
func SuccessResponse(message string, data any) Response {
	return Response{Success: true, Message: message, Data: data}
}

// ErrorResponse wraps a failure message and optional details.
func ErrorResponse(message string, data any) Response {
	return Response{Success: false, Message: message, Data: data}
}

var validate = validator.New()

// ValidateRequest checks the validate tags of a request DTO.
func ValidateRequest(req any) error {
	return validate.Struct(req)
}

// detailedError attaches response data to an error.
type detailedError struct {
	err  error
	data any
}

func (e *detailedError) Error() string { return e.err.Error() }
func (e *detailedError) Unwrap() error { return e.err }

func withData(err error, data any) error {
	return &detailedError{err: err, data: data}
}

// StatusFor maps domain errors to HTTP status codes.
func StatusFor(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return fiber.StatusBadRequest
	}

	switch {
	case errors.Is(err, core.ErrForumNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, core.ErrUnknownPersona),
		errors.Is(err, core.ErrUnknownMode),
		errors.Is(err, core.ErrEmptyInput),
		errors.Is(err, core.ErrIndexOutOfRange),
		errors.Is(err, core.ErrInvalidReference),
		errors.Is(err, core.ErrPassageNotFound):
		return fiber.StatusBadRequest
	case errors.Is(err, core.ErrIngestion):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, core.ErrEmptyTranscript),
		errors.Is(err, core.ErrNoPending),
		errors.Is(err, core.ErrPendingExists):
		return fiber.StatusConflict
	case errors.Is(err, core.ErrConfiguration):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, core.ErrGeneration):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders every handler error as an envelope.
func ErrorHandler(logger logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := StatusFor(err)

		var data any
		var de *detailedError
		if errors.As(err, &de) {
			data = de.data
		}

		if status >= fiber.StatusInternalServerError {
			logger.Error("Request failed", "method", c.Method(), "path", c.Path(), "status", status, "error", err.Error())
		} else {
			logger.Debug("Request rejected", "method", c.Method(), "path", c.Path(), "status", status, "error", err.Error())
		}

		return c.Status(status).JSON(ErrorResponse(err.Error(), data))
	}
}
