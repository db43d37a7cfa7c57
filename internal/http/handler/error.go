package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"otikaapi/internal/apperr"
	"otikaapi/internal/http/middleware"
	"otikaapi/internal/logging"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	Detail    string             `json:"detail"`
	Code      string             `json:"code"`
	RequestID string             `json:"request_id"`
	Errors    []apperr.Violation `json:"errors,omitempty"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response.
func writeError(c *fiber.Ctx, status int, code, detail string, violations []apperr.Violation) error {
	return c.Status(status).JSON(errorPayload{
		Detail:    detail,
		Code:      code,
		RequestID: requestIDFromCtx(c),
		Errors:    violations,
	})
}

// writeAppError maps err to its kind-specific status. Anything other than a
// validation failure is logged with the request id.
func writeAppError(c *fiber.Ctx, log *logging.Logger, err error) error {
	kind := apperr.KindOf(err)
	if kind != apperr.KindValidation {
		log.Error("request_failed", err, map[string]any{
			"request_id": requestIDFromCtx(c),
			"method":     c.Method(),
			"path":       c.Path(),
			"code":       string(kind),
		})
	}
	return writeError(c, apperr.HTTPStatus(kind), string(kind), err.Error(), apperr.ViolationsOf(err))
}

// ErrorHandler returns a Fiber global error handler that standardizes error
// responses for unmatched routes, middleware errors and recovered panics.
func ErrorHandler(log *logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return writeAppError(c, log, err)
		}

		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request", nil)
		case fiber.StatusNotFound:
			return writeError(c, status, string(apperr.KindNotFound), "resource not found", nil)
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed", nil)
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "request body too large", nil)
		case fiber.StatusInternalServerError:
			return writeAppError(c, log, apperr.Wrap(apperr.KindInternal, err))
		default:
			return writeError(c, status, "REQUEST_ERROR", fe.Message, nil)
		}
	}
}
