package response

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// CodedError is implemented by domain errors that carry a stable code and HTTP status
type CodedError interface {
	error
	ErrorCode() string
	HTTPStatus() int
	PublicMessage() string
}

// FromError writes err using the shared error shape. Coded errors keep their code
// and status; anything else becomes INTERNAL_ERROR. The underlying error text is
// only sent when exposeDetails is set.
func FromError(c *fiber.Ctx, err error, exposeDetails bool) error {
	var coded CodedError
	if errors.As(err, &coded) {
		details := ""
		if exposeDetails && coded.Error() != coded.PublicMessage() {
			details = coded.Error()
		}
		status := coded.HTTPStatus()
		message := coded.PublicMessage()
		if status >= fiber.StatusInternalServerError && !exposeDetails {
			message = genericMessage(coded.ErrorCode())
		}
		return ErrorWithDetails(c, status, message, coded.ErrorCode(), details)
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return Error(c, fe.Code, fe.Message, codeForStatus(fe.Code))
	}

	details := ""
	if exposeDetails {
		details = err.Error()
	}
	return ErrorWithDetails(c, fiber.StatusInternalServerError, "Internal server error", "INTERNAL_ERROR", details)
}

// ErrorHandler is installed as the fiber app error handler so handlers can return
// domain errors directly.
func ErrorHandler(logger *slog.Logger, exposeDetails bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var coded CodedError
		if !errors.As(err, &coded) || coded.HTTPStatus() >= fiber.StatusInternalServerError {
			logger.ErrorContext(c.UserContext(), "request failed",
				"method", c.Method(),
				"path", c.Path(),
				"error", err,
			)
		}
		return FromError(c, err, exposeDetails)
	}
}

func genericMessage(code string) string {
	switch code {
	case "ORDER_CREATION_FAILED":
		return "Unable to create payment order. Please try again later"
	case "ORDER_VALIDATION_FAILED":
		return "Unable to validate payment order. Please try again later"
	case "PAYMENT_VERIFICATION_FAILED":
		return "Payment verification failed. Please contact support"
	case "REFUND_FAILED":
		return "Refund could not be initiated. Please try again later"
	default:
		return "Internal server error"
	}
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	case fiber.StatusUnauthorized:
		return "UNAUTHORIZED"
	case fiber.StatusForbidden:
		return "FORBIDDEN"
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusConflict:
		return "CONFLICT"
	case fiber.StatusUnprocessableEntity:
		return "VALIDATION_ERROR"
	case fiber.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case fiber.StatusTooManyRequests:
		return "TOO_MANY_REQUESTS"
	case fiber.StatusServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	default:
		if status >= fiber.StatusInternalServerError {
			return "INTERNAL_ERROR"
		}
		return "ERROR"
	}
}
