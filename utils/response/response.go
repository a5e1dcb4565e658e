package response

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/utils/trace"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// Response is the envelope every JSON endpoint replies with
type Response struct {
	Success bool         `json:"success"`
	Code    string       `json:"code,omitempty"`
	Message string       `json:"message,omitempty"`
	Data    interface{}  `json:"data,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
	TraceID string       `json:"traceId,omitempty"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type PaginationMeta struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"total_pages"`
}

// PaginatedResponse always carries data, even when the page is empty
type PaginatedResponse struct {
	Success    bool           `json:"success"`
	Message    string         `json:"message,omitempty"`
	Data       interface{}    `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
	TraceID    string         `json:"traceId,omitempty"`
}

// TraceID returns the trace id assigned to the request, if any
func TraceID(c *fiber.Ctx) string {
	id, _ := c.Locals(trace.LocalsKey).(string)
	return id
}

func ok(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
		TraceID: TraceID(c),
	})
}

func Success(c *fiber.Ctx, data interface{}) error {
	return ok(c, fiber.StatusOK, "", data)
}

func SuccessWithMessage(c *fiber.Ctx, message string, data interface{}) error {
	return ok(c, fiber.StatusOK, message, data)
}

func Created(c *fiber.Ctx, data interface{}) error {
	return ok(c, fiber.StatusCreated, "Resource created successfully", data)
}

// Error writes a failure envelope. code is repeated inside error{} for
// clients that only read the nested object.
func Error(c *fiber.Ctx, statusCode int, message string, code string) error {
	return ErrorWithDetails(c, statusCode, message, code, "")
}

func ErrorWithDetails(c *fiber.Ctx, statusCode int, message string, code string, details string) error {
	return c.Status(statusCode).JSON(Response{
		Code:    code,
		Message: message,
		Error:   &ErrorDetail{Code: code, Message: message, Details: details},
		TraceID: TraceID(c),
	})
}

func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message, "BAD_REQUEST")
}

func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnauthorized, orDefault(message, "Unauthorized access"), "UNAUTHORIZED")
}

func Forbidden(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusForbidden, orDefault(message, "Access forbidden"), "FORBIDDEN")
}

func TooManyRequests(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusTooManyRequests, orDefault(message, "Too many requests"), "TOO_MANY_REQUESTS")
}

func InternalServerError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, orDefault(message, "Internal server error"), "INTERNAL_ERROR")
}

func orDefault(message, fallback string) string {
	if message == "" {
		return fallback
	}
	return message
}

func Paginated(c *fiber.Ctx, data interface{}, pagination PaginationMeta) error {
	return c.Status(fiber.StatusOK).JSON(PaginatedResponse{
		Success:    true,
		Data:       data,
		Pagination: pagination,
		TraceID:    TraceID(c),
	})
}

func CalculatePagination(page, limit int, total int64) PaginationMeta {
	page, limit = NormalizePage(page, limit)
	return PaginationMeta{
		CurrentPage: page,
		PerPage:     limit,
		Total:       total,
		TotalPages:  int((total + int64(limit) - 1) / int64(limit)),
	}
}

// NormalizePage clamps page to >= 1 and limit to 1..100
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case limit < 1:
		limit = defaultLimit
	case limit > maxLimit:
		limit = maxLimit
	}
	return page, limit
}

// PageQuery reads ?page and ?limit
func PageQuery(c *fiber.Ctx) (int, int) {
	return NormalizePage(c.QueryInt("page", 1), c.QueryInt("limit", defaultLimit))
}
