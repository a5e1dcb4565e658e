package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/utils/trace"
)

// maxTraceIDLength bounds client supplied ids
const maxTraceIDLength = 64

// TraceID assigns every request a trace id taken from X-Trace-Id or generated,
// stores it in locals and the request context, and echoes it in the response.
func TraceID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Get(trace.Header))
		if id == "" || len(id) > maxTraceIDLength || !printable(id) {
			id = trace.NewID()
		}

		c.Locals(trace.LocalsKey, id)
		c.SetUserContext(trace.WithID(c.UserContext(), id))
		c.Set(trace.Header, id)
		return c.Next()
	}
}

func printable(s string) bool {
	for _, r := range s {
		if r < 0x21 || r > 0x7e {
			return false
		}
	}
	return true
}
