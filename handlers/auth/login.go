package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/services"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/utils/response"
)

// LoginRequest represents a user login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := h.parse(c, &req); err != nil {
		return err
	}

	ctx := c.UserContext()
	session, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		if h.bruteForceProtection != nil && services.ErrorCodeOf(err) == services.CodeInvalidCredentials {
			h.bruteForceProtection.RecordFailedAttempt(ctx, c.IP())
		}
		return err
	}

	if h.bruteForceProtection != nil {
		h.bruteForceProtection.RecordSuccessfulAttempt(ctx, c.IP())
	}
	return response.Success(c, session)
}
