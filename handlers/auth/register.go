package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/services"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/utils/middleware"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/utils/response"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/utils/validation"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	auth                 *services.AuthService
	validator            *validation.Validator
	bruteForceProtection *middleware.BruteForceProtection
}

// NewAuthHandler creates a new auth handler. bruteForceProtection may be nil.
func NewAuthHandler(auth *services.AuthService, bruteForceProtection *middleware.BruteForceProtection) *AuthHandler {
	return &AuthHandler{
		auth:                 auth,
		validator:            validation.NewValidator(),
		bruteForceProtection: bruteForceProtection,
	}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req services.RegisterInput
	if err := h.parse(c, &req); err != nil {
		return err
	}

	session, err := h.auth.Register(c.UserContext(), req)
	if err != nil {
		return err
	}
	return response.Created(c, session)
}

// parse reads and validates the JSON body; failures are returned as fiber errors
func (h *AuthHandler) parse(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(out); err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, validation.Summary(err))
	}
	return nil
}
