package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/utils/middleware"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/utils/response"
)

// GetProfile handles GET /api/auth/profile; purchased courses and the
// subscription slot are included
func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	user, err := h.auth.Profile(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return response.Success(c, user)
}
