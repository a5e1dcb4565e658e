package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/database"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/utils/auth"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/utils/response"
)

// Fiber locals keys written by the auth middleware
const (
	localUserID   = "user_id"
	localUserRole = "user_role"
	localClaims   = "claims"
	localUser     = "user"
)

// UserLoader loads the account behind a token
type UserLoader interface {
	FindUser(ctx context.Context, userID uint) (*model.User, error)
}

// RevocationChecker reports whether a token id was blacklisted
type RevocationChecker interface {
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// AuthMiddleware handles JWT authentication
type AuthMiddleware struct {
	jwtManager  *auth.JWTManager
	revocations RevocationChecker
	users       UserLoader
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtManager *auth.JWTManager, revocations RevocationChecker, users UserLoader) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager:  jwtManager,
		revocations: revocations,
		users:       users,
	}
}

// Required is middleware that requires a valid access token for a non-banned user
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ok, err := m.authenticate(c); !ok {
			return err
		}
		return c.Next()
	}
}

// RequireAdmin authenticates the request and requires the admin role
func (m *AuthMiddleware) RequireAdmin() fiber.Handler {
	return m.RequireRole(model.RoleAdmin)
}

// RequireRole authenticates the request and requires one of roles. The role is
// read from the stored account, not the token, so a demotion applies at once.
func (m *AuthMiddleware) RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ok, err := m.authenticate(c); !ok {
			return err
		}
		role, _ := GetUserRole(c)
		for _, r := range roles {
			if role == r {
				return c.Next()
			}
		}
		return response.Forbidden(c, "Insufficient permissions")
	}
}

// authenticate validates the bearer token and stores the user in locals. On
// failure it writes the error response and reports false.
func (m *AuthMiddleware) authenticate(c *fiber.Ctx) (bool, error) {
	tokenString, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
	if !ok {
		return false, response.Unauthorized(c, "Missing or invalid authorization token")
	}

	claims, err := m.jwtManager.ValidateOfType(tokenString, auth.TokenTypeAccess)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return false, response.Unauthorized(c, "Token has expired")
		}
		return false, response.Unauthorized(c, "Invalid token")
	}

	ctx := c.UserContext()
	if m.revocations != nil {
		revoked, err := m.revocations.IsTokenRevoked(ctx, claims.ID)
		if err != nil {
			return false, response.InternalServerError(c, "Failed to check token status")
		}
		if revoked {
			return false, response.Unauthorized(c, "Token has been revoked")
		}
	}

	user, err := m.users.FindUser(ctx, claims.UserID)
	if errors.Is(err, database.ErrNotFound) {
		return false, response.Unauthorized(c, "User not found")
	}
	if err != nil {
		return false, response.InternalServerError(c, "Failed to load user")
	}
	if user.TokenVersion != claims.TokenVersion {
		return false, response.Unauthorized(c, "Token has been invalidated")
	}
	if user.Banned {
		return false, response.Error(c, fiber.StatusForbidden, "Your account has been suspended", "USER_BANNED")
	}

	c.Locals(localUserID, user.ID)
	c.Locals(localUserRole, user.Role)
	c.Locals(localClaims, claims)
	c.Locals(localUser, user)
	return true, nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// GetUserID extracts user ID from context
func GetUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(localUserID).(uint)
	return id, ok
}

// GetUserRole extracts user role from context
func GetUserRole(c *fiber.Ctx) (string, bool) {
	role, ok := c.Locals(localUserRole).(string)
	return role, ok
}

// GetUser extracts full user object from context
func GetUser(c *fiber.Ctx) (*model.User, bool) {
	user, ok := c.Locals(localUser).(*model.User)
	return user, ok && user != nil
}

// GetClaims extracts full claims from context
func GetClaims(c *fiber.Ctx) (*auth.Claims, bool) {
	claims, ok := c.Locals(localClaims).(*auth.Claims)
	return claims, ok
}

// SetUser stores an authenticated user in locals. Used by tests and internal callers.
func SetUser(c *fiber.Ctx, user *model.User) {
	c.Locals(localUserID, user.ID)
	c.Locals(localUserRole, user.Role)
	c.Locals(localUser, user)
}
