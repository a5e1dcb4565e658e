package admin

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/services"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/utils/middleware"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/utils/response"
)

// AdminHandler serves user moderation and the audit trail
type AdminHandler struct {
	admin *services.AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(admin *services.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// BanRequest sets or clears the ban flag
type BanRequest struct {
	Banned bool `json:"banned"`
}

// ListUsers handles GET /api/admin/users?search=&page=&limit=
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	page, limit := response.PageQuery(c)
	users, total, err := h.admin.ListUsers(c.UserContext(), c.Query("search"), page, limit)
	if err != nil {
		return err
	}
	return response.Paginated(c, users, response.CalculatePagination(page, limit, total))
}

// SetBanned handles PUT /api/admin/users/:id/ban
func (h *AdminHandler) SetBanned(c *fiber.Ctx) error {
	adminUser, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}
	userID, err := c.ParamsInt("id")
	if err != nil || userID <= 0 {
		return response.Error(c, fiber.StatusBadRequest, "Invalid user id", services.CodeInvalidInput)
	}
	var req BanRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, fiber.StatusBadRequest, "Invalid request body", services.CodeInvalidInput)
	}

	// fiber reuses its buffers after the handler returns; the entry outlives it
	entry := services.AuditEntry{
		AdminID:     adminUser.ID,
		ResourceID:  strconv.Itoa(userID),
		IPAddress:   c.IP(),
		UserAgent:   utils.CopyString(c.Get(fiber.HeaderUserAgent)),
		Description: c.Method() + " " + c.Path(),
		TraceID:     response.TraceID(c),
	}
	if err := h.admin.SetBanned(c.UserContext(), entry, uint(userID), req.Banned); err != nil {
		return err
	}

	message := "User unbanned"
	if req.Banned {
		message = "User banned"
	}
	return response.SuccessWithMessage(c, message, fiber.Map{"userId": userID, "banned": req.Banned})
}

// ListAuditLogs handles GET /api/admin/audit-logs
func (h *AdminHandler) ListAuditLogs(c *fiber.Ctx) error {
	page, limit := response.PageQuery(c)
	logs, total, err := h.admin.ListAuditLogs(c.UserContext(), page, limit)
	if err != nil {
		return err
	}
	return response.Paginated(c, logs, response.CalculatePagination(page, limit, total))
}
