package subscription

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/model"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/services"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/utils/response"
)

// PlanHandler serves the subscription plan templates
type PlanHandler struct {
	catalog *services.CatalogService
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(catalog *services.CatalogService) *PlanHandler {
	return &PlanHandler{catalog: catalog}
}

// PlanRequest is the writable part of a plan
type PlanRequest struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	OldPrice int64    `json:"old_price"`
	NewPrice int64    `json:"new_price"`
	Duration int      `json:"duration"`
	Features []string `json:"features"`
}

func (r PlanRequest) toModel() *model.SubscriptionPlan {
	features := r.Features
	if features == nil {
		features = []string{}
	}
	return &model.SubscriptionPlan{
		Name:     r.Name,
		Type:     r.Type,
		OldPrice: r.OldPrice,
		NewPrice: r.NewPrice,
		Duration: r.Duration,
		Features: features,
	}
}

// ListPlans handles GET /api/subscriptions, cheapest first
func (h *PlanHandler) ListPlans(c *fiber.Ctx) error {
	plans, err := h.catalog.ListPlans(c.UserContext())
	if err != nil {
		return err
	}
	return response.Success(c, plans)
}

// GetPlan handles GET /api/subscriptions/:id
func (h *PlanHandler) GetPlan(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.Error(c, fiber.StatusBadRequest, "Invalid subscription id", services.CodeInvalidInput)
	}

	plan, err := h.catalog.GetPlan(c.UserContext(), uint(id))
	if err != nil {
		return err
	}
	return response.Success(c, plan)
}

// CreatePlan handles POST /api/subscriptions
func (h *PlanHandler) CreatePlan(c *fiber.Ctx) error {
	var req PlanRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	plan := req.toModel()
	if err := h.catalog.CreatePlan(c.UserContext(), plan); err != nil {
		return err
	}
	return response.Created(c, plan)
}

// UpdatePlan handles PUT /api/subscriptions/:id
func (h *PlanHandler) UpdatePlan(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.Error(c, fiber.StatusBadRequest, "Invalid subscription id", services.CodeInvalidInput)
	}
	var req PlanRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	plan := req.toModel()
	if err := h.catalog.UpdatePlan(c.UserContext(), uint(id), plan); err != nil {
		return err
	}
	return response.SuccessWithMessage(c, "Subscription plan updated", plan)
}

// DeletePlan handles DELETE /api/subscriptions/:id. Active subscriptions keep running.
func (h *PlanHandler) DeletePlan(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.Error(c, fiber.StatusBadRequest, "Invalid subscription id", services.CodeInvalidInput)
	}

	if err := h.catalog.DeletePlan(c.UserContext(), uint(id)); err != nil {
		return err
	}
	return response.SuccessWithMessage(c, "Subscription plan deleted", nil)
}
