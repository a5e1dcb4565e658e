package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mdmeraj-dev/skillnestx.com-sub001/database"
)

const probeTimeout = 2 * time.Second

// Pinger is satisfied by the Redis cache
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports database and cache reachability
type HealthHandler struct {
	store database.Storage
	cache Pinger
}

// NewHealthHandler creates a health handler. cache may be nil when Redis is not configured.
func NewHealthHandler(store database.Storage, cache Pinger) *HealthHandler {
	return &HealthHandler{store: store, cache: cache}
}

// Check handles GET /health
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	checks := fiber.Map{"database": "ok", "redis": "disabled"}
	healthy := true

	ctx, cancel := context.WithTimeout(c.UserContext(), probeTimeout)
	defer cancel()

	if err := h.store.HealthCheck(ctx); err != nil {
		checks["database"] = err.Error()
		healthy = false
	}
	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			checks["redis"] = err.Error()
			healthy = false
		} else {
			checks["redis"] = "ok"
		}
	}

	status, code := "ok", fiber.StatusOK
	if !healthy {
		status, code = "degraded", fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status": status,
		"checks": checks,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
