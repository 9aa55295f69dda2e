package handler

import (
	"github.com/gofiber/fiber/v2"

	"checkout/internal/circuitbreaker"
	"checkout/internal/infra/health"
)

type BreakerReporter interface {
	BreakerState() circuitbreaker.State
}

type HealthResponse struct {
	Status  string                   `json:"status"`
	Gateway string                   `json:"gateway"`
	Checks  map[string]health.Health `json:"checks"`
}

type HealthHandler struct {
	breaker BreakerReporter
	checker *health.Checker
}

func NewHealthHandler(breaker BreakerReporter, checker *health.Checker) *HealthHandler {
	return &HealthHandler{breaker: breaker, checker: checker}
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	checks, ok := h.checker.Check(c.UserContext())
	state := h.breaker.BreakerState()

	resp := HealthResponse{Status: "ok", Gateway: state.String(), Checks: checks}
	if !ok || state == circuitbreaker.StateOpen {
		resp.Status = "degraded"
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}
