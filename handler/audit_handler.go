package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"checkout/internal/infra/audit"
)

type ExchangeReader interface {
	ExchangesForOrder(ctx context.Context, orderID string, limit int) ([]*audit.Exchange, error)
}

type ExchangeView struct {
	RequestID  string `json:"request_id"`
	Operation  string `json:"operation"`
	Method     string `json:"method"`
	Path       string `json:"path"`
	StatusCode int    `json:"status_code"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
	At         string `json:"at"`
}

// AuditHandler lists the gateway exchanges recorded for an order.
type AuditHandler struct {
	repo ExchangeReader
}

func NewAuditHandler(repo ExchangeReader) *AuditHandler {
	return &AuditHandler{repo: repo}
}

func (h *AuditHandler) Exchanges(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 500 {
		limit = 50
	}

	exchanges, err := h.repo.ExchangesForOrder(c.UserContext(), c.Params("orderId"), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(errorBody("Exchange Lookup", err.Error()))
	}

	out := make([]ExchangeView, 0, len(exchanges))
	for _, x := range exchanges {
		out = append(out, ExchangeView{
			RequestID:  x.RequestID,
			Operation:  x.Operation,
			Method:     x.Method,
			Path:       x.Path,
			StatusCode: x.StatusCode,
			DurationMs: x.DurationMs,
			Error:      x.Error,
			At:         x.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		})
	}
	return c.JSON(out)
}
