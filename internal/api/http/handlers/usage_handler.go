package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/channel-token-service/internal/api/dto"
	"github.com/spec-kit/channel-token-service/internal/service"
)

// UsageHandler serves usage telemetry reads.
type UsageHandler struct {
	usage *service.UsageService
}

// NewUsageHandler constructs handler.
func NewUsageHandler(usageService *service.UsageService) *UsageHandler {
	return &UsageHandler{usage: usageService}
}

// GetWindow handles GET /usage/:subject.
func (h *UsageHandler) GetWindow(c *fiber.Ctx) error {
	subject := c.Params("subject")

	records, err := h.usage.Window(c.Context(), subject, c.QueryInt("days", 0))
	if err != nil {
		return err
	}

	entries := make([]dto.UsageEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, dto.UsageEntry{
			Day:    rec.Day.Format("2006-01-02"),
			Tokens: rec.Tokens,
		})
	}

	return c.JSON(fiber.Map{"data": dto.UsageResponse{Subject: subject, Usage: entries}})
}
