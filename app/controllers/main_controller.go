package controllers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/snegopad/snowpay/internal/pkg/metrics/counter"
)

// HandleHealth is the liveness probe.
func HandleHealth(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}

// HandleAdLog receives ad/analytics events from the widget. The payload
// is free-form; it is logged for auditing and dropped.
func HandleAdLog(c *fiber.Ctx) error {
	log.Printf("ad event: %s", c.Body())
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleStats exposes the per-provider notification counters.
func HandleStats(c *fiber.Ctx) error {
	snapshot, err := counter.Snapshot()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "counters_unavailable"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"notifications": snapshot})
}
