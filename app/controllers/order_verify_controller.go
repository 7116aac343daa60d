package controllers

import (
	"context"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/snegopad/snowpay/internal/pkg/cache"
	"github.com/snegopad/snowpay/internal/pkg/payments"
)

type orderVerifyRequest struct {
	AppOrderID string            `json:"app_order_id" validate:"required"`
	ItemID     string            `json:"item_id"`
	VKParams   map[string]string `json:"vk_params"`
}

var verifyValidate = validator.New()

const verifyCacheTTL = 24 * time.Hour

// HandleOrderVerify re-checks a client purchase claim before the reward
// is unlocked. The widget's optimistic unlock on the raw SDK event is
// cosmetic; this endpoint is the decision that counts. Upstream
// failures deny the reward, the client may retry.
func HandleOrderVerify(c *fiber.Ctx) error {
	var req orderVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": "no_order"})
	}
	if err := verifyValidate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": "no_order"})
	}

	verifier := payments.GetVerifier()
	signOK, err := verifier.CheckSign(req.VKParams)
	if err != nil {
		log.Printf("orders/verify: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": "server"})
	}
	if !signOK {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"ok": false, "error": "bad_sign"})
	}

	// Once an order has been verified charged it stays charged; retried
	// client calls skip the upstream API. The asserted item is part of
	// the key: a grant for one item never answers for another.
	cacheKey := "verify:" + req.AppOrderID + ":" + req.ItemID
	if v, cerr := cache.Get(cacheKey); cerr == nil && v == "granted" {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	res, err := verifier.VerifyOrder(ctx, req.AppOrderID, req.ItemID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"ok": false, "error": "server"})
	}

	switch res.Status {
	case payments.VerifyGranted:
		if cerr := cache.Set(cacheKey, "granted", verifyCacheTTL); cerr != nil {
			log.Printf("orders/verify: cache store failed for %q: %v", req.AppOrderID, cerr)
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
	case payments.VerifyNotFound:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"ok": false, "error": "not_found"})
	default:
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"ok": false, "error": "not_charged", "o": res.Order})
	}
}
