package controllers

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/snegopad/snowpay/internal/pkg/metrics/counter"
	"github.com/snegopad/snowpay/internal/pkg/payments"
)

var errSigMismatch = errors.New("signature mismatch")

// HandleVKPaymentsCallback answers VK payment notifications. The
// provider retries deliveries, so everything past the signature gate
// must be idempotent; the dispatcher and ledger guarantee that.
func HandleVKPaymentsCallback(c *fiber.Ctx) error {
	fields := requestFields(c)
	if boolEnv("DEBUG_PAY_LOG") {
		log.Printf("vk pay request: method=%s type=%s order_id=%s status=%s",
			c.Method(), fields["notification_type"], fields["order_id"], fields["status"])
	}

	kind := fields["notification_type"]
	reference := fields["order_id"]
	if reference == "" {
		reference = fields["subscription_id"]
	}

	secret, err := payments.GetCredentials().VKSecret(fields["app_id"])
	if err != nil {
		log.Printf("vk pay: no secret configured (app_id=%q)", fields["app_id"])
		return c.Status(fiber.StatusInternalServerError).SendString("server error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if !payments.CheckVKPaymentsSig(fields, secret) {
		payments.GetEventRecorder().Record(ctx, payments.ProviderVK, kind, reference, false, fields, errSigMismatch)
		return c.Status(fiber.StatusForbidden).SendString("sig mismatch")
	}

	var envelope *payments.VKEnvelope
	if n, vkErr := payments.ParseVKNotification(fields); vkErr != nil {
		envelope = &payments.VKEnvelope{Error: vkErr}
	} else {
		envelope = payments.GetDispatcher().DispatchVK(ctx, n)
	}

	var procErr error
	if envelope.Error != nil {
		procErr = envelope.Error
	}
	payments.GetEventRecorder().Record(ctx, payments.ProviderVK, kind, reference, true, fields, procErr)
	if err := counter.AddNotification(payments.ProviderVK, kind); err != nil && boolEnv("DEBUG_PAY_LOG") {
		log.Printf("vk pay: counter increment failed: %v", err)
	}

	return c.Status(fiber.StatusOK).JSON(envelope)
}
