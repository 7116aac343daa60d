package controllers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/snegopad/snowpay/internal/pkg/metrics/counter"
	"github.com/snegopad/snowpay/internal/pkg/payments"
)

const okKindPayment = "payment"

// HandleOKCallback answers OK (Odnoklassniki) callbacks.payment
// requests. OK retries up to three times on a non-200 or malformed
// response; a successful charge is confirmed with the JSON literal
// `true`, failures carry the numeric code in the Invocation-error
// header as the docs require.
func HandleOKCallback(c *fiber.Ctx) error {
	if boolEnv("OK_ENFORCE_GET") && c.Method() != fiber.MethodGet {
		return okError(c, &payments.OKError{
			Status: fiber.StatusMethodNotAllowed,
			Code:   payments.OKErrSignature,
			Msg:    "Only GET is allowed by OK docs",
		})
	}

	fields := requestFields(c)
	if boolEnv("DEBUG_OK_LOG") {
		log.Printf("ok pay request: method=%s transaction_id=%s product_code=%s",
			c.Method(), fields["transaction_id"], fields["product_code"])
	}

	secret, err := payments.GetCredentials().OKSecret()
	if err != nil {
		log.Print("ok pay: secret key is not configured")
		return okError(c, &payments.OKError{
			Status: fiber.StatusInternalServerError,
			Code:   payments.OKErrService,
			Msg:    "SERVICE : OK secret missing",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if !payments.CheckOKSig(fields, secret) {
		payments.GetEventRecorder().Record(ctx, payments.ProviderOK, okKindPayment, fields["transaction_id"], false, fields, errSigMismatch)
		return okError(c, &payments.OKError{
			Status: fiber.StatusForbidden,
			Code:   payments.OKErrSignature,
			Msg:    "PARAM_SIGNATURE : Invalid signature",
		})
	}

	if okErr := payments.GetDispatcher().DispatchOK(ctx, payments.ParseOKNotification(fields)); okErr != nil {
		payments.GetEventRecorder().Record(ctx, payments.ProviderOK, okKindPayment, fields["transaction_id"], true, fields, okErr)
		return okError(c, okErr)
	}

	payments.GetEventRecorder().Record(ctx, payments.ProviderOK, okKindPayment, fields["transaction_id"], true, fields, nil)
	if err := counter.AddNotification(payments.ProviderOK, okKindPayment); err != nil && boolEnv("DEBUG_OK_LOG") {
		log.Printf("ok pay: counter increment failed: %v", err)
	}

	return c.Status(fiber.StatusOK).JSON(true)
}

func okError(c *fiber.Ctx, e *payments.OKError) error {
	c.Set("Invocation-error", strconv.Itoa(e.Code))
	return c.Status(e.Status).JSON(e.Envelope())
}
