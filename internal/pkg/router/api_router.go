package router

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/redis"

	"github.com/snegopad/snowpay/app/controllers"
	"github.com/snegopad/snowpay/internal/pkg/env"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api")

	// Provider callbacks are deliberately unthrottled: a rate-limited
	// retry would look like a failed delivery to the provider.
	api.All("/payments/callback", controllers.HandleVKPaymentsCallback)
	api.All("/ok/callback", controllers.HandleOKCallback)

	api.Get("/stats", controllers.HandleStats)

	// The client-facing verification path is throttled; the limiter
	// state lives in Redis so replicas share one budget.
	orders := api.Group("/orders", limiter.New(limiter.Config{
		Max:     30,
		Storage: newLimiterStorage(),
	}))
	orders.Post("/verify", controllers.HandleOrderVerify)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

func newLimiterStorage() *redis.Storage {
	port, err := strconv.Atoi(env.GetEnv("CACHE_PORT", "6379"))
	if err != nil {
		port = 6379
	}
	return redis.New(redis.Config{
		Host:     env.GetEnv("CACHE_HOST", "localhost"),
		Port:     port,
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		Database: 1, // limiter state lives apart from the cache DB
		Reset:    false,
	})
}
