package router

import (
	"os"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/snegopad/snowpay/app/controllers"
	"github.com/snegopad/snowpay/internal/pkg/env"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	app.Get("/health", controllers.HandleHealth)
	app.Post("/log", controllers.HandleAdLog)

	// The widget's static bundle, when deployed alongside the backend.
	publicDir := env.GetEnv("PUBLIC_DIR", "./public")
	if _, err := os.Stat(publicDir); err == nil {
		app.Static("/", publicDir, fiber.Static{
			CacheDuration: 15 * time.Second,
			Compress:      true,
			MaxAge:        3600,
		})
	}
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
