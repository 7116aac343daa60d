package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/snegopad/snowpay/internal/pkg/cache"
	"github.com/snegopad/snowpay/internal/pkg/database"
	"github.com/snegopad/snowpay/internal/pkg/env"
	"github.com/snegopad/snowpay/internal/pkg/payments"
	"github.com/snegopad/snowpay/internal/pkg/router"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "8080")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	if env.GetEnv("LEDGER_BACKEND", "file") == "mysql" {
		database.SetupDatabase()
	}
	cache.SetupCache()
	payments.Setup()

	app := fiber.New(fiber.Config{
		AppName: "snowpay",
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// ROUTER
	router.InstallRouter(app)

	return app
}
