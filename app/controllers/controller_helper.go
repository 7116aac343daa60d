package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/snegopad/snowpay/internal/pkg/env"
)

// requestFields flattens the notification parameters into one map.
// Providers deliver them as query string on GET and as urlencoded form
// on POST; some proxies mix both, so the body wins on key collision.
func requestFields(c *fiber.Ctx) map[string]string {
	fields := make(map[string]string)
	c.Request().URI().QueryArgs().VisitAll(func(k, v []byte) {
		fields[string(k)] = string(v)
	})
	c.Request().PostArgs().VisitAll(func(k, v []byte) {
		fields[string(k)] = string(v)
	})
	return fields
}

func boolEnv(key string) bool {
	return env.GetEnv(key, "0") == "1"
}
