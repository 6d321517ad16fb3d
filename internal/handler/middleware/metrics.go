package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/andressep95/rbac-auth/pkg/metrics"
)

// Metrics records request counts and latency by route pattern. It must wrap
// RequestLogger so the status it reads is the one actually sent.
func Metrics(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		m.ObserveRequest(c.Method(), c.Route().Path, strconv.Itoa(c.Response().StatusCode()), time.Since(start).Seconds())
		return err
	}
}
