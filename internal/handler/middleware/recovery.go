package middleware

import (
	"runtime/debug"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Recovery turns a panic into a 500 and logs the stack trace.
func Recovery(logger logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.WithFields(logrus.Fields{
					"panic":      r,
					"request_id": c.Locals(LocalsRequestID),
					"stack":      string(debug.Stack()),
				}).Error("recovered from panic")

				err = reject(c, fiber.StatusInternalServerError, "internal server error")
			}
		}()

		return c.Next()
	}
}
