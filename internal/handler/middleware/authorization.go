package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// AccessRule requires one of Roles for every path under Prefix.
type AccessRule struct {
	Prefix string
	Roles  []string
}

// Authorize evaluates a static prefix table after AuthFilter. The first
// matching rule decides; unmatched paths are open to everyone.
func Authorize(rules ...AccessRule) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		for _, rule := range rules {
			if !matchesPrefix(path, rule.Prefix) {
				continue
			}

			principal := PrincipalFrom(c)
			for _, role := range rule.Roles {
				if principal.HasAuthority(role) {
					return c.Next()
				}
			}
			return reject(c, fiber.StatusForbidden, "Forbidden: insufficient permissions")
		}
		return c.Next()
	}
}

// matchesPrefix ignores case so a rule cannot be dodged by a router that
// matches routes case-insensitively.
func matchesPrefix(path, prefix string) bool {
	if len(path) < len(prefix) || !strings.EqualFold(path[:len(prefix)], prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}
