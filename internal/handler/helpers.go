package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/andressep95/rbac-auth/internal/domain"
	"github.com/andressep95/rbac-auth/internal/handler/middleware"
	"github.com/andressep95/rbac-auth/internal/service"
	"github.com/andressep95/rbac-auth/pkg/validator"
)

// respond writes the standard success envelope.
func respond(c *fiber.Ctx, status int, message string, payload interface{}) error {
	return c.Status(status).JSON(fiber.Map{
		"message":  message,
		"response": payload,
	})
}

// parseBody decodes and validates the request body into req.
func parseBody(c *fiber.Ctx, v *validator.Validator, req interface{}) error {
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	return v.Validate(req)
}

// actorID resolves the caller from the token AuthFilter accepted. Requests
// whose token was expired, superseded or absent carry no principal.
func actorID(c *fiber.Ctx, tokens *service.TokenService) (int64, error) {
	principal, err := authenticated(c)
	if err != nil {
		return 0, err
	}
	return tokens.GetUserID(principal.Token)
}

func authenticated(c *fiber.Ctx) (*domain.Principal, error) {
	principal := middleware.PrincipalFrom(c)
	if principal == nil {
		return nil, service.ErrInvalidHeader
	}
	return principal, nil
}

func pageRequest(c *fiber.Ctx) domain.PageRequest {
	return domain.NewPageRequest(c.QueryInt("offset", 0), c.QueryInt("limit", domain.DefaultPageLimit))
}

// queryList splits a comma separated query parameter, dropping blanks.
func queryList(c *fiber.Ctx, key string) []string {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func queryIDs(c *fiber.Ctx, key string) ([]int64, error) {
	var ids []int64
	for _, part := range queryList(c, key) {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid "+key)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func paramID(c *fiber.Ctx, key string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(key), 10, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid "+key)
	}
	return id, nil
}
