package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/andressep95/rbac-auth/internal/repository"
	"github.com/andressep95/rbac-auth/internal/service"
	"github.com/andressep95/rbac-auth/pkg/jwt"
	"github.com/andressep95/rbac-auth/pkg/validator"
)

// NewErrorHandler maps service and codec errors to status codes. Anything it
// does not recognise becomes a 500 whose detail is only logged.
func NewErrorHandler(logger logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code, message := classify(err)

		entry := logger.WithError(err).WithFields(logrus.Fields{
			"method": c.Method(),
			"path":   c.Path(),
			"status": code,
		})
		if code >= fiber.StatusInternalServerError {
			entry.Error("request failed")
		} else {
			entry.Debug("request rejected")
		}

		return c.Status(code).JSON(fiber.Map{
			"error":   true,
			"message": message,
		})
	}
}

func classify(err error) (int, string) {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, fiberErr.Message
	}

	var validationErr *validator.ValidationError
	if errors.As(err, &validationErr) {
		return fiber.StatusBadRequest, validationErr.Message
	}

	switch {
	case errors.Is(err, service.ErrInvalidHeader),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrAccountLocked):
		return fiber.StatusUnauthorized, err.Error()
	case errors.Is(err, jwt.ErrMalformedToken),
		errors.Is(err, jwt.ErrSignature),
		errors.Is(err, service.ErrClaimExtraction),
		errors.Is(err, service.ErrMissingClaim),
		errors.Is(err, service.ErrPermissionExists),
		errors.Is(err, service.ErrEntityExists),
		errors.Is(err, service.ErrEmptyFilters),
		errors.Is(err, service.ErrCreatorRequired):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrPermissionNotFound),
		errors.Is(err, service.ErrEntityNotFound),
		errors.Is(err, repository.ErrNotFound):
		return fiber.StatusNotFound, err.Error()
	}

	return fiber.StatusInternalServerError, "Internal server error"
}
