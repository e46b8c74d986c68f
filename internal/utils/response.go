package utils

import (
	errs "loyalty/internal/errors"

	"github.com/gofiber/fiber/v2"
)

// Respond sends a JSON response with the specified status code.
func Respond(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(data)
}

// Success sends a successful JSON response.
func Success(c *fiber.Ctx, data interface{}) error {
	return Respond(c, fiber.StatusOK, data)
}

// Created sends a JSON response with status 201.
func Created(c *fiber.Ctx, data interface{}) error {
	return Respond(c, fiber.StatusCreated, data)
}

// BadRequest sends a JSON error response with status 400.
func BadRequest(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusBadRequest, fiber.Map{"error": message})
}

// Unauthorized sends a JSON error response with status 401.
func Unauthorized(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusUnauthorized, fiber.Map{"error": message})
}

// Forbidden sends a JSON error response with status 403.
func Forbidden(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusForbidden, fiber.Map{"error": message})
}

// ValidationFailed sends the per-field validation errors with status 400.
func ValidationFailed(c *fiber.Ctx, fields map[string]string) error {
	return Respond(c, fiber.StatusBadRequest, fiber.Map{"error": "validation failed", "fields": fields})
}

// InternalError sends a JSON error response with status 500.
func InternalError(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusInternalServerError, fiber.Map{"error": message})
}

// DomainError sends err with the status its code maps to. Errors that carry
// no domain code are reported as internal without their detail.
func DomainError(c *fiber.Ctx, err error) error {
	de, ok := errs.AsDomain(err)
	if !ok {
		return InternalError(c, "internal error")
	}
	return Respond(c, StatusFor(de.Code), fiber.Map{"error": de.Message, "code": de.Code})
}

// StatusFor maps a domain error code to an HTTP status.
func StatusFor(code string) int {
	switch code {
	case errs.CodeNotFound, errs.CodeSourceNotFound:
		return fiber.StatusNotFound
	case errs.CodeInvalidAmount, errs.CodeInvalidOperation, errs.CodeSelfReferral, errs.CodeInvalidCode:
		return fiber.StatusBadRequest
	case errs.CodeWalletSuspended:
		return fiber.StatusForbidden
	case errs.CodeInsufficientBalance, errs.CodeInvalidState, errs.CodeAlreadyReferred,
		errs.CodeRewardUnavailable, errs.CodeAlreadyUsed:
		return fiber.StatusConflict
	case errs.CodeExpired:
		return fiber.StatusGone
	case errs.CodeStoreFailure:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
