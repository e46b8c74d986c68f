// Package middleware provides HTTP middleware for the fiber application.
package middleware

import (
	"log"
	"strings"

	"loyalty/internal/models"
	"loyalty/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// AdminAuth validates the operator's bearer token and stores its claims in
// the request context under "claims" and the operator reference under
// "admin_ref".
func AdminAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return utils.Unauthorized(c, "missing authorization header")
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return utils.Unauthorized(c, "invalid authorization format")
		}

		claims, err := utils.ParseAdminToken(secret, strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			log.Printf("Token validation error: %v", err)
			return utils.Unauthorized(c, "invalid token")
		}

		c.Locals("claims", claims)
		c.Locals("admin_ref", claims.AdminRef)
		return c.Next()
	}
}

// HasPermission returns a middleware that checks for a specific permission.
// Admin role tokens pass every check.
func HasPermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals("claims").(*models.AdminClaims)
		if !ok {
			return utils.Unauthorized(c, "unauthorized")
		}
		if claims.Role == "admin" || claims.HasPermission(permission) {
			return c.Next()
		}
		log.Printf("Access denied: %s lacks %s", claims.AdminRef, permission)
		return utils.Forbidden(c, "insufficient permissions")
	}
}

// AdminRef returns the operator reference stored by AdminAuth.
func AdminRef(c *fiber.Ctx) string {
	ref, _ := c.Locals("admin_ref").(string)
	return ref
}
