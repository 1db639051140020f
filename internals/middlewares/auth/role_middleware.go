package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"hostelfee_backend/internals/constants"
	helper "hostelfee_backend/internals/helpers"
)

// OnlyRoles lets the request through when the token role is one of roles.
func OnlyRoles(customForbiddenMessage string, roles ...string) fiber.Handler {
	if customForbiddenMessage == "" {
		customForbiddenMessage = "Forbidden: you are not authorized to access this resource"
	}
	return func(c *fiber.Ctx) error {
		role := Role(c)
		if role == "" {
			return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized: missing role information")
		}
		for _, allowed := range roles {
			if role == allowed {
				return c.Next()
			}
		}
		return helper.JsonError(c, fiber.StatusForbidden, customForbiddenMessage)
	}
}

// SelfOrStaff allows staff roles everywhere and students only on their own :id.
func SelfOrStaff(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch Role(c) {
		case constants.RoleAdmin, constants.RoleWarden:
			return c.Next()
		case constants.RoleStudent:
			sid := StudentID(c)
			if id, err := uuid.Parse(c.Params(param)); err == nil && sid != nil && *sid == id {
				return c.Next()
			}
		}
		return helper.JsonError(c, fiber.StatusForbidden, "Forbidden: you can only view your own ledger")
	}
}
