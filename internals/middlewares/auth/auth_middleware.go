// internals/middlewares/auth/auth_middleware.go
package auth

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	"hostelfee_backend/internals/helpers/logger"
)

// Locals keys written by AuthJWT.
const (
	LocalUserID    = "user_id"
	LocalRole      = "userRole"
	LocalStudentID = "student_id"
)

type AuthJWTOpts struct {
	Secret              string
	AllowCookieFallback bool
	// Leeway applied to exp.
	Skew time.Duration
}

// AuthJWT verifies an HS256 bearer token and stores the caller's id, role and
// (for student tokens) student id in Locals.
func AuthJWT(opts AuthJWTOpts) fiber.Handler {
	if opts.Skew <= 0 {
		opts.Skew = 30 * time.Second
	}
	return func(c *fiber.Ctx) error {
		secret := strings.TrimSpace(opts.Secret)
		if secret == "" {
			logger.Log.Error("[AUTH] JWT secret is empty")
			return fiber.NewError(fiber.StatusInternalServerError, "Missing JWT Secret")
		}

		tokenString, err := extractBearerToken(c, opts.AllowCookieFallback)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		claims := jwt.MapClaims{}
		parser := jwt.Parser{SkipClaimsValidation: true, ValidMethods: []string{jwt.SigningMethodHS256.Alg()}}
		if _, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}); err != nil {
			logger.Log.WithError(err).Debug("[AUTH] token parse failed")
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Token parse error")
		}

		if err := validateTokenExpiry(claims, opts.Skew); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Token expired")
		}

		userID, err := extractUUIDClaim(claims, "id")
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Invalid or missing user ID")
		}
		c.Locals(LocalUserID, userID.String())
		storeClaimsToLocals(c, claims)
		return c.Next()
	}
}
