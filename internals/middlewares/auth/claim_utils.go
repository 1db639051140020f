// internals/middlewares/auth/claims_utils.go
package auth

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

/* ======== Extractors ======== */

func extractBearerToken(c *fiber.Ctx, allowCookie bool) (string, error) {
	auth := strings.TrimSpace(c.Get("Authorization"))
	if auth == "" && allowCookie {
		if cookieTok := c.Cookies("access_token"); cookieTok != "" {
			auth = "Bearer " + cookieTok
		}
	}
	if auth == "" {
		return "", fmt.Errorf("unauthorized - No token provided")
	}

	fields := strings.Fields(auth)
	if len(fields) < 2 || !strings.EqualFold(fields[0], "Bearer") {
		return "", fmt.Errorf("unauthorized - Invalid token format")
	}
	tok := strings.Trim(strings.TrimSpace(fields[1]), "\"'")
	if tok == "" {
		return "", fmt.Errorf("unauthorized - Empty token")
	}
	return tok, nil
}

func validateTokenExpiry(claims jwt.MapClaims, skew time.Duration) error {
	expVal, ok := claims["exp"]
	if !ok {
		return fmt.Errorf("token has no exp")
	}

	var expUnix int64
	switch t := expVal.(type) {
	case float64:
		expUnix = int64(t)
	case int64:
		expUnix = t
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid exp format")
		}
		expUnix = n
	default:
		return fmt.Errorf("invalid exp type")
	}

	expTime := time.Unix(expUnix, 0).UTC()
	if time.Now().UTC().After(expTime.Add(skew)) {
		return fmt.Errorf("token expired at %v", expTime)
	}
	return nil
}

func extractUUIDClaim(claims jwt.MapClaims, key string) (uuid.UUID, error) {
	raw, ok := claims[key]
	if !ok {
		return uuid.Nil, fmt.Errorf("no %s", key)
	}
	s, ok := raw.(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("invalid %s type", key)
	}
	return uuid.Parse(strings.TrimSpace(s))
}

/* ======== Store claims to Locals ======== */

func storeClaimsToLocals(c *fiber.Ctx, claims jwt.MapClaims) {
	if role, ok := claims["role"].(string); ok {
		c.Locals(LocalRole, strings.ToLower(strings.TrimSpace(role)))
	}
	if sid, err := extractUUIDClaim(claims, "student_id"); err == nil {
		c.Locals(LocalStudentID, sid.String())
	}
}

/* ======== Readers for controllers ======== */

// UserID returns the authenticated user id, or nil on public routes.
func UserID(c *fiber.Ctx) *uuid.UUID {
	return uuidLocal(c, LocalUserID)
}

// StudentID returns the student id bound to the token, if any.
func StudentID(c *fiber.Ctx) *uuid.UUID {
	return uuidLocal(c, LocalStudentID)
}

func Role(c *fiber.Ctx) string {
	r, _ := c.Locals(LocalRole).(string)
	return r
}

func uuidLocal(c *fiber.Ctx, key string) *uuid.UUID {
	s, ok := c.Locals(key).(string)
	if !ok || s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}
