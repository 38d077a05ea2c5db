package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"vidtube/internal/models"
	"vidtube/internal/services"
	"vidtube/pkg/logger"
)

// AccessTokenCookie is the cookie carrying the access token.
const AccessTokenCookie = "accessToken"

const claimsKey = "claims"

// TokenVerifier validates access tokens.
type TokenVerifier interface {
	VerifyAccess(tokenString string) (*services.Claims, error)
}

// extractToken reads the access token from the cookie or, failing that, from
// an "Authorization: Bearer <token>" header.
func extractToken(c *fiber.Ctx) string {
	if token := c.Cookies(AccessTokenCookie); token != "" {
		return token
	}
	authHeader := c.Get(fiber.HeaderAuthorization)
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// AuthRequired is a Fiber middleware rejecting requests without a valid
// access token.
func AuthRequired(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractToken(c)
		if token == "" {
			return models.NewUnauthenticatedError("Unauthorized request")
		}

		claims, err := verifier.VerifyAccess(token)
		if err != nil {
			logger.Debug("access token rejected", zap.String("path", c.Path()), zap.Error(err))
			return err
		}

		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is present and lets
// anonymous requests through otherwise.
func OptionalAuth(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := extractToken(c); token != "" {
			if claims, err := verifier.VerifyAccess(token); err == nil {
				c.Locals(claimsKey, claims)
			}
		}
		return c.Next()
	}
}

// CurrentClaims returns the claims stored by AuthRequired or OptionalAuth.
func CurrentClaims(c *fiber.Ctx) *services.Claims {
	claims, _ := c.Locals(claimsKey).(*services.Claims)
	return claims
}

// UserID returns the caller's id, or "" for anonymous requests.
func UserID(c *fiber.Ctx) string {
	if claims := CurrentClaims(c); claims != nil {
		return claims.UserID
	}
	return ""
}
