package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/customers/backend/internal/infrastructure/auth"
	"github.com/customers/backend/internal/infrastructure/logger"
	"github.com/customers/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Gin context keys set by BearerAuth
const (
	ClaimsKey  = "auth_claims"
	SubjectKey = "auth_subject"
)

const bearerPrefix = "Bearer "

// BearerAuthConfig configures BearerAuth. Revocations is optional.
type BearerAuthConfig struct {
	Verifier    *auth.TokenVerifier
	Revocations auth.RevocationList
}

// BearerAuth requires a valid HS256 bearer token. A failed revocation
// lookup is logged and the token is accepted.
func BearerAuth(cfg BearerAuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, bearerPrefix)
		if !ok || strings.TrimSpace(token) == "" {
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "Missing or malformed bearer token")
			return
		}

		claims, err := cfg.Verifier.Verify(strings.TrimSpace(token))
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				abortUnauthorized(c, dto.ErrCodeTokenExpired, "Token has expired")
				return
			}
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "Invalid token")
			return
		}

		if cfg.Revocations != nil && claims.ID != "" {
			revoked, err := cfg.Revocations.IsRevoked(c.Request.Context(), claims.ID)
			switch {
			case err != nil:
				logger.GetGinLogger(c).Warn("token revocation check failed", zap.Error(err))
			case revoked:
				abortUnauthorized(c, dto.ErrCodeUnauthorized, "Token has been revoked")
				return
			}
		}

		c.Set(ClaimsKey, claims)
		c.Set(SubjectKey, claims.Subject)
		if span := trace.SpanFromContext(c.Request.Context()); span.IsRecording() {
			span.SetAttributes(attribute.String("auth.subject", claims.Subject))
		}
		c.Next()
	}
}

// GetClaims returns the claims stored by BearerAuth, or nil
func GetClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(ClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.Header("WWW-Authenticate", `Bearer realm="customers"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(code, message, GetRequestID(c)))
}
