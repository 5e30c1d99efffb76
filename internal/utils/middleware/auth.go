package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/eventsync/server/internal/shared/response"
	"github.com/eventsync/server/internal/utils/requestctx"
)

const (
	// AuthorizationHeader is the header key for authorization.
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens.
	BearerPrefix = "Bearer "
	// ActorKey is the context key for the caller's enrollment number.
	ActorKey = "actor"
)

var (
	errMissingSubject = errors.New("token has no subject")
)

// TokenValidator validates HS256 access tokens issued by the campus identity
// service. The subject claim carries the caller's enrollment number.
type TokenValidator struct {
	secret []byte
	issuer string
	leeway time.Duration
}

// NewTokenValidator creates a validator. An empty issuer skips the issuer check.
func NewTokenValidator(secret, issuer string) *TokenValidator {
	return &TokenValidator{
		secret: []byte(secret),
		issuer: issuer,
		leeway: 30 * time.Second,
	}
}

// Validate parses token and returns the actor enrollment number.
func (v *TokenValidator) Validate(token string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.leeway),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	if _, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...); err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}

	actor := strings.ToUpper(strings.TrimSpace(claims.Subject))
	if actor == "" {
		return "", errMissingSubject
	}
	return actor, nil
}

// Auth returns a middleware that requires a valid bearer token and stores
// the actor in the gin and request contexts.
func Auth(validator *TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			response.Unauthorized(c, "unauthorized", "authorization header required")
			return
		}

		actor, err := validator.Validate(token)
		if err != nil {
			response.Unauthorized(c, "invalid_token", "invalid or expired token")
			return
		}

		c.Set(ActorKey, actor)
		c.Request = c.Request.WithContext(requestctx.WithActor(c.Request.Context(), actor))
		c.Next()
	}
}

// extractBearerToken extracts the bearer token from the Authorization header.
func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader(AuthorizationHeader)
	if !strings.HasPrefix(authHeader, BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, BearerPrefix))
}

// GetActor returns the authenticated enrollment number, or "" when the
// request did not pass Auth.
func GetActor(c *gin.Context) string {
	return c.GetString(ActorKey)
}
