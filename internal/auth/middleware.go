package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/mission-service/internal/domain"
	apperrors "github.com/spec-kit/mission-service/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	User    *domain.User
	Payload Payload
}

// PrincipalResolver turns a bearer access token into an active user.
type PrincipalResolver interface {
	ResolveAccessToken(ctx context.Context, token string) (*domain.User, Payload, error)
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	resolver PrincipalResolver
	logger   *zap.Logger
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(resolver PrincipalResolver, logger *zap.Logger) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{resolver: resolver, logger: logger}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token, ok := BearerToken(c.Get(fiber.HeaderAuthorization))
	if !ok {
		return apperrors.NewUnauthorized("Not authenticated")
	}

	user, payload, err := m.resolver.ResolveAccessToken(c.UserContext(), token)
	if err != nil {
		m.logger.Warn("bearer authentication failed",
			zap.String("path", c.Path()),
			zap.Error(err))
		return AccessTokenError(err)
	}

	c.Locals(principalKey, &Principal{User: user, Payload: payload})
	return c.Next()
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// AccessTokenError maps a resolution failure to the response a protected
// route returns. Missing and inactive users share one message.
func AccessTokenError(err error) error {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return apperrors.NewUnauthorized("Token expired")
	case errors.Is(err, ErrWrongTokenType):
		return apperrors.NewUnauthorized("Invalid token type")
	case errors.Is(err, ErrInvalidSubject):
		return apperrors.NewUnauthorized("Invalid token subject")
	case errors.Is(err, ErrUnknownIdentity), errors.Is(err, ErrInactiveIdentity):
		return apperrors.NewUnauthorized("User not found or inactive")
	case errors.Is(err, ErrTokenInvalid):
		return apperrors.NewUnauthorized("Invalid authentication credentials")
	default:
		return apperrors.MapError(err)
	}
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
