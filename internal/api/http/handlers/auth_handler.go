package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/mission-service/internal/api/dto"
	"github.com/spec-kit/mission-service/internal/auth"
	"github.com/spec-kit/mission-service/internal/domain"
	"github.com/spec-kit/mission-service/internal/ratelimit"
	"github.com/spec-kit/mission-service/internal/service"
	apperrors "github.com/spec-kit/mission-service/pkg/util"
)

// AuthHandler exposes signup, login, refresh and me.
type AuthHandler struct {
	auth    *service.AuthService
	limiter ratelimit.Limiter
	logger  *zap.Logger
}

// NewAuthHandler constructs handler. A nil limiter disables login throttling.
func NewAuthHandler(authService *service.AuthService, limiter ratelimit.Limiter, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{auth: authService, limiter: limiter, logger: logger}
}

// Signup handles POST /auth/signup.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := h.auth.Signup(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			return apperrors.NewConflict("Email is already registered", nil)
		}
		return apperrors.MapError(err)
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.NewUserResponse(user),
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := h.throttle(c, req.Email); err != nil {
		return err
	}

	pair, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return mapLoginError(err)
	}

	return c.JSON(fiber.Map{
		"data": dto.NewTokenPairResponse(pair),
	})
}

// Refresh handles POST /auth/refresh.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	access, err := h.auth.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return mapRefreshError(err)
	}

	return c.JSON(fiber.Map{
		"data": dto.AccessTokenResponse{AccessToken: access, TokenType: dto.TokenTypeBearer},
	})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("Not authenticated")
	}
	return c.JSON(fiber.Map{
		"data": dto.NewUserResponse(principal.User),
	})
}

// throttle fails open when the limiter backend is unavailable.
func (h *AuthHandler) throttle(c *fiber.Ctx, email string) error {
	if h.limiter == nil {
		return nil
	}
	key := ratelimit.Key(c.IP(), domain.NormalizeEmail(email))
	decision, err := h.limiter.Allow(c.UserContext(), key)
	if err != nil {
		h.logger.Warn("login rate limiter unavailable", zap.Error(err))
		return nil
	}
	if decision.Allowed {
		return nil
	}

	retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
	c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
	h.logger.Warn("login throttled", zap.String("ip", c.IP()), zap.Int("retry_after", retryAfter))
	return apperrors.NewTooManyRequests("Too many login attempts; try again later")
}
