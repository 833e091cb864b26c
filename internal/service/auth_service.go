package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/mission-service/internal/auth"
	"github.com/spec-kit/mission-service/internal/config"
	"github.com/spec-kit/mission-service/internal/domain"
	"github.com/spec-kit/mission-service/internal/observability"
	"github.com/spec-kit/mission-service/internal/repository"
)

// ErrEmailTaken is returned by Signup when the handle is already registered.
var ErrEmailTaken = errors.New("email is already registered")

// AuthService coordinates registration, login and token flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo repository.UserRepository
	Logger   *zap.Logger
	Metrics  *observability.Metrics
	// Clock overrides the token clock; nil uses the wall clock.
	Clock func() time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.Secret, cfg.Auth.AccessTTL(), cfg.Auth.RefreshTTL(), auth.WithClock(deps.Clock)),
		bcryptCost: cfg.Auth.BcryptCost,
		logger:     logger,
		metrics:    deps.Metrics,
	}
}

// Signup creates an active user. The email is normalized before storage.
func (s *AuthService) Signup(ctx context.Context, email, password string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.logger.Warn("signup failed: email already registered", zap.String("email", email))
			s.metrics.RecordAuth("signup", "duplicate")
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.logger.Info("user created", zap.Int64("user_id", user.ID), zap.String("email", email))
	s.metrics.RecordAuth("signup", "ok")
	return user, nil
}

// Authenticate looks up the identity and checks its password. The inactive
// check happens before the password comparison.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, auth.ErrUnknownIdentity
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, auth.ErrInactiveIdentity
	}
	if !auth.VerifyPassword(password, user.PasswordHash) {
		return nil, auth.ErrBadCredentials
	}
	return user, nil
}

// Login authenticates and issues an access/refresh pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (auth.TokenPair, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		s.logger.Warn("login failed",
			zap.String("email", domain.NormalizeEmail(email)),
			zap.String("reason", authOutcome(err)),
			zap.Error(err))
		s.metrics.RecordAuth("login", authOutcome(err))
		return auth.TokenPair{}, err
	}

	pair, err := s.tokenMgr.IssuePair(user.Subject())
	if err != nil {
		return auth.TokenPair{}, err
	}
	s.logger.Info("login succeeded", zap.Int64("user_id", user.ID))
	s.metrics.RecordAuth("login", "ok")
	return pair, nil
}

// Refresh exchanges a refresh token for a new access token. The subject must
// still be an active user.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	access, err := s.refresh(ctx, refreshToken)
	if err != nil {
		s.logger.Warn("refresh failed", zap.String("reason", authOutcome(err)), zap.Error(err))
		s.metrics.RecordAuth("refresh", authOutcome(err))
		return "", err
	}
	s.metrics.RecordAuth("refresh", "ok")
	return access, nil
}

func (s *AuthService) refresh(ctx context.Context, refreshToken string) (string, error) {
	payload, err := s.tokenMgr.DecodeAs(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return "", err
	}
	if _, err := s.activeUser(ctx, payload); err != nil {
		return "", err
	}
	return s.tokenMgr.IssueAccessToken(payload.Subject)
}

// ResolveAccessToken turns a bearer access token into its active user.
func (s *AuthService) ResolveAccessToken(ctx context.Context, token string) (*domain.User, auth.Payload, error) {
	payload, err := s.tokenMgr.DecodeAs(token, auth.TokenTypeAccess)
	if err != nil {
		s.metrics.RecordAuth("resolve", authOutcome(err))
		return nil, auth.Payload{}, err
	}
	user, err := s.activeUser(ctx, payload)
	if err != nil {
		s.metrics.RecordAuth("resolve", authOutcome(err))
		return nil, auth.Payload{}, err
	}
	return user, payload, nil
}

func (s *AuthService) activeUser(ctx context.Context, payload auth.Payload) (*domain.User, error) {
	id, err := payload.UserID()
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, auth.ErrUnknownIdentity
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, auth.ErrInactiveIdentity
	}
	return user, nil
}

// TokenManager exposes the underlying token manager.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func authOutcome(err error) string {
	switch {
	case errors.Is(err, auth.ErrUnknownIdentity):
		return "unknown_identity"
	case errors.Is(err, auth.ErrInactiveIdentity):
		return "inactive"
	case errors.Is(err, auth.ErrBadCredentials):
		return "bad_credentials"
	case errors.Is(err, auth.ErrTokenExpired):
		return "expired"
	case errors.Is(err, auth.ErrWrongTokenType):
		return "wrong_type"
	case errors.Is(err, auth.ErrInvalidSubject):
		return "invalid_subject"
	case errors.Is(err, auth.ErrTokenInvalid):
		return "invalid_token"
	default:
		return "error"
	}
}
