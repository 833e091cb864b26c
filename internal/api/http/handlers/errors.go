package handlers

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/mission-service/internal/auth"
	"github.com/spec-kit/mission-service/internal/domain"
	"github.com/spec-kit/mission-service/internal/repository"
	"github.com/spec-kit/mission-service/internal/service"
	apperrors "github.com/spec-kit/mission-service/pkg/util"
)

type validatable interface {
	Validate() error
}

// parseBody decodes and validates a JSON request body.
func parseBody(c *fiber.Ctx, req validatable) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil).WithCause(err)
	}
	if err := req.Validate(); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		details := make(map[string]any, len(fieldErrs))
		for field, fieldErr := range fieldErrs {
			details[field] = fieldErr.Error()
		}
		return apperrors.NewValidationError("request validation failed", details)
	}
	return apperrors.NewValidationError(err.Error(), nil)
}

// mapLoginError keeps unknown identity and wrong password indistinguishable.
func mapLoginError(err error) error {
	switch {
	case errors.Is(err, auth.ErrUnknownIdentity), errors.Is(err, auth.ErrBadCredentials):
		return apperrors.NewUnauthorized("Invalid credentials")
	case errors.Is(err, auth.ErrInactiveIdentity):
		return apperrors.NewForbidden("User is inactive")
	default:
		return apperrors.MapError(err)
	}
}

func mapRefreshError(err error) error {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return apperrors.NewUnauthorized("Refresh token expired")
	case errors.Is(err, auth.ErrWrongTokenType):
		return apperrors.NewUnauthorized("Invalid token type")
	case errors.Is(err, auth.ErrInvalidSubject):
		return apperrors.NewUnauthorized("Invalid token subject")
	case errors.Is(err, auth.ErrTokenInvalid),
		errors.Is(err, auth.ErrUnknownIdentity),
		errors.Is(err, auth.ErrInactiveIdentity):
		return apperrors.NewUnauthorized("Invalid refresh token")
	default:
		return apperrors.MapError(err)
	}
}

func mapMissionError(err error) error {
	var transitionErr *domain.TransitionError
	var scheduleErr *domain.ScheduleError
	switch {
	case errors.As(err, &transitionErr):
		return apperrors.NewDomainError("INVALID_TRANSITION", "mission status transition not allowed", fiber.StatusConflict, map[string]any{
			"from":    transitionErr.From,
			"to":      transitionErr.To,
			"allowed": domain.NextStatuses(transitionErr.From),
		})
	case errors.As(err, &scheduleErr):
		return apperrors.NewValidationError("starts_at must be before ends_at", map[string]any{
			"starts_at": scheduleErr.Start,
			"ends_at":   scheduleErr.End,
		})
	case errors.Is(err, service.ErrMissionNotFound):
		return apperrors.NewNotFound("mission", nil)
	case errors.Is(err, service.ErrMissionCodeTaken):
		return apperrors.NewConflict("Mission code is already in use", nil)
	case errors.Is(err, repository.ErrStaleMission):
		return apperrors.NewConflict("Mission was modified by another request; reload and retry", nil)
	default:
		return apperrors.MapError(err)
	}
}
