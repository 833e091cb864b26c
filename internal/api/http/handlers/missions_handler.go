package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/mission-service/internal/api/dto"
	"github.com/spec-kit/mission-service/internal/auth"
	"github.com/spec-kit/mission-service/internal/domain"
	"github.com/spec-kit/mission-service/internal/service"
	apperrors "github.com/spec-kit/mission-service/pkg/util"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// MissionsHandler exposes mission endpoints.
type MissionsHandler struct {
	missions *service.MissionService
}

// NewMissionsHandler constructs handler.
func NewMissionsHandler(missions *service.MissionService) *MissionsHandler {
	return &MissionsHandler{missions: missions}
}

// Create handles POST /missions.
func (h *MissionsHandler) Create(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.MissionCreateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	mission, err := h.missions.CreateMission(c.UserContext(), principal.User.ID, service.MissionCreateInput{
		Code:     req.Code,
		Title:    req.Title,
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
		Notes:    req.Notes,
		OwnerID:  req.OwnerID,
	})
	if err != nil {
		return mapMissionError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewMissionResponse(mission)})
}

// List handles GET /missions.
func (h *MissionsHandler) List(c *fiber.Ctx) error {
	filter, err := listFilter(c)
	if err != nil {
		return err
	}
	missions, err := h.missions.ListMissions(c.UserContext(), filter)
	if err != nil {
		return mapMissionError(err)
	}
	return c.JSON(fiber.Map{
		"data": dto.NewMissionListResponse(missions),
		"meta": fiber.Map{
			"page":      filter.Offset/filter.Limit + 1,
			"page_size": filter.Limit,
		},
	})
}

// Get handles GET /missions/:id.
func (h *MissionsHandler) Get(c *fiber.Ctx) error {
	id, err := missionID(c)
	if err != nil {
		return err
	}
	mission, err := h.missions.GetMission(c.UserContext(), id)
	if err != nil {
		return mapMissionError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewMissionResponse(mission)})
}

// Update handles PATCH /missions/:id.
func (h *MissionsHandler) Update(c *fiber.Ctx) error {
	id, err := missionID(c)
	if err != nil {
		return err
	}
	var req dto.MissionUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	mission, err := h.missions.UpdateMission(c.UserContext(), id, service.MissionUpdateInput{
		Title:    req.Title,
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
		Notes:    req.Notes,
		OwnerID:  req.OwnerID,
	})
	if err != nil {
		return mapMissionError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewMissionResponse(mission)})
}

// Transition handles POST /missions/:id/transition.
func (h *MissionsHandler) Transition(c *fiber.Ctx) error {
	var req dto.MissionTransitionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	target, err := domain.ParseMissionStatus(req.Status)
	if err != nil {
		return apperrors.NewValidationError("unknown status", map[string]any{"status": req.Status})
	}
	return h.move(c, target)
}

// Start handles POST /missions/:id/start.
func (h *MissionsHandler) Start(c *fiber.Ctx) error {
	return h.move(c, domain.MissionStatusInProgress)
}

// Finish handles POST /missions/:id/finish.
func (h *MissionsHandler) Finish(c *fiber.Ctx) error {
	return h.move(c, domain.MissionStatusDone)
}

// Cancel handles POST /missions/:id/cancel.
func (h *MissionsHandler) Cancel(c *fiber.Ctx) error {
	return h.move(c, domain.MissionStatusCanceled)
}

// History handles GET /missions/:id/history.
func (h *MissionsHandler) History(c *fiber.Ctx) error {
	id, err := missionID(c)
	if err != nil {
		return err
	}
	entries, err := h.missions.ListHistory(c.UserContext(), id)
	if err != nil {
		return mapMissionError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewMissionHistoryResponse(entries)})
}

func (h *MissionsHandler) move(c *fiber.Ctx, target domain.MissionStatus) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	id, err := missionID(c)
	if err != nil {
		return err
	}
	mission, err := h.missions.TransitionMission(c.UserContext(), principal.User.ID, id, target)
	if err != nil {
		return mapMissionError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewMissionResponse(mission)})
}

func requirePrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("Not authenticated")
	}
	return principal, nil
}

func missionID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, apperrors.NewNotFound("mission", nil)
	}
	return id, nil
}

func listFilter(c *fiber.Ctx) (service.MissionListFilter, error) {
	var filter service.MissionListFilter

	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status, err := domain.ParseMissionStatus(strings.TrimSpace(part))
			if err != nil {
				return filter, apperrors.NewValidationError("unknown status", map[string]any{"status": part})
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}

	if raw := c.Query("owner_id"); raw != "" {
		owner, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || owner < 1 {
			return filter, apperrors.NewValidationError("owner_id must be a positive integer", nil)
		}
		filter.OwnerID = &owner
	}

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := c.QueryInt("page_size", defaultPageSize)
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	filter.Limit = pageSize
	filter.Offset = (page - 1) * pageSize
	return filter, nil
}
