package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/mission-service/internal/domain"
)

// MissionFilter captures list parameters.
type MissionFilter struct {
	OwnerID  *int64
	Statuses []domain.MissionStatus
	Limit    int
	Offset   int
}

// MissionRepository encapsulates mission persistence.
type MissionRepository interface {
	Create(ctx context.Context, mission *domain.Mission) error
	Update(ctx context.Context, mission *domain.Mission) error
	// UpdateStatus writes the mission and its history entry in one
	// transaction; neither is stored if the other fails.
	UpdateStatus(ctx context.Context, mission *domain.Mission, entry *domain.MissionHistory) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Mission, error)
	List(ctx context.Context, filter MissionFilter) ([]domain.Mission, error)
}

type missionRepository struct {
	db TxDB
}

// NewMissionRepository instantiates repository.
func NewMissionRepository(db TxDB) MissionRepository {
	return &missionRepository{db: db}
}

const missionColumns = `id, code, title, starts_at, ends_at, status, notes, owner_id, version, created_at, updated_at`

func (r *missionRepository) Create(ctx context.Context, mission *domain.Mission) error {
	if mission.ID == uuid.Nil {
		mission.ID = uuid.New()
	}
	const query = `
        INSERT INTO missions (id, code, title, starts_at, ends_at, status, notes, owner_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING version, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		mission.ID,
		mission.Code,
		mission.Title,
		mission.StartsAt,
		mission.EndsAt,
		mission.Status,
		mission.Notes,
		mission.OwnerID,
	).Scan(&mission.Version, &mission.CreatedAt, &mission.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("mission %s: %w", mission.Code, ErrDuplicate)
	}
	return err
}

// Update writes the mission only if nobody else updated it since it was
// loaded; otherwise it returns ErrStaleMission.
func (r *missionRepository) Update(ctx context.Context, mission *domain.Mission) error {
	return updateMission(ctx, r.db, mission)
}

func (r *missionRepository) UpdateStatus(ctx context.Context, mission *domain.Mission, entry *domain.MissionHistory) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin status update: %w", err)
	}
	if err := updateMission(ctx, tx, mission); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	entry.MissionID = mission.ID
	if err := insertHistory(ctx, tx, entry); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func updateMission(ctx context.Context, db DB, mission *domain.Mission) error {
	const query = `
        UPDATE missions SET title=$1, starts_at=$2, ends_at=$3, status=$4, notes=$5, owner_id=$6,
            version=version+1, updated_at=NOW()
        WHERE id=$7 AND version=$8
        RETURNING version, updated_at`
	err := db.QueryRow(ctx, query,
		mission.Title,
		mission.StartsAt,
		mission.EndsAt,
		mission.Status,
		mission.Notes,
		mission.OwnerID,
		mission.ID,
		mission.Version,
	).Scan(&mission.Version, &mission.UpdatedAt)
	if err == nil {
		return nil
	}
	if !IsNotFound(err) {
		return err
	}

	var exists bool
	if err := db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM missions WHERE id=$1)`, mission.ID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return pgx.ErrNoRows
	}
	return ErrStaleMission
}

func (r *missionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Mission, error) {
	query := `SELECT ` + missionColumns + ` FROM missions WHERE id=$1`
	var mission domain.Mission
	if err := scanMission(r.db.QueryRow(ctx, query, id), &mission); err != nil {
		return nil, err
	}
	return &mission, nil
}

func (r *missionRepository) List(ctx context.Context, filter MissionFilter) ([]domain.Mission, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		clauses = append(clauses, fmt.Sprintf("owner_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM missions WHERE %s ORDER BY starts_at NULLS LAST, created_at DESC LIMIT %d OFFSET %d`,
		missionColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Mission
	for rows.Next() {
		var mission domain.Mission
		if err := scanMission(rows, &mission); err != nil {
			return nil, err
		}
		result = append(result, mission)
	}
	return result, rows.Err()
}

func scanMission(row pgx.Row, mission *domain.Mission) error {
	return row.Scan(
		&mission.ID,
		&mission.Code,
		&mission.Title,
		&mission.StartsAt,
		&mission.EndsAt,
		&mission.Status,
		&mission.Notes,
		&mission.OwnerID,
		&mission.Version,
		&mission.CreatedAt,
		&mission.UpdatedAt,
	)
}
