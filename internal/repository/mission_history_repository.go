package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/spec-kit/mission-service/internal/domain"
)

// MissionHistoryRepository stores status audit entries.
type MissionHistoryRepository interface {
	Create(ctx context.Context, entry *domain.MissionHistory) error
	ListByMission(ctx context.Context, missionID uuid.UUID) ([]domain.MissionHistory, error)
}

type missionHistoryRepository struct {
	db DB
}

// NewMissionHistoryRepository builds repository.
func NewMissionHistoryRepository(db DB) MissionHistoryRepository {
	return &missionHistoryRepository{db: db}
}

func (r *missionHistoryRepository) Create(ctx context.Context, entry *domain.MissionHistory) error {
	return insertHistory(ctx, r.db, entry)
}

func insertHistory(ctx context.Context, db DB, entry *domain.MissionHistory) error {
	const query = `
        INSERT INTO mission_history (mission_id, changed_by_id, old_status, new_status)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return db.QueryRow(ctx, query,
		entry.MissionID,
		entry.ChangedByID,
		entry.OldStatus,
		entry.NewStatus,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *missionHistoryRepository) ListByMission(ctx context.Context, missionID uuid.UUID) ([]domain.MissionHistory, error) {
	const query = `
        SELECT id, mission_id, changed_by_id, old_status, new_status, created_at
        FROM mission_history WHERE mission_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.db.Query(ctx, query, missionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.MissionHistory{}
	for rows.Next() {
		var entry domain.MissionHistory
		if err := rows.Scan(
			&entry.ID,
			&entry.MissionID,
			&entry.ChangedByID,
			&entry.OldStatus,
			&entry.NewStatus,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
