// Package repositorytest provides in-memory repositories for tests.
package repositorytest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/mission-service/internal/domain"
	"github.com/spec-kit/mission-service/internal/repository"
)

// Users is an in-memory repository.UserRepository.
type Users struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]domain.User
	// Creates counts successful Create calls.
	Creates int
}

// NewUsers returns an empty store.
func NewUsers() *Users {
	return &Users{byID: map[int64]domain.User{}}
}

func (u *Users) Create(_ context.Context, user *domain.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, existing := range u.byID {
		if existing.Email == user.Email {
			return fmt.Errorf("user %s: %w", user.Email, repository.ErrDuplicate)
		}
	}
	u.nextID++
	user.ID = u.nextID
	user.CreatedAt = time.Now().UTC()
	u.byID[user.ID] = *user
	u.Creates++
	return nil
}

func (u *Users) SetActive(_ context.Context, id int64, active bool) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.IsActive = active
	u.byID[id] = user
	return nil
}

func (u *Users) GetByID(_ context.Context, id int64) (*domain.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (u *Users) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, user := range u.byID {
		if user.Email == email {
			found := user
			return &found, nil
		}
	}
	return nil, pgx.ErrNoRows
}

// Missions is an in-memory repository.MissionRepository with the same
// version check as the Postgres implementation. Status changes append to
// History.
type Missions struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]domain.Mission
	History *History
	// Writes counts successful Create, Update and UpdateStatus calls.
	Writes int
}

// NewMissions returns an empty store with its own history.
func NewMissions() *Missions {
	return &Missions{byID: map[uuid.UUID]domain.Mission{}, History: NewHistory()}
}

func (m *Missions) Create(_ context.Context, mission *domain.Mission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Code == mission.Code {
			return fmt.Errorf("mission %s: %w", mission.Code, repository.ErrDuplicate)
		}
	}
	if mission.ID == uuid.Nil {
		mission.ID = uuid.New()
	}
	now := time.Now().UTC()
	mission.Version = 1
	mission.CreatedAt = now
	mission.UpdatedAt = now
	m.byID[mission.ID] = *mission
	m.Writes++
	return nil
}

func (m *Missions) Update(ctx context.Context, mission *domain.Mission) error {
	return m.UpdateStatus(ctx, mission, nil)
}

// UpdateStatus stores the mission only if the history entry is accepted.
func (m *Missions) UpdateStatus(ctx context.Context, mission *domain.Mission, entry *domain.MissionHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.byID[mission.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if stored.Version != mission.Version {
		return repository.ErrStaleMission
	}
	if entry != nil {
		entry.MissionID = mission.ID
		if err := m.History.Create(ctx, entry); err != nil {
			return err
		}
	}
	mission.Version++
	mission.UpdatedAt = time.Now().UTC()
	m.byID[mission.ID] = *mission
	m.Writes++
	return nil
}

func (m *Missions) GetByID(_ context.Context, id uuid.UUID) (*domain.Mission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mission, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &mission, nil
}

func (m *Missions) List(_ context.Context, filter repository.MissionFilter) ([]domain.Mission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	wanted := map[domain.MissionStatus]bool{}
	for _, status := range filter.Statuses {
		wanted[status] = true
	}

	var result []domain.Mission
	for _, mission := range m.byID {
		if filter.OwnerID != nil && (mission.OwnerID == nil || *mission.OwnerID != *filter.OwnerID) {
			continue
		}
		if len(wanted) > 0 && !wanted[mission.Status] {
			continue
		}
		result = append(result, mission)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })

	offset := filter.Offset
	if offset > len(result) {
		offset = len(result)
	}
	result = result[offset:]
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

// Bump simulates a concurrent writer by advancing the stored version.
func (m *Missions) Bump(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mission, ok := m.byID[id]; ok {
		mission.Version++
		m.byID[id] = mission
	}
}

// History is an in-memory repository.MissionHistoryRepository.
type History struct {
	mu      sync.Mutex
	nextID  int64
	entries []domain.MissionHistory
	// Err, when set, is returned by Create.
	Err error
}

// NewHistory returns an empty store.
func NewHistory() *History {
	return &History{}
}

func (h *History) Create(_ context.Context, entry *domain.MissionHistory) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.Err != nil {
		return h.Err
	}
	h.nextID++
	entry.ID = h.nextID
	entry.CreatedAt = time.Now().UTC()
	h.entries = append(h.entries, *entry)
	return nil
}

func (h *History) ListByMission(_ context.Context, missionID uuid.UUID) ([]domain.MissionHistory, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	result := []domain.MissionHistory{}
	for _, entry := range h.entries {
		if entry.MissionID == missionID {
			result = append(result, entry)
		}
	}
	return result, nil
}

var (
	_ repository.UserRepository           = (*Users)(nil)
	_ repository.MissionRepository        = (*Missions)(nil)
	_ repository.MissionHistoryRepository = (*History)(nil)
)
