package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"mission-kpi-system/models"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxMissionNameLen = 128

// RegistryService is the authority for mission and player existence and
// lifecycle. All mutating operations commit synchronously; existence checks
// always read committed state — there is no caching layer.
type RegistryService struct {
	DB *gorm.DB
}

func NewRegistryService(db *gorm.DB) *RegistryService {
	return &RegistryService{DB: db}
}

type CreateMissionInput struct {
	Name        string `json:"name"`
	MissionType string `json:"mission_type"`
	HazardID    int16  `json:"hazard_id"`
}

// CreateMission allocates a new mission in state "planned".
func (s *RegistryService) CreateMission(input CreateMissionInput) (*models.Mission, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: mission name is required", ErrValidation)
	}
	if len(name) > maxMissionNameLen {
		return nil, fmt.Errorf("%w: mission name exceeds %d characters", ErrValidation, maxMissionNameLen)
	}
	if input.HazardID < 0 {
		return nil, fmt.Errorf("%w: hazard_id must not be negative", ErrValidation)
	}

	mission := &models.Mission{
		Name:        name,
		Codename:    slug.Make(name),
		MissionType: strings.TrimSpace(input.MissionType),
		HazardID:    input.HazardID,
		State:       models.MissionStatePlanned,
	}
	if err := s.DB.Create(mission).Error; err != nil {
		return nil, storageError("create mission", err)
	}
	return mission, nil
}

// TransitionMission moves a mission along the one-directional state machine
// planned → active → closed. The current state is re-read inside the same
// transaction as the update so concurrent transitions cannot interleave.
func (s *RegistryService) TransitionMission(id int32, newState string) (*models.Mission, error) {
	if !models.ValidMissionState(newState) {
		return nil, fmt.Errorf("%w: unknown mission state %q", ErrValidation, newState)
	}

	var updated models.Mission
	err := runSerializable(s.DB, func(tx *gorm.DB) error {
		var m models.Mission
		if err := tx.First(&m, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: mission %d", ErrNotFound, id)
			}
			return storageError("load mission", err)
		}
		if !models.CanTransition(m.State, newState) {
			return fmt.Errorf("%w: mission %d cannot transition %s → %s", ErrInvalidState, id, m.State, newState)
		}

		now := time.Now()
		m.State = newState
		switch newState {
		case models.MissionStateActive:
			m.StartedAt = &now
		case models.MissionStateClosed:
			m.ClosedAt = &now
		}
		if err := tx.Save(&m).Error; err != nil {
			return storageError("save mission", err)
		}
		updated = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// SetMissionInvalid flags (or clears) a mission as invalid. Invalid missions
// stay in the ledger for audit but are skipped by cross-mission rollups and
// report exports.
func (s *RegistryService) SetMissionInvalid(id int32, invalid bool, reason string) (*models.Mission, error) {
	reason = strings.TrimSpace(reason)
	if invalid && reason == "" {
		return nil, fmt.Errorf("%w: a reason is required to mark a mission invalid", ErrValidation)
	}
	if !invalid {
		reason = ""
	}

	var updated models.Mission
	err := runSerializable(s.DB, func(tx *gorm.DB) error {
		var m models.Mission
		if err := tx.First(&m, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: mission %d", ErrNotFound, id)
			}
			return storageError("load mission", err)
		}
		m.Invalid = invalid
		m.InvalidReason = reason
		if err := tx.Save(&m).Error; err != nil {
			return storageError("save mission", err)
		}
		updated = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteMission removes a mission row. It refuses while any assigned_kpi
// record still references the mission — corrections go through compensating
// deltas, never by dropping ledger history.
func (s *RegistryService) DeleteMission(id int32) error {
	return runSerializable(s.DB, func(tx *gorm.DB) error {
		var m models.Mission
		if err := tx.First(&m, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: mission %d", ErrNotFound, id)
			}
			return storageError("load mission", err)
		}

		var refs int64
		if err := tx.Model(&models.AssignedKPI{}).Where("mission_id = ?", id).Count(&refs).Error; err != nil {
			return storageError("count assigned kpi", err)
		}
		if refs > 0 {
			return fmt.Errorf("%w: mission %d still has %d assigned KPI record(s)", ErrInvalidState, id, refs)
		}

		if err := tx.Delete(&m).Error; err != nil {
			return storageError("delete mission", err)
		}
		return nil
	})
}

type RegisterPlayerInput struct {
	Name        string `json:"name"`
	Watchlisted bool   `json:"watchlisted"`
}

// RegisterPlayer is an idempotent upsert keyed by the caller-supplied id.
// Registering the same id twice updates metadata in place and never creates
// a second row.
func (s *RegistryService) RegisterPlayer(id int16, input RegisterPlayerInput) (*models.Player, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: player id must be in 1..32767, got %d", ErrValidation, id)
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: player name is required", ErrValidation)
	}

	var registered models.Player
	err := runSerializable(s.DB, func(tx *gorm.DB) error {
		// A name belongs to exactly one player id.
		var clash models.Player
		err := tx.Where("name = ? AND id <> ?", name, id).First(&clash).Error
		if err == nil {
			return fmt.Errorf("%w: player name %q already belongs to player %d", ErrValidation, name, clash.ID)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return storageError("check player name", err)
		}

		player := models.Player{
			ID:          id,
			Name:        name,
			Watchlisted: input.Watchlisted,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "watchlisted", "updated_at"}),
		}).Create(&player).Error; err != nil {
			return storageError("upsert player", err)
		}
		registered = player
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &registered, nil
}

// MissionExists reports whether a mission row is committed right now.
func (s *RegistryService) MissionExists(id int32) (bool, error) {
	var count int64
	if err := s.DB.Model(&models.Mission{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, storageError("count mission", err)
	}
	return count > 0, nil
}

// PlayerExists reports whether a player row is committed right now.
func (s *RegistryService) PlayerExists(id int16) (bool, error) {
	var count int64
	if err := s.DB.Model(&models.Player{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, storageError("count player", err)
	}
	return count > 0, nil
}

// GetMission fetches one mission by id.
func (s *RegistryService) GetMission(id int32) (*models.Mission, error) {
	var m models.Mission
	if err := s.DB.First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: mission %d", ErrNotFound, id)
		}
		return nil, storageError("load mission", err)
	}
	return &m, nil
}

// ListMissions returns all missions ordered by id.
func (s *RegistryService) ListMissions() ([]models.Mission, error) {
	var missions []models.Mission
	if err := s.DB.Order("id ASC").Find(&missions).Error; err != nil {
		return nil, storageError("list missions", err)
	}
	return missions, nil
}

// ListPlayers returns all registered players ordered by id.
func (s *RegistryService) ListPlayers() ([]models.Player, error) {
	var players []models.Player
	if err := s.DB.Order("id ASC").Find(&players).Error; err != nil {
		return nil, storageError("list players", err)
	}
	return players, nil
}
