package services

import (
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"unicode/utf8"

	"mission-kpi-system/models"

	"gorm.io/gorm"
)

const maxNoteLen = 512

// KPIEngineService validates and durably records one KPI delta event per
// call. The record's running total is recomputed fresh from the ledger
// inside the insert transaction — totals are never cached or incremented in
// place, so they cannot drift from the underlying deltas.
type KPIEngineService struct {
	DB *gorm.DB
}

func NewKPIEngineService(db *gorm.DB) *KPIEngineService {
	return &KPIEngineService{DB: db}
}

// RecordKPI appends one delta for (mission, player, component).
//
// TotalDeltaValue = sum of all prior committed deltas for the same
// (mission, player) pair across all components, plus this delta. The sum,
// the mission-state re-check and the insert share one serializable
// transaction; conflicting writers are retried, never silently accepted
// with a stale total.
func (s *KPIEngineService) RecordKPI(missionID int32, playerID int16, component models.KPIComponent, delta float64, note string) (*models.AssignedKPI, error) {
	if !component.Valid() {
		return nil, fmt.Errorf("%w: unknown KPI component code %d", ErrValidation, component.Code())
	}
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return nil, fmt.Errorf("%w: delta must be a finite number", ErrValidation)
	}
	note = strings.TrimSpace(note)
	if utf8.RuneCountInString(note) > maxNoteLen {
		return nil, fmt.Errorf("%w: note exceeds %d characters", ErrValidation, maxNoteLen)
	}

	var record models.AssignedKPI
	err := runSerializable(s.DB, func(tx *gorm.DB) error {
		// Mission state is checked inside the transaction so a concurrent
		// transition to "closed" cannot slip a record onto a closed mission.
		var mission models.Mission
		if err := tx.First(&mission, "id = ?", missionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: mission %d", ErrNotFound, missionID)
			}
			return storageError("load mission", err)
		}
		if mission.State != models.MissionStateActive {
			return fmt.Errorf("%w: mission %d is %s, KPI records require an active mission", ErrInvalidState, missionID, mission.State)
		}

		var playerCount int64
		if err := tx.Model(&models.Player{}).Where("id = ?", playerID).Count(&playerCount).Error; err != nil {
			return storageError("count player", err)
		}
		if playerCount == 0 {
			return fmt.Errorf("%w: player %d", ErrNotFound, playerID)
		}

		var priorSum float64
		if err := tx.Model(&models.AssignedKPI{}).
			Where("mission_id = ? AND player_id = ?", missionID, playerID).
			Select("COALESCE(SUM(kpi_component_delta_value), 0)").
			Scan(&priorSum).Error; err != nil {
			return storageError("sum prior deltas", err)
		}

		record = models.AssignedKPI{
			MissionID:              missionID,
			PlayerID:               playerID,
			TargetKPIComponent:     component.Code(),
			KPIComponentDeltaValue: delta,
			TotalDeltaValue:        priorSum + delta,
			Note:                   note,
		}
		if err := tx.Omit("Mission", "Player").Create(&record).Error; err != nil {
			return storageError("insert assigned kpi", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("📊 KPI recorded: mission=%d player=%d %s %+.2f → running total %.2f",
		missionID, playerID, component, delta, record.TotalDeltaValue)
	return &record, nil
}
