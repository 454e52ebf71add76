package services

import (
	"errors"
	"fmt"

	"mission-kpi-system/models"

	"gorm.io/gorm"
)

// AggregatorService computes read-only rollups over the ledger. Every result
// is a pure function of committed state at call time; nothing here mutates
// or caches anything.
type AggregatorService struct {
	DB *gorm.DB
}

func NewAggregatorService(db *gorm.DB) *AggregatorService {
	return &AggregatorService{DB: db}
}

// LeaderboardRow is one (player, total) pair of a mission leaderboard.
type LeaderboardRow struct {
	PlayerID int16   `json:"player_id"`
	Total    float64 `json:"total"`
}

// TotalForPlayer sums every component delta for (mission, player). By the
// engine's invariant this equals the TotalDeltaValue of the pair's most
// recent record.
func (s *AggregatorService) TotalForPlayer(missionID int32, playerID int16) (float64, error) {
	var total float64
	if err := s.DB.Model(&models.AssignedKPI{}).
		Where("mission_id = ? AND player_id = ?", missionID, playerID).
		Select("COALESCE(SUM(kpi_component_delta_value), 0)").
		Scan(&total).Error; err != nil {
		return 0, storageError("sum deltas", err)
	}
	return total, nil
}

// TotalsByComponent returns per-component sums for (mission, player). Only
// components with at least one record appear as keys.
func (s *AggregatorService) TotalsByComponent(missionID int32, playerID int16) (map[models.KPIComponent]float64, error) {
	type row struct {
		TargetKPIComponent int16
		Total              float64
	}
	var rows []row
	if err := s.DB.Model(&models.AssignedKPI{}).
		Select("target_kpi_component, SUM(kpi_component_delta_value) AS total").
		Where("mission_id = ? AND player_id = ?", missionID, playerID).
		Group("target_kpi_component").
		Scan(&rows).Error; err != nil {
		return nil, storageError("sum deltas by component", err)
	}

	totals := make(map[models.KPIComponent]float64, len(rows))
	for _, r := range rows {
		component, err := models.KPIComponentFromCode(r.TargetKPIComponent)
		if err != nil {
			// A code outside the closed set can only mean ledger corruption.
			return nil, storageError("decode component", err)
		}
		totals[component] = r.Total
	}
	return totals, nil
}

// Leaderboard returns every player with records on the mission, ordered by
// total descending with ties broken by ascending player id, so repeated
// calls on the same ledger state produce the same sequence.
func (s *AggregatorService) Leaderboard(missionID int32) ([]LeaderboardRow, error) {
	rows := make([]LeaderboardRow, 0)
	if err := s.DB.Model(&models.AssignedKPI{}).
		Select("player_id, SUM(kpi_component_delta_value) AS total").
		Where("mission_id = ?", missionID).
		Group("player_id").
		Order("total DESC, player_id ASC").
		Scan(&rows).Error; err != nil {
		return nil, storageError("build leaderboard", err)
	}
	return rows, nil
}

// LatestRecordTotal returns the stored running total of the most recent
// record for (mission, player) — the value the audit invariant compares
// against the recomputed sum.
func (s *AggregatorService) LatestRecordTotal(missionID int32, playerID int16) (float64, error) {
	var record models.AssignedKPI
	if err := s.DB.
		Where("mission_id = ? AND player_id = ?", missionID, playerID).
		Order("id DESC").
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("%w: no KPI records for mission %d player %d", ErrNotFound, missionID, playerID)
		}
		return 0, storageError("load latest record", err)
	}
	return record.TotalDeltaValue, nil
}

// PlayerMissionTotal is one mission's rollup inside a player overview.
type PlayerMissionTotal struct {
	MissionID int32   `json:"mission_id"`
	Total     float64 `json:"total"`
}

// PlayerOverview is a per-player rollup across all valid missions.
type PlayerOverview struct {
	PlayerID    int16                `json:"player_id"`
	PlayerName  string               `json:"player_name"`
	Missions    []PlayerMissionTotal `json:"missions"`
	ByComponent map[string]float64   `json:"by_component"`
	Overall     float64              `json:"overall"`
}

// PlayerOverview aggregates one player's deltas across every mission that is
// not flagged invalid, per mission and per component.
func (s *AggregatorService) PlayerOverview(playerID int16) (*PlayerOverview, error) {
	var player models.Player
	if err := s.DB.First(&player, "id = ?", playerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: player %d", ErrNotFound, playerID)
		}
		return nil, storageError("load player", err)
	}

	overview := &PlayerOverview{
		PlayerID:    player.ID,
		PlayerName:  player.Name,
		Missions:    make([]PlayerMissionTotal, 0),
		ByComponent: make(map[string]float64),
	}

	if err := s.DB.Raw(`
		SELECT ak.mission_id, SUM(ak.kpi_component_delta_value) AS total
		FROM assigned_kpi ak
		INNER JOIN mission m ON m.id = ak.mission_id
		WHERE ak.player_id = ? AND m.invalid = ?
		GROUP BY ak.mission_id
		ORDER BY ak.mission_id ASC
	`, playerID, false).Scan(&overview.Missions).Error; err != nil {
		return nil, storageError("sum deltas per mission", err)
	}

	type componentRow struct {
		TargetKPIComponent int16
		Total              float64
	}
	var componentRows []componentRow
	if err := s.DB.Raw(`
		SELECT ak.target_kpi_component, SUM(ak.kpi_component_delta_value) AS total
		FROM assigned_kpi ak
		INNER JOIN mission m ON m.id = ak.mission_id
		WHERE ak.player_id = ? AND m.invalid = ?
		GROUP BY ak.target_kpi_component
	`, playerID, false).Scan(&componentRows).Error; err != nil {
		return nil, storageError("sum deltas per component", err)
	}

	for _, r := range componentRows {
		component, err := models.KPIComponentFromCode(r.TargetKPIComponent)
		if err != nil {
			return nil, storageError("decode component", err)
		}
		overview.ByComponent[component.String()] = r.Total
		overview.Overall += r.Total
	}
	return overview, nil
}
