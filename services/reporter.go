package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"mission-kpi-system/models"
	"mission-kpi-system/utils"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

// ReportService renders closed-mission report snapshots and exports them to
// object storage. Snapshots are derived artifacts — the ledger stays the
// single source of truth and a snapshot can always be regenerated from it.
type ReportService struct {
	DB         *gorm.DB
	Aggregator *AggregatorService
}

func NewReportService(db *gorm.DB, aggregator *AggregatorService) *ReportService {
	return &ReportService{DB: db, Aggregator: aggregator}
}

// PlayerReportEntry is one player's section of a mission report.
type PlayerReportEntry struct {
	PlayerID    int16              `json:"player_id"`
	PlayerName  string             `json:"player_name"`
	Total       float64            `json:"total"`
	ByComponent map[string]float64 `json:"by_component"`
}

// MissionReport is the exported snapshot for one closed mission.
type MissionReport struct {
	MissionID          int32               `json:"mission_id"`
	Name               string              `json:"name"`
	Codename           string              `json:"codename"`
	MissionType        string              `json:"mission_type"`
	MissionTypeDisplay string              `json:"mission_type_display"`
	HazardID           int16               `json:"hazard_id"`
	KPIVersion         string              `json:"kpi_version"`
	GeneratedAt        time.Time           `json:"generated_at"`
	Leaderboard        []LeaderboardRow    `json:"leaderboard"`
	Players            []PlayerReportEntry `json:"players"`
}

var titleCaser = cases.Title(language.English)

// displayName turns a machine identifier like "mining_expedition" into
// "Mining Expedition" for the report.
func displayName(id string) string {
	if id == "" {
		return ""
	}
	return titleCaser.String(strings.ReplaceAll(id, "_", " "))
}

// BuildMissionReport assembles the snapshot for one mission. The mission
// must be closed and not flagged invalid.
func (s *ReportService) BuildMissionReport(missionID int32) (*MissionReport, error) {
	var mission models.Mission
	if err := s.DB.First(&mission, "id = ?", missionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: mission %d", ErrNotFound, missionID)
		}
		return nil, storageError("load mission", err)
	}
	if mission.State != models.MissionStateClosed {
		return nil, fmt.Errorf("%w: mission %d is %s, reports require a closed mission", ErrInvalidState, missionID, mission.State)
	}
	if mission.Invalid {
		return nil, fmt.Errorf("%w: mission %d is flagged invalid (%s)", ErrInvalidState, missionID, mission.InvalidReason)
	}

	leaderboard, err := s.Aggregator.Leaderboard(missionID)
	if err != nil {
		return nil, err
	}

	playerNames := make(map[int16]string)
	var players []models.Player
	if err := s.DB.Find(&players).Error; err != nil {
		return nil, storageError("list players", err)
	}
	for _, p := range players {
		playerNames[p.ID] = p.Name
	}

	report := &MissionReport{
		MissionID:          mission.ID,
		Name:               mission.Name,
		Codename:           mission.Codename,
		MissionType:        mission.MissionType,
		MissionTypeDisplay: displayName(mission.MissionType),
		HazardID:           mission.HazardID,
		KPIVersion:         models.KPIVersion,
		GeneratedAt:        time.Now().UTC(),
		Leaderboard:        leaderboard,
		Players:            make([]PlayerReportEntry, 0, len(leaderboard)),
	}

	for _, row := range leaderboard {
		byComponent, err := s.Aggregator.TotalsByComponent(missionID, row.PlayerID)
		if err != nil {
			return nil, err
		}
		named := make(map[string]float64, len(byComponent))
		for component, total := range byComponent {
			named[component.String()] = total
		}
		report.Players = append(report.Players, PlayerReportEntry{
			PlayerID:    row.PlayerID,
			PlayerName:  playerNames[row.PlayerID],
			Total:       row.Total,
			ByComponent: named,
		})
	}
	return report, nil
}

// ExportMissionReport builds the snapshot, uploads it to object storage and
// records the object URL on the mission row. Returns the public URL.
func (s *ReportService) ExportMissionReport(missionID int32) (string, error) {
	report, err := s.BuildMissionReport(missionID)
	if err != nil {
		return "", err
	}

	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal mission report: %w", err)
	}

	key := fmt.Sprintf("reports/%s-%s.json", report.Codename, uuid.NewString())
	url, err := utils.UploadBytesToR2(payload, key, "application/json")
	if err != nil {
		return "", fmt.Errorf("upload mission report: %w", err)
	}

	if err := s.DB.Model(&models.Mission{}).
		Where("id = ?", missionID).
		Update("report_url", url).Error; err != nil {
		return "", storageError("record report url", err)
	}
	return url, nil
}
