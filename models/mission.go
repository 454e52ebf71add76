package models

import (
	"time"
)

// Mission lifecycle states. Transitions are one-directional:
// planned → active → closed.
const (
	MissionStatePlanned = "planned"
	MissionStateActive  = "active"
	MissionStateClosed  = "closed"
)

// Mission is a bounded work unit with a roster of participating players.
// Rows are never physically deleted while assigned_kpi records reference them.
type Mission struct {
	ID          int32  `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string `json:"name" gorm:"not null"`
	Codename    string `json:"codename" gorm:"index"` // slug of Name, used in report object keys
	MissionType string `json:"mission_type"`
	HazardID    int16  `json:"hazard_id" gorm:"default:0"`
	State       string `json:"state" gorm:"type:varchar(16);not null;default:'planned'"`

	// Admin flag: invalid missions stay in the ledger but are excluded
	// from cross-mission player overviews and report snapshots.
	Invalid       bool   `json:"invalid" gorm:"default:false"`
	InvalidReason string `json:"invalid_reason,omitempty"`

	// Set once the closed-mission report snapshot has been exported.
	ReportURL string `json:"report_url,omitempty"`

	StartedAt *time.Time `json:"started_at,omitempty"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName pins the schema name (singular, matches the ledger schema).
func (Mission) TableName() string { return "mission" }

// ValidMissionState reports whether s is one of the known lifecycle states.
func ValidMissionState(s string) bool {
	switch s {
	case MissionStatePlanned, MissionStateActive, MissionStateClosed:
		return true
	}
	return false
}

// CanTransition reports whether a mission may move from one state to the
// target. The machine never moves backwards.
func CanTransition(from, to string) bool {
	switch from {
	case MissionStatePlanned:
		return to == MissionStateActive
	case MissionStateActive:
		return to == MissionStateClosed
	}
	return false
}
