package models

import (
	"time"
)

// AssignedKPI is one immutable ledger fact: a component-scoped delta for a
// (mission, player) pair, plus the running cumulative total for that pair at
// insert time. Corrections are new rows with compensating deltas — there is
// no update path anywhere in the services.
type AssignedKPI struct {
	ID                     int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	MissionID              int32     `json:"mission_id" gorm:"not null;index:idx_assigned_kpi_pair,priority:1"`
	PlayerID               int16     `json:"player_id" gorm:"not null;index:idx_assigned_kpi_pair,priority:2"`
	TargetKPIComponent     int16     `json:"target_kpi_component" gorm:"column:target_kpi_component;not null"`
	KPIComponentDeltaValue float64   `json:"kpi_component_delta_value" gorm:"column:kpi_component_delta_value;not null"`
	TotalDeltaValue        float64   `json:"total_delta_value" gorm:"column:total_delta_value;not null"`
	Note                   string    `json:"note"`
	CreatedAt              time.Time `json:"created_at" gorm:"autoCreateTime"`

	// Relationships (enforce FKs at the storage layer)
	Mission Mission `json:"-" gorm:"foreignKey:MissionID"`
	Player  Player  `json:"-" gorm:"foreignKey:PlayerID"`
}

// TableName pins the schema name (singular, matches the ledger schema).
func (AssignedKPI) TableName() string { return "assigned_kpi" }

// Component returns the record's target component as the typed enum.
func (a *AssignedKPI) Component() KPIComponent {
	return KPIComponent(a.TargetKPIComponent)
}
