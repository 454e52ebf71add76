package models

import (
	"time"
)

// Player identity is immutable once created. The ID is a small caller-supplied
// integer (1..32767) assigned by the game side, not generated here.
type Player struct {
	ID          int16  `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Name        string `json:"name" gorm:"uniqueIndex;not null"`
	Watchlisted bool   `json:"watchlisted" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName pins the schema name (singular, matches the ledger schema).
func (Player) TableName() string { return "player" }
