package services

import (
	"path/filepath"
	"testing"

	"mission-kpi-system/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a throwaway SQLite ledger with the same schema the
// production store migrates to. _txlock=immediate serializes writers the way
// the serializable isolation level does on Postgres.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "ledger.db") +
		"?_busy_timeout=5000&_txlock=immediate&_foreign_keys=on&_journal_mode=WAL"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Mission{},
		&models.Player{},
		&models.AssignedKPI{},
	))
	return db
}

func newActiveMission(t *testing.T, registry *RegistryService, name string) *models.Mission {
	t.Helper()
	mission, err := registry.CreateMission(CreateMissionInput{
		Name:        name,
		MissionType: "mining_expedition",
		HazardID:    4,
	})
	require.NoError(t, err)
	mission, err = registry.TransitionMission(mission.ID, models.MissionStateActive)
	require.NoError(t, err)
	return mission
}

func registerTestPlayer(t *testing.T, registry *RegistryService, id int16, name string) *models.Player {
	t.Helper()
	player, err := registry.RegisterPlayer(id, RegisterPlayerInput{Name: name})
	require.NoError(t, err)
	return player
}
