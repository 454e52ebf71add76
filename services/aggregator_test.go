package services

import (
	"testing"

	"mission-kpi-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalsByComponent(t *testing.T) {
	db := newTestDB(t)
	registry := NewRegistryService(db)
	engine := NewKPIEngineService(db)
	aggregator := NewAggregatorService(db)

	mission := newActiveMission(t, registry, "Mining Expedition")
	registerTestPlayer(t, registry, 1, "Driller")

	_, err := engine.RecordKPI(mission.ID, 1, models.KPIComponentKill, 7, "")
	require.NoError(t, err)
	_, err = engine.RecordKPI(mission.ID, 1, models.KPIComponentKill, 3, "")
	require.NoError(t, err)
	_, err = engine.RecordKPI(mission.ID, 1, models.KPIComponentNitra, 120, "")
	require.NoError(t, err)

	totals, err := aggregator.TotalsByComponent(mission.ID, 1)
	require.NoError(t, err)

	// only components with records appear as keys
	assert.Len(t, totals, 2)
	assert.Equal(t, 10.0, totals[models.KPIComponentKill])
	assert.Equal(t, 120.0, totals[models.KPIComponentNitra])
	_, present := totals[models.KPIComponentDeath]
	assert.False(t, present)
}

func TestLeaderboardOrdering(t *testing.T) {
	db := newTestDB(t)
	registry := NewRegistryService(db)
	engine := NewKPIEngineService(db)
	aggregator := NewAggregatorService(db)

	mission := newActiveMission(t, registry, "Escort Duty")
	registerTestPlayer(t, registry, 1, "Driller")
	registerTestPlayer(t, registry, 2, "Engineer")
	registerTestPlayer(t, registry, 3, "Gunner")

	_, err := engine.RecordKPI(mission.ID, 1, models.KPIComponentKill, 15, "")
	require.NoError(t, err)
	_, err = engine.RecordKPI(mission.ID, 2, models.KPIComponentKill, 30, "")
	require.NoError(t, err)
	_, err = engine.RecordKPI(mission.ID, 3, models.KPIComponentDamage, 15, "")
	require.NoError(t, err)

	rows, err := aggregator.Leaderboard(mission.ID)
	require.NoError(t, err)

	// ties break on ascending player id, so the order is stable
	assert.Equal(t, []LeaderboardRow{
		{PlayerID: 2, Total: 30},
		{PlayerID: 1, Total: 15},
		{PlayerID: 3, Total: 15},
	}, rows)

	again, err := aggregator.Leaderboard(mission.ID)
	require.NoError(t, err)
	assert.Equal(t, rows, again)
}

func TestLeaderboardScopesToMission(t *testing.T) {
	db := newTestDB(t)
	registry := NewRegistryService(db)
	engine := NewKPIEngineService(db)
	aggregator := NewAggregatorService(db)

	first := newActiveMission(t, registry, "First Drop")
	second := newActiveMission(t, registry, "Second Drop")
	registerTestPlayer(t, registry, 1, "Scout")

	_, err := engine.RecordKPI(first.ID, 1, models.KPIComponentKill, 5, "")
	require.NoError(t, err)
	_, err = engine.RecordKPI(second.ID, 1, models.KPIComponentKill, 99, "")
	require.NoError(t, err)

	rows, err := aggregator.Leaderboard(first.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 5.0, rows[0].Total)
}

func TestAggregatorEmptyResults(t *testing.T) {
	db := newTestDB(t)
	registry := NewRegistryService(db)
	aggregator := NewAggregatorService(db)

	mission := newActiveMission(t, registry, "Quiet Run")
	registerTestPlayer(t, registry, 1, "Driller")

	total, err := aggregator.TotalForPlayer(mission.ID, 1)
	require.NoError(t, err)
	assert.Zero(t, total)

	totals, err := aggregator.TotalsByComponent(mission.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, totals)

	rows, err := aggregator.Leaderboard(mission.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = aggregator.LatestRecordTotal(mission.ID, 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPlayerOverview(t *testing.T) {
	db := newTestDB(t)
	registry := NewRegistryService(db)
	engine := NewKPIEngineService(db)
	aggregator := NewAggregatorService(db)

	good := newActiveMission(t, registry, "Good Run")
	tainted := newActiveMission(t, registry, "Tainted Run")
	registerTestPlayer(t, registry, 1, "Engineer")

	_, err := engine.RecordKPI(good.ID, 1, models.KPIComponentKill, 12, "")
	require.NoError(t, err)
	_, err = engine.RecordKPI(good.ID, 1, models.KPIComponentRevive, 2, "")
	require.NoError(t, err)
	_, err = engine.RecordKPI(tainted.ID, 1, models.KPIComponentKill, 100, "")
	require.NoError(t, err)

	// invalid missions drop out of the overview entirely
	_, err = registry.SetMissionInvalid(tainted.ID, true, "host migration desync")
	require.NoError(t, err)

	overview, err := aggregator.PlayerOverview(1)
	require.NoError(t, err)
	assert.Equal(t, "Engineer", overview.PlayerName)
	require.Len(t, overview.Missions, 1)
	assert.Equal(t, good.ID, overview.Missions[0].MissionID)
	assert.Equal(t, 14.0, overview.Missions[0].Total)
	assert.Equal(t, 12.0, overview.ByComponent["kill"])
	assert.Equal(t, 2.0, overview.ByComponent["revive"])
	assert.Equal(t, 14.0, overview.Overall)

	_, err = aggregator.PlayerOverview(99)
	require.ErrorIs(t, err, ErrNotFound)
}
