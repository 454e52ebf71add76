package services

import (
	"math"
	"strings"
	"sync"
	"testing"

	"mission-kpi-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordKPIRunningTotals(t *testing.T) {
	db := newTestDB(t)
	registry := NewRegistryService(db)
	engine := NewKPIEngineService(db)
	aggregator := NewAggregatorService(db)

	mission := newActiveMission(t, registry, "Deep Scan")
	registerTestPlayer(t, registry, 1, "Driller")
	registerTestPlayer(t, registry, 2, "Engineer")

	first, err := engine.RecordKPI(mission.ID, 1, models.KPIComponentKill, 10, "")
	require.NoError(t, err)
	assert.Equal(t, 10.0, first.TotalDeltaValue)

	// second component for the same player accumulates into the same total
	second, err := engine.RecordKPI(mission.ID, 1, models.KPIComponentDamage, 5, "")
	require.NoError(t, err)
	assert.Equal(t, 15.0, second.TotalDeltaValue)

	// other players keep independent totals
	third, err := engine.RecordKPI(mission.ID, 2, models.KPIComponentKill, 20, "")
	require.NoError(t, err)
	assert.Equal(t, 20.0, third.TotalDeltaValue)

	rows, err := aggregator.Leaderboard(mission.ID)
	require.NoError(t, err)
	assert.Equal(t, []LeaderboardRow{
		{PlayerID: 2, Total: 20},
		{PlayerID: 1, Total: 15},
	}, rows)
}

func TestRecordKPICompensatingDelta(t *testing.T) {
	db := newTestDB(t)
	registry := NewRegistryService(db)
	engine := NewKPIEngineService(db)
	aggregator := NewAggregatorService(db)

	mission := newActiveMission(t, registry, "Elimination")
	registerTestPlayer(t, registry, 1, "Scout")

	_, err := engine.RecordKPI(mission.ID, 1, models.KPIComponentNitra, 80, "")
	require.NoError(t, err)

	// a correction is a new record with a negative delta, not an edit
	corrected, err := engine.RecordKPI(mission.ID, 1, models.KPIComponentNitra, -30, "double-counted deposit")
	require.NoError(t, err)
	assert.Equal(t, 50.0, corrected.TotalDeltaValue)

	var count int64
	require.NoError(t, db.Model(&models.AssignedKPI{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	total, err := aggregator.TotalForPlayer(mission.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 50.0, total)
}

func TestRecordKPIRejectsInactiveMission(t *testing.T) {
	db := newTestDB(t)
	registry := NewRegistryService(db)
	engine := NewKPIEngineService(db)

	mission, err := registry.CreateMission(CreateMissionInput{Name: "Still Planned"})
	require.NoError(t, err)
	registerTestPlayer(t, registry, 1, "Driller")

	_, err = engine.RecordKPI(mission.ID, 1, models.KPIComponentKill, 1, "")
	require.ErrorIs(t, err, ErrInvalidState)

	_, err = registry.TransitionMission(mission.ID, models.MissionStateActive)
	require.NoError(t, err)
	_, err = registry.TransitionMission(mission.ID, models.MissionStateClosed)
	require.NoError(t, err)

	_, err = engine.RecordKPI(mission.ID, 1, models.KPIComponentKill, 1, "")
	require.ErrorIs(t, err, ErrInvalidState)

	// no partial writes on failure
	var count int64
	require.NoError(t, db.Model(&models.AssignedKPI{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestRecordKPIRejectsUnknownReferences(t *testing.T) {
	db := newTestDB(t)
	registry := NewRegistryService(db)
	engine := NewKPIEngineService(db)

	mission := newActiveMission(t, registry, "Refinery")
	registerTestPlayer(t, registry, 1, "Gunner")

	_, err := engine.RecordKPI(mission.ID+50, 1, models.KPIComponentKill, 1, "")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = engine.RecordKPI(mission.ID, 42, models.KPIComponentKill, 1, "")
	require.ErrorIs(t, err, ErrNotFound)

	var count int64
	require.NoError(t, db.Model(&models.AssignedKPI{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestRecordKPIValidation(t *testing.T) {
	db := newTestDB(t)
	registry := NewRegistryService(db)
	engine := NewKPIEngineService(db)

	mission := newActiveMission(t, registry, "Sabotage")
	registerTestPlayer(t, registry, 1, "Driller")

	_, err := engine.RecordKPI(mission.ID, 1, models.KPIComponent(99), 1, "")
	require.ErrorIs(t, err, ErrValidation)

	_, err = engine.RecordKPI(mission.ID, 1, models.KPIComponentKill, math.NaN(), "")
	require.ErrorIs(t, err, ErrValidation)

	_, err = engine.RecordKPI(mission.ID, 1, models.KPIComponentKill, math.Inf(1), "")
	require.ErrorIs(t, err, ErrValidation)

	_, err = engine.RecordKPI(mission.ID, 1, models.KPIComponentKill, math.Inf(-1), "")
	require.ErrorIs(t, err, ErrValidation)
}

func TestRecordKPINoteLength(t *testing.T) {
	db := newTestDB(t)
	registry := NewRegistryService(db)
	engine := NewKPIEngineService(db)

	mission := newActiveMission(t, registry, "Long Haul")
	registerTestPlayer(t, registry, 1, "Scout")

	// the limit counts runes, not bytes
	atLimit := strings.Repeat("ö", maxNoteLen)
	_, err := engine.RecordKPI(mission.ID, 1, models.KPIComponentKill, 1, atLimit)
	require.NoError(t, err)

	_, err = engine.RecordKPI(mission.ID, 1, models.KPIComponentKill, 1, atLimit+"x")
	require.ErrorIs(t, err, ErrValidation)
}

func TestRecordKPITotalMatchesRecomputedSum(t *testing.T) {
	db := newTestDB(t)
	registry := NewRegistryService(db)
	engine := NewKPIEngineService(db)
	aggregator := NewAggregatorService(db)

	mission := newActiveMission(t, registry, "Egg Hunt")
	registerTestPlayer(t, registry, 1, "Scout")

	deltas := []float64{12.5, -2.5, 7, 0.25, -1}
	for _, d := range deltas {
		_, err := engine.RecordKPI(mission.ID, 1, models.KPIComponentMinerals, d, "")
		require.NoError(t, err)
	}

	total, err := aggregator.TotalForPlayer(mission.ID, 1)
	require.NoError(t, err)

	latest, err := aggregator.LatestRecordTotal(mission.ID, 1)
	require.NoError(t, err)
	assert.InDelta(t, total, latest, 1e-9)
	assert.InDelta(t, 16.25, total, 1e-9)
}

func TestRecordKPIConcurrentWriters(t *testing.T) {
	db := newTestDB(t)
	registry := NewRegistryService(db)
	engine := NewKPIEngineService(db)
	aggregator := NewAggregatorService(db)

	mission := newActiveMission(t, registry, "Onslaught")
	registerTestPlayer(t, registry, 1, "Gunner")

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 1; i <= writers; i++ {
		wg.Add(1)
		go func(delta float64) {
			defer wg.Done()
			_, err := engine.RecordKPI(mission.ID, 1, models.KPIComponentKill, delta, "")
			errs <- err
		}(float64(i))
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	// every delta lands exactly once: total = 1+2+...+8
	total, err := aggregator.TotalForPlayer(mission.ID, 1)
	require.NoError(t, err)
	assert.InDelta(t, 36.0, total, 1e-9)

	latest, err := aggregator.LatestRecordTotal(mission.ID, 1)
	require.NoError(t, err)
	assert.InDelta(t, total, latest, 1e-9)

	var count int64
	require.NoError(t, db.Model(&models.AssignedKPI{}).Count(&count).Error)
	assert.Equal(t, int64(writers), count)
}
