package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRunSerializableRetriesUntilExhaustion(t *testing.T) {
	db := newTestDB(t)

	attempts := 0
	err := runSerializable(db, func(tx *gorm.DB) error {
		attempts++
		return errors.New("database is locked")
	})
	require.ErrorIs(t, err, ErrConflictRetry)
	assert.Equal(t, txMaxAttempts, attempts)
}

func TestRunSerializableStopsOnNonConflictError(t *testing.T) {
	db := newTestDB(t)

	boom := errors.New("constraint violated")
	attempts := 0
	err := runSerializable(db, func(tx *gorm.DB) error {
		attempts++
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrConflictRetry)
	assert.Equal(t, 1, attempts)
}

func TestStorageUnavailableSurfaces(t *testing.T) {
	db := newTestDB(t)
	aggregator := NewAggregatorService(db)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = aggregator.TotalForPlayer(1, 1)
	require.ErrorIs(t, err, ErrStorageUnavailable)
}
