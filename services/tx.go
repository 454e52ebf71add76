package services

import (
	"database/sql"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	txMaxAttempts = 5
	txBackoffBase = 25 * time.Millisecond
)

// runSerializable executes fn inside a serializable transaction so that a
// read-compute-write sequence (sum prior deltas, insert the new record) can
// never interleave with a concurrent writer and commit a stale total.
// Conflicting transactions are retried a bounded number of times with
// jittered backoff; exhaustion surfaces ErrConflictRetry.
func runSerializable(db *gorm.DB, fn func(tx *gorm.DB) error) error {
	var lastErr error
	for attempt := 1; attempt <= txMaxAttempts; attempt++ {
		err := db.Transaction(fn, &sql.TxOptions{Isolation: sql.LevelSerializable})
		if err == nil {
			return nil
		}
		if !isSerializationConflict(err) {
			return err
		}
		lastErr = err
		time.Sleep(txBackoffBase*time.Duration(attempt) + time.Duration(rand.Intn(20))*time.Millisecond)
	}
	return errors.Join(ErrConflictRetry, lastErr)
}

// isSerializationConflict matches the store's transient conflict signals:
// Postgres serialization_failure / deadlock_detected, and SQLite busy locks
// (the test store).
func isSerializationConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}
