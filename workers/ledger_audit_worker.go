// workers/ledger_audit_worker.go
package workers

import (
	"context"
	"log"
	"math"
	"time"

	"mission-kpi-system/models"

	"gorm.io/gorm"
)

// totalEpsilon absorbs float64 summation noise when comparing a recomputed
// sum with a stored running total.
const totalEpsilon = 1e-9

// LedgerAuditor re-derives per-pair totals from the raw deltas and compares
// them with the stored running totals. It is read-only: drift can only mean
// a bug or out-of-band tampering, and rows are never "fixed" in place.
type LedgerAuditor struct {
	DB *gorm.DB
}

func NewLedgerAuditor(db *gorm.DB) *LedgerAuditor {
	return &LedgerAuditor{DB: db}
}

// pairTotal is one (mission, player) pair with its recomputed sum.
type pairTotal struct {
	MissionID int32
	PlayerID  int16
	Total     float64
}

// AuditOnce checks every (mission, player) pair and returns how many pairs
// drifted. The recomputed SUM of deltas must equal the TotalDeltaValue of
// the pair's most recent record.
func (a *LedgerAuditor) AuditOnce(ctx context.Context) (int, error) {
	var pairs []pairTotal
	if err := a.DB.WithContext(ctx).Model(&models.AssignedKPI{}).
		Select("mission_id, player_id, SUM(kpi_component_delta_value) AS total").
		Group("mission_id").Group("player_id").
		Scan(&pairs).Error; err != nil {
		return 0, err
	}

	drifted := 0
	for _, pair := range pairs {
		var latest models.AssignedKPI
		if err := a.DB.WithContext(ctx).
			Where("mission_id = ? AND player_id = ?", pair.MissionID, pair.PlayerID).
			Order("id DESC").
			First(&latest).Error; err != nil {
			return drifted, err
		}
		if math.Abs(latest.TotalDeltaValue-pair.Total) > totalEpsilon {
			drifted++
			log.Printf("❌ [Auditor] Drift on mission=%d player=%d: stored total %.6f, recomputed %.6f",
				pair.MissionID, pair.PlayerID, latest.TotalDeltaValue, pair.Total)
		}
	}
	return drifted, nil
}

// PollLedger runs AuditOnce on a fixed cadence until the context is
// cancelled.
func PollLedger(ctx context.Context, auditor *LedgerAuditor, pollInterval time.Duration) {
	log.Println("Starting ledger audit polling...")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Ledger audit polling stopped.")
			return
		case <-ticker.C:
			drifted, err := auditor.AuditOnce(ctx)
			if err != nil {
				log.Printf("❌ [Auditor] Audit pass failed: %v", err)
				continue
			}
			if drifted > 0 {
				log.Printf("❌ [Auditor] %d pair(s) drifted from their stored running totals", drifted)
			} else {
				log.Println("✅ [Auditor] All stored running totals match recomputed sums")
			}
		}
	}
}
