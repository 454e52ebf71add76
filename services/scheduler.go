// services/scheduler.go
package services

import (
	"log"
	"time"

	"mission-kpi-system/models"
	"mission-kpi-system/utils"

	"github.com/go-co-op/gocron/v2"
)

// StartReportScheduler exports a report snapshot for every closed, valid
// mission that does not have one yet. Failed uploads are retried on the next
// tick because report_url stays empty.
func (s *ReportService) StartReportScheduler() {
	if !utils.R2Enabled() {
		log.Println("⚠️  Object storage not configured — report snapshot scheduler disabled")
		return
	}

	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every minute: export reports for freshly closed missions
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			var missions []models.Mission
			err := s.DB.Where("state = ? AND invalid = ? AND report_url = ?",
				models.MissionStateClosed, false, "").
				Find(&missions).Error
			if err != nil {
				log.Printf("[Reporter] DB error: %v", err)
				return
			}

			for _, m := range missions {
				url, err := s.ExportMissionReport(m.ID)
				if err != nil {
					log.Printf("[Reporter] Failed to export report for mission %d: %v", m.ID, err)
				} else {
					log.Printf("✅ Exported report for mission %d: %s", m.ID, url)
				}
			}
		}),
	)
}
