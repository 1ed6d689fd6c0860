package jobs

import (
	"context"
	"log"
	"time"

	"github.com/podsight/internal/models"
	"github.com/podsight/internal/report"
	"github.com/robfig/cron/v3"
)

// CronManager owns the scheduled auto-generation triggers. Each tier runs as
// its own independent job; a failed run is logged and retried at the next
// scheduled slot.
type CronManager struct {
	cron     *cron.Cron
	pipeline *report.Pipeline
	logger   *log.Logger
}

// NewCronManager creates a new cron manager
func NewCronManager(pipeline *report.Pipeline, logger *log.Logger) *CronManager {
	if logger == nil {
		logger = log.Default()
	}
	return &CronManager{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		pipeline: pipeline,
		logger:   logger,
	}
}

// SetupJobs configures all scheduled jobs
func (cm *CronManager) SetupJobs() error {
	// Daily at 02:30 UTC: yesterday's daily report
	_, err := cm.cron.AddFunc("30 2 * * *", func() {
		yesterday := time.Now().UTC().AddDate(0, 0, -1)
		cm.run(report.DailyPeriod(yesterday))
	})
	if err != nil {
		return err
	}

	// Monday at 03:00 UTC: the completed Monday-Sunday week
	_, err = cm.cron.AddFunc("0 3 * * 1", func() {
		monday, sunday := lastWeekBounds(time.Now().UTC())
		cm.run(report.WeeklyPeriod(monday, sunday))
	})
	if err != nil {
		return err
	}

	// First of the month at 04:00 UTC: the completed month
	_, err = cm.cron.AddFunc("0 4 1 * *", func() {
		lastMonth := time.Now().UTC().AddDate(0, -1, 0)
		cm.run(report.MonthlyPeriod(lastMonth.Year(), lastMonth.Month()))
	})
	if err != nil {
		return err
	}

	// Quarter starts at 05:00 UTC: the completed quarter
	_, err = cm.cron.AddFunc("0 5 1 1,4,7,10 *", func() {
		prev := time.Now().UTC().AddDate(0, -3, 0)
		cm.run(report.QuarterlyPeriod(prev.Year(), report.QuarterOf(prev.Month())))
	})
	if err != nil {
		return err
	}

	cm.logger.Println("Cron jobs configured:")
	cm.logger.Println("  - Daily at 02:30 UTC: daily report")
	cm.logger.Println("  - Monday at 03:00 UTC: weekly report")
	cm.logger.Println("  - 1st at 04:00 UTC: monthly report")
	cm.logger.Println("  - Quarter start at 05:00 UTC: quarterly report")
	return nil
}

func (cm *CronManager) run(period report.Period) {
	cm.logger.Printf("Running scheduled %s report for %s...", period.Type, period.DateKey)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	generated, err := cm.pipeline.Generate(ctx, report.Request{
		Period:      period,
		Generation:  models.GenerationAuto,
		TriggeredBy: "system",
	})
	if err != nil {
		cm.logger.Printf("Scheduled %s report %s failed: %v", period.Type, period.DateKey, err)
		return
	}
	if generated == nil {
		cm.logger.Printf("Scheduled %s report %s skipped: not enough source data", period.Type, period.DateKey)
		return
	}
	cm.logger.Printf("Scheduled %s report %s done (id %d)", period.Type, period.DateKey, generated.ID)
}

// lastWeekBounds returns the Monday and Sunday of the week before the one
// containing now.
func lastWeekBounds(now time.Time) (time.Time, time.Time) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	thisMonday := day.AddDate(0, 0, -(weekday - 1))
	monday := thisMonday.AddDate(0, 0, -7)
	return monday, monday.AddDate(0, 0, 6)
}

// Start starts the cron scheduler
func (cm *CronManager) Start() {
	cm.logger.Println("Starting cron scheduler...")
	cm.cron.Start()
}

// Stop stops the cron scheduler
func (cm *CronManager) Stop() {
	cm.logger.Println("Stopping cron scheduler...")
	cm.cron.Stop()
}
