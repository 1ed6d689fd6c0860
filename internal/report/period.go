package report

import (
	"fmt"
	"time"

	"github.com/podsight/internal/models"
)

// Period is one instance of a report tier: its canonical key and UTC bounds.
// End is exclusive, so source queries are always [Start, End).
type Period struct {
	Type    models.ReportType
	DateKey string
	Start   time.Time
	End     time.Time
}

// DailyPeriod covers one calendar date, midnight to midnight UTC.
func DailyPeriod(date time.Time) Period {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return Period{
		Type:    models.ReportTypeDaily,
		DateKey: start.Format("2006-01-02"),
		Start:   start,
		End:     start.AddDate(0, 0, 1),
	}
}

// WeeklyPeriod covers the week bounded by the given Monday and Sunday.
// The caller owns the day-of-week computation; no validation happens here.
func WeeklyPeriod(monday, sunday time.Time) Period {
	start := time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(sunday.Year(), sunday.Month(), sunday.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	year, week := start.ISOWeek()
	return Period{
		Type:    models.ReportTypeWeekly,
		DateKey: fmt.Sprintf("%d-W%02d", year, week),
		Start:   start,
		End:     end,
	}
}

// MonthlyPeriod covers one calendar month.
func MonthlyPeriod(year int, month time.Month) Period {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Period{
		Type:    models.ReportTypeMonthly,
		DateKey: start.Format("2006-01"),
		Start:   start,
		End:     start.AddDate(0, 1, 0),
	}
}

// QuarterlyPeriod covers one calendar quarter. The exclusive end is the
// first day of the next quarter, which handles the Q4 year rollover.
func QuarterlyPeriod(year, quarter int) Period {
	startMonth := time.Month((quarter-1)*3 + 1)
	start := time.Date(year, startMonth, 1, 0, 0, 0, 0, time.UTC)
	return Period{
		Type:    models.ReportTypeQuarterly,
		DateKey: fmt.Sprintf("%d-Q%d", year, quarter),
		Start:   start,
		End:     start.AddDate(0, 3, 0),
	}
}

// QuarterOf returns the quarter number (1-4) containing the given month.
func QuarterOf(month time.Month) int {
	return (int(month)-1)/3 + 1
}
