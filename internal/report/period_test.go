package report

import (
	"testing"
	"time"

	"github.com/podsight/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestDailyPeriod(t *testing.T) {
	p := DailyPeriod(time.Date(2025, 2, 3, 15, 42, 0, 0, time.UTC))

	assert.Equal(t, models.ReportTypeDaily, p.Type)
	assert.Equal(t, "2025-02-03", p.DateKey)
	assert.Equal(t, time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2025, 2, 4, 0, 0, 0, 0, time.UTC), p.End)
}

func TestWeeklyPeriod(t *testing.T) {
	monday := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	sunday := time.Date(2025, 2, 9, 0, 0, 0, 0, time.UTC)
	p := WeeklyPeriod(monday, sunday)

	assert.Equal(t, models.ReportTypeWeekly, p.Type)
	assert.Equal(t, "2025-W06", p.DateKey)
	assert.Equal(t, monday, p.Start)
	assert.Equal(t, time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC), p.End)
}

func TestMonthlyPeriod(t *testing.T) {
	p := MonthlyPeriod(2025, time.February)

	assert.Equal(t, "2025-02", p.DateKey)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), p.End)
}

func TestQuarterlyPeriod(t *testing.T) {
	t.Run("Q1", func(t *testing.T) {
		p := QuarterlyPeriod(2025, 1)
		assert.Equal(t, "2025-Q1", p.DateKey)
		assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), p.Start)
		assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), p.End)
	})

	t.Run("Q4 rolls over the year", func(t *testing.T) {
		p := QuarterlyPeriod(2025, 4)
		assert.Equal(t, "2025-Q4", p.DateKey)
		assert.Equal(t, time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), p.Start)
		assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), p.End)
	})
}

func TestQuarterOf(t *testing.T) {
	assert.Equal(t, 1, QuarterOf(time.March))
	assert.Equal(t, 2, QuarterOf(time.April))
	assert.Equal(t, 4, QuarterOf(time.December))
}
