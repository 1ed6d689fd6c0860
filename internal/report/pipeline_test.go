package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/podsight/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validWeeklyJSON = `{
	"executiveSummary": "A volatile week driven by earnings.",
	"emergingThemes": [{"name": "AI capex", "description": "Spending debate", "trajectory": "rising"}],
	"topInsights": ["Hyperscaler guidance diverged"],
	"sentiment": {"overall": "mixed", "weekStart": "cautious", "weekEnd": "optimistic"},
	"lookingAhead": "Jobs report next week."
}`

const validQuarterlyJSON = `{
	"executiveSummary": "The quarter closed risk-on.",
	"majorThemes": [{"name": "Soft landing", "description": "Consensus shifted", "trajectory": "stable"}],
	"predictions": ["Two cuts by year end"],
	"sentiment": {"overall": "bullish", "progression": ["bearish", "neutral", "bullish"]},
	"lookingAhead": "Earnings season."
}`

func TestGenerate_DailySkip(t *testing.T) {
	db := setupTestDB(t)
	llm := &fakeLLM{response: validDailyJSON}
	pipeline := NewPipeline(db, llm, nil, nil)
	ctx := context.Background()

	// One episode on the date: below the two-episode minimum.
	createEpisode(t, db, day(2025, 2, 3), "only point")

	generated, err := pipeline.Generate(ctx, Request{
		Period:      DailyPeriod(day(2025, 2, 3)),
		Generation:  models.GenerationAuto,
		TriggeredBy: "system",
	})
	require.NoError(t, err)
	assert.Nil(t, generated)
	assert.Equal(t, 0, llm.calls)

	var count int64
	require.NoError(t, db.Model(&models.Report{}).Count(&count).Error)
	assert.Zero(t, count, "a skipped tier must leave no report row")
}

func TestGenerate_DailySuccess(t *testing.T) {
	db := setupTestDB(t)
	llm := &fakeLLM{response: validDailyJSON}
	notifier := &fakeNotifier{}
	pipeline := NewPipeline(db, llm, notifier, nil)
	ctx := context.Background()

	ep1 := createEpisode(t, db, day(2025, 2, 3), "point a", "point b")
	ep2 := createEpisode(t, db, day(2025, 2, 3), "point c")

	generated, err := pipeline.Generate(ctx, Request{
		Period:      DailyPeriod(day(2025, 2, 3)),
		Generation:  models.GenerationAuto,
		TriggeredBy: "system",
	})
	require.NoError(t, err)
	require.NotNil(t, generated)

	assert.Equal(t, models.ReportStatusReady, generated.Status)
	assert.Equal(t, "2025-02-03", generated.DateKey)
	assert.Equal(t, 2, generated.EpisodesIncluded)
	assert.Equal(t, "Markets rallied on rate cut hopes.", generated.Summary)
	assert.NotEmpty(t, generated.Content)
	require.NotNil(t, generated.GeneratedAt)

	var links []models.ReportEpisodeLink
	require.NoError(t, db.Where("report_id = ?", generated.ID).Find(&links).Error)
	require.Len(t, links, 2)
	linked := map[uint]bool{links[0].EpisodeID: true, links[1].EpisodeID: true}
	assert.True(t, linked[ep1.ID])
	assert.True(t, linked[ep2.ID])

	var themes []models.ReportTheme
	require.NoError(t, db.Where("report_id = ?", generated.ID).Find(&themes).Error)
	require.Len(t, themes, 1)
	assert.Equal(t, "Rate cuts", themes[0].Name)
	assert.InDelta(t, 0.9, themes[0].Prominence, 0.001)

	assert.Equal(t, 1, notifier.calls)
}

func TestGenerate_AutoIdempotency(t *testing.T) {
	db := setupTestDB(t)
	llm := &fakeLLM{response: validDailyJSON}
	pipeline := NewPipeline(db, llm, nil, nil)
	ctx := context.Background()

	createEpisode(t, db, day(2025, 2, 3), "a")
	createEpisode(t, db, day(2025, 2, 3), "b")

	req := Request{
		Period:      DailyPeriod(day(2025, 2, 3)),
		Generation:  models.GenerationAuto,
		TriggeredBy: "system",
	}

	first, err := pipeline.Generate(ctx, req)
	require.NoError(t, err)
	second, err := pipeline.Generate(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, llm.calls, "second auto trigger must not re-synthesize")
}

func TestGenerate_ManualReplacesReady(t *testing.T) {
	db := setupTestDB(t)
	llm := &fakeLLM{response: validDailyJSON}
	pipeline := NewPipeline(db, llm, nil, nil)
	ctx := context.Background()

	createEpisode(t, db, day(2025, 2, 3), "a")
	createEpisode(t, db, day(2025, 2, 3), "b")

	period := DailyPeriod(day(2025, 2, 3))
	first, err := pipeline.Generate(ctx, Request{Period: period, Generation: models.GenerationAuto, TriggeredBy: "system"})
	require.NoError(t, err)

	// A third episode lands before the manual regeneration.
	createEpisode(t, db, day(2025, 2, 3), "c")

	second, err := pipeline.Generate(ctx, Request{Period: period, Generation: models.GenerationManual, TriggeredBy: "42"})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 3, second.EpisodesIncluded, "regeneration must match the fresh aggregation")
	assert.Equal(t, models.GenerationManual, second.GenerationType)
	assert.Equal(t, "42", second.GeneratedBy)

	var oldLinks, oldThemes int64
	require.NoError(t, db.Model(&models.ReportEpisodeLink{}).Where("report_id = ?", first.ID).Count(&oldLinks).Error)
	require.NoError(t, db.Model(&models.ReportTheme{}).Where("report_id = ?", first.ID).Count(&oldThemes).Error)
	assert.Zero(t, oldLinks, "old links must be deleted, not merged")
	assert.Zero(t, oldThemes, "old themes must be deleted, not merged")
}

func TestGenerate_WeeklyEpisodeFallback(t *testing.T) {
	db := setupTestDB(t)
	llm := &fakeLLM{response: validWeeklyJSON}
	pipeline := NewPipeline(db, llm, nil, nil)
	ctx := context.Background()

	// No daily reports exist, but five episodes were published in the week.
	for i := 0; i < 5; i++ {
		createEpisode(t, db, day(2025, 2, 3+i), "point")
	}

	generated, err := pipeline.Generate(ctx, Request{
		Period:      WeeklyPeriod(day(2025, 2, 3), day(2025, 2, 9)),
		Generation:  models.GenerationAuto,
		TriggeredBy: "system",
	})
	require.NoError(t, err)
	require.NotNil(t, generated)

	assert.Equal(t, models.ReportStatusReady, generated.Status)
	assert.Equal(t, 5, generated.EpisodesIncluded)
}

func TestGenerate_WeeklyTransitiveLinkage(t *testing.T) {
	db := setupTestDB(t)
	llm := &fakeLLM{response: validWeeklyJSON}
	pipeline := NewPipeline(db, llm, nil, nil)
	ctx := context.Background()

	ep1 := createEpisode(t, db, day(2025, 2, 3), "a")
	ep2 := createEpisode(t, db, day(2025, 2, 3), "b")
	ep3 := createEpisode(t, db, day(2025, 2, 4), "c")

	// Two daily reports sharing one episode: the weekly count must dedup.
	createReadyReport(t, db, DailyPeriod(day(2025, 2, 3)), ep1.ID, ep2.ID)
	createReadyReport(t, db, DailyPeriod(day(2025, 2, 4)), ep2.ID, ep3.ID)

	generated, err := pipeline.Generate(ctx, Request{
		Period:      WeeklyPeriod(day(2025, 2, 3), day(2025, 2, 9)),
		Generation:  models.GenerationAuto,
		TriggeredBy: "system",
	})
	require.NoError(t, err)
	require.NotNil(t, generated)

	assert.Equal(t, 3, generated.EpisodesIncluded)

	var links int64
	require.NoError(t, db.Model(&models.ReportEpisodeLink{}).Where("report_id = ?", generated.ID).Count(&links).Error)
	assert.EqualValues(t, 3, links)
}

func TestGenerate_QuarterlyCascade(t *testing.T) {
	db := setupTestDB(t)
	llm := &fakeLLM{response: validQuarterlyJSON}
	pipeline := NewPipeline(db, llm, nil, nil)
	ctx := context.Background()

	// No monthly or weekly reports; ten daily reports spread over the quarter.
	var episodeIDs []uint
	for i := 0; i < 10; i++ {
		date := day(2025, 1, 2).AddDate(0, 0, i*8)
		ep := createEpisode(t, db, date, "point")
		episodeIDs = append(episodeIDs, ep.ID)
		createReadyReport(t, db, DailyPeriod(date), ep.ID)
	}

	generated, err := pipeline.Generate(ctx, Request{
		Period:      QuarterlyPeriod(2025, 1),
		Generation:  models.GenerationAuto,
		TriggeredBy: "system",
	})
	require.NoError(t, err)
	require.NotNil(t, generated)

	assert.Equal(t, models.ReportStatusReady, generated.Status)
	assert.Equal(t, len(episodeIDs), generated.EpisodesIncluded)
}

func TestGenerate_SynthesisFailure(t *testing.T) {
	t.Run("model error marks the row failed", func(t *testing.T) {
		db := setupTestDB(t)
		llm := &fakeLLM{err: errors.New("service unreachable")}
		pipeline := NewPipeline(db, llm, nil, nil)
		ctx := context.Background()

		createEpisode(t, db, day(2025, 2, 3), "a")
		createEpisode(t, db, day(2025, 2, 3), "b")

		_, err := pipeline.Generate(ctx, Request{
			Period:      DailyPeriod(day(2025, 2, 3)),
			Generation:  models.GenerationAuto,
			TriggeredBy: "system",
		})
		require.Error(t, err)

		var row models.Report
		require.NoError(t, db.Where("report_type = ? AND date_key = ?", models.ReportTypeDaily, "2025-02-03").First(&row).Error)
		assert.Equal(t, models.ReportStatusFailed, row.Status)
		assert.Contains(t, row.Summary, "service unreachable")
	})

	t.Run("contract violation marks the row failed", func(t *testing.T) {
		db := setupTestDB(t)
		llm := &fakeLLM{response: `{"insights": [], "themes": []}`}
		pipeline := NewPipeline(db, llm, nil, nil)
		ctx := context.Background()

		createEpisode(t, db, day(2025, 2, 3), "a")
		createEpisode(t, db, day(2025, 2, 3), "b")

		_, err := pipeline.Generate(ctx, Request{
			Period:      DailyPeriod(day(2025, 2, 3)),
			Generation:  models.GenerationAuto,
			TriggeredBy: "system",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "executiveSummary")

		var row models.Report
		require.NoError(t, db.Where("report_type = ? AND date_key = ?", models.ReportTypeDaily, "2025-02-03").First(&row).Error)
		assert.Equal(t, models.ReportStatusFailed, row.Status)
	})

	t.Run("auto retry after failure proceeds", func(t *testing.T) {
		db := setupTestDB(t)
		llm := &fakeLLM{err: errors.New("boom")}
		pipeline := NewPipeline(db, llm, nil, nil)
		ctx := context.Background()

		createEpisode(t, db, day(2025, 2, 3), "a")
		createEpisode(t, db, day(2025, 2, 3), "b")

		req := Request{
			Period:      DailyPeriod(day(2025, 2, 3)),
			Generation:  models.GenerationAuto,
			TriggeredBy: "system",
		}

		_, err := pipeline.Generate(ctx, req)
		require.Error(t, err)

		llm.err = nil
		llm.response = validDailyJSON
		generated, err := pipeline.Generate(ctx, req)
		require.NoError(t, err)
		require.NotNil(t, generated)
		assert.Equal(t, models.ReportStatusReady, generated.Status)
	})
}

func TestGenerate_InvalidSentimentStillReady(t *testing.T) {
	db := setupTestDB(t)
	llm := &fakeLLM{response: `{
		"executiveSummary": "Fine.",
		"insights": ["a"],
		"themes": [],
		"sentiment": {"overall": "euphoric"}
	}`}
	pipeline := NewPipeline(db, llm, nil, nil)
	ctx := context.Background()

	createEpisode(t, db, day(2025, 2, 3), "a")
	createEpisode(t, db, day(2025, 2, 3), "b")

	generated, err := pipeline.Generate(ctx, Request{
		Period:      DailyPeriod(day(2025, 2, 3)),
		Generation:  models.GenerationAuto,
		TriggeredBy: "system",
	})
	require.NoError(t, err)
	require.NotNil(t, generated)
	assert.Equal(t, models.ReportStatusReady, generated.Status)
	assert.Contains(t, generated.Content, `"overall":"mixed"`)
}

func TestGenerate_NotifierFailureIsNonFatal(t *testing.T) {
	db := setupTestDB(t)
	llm := &fakeLLM{response: validDailyJSON}
	notifier := &fakeNotifier{err: errors.New("slack down")}
	pipeline := NewPipeline(db, llm, notifier, nil)
	ctx := context.Background()

	createEpisode(t, db, day(2025, 2, 3), "a")
	createEpisode(t, db, day(2025, 2, 3), "b")

	generated, err := pipeline.Generate(ctx, Request{
		Period:      DailyPeriod(day(2025, 2, 3)),
		Generation:  models.GenerationAuto,
		TriggeredBy: "system",
	})
	require.NoError(t, err)
	require.NotNil(t, generated)
	assert.Equal(t, models.ReportStatusReady, generated.Status)
	assert.Equal(t, 1, notifier.calls)
}

func TestGenerate_GeneratingRowDedups(t *testing.T) {
	db := setupTestDB(t)
	llm := &fakeLLM{response: validDailyJSON}
	pipeline := NewPipeline(db, llm, nil, nil)
	ctx := context.Background()

	period := DailyPeriod(day(2025, 2, 3))
	stuck := models.Report{
		ReportType:     period.Type,
		DateKey:        period.DateKey,
		GenerationType: models.GenerationAuto,
		PeriodStart:    period.Start,
		PeriodEnd:      period.End,
		Status:         models.ReportStatusGenerating,
		GeneratedBy:    "system",
	}
	require.NoError(t, db.Create(&stuck).Error)

	for _, generation := range []models.GenerationType{models.GenerationAuto, models.GenerationManual} {
		generated, err := pipeline.Generate(ctx, Request{Period: period, Generation: generation, TriggeredBy: "system"})
		require.NoError(t, err)
		require.NotNil(t, generated)
		assert.Equal(t, stuck.ID, generated.ID)
	}
	assert.Equal(t, 0, llm.calls)
}

// Guards the exact shape persisted for display surfaces.
func TestGenerate_PeriodBoundsStored(t *testing.T) {
	db := setupTestDB(t)
	llm := &fakeLLM{response: validDailyJSON}
	pipeline := NewPipeline(db, llm, nil, nil)
	ctx := context.Background()

	createEpisode(t, db, day(2025, 2, 3), "a")
	createEpisode(t, db, day(2025, 2, 3), "b")

	generated, err := pipeline.Generate(ctx, Request{
		Period:      DailyPeriod(day(2025, 2, 3)),
		Generation:  models.GenerationAuto,
		TriggeredBy: "system",
	})
	require.NoError(t, err)

	assert.True(t, generated.PeriodStart.Equal(time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)))
	assert.True(t, generated.PeriodEnd.Equal(time.Date(2025, 2, 4, 0, 0, 0, 0, time.UTC)))
}
