package report

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/podsight/internal/database"
	"github.com/podsight/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB opens an in-memory sqlite database with the full schema.
// TranslateError mirrors the production connection so duplicate-key
// detection behaves the same way under test.
func setupTestDB(t *testing.T) *gorm.DB {
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(
		sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)),
		&gorm.Config{TranslateError: true},
	)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

var episodeCounter = 0

func createEpisode(t *testing.T, db *gorm.DB, publishedAt time.Time, bullets ...string) models.Episode {
	episodeCounter++
	ep := models.Episode{
		VideoID:     fmt.Sprintf("vid-%d", episodeCounter),
		Title:       fmt.Sprintf("Episode %d", episodeCounter),
		ChannelName: "Test Channel",
		PublishedAt: publishedAt,
		Status:      models.EpisodeStatusPublished,
	}
	require.NoError(t, db.Create(&ep).Error)

	summary := models.EpisodeSummary{
		EpisodeID: ep.ID,
		Overview:  fmt.Sprintf("Overview of episode %d", episodeCounter),
	}
	require.NoError(t, db.Create(&summary).Error)

	for i, text := range bullets {
		bullet := models.SummaryBullet{
			EpisodeSummaryID: summary.ID,
			Position:         i,
			Text:             text,
		}
		require.NoError(t, db.Create(&bullet).Error)
	}
	return ep
}

// createBareEpisode creates a published episode without a summary, which the
// aggregator must ignore.
func createBareEpisode(t *testing.T, db *gorm.DB, publishedAt time.Time) models.Episode {
	episodeCounter++
	ep := models.Episode{
		VideoID:     fmt.Sprintf("vid-%d", episodeCounter),
		Title:       fmt.Sprintf("Episode %d", episodeCounter),
		PublishedAt: publishedAt,
		Status:      models.EpisodeStatusPublished,
	}
	require.NoError(t, db.Create(&ep).Error)
	return ep
}

// createReadyReport inserts a ready report row for the given period, linked
// to the given episodes.
func createReadyReport(t *testing.T, db *gorm.DB, p Period, episodeIDs ...uint) models.Report {
	now := time.Now().UTC()
	rep := models.Report{
		ReportType:       p.Type,
		DateKey:          p.DateKey,
		GenerationType:   models.GenerationAuto,
		PeriodStart:      p.Start,
		PeriodEnd:        p.End,
		Status:           models.ReportStatusReady,
		EpisodesIncluded: len(episodeIDs),
		Content:          `{"executiveSummary":"canned"}`,
		Summary:          "canned",
		GeneratedBy:      "system",
		GeneratedAt:      &now,
	}
	require.NoError(t, db.Create(&rep).Error)

	for _, id := range episodeIDs {
		require.NoError(t, db.Create(&models.ReportEpisodeLink{ReportID: rep.ID, EpisodeID: id}).Error)
	}
	return rep
}

type fakeLLM struct {
	response string
	err      error
	calls    int
}

func (f *fakeLLM) Complete(ctx context.Context, system, user string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type fakeNotifier struct {
	err   error
	calls int
	last  *models.Report
}

func (f *fakeNotifier) ReportReady(report *models.Report) error {
	f.calls++
	f.last = report
	return f.err
}
