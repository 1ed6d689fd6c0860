package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/podsight/internal/models"
	"gorm.io/gorm"
)

// ErrInsufficientData is returned when no fallback level yields enough
// source material. Callers treat it as "skipped", not as a failure.
var ErrInsufficientData = errors.New("insufficient data for report generation")

// minDailyEpisodes is the minimum number of summarized episodes a day must
// have before a daily report is worth generating.
const minDailyEpisodes = 2

// SourceLevel identifies which level of the fallback chain supplied the
// source material.
type SourceLevel string

const (
	SourceEpisodes       SourceLevel = "episodes"
	SourceDailyReports   SourceLevel = "daily_reports"
	SourceWeeklyReports  SourceLevel = "weekly_reports"
	SourceMonthlyReports SourceLevel = "monthly_reports"
)

// SourceArtifact is one unit of synthesis input: either an episode summary
// or a subordinate report, flattened to a labeled text payload.
type SourceArtifact struct {
	Label        string
	Date         time.Time
	Title        string
	Body         string
	EpisodeCount int
}

// SourceSet is the aggregation result for one run. Exactly one of EpisodeIDs
// and ReportIDs is populated: direct episode sources link episodes directly,
// subordinate reports link them transitively.
type SourceSet struct {
	Level      SourceLevel
	Artifacts  []SourceArtifact
	EpisodeIDs []uint
	ReportIDs  []uint
}

// EpisodeCount returns the total distinct episodes behind this source set.
func (s *SourceSet) EpisodeCount() int {
	total := 0
	for _, a := range s.Artifacts {
		total += a.EpisodeCount
	}
	return total
}

// Aggregator resolves synthesis sources for a period, walking the tier's
// fallback chain in order until one level produces data.
type Aggregator struct {
	db *gorm.DB
}

func NewAggregator(db *gorm.DB) *Aggregator {
	return &Aggregator{db: db}
}

// sourceResolver is one level of a fallback chain. A nil SourceSet with a
// nil error means "no data at this level, try the next one".
type sourceResolver func(ctx context.Context, p Period) (*SourceSet, error)

// Resolve walks the fallback chain for the period's tier. It returns
// ErrInsufficientData when every level comes up empty.
func (a *Aggregator) Resolve(ctx context.Context, p Period) (*SourceSet, error) {
	var chain []sourceResolver
	switch p.Type {
	case models.ReportTypeDaily:
		chain = []sourceResolver{a.resolveDailyEpisodes}
	case models.ReportTypeWeekly:
		chain = []sourceResolver{a.resolveSubordinate(models.ReportTypeDaily), a.resolveEpisodesByDay}
	case models.ReportTypeMonthly:
		chain = []sourceResolver{
			a.resolveSubordinate(models.ReportTypeWeekly),
			a.resolveSubordinate(models.ReportTypeDaily),
		}
	case models.ReportTypeQuarterly:
		chain = []sourceResolver{
			a.resolveSubordinate(models.ReportTypeMonthly),
			a.resolveSubordinate(models.ReportTypeWeekly),
			a.resolveSubordinate(models.ReportTypeDaily),
		}
	default:
		return nil, fmt.Errorf("unknown report type: %s", p.Type)
	}

	for _, resolve := range chain {
		set, err := resolve(ctx, p)
		if err != nil {
			return nil, err
		}
		if set != nil {
			return set, nil
		}
	}

	return nil, ErrInsufficientData
}

// resolveDailyEpisodes collects the day's summarized, published episodes.
// Fewer than minDailyEpisodes means the day is skipped.
func (a *Aggregator) resolveDailyEpisodes(ctx context.Context, p Period) (*SourceSet, error) {
	episodes, err := a.summarizedEpisodes(ctx, p.Start, p.End)
	if err != nil {
		return nil, err
	}
	if len(episodes) < minDailyEpisodes {
		return nil, nil
	}

	set := &SourceSet{Level: SourceEpisodes}
	for _, ep := range episodes {
		set.Artifacts = append(set.Artifacts, SourceArtifact{
			Label:        fmt.Sprintf("Episode: %s", ep.Title),
			Date:         ep.PublishedAt,
			Title:        ep.Title,
			Body:         episodeBody(&ep),
			EpisodeCount: 1,
		})
		set.EpisodeIDs = append(set.EpisodeIDs, ep.ID)
	}
	return set, nil
}

// resolveSubordinate builds a resolver that collects ready reports of the
// given subordinate tier whose period lies fully inside the requested one.
func (a *Aggregator) resolveSubordinate(sub models.ReportType) sourceResolver {
	return func(ctx context.Context, p Period) (*SourceSet, error) {
		var reports []models.Report
		err := a.db.WithContext(ctx).
			Where("report_type = ? AND status = ? AND period_start >= ? AND period_end <= ?",
				sub, models.ReportStatusReady, p.Start, p.End).
			Order("period_start asc").
			Find(&reports).Error
		if err != nil {
			return nil, fmt.Errorf("failed to query %s reports: %v", sub, err)
		}
		if len(reports) == 0 {
			return nil, nil
		}

		level := map[models.ReportType]SourceLevel{
			models.ReportTypeDaily:   SourceDailyReports,
			models.ReportTypeWeekly:  SourceWeeklyReports,
			models.ReportTypeMonthly: SourceMonthlyReports,
		}[sub]

		set := &SourceSet{Level: level}
		for _, r := range reports {
			body := r.Content
			if body == "" {
				body = r.Summary
			}
			set.Artifacts = append(set.Artifacts, SourceArtifact{
				Label:        fmt.Sprintf("%s report %s", sub, r.DateKey),
				Date:         r.PeriodStart,
				Title:        r.DateKey,
				Body:         body,
				EpisodeCount: r.EpisodesIncluded,
			})
			set.ReportIDs = append(set.ReportIDs, r.ID)
		}
		return set, nil
	}
}

// resolveEpisodesByDay is the weekly direct-episode fallback: the week's
// episodes grouped by publish date into synthetic per-day summaries built
// straight from bullet-level data, bypassing the daily report tier.
func (a *Aggregator) resolveEpisodesByDay(ctx context.Context, p Period) (*SourceSet, error) {
	episodes, err := a.summarizedEpisodes(ctx, p.Start, p.End)
	if err != nil {
		return nil, err
	}
	if len(episodes) == 0 {
		return nil, nil
	}

	byDay := make(map[string][]models.Episode)
	for _, ep := range episodes {
		day := ep.PublishedAt.UTC().Format("2006-01-02")
		byDay[day] = append(byDay[day], ep)
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	set := &SourceSet{Level: SourceEpisodes}
	for _, day := range days {
		group := byDay[day]
		date, _ := time.Parse("2006-01-02", day)

		var b strings.Builder
		for _, ep := range group {
			b.WriteString(episodeBody(&ep))
			b.WriteString("\n")
		}

		set.Artifacts = append(set.Artifacts, SourceArtifact{
			Label:        fmt.Sprintf("Episodes from %s", day),
			Date:         date,
			Title:        day,
			Body:         b.String(),
			EpisodeCount: len(group),
		})
		for _, ep := range group {
			set.EpisodeIDs = append(set.EpisodeIDs, ep.ID)
		}
	}
	return set, nil
}

// summarizedEpisodes returns published episodes in [start, end) that carry a
// summary, ordered by publish time.
func (a *Aggregator) summarizedEpisodes(ctx context.Context, start, end time.Time) ([]models.Episode, error) {
	var episodes []models.Episode
	err := a.db.WithContext(ctx).
		Preload("Summary.Bullets", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Where("published_at >= ? AND published_at < ? AND status = ?",
			start, end, models.EpisodeStatusPublished).
		Order("published_at asc").
		Find(&episodes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query episodes: %v", err)
	}

	withSummary := episodes[:0]
	for _, ep := range episodes {
		if ep.Summary != nil && ep.Summary.ID != 0 {
			withSummary = append(withSummary, ep)
		}
	}
	return withSummary, nil
}

// episodeBody flattens an episode's summary into prompt-ready text.
func episodeBody(ep *models.Episode) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s, %s)\n", ep.Title, ep.ChannelName, ep.PublishedAt.UTC().Format("2006-01-02"))
	if ep.Summary.Overview != "" {
		b.WriteString(ep.Summary.Overview)
		b.WriteString("\n")
	}
	for _, bullet := range ep.Summary.Bullets {
		fmt.Fprintf(&b, "- %s\n", bullet.Text)
	}
	return b.String()
}
