package report

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/podsight/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LLMClient is the external generative-AI collaborator. It takes a system
// instruction and a user prompt and returns one JSON document.
type LLMClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Notifier is informed when a report reaches ready. Notifier failures are
// logged and never fail the run.
type Notifier interface {
	ReportReady(report *models.Report) error
}

// Request describes one generation trigger.
type Request struct {
	Period      Period
	Generation  models.GenerationType
	TriggeredBy string // "system" or a user id
}

// Pipeline runs one synthesis end to end: resolve sources, call the model,
// validate, persist, link episodes, and emit the notification.
type Pipeline struct {
	db         *gorm.DB
	aggregator *Aggregator
	llm        LLMClient
	notifier   Notifier
	logger     *log.Logger
}

func NewPipeline(db *gorm.DB, llm LLMClient, notifier Notifier, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{
		db:         db,
		aggregator: NewAggregator(db),
		llm:        llm,
		notifier:   notifier,
		logger:     logger,
	}
}

// Generate runs the pipeline for one tier and period. It returns (nil, nil)
// when the tier is skipped for lack of source material; no row is created in
// that case.
func (p *Pipeline) Generate(ctx context.Context, req Request) (*models.Report, error) {
	period := req.Period

	existing, err := p.findExisting(ctx, period)
	if err != nil {
		return nil, err
	}

	switch nextAction(req.Generation, existing) {
	case actionReturnExisting:
		p.logger.Printf("Report %s/%s already %s, returning existing id %d",
			period.Type, period.DateKey, existing.Status, existing.ID)
		return existing, nil
	case actionReplace:
		p.logger.Printf("Replacing %s report %s/%s (id %d)",
			existing.Status, period.Type, period.DateKey, existing.ID)
		if err := p.deleteReport(ctx, existing.ID); err != nil {
			return nil, err
		}
	}

	// Aggregation runs before the row is created so that a skipped tier
	// leaves no trace.
	set, err := p.aggregator.Resolve(ctx, period)
	if err != nil {
		if errors.Is(err, ErrInsufficientData) {
			p.logger.Printf("Skipping %s report %s: insufficient source data", period.Type, period.DateKey)
			return nil, nil
		}
		return nil, err
	}

	report := &models.Report{
		ReportType:     period.Type,
		DateKey:        period.DateKey,
		GenerationType: req.Generation,
		PeriodStart:    period.Start,
		PeriodEnd:      period.End,
		Status:         models.ReportStatusGenerating,
		GeneratedBy:    req.TriggeredBy,
	}
	if err := p.db.WithContext(ctx).Create(report).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent trigger won the insert; treat its row as ours.
			winner, ferr := p.findExisting(ctx, period)
			if ferr != nil {
				return nil, ferr
			}
			if winner != nil {
				p.logger.Printf("Concurrent generation for %s/%s, returning id %d",
					period.Type, period.DateKey, winner.ID)
				return winner, nil
			}
		}
		return nil, fmt.Errorf("failed to create report: %v", err)
	}

	content, err := p.synthesize(ctx, period, set)
	if err != nil {
		return nil, p.fail(ctx, report, err)
	}

	if err := p.persist(ctx, report, content, set); err != nil {
		return nil, p.fail(ctx, report, err)
	}

	if p.notifier != nil {
		if err := p.notifier.ReportReady(report); err != nil {
			p.logger.Printf("Warning: report %d notification failed: %v", report.ID, err)
		}
	}

	p.logger.Printf("Generated %s report %s (id %d, %d episodes)",
		period.Type, period.DateKey, report.ID, report.EpisodesIncluded)
	return report, nil
}

func (p *Pipeline) findExisting(ctx context.Context, period Period) (*models.Report, error) {
	var report models.Report
	err := p.db.WithContext(ctx).
		Where("report_type = ? AND date_key = ?", period.Type, period.DateKey).
		First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up report: %v", err)
	}
	return &report, nil
}

// synthesize calls the model and validates its output against the tier's
// content contract.
func (p *Pipeline) synthesize(ctx context.Context, period Period, set *SourceSet) (*Content, error) {
	system, user := BuildPrompt(period, set)

	response, err := p.llm.Complete(ctx, system, user)
	if err != nil {
		return nil, fmt.Errorf("synthesis failed: %v", err)
	}

	content, err := ParseContent(period.Type, []byte(response), p.logger)
	if err != nil {
		return nil, err
	}
	return content, nil
}

// persist links episodes, materializes themes, and promotes the row to
// ready. Theme rows are written before the ready transition so a crash never
// leaves a ready report without its themes.
func (p *Pipeline) persist(ctx context.Context, report *models.Report, content *Content, set *SourceSet) error {
	episodeIDs, err := p.linkEpisodes(ctx, report.ID, set)
	if err != nil {
		return err
	}

	if err := p.insertThemes(ctx, report.ID, content.Themes()); err != nil {
		return err
	}

	contentJSON, err := content.JSON()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	report.Content = contentJSON
	report.Summary = content.ExecutiveSummary()
	report.EpisodesIncluded = len(episodeIDs)
	report.GeneratedAt = &now
	report.Status = models.ReportStatusReady

	if err := p.db.WithContext(ctx).Save(report).Error; err != nil {
		return fmt.Errorf("failed to finalize report: %v", err)
	}
	return nil
}

// linkEpisodes writes the report's episode links. Direct episode sources
// link each episode; subordinate-report sources copy the episodes already
// linked to those reports, so the count stays accurate across tiers.
func (p *Pipeline) linkEpisodes(ctx context.Context, reportID uint, set *SourceSet) ([]uint, error) {
	episodeIDs := set.EpisodeIDs

	if len(set.ReportIDs) > 0 {
		var ids []uint
		err := p.db.WithContext(ctx).
			Model(&models.ReportEpisodeLink{}).
			Distinct("episode_id").
			Where("report_id IN ?", set.ReportIDs).
			Pluck("episode_id", &ids).Error
		if err != nil {
			return nil, fmt.Errorf("failed to collect transitive episode links: %v", err)
		}
		episodeIDs = ids
	}

	seen := make(map[uint]bool)
	var links []models.ReportEpisodeLink
	var distinct []uint
	for _, id := range episodeIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		distinct = append(distinct, id)
		links = append(links, models.ReportEpisodeLink{ReportID: reportID, EpisodeID: id})
	}

	if len(links) > 0 {
		err := p.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&links).Error
		if err != nil {
			return nil, fmt.Errorf("failed to link episodes: %v", err)
		}
	}
	return distinct, nil
}

// trajectoryProminence maps a qualitative trajectory label to a prominence
// value for tiers whose schema has no numeric field.
func trajectoryProminence(trajectory string) float64 {
	switch trajectory {
	case "rising":
		return 0.8
	case "stable":
		return 0.5
	case "falling":
		return 0.3
	default:
		return 0.5
	}
}

func (p *Pipeline) insertThemes(ctx context.Context, reportID uint, entries []ThemeEntry) error {
	for _, entry := range entries {
		prominence := trajectoryProminence(entry.Trajectory)
		if entry.Prominence != nil {
			prominence = *entry.Prominence
		}
		theme := models.ReportTheme{
			ReportID:     reportID,
			Name:         entry.Name,
			Description:  entry.Description,
			Prominence:   prominence,
			EpisodeCount: entry.EpisodeCount,
		}
		if err := p.db.WithContext(ctx).Create(&theme).Error; err != nil {
			return fmt.Errorf("failed to insert theme %q: %v", entry.Name, err)
		}
	}
	return nil
}

// fail marks the row failed with the error text as its summary, then
// propagates the original error so schedulers observe the failure.
func (p *Pipeline) fail(ctx context.Context, report *models.Report, cause error) error {
	err := p.db.WithContext(ctx).Model(report).Updates(map[string]interface{}{
		"status":  models.ReportStatusFailed,
		"summary": cause.Error(),
	}).Error
	if err != nil {
		p.logger.Printf("Warning: failed to mark report %d as failed: %v", report.ID, err)
	}
	return cause
}

// deleteReport removes a report row together with its links and themes.
func (p *Pipeline) deleteReport(ctx context.Context, reportID uint) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("report_id = ?", reportID).Delete(&models.ReportEpisodeLink{}).Error; err != nil {
			return fmt.Errorf("failed to delete report links: %v", err)
		}
		if err := tx.Unscoped().Where("report_id = ?", reportID).Delete(&models.ReportTheme{}).Error; err != nil {
			return fmt.Errorf("failed to delete report themes: %v", err)
		}
		if err := tx.Unscoped().Delete(&models.Report{}, reportID).Error; err != nil {
			return fmt.Errorf("failed to delete report: %v", err)
		}
		return nil
	})
}
