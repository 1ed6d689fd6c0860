package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/podsight/internal/models"
	"gorm.io/gorm"
)

// ErrReportNotFound is returned when a report doesn't exist.
var ErrReportNotFound = errors.New("report not found")

// Service exposes read and delete operations over generated reports for the
// admin surfaces. Generation itself goes through Pipeline.
type Service struct {
	db       *gorm.DB
	pipeline *Pipeline
}

func NewService(db *gorm.DB, pipeline *Pipeline) *Service {
	return &Service{db: db, pipeline: pipeline}
}

// List returns reports, newest period first, optionally filtered by tier.
func (s *Service) List(ctx context.Context, reportType models.ReportType) ([]models.Report, error) {
	query := s.db.WithContext(ctx).Model(&models.Report{})
	if reportType != "" {
		query = query.Where("report_type = ?", reportType)
	}

	var reports []models.Report
	if err := query.Order("period_start desc").Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("failed to list reports: %v", err)
	}
	return reports, nil
}

// Get returns one report by id.
func (s *Service) Get(ctx context.Context, id uint) (*models.Report, error) {
	var report models.Report
	err := s.db.WithContext(ctx).First(&report, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %v", err)
	}
	return &report, nil
}

// Themes returns the extracted themes for one report.
func (s *Service) Themes(ctx context.Context, reportID uint) ([]models.ReportTheme, error) {
	var themes []models.ReportTheme
	err := s.db.WithContext(ctx).
		Where("report_id = ?", reportID).
		Order("prominence desc").
		Find(&themes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get report themes: %v", err)
	}
	return themes, nil
}

// Delete removes a report with its links and themes.
func (s *Service) Delete(ctx context.Context, id uint) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.pipeline.deleteReport(ctx, id)
}
