package models

import (
	"time"

	"gorm.io/gorm"
)

type ReportType string

const (
	ReportTypeDaily     ReportType = "daily"
	ReportTypeWeekly    ReportType = "weekly"
	ReportTypeMonthly   ReportType = "monthly"
	ReportTypeQuarterly ReportType = "quarterly"
)

type ReportStatus string

const (
	ReportStatusGenerating ReportStatus = "generating"
	ReportStatusReady      ReportStatus = "ready"
	ReportStatusFailed     ReportStatus = "failed"
)

type GenerationType string

const (
	GenerationAuto   GenerationType = "auto"
	GenerationManual GenerationType = "manual"
)

// Report is one generated narrative artifact for a single tier and period.
// The composite unique index on (report_type, date_key) makes concurrent
// triggers for the same period collide at the insert instead of silently
// creating duplicates.
type Report struct {
	gorm.Model
	ReportType       ReportType     `json:"report_type" gorm:"size:16;not null;uniqueIndex:uniq_report_period"`
	DateKey          string         `json:"date_key" gorm:"size:16;not null;uniqueIndex:uniq_report_period"`
	GenerationType   GenerationType `json:"generation_type" gorm:"size:16;not null"`
	PeriodStart      time.Time      `json:"period_start"`
	PeriodEnd        time.Time      `json:"period_end"`
	Status           ReportStatus   `json:"status" gorm:"size:16;not null;index"`
	EpisodesIncluded int            `json:"episodes_included"`
	Content          string         `json:"content" gorm:"type:text"`
	Summary          string         `json:"summary" gorm:"type:text"`
	GeneratedBy      string         `json:"generated_by" gorm:"size:64"`
	GeneratedAt      *time.Time     `json:"generated_at"`
}

// ReportEpisodeLink associates a report with one source episode. Links are
// written once per (report, episode) pair and never updated.
type ReportEpisodeLink struct {
	gorm.Model
	ReportID  uint `json:"report_id" gorm:"not null;uniqueIndex:uniq_report_episode"`
	EpisodeID uint `json:"episode_id" gorm:"not null;uniqueIndex:uniq_report_episode"`
}

// ReportTheme is a recurring topic extracted from a report's content.
type ReportTheme struct {
	gorm.Model
	ReportID     uint    `json:"report_id" gorm:"not null;index"`
	Name         string  `json:"name" gorm:"size:255;not null"`
	Description  string  `json:"description" gorm:"type:text"`
	Prominence   float64 `json:"prominence"`
	EpisodeCount *int    `json:"episode_count"`
}
