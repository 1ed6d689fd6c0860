package models

import (
	"time"

	"gorm.io/gorm"
)

type EpisodeStatus string

const (
	EpisodeStatusPending   EpisodeStatus = "pending"
	EpisodeStatusPublished EpisodeStatus = "published"
	EpisodeStatusRejected  EpisodeStatus = "rejected"
)

// Episode is a YouTube episode ingested by the upstream subsystem. This
// service only reads episode rows; ingestion and approval own their writes.
type Episode struct {
	gorm.Model
	VideoID     string        `json:"video_id" gorm:"uniqueIndex;not null"`
	Title       string        `json:"title" gorm:"not null"`
	ChannelName string        `json:"channel_name"`
	PublishedAt time.Time     `json:"published_at" gorm:"index"`
	Duration    int           `json:"duration"` // seconds
	Status      EpisodeStatus `json:"status" gorm:"size:16;index"`
	Summary     *EpisodeSummary `json:"summary,omitempty"`
}

// EpisodeSummary holds the AI-generated summary attached to one episode.
type EpisodeSummary struct {
	gorm.Model
	EpisodeID uint            `json:"episode_id" gorm:"uniqueIndex;not null"`
	Overview  string          `json:"overview" gorm:"type:text"`
	Bullets   []SummaryBullet `json:"bullets"`
}

// SummaryBullet is one key point within an episode summary.
type SummaryBullet struct {
	gorm.Model
	EpisodeSummaryID uint   `json:"episode_summary_id" gorm:"index;not null"`
	Position         int    `json:"position"`
	Text             string `json:"text" gorm:"type:text"`
}
