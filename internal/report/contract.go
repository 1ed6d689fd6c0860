package report

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/podsight/internal/models"
)

// Valid values for sentiment.overall. Anything else the model produces is
// coerced to "mixed" rather than failing the generation.
const (
	SentimentBullish = "bullish"
	SentimentBearish = "bearish"
	SentimentNeutral = "neutral"
	SentimentMixed   = "mixed"
)

// Sentiment carries the tier's sentiment reading. Overall is constrained to
// the four allowed values; the breakdown fields differ per tier and only the
// ones the tier's contract uses are populated.
type Sentiment struct {
	Overall     string             `json:"overall"`
	Breakdown   map[string]float64 `json:"breakdown,omitempty"`
	WeekStart   string             `json:"weekStart,omitempty"`
	WeekEnd     string             `json:"weekEnd,omitempty"`
	Progression []string           `json:"progression,omitempty"`
	Narrative   string             `json:"narrative,omitempty"`
}

// ThemeEntry is one named topic in a report's theme array. Prominence is
// numeric when the tier's schema supplies a number, otherwise Trajectory
// carries a qualitative label that gets mapped to a number at persist time.
type ThemeEntry struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Prominence   *float64 `json:"prominence,omitempty"`
	Trajectory   string   `json:"trajectory,omitempty"`
	EpisodeCount *int     `json:"episodeCount,omitempty"`
}

type DailyContent struct {
	ExecutiveSummary string       `json:"executiveSummary"`
	Insights         []string     `json:"insights"`
	Themes           []ThemeEntry `json:"themes"`
	Sentiment        Sentiment    `json:"sentiment"`
	NotableMoments   []string     `json:"notableMoments"`
	LookingAhead     string       `json:"lookingAhead"`
}

type WeeklyContent struct {
	ExecutiveSummary string       `json:"executiveSummary"`
	EmergingThemes   []ThemeEntry `json:"emergingThemes"`
	TopInsights      []string     `json:"topInsights"`
	Sentiment        Sentiment    `json:"sentiment"`
	LookingAhead     string       `json:"lookingAhead"`
}

type MonthlyContent struct {
	ExecutiveSummary string       `json:"executiveSummary"`
	MajorThemes      []ThemeEntry `json:"majorThemes"`
	Sentiment        Sentiment    `json:"sentiment"`
	NotableMoments   []string     `json:"notableMoments"`
	LookingAhead     string       `json:"lookingAhead"`
}

type QuarterlyContent struct {
	ExecutiveSummary string       `json:"executiveSummary"`
	MajorThemes      []ThemeEntry `json:"majorThemes"`
	Predictions      []string     `json:"predictions"`
	Sentiment        Sentiment    `json:"sentiment"`
	LookingAhead     string       `json:"lookingAhead"`
}

// Content is the tagged union over the four tier contracts. Exactly one of
// the variant pointers is set, matching Type.
type Content struct {
	Type      models.ReportType
	Daily     *DailyContent
	Weekly    *WeeklyContent
	Monthly   *MonthlyContent
	Quarterly *QuarterlyContent
}

// ExecutiveSummary returns the active variant's executive summary.
func (c *Content) ExecutiveSummary() string {
	switch c.Type {
	case models.ReportTypeDaily:
		return c.Daily.ExecutiveSummary
	case models.ReportTypeWeekly:
		return c.Weekly.ExecutiveSummary
	case models.ReportTypeMonthly:
		return c.Monthly.ExecutiveSummary
	case models.ReportTypeQuarterly:
		return c.Quarterly.ExecutiveSummary
	}
	return ""
}

// Themes returns the active variant's theme array.
func (c *Content) Themes() []ThemeEntry {
	switch c.Type {
	case models.ReportTypeDaily:
		return c.Daily.Themes
	case models.ReportTypeWeekly:
		return c.Weekly.EmergingThemes
	case models.ReportTypeMonthly:
		return c.Monthly.MajorThemes
	case models.ReportTypeQuarterly:
		return c.Quarterly.MajorThemes
	}
	return nil
}

// JSON serializes the active variant for storage in the report row.
func (c *Content) JSON() (string, error) {
	var v interface{}
	switch c.Type {
	case models.ReportTypeDaily:
		v = c.Daily
	case models.ReportTypeWeekly:
		v = c.Weekly
	case models.ReportTypeMonthly:
		v = c.Monthly
	case models.ReportTypeQuarterly:
		v = c.Quarterly
	default:
		return "", fmt.Errorf("unknown report type: %s", c.Type)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal content: %v", err)
	}
	return string(data), nil
}

// ParseContent parses and validates a model response against the tier's
// contract. Missing required fields are hard failures; an absent or invalid
// sentiment.overall and absent optional fields are normalized in place.
func ParseContent(reportType models.ReportType, data []byte, logger *log.Logger) (*Content, error) {
	validate, ok := validators[reportType]
	if !ok {
		return nil, fmt.Errorf("unknown report type: %s", reportType)
	}
	return validate(data, logger)
}

var validators = map[models.ReportType]func([]byte, *log.Logger) (*Content, error){
	models.ReportTypeDaily:     parseDaily,
	models.ReportTypeWeekly:    parseWeekly,
	models.ReportTypeMonthly:   parseMonthly,
	models.ReportTypeQuarterly: parseQuarterly,
}

// rawSentiment distinguishes "sentiment absent" from "sentiment present but
// partially filled"; a nil pointer means the whole object was missing.
type rawSentiment = *Sentiment

func parseDaily(data []byte, logger *log.Logger) (*Content, error) {
	var raw struct {
		ExecutiveSummary string       `json:"executiveSummary"`
		Insights         []string     `json:"insights"`
		Themes           []ThemeEntry `json:"themes"`
		Sentiment        rawSentiment `json:"sentiment"`
		NotableMoments   []string     `json:"notableMoments"`
		LookingAhead     string       `json:"lookingAhead"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse daily content: %v", err)
	}
	if raw.ExecutiveSummary == "" {
		return nil, fmt.Errorf("daily content missing required field: executiveSummary")
	}
	if raw.Insights == nil {
		return nil, fmt.Errorf("daily content missing required field: insights")
	}
	if raw.Themes == nil {
		return nil, fmt.Errorf("daily content missing required field: themes")
	}

	return &Content{
		Type: models.ReportTypeDaily,
		Daily: &DailyContent{
			ExecutiveSummary: raw.ExecutiveSummary,
			Insights:         raw.Insights,
			Themes:           raw.Themes,
			Sentiment:        normalizeSentiment(raw.Sentiment, logger),
			NotableMoments:   emptyIfNil(raw.NotableMoments),
			LookingAhead:     raw.LookingAhead,
		},
	}, nil
}

func parseWeekly(data []byte, logger *log.Logger) (*Content, error) {
	var raw struct {
		ExecutiveSummary string       `json:"executiveSummary"`
		EmergingThemes   []ThemeEntry `json:"emergingThemes"`
		TopInsights      []string     `json:"topInsights"`
		Sentiment        rawSentiment `json:"sentiment"`
		LookingAhead     string       `json:"lookingAhead"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse weekly content: %v", err)
	}
	if raw.ExecutiveSummary == "" {
		return nil, fmt.Errorf("weekly content missing required field: executiveSummary")
	}
	if raw.EmergingThemes == nil {
		return nil, fmt.Errorf("weekly content missing required field: emergingThemes")
	}

	return &Content{
		Type: models.ReportTypeWeekly,
		Weekly: &WeeklyContent{
			ExecutiveSummary: raw.ExecutiveSummary,
			EmergingThemes:   raw.EmergingThemes,
			TopInsights:      emptyIfNil(raw.TopInsights),
			Sentiment:        normalizeSentiment(raw.Sentiment, logger),
			LookingAhead:     raw.LookingAhead,
		},
	}, nil
}

func parseMonthly(data []byte, logger *log.Logger) (*Content, error) {
	var raw struct {
		ExecutiveSummary string       `json:"executiveSummary"`
		MajorThemes      []ThemeEntry `json:"majorThemes"`
		Sentiment        rawSentiment `json:"sentiment"`
		NotableMoments   []string     `json:"notableMoments"`
		LookingAhead     string       `json:"lookingAhead"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse monthly content: %v", err)
	}
	if raw.ExecutiveSummary == "" {
		return nil, fmt.Errorf("monthly content missing required field: executiveSummary")
	}
	if raw.MajorThemes == nil {
		return nil, fmt.Errorf("monthly content missing required field: majorThemes")
	}

	return &Content{
		Type: models.ReportTypeMonthly,
		Monthly: &MonthlyContent{
			ExecutiveSummary: raw.ExecutiveSummary,
			MajorThemes:      raw.MajorThemes,
			Sentiment:        normalizeSentiment(raw.Sentiment, logger),
			NotableMoments:   emptyIfNil(raw.NotableMoments),
			LookingAhead:     raw.LookingAhead,
		},
	}, nil
}

func parseQuarterly(data []byte, logger *log.Logger) (*Content, error) {
	var raw struct {
		ExecutiveSummary string       `json:"executiveSummary"`
		MajorThemes      []ThemeEntry `json:"majorThemes"`
		Predictions      []string     `json:"predictions"`
		Sentiment        rawSentiment `json:"sentiment"`
		LookingAhead     string       `json:"lookingAhead"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse quarterly content: %v", err)
	}
	if raw.ExecutiveSummary == "" {
		return nil, fmt.Errorf("quarterly content missing required field: executiveSummary")
	}
	if raw.MajorThemes == nil {
		return nil, fmt.Errorf("quarterly content missing required field: majorThemes")
	}
	if raw.Predictions == nil {
		return nil, fmt.Errorf("quarterly content missing required field: predictions")
	}

	return &Content{
		Type: models.ReportTypeQuarterly,
		Quarterly: &QuarterlyContent{
			ExecutiveSummary: raw.ExecutiveSummary,
			MajorThemes:      raw.MajorThemes,
			Predictions:      raw.Predictions,
			Sentiment:        normalizeSentiment(raw.Sentiment, logger),
			LookingAhead:     raw.LookingAhead,
		},
	}, nil
}

// normalizeSentiment applies the soft-correction policy: a missing sentiment
// object becomes a neutral "mixed" default, and an out-of-enum overall value
// is coerced to "mixed" with a warning.
func normalizeSentiment(s *Sentiment, logger *log.Logger) Sentiment {
	if s == nil {
		return Sentiment{Overall: SentimentMixed, Narrative: "No sentiment data available"}
	}

	switch s.Overall {
	case SentimentBullish, SentimentBearish, SentimentNeutral, SentimentMixed:
	default:
		if logger != nil {
			logger.Printf("Warning: invalid sentiment.overall %q, coercing to %q", s.Overall, SentimentMixed)
		}
		s.Overall = SentimentMixed
	}

	return *s
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
