package report

import (
	"testing"

	"github.com/podsight/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDailyJSON = `{
	"executiveSummary": "Markets rallied on rate cut hopes.",
	"insights": ["Fed pivot expected", "Tech earnings strong"],
	"themes": [{"name": "Rate cuts", "description": "Easing cycle", "prominence": 0.9, "episodeCount": 3}],
	"sentiment": {"overall": "bullish", "breakdown": {"bullish": 0.7, "bearish": 0.1, "neutral": 0.2}},
	"notableMoments": ["Guest predicted a melt-up"],
	"lookingAhead": "CPI print on Thursday."
}`

func TestParseContent_Daily(t *testing.T) {
	content, err := ParseContent(models.ReportTypeDaily, []byte(validDailyJSON), nil)
	require.NoError(t, err)
	require.NotNil(t, content.Daily)

	assert.Equal(t, models.ReportTypeDaily, content.Type)
	assert.Equal(t, "Markets rallied on rate cut hopes.", content.ExecutiveSummary())
	assert.Equal(t, "bullish", content.Daily.Sentiment.Overall)
	require.Len(t, content.Themes(), 1)
	assert.Equal(t, "Rate cuts", content.Themes()[0].Name)
}

func TestParseContent_MissingRequiredFieldFails(t *testing.T) {
	t.Run("missing executiveSummary", func(t *testing.T) {
		_, err := ParseContent(models.ReportTypeDaily,
			[]byte(`{"insights": [], "themes": [], "sentiment": {"overall": "neutral"}}`), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "executiveSummary")
	})

	t.Run("missing themes", func(t *testing.T) {
		_, err := ParseContent(models.ReportTypeDaily,
			[]byte(`{"executiveSummary": "x", "insights": []}`), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "themes")
	})

	t.Run("missing predictions on quarterly", func(t *testing.T) {
		_, err := ParseContent(models.ReportTypeQuarterly,
			[]byte(`{"executiveSummary": "x", "majorThemes": []}`), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "predictions")
	})
}

func TestParseContent_MalformedJSONFails(t *testing.T) {
	_, err := ParseContent(models.ReportTypeWeekly, []byte("not json at all"), nil)
	require.Error(t, err)
}

func TestParseContent_SentimentNormalization(t *testing.T) {
	t.Run("invalid overall coerced to mixed", func(t *testing.T) {
		content, err := ParseContent(models.ReportTypeDaily, []byte(`{
			"executiveSummary": "x",
			"insights": ["a"],
			"themes": [],
			"sentiment": {"overall": "euphoric"}
		}`), nil)
		require.NoError(t, err)
		assert.Equal(t, SentimentMixed, content.Daily.Sentiment.Overall)
	})

	t.Run("absent sentiment defaults to mixed", func(t *testing.T) {
		content, err := ParseContent(models.ReportTypeWeekly, []byte(`{
			"executiveSummary": "x",
			"emergingThemes": []
		}`), nil)
		require.NoError(t, err)
		assert.Equal(t, SentimentMixed, content.Weekly.Sentiment.Overall)
		assert.NotEmpty(t, content.Weekly.Sentiment.Narrative)
	})
}

func TestParseContent_OptionalFieldDefaults(t *testing.T) {
	content, err := ParseContent(models.ReportTypeDaily, []byte(`{
		"executiveSummary": "x",
		"insights": ["a"],
		"themes": [],
		"sentiment": {"overall": "neutral"}
	}`), nil)
	require.NoError(t, err)

	assert.NotNil(t, content.Daily.NotableMoments)
	assert.Empty(t, content.Daily.NotableMoments)
	assert.Equal(t, "", content.Daily.LookingAhead)
}

func TestContentJSONRoundTrip(t *testing.T) {
	content, err := ParseContent(models.ReportTypeDaily, []byte(validDailyJSON), nil)
	require.NoError(t, err)

	serialized, err := content.JSON()
	require.NoError(t, err)

	reparsed, err := ParseContent(models.ReportTypeDaily, []byte(serialized), nil)
	require.NoError(t, err)
	assert.Equal(t, content.Daily, reparsed.Daily)
}
