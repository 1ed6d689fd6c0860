package report

import (
	"fmt"
	"strings"

	"github.com/podsight/internal/models"
)

const systemPrompt = `You are a financial podcast analyst. You synthesize episode coverage into ` +
	`concise market intelligence reports. Respond with a single JSON object and nothing else.`

var tierInstructions = map[models.ReportType]string{
	models.ReportTypeDaily: `Write a daily report as JSON with these fields:
"executiveSummary" (string, 2-3 sentences), "insights" (array of strings),
"themes" (array of {"name","description","prominence" (0-1 number),"episodeCount"}),
"sentiment" ({"overall": one of "bullish"|"bearish"|"neutral"|"mixed", "breakdown": {"bullish":n,"bearish":n,"neutral":n}}),
"notableMoments" (array of strings), "lookingAhead" (string).`,

	models.ReportTypeWeekly: `Write a weekly report as JSON with these fields:
"executiveSummary" (string, one paragraph), "emergingThemes" (array of {"name","description","trajectory": "rising"|"stable"|"falling"}),
"topInsights" (array of strings),
"sentiment" ({"overall": one of "bullish"|"bearish"|"neutral"|"mixed", "weekStart": narrative, "weekEnd": narrative}),
"lookingAhead" (string).`,

	models.ReportTypeMonthly: `Write a monthly report as JSON with these fields:
"executiveSummary" (string, one paragraph), "majorThemes" (array of {"name","description","prominence" (0-1 number)}),
"sentiment" ({"overall": one of "bullish"|"bearish"|"neutral"|"mixed", "narrative": string}),
"notableMoments" (array of strings), "lookingAhead" (string).`,

	models.ReportTypeQuarterly: `Write a quarterly report as JSON with these fields:
"executiveSummary" (string, one paragraph), "majorThemes" (array of {"name","description","trajectory": "rising"|"stable"|"falling"}),
"predictions" (array of strings),
"sentiment" ({"overall": one of "bullish"|"bearish"|"neutral"|"mixed", "progression": array of month-by-month narrative strings}),
"lookingAhead" (string).`,
}

// BuildPrompt assembles the system instruction and the user prompt carrying
// the serialized source material for one synthesis run.
func BuildPrompt(p Period, set *SourceSet) (string, string) {
	var b strings.Builder

	fmt.Fprintf(&b, "Period: %s (%s to %s)\n", p.DateKey,
		p.Start.Format("2006-01-02"), p.End.AddDate(0, 0, -1).Format("2006-01-02"))
	fmt.Fprintf(&b, "Source material (%d items, %d episodes total):\n\n",
		len(set.Artifacts), set.EpisodeCount())

	for _, a := range set.Artifacts {
		fmt.Fprintf(&b, "## %s\n%s\n", a.Label, a.Body)
	}

	b.WriteString("\n")
	b.WriteString(tierInstructions[p.Type])

	return systemPrompt, b.String()
}
