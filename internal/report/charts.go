package report

import "strings"

// Sections shorter than this never get a chart.
const minChartContentChars = 500

// Titles containing these words stay narrative regardless of length.
var narrativeWords = []string{
	"summary",
	"conclusion",
	"methodology",
	"introduction",
	"recommendation",
	"overview",
	"background",
	"about",
}

// Titles containing these words earn a chart when the content is long enough.
var analyticalWords = []string{
	"analysis",
	"comparison",
	"trend",
	"competitive",
	"financial",
	"growth",
	"segmentation",
	"market",
	"performance",
	"forecast",
	"distribution",
	"statistics",
	"metrics",
	"share",
}

// chartKeywords maps title keywords to a preferred chart kind. Rows are
// scanned top down, so earlier rows win when several match.
var chartKeywords = []struct {
	words []string
	kind  Kind
}{
	{[]string{"growth", "trend", "forecast", "projection", "over time"}, KindLine},
	{[]string{"segmentation", "breakdown", "composition", "share"}, KindPie},
	{[]string{"competitive", "ranking", "benchmark", "comparison", "landscape"}, KindBar},
	{[]string{"financial", "cumulative", "revenue bridge"}, KindWaterfall},
	{[]string{"funnel", "pipeline", "leads", "conversion"}, KindFunnel},
	{[]string{"geographic", "regional", "correlation"}, KindHeatmap},
	{[]string{"multi-dimensional", "complex", "opportunit"}, KindBubble},
	{[]string{"statistics", "variance", "spread"}, KindBoxPlot},
}

// ShouldIncludeChart decides whether a section deserves a chart. Narrative
// sections are excluded no matter how long they are, thin sections no matter
// what their title says.
func ShouldIncludeChart(title string, contentLen int) bool {
	lower := strings.ToLower(title)
	for _, w := range narrativeWords {
		if strings.Contains(lower, w) {
			return false
		}
	}
	if contentLen < minChartContentChars {
		return false
	}
	for _, w := range analyticalWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// SuggestChartType picks a chart kind for a section title, keeping the
// blueprint visually diverse: no kind repeats until every catalog kind has
// been used at least once.
func SuggestChartType(title string, used map[Kind]bool, catalog []CatalogEntry) Kind {
	if len(catalog) == 0 {
		return KindNone
	}
	lower := strings.ToLower(title)

	var matched []Kind
	for _, row := range chartKeywords {
		if !Registered(row.kind, catalog) || row.kind == KindNone {
			continue
		}
		for _, w := range row.words {
			if strings.Contains(lower, w) {
				matched = append(matched, row.kind)
				break
			}
		}
	}

	for _, k := range matched {
		if !used[k] {
			return k
		}
	}

	for _, e := range catalog {
		if !used[e.Kind] {
			return e.Kind
		}
	}

	// Every kind has appeared once, repeats are allowed again.
	if len(matched) > 0 {
		return matched[0]
	}
	return catalog[0].Kind
}
