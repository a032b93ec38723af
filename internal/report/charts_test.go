package report

import (
	"strings"
	"testing"
)

func TestShouldIncludeChartExcludesNarrativeTitles(t *testing.T) {
	long := strings.Repeat("market data ", 300)
	if ShouldIncludeChart("Executive Summary", len(long)) {
		t.Fatalf("summary section must never get a chart")
	}
	if ShouldIncludeChart("Methodology", len(long)) {
		t.Fatalf("methodology section must never get a chart")
	}
	if ShouldIncludeChart("Conclusion and Outlook", len(long)) {
		t.Fatalf("conclusion section must never get a chart")
	}
}

func TestShouldIncludeChartRequiresContent(t *testing.T) {
	if ShouldIncludeChart("Competitive Analysis", 120) {
		t.Fatalf("thin section should not get a chart")
	}
	if !ShouldIncludeChart("Competitive Analysis", 3000) {
		t.Fatalf("long analytical section should get a chart")
	}
}

func TestShouldIncludeChartIgnoresPlainTitles(t *testing.T) {
	if ShouldIncludeChart("Appendix", 5000) {
		t.Fatalf("title without analytical keywords should stay narrative")
	}
}

func TestSuggestChartTypeKeywordTable(t *testing.T) {
	cases := []struct {
		title string
		want  Kind
	}{
		{"Market Growth Forecast", KindLine},
		{"Customer Segmentation", KindPie},
		{"Competitive Ranking", KindBar},
		{"Financial Performance", KindWaterfall},
		{"Sales Funnel Review", KindFunnel},
		{"Regional Distribution", KindHeatmap},
		{"Variance and Statistics", KindBoxPlot},
	}
	for _, c := range cases {
		got := SuggestChartType(c.title, map[Kind]bool{}, Catalog)
		if got != c.want {
			t.Fatalf("title %q: got %s, want %s", c.title, got, c.want)
		}
	}
}

func TestSuggestChartTypeDiversity(t *testing.T) {
	catalog := []CatalogEntry{
		{KindBar, GoalComparison, "1D", ComplexitySimple},
		{KindLine, GoalTrend, "1D", ComplexitySimple},
		{KindPie, GoalComposition, "1D", ComplexitySimple},
		{KindWaterfall, GoalFlow, "1D", ComplexityAdvanced},
		{KindFunnel, GoalFlow, "1D", ComplexityMedium},
	}

	titles := []string{
		"Competitive Ranking",
		"Market Ranking by Revenue",
		"Vendor Ranking Detail",
		"Regional Ranking",
		"Channel Ranking",
		"Final Ranking",
		"Another Ranking",
		"Last Ranking",
	}

	used := map[Kind]bool{}
	var assigned []Kind
	for _, title := range titles {
		k := SuggestChartType(title, used, catalog)
		assigned = append(assigned, k)
		used[k] = true
	}

	seen := map[Kind]bool{}
	for i := 0; i < len(catalog); i++ {
		if seen[assigned[i]] {
			t.Fatalf("kind %s repeated before the catalog was exhausted: %v", assigned[i], assigned[:i+1])
		}
		seen[assigned[i]] = true
	}
	if len(seen) != len(catalog) {
		t.Fatalf("expected all %d kinds used, got %d", len(catalog), len(seen))
	}
	// Once all kinds are used the keyword match wins again.
	if assigned[5] != KindBar {
		t.Fatalf("expected repeat to return to the keyword kind, got %s", assigned[5])
	}
}

func TestSuggestChartTypeNoKeywordPicksUnused(t *testing.T) {
	used := map[Kind]bool{KindBar: true}
	got := SuggestChartType("Quarterly Numbers", used, Catalog)
	if got == KindBar {
		t.Fatalf("should not repeat a used kind while unused kinds remain")
	}
	if !Registered(got, Catalog) {
		t.Fatalf("suggested kind %s is not in the catalog", got)
	}
}

func TestSuggestChartTypeAllUsedDefaultsToFirst(t *testing.T) {
	catalog := Catalog[:3]
	used := map[Kind]bool{}
	for _, e := range catalog {
		used[e.Kind] = true
	}
	if got := SuggestChartType("Quarterly Numbers", used, catalog); got != catalog[0].Kind {
		t.Fatalf("got %s, want first catalog kind %s", got, catalog[0].Kind)
	}
}
