package report

// Kind identifies a chart family the rendering collaborator knows how to draw.
type Kind string

const (
	KindNone          Kind = "none"
	KindBar           Kind = "bar"
	KindHorizontalBar Kind = "horizontalBar"
	KindLine          Kind = "line"
	KindPie           Kind = "pie"
	KindDonut         Kind = "donut"
	KindScatter       Kind = "scatter"
	KindArea          Kind = "area"
	KindStackedBar    Kind = "stackedBar"
	KindMultiLine     Kind = "multiLine"
	KindRadar         Kind = "radar"
	KindBubble        Kind = "bubble"
	KindHeatmap       Kind = "heatmap"
	KindWaterfall     Kind = "waterfall"
	KindFunnel        Kind = "funnel"
	KindGauge         Kind = "gauge"
	KindTreeMap       Kind = "treeMap"
	KindCandlestick   Kind = "candlestick"
	KindBoxPlot       Kind = "boxPlot"
	KindHistogram     Kind = "histogram"
	KindPareto        Kind = "pareto"
)

// Analytic goals a chart kind serves.
const (
	GoalTrend        = "trend"
	GoalComparison   = "comparison"
	GoalComposition  = "composition"
	GoalCorrelation  = "correlation"
	GoalDistribution = "distribution"
	GoalFlow         = "flow"
)

// Complexity tiers.
const (
	ComplexitySimple   = "simple"
	ComplexityMedium   = "medium"
	ComplexityAdvanced = "advanced"
)

// CatalogEntry describes one registered chart kind.
type CatalogEntry struct {
	Kind       Kind   `json:"kind"`
	Goal       string `json:"goal"`
	Dims       string `json:"dims"`
	Complexity string `json:"complexity"`
}

// Catalog is the ordered registry of chart kinds. The order matters: it is
// the fallback scan order when no title keyword matches.
var Catalog = []CatalogEntry{
	{KindBar, GoalComparison, "1D", ComplexitySimple},
	{KindHorizontalBar, GoalComparison, "1D", ComplexitySimple},
	{KindLine, GoalTrend, "1D", ComplexitySimple},
	{KindPie, GoalComposition, "1D", ComplexitySimple},
	{KindDonut, GoalComposition, "1D", ComplexitySimple},
	{KindScatter, GoalCorrelation, "2D", ComplexityMedium},
	{KindArea, GoalTrend, "1D", ComplexityMedium},
	{KindStackedBar, GoalComposition, "1D", ComplexityMedium},
	{KindMultiLine, GoalTrend, "1D", ComplexityMedium},
	{KindRadar, GoalComparison, "nD", ComplexityAdvanced},
	{KindBubble, GoalCorrelation, "3D", ComplexityAdvanced},
	{KindHeatmap, GoalCorrelation, "2D", ComplexityAdvanced},
	{KindWaterfall, GoalFlow, "1D", ComplexityAdvanced},
	{KindFunnel, GoalFlow, "1D", ComplexityMedium},
	{KindGauge, GoalComparison, "1D", ComplexitySimple},
	{KindTreeMap, GoalComposition, "2D", ComplexityAdvanced},
	{KindCandlestick, GoalTrend, "1D", ComplexityAdvanced},
	{KindBoxPlot, GoalDistribution, "1D", ComplexityMedium},
	{KindHistogram, GoalDistribution, "1D", ComplexitySimple},
	{KindPareto, GoalDistribution, "1D", ComplexityAdvanced},
}

// Registered reports whether kind is part of the catalog. "none" is always
// accepted since it marks a narrative section.
func Registered(kind Kind, catalog []CatalogEntry) bool {
	if kind == KindNone {
		return true
	}
	for _, e := range catalog {
		if e.Kind == kind {
			return true
		}
	}
	return false
}
