package report

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/ganesh1082/query-to-pdf-sub000/config"
	"github.com/ganesh1082/query-to-pdf-sub000/internal/recovery"
	"github.com/ganesh1082/query-to-pdf-sub000/models"
	"github.com/ganesh1082/query-to-pdf-sub000/provider"
)

const maxPromptLearnings = 15

// Synthesizer turns a research result into a validated report blueprint.
// Generation failures are absorbed: a deterministic fallback blueprint is
// returned whenever the model output cannot be recovered or validated.
type Synthesizer struct {
	llm    provider.Provider
	engine *recovery.Engine
	cfg    config.ReportConfig
	logger *log.Logger
}

func NewSynthesizer(llm provider.Provider, cfg config.ReportConfig) *Synthesizer {
	return &Synthesizer{
		llm:    llm,
		engine: recovery.New(),
		cfg:    cfg,
		logger: log.New(log.Writer(), "[REPORT] ", log.LstdFlags),
	}
}

func sectionsPredicate(obj map[string]interface{}) bool {
	raw, ok := obj["sections"]
	if !ok {
		return false
	}
	sections, ok := raw.([]interface{})
	return ok && len(sections) > 0
}

// Plan builds the blueprint for topic grounded on the research result.
// The returned blueprint always passes the structural invariants, even when
// the model misbehaves.
func (s *Synthesizer) Plan(ctx context.Context, topic string, result *models.ResearchResult) (*models.ReportBlueprint, error) {
	numSections := SectionCount(s.cfg.PageCount)

	bp, err := s.generate(ctx, topic, result, numSections)
	if err != nil {
		s.logger.Printf("blueprint generation failed (%v), using fallback", err)
		bp = FallbackBlueprint(topic)
	}

	AssignCharts(bp, Catalog)
	return bp, nil
}

func (s *Synthesizer) generate(ctx context.Context, topic string, result *models.ResearchResult, numSections int) (*models.ReportBlueprint, error) {
	prompt := s.planPrompt(topic, result, numSections)
	raw, err := s.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generating blueprint: %w", err)
	}
	obj, err := s.engine.Recover(raw, sectionsPredicate)
	if err != nil {
		return nil, fmt.Errorf("recovering blueprint: %w", err)
	}
	bp, err := ValidateBlueprint(obj, s.cfg.MinSections, s.cfg.MinSectionChars)
	if err != nil {
		return nil, err
	}
	return bp, nil
}

// AssignCharts walks the sections and ensures every chart_type is either
// "none" or a registered catalog kind, keeping assignments diverse and
// filling in a synthetic payload wherever the model left chart_data empty.
func AssignCharts(bp *models.ReportBlueprint, catalog []CatalogEntry) {
	used := map[Kind]bool{}
	for i := range bp.Sections {
		sec := &bp.Sections[i]
		kind := Kind(sec.ChartType)

		switch {
		case kind == KindNone:
			sec.ChartData = nil
			continue
		case kind != "" && Registered(kind, catalog):
			// Model picked a known kind, keep it.
		case ShouldIncludeChart(sec.Title, len(sec.Content)):
			kind = SuggestChartType(sec.Title, used, catalog)
		default:
			sec.ChartType = string(KindNone)
			sec.ChartData = nil
			continue
		}

		sec.ChartType = string(kind)
		used[kind] = true
		if len(sec.ChartData) == 0 {
			sec.ChartData = GenerateChartPayload(kind, sec.Title)
		}
	}
}

func (s *Synthesizer) planPrompt(topic string, result *models.ResearchResult, numSections int) string {
	targetWords := s.cfg.PageCount * 800 / numSections
	if targetWords < 600 {
		targetWords = 600
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert report writer and analyst. Create a comprehensive %d-page report for: %q\n\n", s.cfg.PageCount, topic)
	b.WriteString("CRITICAL: Output ONLY valid JSON. No explanations, no markdown formatting, just pure JSON.\n\n")
	fmt.Fprintf(&b, "REPORT REQUIREMENTS:\n- Total sections: %d\n- Report type: %s\n- Target content per section: %d words minimum\n\n", numSections, s.cfg.Type, targetWords)

	if result != nil && len(result.Learnings) > 0 {
		b.WriteString("RESEARCH FINDINGS (ground every section in these):\n")
		for i, l := range result.Learnings {
			if i >= maxPromptLearnings {
				break
			}
			fmt.Fprintf(&b, "- %s\n", l.Content)
		}
		b.WriteString("\n")
	}

	b.WriteString("REQUIRED JSON FORMAT:\n")
	b.WriteString(`{"sections": [{"title": "Section Title", "content": "Detailed analytical content.", "chart_type": "bar|line|pie|scatter|none", "chart_data": {}}]}`)
	b.WriteString("\n\nSECTION TEMPLATES (use these exact titles and chart types):\n")
	for _, t := range sectionTemplates(s.cfg.Type) {
		fmt.Fprintf(&b, "- %s (chart: %s)\n", t.title, t.chart)
	}
	b.WriteString("\nJSON RULES:\n")
	b.WriteString("1. All property names and string values in double quotes\n")
	b.WriteString("2. No trailing commas before } or ]\n")
	b.WriteString("3. Escape quotes inside content with a backslash\n")
	b.WriteString("4. Use \\n for line breaks in content\n")
	return b.String()
}

type sectionTemplate struct {
	title string
	chart Kind
}

func sectionTemplates(reportType string) []sectionTemplate {
	switch models.ReportType(reportType) {
	case models.ReportCompanyAnalysis:
		return []sectionTemplate{
			{"Executive Summary", KindNone},
			{"Company Overview & History", KindNone},
			{"Financial Performance & Growth", KindLine},
			{"Market Position & Share", KindBar},
			{"Product Portfolio Analysis", KindPie},
			{"Competitive Landscape", KindBar},
			{"Innovation & Future Outlook", KindLine},
			{"Risk Assessment", KindNone},
			{"Strategic Recommendations", KindNone},
		}
	case models.ReportMarketResearch:
		return []sectionTemplate{
			{"Executive Summary", KindNone},
			{"Market Overview", KindNone},
			{"Market Size & Growth", KindLine},
			{"Market Segmentation", KindPie},
			{"Competitive Analysis", KindBar},
			{"Customer Analysis", KindBar},
			{"Trend Analysis", KindLine},
			{"Market Opportunities", KindScatter},
			{"Strategic Recommendations", KindNone},
		}
	default:
		return []sectionTemplate{
			{"Executive Summary", KindNone},
			{"Background & Context", KindNone},
			{"Key Findings", KindBar},
			{"Trend Analysis", KindLine},
			{"Comparative Analysis", KindBar},
			{"Impact Assessment", KindPie},
			{"Future Projections", KindLine},
			{"Strategic Recommendations", KindNone},
		}
	}
}

// FallbackBlueprint returns the fixed generic blueprint used when generation
// or validation fails.
func FallbackBlueprint(topic string) *models.ReportBlueprint {
	return &models.ReportBlueprint{
		Sections: []models.Section{
			{
				Title:     "Executive Summary",
				Content:   fmt.Sprintf("**Overview:** This report provides a comprehensive analysis of %s. The analysis examines key trends, market dynamics, and strategic implications for stakeholders.", topic),
				ChartType: string(KindNone),
			},
			{
				Title:     "Market Analysis",
				Content:   "**Market Overview:** The market demonstrates significant growth potential with diverse competitive dynamics. Understanding these factors is crucial for strategic decision-making.",
				ChartType: string(KindBar),
				ChartData: map[string]interface{}{
					"labels": []string{"Segment A", "Segment B", "Segment C", "Segment D"},
					"values": []float64{30, 25, 20, 25},
				},
			},
			{
				Title:     "Trend Analysis",
				Content:   "**Growth Trends:** Recent years have shown consistent growth patterns with some seasonal variations. Future projections indicate continued expansion.",
				ChartType: string(KindLine),
				ChartData: map[string]interface{}{
					"labels": []string{"2020", "2021", "2022", "2023", "2024"},
					"values": []float64{100, 115, 130, 145, 160},
				},
			},
			{
				Title:     "Strategic Recommendations",
				Content:   "**Action Items:** Based on the analysis, key recommendations include market expansion, technology investment, and strategic partnerships.",
				ChartType: string(KindNone),
			},
		},
	}
}
