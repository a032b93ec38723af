package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ganesh1082/query-to-pdf-sub000/config"
	"github.com/ganesh1082/query-to-pdf-sub000/models"
)

type scriptedLLM struct {
	fn func(prompt string) (string, error)
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string) (string, error) {
	return s.fn(prompt)
}

func reportConfig() config.ReportConfig {
	return config.ReportConfig{
		Type:            string(models.ReportMarketResearch),
		PageCount:       15,
		MinSections:     3,
		MinSectionChars: 100,
	}
}

func plannedBlueprint(titles ...string) string {
	sections := make([]map[string]interface{}, len(titles))
	for i, title := range titles {
		sections[i] = map[string]interface{}{
			"title":      title,
			"content":    strings.Repeat("comprehensive analysis of the market ", 20),
			"chart_type": "none",
			"chart_data": map[string]interface{}{},
		}
	}
	raw, _ := json.Marshal(map[string]interface{}{"sections": sections})
	return string(raw)
}

func TestPlanUsesModelBlueprint(t *testing.T) {
	llm := &scriptedLLM{fn: func(prompt string) (string, error) {
		if !strings.Contains(prompt, "solar panel market") {
			t.Fatalf("prompt missing topic: %s", prompt)
		}
		return plannedBlueprint("Executive Summary", "Market Size & Growth", "Competitive Analysis"), nil
	}}
	s := NewSynthesizer(llm, reportConfig())

	bp, err := s.Plan(context.Background(), "solar panel market", nil)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(bp.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(bp.Sections))
	}
	if bp.Sections[0].Title != "Executive Summary" {
		t.Fatalf("unexpected first section: %q", bp.Sections[0].Title)
	}
}

func TestPlanFallsBackOnGenerateError(t *testing.T) {
	llm := &scriptedLLM{fn: func(string) (string, error) {
		return "", errors.New("upstream unavailable")
	}}
	s := NewSynthesizer(llm, reportConfig())

	bp, err := s.Plan(context.Background(), "ev charging networks", nil)
	if err != nil {
		t.Fatalf("Plan must absorb generation failures, got %v", err)
	}
	if len(bp.Sections) != 4 {
		t.Fatalf("fallback blueprint should have 4 sections, got %d", len(bp.Sections))
	}
	if !strings.Contains(bp.Sections[0].Content, "ev charging networks") {
		t.Fatalf("fallback summary should mention the topic: %q", bp.Sections[0].Content)
	}
}

func TestPlanFallsBackOnUnrecoverableOutput(t *testing.T) {
	llm := &scriptedLLM{fn: func(string) (string, error) {
		return "I could not produce the report, sorry.", nil
	}}
	s := NewSynthesizer(llm, reportConfig())

	bp, err := s.Plan(context.Background(), "quantum sensors", nil)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if bp.Sections[0].Title != "Executive Summary" {
		t.Fatalf("expected fallback blueprint, got %q", bp.Sections[0].Title)
	}
}

func TestPlanFallsBackOnThinSections(t *testing.T) {
	llm := &scriptedLLM{fn: func(string) (string, error) {
		return `{"sections": [{"title": "A", "content": "short", "chart_type": "none", "chart_data": {}}, {"title": "B", "content": "short", "chart_type": "none", "chart_data": {}}, {"title": "C", "content": "short", "chart_type": "none", "chart_data": {}}]}`, nil
	}}
	s := NewSynthesizer(llm, reportConfig())

	bp, err := s.Plan(context.Background(), "desalination", nil)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(bp.Sections) != 4 || bp.Sections[1].Title != "Market Analysis" {
		t.Fatalf("expected the fallback blueprint, got %+v", bp.Sections)
	}
}

func TestPlanInjectsLearnings(t *testing.T) {
	var captured string
	llm := &scriptedLLM{fn: func(prompt string) (string, error) {
		captured = prompt
		return plannedBlueprint("Executive Summary", "Key Findings", "Outlook"), nil
	}}
	s := NewSynthesizer(llm, reportConfig())

	result := &models.ResearchResult{
		Learnings: []models.Learning{
			{Content: "the market grew 14 percent in 2024", Reliability: 0.9},
		},
	}
	if _, err := s.Plan(context.Background(), "battery storage", result); err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if !strings.Contains(captured, "the market grew 14 percent in 2024") {
		t.Fatalf("prompt should carry research findings")
	}
}

func TestAssignChartsDiversityAndPayloads(t *testing.T) {
	catalog := Catalog[:5]
	content := strings.Repeat("growth analysis ", 100)
	bp := &models.ReportBlueprint{}
	for i := 0; i < 8; i++ {
		bp.Sections = append(bp.Sections, models.Section{
			Title:   fmt.Sprintf("Competitive Ranking %d", i),
			Content: content,
		})
	}

	AssignCharts(bp, catalog)

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		kind := bp.Sections[i].ChartType
		if kind == string(KindNone) {
			t.Fatalf("section %d should have a chart", i)
		}
		if seen[kind] {
			t.Fatalf("kind %s repeated before all 5 were used", kind)
		}
		seen[kind] = true
		if len(bp.Sections[i].ChartData) == 0 {
			t.Fatalf("section %d missing a generated payload", i)
		}
	}
	if len(seen) != 5 {
		t.Fatalf("expected 5 distinct kinds, got %d", len(seen))
	}
}

func TestAssignChartsLeavesSummariesAlone(t *testing.T) {
	bp := &models.ReportBlueprint{Sections: []models.Section{
		{Title: "Executive Summary", Content: strings.Repeat("x", 4000)},
	}}
	AssignCharts(bp, Catalog)
	if bp.Sections[0].ChartType != string(KindNone) {
		t.Fatalf("summary section got chart %q", bp.Sections[0].ChartType)
	}
}

func TestAssignChartsRewritesUnknownKind(t *testing.T) {
	bp := &models.ReportBlueprint{Sections: []models.Section{
		{Title: "Trend Analysis", Content: strings.Repeat("x", 2000), ChartType: "spiderweb"},
	}}
	AssignCharts(bp, Catalog)
	if bp.Sections[0].ChartType != string(KindLine) {
		t.Fatalf("unknown kind should fall back to the keyword table, got %q", bp.Sections[0].ChartType)
	}
	if len(bp.Sections[0].ChartData) == 0 {
		t.Fatalf("rewritten chart should get a payload")
	}
}

func TestAssignChartsKeepsModelChoice(t *testing.T) {
	bp := &models.ReportBlueprint{Sections: []models.Section{
		{Title: "Anything", Content: "short", ChartType: "pie", ChartData: map[string]interface{}{
			"labels": []interface{}{"A", "B"},
			"values": []interface{}{60.0, 40.0},
		}},
	}}
	AssignCharts(bp, Catalog)
	if bp.Sections[0].ChartType != "pie" {
		t.Fatalf("registered model choice should survive, got %q", bp.Sections[0].ChartType)
	}
	if len(bp.Sections[0].ChartData) != 2 {
		t.Fatalf("existing chart data should not be overwritten")
	}
}
