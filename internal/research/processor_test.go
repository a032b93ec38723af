package research

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/ganesh1082/query-to-pdf-sub000/internal/budget"
	"github.com/ganesh1082/query-to-pdf-sub000/internal/recovery"
	"github.com/ganesh1082/query-to-pdf-sub000/models"
	searchmodels "github.com/ganesh1082/query-to-pdf-sub000/tools/web_search/models"
)

// processorLLM serves reliability scores per domain and a learnings
// payload for extraction prompts.
func processorLLM(scores map[string]float64, learningsResponse string) *scriptedLLM {
	return &scriptedLLM{fn: func(prompt string) (string, error) {
		if strings.Contains(prompt, "Evaluate the reliability") {
			for domain, score := range scores {
				if strings.Contains(prompt, domain) {
					return fmt.Sprintf(`{"score": %v, "reasoning": "test verdict"}`, score), nil
				}
			}
			return `{"score": 0.5, "reasoning": "unknown"}`, nil
		}
		return learningsResponse, nil
	}}
}

func newTestProcessor(llm *scriptedLLM) *Processor {
	engine := recovery.New()
	evaluator := NewEvaluator(llm, engine, nil)
	tracker := budget.NewTracker(budget.Limits{MaxCredits: 100})
	return NewProcessor(llm, engine, evaluator, nil, tracker)
}

func TestProcessFiltersByReliability(t *testing.T) {
	llm := processorLLM(
		map[string]float64{"reuters.com": 0.9, "randomblog.net": 0.2},
		`{"learnings": [{"content": "solid finding with numbers 42", "confidence": 0.8, "sources": ["reuters.com"]}]}`,
	)
	p := newTestProcessor(llm)

	results := []searchmodels.Result{
		{URL: "https://www.reuters.com/a", Title: "A", Content: strings.Repeat("good content ", 30)},
		{URL: "https://randomblog.net/b", Title: "B", Content: strings.Repeat("weak content ", 30)},
	}
	learnings, sources := p.Process(context.Background(), models.ResearchQuery{Query: "test", ReliabilityThreshold: 0.6}, results)

	if len(sources) != 2 {
		t.Fatalf("metadata should cover all sources, got %d", len(sources))
	}
	if len(learnings) != 1 {
		t.Fatalf("got %d learnings, want 1", len(learnings))
	}
	if learnings[0].Reliability != 0.8 {
		t.Fatalf("confidence not carried: %v", learnings[0].Reliability)
	}
	for _, s := range sources {
		if s.Domain == "randomblog.net" && s.ReliabilityScore != 0.2 {
			t.Fatalf("unexpected score for filtered source: %v", s.ReliabilityScore)
		}
	}
}

func TestProcessAllSourcesBelowThreshold(t *testing.T) {
	llm := processorLLM(map[string]float64{"randomblog.net": 0.2}, "")
	p := newTestProcessor(llm)

	results := []searchmodels.Result{
		{URL: "https://randomblog.net/b", Content: strings.Repeat("x", 300)},
	}
	learnings, sources := p.Process(context.Background(), models.ResearchQuery{Query: "test", ReliabilityThreshold: 0.6}, results)
	if len(learnings) != 0 {
		t.Fatalf("no learnings expected, got %d", len(learnings))
	}
	if len(sources) != 1 {
		t.Fatalf("metadata should still be returned, got %d", len(sources))
	}
}

func TestProcessLineFallback(t *testing.T) {
	llm := processorLLM(
		map[string]float64{"reuters.com": 0.9},
		"Findings:\n"+
			"1. The market grew by 14 percent over the last reported year\n"+
			"2. Three major manufacturers control most of the supply chain\n"+
			"- too short\n",
	)
	p := newTestProcessor(llm)

	results := []searchmodels.Result{
		{URL: "https://reuters.com/a", Content: strings.Repeat("body ", 100)},
	}
	learnings, _ := p.Process(context.Background(), models.ResearchQuery{Query: "test"}, results)
	if len(learnings) != 2 {
		t.Fatalf("got %d learnings, want 2 from line extraction", len(learnings))
	}
	if learnings[0].Reliability != 0.6 {
		t.Fatalf("line extraction should use reduced confidence, got %v", learnings[0].Reliability)
	}
	if strings.HasPrefix(learnings[0].Content, "1.") {
		t.Fatalf("list marker not stripped: %q", learnings[0].Content)
	}
}

func TestProcessDeduplicatesLearnings(t *testing.T) {
	llm := processorLLM(
		map[string]float64{"reuters.com": 0.9},
		`{"learnings": [
			{"content": "duplicate finding", "confidence": 0.8},
			{"content": "duplicate finding", "confidence": 0.7},
			{"content": "distinct finding", "confidence": 0.9}
		]}`,
	)
	p := newTestProcessor(llm)

	results := []searchmodels.Result{
		{URL: "https://reuters.com/a", Content: strings.Repeat("body ", 100)},
	}
	learnings, _ := p.Process(context.Background(), models.ResearchQuery{Query: "test"}, results)
	if len(learnings) != 2 {
		t.Fatalf("got %d learnings, want 2 after dedup", len(learnings))
	}
	if learnings[0].Reliability != 0.8 {
		t.Fatalf("first occurrence should win: %v", learnings[0].Reliability)
	}
}

func TestProcessEmptyResults(t *testing.T) {
	p := newTestProcessor(processorLLM(nil, ""))
	learnings, sources := p.Process(context.Background(), models.ResearchQuery{Query: "test"}, nil)
	if learnings != nil || sources != nil {
		t.Fatalf("expected nothing for empty results")
	}
}
