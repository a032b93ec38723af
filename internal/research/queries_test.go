package research

import (
	"context"
	"strings"
	"testing"

	"github.com/ganesh1082/query-to-pdf-sub000/config"
	"github.com/ganesh1082/query-to-pdf-sub000/internal/recovery"
	"github.com/ganesh1082/query-to-pdf-sub000/models"
)

// scriptedLLM routes canned responses by prompt content.
type scriptedLLM struct {
	fn func(prompt string) (string, error)
}

func (s *scriptedLLM) Generate(_ context.Context, prompt string) (string, error) {
	return s.fn(prompt)
}

func defaultWeights() config.PriorityWeights {
	return config.PriorityWeights{Reliability: 0.3, Specificity: 0.2, Novelty: 0.3, Clarity: 0.2}
}

func TestBreadthParsesGeneratedQueries(t *testing.T) {
	llm := &scriptedLLM{fn: func(string) (string, error) {
		return `{"queries": [
			{"query": "ev battery market size", "research_goal": "scale", "reliability_threshold": 0.4},
			{"query": "ev battery makers", "research_goal": "players", "reliability_threshold": 1.7}
		]}`, nil
	}}
	g := NewGenerator(llm, recovery.New(), 10)
	queries := g.Breadth(context.Background(), "ev batteries", nil, 5)
	if len(queries) != 2 {
		t.Fatalf("got %d queries, want 2", len(queries))
	}
	if queries[1].ReliabilityThreshold != 1.0 {
		t.Fatalf("threshold not clamped: %v", queries[1].ReliabilityThreshold)
	}
}

func TestBreadthFallsBackToTemplates(t *testing.T) {
	llm := &scriptedLLM{fn: func(string) (string, error) {
		return "I could not produce any queries, sorry.", nil
	}}
	g := NewGenerator(llm, recovery.New(), 10)
	queries := g.Breadth(context.Background(), "ev batteries", []string{"solid state"}, 4)
	if len(queries) != 4 {
		t.Fatalf("got %d queries, want 4", len(queries))
	}
	for _, q := range queries {
		if !strings.Contains(q.Query, "ev batteries") {
			t.Fatalf("template query missing topic: %q", q.Query)
		}
	}
}

func TestBreadthRespectsMaxBreadth(t *testing.T) {
	llm := &scriptedLLM{fn: func(string) (string, error) {
		return "", nil
	}}
	g := NewGenerator(llm, recovery.New(), 3)
	queries := g.Breadth(context.Background(), "topic", nil, 10)
	if len(queries) != 3 {
		t.Fatalf("got %d queries, want max breadth 3", len(queries))
	}
}

func TestDepthRequiresLearnings(t *testing.T) {
	llm := &scriptedLLM{fn: func(string) (string, error) {
		t.Fatalf("generation service must not be called without learnings")
		return "", nil
	}}
	g := NewGenerator(llm, recovery.New(), 10)
	if got := g.Depth(context.Background(), "topic", nil, 2); got != nil {
		t.Fatalf("expected no depth queries without learnings, got %v", got)
	}
	if got := g.Depth(context.Background(), "topic", []models.Learning{{Content: "x"}}, 0); got != nil {
		t.Fatalf("expected no depth queries at level 0, got %v", got)
	}
}

func TestDepthFallbackAnchorsOnFindings(t *testing.T) {
	llm := &scriptedLLM{fn: func(string) (string, error) {
		return "no json here", nil
	}}
	g := NewGenerator(llm, recovery.New(), 10)
	learnings := []models.Learning{
		{Content: "Tesla shipped 1.8 million vehicles last year"},
	}
	queries := g.Depth(context.Background(), "ev market", learnings, 1)
	if len(queries) < 3 {
		t.Fatalf("got %d queries, want entity query plus generic follow-ups", len(queries))
	}
	var hasEntity, hasLatest, hasComparison bool
	for _, q := range queries {
		if strings.Contains(q.Query, "Tesla") {
			hasEntity = true
		}
		if strings.Contains(q.Query, "latest data") {
			hasLatest = true
		}
		if strings.Contains(q.Query, "comparison") {
			hasComparison = true
		}
	}
	if !hasEntity || !hasLatest || !hasComparison {
		t.Fatalf("missing follow-up kinds: entity=%v latest=%v comparison=%v", hasEntity, hasLatest, hasComparison)
	}
}

func TestPrioritizerRanksDescending(t *testing.T) {
	p := Prioritizer{Weights: defaultWeights()}
	queries := []models.ResearchQuery{
		{Query: "short", ResearchGoal: "", ReliabilityThreshold: 0.1},
		{Query: "a long and very specific query about lithium battery cathode production volumes", ResearchGoal: "verify production volume figures reported by manufacturers", ReliabilityThreshold: 0.8},
	}
	ranked := p.Rank(queries, nil)
	if ranked[0].Query == "short" {
		t.Fatalf("specific high-threshold query should rank first")
	}
	if ranked[0].Priority <= ranked[1].Priority {
		t.Fatalf("priorities not descending: %v %v", ranked[0].Priority, ranked[1].Priority)
	}
}

func TestPriorityNoveltyUsesBoundedWindow(t *testing.T) {
	p := Prioritizer{Weights: defaultWeights()}
	q := models.ResearchQuery{Query: "zebra habitats in kenya"}

	// Only the first ten learnings count against novelty, so a match
	// beyond the window must not change the score.
	var learnings []models.Learning
	for i := 0; i < 10; i++ {
		learnings = append(learnings, models.Learning{Content: "unrelated finding about markets"})
	}
	base := p.Score(q, learnings)
	withOutside := append(learnings, models.Learning{Content: "zebra habitats in kenya"})
	if got := p.Score(q, withOutside); got != base {
		t.Fatalf("learning outside window changed score: %v != %v", got, base)
	}

	withInside := append([]models.Learning{{Content: "zebra habitats in kenya"}}, learnings...)
	if got := p.Score(q, withInside); got >= base {
		t.Fatalf("overlapping learning inside window should lower score: %v >= %v", got, base)
	}
}

func TestQualityScore(t *testing.T) {
	w := config.QualityWeights{Learnings: 0.3, Reliability: 0.4, Content: 0.2, Diversity: 0.1}
	if got := Quality(nil, nil, w); got != 0 {
		t.Fatalf("empty quality = %v, want 0", got)
	}

	learnings := make([]models.Learning, 10)
	sources := []models.SourceMetadata{
		{Domain: "a.com", ReliabilityScore: 1.0, ContentLength: 50000},
		{Domain: "b.com", ReliabilityScore: 1.0, ContentLength: 10000},
		{Domain: "c.com", ReliabilityScore: 1.0, ContentLength: 10000},
		{Domain: "d.com", ReliabilityScore: 1.0, ContentLength: 10000},
		{Domain: "e.com", ReliabilityScore: 1.0, ContentLength: 10000},
	}
	got := Quality(learnings, sources, w)
	if got < 0.99 || got > 1.01 {
		t.Fatalf("saturated quality = %v, want 1.0", got)
	}
}
