package research

import (
	"context"
	"strings"
	"testing"

	"github.com/ganesh1082/query-to-pdf-sub000/config"
	"github.com/ganesh1082/query-to-pdf-sub000/internal/budget"
	"github.com/ganesh1082/query-to-pdf-sub000/internal/recovery"
	searchmodels "github.com/ganesh1082/query-to-pdf-sub000/tools/web_search/models"
)

// fakeSearcher returns canned results and records the queries it saw.
type fakeSearcher struct {
	queries []string
	results []searchmodels.Result
	errs    []error
}

func (f *fakeSearcher) Discover(_ context.Context, q string, _ int) ([]searchmodels.Result, error) {
	f.queries = append(f.queries, q)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.results, nil
}

func schedulerConfig() config.ResearchConfig {
	return config.ResearchConfig{
		Breadth:    3,
		Depth:      2,
		MaxBreadth: 6,
		MaxDepth:   5,
		MaxCredits: 100,
		Priority:   defaultWeights(),
		Quality:    config.QualityWeights{Learnings: 0.3, Reliability: 0.4, Content: 0.2, Diversity: 0.1},
	}
}

// schedulerLLM answers query generation, reliability, and learning
// extraction prompts, recording which prompt kinds it served.
func schedulerLLM(t *testing.T, kinds *[]string) *scriptedLLM {
	return &scriptedLLM{fn: func(prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "follow-up search queries"):
			*kinds = append(*kinds, "depth")
			return `{"queries": [
				{"query": "follow up one", "research_goal": "verify", "reliability_threshold": 0.6},
				{"query": "follow up two", "research_goal": "expand", "reliability_threshold": 0.6}
			]}`, nil
		case strings.Contains(prompt, "Generate search queries"):
			*kinds = append(*kinds, "breadth")
			return `{"queries": [
				{"query": "breadth one", "research_goal": "scale", "reliability_threshold": 0.3},
				{"query": "breadth two", "research_goal": "players", "reliability_threshold": 0.3},
				{"query": "breadth three", "research_goal": "trends", "reliability_threshold": 0.3}
			]}`, nil
		case strings.Contains(prompt, "Evaluate the reliability"):
			return `{"score": 0.9, "reasoning": "test"}`, nil
		case strings.Contains(prompt, "generate a list of learnings"):
			return `{"learnings": [{"content": "the market grew fourteen percent year over year", "confidence": 0.8}]}`, nil
		default:
			t.Fatalf("unexpected prompt: %.80s", prompt)
			return "", nil
		}
	}}
}

func newTestScheduler(t *testing.T, cfg config.ResearchConfig, searcher *fakeSearcher, limits budget.Limits, kinds *[]string) *Scheduler {
	llm := schedulerLLM(t, kinds)
	engine := recovery.New()
	gen := NewGenerator(llm, engine, cfg.MaxBreadth)
	evaluator := NewEvaluator(llm, engine, nil)
	tracker := budget.NewTracker(limits)
	proc := NewProcessor(llm, engine, evaluator, nil, tracker)
	return NewScheduler(cfg, gen, proc, searcher, tracker, 5, nil, nil)
}

func TestRunExecutesBothPhases(t *testing.T) {
	searcher := &fakeSearcher{results: []searchmodels.Result{
		{URL: "https://reuters.com/a", Title: "A", Content: strings.Repeat("content ", 50)},
	}}
	var kinds []string
	s := newTestScheduler(t, schedulerConfig(), searcher, budget.Limits{MaxCredits: 100}, &kinds)

	result, err := s.Run(context.Background(), "ev batteries", nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	// 3 breadth searches then 2 depth searches
	if len(searcher.queries) != 5 {
		t.Fatalf("got %d searches, want 5: %v", len(searcher.queries), searcher.queries)
	}
	if result.Metrics.BreadthQueries != 3 || result.Metrics.DepthQueries != 2 {
		t.Fatalf("metrics = %+v", result.Metrics)
	}
	if result.CreditsUsed != 5 {
		t.Fatalf("credits used = %d, want 5", result.CreditsUsed)
	}
	if len(result.Learnings) == 0 {
		t.Fatalf("expected learnings accumulated")
	}
}

func TestRunPhaseBarrier(t *testing.T) {
	searcher := &fakeSearcher{results: []searchmodels.Result{
		{URL: "https://reuters.com/a", Title: "A", Content: strings.Repeat("content ", 50)},
	}}
	var kinds []string
	s := newTestScheduler(t, schedulerConfig(), searcher, budget.Limits{MaxCredits: 100}, &kinds)

	if _, err := s.Run(context.Background(), "topic", nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	// depth generation must come strictly after breadth generation
	if len(kinds) != 2 || kinds[0] != "breadth" || kinds[1] != "depth" {
		t.Fatalf("prompt order = %v", kinds)
	}
	for _, q := range searcher.queries[:3] {
		if strings.HasPrefix(q, "follow up") {
			t.Fatalf("depth query executed during breadth phase: %v", searcher.queries)
		}
	}
}

func TestRunSoftStopsOnBudget(t *testing.T) {
	searcher := &fakeSearcher{results: []searchmodels.Result{
		{URL: "https://reuters.com/a", Title: "A", Content: strings.Repeat("content ", 50)},
	}}
	var kinds []string
	s := newTestScheduler(t, schedulerConfig(), searcher, budget.Limits{MaxCredits: 2}, &kinds)

	result, err := s.Run(context.Background(), "topic", nil)
	if err != nil {
		t.Fatalf("budget exhaustion must not be an error: %v", err)
	}
	if len(searcher.queries) != 2 {
		t.Fatalf("got %d searches, want 2 before soft stop", len(searcher.queries))
	}
	if result.CreditsUsed != 2 {
		t.Fatalf("credits used = %d, want 2", result.CreditsUsed)
	}
	// partial results are kept
	if len(result.Learnings) == 0 {
		t.Fatalf("accumulated learnings discarded on soft stop")
	}
	for _, k := range kinds {
		if k == "depth" {
			t.Fatalf("depth phase must not start after budget exhaustion")
		}
	}
}

func TestSearchWithRetryTransient(t *testing.T) {
	searcher := &fakeSearcher{
		results: []searchmodels.Result{{URL: "https://reuters.com/a", Content: "x"}},
		errs:    []error{searchmodels.ErrStatus{Code: 429}, searchmodels.ErrStatus{Code: 503}, nil},
	}
	var kinds []string
	s := newTestScheduler(t, schedulerConfig(), searcher, budget.Limits{MaxCredits: 100}, &kinds)

	results, err := s.searchWithRetry(context.Background(), "q")
	if err != nil {
		t.Fatalf("expected retries to recover: %v", err)
	}
	if len(results) != 1 || len(searcher.queries) != 3 {
		t.Fatalf("results=%d attempts=%d", len(results), len(searcher.queries))
	}
}

func TestSearchWithRetryPermanent(t *testing.T) {
	searcher := &fakeSearcher{
		errs: []error{searchmodels.ErrStatus{Code: 400}},
	}
	var kinds []string
	s := newTestScheduler(t, schedulerConfig(), searcher, budget.Limits{MaxCredits: 100}, &kinds)

	if _, err := s.searchWithRetry(context.Background(), "q"); err == nil {
		t.Fatalf("permanent failure should abort the query")
	}
	if len(searcher.queries) != 1 {
		t.Fatalf("permanent failure must not be retried: %d attempts", len(searcher.queries))
	}
}
