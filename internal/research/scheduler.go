package research

import (
	"context"
	"log"
	"time"

	"github.com/ganesh1082/query-to-pdf-sub000/config"
	"github.com/ganesh1082/query-to-pdf-sub000/internal/budget"
	"github.com/ganesh1082/query-to-pdf-sub000/internal/telemetry"
	"github.com/ganesh1082/query-to-pdf-sub000/models"
	"github.com/ganesh1082/query-to-pdf-sub000/tools/web_search"
	searchmodels "github.com/ganesh1082/query-to-pdf-sub000/tools/web_search/models"
)

const (
	maxSearchRetries      = 3
	maxDepthQueries       = 6
	depthMinimumThreshold = 0.5
)

// Scheduler drives one research run: a breadth phase over the topic,
// then a depth phase derived from the breadth learnings. Queries run
// strictly sequentially so the budget tracker needs no locking; the
// external service's rate limit is the bottleneck, not local compute.
type Scheduler struct {
	cfg      config.ResearchConfig
	gen      *Generator
	prio     Prioritizer
	proc     *Processor
	searcher web_search.WebSearcher
	tracker  *budget.Tracker
	limit    int

	metrics *telemetry.Metrics
	index   *LearningIndex
	logger  *log.Logger

	// OnProgress, when set, receives a snapshot after every query.
	OnProgress func(models.Progress)
}

// NewScheduler wires a Scheduler. metrics and index may be nil.
func NewScheduler(cfg config.ResearchConfig, gen *Generator, proc *Processor, searcher web_search.WebSearcher, tracker *budget.Tracker, resultLimit int, metrics *telemetry.Metrics, index *LearningIndex) *Scheduler {
	if resultLimit <= 0 {
		resultLimit = 5
	}
	return &Scheduler{
		cfg:      cfg,
		gen:      gen,
		prio:     Prioritizer{Weights: cfg.Priority},
		proc:     proc,
		searcher: searcher,
		tracker:  tracker,
		limit:    resultLimit,
		metrics:  metrics,
		index:    index,
		logger:   log.New(log.Writer(), "[SCHEDULER] ", log.LstdFlags),
	}
}

// Run executes the research run and always returns the results
// accumulated so far: budget exhaustion is a soft stop, not a fault.
// The only hard error is context cancellation.
func (s *Scheduler) Run(ctx context.Context, topic string, keywords []string) (*models.ResearchResult, error) {
	started := time.Now()
	s.tracker.Reset()
	if s.index != nil {
		if err := s.index.Reset(); err != nil {
			s.logger.Printf("resetting learning index: %v", err)
		}
	}

	result := &models.ResearchResult{Topic: topic}
	seenLearnings := map[string]bool{}
	seenURLs := map[string]bool{}

	breadth := s.cfg.Breadth
	if breadth > s.cfg.MaxBreadth {
		breadth = s.cfg.MaxBreadth
	}
	depth := s.cfg.Depth
	if depth > s.cfg.MaxDepth {
		depth = s.cfg.MaxDepth
	}

	queries := s.prio.Rank(s.gen.Breadth(ctx, topic, keywords, breadth), nil)
	if len(queries) > breadth {
		queries = queries[:breadth]
	}
	s.logger.Printf("phase 1: breadth search (%d queries)", len(queries))

	stopped, err := s.runPhase(ctx, "breadth", queries, 0, result, seenLearnings, seenURLs)
	result.Metrics.BreadthQueries = len(queries)
	if err != nil {
		s.finish(result, started, "cancelled")
		return result, err
	}

	// Depth queries are generated only after every breadth query has
	// completed and its learnings are merged.
	if !stopped && depth > 1 && len(result.Learnings) > 0 {
		depthQueries := s.prio.Rank(s.gen.Depth(ctx, topic, result.Learnings, depth-1), result.Learnings)
		take := len(depthQueries)
		if remaining := s.tracker.Remaining(); remaining < take {
			take = remaining
		}
		if take > maxDepthQueries {
			take = maxDepthQueries
		}
		depthQueries = depthQueries[:take]
		s.logger.Printf("phase 2: depth search (%d queries)", len(depthQueries))

		if _, err := s.runPhase(ctx, "depth", depthQueries, depthMinimumThreshold, result, seenLearnings, seenURLs); err != nil {
			s.finish(result, started, "cancelled")
			return result, err
		}
		result.Metrics.DepthQueries = len(depthQueries)
	}

	s.finish(result, started, "succeeded")
	s.logger.Printf("research completed: %d learnings from %d sources (%d credits)",
		len(result.Learnings), len(result.Sources), result.CreditsUsed)
	return result, nil
}

// runPhase executes one phase's queries sequentially. It reports true
// when the budget soft-stopped the phase early.
func (s *Scheduler) runPhase(ctx context.Context, phase string, queries []models.ResearchQuery, minThreshold float64, result *models.ResearchResult, seenLearnings, seenURLs map[string]bool) (bool, error) {
	for i, q := range queries {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if !s.tracker.CheckLimit(budget.OpSearch) {
			s.logger.Printf("credit limit reached, stopping %s phase", phase)
			return true, nil
		}
		if q.ReliabilityThreshold < minThreshold {
			q.ReliabilityThreshold = minThreshold
		}
		s.progress(phase, len(queries), i, q.Query, len(result.Learnings))

		results, err := s.searchWithRetry(ctx, q.Query)
		if err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			s.logger.Printf("%s query %d/%d failed: %v", phase, i+1, len(queries), err)
			continue
		}
		if err := s.tracker.Record(budget.OpSearch); err != nil {
			s.logger.Printf("stopping %s phase: %v", phase, err)
			return true, nil
		}
		if s.metrics != nil {
			s.metrics.RequestsTotal.WithLabelValues(string(budget.OpSearch)).Inc()
			s.metrics.CreditsUsed.Set(float64(s.tracker.Credits()))
		}

		learnings, sources := s.proc.Process(ctx, q, results)
		merged := 0
		for _, l := range learnings {
			if seenLearnings[l.Content] {
				continue
			}
			seenLearnings[l.Content] = true
			result.Learnings = append(result.Learnings, l)
			merged++
			if s.index != nil {
				s.index.Add(l)
			}
		}
		result.Sources = append(result.Sources, sources...)
		for _, src := range sources {
			if src.URL != "" && !seenURLs[src.URL] {
				seenURLs[src.URL] = true
				result.VisitedURLs = append(result.VisitedURLs, src.URL)
			}
		}
		if s.metrics != nil {
			s.metrics.LearningsTotal.Add(float64(merged))
		}

		quality := Quality(learnings, sources, s.cfg.Quality)
		s.logger.Printf("%s query %d/%d: %d learnings from %d sources (quality %.2f)",
			phase, i+1, len(queries), len(learnings), len(sources), quality)
	}
	s.progress(phase, len(queries), len(queries), "", len(result.Learnings))
	return false, nil
}

// searchWithRetry retries transient failures with capped exponential
// backoff. Non-transient failures abort only this query.
func (s *Scheduler) searchWithRetry(ctx context.Context, query string) ([]searchmodels.Result, error) {
	var lastErr error
	for attempt := 0; attempt < maxSearchRetries; attempt++ {
		if err := s.tracker.Wait(ctx, budget.OpSearch); err != nil {
			return nil, err
		}
		results, err := s.searcher.Discover(ctx, query, s.limit)
		if err == nil {
			return results, nil
		}
		lastErr = err
		if !web_search.IsTransient(err) {
			return nil, err
		}
		if s.metrics != nil {
			s.metrics.RetriesTotal.Inc()
		}
		backoff := time.Duration(1<<uint(attempt)) * time.Second
		if backoff > 3*time.Second {
			backoff = 3 * time.Second
		}
		s.logger.Printf("transient search failure, retrying in %s (attempt %d/%d): %v", backoff, attempt+1, maxSearchRetries, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
	return nil, lastErr
}

func (s *Scheduler) progress(phase string, total, completed int, current string, learnings int) {
	if s.OnProgress == nil {
		return
	}
	s.OnProgress(models.Progress{
		Phase:            phase,
		TotalQueries:     total,
		CompletedQueries: completed,
		CurrentQuery:     current,
		LearningsCount:   learnings,
	})
}

func (s *Scheduler) finish(result *models.ResearchResult, started time.Time, status string) {
	result.CreditsUsed = s.tracker.Credits()
	result.Metrics.TotalSources = len(result.VisitedURLs)
	var sum float64
	for _, src := range result.Sources {
		sum += src.ReliabilityScore
		if src.ReliabilityScore >= 0.7 {
			result.Metrics.HighQualitySources++
		}
	}
	if len(result.Sources) > 0 {
		result.Metrics.AverageReliability = sum / float64(len(result.Sources))
	}
	if s.metrics != nil {
		s.metrics.RunsTotal.WithLabelValues(status).Inc()
		s.metrics.RunDuration.Observe(time.Since(started).Seconds())
	}
}
