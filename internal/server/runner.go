package server

import (
	"context"
	"log"
	"sync"

	"github.com/ganesh1082/query-to-pdf-sub000/config"
	"github.com/ganesh1082/query-to-pdf-sub000/internal/budget"
	"github.com/ganesh1082/query-to-pdf-sub000/internal/recovery"
	"github.com/ganesh1082/query-to-pdf-sub000/internal/report"
	"github.com/ganesh1082/query-to-pdf-sub000/internal/research"
	"github.com/ganesh1082/query-to-pdf-sub000/internal/store"
	"github.com/ganesh1082/query-to-pdf-sub000/internal/telemetry"
	"github.com/ganesh1082/query-to-pdf-sub000/models"
	"github.com/ganesh1082/query-to-pdf-sub000/provider"
	"github.com/ganesh1082/query-to-pdf-sub000/tools/web_fetch"
	"github.com/ganesh1082/query-to-pdf-sub000/tools/web_search"
)

// Runner owns one research pipeline and executes runs one at a time. The
// budget tracker is not safe for concurrent schedulers, so runs serialize on
// the mutex.
type Runner struct {
	cfg    *config.Config
	store  *store.Store
	sched  *research.Scheduler
	synth  *report.Synthesizer
	index  *research.LearningIndex
	costs  *telemetry.CostTracker
	logger *log.Logger

	mu sync.Mutex
}

// NewRunner wires the research scheduler and blueprint synthesizer from
// config. cache and metrics may be nil.
func NewRunner(cfg *config.Config, st *store.Store, cache research.ReliabilityCache, metrics *telemetry.Metrics) (*Runner, error) {
	llm, err := provider.NewProvider(cfg.LLM)
	if err != nil {
		return nil, err
	}
	searcher, err := web_search.NewWebSearcher(web_search.Provider(cfg.Search.Provider), cfg.Search.APIKey)
	if err != nil {
		return nil, err
	}
	var fetcher web_fetch.WebFetcher
	if cfg.Fetch.Enabled {
		fetcher, err = web_fetch.NewWebFetcher(web_fetch.ChromedpFetcherType, cfg.Fetch.Timeout, cfg.Fetch.MaxChars)
		if err != nil {
			return nil, err
		}
	}

	engine := recovery.New()
	tracker := budget.NewTracker(budgetLimits(cfg.Research))
	gen := research.NewGenerator(llm, engine, cfg.Research.MaxBreadth)
	eval := research.NewEvaluator(llm, engine, cache)
	proc := research.NewProcessor(llm, engine, eval, fetcher, tracker)
	index, err := research.NewLearningIndex()
	if err != nil {
		return nil, err
	}
	sched := research.NewScheduler(cfg.Research, gen, proc, searcher, tracker, cfg.Search.ResultLimit, metrics, index)

	r := &Runner{
		cfg:    cfg,
		store:  st,
		sched:  sched,
		synth:  report.NewSynthesizer(llm, cfg.Report),
		index:  index,
		logger: log.New(log.Writer(), "[RUNNER] ", log.LstdFlags),
	}
	if cfg.Telemetry.CostTracking {
		r.costs = telemetry.NewCostTracker()
	}
	return r, nil
}

func (r *Runner) trackCosts(result *models.ResearchResult) {
	if r.costs == nil || result == nil {
		return
	}
	searches := result.Metrics.BreadthQueries + result.Metrics.DepthQueries
	r.costs.Add(string(budget.OpSearch), searches)
	if scrapes := result.CreditsUsed - searches; scrapes > 0 {
		r.costs.Add(string(budget.OpScrape), scrapes)
	}
	r.costs.Log()
}

// Index exposes the learning index backing the search endpoint.
func (r *Runner) Index() *research.LearningIndex { return r.index }

// Research runs the scheduler only, without persistence. Used by the CLI.
func (r *Runner) Research(ctx context.Context, topic string, keywords []string) (*models.ResearchResult, *models.ReportBlueprint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result, err := r.sched.Run(ctx, topic, keywords)
	if err != nil {
		return nil, nil, err
	}
	r.trackCosts(result)
	bp, err := r.synth.Plan(ctx, topic, result)
	if err != nil {
		return nil, nil, err
	}
	return result, bp, nil
}

// Execute performs a persisted run end to end, recording the outcome on the
// runs table. Errors are stored, not returned: the caller launched this in
// the background.
func (r *Runner) Execute(ctx context.Context, runID, topic string, keywords []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result, err := r.sched.Run(ctx, topic, keywords)
	if err != nil {
		r.logger.Printf("run %s failed: %v", runID, err)
		if err := r.store.UpdateRunStatus(ctx, runID, models.RunFailed, err.Error()); err != nil {
			r.logger.Printf("run %s: recording failure: %v", runID, err)
		}
		return
	}
	r.trackCosts(result)
	bp, err := r.synth.Plan(ctx, topic, result)
	if err != nil {
		r.logger.Printf("run %s: blueprint failed: %v", runID, err)
		if err := r.store.UpdateRunStatus(ctx, runID, models.RunFailed, err.Error()); err != nil {
			r.logger.Printf("run %s: recording failure: %v", runID, err)
		}
		return
	}
	if err := r.store.SaveRunResult(ctx, runID, result, bp); err != nil {
		r.logger.Printf("run %s: saving result: %v", runID, err)
		return
	}
	r.logger.Printf("run %s succeeded: %d learnings, %d credits", runID, len(result.Learnings), result.CreditsUsed)
}

func budgetLimits(cfg config.ResearchConfig) budget.Limits {
	limits := budget.Limits{
		MaxCredits: cfg.MaxCredits,
		Costs: map[budget.Op]int{
			budget.OpSearch: 1,
			budget.OpScrape: 1,
		},
		MaxRequests: map[budget.Op]int{
			budget.OpSearch: cfg.MaxSearchRequests,
			budget.OpScrape: cfg.MaxScrapeRequests,
		},
		Rate: map[budget.Op]budget.RateLimit{},
	}
	for name, rl := range cfg.RateLimits {
		limits.Rate[budget.Op(name)] = budget.RateLimit{Limit: rl.Limit, Window: rl.Window}
	}
	return limits
}
