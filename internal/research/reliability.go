package research

import (
	"context"
	"fmt"
	"log"

	"github.com/ganesh1082/query-to-pdf-sub000/internal/recovery"
	"github.com/ganesh1082/query-to-pdf-sub000/provider"
)

// ReliabilityCache caches per-domain reliability verdicts so repeated
// sources are not re-evaluated within or across runs.
type ReliabilityCache interface {
	GetScore(ctx context.Context, domain string) (score float64, reasoning string, ok bool)
	SetScore(ctx context.Context, domain string, score float64, reasoning string) error
}

// Evaluator scores source domains with the generation service.
type Evaluator struct {
	llm    provider.Provider
	engine *recovery.Engine
	cache  ReliabilityCache
	logger *log.Logger
}

// NewEvaluator builds an Evaluator. cache may be nil.
func NewEvaluator(llm provider.Provider, engine *recovery.Engine, cache ReliabilityCache) *Evaluator {
	return &Evaluator{
		llm:    llm,
		engine: engine,
		cache:  cache,
		logger: log.New(log.Writer(), "[RELIABILITY] ", log.LstdFlags),
	}
}

// Evaluate returns a reliability score in [0,1] with a short reasoning
// string. Evaluation failures fall back to a neutral 0.5 so a flaky
// service never blocks result processing.
func (e *Evaluator) Evaluate(ctx context.Context, domain, topic string) (float64, string) {
	if domain == "" {
		return 0.5, "no domain available"
	}
	if e.cache != nil {
		if score, reasoning, ok := e.cache.GetScore(ctx, domain); ok {
			return score, reasoning
		}
	}

	score, reasoning := e.evaluate(ctx, domain, topic)
	if e.cache != nil {
		if err := e.cache.SetScore(ctx, domain, score, reasoning); err != nil {
			e.logger.Printf("cache write for %s failed: %v", domain, err)
		}
	}
	return score, reasoning
}

func (e *Evaluator) evaluate(ctx context.Context, domain, topic string) (float64, string) {
	prompt := fmt.Sprintf(`Evaluate the reliability of the following source domain for research about: %q

Domain: %s

Consider factors like:
1. Editorial standards and fact-checking processes
2. Domain expertise in the subject matter
3. Reputation for accuracy and objectivity
4. Transparency about sources and methodology
5. Professional vs user-generated content
6. Commercial biases or conflicts of interest

Return a reliability score between 0 and 1, where:
- 0.9-1.0: Highest reliability (e.g. peer-reviewed journals, primary sources)
- 0.7-0.89: Very reliable (e.g. respected news organizations)
- 0.5-0.69: Moderately reliable (e.g. industry blogs with editorial oversight)
- 0.3-0.49: Limited reliability (e.g. personal blogs, commercial sites)
- 0-0.29: Low reliability (e.g. known misinformation sources)

Provide your response in JSON format:
{
    "score": <reliability_score>,
    "reasoning": "<brief explanation>"
}`, topic, domain)

	raw, err := e.llm.Generate(ctx, prompt)
	if err != nil {
		e.logger.Printf("evaluation of %s failed: %v", domain, err)
		return 0.5, "evaluation unavailable"
	}

	obj, err := e.engine.Recover(raw, func(obj map[string]interface{}) bool {
		_, ok := obj["score"].(float64)
		return ok
	})
	if err != nil {
		e.logger.Printf("evaluation recovery for %s failed: %v", domain, err)
		return 0.5, "evaluation unavailable"
	}

	score := clamp01(obj["score"].(float64))
	reasoning, _ := obj["reasoning"].(string)
	if reasoning == "" {
		reasoning = "no reasoning provided"
	}
	return score, reasoning
}
