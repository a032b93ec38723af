package research

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/ganesh1082/query-to-pdf-sub000/internal/budget"
	"github.com/ganesh1082/query-to-pdf-sub000/internal/recovery"
	"github.com/ganesh1082/query-to-pdf-sub000/models"
	"github.com/ganesh1082/query-to-pdf-sub000/provider"
	"github.com/ganesh1082/query-to-pdf-sub000/tools/web_fetch"
	searchmodels "github.com/ganesh1082/query-to-pdf-sub000/tools/web_search/models"
	"github.com/ganesh1082/query-to-pdf-sub000/utils"
)

const (
	// snippets shorter than this get a scrape pass when one is allowed
	thinContentChars = 200
	maxContentChars  = 25000
)

// Processor turns raw search results into scored learnings.
type Processor struct {
	llm       provider.Provider
	engine    *recovery.Engine
	evaluator *Evaluator
	fetcher   web_fetch.WebFetcher
	tracker   *budget.Tracker
	logger    *log.Logger
}

// NewProcessor builds a Processor. fetcher may be nil to disable the
// scrape pass for thin results.
func NewProcessor(llm provider.Provider, engine *recovery.Engine, evaluator *Evaluator, fetcher web_fetch.WebFetcher, tracker *budget.Tracker) *Processor {
	return &Processor{
		llm:       llm,
		engine:    engine,
		evaluator: evaluator,
		fetcher:   fetcher,
		tracker:   tracker,
		logger:    log.New(log.Writer(), "[PROCESSOR] ", log.LstdFlags),
	}
}

// Process filters the results by source reliability against the
// query's threshold, extracts learnings from the surviving content,
// and returns the deduplicated learnings plus metadata for every
// source seen, filtered or not.
func (p *Processor) Process(ctx context.Context, q models.ResearchQuery, results []searchmodels.Result) ([]models.Learning, []models.SourceMetadata) {
	if len(results) == 0 {
		return nil, nil
	}
	threshold := q.ReliabilityThreshold
	if threshold <= 0 {
		threshold = 0.3
	}

	type scored struct {
		content string
		meta    models.SourceMetadata
	}
	var all []models.SourceMetadata
	var survivors []scored
	for _, r := range results {
		content := p.enrich(ctx, r)
		domain := utils.Domain(r.URL)
		score, reasoning := p.evaluator.Evaluate(ctx, domain, q.Query)
		meta := models.SourceMetadata{
			URL:                  r.URL,
			Title:                r.Title,
			Domain:               domain,
			ReliabilityScore:     score,
			ReliabilityReasoning: reasoning,
			ContentLength:        len(content),
			LastChecked:          time.Now().UTC(),
		}
		all = append(all, meta)
		if score >= threshold && content != "" {
			survivors = append(survivors, scored{content: content, meta: meta})
		}
	}
	p.logger.Printf("found %d sources (%d above reliability threshold %.2f)", len(all), len(survivors), threshold)
	if len(survivors) == 0 {
		return nil, all
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		return survivors[i].meta.ReliabilityScore > survivors[j].meta.ReliabilityScore
	})

	contents := make([]string, 0, len(survivors))
	domains := make([]string, 0, len(survivors))
	for _, s := range survivors {
		contents = append(contents, utils.Truncate(s.content, maxContentChars))
		domains = append(domains, s.meta.Domain)
	}

	learnings := p.extract(ctx, q, contents, domains)
	return dedupLearnings(learnings), all
}

// enrich upgrades a thin snippet to full page text when the budget
// still admits a scrape.
func (p *Processor) enrich(ctx context.Context, r searchmodels.Result) string {
	content := r.Content
	if p.fetcher == nil || len(content) >= thinContentChars || r.URL == "" {
		return content
	}
	if !p.tracker.CheckLimit(budget.OpScrape) {
		return content
	}
	if err := p.tracker.Wait(ctx, budget.OpScrape); err != nil {
		return content
	}
	fetched, err := p.fetcher.Exec(ctx, r.URL)
	if err != nil || fetched.Text == "" {
		return content
	}
	if err := p.tracker.Record(budget.OpScrape); err != nil {
		return content
	}
	return fetched.Text
}

// learningsPredicate accepts an object carrying a non-empty learnings
// array of {content, confidence} records.
func learningsPredicate(obj map[string]interface{}) bool {
	raw, ok := obj["learnings"].([]interface{})
	if !ok || len(raw) == 0 {
		return false
	}
	for _, item := range raw {
		rec, ok := item.(map[string]interface{})
		if !ok {
			return false
		}
		if c, ok := rec["content"].(string); !ok || strings.TrimSpace(c) == "" {
			return false
		}
	}
	return true
}

func (p *Processor) extract(ctx context.Context, q models.ResearchQuery, contents, domains []string) []models.Learning {
	var parts []string
	for i, c := range contents {
		parts = append(parts, fmt.Sprintf("Content %d:\n%s", i+1, c))
	}
	goal := ""
	if q.ResearchGoal != "" {
		goal = "Research Goal: " + q.ResearchGoal + "\n"
	}
	prompt := fmt.Sprintf(`Given the following contents from a SERP search for the query %q, generate a list of learnings from the contents. Return a maximum of 20 learnings, but feel free to return less if the contents are clear. Make sure each learning is unique and not similar to each other. The learnings should be concise and to the point, as detailed and information dense as possible. Make sure to include any entities like people, places, companies, products, things, etc in the learnings, as well as any exact metrics, numbers, or dates.

%s
Contents:
%s

Provide your response in JSON format:
{
    "learnings": [
        {
            "content": "<learning content>",
            "confidence": <confidence score between 0 and 1>,
            "sources": ["<source domains>"]
        }
    ]
}`, q.Query, goal, strings.Join(parts, "\n\n---\n\n"))

	raw, err := p.llm.Generate(ctx, prompt)
	if err != nil {
		p.logger.Printf("learning extraction failed: %v", err)
		return nil
	}

	obj, err := p.engine.Recover(raw, learningsPredicate)
	if err != nil {
		p.logger.Printf("learning recovery failed, using line extraction: %v", err)
		return simpleLearnings(raw, domains)
	}

	var out []models.Learning
	for _, item := range obj["learnings"].([]interface{}) {
		rec := item.(map[string]interface{})
		l := models.Learning{
			Content:     strings.TrimSpace(rec["content"].(string)),
			Reliability: 0.5,
		}
		if conf, ok := rec["confidence"].(float64); ok {
			l.Reliability = clamp01(conf)
		}
		if srcs, ok := rec["sources"].([]interface{}); ok {
			for _, s := range srcs {
				if d, ok := s.(string); ok && d != "" {
					l.Sources = append(l.Sources, d)
				}
			}
		}
		if len(l.Sources) == 0 {
			l.Sources = domains
		}
		out = append(out, l)
	}
	return out
}

var listMarker = regexp.MustCompile(`^[\d\-•*]+\.?\s*`)

// simpleLearnings is the line-based fallback: keep list-like lines of
// sensible length, at a reduced default confidence.
func simpleLearnings(text string, domains []string) []models.Learning {
	var out []models.Learning
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = listMarker.ReplaceAllString(line, "")
		line = strings.Trim(line, `"'`)
		if len(line) <= 20 || len(line) >= 500 {
			continue
		}
		out = append(out, models.Learning{
			Content:     line,
			Reliability: 0.6,
			Sources:     domains,
		})
		if len(out) == 20 {
			break
		}
	}
	return out
}

// dedupLearnings drops exact duplicate content, preserving order.
func dedupLearnings(in []models.Learning) []models.Learning {
	seen := map[string]bool{}
	var out []models.Learning
	for _, l := range in {
		if seen[l.Content] {
			continue
		}
		seen[l.Content] = true
		out = append(out, l)
	}
	return out
}
