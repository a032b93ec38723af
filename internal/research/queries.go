package research

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"

	"github.com/ganesh1082/query-to-pdf-sub000/config"
	"github.com/ganesh1082/query-to-pdf-sub000/internal/recovery"
	"github.com/ganesh1082/query-to-pdf-sub000/models"
	"github.com/ganesh1082/query-to-pdf-sub000/provider"
)

// Generator produces breadth and depth queries for one research run.
type Generator struct {
	llm        provider.Provider
	engine     *recovery.Engine
	maxBreadth int
	logger     *log.Logger
}

func NewGenerator(llm provider.Provider, engine *recovery.Engine, maxBreadth int) *Generator {
	return &Generator{
		llm:        llm,
		engine:     engine,
		maxBreadth: maxBreadth,
		logger:     log.New(log.Writer(), "[QUERIES] ", log.LstdFlags),
	}
}

// queriesPredicate accepts an object with a non-empty queries array of
// records carrying at least a query string.
func queriesPredicate(obj map[string]interface{}) bool {
	raw, ok := obj["queries"].([]interface{})
	if !ok || len(raw) == 0 {
		return false
	}
	for _, item := range raw {
		rec, ok := item.(map[string]interface{})
		if !ok {
			return false
		}
		if q, ok := rec["query"].(string); !ok || strings.TrimSpace(q) == "" {
			return false
		}
	}
	return true
}

// Breadth generates up to n topic-driven queries. When the generation
// service fails or returns nothing usable, a deterministic template
// expansion covers the common research angles instead.
func (g *Generator) Breadth(ctx context.Context, topic string, keywords []string, n int) []models.ResearchQuery {
	if n > g.maxBreadth {
		g.logger.Printf("breadth limited to %d (requested: %d)", g.maxBreadth, n)
		n = g.maxBreadth
	}
	if n <= 0 {
		return nil
	}

	prompt := breadthPrompt(topic, keywords, n)
	queries := g.generate(ctx, prompt)
	if len(queries) == 0 {
		g.logger.Printf("falling back to template queries for %q", topic)
		queries = templateQueries(topic, keywords)
	}
	if len(queries) > n {
		queries = queries[:n]
	}
	return queries
}

// Depth generates follow-up queries anchored on the breadth learnings.
// It returns nothing until breadth learnings exist, which keeps the
// phase barrier intact.
func (g *Generator) Depth(ctx context.Context, topic string, learnings []models.Learning, levels int) []models.ResearchQuery {
	if levels < 1 || len(learnings) == 0 {
		return nil
	}

	top := learnings
	if len(top) > 8 {
		top = top[:8]
	}
	prompt := depthPrompt(topic, top, levels)
	queries := g.generate(ctx, prompt)
	if len(queries) == 0 {
		g.logger.Printf("falling back to follow-up templates for %q", topic)
		queries = followUpQueries(topic, top)
	}
	return queries
}

func (g *Generator) generate(ctx context.Context, prompt string) []models.ResearchQuery {
	raw, err := g.llm.Generate(ctx, prompt)
	if err != nil {
		g.logger.Printf("query generation failed: %v", err)
		return nil
	}
	obj, err := g.engine.Recover(raw, queriesPredicate)
	if err != nil {
		g.logger.Printf("query recovery failed: %v", err)
		return nil
	}

	var out []models.ResearchQuery
	for _, item := range obj["queries"].([]interface{}) {
		rec := item.(map[string]interface{})
		q := models.ResearchQuery{
			Query:                strings.TrimSpace(rec["query"].(string)),
			ReliabilityThreshold: 0.5,
		}
		if goal, ok := rec["research_goal"].(string); ok {
			q.ResearchGoal = goal
		} else if goal, ok := rec["researchGoal"].(string); ok {
			q.ResearchGoal = goal
		}
		if thr, ok := rec["reliability_threshold"].(float64); ok {
			q.ReliabilityThreshold = thr
		} else if thr, ok := rec["reliabilityThreshold"].(float64); ok {
			q.ReliabilityThreshold = thr
		}
		q.ReliabilityThreshold = clamp01(q.ReliabilityThreshold)
		out = append(out, q)
	}
	return out
}

func breadthPrompt(topic string, keywords []string, n int) string {
	var kw string
	if len(keywords) > 0 {
		kw = fmt.Sprintf("\nSeed keywords to cover: %s\n", strings.Join(keywords, ", "))
	}
	return fmt.Sprintf(`Generate search queries to thoroughly research the following topic: %q

Create specific, targeted search queries that will help find comprehensive information about this topic. Each query should be designed to uncover different aspects or angles of the research topic.
%s
Generate up to %d search queries.

Provide your response in JSON format:
{
    "queries": [
        {
            "query": "<the SERP query>",
            "research_goal": "<detailed research goal and additional research directions>",
            "reliability_threshold": <minimum reliability score between 0 and 1>
        }
    ]
}`, topic, kw, n)
}

func depthPrompt(topic string, learnings []models.Learning, levels int) string {
	var findings []string
	for _, l := range learnings {
		findings = append(findings, "- "+l.Content)
	}
	return fmt.Sprintf(`Based on these initial research findings about %q, generate specific follow-up search queries for deeper investigation.

INITIAL FINDINGS:
%s

Generate %d specific follow-up queries that will:
1. Verify or expand on key data points found
2. Investigate specific claims or statistics mentioned
3. Find additional context for important findings
4. Cross-reference information from different sources

Each query should be highly specific and target particular data points, companies, dates, or claims mentioned in the findings.

Respond with JSON format:
{
  "queries": [
    {
      "query": "specific follow-up search query",
      "research_goal": "What this depth query aims to verify or expand",
      "reliability_threshold": 0.6
    }
  ]
}`, topic, strings.Join(findings, "\n"), levels*2)
}

var breadthTemplates = []struct {
	suffix string
	goal   string
}{
	{"market size and growth", "establish the overall market scale and trajectory"},
	{"key players and competitors", "identify the main companies and competitive landscape"},
	{"latest statistics and data", "collect current quantitative data points"},
	{"industry trends analysis", "surface directional trends and drivers"},
	{"challenges and opportunities", "understand risks and openings in the space"},
	{"regional breakdown", "map geographic differences"},
}

// templateQueries expands the topic over fixed research angles.
func templateQueries(topic string, keywords []string) []models.ResearchQuery {
	var out []models.ResearchQuery
	for _, t := range breadthTemplates {
		out = append(out, models.ResearchQuery{
			Query:                fmt.Sprintf("%s %s", topic, t.suffix),
			ResearchGoal:         t.goal,
			ReliabilityThreshold: 0.3,
		})
	}
	for _, kw := range keywords {
		out = append(out, models.ResearchQuery{
			Query:                fmt.Sprintf("%s %s", topic, kw),
			ResearchGoal:         fmt.Sprintf("cover the %s angle of the topic", kw),
			ReliabilityThreshold: 0.3,
		})
	}
	return out
}

var (
	numberPattern = regexp.MustCompile(`\d[\d.,]*%?`)
	entityPattern = regexp.MustCompile(`([A-Z][A-Za-z0-9&-]+(?: [A-Z][A-Za-z0-9&-]+)*)`)
)

// followUpQueries synthesizes verification and expansion queries from
// the numbers and named entities in the top learnings.
func followUpQueries(topic string, learnings []models.Learning) []models.ResearchQuery {
	var out []models.ResearchQuery
	seen := map[string]bool{}
	for _, l := range learnings {
		entities := entityPattern.FindAllString(l.Content, 2)
		numbers := numberPattern.FindAllString(l.Content, 1)
		for _, ent := range entities {
			if len(ent) < 3 || seen[ent] {
				continue
			}
			seen[ent] = true
			q := models.ResearchQuery{
				Query:                fmt.Sprintf("%s %s", ent, topic),
				ResearchGoal:         fmt.Sprintf("expand on %s mentioned in findings", ent),
				ReliabilityThreshold: 0.6,
			}
			if len(numbers) > 0 {
				q.Query = fmt.Sprintf("%s %s %s verification", ent, numbers[0], topic)
				q.ResearchGoal = fmt.Sprintf("verify the figure %s reported for %s", numbers[0], ent)
			}
			out = append(out, q)
		}
	}
	out = append(out,
		models.ResearchQuery{
			Query:                fmt.Sprintf("%s latest data", topic),
			ResearchGoal:         "find the most recent figures for the topic",
			ReliabilityThreshold: 0.6,
		},
		models.ResearchQuery{
			Query:                fmt.Sprintf("%s comparison", topic),
			ResearchGoal:         "cross-reference findings against alternative sources",
			ReliabilityThreshold: 0.6,
		},
	)
	return out
}

// Prioritizer ranks candidate queries by expected value.
type Prioritizer struct {
	Weights config.PriorityWeights
}

// Score combines the query's reliability threshold, its specificity,
// its novelty against the most recent learnings, and the clarity of
// its research goal. Novelty is measured against a bounded window of
// the first ten learnings only.
func (p Prioritizer) Score(q models.ResearchQuery, learnings []models.Learning) float64 {
	score := q.ReliabilityThreshold * p.Weights.Reliability

	specificity := min1(float64(len(q.Query)) / 100.0)
	score += specificity * p.Weights.Specificity

	queryWords := wordSet(q.Query)
	overlap := 0
	window := learnings
	if len(window) > 10 {
		window = window[:10]
	}
	for _, l := range window {
		for w := range wordSet(l.Content) {
			if queryWords[w] {
				overlap++
			}
		}
	}
	novelty := 1.0 - float64(overlap)/50.0
	if novelty < 0 {
		novelty = 0
	}
	score += novelty * p.Weights.Novelty

	clarity := min1(float64(len(q.ResearchGoal)) / 100.0)
	score += clarity * p.Weights.Clarity

	return score
}

// Rank sorts queries by descending priority score. The sort is stable
// so equally scored queries keep their generation order.
func (p Prioritizer) Rank(queries []models.ResearchQuery, learnings []models.Learning) []models.ResearchQuery {
	ranked := make([]models.ResearchQuery, len(queries))
	copy(ranked, queries)
	for i := range ranked {
		ranked[i].Priority = p.Score(ranked[i], learnings)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Priority > ranked[j].Priority
	})
	return ranked
}

// Quality scores a completed query from its yield: learning count,
// average source reliability, content volume, and domain diversity,
// each capped before weighting.
func Quality(learnings []models.Learning, sources []models.SourceMetadata, w config.QualityWeights) float64 {
	if len(learnings) == 0 || len(sources) == 0 {
		return 0
	}

	learningScore := min1(float64(len(learnings)) / 10.0)

	var reliabilitySum float64
	var contentTotal int
	domains := map[string]bool{}
	for _, s := range sources {
		reliabilitySum += s.ReliabilityScore
		contentTotal += s.ContentLength
		domains[s.Domain] = true
	}
	avgReliability := reliabilitySum / float64(len(sources))
	contentScore := min1(float64(contentTotal) / 50000.0)
	diversityScore := min1(float64(len(domains)) / 5.0)

	return learningScore*w.Learnings +
		avgReliability*w.Reliability +
		contentScore*w.Content +
		diversityScore*w.Diversity
}

func wordSet(s string) map[string]bool {
	out := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(s)) {
		out[w] = true
	}
	return out
}

func min1(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
