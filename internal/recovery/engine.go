// Package recovery salvages structured objects from free-form LLM
// output. Generative services are not bound to return well-formed
// JSON, especially near their output-length ceiling, so an ordered
// list of strategies is tried from least to most destructive.
package recovery

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
)

// Predicate decides whether a parsed object has the shape the caller
// asked for, e.g. a sections array with enough well-formed items.
type Predicate func(map[string]interface{}) bool

// Strategy is one independent extraction attempt. Extract returns nil
// when the strategy cannot produce an acceptable object.
type Strategy struct {
	Name    string
	Extract func(text string, accept Predicate) map[string]interface{}
}

// ErrFailed is returned when every strategy has been exhausted.
type ErrFailed struct {
	Strategies int
}

func (e ErrFailed) Error() string {
	return fmt.Sprintf("structured recovery failed after %d strategies", e.Strategies)
}

// Engine runs recovery strategies in order and returns the first
// object that both parses and satisfies the caller's predicate.
type Engine struct {
	strategies []Strategy
	log        *log.Logger
}

// New builds an Engine with the default strategy order: cheapest and
// least destructive first, so well-formed output is never mutated.
func New() *Engine {
	e := &Engine{log: log.New(log.Writer(), "[RECOVERY] ", log.LstdFlags)}
	e.strategies = []Strategy{
		{Name: "direct", Extract: extractDirect},
		{Name: "fenced_block", Extract: extractFenced},
		{Name: "outer_span", Extract: extractOuterSpan},
		{Name: "aggressive_repair", Extract: extractAggressive},
		{Name: "balanced_scan", Extract: extractBalanced},
		{Name: "all_spans", Extract: extractAllSpans},
		{Name: "truncation", Extract: extractTruncated},
	}
	return e
}

// Recover cleans raw and runs the strategies in order. raw is never
// mutated, so recovery is idempotent: identical input yields an
// identical result.
func (e *Engine) Recover(raw string, accept Predicate) (map[string]interface{}, error) {
	if accept == nil {
		accept = func(map[string]interface{}) bool { return true }
	}
	text := cleanText(raw)
	if text == "" {
		return nil, ErrFailed{Strategies: 0}
	}
	for _, s := range e.strategies {
		obj := s.Extract(text, accept)
		if obj != nil && accept(obj) {
			e.log.Printf("strategy %s recovered object from %d chars", s.Name, len(text))
			return obj, nil
		}
	}
	return nil, ErrFailed{Strategies: len(e.strategies)}
}

func parseObject(s string) map[string]interface{} {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil
	}
	return obj
}

// extractDirect parses the cleaned text as-is.
func extractDirect(text string, _ Predicate) map[string]interface{} {
	return parseObject(text)
}

// extractFenced parses the body of each remaining markdown code fence.
func extractFenced(text string, accept Predicate) map[string]interface{} {
	rest := text
	for {
		open := strings.Index(rest, "```")
		if open == -1 {
			return nil
		}
		body := rest[open+3:]
		if nl := strings.IndexByte(body, '\n'); nl != -1 && nl < 20 {
			// skip a language tag on the fence line
			body = body[nl+1:]
		}
		closing := strings.Index(body, "```")
		if closing == -1 {
			closing = len(body)
		}
		if obj := parseObject(strings.TrimSpace(body[:closing])); obj != nil && accept(obj) {
			return obj
		}
		if closing == len(body) {
			return nil
		}
		rest = body[closing+3:]
	}
}

// extractOuterSpan parses the span from the first '{' to the last '}'.
func extractOuterSpan(text string, _ Predicate) map[string]interface{} {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start == -1 || end <= start {
		return nil
	}
	return parseObject(text[start : end+1])
}

// extractAggressive runs the outer span through the aggressive repair
// pass before parsing.
func extractAggressive(text string, _ Predicate) map[string]interface{} {
	return parseObject(repairAggressive(text))
}

// extractBalanced finds the first fully balanced object with a brace
// stack, which guards against multiple JSON-like fragments in the
// surrounding prose.
func extractBalanced(text string, _ Predicate) map[string]interface{} {
	spans := balancedSpans(text)
	if len(spans) == 0 {
		return nil
	}
	s := spans[0]
	return parseObject(repairAggressive(text[s.start:s.end]))
}

// extractAllSpans enumerates every balanced object, longest first, and
// tries three repair variants per span. Minimal repair is kept in the
// rotation because the aggressive pass can corrupt legitimate
// multi-paragraph string content.
func extractAllSpans(text string, accept Predicate) map[string]interface{} {
	spans := balancedSpans(text)
	if len(spans) == 0 {
		return nil
	}
	sort.Slice(spans, func(i, j int) bool {
		return spans[i].end-spans[i].start > spans[j].end-spans[j].start
	})
	for _, s := range spans {
		raw := text[s.start:s.end]
		for _, candidate := range []string{raw, repairAggressive(raw), repairMinimal(raw)} {
			if obj := parseObject(candidate); obj != nil && accept(obj) {
				return obj
			}
		}
	}
	return nil
}

// extractTruncated salvages a payload cut off mid-generation. It cuts
// the text after the last fully closed array item and closes the
// enclosing array and object, keeping the N-1 complete items.
func extractTruncated(text string, _ Predicate) map[string]interface{} {
	start := strings.IndexByte(text, '{')
	if start == -1 {
		return nil
	}
	cut := lastItemEnd(text[start:])
	if cut <= 0 {
		return nil
	}
	return parseObject(repairAggressive(text[start:start+cut] + "]}"))
}
