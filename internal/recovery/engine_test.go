package recovery

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func sectionsPredicate(min int) Predicate {
	return func(obj map[string]interface{}) bool {
		raw, ok := obj["sections"].([]interface{})
		if !ok || len(raw) < min {
			return false
		}
		for _, item := range raw {
			section, ok := item.(map[string]interface{})
			if !ok {
				return false
			}
			if _, ok := section["title"].(string); !ok {
				return false
			}
		}
		return true
	}
}

func TestRecoverDirect(t *testing.T) {
	e := New()
	obj, err := e.Recover(`{"sections": [{"title": "A", "content": "body"}]}`, sectionsPredicate(1))
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if len(obj["sections"].([]interface{})) != 1 {
		t.Fatalf("unexpected object: %v", obj)
	}
}

func TestRecoverFencedBlock(t *testing.T) {
	e := New()
	content := strings.Repeat("x", 2900)
	raw := fmt.Sprintf("Here is the plan:\n```json\n{\"sections\":[{\"title\":\"A\",\"content\":\"%s\",\"chart_type\":\"bar\"}]}\n```\nLet me know.", content)
	obj, err := e.Recover(raw, sectionsPredicate(1))
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	section := obj["sections"].([]interface{})[0].(map[string]interface{})
	if section["title"] != "A" || section["chart_type"] != "bar" {
		t.Fatalf("unexpected section: %v", section)
	}
	if section["content"] != content {
		t.Fatalf("content mutated during recovery")
	}
}

func TestRecoverEmbeddedInProse(t *testing.T) {
	e := New()
	raw := `Sure! The blueprint you asked for is {"sections": [{"title": "Overview", "content": "text"}]} and that is all.`
	obj, err := e.Recover(raw, sectionsPredicate(1))
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	want := map[string]interface{}{
		"sections": []interface{}{
			map[string]interface{}{"title": "Overview", "content": "text"},
		},
	}
	if !reflect.DeepEqual(obj, want) {
		t.Fatalf("got %v, want %v", obj, want)
	}
}

func TestRecoverTrailingComma(t *testing.T) {
	e := New()
	raw := `{"sections": [{"title": "A", "content": "body",},],}`
	obj, err := e.Recover(raw, sectionsPredicate(1))
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if len(obj["sections"].([]interface{})) != 1 {
		t.Fatalf("unexpected object: %v", obj)
	}
}

func TestRecoverUnescapedQuote(t *testing.T) {
	e := New()
	raw := `{"sections": [{"title": "The "premium" segment", "content": "body"}]}`
	obj, err := e.Recover(raw, sectionsPredicate(1))
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	section := obj["sections"].([]interface{})[0].(map[string]interface{})
	if section["title"] != `The "premium" segment` {
		t.Fatalf("title = %q", section["title"])
	}
}

func TestRecoverStrayNewlinesBetweenTokens(t *testing.T) {
	e := New()
	raw := "{\"sections\":\n[{\"title\":\n\"A\",\n\"content\": \"body\"}]}"
	if _, err := e.Recover(raw, sectionsPredicate(1)); err != nil {
		t.Fatalf("recover: %v", err)
	}
}

func TestRecoverMultipleFragmentsPrefersMatching(t *testing.T) {
	e := New()
	raw := `First I thought about {"notes": "scratch"} but the answer is {"sections": [{"title": "A", "content": "body"}]}`
	obj, err := e.Recover(raw, sectionsPredicate(1))
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if _, ok := obj["sections"]; !ok {
		t.Fatalf("recovered the wrong fragment: %v", obj)
	}
}

func TestRecoverTruncatedPayload(t *testing.T) {
	e := New()
	raw := `{"sections": [` +
		`{"title": "A", "content": "first complete section"},` +
		`{"title": "B", "content": "second complete section"},` +
		`{"title": "C", "content": "cut off mid sent`
	obj, err := e.Recover(raw, sectionsPredicate(1))
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	sections := obj["sections"].([]interface{})
	if len(sections) != 2 {
		t.Fatalf("got %d sections, want the 2 complete ones", len(sections))
	}
	second := sections[1].(map[string]interface{})
	if second["title"] != "B" {
		t.Fatalf("unexpected second section: %v", second)
	}
}

func TestRecoverIdempotent(t *testing.T) {
	e := New()
	raw := "noise before\n```json\n{\"sections\": [{\"title\": \"A\", \"content\": \"body\",}]}\n```"
	first, err := e.Recover(raw, sectionsPredicate(1))
	if err != nil {
		t.Fatalf("first recover: %v", err)
	}
	second, err := e.Recover(raw, sectionsPredicate(1))
	if err != nil {
		t.Fatalf("second recover: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("recovery not idempotent")
	}
}

func TestRecoverFailure(t *testing.T) {
	e := New()
	_, err := e.Recover("no structure here at all", sectionsPredicate(1))
	var failed ErrFailed
	if !errors.As(err, &failed) {
		t.Fatalf("expected ErrFailed, got %v", err)
	}
	if _, err := e.Recover("", nil); err == nil {
		t.Fatalf("expected error for empty input")
	}
}

func TestRecoverPredicateRejectsShape(t *testing.T) {
	e := New()
	_, err := e.Recover(`{"learnings": []}`, sectionsPredicate(1))
	if err == nil {
		t.Fatalf("predicate should have rejected object without sections")
	}
}

func TestRepairMinimalPreservesNewlinesInStrings(t *testing.T) {
	in := "{\"content\": \"para one\\n\\npara two\",}"
	out := repairMinimal(in)
	if !strings.Contains(out, `para one\n\npara two`) {
		t.Fatalf("minimal repair touched string content: %q", out)
	}
	if strings.Contains(out, `",}`) {
		t.Fatalf("trailing comma survived: %q", out)
	}
}

func TestBalancedSpansSkipsBracesInStrings(t *testing.T) {
	spans := balancedSpans(`{"a": "value with } brace"} {"b": 2}`)
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
}
