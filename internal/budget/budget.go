package budget

import (
	"context"
	"fmt"
	"time"
)

// Op names an external operation kind that consumes credits.
type Op string

const (
	OpSearch   Op = "search"
	OpScrape   Op = "scrape"
	OpGenerate Op = "generate"
)

// RateLimit is a fixed-window request limit for one operation kind.
type RateLimit struct {
	Limit  int
	Window time.Duration
}

// Limits defines the hard ceilings for one research run.
type Limits struct {
	MaxCredits  int
	Costs       map[Op]int
	MaxRequests map[Op]int
	Rate        map[Op]RateLimit
}

// Validate ensures the limit values are sane before use.
func (l Limits) Validate() error {
	if l.MaxCredits <= 0 {
		return fmt.Errorf("max_credits must be > 0")
	}
	for op, cost := range l.Costs {
		if cost < 0 {
			return fmt.Errorf("cost for %s cannot be negative", op)
		}
	}
	for op, max := range l.MaxRequests {
		if max < 0 {
			return fmt.Errorf("max requests for %s cannot be negative", op)
		}
	}
	for op, rl := range l.Rate {
		if rl.Limit > 0 && rl.Window <= 0 {
			return fmt.Errorf("rate window for %s must be > 0", op)
		}
	}
	return nil
}

type window struct {
	count int
	reset time.Time
}

// Tracker accumulates credit and request usage against Limits.
//
// A Tracker is owned by exactly one scheduler and the scheduler runs
// queries strictly sequentially, so the counters need no locking. Call
// Reset before reusing a Tracker for a new run; never share one across
// concurrent runs.
type Tracker struct {
	limits  Limits
	credits int
	counts  map[Op]int
	windows map[Op]*window
	now     func() time.Time
}

// NewTracker builds a Tracker with zeroed counters.
func NewTracker(limits Limits) *Tracker {
	return &Tracker{
		limits:  limits,
		counts:  make(map[Op]int),
		windows: make(map[Op]*window),
		now:     time.Now,
	}
}

// CheckLimit reports whether recording op now would stay within both
// the credit ceiling and the per-operation request ceiling. Callers
// must check before every Record.
func (t *Tracker) CheckLimit(op Op) bool {
	if t.credits+t.cost(op) > t.limits.MaxCredits {
		return false
	}
	if max, ok := t.limits.MaxRequests[op]; ok && max > 0 && t.counts[op]+1 > max {
		return false
	}
	return true
}

// Record increments the cumulative credit and per-operation counters.
// It returns ErrExceeded instead of recording when the caller skipped
// CheckLimit and the operation would breach a ceiling.
func (t *Tracker) Record(op Op) error {
	if t.credits+t.cost(op) > t.limits.MaxCredits {
		return ErrExceeded{
			Kind:  "credits",
			Usage: fmt.Sprintf("%d", t.credits),
			Limit: fmt.Sprintf("%d", t.limits.MaxCredits),
		}
	}
	if max, ok := t.limits.MaxRequests[op]; ok && max > 0 && t.counts[op]+1 > max {
		return ErrExceeded{
			Kind:  fmt.Sprintf("%s requests", op),
			Usage: fmt.Sprintf("%d", t.counts[op]),
			Limit: fmt.Sprintf("%d", max),
		}
	}
	t.credits += t.cost(op)
	t.counts[op]++
	return nil
}

// Wait blocks until the fixed rate window for op admits another
// request, then counts it. It returns early only when ctx is done.
func (t *Tracker) Wait(ctx context.Context, op Op) error {
	rl, ok := t.limits.Rate[op]
	if !ok || rl.Limit <= 0 {
		return nil
	}
	w := t.windows[op]
	if w == nil {
		w = &window{reset: t.now().Add(rl.Window)}
		t.windows[op] = w
	}
	now := t.now()
	if now.After(w.reset) {
		w.count = 0
		w.reset = now.Add(rl.Window)
	}
	if w.count >= rl.Limit {
		timer := time.NewTimer(w.reset.Sub(now))
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		w.count = 0
		w.reset = t.now().Add(rl.Window)
	}
	w.count++
	return nil
}

// Reset zeroes all counters and windows. Call once at the start of
// each top-level run, never mid-run.
func (t *Tracker) Reset() {
	t.credits = 0
	t.counts = make(map[Op]int)
	t.windows = make(map[Op]*window)
}

// Credits returns the cumulative credits consumed so far.
func (t *Tracker) Credits() int { return t.credits }

// Remaining returns the credits left under the ceiling.
func (t *Tracker) Remaining() int {
	if r := t.limits.MaxCredits - t.credits; r > 0 {
		return r
	}
	return 0
}

// Requests returns the number of recorded operations of one kind.
func (t *Tracker) Requests(op Op) int { return t.counts[op] }

func (t *Tracker) cost(op Op) int {
	if c, ok := t.limits.Costs[op]; ok {
		return c
	}
	return 1
}
