package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"
)

// ReadEntries loads every entry of a decision log. A missing file yields
// no entries.
func ReadEntries(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("audit: open: %w", err)
	}
	defer f.Close()

	entries := []Entry{}
	scanner := bufio.NewScanner(f)
	n := 0
	for scanner.Scan() {
		n++
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("audit: parse line %d: %w", n, err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("audit: scan: %w", err)
	}
	return entries, nil
}

// BreakdownRow counts decisions for one tool and outcome.
type BreakdownRow struct {
	Tool     string `json:"tool"`
	Decision string `json:"decision"`
	Count    int    `json:"count"`
}

// Evidence summarizes enforcement activity inside a time window.
type Evidence struct {
	WindowDays int            `json:"window_days"`
	Total      int            `json:"total"`
	Blocked    int            `json:"blocked"`
	Breakdown  []BreakdownRow `json:"breakdown"`
}

// Summarize counts entries at or after now minus windowDays, grouped by
// tool and decision. Rows are sorted by tool, then decision.
func Summarize(entries []Entry, windowDays int, now time.Time) Evidence {
	since := now.AddDate(0, 0, -windowDays)
	ev := Evidence{WindowDays: windowDays, Breakdown: []BreakdownRow{}}

	type key struct{ tool, decision string }
	counts := make(map[key]int)

	for _, e := range entries {
		if ts := e.Time(); !ts.IsZero() && ts.Before(since) {
			continue
		}
		ev.Total++
		if !e.Allowed {
			ev.Blocked++
		}
		counts[key{e.Tool, e.Decision()}]++
	}

	for k, c := range counts {
		ev.Breakdown = append(ev.Breakdown, BreakdownRow{Tool: k.tool, Decision: k.decision, Count: c})
	}
	sort.Slice(ev.Breakdown, func(i, j int) bool {
		a, b := ev.Breakdown[i], ev.Breakdown[j]
		if a.Tool != b.Tool {
			return a.Tool < b.Tool
		}
		return a.Decision < b.Decision
	})
	return ev
}
