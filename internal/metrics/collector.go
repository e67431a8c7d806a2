// Package metrics summarizes how a chat session used its tools.
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/oppdesk/oppdesk/internal/store"
)

// Usage aggregates the tool-call journal of one session.
type Usage struct {
	Calls     int
	Errors    int
	ToolTime  time.Duration
	ByTool    map[string]int
	FirstCall time.Time
	LastCall  time.Time
}

// ErrorRate returns the share of failed calls, between 0 and 1.
func (u *Usage) ErrorRate() float64 {
	if u.Calls == 0 {
		return 0
	}
	return float64(u.Errors) / float64(u.Calls)
}

// BusiestTool returns the most-called tool and its count. Ties break
// alphabetically so the answer is stable.
func (u *Usage) BusiestTool() (string, int) {
	var name string
	var max int
	tools := make([]string, 0, len(u.ByTool))
	for t := range u.ByTool {
		tools = append(tools, t)
	}
	sort.Strings(tools)
	for _, t := range tools {
		if u.ByTool[t] > max {
			name, max = t, u.ByTool[t]
		}
	}
	return name, max
}

// Collector computes usage statistics from the session store.
type Collector struct {
	store     *store.Store
	sessionID string
}

// NewCollector creates a collector for the given session.
func NewCollector(s *store.Store, sessionID string) *Collector {
	return &Collector{store: s, sessionID: sessionID}
}

// Usage reads the session's journal and aggregates it.
func (c *Collector) Usage() (*Usage, error) {
	calls, err := c.store.ToolCalls(c.sessionID)
	if err != nil {
		return nil, fmt.Errorf("reading tool calls: %w", err)
	}
	u := &Usage{ByTool: make(map[string]int)}
	for _, tc := range calls {
		u.Calls++
		if tc.Status != "success" {
			u.Errors++
		}
		u.ToolTime += tc.Duration
		u.ByTool[tc.Tool]++
		if u.FirstCall.IsZero() || tc.CalledAt.Before(u.FirstCall) {
			u.FirstCall = tc.CalledAt
		}
		if tc.CalledAt.After(u.LastCall) {
			u.LastCall = tc.CalledAt
		}
	}
	return u, nil
}

// Summary returns a one-line summary of the session's tool usage.
func (c *Collector) Summary() (string, error) {
	u, err := c.Usage()
	if err != nil {
		return "", err
	}
	if u.Calls == 0 {
		return "No tool calls recorded.", nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Tool calls: %d | Errors: %d (%.0f%%) | Tool time: %s",
		u.Calls, u.Errors, u.ErrorRate()*100, u.ToolTime.Round(time.Millisecond))
	if tool, n := u.BusiestTool(); tool != "" {
		fmt.Fprintf(&b, " | Busiest: %s (%d)", tool, n)
	}
	return b.String(), nil
}
