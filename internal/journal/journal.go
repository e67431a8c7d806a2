// Package journal records the tool invocations of one chat session.
package journal

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/oppdesk/oppdesk/internal/store"
)

// Journal is a thin wrapper over store scoped to one session.
type Journal struct {
	store     *store.Store
	sessionID string
}

// New creates a journal for the given session.
func New(s *store.Store, sessionID string) *Journal {
	return &Journal{store: s, sessionID: sessionID}
}

// Record journals one tool invocation. args is marshaled as JSON; a nil args
// journals an empty argument list.
func (j *Journal) Record(tool string, args any, status, message string, duration time.Duration) error {
	var argsJSON string
	if args != nil {
		data, err := json.Marshal(args)
		if err != nil {
			return fmt.Errorf("marshaling tool arguments: %w", err)
		}
		argsJSON = string(data)
	}
	return j.store.AddToolCall(&store.ToolCall{
		SessionID: j.sessionID,
		Tool:      tool,
		Arguments: argsJSON,
		Status:    status,
		Message:   message,
		Duration:  duration,
	})
}

// Entries returns the session's journaled invocations in call order.
func (j *Journal) Entries() ([]*store.ToolCall, error) {
	return j.store.ToolCalls(j.sessionID)
}

// ExportMarkdown generates a human-readable session transcript.
func (j *Journal) ExportMarkdown() (string, error) {
	entries, err := j.Entries()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Session %s\n\n", j.sessionID))
	if len(entries) == 0 {
		sb.WriteString("No tool calls recorded.\n")
		return sb.String(), nil
	}
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("## %s — %s (%s)\n\n",
			e.CalledAt.Format(time.RFC3339), e.Tool, e.Status))
		if e.Arguments != "" {
			sb.WriteString(fmt.Sprintf("Arguments: `%s`\n\n", e.Arguments))
		}
		if e.Message != "" {
			sb.WriteString(e.Message + "\n\n")
		}
	}
	return sb.String(), nil
}
