// Package agent runs the conversational loop: it forwards user turns to the
// model together with the tool schema, executes the tool calls the model
// emits, and feeds the results back until the model produces a plain reply.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/oppdesk/oppdesk/internal/chart"
	"github.com/oppdesk/oppdesk/internal/fileops"
	"github.com/oppdesk/oppdesk/internal/journal"
	"github.com/oppdesk/oppdesk/internal/llm"
	"github.com/oppdesk/oppdesk/internal/opportunity"
	"github.com/oppdesk/oppdesk/internal/query"
)

// maxToolRounds bounds how many tool-call round trips a single user turn may
// take before the loop gives up and asks the model for a plain answer.
const maxToolRounds = 4

// ChatCompleter is the slice of the llm client the agent needs.
type ChatCompleter interface {
	Chat(ctx context.Context, messages []llm.Message, tools []llm.Tool) (llm.Message, error)
}

// ChartDrawer renders a chart for a natural-language request and returns the
// path of the written image.
type ChartDrawer interface {
	Draw(ctx context.Context, request string) (string, error)
}

// ToolResult is the JSON payload returned to the model for every tool call.
type ToolResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Agent wires the model to the opportunity store, the query engine, the
// chart renderer and the file utilities for one chat session.
type Agent struct {
	llm     ChatCompleter
	opps    *opportunity.Store
	queries *query.Engine
	charts  ChartDrawer
	journal *journal.Journal
	logger  *slog.Logger

	messages []llm.Message
}

// New builds an agent with the given collaborators. journal and logger may be
// nil; systemPrompt is installed as the first message of the conversation.
func New(completer ChatCompleter, opps *opportunity.Store, queries *query.Engine, charts ChartDrawer, jnl *journal.Journal, logger *slog.Logger, systemPrompt string) *Agent {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Agent{
		llm:      completer,
		opps:     opps,
		queries:  queries,
		charts:   charts,
		journal:  jnl,
		logger:   logger,
		messages: []llm.Message{{Role: llm.RoleSystem, Content: systemPrompt}},
	}
}

// History returns the conversation so far, including the system prompt.
func (a *Agent) History() []llm.Message {
	return a.messages
}

// HandleTurn processes one user message and returns the assistant's reply.
// Tool calls the model emits along the way are executed and their results
// appended to the conversation before the model is asked again.
func (a *Agent) HandleTurn(ctx context.Context, userText string) (string, error) {
	a.messages = append(a.messages, llm.Message{Role: llm.RoleUser, Content: userText})

	for round := 0; ; round++ {
		tools := Tools
		if round >= maxToolRounds {
			// Force a plain answer once the budget is spent.
			tools = nil
		}
		reply, err := a.llm.Chat(ctx, a.messages, tools)
		if err != nil {
			return "", fmt.Errorf("calling model: %w", err)
		}
		a.messages = append(a.messages, reply)

		if len(reply.ToolCalls) == 0 || round >= maxToolRounds {
			return reply.Content, nil
		}
		for _, tc := range reply.ToolCalls {
			result := a.dispatch(ctx, tc)
			payload, err := json.Marshal(result)
			if err != nil {
				return "", fmt.Errorf("encoding tool result: %w", err)
			}
			a.messages = append(a.messages, llm.Message{
				Role:       llm.RoleTool,
				ToolCallID: tc.ID,
				Name:       tc.Function.Name,
				Content:    string(payload),
			})
		}
	}
}

// dispatch executes one tool call and records it in the session journal.
// Tool failures are reported back to the model as error results, never as
// Go errors, so the model can recover or explain the failure to the user.
func (a *Agent) dispatch(ctx context.Context, tc llm.ToolCall) ToolResult {
	start := time.Now()
	var result ToolResult
	switch tc.Function.Name {
	case toolCopyFiles:
		result = a.runCopyFiles(tc.Function.Arguments)
	case toolAddOpp:
		result = a.runAddOpportunity(tc.Function.Arguments)
	case toolUpdateOpp:
		result = a.runUpdateOpportunity(tc.Function.Arguments)
	case toolQueryOpps:
		result = a.runQueryOpportunities(ctx, tc.Function.Arguments)
	case toolDrawChart:
		result = a.runDrawChart(ctx, tc.Function.Arguments)
	default:
		result = ToolResult{Status: statusError, Message: fmt.Sprintf("unknown tool %q", tc.Function.Name)}
	}

	elapsed := time.Since(start)
	a.logger.Info("tool call",
		"tool", tc.Function.Name, "status", result.Status, "duration", elapsed)
	if a.journal != nil {
		if err := a.journal.Record(tc.Function.Name, json.RawMessage(tc.Function.Arguments), result.Status, result.Message, elapsed); err != nil {
			a.logger.Warn("recording tool call", "error", err)
		}
	}
	return result
}

func (a *Agent) runCopyFiles(rawArgs string) ToolResult {
	var args copyFilesArgs
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return errResult(fmt.Errorf("decoding copy_files arguments: %w", err))
	}
	res, err := fileops.Copy(args.SourcePath, args.DestinationPath, args.FilePattern)
	if err != nil {
		return errResult(err)
	}
	return ToolResult{Status: statusSuccess, Message: res.Summary(args.DestinationPath)}
}

func (a *Agent) runAddOpportunity(rawArgs string) ToolResult {
	var args addOppArgs
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return errResult(fmt.Errorf("decoding add_opportunity arguments: %w", err))
	}
	rec, err := a.opps.Create(opportunity.Record{
		CustomerName:       args.CustomerName,
		OppID:              args.OppID,
		OppName:            args.OppName,
		SubmissionDate:     args.SubmissionDate,
		TenderBriefingDate: args.TenderBriefingDate,
		Review1Date:        args.Review1Date,
		Review2Date:        args.Review2Date,
		AMName:             args.AMName,
		Offshore:           args.Offshore,
		BCCReviewDate:      args.BCCReviewDate,
		DealSize:           args.DealSize,
		Stage:              args.Stage,
		Details:            args.Details,
	})
	if err != nil {
		return errResult(err)
	}
	return ToolResult{
		Status:  statusSuccess,
		Message: fmt.Sprintf("Opportunity %q added for %s (no %d).", rec.OppName, rec.CustomerName, rec.No),
	}
}

func (a *Agent) runUpdateOpportunity(rawArgs string) ToolResult {
	var args updateOppArgs
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return errResult(fmt.Errorf("decoding update_opportunity arguments: %w", err))
	}
	loc := opportunity.Locator{OppID: args.OppID, OppName: args.OppName}
	n, err := a.opps.Update(loc, opportunity.Fields{
		NewOppID:           args.NewOppID,
		CustomerName:       args.CustomerName,
		SubmissionDate:     args.SubmissionDate,
		TenderBriefingDate: args.TenderBriefingDate,
		Review1Date:        args.Review1Date,
		Review2Date:        args.Review2Date,
		AMName:             args.AMName,
		Offshore:           args.Offshore,
		BCCReviewDate:      args.BCCReviewDate,
		DealSize:           args.DealSize,
		Stage:              args.Stage,
		Details:            args.Details,
	})
	if err != nil {
		if errors.Is(err, opportunity.ErrNotFound) {
			return ToolResult{Status: statusError, Message: fmt.Sprintf("No opportunity found for %s.", loc)}
		}
		return errResult(err)
	}
	return ToolResult{Status: statusSuccess, Message: fmt.Sprintf("Updated %d opportunity record(s) for %s.", n, loc)}
}

func (a *Agent) runQueryOpportunities(ctx context.Context, rawArgs string) ToolResult {
	args := queryOppsArgs{SQLQuery: defaultQuerySQL}
	if strings.TrimSpace(rawArgs) != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return errResult(fmt.Errorf("decoding query_opportunities arguments: %w", err))
		}
	}
	if strings.TrimSpace(args.SQLQuery) == "" {
		args.SQLQuery = defaultQuerySQL
	}
	records, err := a.opps.Snapshot()
	if err != nil {
		return errResult(err)
	}
	res, err := a.queries.Select(ctx, records, args.SQLQuery)
	if err != nil {
		return errResult(err)
	}
	if res.Empty() {
		return ToolResult{Status: statusSuccess, Message: "No opportunities match the query."}
	}
	return ToolResult{Status: statusSuccess, Message: strings.Join(res.FormatRows(), "\n\n")}
}

func (a *Agent) runDrawChart(ctx context.Context, rawArgs string) ToolResult {
	var args drawChartArgs
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return errResult(fmt.Errorf("decoding draw_chart arguments: %w", err))
	}
	if a.charts == nil {
		return ToolResult{Status: statusError, Message: "chart rendering is not configured"}
	}
	path, err := a.charts.Draw(ctx, args.Request)
	if err != nil {
		var execErr *chart.ExecError
		if errors.As(err, &execErr) {
			return ToolResult{Status: statusError, Message: "generated chart code failed: " + execErr.Err.Error()}
		}
		return errResult(err)
	}
	return ToolResult{Status: statusSuccess, Message: "Chart saved to " + path}
}

func errResult(err error) ToolResult {
	return ToolResult{Status: statusError, Message: err.Error()}
}
