package chart

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Synthesizer is the one-shot code-synthesis call to the model.
type Synthesizer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Renderer drives the full pipeline: resolve data, synthesize code, screen
// it, execute it in the sandbox, hand back the image path. The caller owns
// transmitting and deleting the file.
type Renderer struct {
	synth   Synthesizer
	querier Querier
	outDir  string
	timeout time.Duration
	logger  *slog.Logger
}

// NewRenderer builds a renderer writing images under outDir. timeout bounds
// the sandboxed execution.
func NewRenderer(synth Synthesizer, querier Querier, outDir string, timeout time.Duration, logger *slog.Logger) *Renderer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Renderer{synth: synth, querier: querier, outDir: outDir, timeout: timeout, logger: logger}
}

// Draw produces a chart for the request and returns the image path.
func (r *Renderer) Draw(ctx context.Context, request string) (string, error) {
	table, err := ResolveData(ctx, request, r.querier)
	if err != nil {
		return "", err
	}
	r.logger.Debug("resolved chart data", "columns", table.Columns, "rows", len(table.Rows))

	code, err := r.synth.Complete(ctx, synthSystemPrompt, synthUserPrompt(table.Columns, request))
	if err != nil {
		return "", fmt.Errorf("synthesizing chart code: %w", err)
	}

	screened, err := Screen(code)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(r.outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating chart directory: %w", err)
	}
	outPath := filepath.Join(r.outDir, "chart-"+uuid.NewString()+".png")

	execCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := Execute(execCtx, screened, table, outPath); err != nil {
		// Never leave a partial image behind a failed execution.
		os.Remove(outPath)
		return "", &ExecError{Code: screened, Err: err}
	}

	r.logger.Debug("chart rendered", "path", outPath)
	return outPath, nil
}
