package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oppdesk/oppdesk/internal/agent"
	"github.com/oppdesk/oppdesk/internal/chart"
	"github.com/oppdesk/oppdesk/internal/config"
	"github.com/oppdesk/oppdesk/internal/journal"
	"github.com/oppdesk/oppdesk/internal/llm"
	"github.com/oppdesk/oppdesk/internal/opportunity"
	"github.com/oppdesk/oppdesk/internal/query"
	"github.com/oppdesk/oppdesk/internal/store"
)

var chatUser string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive assistant session",
	Long: `Chat starts an interactive session with the presales assistant.
Type a message and press enter; type 'exit' or 'quit' (or press Ctrl-D)
to end the session.

Examples:
  oppdesk chat
  oppdesk chat --user alice`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatUser, "user", "u", "", "user name recorded with the session")
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.ValidateLLM(); err != nil {
		return err
	}

	opps := opportunity.NewStore(cfg.Store.Path)
	if err := opps.InitializeIfAbsent(); err != nil {
		return fmt.Errorf("preparing opportunity file: %w", err)
	}

	st, err := store.Open(cfg.Store.SessionPath)
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}
	defer st.Close()

	client := llm.NewClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Timeout.Std())
	renderer := chart.NewRenderer(client, snapshotQuerier{opps}, cfg.Chart.OutputDir, cfg.Chart.ExecTimeout.Std(), logger)

	sessions := agent.NewSessions(st, cfg.Session.TTL.Std(), func(sessionID string) (*agent.Agent, error) {
		jnl := journal.New(st, sessionID)
		prompt := agent.SystemPrompt(cfg, time.Now())
		return agent.New(client, opps, query.New(), renderer, jnl, logger, prompt), nil
	})

	sess, err := sessions.Create(chatUser)
	if err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	defer sessions.Close(sess.ID)

	logger.Info("session started", "session", sess.ID, "model", cfg.LLM.Model)
	fmt.Printf("oppdesk assistant (session %s)\n", sess.ID)
	fmt.Println("Type 'exit' to quit.")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		cancel()
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		current, err := sessions.Get(sess.ID)
		if err != nil {
			// TTL elapsed mid-conversation; start fresh.
			fmt.Println("Session expired, starting a new one.")
			current, err = sessions.Create(chatUser)
			if err != nil {
				return fmt.Errorf("restarting session: %w", err)
			}
			sess = current
		}

		reply, err := current.Agent.HandleTurn(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.Error("turn failed", "error", err)
			fmt.Println("Sorry, something went wrong. Please try again.")
			continue
		}
		fmt.Println(reply)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Println("Goodbye.")
	return nil
}

// snapshotQuerier adapts the flat-file store to the chart package's Querier.
type snapshotQuerier struct {
	opps *opportunity.Store
}

func (q snapshotQuerier) Select(ctx context.Context, sqlText string) (*query.Result, error) {
	records, err := q.opps.Snapshot()
	if err != nil {
		return nil, err
	}
	return query.New().Select(ctx, records, sqlText)
}
