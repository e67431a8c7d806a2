package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/oppdesk/oppdesk/internal/config"
	"github.com/oppdesk/oppdesk/internal/journal"
	"github.com/oppdesk/oppdesk/internal/metrics"
	"github.com/oppdesk/oppdesk/internal/store"
)

var (
	journalSession string
	journalExport  string
	journalStats   bool
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "View a session's tool-call journal",
	Long: `Journal prints the tool calls recorded for a chat session: which
tools the assistant used, with what arguments, and whether they
succeeded.

Examples:
  oppdesk journal --session 6b3e...
  oppdesk journal --session 6b3e... --stats
  oppdesk journal --session 6b3e... --export journal.md`,
	RunE: runJournal,
}

func init() {
	journalCmd.Flags().StringVarP(&journalSession, "session", "s", "", "session id (required)")
	journalCmd.Flags().StringVar(&journalExport, "export", "", "write the journal as markdown to this file")
	journalCmd.Flags().BoolVar(&journalStats, "stats", false, "print a tool usage summary instead of the full journal")
	journalCmd.MarkFlagRequired("session")
}

func runJournal(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	st, err := store.Open(cfg.Store.SessionPath)
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}
	defer st.Close()

	if _, err := st.GetSession(journalSession); err != nil {
		return err
	}

	if journalStats {
		summary, err := metrics.NewCollector(st, journalSession).Summary()
		if err != nil {
			return err
		}
		fmt.Println(summary)
		return nil
	}

	j := journal.New(st, journalSession)
	md, err := j.ExportMarkdown()
	if err != nil {
		return fmt.Errorf("exporting journal: %w", err)
	}

	if journalExport != "" {
		if dir := filepath.Dir(journalExport); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("creating export directory: %w", err)
			}
		}
		if err := os.WriteFile(journalExport, []byte(md), 0o644); err != nil {
			return fmt.Errorf("writing journal: %w", err)
		}
		fmt.Printf("Exported: %s\n", journalExport)
		return nil
	}

	fmt.Println(md)
	return nil
}
