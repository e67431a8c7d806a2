package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oppdesk/oppdesk/internal/config"
	"github.com/oppdesk/oppdesk/internal/opportunity"
	"github.com/oppdesk/oppdesk/internal/store"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the oppdesk workspace",
	Long: `Init creates the files oppdesk needs in the current directory:

- oppdesk.yaml      - configuration file
- opportunities.csv - opportunity table (header only)
- oppdesk.db        - session and tool-call journal

Existing files are left alone unless --force is given; the opportunity
file is never overwritten.

Examples:
  oppdesk init
  oppdesk init --force`,
	RunE: runInitWorkspace,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing config file")
}

func runInitWorkspace(cmd *cobra.Command, args []string) error {
	cfgPath := cfgFile
	if cfgPath == "" {
		cfgPath = "oppdesk.yaml"
	}

	if _, err := os.Stat(cfgPath); err == nil && !initForce {
		logger.Info("config file already exists", "path", cfgPath)
	} else {
		cfg := config.DefaultConfig()
		if err := cfg.Save(cfgPath); err != nil {
			return err
		}
		logger.Info("wrote config file", "path", cfgPath)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	opps := opportunity.NewStore(cfg.Store.Path)
	if err := opps.InitializeIfAbsent(); err != nil {
		return fmt.Errorf("preparing opportunity file: %w", err)
	}

	st, err := store.Open(cfg.Store.SessionPath)
	if err != nil {
		return fmt.Errorf("preparing session store: %w", err)
	}
	st.Close()

	fmt.Println("Initialized oppdesk workspace:")
	fmt.Printf("  - %s  (configuration)\n", cfgPath)
	fmt.Printf("  - %s  (opportunity table)\n", cfg.Store.Path)
	fmt.Printf("  - %s  (session journal)\n", cfg.Store.SessionPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Set OPENAI_API_KEY (or put it in oppdesk.yaml)")
	fmt.Println("  2. Run 'oppdesk chat' to start a session")

	return nil
}
