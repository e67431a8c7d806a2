package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oppdesk/oppdesk/internal/config"
	"github.com/oppdesk/oppdesk/internal/opportunity"
	"github.com/oppdesk/oppdesk/internal/query"
)

var queryCmd = &cobra.Command{
	Use:   "query [sql]",
	Short: "Run a read-only SQL query over the opportunity table",
	Long: `Query runs one read-only SQL statement against the opportunity
table and prints the matching rows. The table is named 'opportunities'.
Without an argument it prints the first few rows.

Examples:
  oppdesk query
  oppdesk query "SELECT opp_name, stage FROM opportunities WHERE customer_name = 'SingTel'"
  oppdesk query "SELECT stage, COUNT(*) AS n FROM opportunities GROUP BY stage"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	sqlText := "SELECT * FROM opportunities LIMIT 4"
	if len(args) == 1 {
		sqlText = args[0]
	}

	opps := opportunity.NewStore(cfg.Store.Path)
	records, err := opps.Snapshot()
	if err != nil {
		return fmt.Errorf("reading opportunity file: %w", err)
	}

	res, err := query.New().Select(cmd.Context(), records, sqlText)
	if err != nil {
		return err
	}
	if res.Empty() {
		fmt.Println("No opportunities match the query.")
		return nil
	}
	fmt.Println(strings.Join(res.FormatRows(), "\n\n"))
	return nil
}
