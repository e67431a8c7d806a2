package agent

import (
	"fmt"
	"strings"
	"time"

	"github.com/oppdesk/oppdesk/internal/config"
)

// SystemPrompt composes the assistant's standing instructions from the
// configured company and workshare conventions. The current time is
// embedded so the model can resolve relative dates like "next Friday".
func SystemPrompt(cfg *config.Config, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a helpful presales assistant at %s. ", cfg.Company)
	b.WriteString("You help account teams track sales opportunities, answer questions about the pipeline, draw charts, and set up proposal folders.\n\n")

	fmt.Fprintf(&b, "The current date and time is %s.\n\n", now.Format("Monday, 2 January 2006 15:04"))

	b.WriteString("Rules:\n")
	b.WriteString("- Use the tools for every data operation. Never invent opportunity data.\n")
	b.WriteString("- Dates are recorded as YYYY-MM-DD. Convert relative dates before storing them.\n")
	b.WriteString("- When updating an opportunity, identify it by opp_id or opp_name. New details are appended to the existing notes, so only send the new information.\n")
	b.WriteString("- When a query returns no rows, say so plainly.\n")
	b.WriteString("- For charts, pass the user's request to draw_chart verbatim and reply with the saved image path.\n\n")

	if cfg.Workshare.Root != "" {
		b.WriteString("Proposal folder conventions:\n")
		fmt.Fprintf(&b, "- The workshare root is %s.\n", cfg.Workshare.Root)
		fmt.Fprintf(&b, "- A new opportunity folder lives at <workshare root>/<customer name>/<opportunity name>.\n")
		fmt.Fprintf(&b, "- The default proposal template is in %s.\n", cfg.TemplateDir())
		if cfg.Workshare.ProposalTemplate != "" {
			fmt.Fprintf(&b, "- The template file is %s.\n", cfg.Workshare.ProposalTemplate)
		}
		b.WriteString("- To set up a proposal, copy the template into the opportunity folder with copy_files.\n")
	}
	return b.String()
}
