package chart

import (
	"fmt"
	"strings"
)

// synthSystemPrompt is the fixed code-synthesis contract. The reply is
// treated as wholly untrusted regardless of what the prompt demands.
const synthSystemPrompt = `You write chart-drawing code fragments. Rules:
- One statement per line. Each line is either 'name = expression' or a call.
- Available names: data (the table), out (the output file path).
- Available functions: pie(labels, values), bar(labels, values), line(labels, values), title(fig, "text"), savefig(fig, out).
- Access table columns only as data["column_name"].
- Never import anything, never call any other function, never encode data.
- Draw exactly one figure and finish with savefig(fig, out).
- Reply with the code fragment only, no prose and no markdown fences.`

// synthUserPrompt carries the resolved columns plus the user's phrasing.
func synthUserPrompt(columns []string, request string) string {
	return fmt.Sprintf("Table columns: %s\nRequest: %s", strings.Join(columns, ", "), request)
}
