package agent

import (
	"strings"
	"testing"
	"time"

	"github.com/oppdesk/oppdesk/internal/config"
)

func TestSystemPromptIncludesCompanyAndDate(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Company = "Acme Consulting"
	now := time.Date(2026, time.March, 6, 9, 30, 0, 0, time.UTC)

	prompt := SystemPrompt(cfg, now)
	if !strings.Contains(prompt, "Acme Consulting") {
		t.Fatalf("prompt missing company: %q", prompt)
	}
	if !strings.Contains(prompt, "Friday, 6 March 2026 09:30") {
		t.Fatalf("prompt missing date: %q", prompt)
	}
	// No workshare root configured, so no folder conventions.
	if strings.Contains(prompt, "workshare root") {
		t.Fatalf("prompt mentions workshare without a root: %q", prompt)
	}
}

func TestSystemPromptWorkshareConventions(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Workshare.Root = "/srv/workshare"
	cfg.Workshare.ProposalTemplate = "Dev Proposal v3.docx"

	prompt := SystemPrompt(cfg, time.Now())
	for _, want := range []string{
		"/srv/workshare",
		"<workshare root>/<customer name>/<opportunity name>",
		"00 Latest Templates",
		"Dev Proposal v3.docx",
		"copy_files",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}
