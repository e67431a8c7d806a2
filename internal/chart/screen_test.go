package chart

import (
	"errors"
	"strings"
	"testing"
)

const goodFragment = `labels = data["item"]
values = data["value"]
fig = pie(labels, values)
title(fig, "Fruit share")
savefig(fig, out)`

func TestScreenAcceptsContractCode(t *testing.T) {
	cleaned, err := Screen(goodFragment)
	if err != nil {
		t.Fatalf("screening: %v", err)
	}
	if cleaned != goodFragment {
		t.Errorf("cleaned fragment changed:\n%s", cleaned)
	}
}

func TestScreenStripsFencesAndComments(t *testing.T) {
	raw := "```go\n# draw the chart\n" + goodFragment + "\n\n```"
	cleaned, err := Screen(raw)
	if err != nil {
		t.Fatalf("screening: %v", err)
	}
	if cleaned != goodFragment {
		t.Errorf("cleaned = %q", cleaned)
	}
}

func TestScreenRejectsUnsafeCode(t *testing.T) {
	cases := []struct {
		name string
		code string
	}{
		{"import", "import os\n" + goodFragment},
		{"eval", strings.Replace(goodFragment, `pie(labels, values)`, `eval("pie(labels, values)")`, 1)},
		{"exec", goodFragment + "\nexec(\"rm -rf /\")"},
		{"base64", goodFragment + "\npayload = base64(values)"},
		{"data uri", strings.Replace(goodFragment, `"Fruit share"`, `"data:image/png;base64,AAAA"`, 1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Screen(tc.code); !errors.Is(err, ErrUnsafeCode) {
				t.Fatalf("expected ErrUnsafeCode, got %v", err)
			}
		})
	}
}

func TestScreenRejectsBadOpeners(t *testing.T) {
	cases := []struct {
		name string
		code string
	}{
		{"call to unknown function", "open(\"/etc/passwd\")\n" + goodFragment},
		{"assignment from literal", "x = 42\n" + goodFragment},
		{"not a statement", "for i in range(10):\n" + goodFragment},
		{"empty", "\n\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Screen(tc.code); !errors.Is(err, ErrInvalidCode) {
				t.Fatalf("expected ErrInvalidCode, got %v", err)
			}
		})
	}
}

func TestScreenAllowsFigureOpener(t *testing.T) {
	code := "figure(800, 600)\n" + goodFragment
	if _, err := Screen(code); err != nil {
		t.Fatalf("screening: %v", err)
	}
}
