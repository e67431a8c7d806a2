package fileops

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating parent dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func TestCopySingleFile(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "proposals")
	writeFile(t, filepath.Join(src, "template.docx"), "template body")

	res, err := Copy(filepath.Join(src, "template.docx"), dst, "")
	if err != nil {
		t.Fatalf("copying: %v", err)
	}
	if len(res.Files) != 1 || res.Files[0] != "template.docx" {
		t.Fatalf("copied files = %v, want [template.docx]", res.Files)
	}

	data, err := os.ReadFile(filepath.Join(dst, "template.docx"))
	if err != nil {
		t.Fatalf("reading copy: %v", err)
	}
	if string(data) != "template body" {
		t.Errorf("copied content = %q", data)
	}
}

func TestCopyPattern(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")
	writeFile(t, filepath.Join(src, "a.pdf"), "a")
	writeFile(t, filepath.Join(src, "b.pdf"), "b")
	writeFile(t, filepath.Join(src, "notes.txt"), "n")

	res, err := Copy(src, dst, "*.pdf")
	if err != nil {
		t.Fatalf("copying: %v", err)
	}
	sort.Strings(res.Files)
	if len(res.Files) != 2 || res.Files[0] != "a.pdf" || res.Files[1] != "b.pdf" {
		t.Fatalf("copied files = %v, want [a.pdf b.pdf]", res.Files)
	}
	if _, err := os.Stat(filepath.Join(dst, "notes.txt")); !os.IsNotExist(err) {
		t.Error("notes.txt should not have been copied")
	}
}

func TestCopyPatternIsNonRecursive(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")
	writeFile(t, filepath.Join(src, "top.pdf"), "t")
	writeFile(t, filepath.Join(src, "nested", "deep.pdf"), "d")

	res, err := Copy(src, dst, "*.pdf")
	if err != nil {
		t.Fatalf("copying: %v", err)
	}
	if len(res.Files) != 1 || res.Files[0] != "top.pdf" {
		t.Fatalf("copied files = %v, want [top.pdf]", res.Files)
	}
}

func TestCopyTree(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "NTU", "Build AI Agents")
	writeFile(t, filepath.Join(src, "proposal.docx"), "p")
	writeFile(t, filepath.Join(src, "annex", "pricing.xlsx"), "x")

	res, err := Copy(src, dst, "")
	if err != nil {
		t.Fatalf("copying: %v", err)
	}
	sort.Strings(res.Files)
	want := []string{filepath.Join("annex", "pricing.xlsx"), "proposal.docx"}
	sort.Strings(want)
	if len(res.Files) != 2 || res.Files[0] != want[0] || res.Files[1] != want[1] {
		t.Fatalf("copied files = %v, want %v", res.Files, want)
	}
	if _, err := os.Stat(filepath.Join(dst, "annex", "pricing.xlsx")); err != nil {
		t.Errorf("nested file missing after tree copy: %v", err)
	}
}

func TestCopySourceNotFound(t *testing.T) {
	_, err := Copy(filepath.Join(t.TempDir(), "missing"), t.TempDir(), "")
	if !errors.Is(err, ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}
}

func TestCopyNoMatch(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "notes.txt"), "n")

	_, err := Copy(src, t.TempDir(), "*.pdf")
	if !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}
}

func TestCopySameFile(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "a.txt"), "a")

	_, err := Copy(filepath.Join(src, "a.txt"), src, "")
	if !errors.Is(err, ErrSameFile) {
		t.Fatalf("expected ErrSameFile, got %v", err)
	}
}

func TestSummaryNamesEveryFile(t *testing.T) {
	res := &Result{Files: []string{"a.pdf", "b.pdf"}}
	got := res.Summary("/tmp/out")
	want := "Copied 2 file(s): a.pdf, b.pdf to /tmp/out"
	if got != want {
		t.Errorf("summary = %q, want %q", got, want)
	}
}

func TestPermissionErrorsStayRecognizable(t *testing.T) {
	// Copy helpers wrap os errors; the permission sentinel must survive
	// the wrapping so callers can branch on it.
	err := wrapOS("opening source file", os.ErrPermission)
	if !errors.Is(err, ErrPermission) {
		t.Fatalf("wrapped permission error not recognizable: %v", err)
	}
}
