// Package fileops copies proposal files and opportunity folders around the
// workshare tree.
package fileops

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrSourceNotFound means the source path does not exist.
	ErrSourceNotFound = errors.New("source path does not exist")

	// ErrNoMatch means a pattern matched no files in the source directory.
	ErrNoMatch = errors.New("no files match the pattern")

	// ErrSameFile means source and destination resolve to the same file.
	ErrSameFile = errors.New("source and destination are the same file")

	// ErrPermission surfaces OS permission failures; copy errors wrap the
	// underlying os error so errors.Is(err, ErrPermission) keeps working.
	ErrPermission = fs.ErrPermission
)

// Result reports what a copy actually did.
type Result struct {
	Files []string // copied file names, relative to the destination
}

// Summary renders the result as a one-line confirmation naming every file.
func (r *Result) Summary(dst string) string {
	return fmt.Sprintf("Copied %d file(s): %s to %s",
		len(r.Files), strings.Join(r.Files, ", "), dst)
}

// Copy copies src to dst. src may be a single file, a directory (recursive
// tree copy when pattern is empty), or a directory filtered by a glob
// pattern, in which case only matching files immediately inside the
// directory are copied. The destination directory is created if absent.
func Copy(src, dst, pattern string) (*Result, error) {
	src = filepath.Clean(src)
	dst = filepath.Clean(dst)

	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%q: %w", src, ErrSourceNotFound)
		}
		return nil, wrapOS("inspecting source", err)
	}

	if err := os.MkdirAll(dst, 0o755); err != nil {
		return nil, wrapOS("creating destination directory", err)
	}

	if !info.IsDir() {
		name := filepath.Base(src)
		if err := copyFile(src, filepath.Join(dst, name)); err != nil {
			return nil, err
		}
		return &Result{Files: []string{name}}, nil
	}

	// No pattern means copy the whole tree; a pattern (including the default
	// "*") only matches files immediately inside the directory.
	if pattern == "" {
		return copyTree(src, dst)
	}
	return copyGlob(src, dst, pattern)
}

// copyGlob copies files immediately inside src that match pattern.
// Subdirectories are skipped.
func copyGlob(src, dst, pattern string) (*Result, error) {
	matches, err := filepath.Glob(filepath.Join(src, pattern))
	if err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}

	result := &Result{}
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		name := filepath.Base(match)
		if err := copyFile(match, filepath.Join(dst, name)); err != nil {
			return nil, err
		}
		result.Files = append(result.Files, name)
	}
	if len(result.Files) == 0 {
		return nil, fmt.Errorf("pattern %q in %q: %w", pattern, src, ErrNoMatch)
	}
	return result, nil
}

// copyTree recursively copies the directory tree rooted at src into dst.
func copyTree(src, dst string) (*Result, error) {
	result := &Result{}
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return wrapOS("walking source tree", err)
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return fmt.Errorf("resolving relative path: %w", err)
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return wrapOS("creating directory", err)
			}
			return nil
		}
		if err := copyFile(path, target); err != nil {
			return err
		}
		result.Files = append(result.Files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// copyFile copies one regular file, preserving its mode.
func copyFile(src, dst string) error {
	srcAbs, err1 := filepath.Abs(src)
	dstAbs, err2 := filepath.Abs(dst)
	if err1 == nil && err2 == nil && srcAbs == dstAbs {
		return fmt.Errorf("%q: %w", src, ErrSameFile)
	}

	in, err := os.Open(src)
	if err != nil {
		return wrapOS("opening source file", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return wrapOS("inspecting source file", err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return wrapOS("creating destination file", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return wrapOS("copying file contents", err)
	}
	if err := out.Close(); err != nil {
		return wrapOS("closing destination file", err)
	}
	return nil
}

// wrapOS keeps permission failures recognizable with errors.Is(err,
// ErrPermission) while wrapping everything else as a plain copy error.
func wrapOS(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
