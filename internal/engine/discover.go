package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/bmatcuk/doublestar/v4"
)

// Discover returns the regular files matching pattern. A pattern naming an
// existing file is returned as is. With recursive set, a pattern without a
// "**" segment is also matched in every subdirectory.
func (e *Engine) Discover(ctx context.Context, pattern string, recursive bool) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if st, err := os.Stat(pattern); err == nil && st.Mode().IsRegular() {
		return []string{pattern}, nil
	}

	slashed := filepath.ToSlash(pattern)
	if !doublestar.ValidatePattern(slashed) {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}

	base, rel := doublestar.SplitPattern(slashed)
	if recursive && !strings.Contains(rel, "**") {
		rel = "**/" + rel
	}

	matches, err := doublestar.Glob(os.DirFS(filepath.FromSlash(base)), rel, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to search %q: %w", pattern, err)
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		files = append(files, filepath.Join(filepath.FromSlash(base), filepath.FromSlash(m)))
	}
	return files, nil
}

// ReadPathList reads one path per line from the file named by source, or
// from standard input when source is "-". Blank lines and lines starting
// with '#' are skipped; surrounding whitespace is trimmed.
func (e *Engine) ReadPathList(ctx context.Context, source string) ([]string, error) {
	var r io.Reader
	if source == "-" {
		r = e.stdin
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("failed to open file '%s': %w", source, err)
		}
		defer f.Close()
		r = f
	}

	var paths []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if line%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		trimmed := strings.TrimSpace(scanner.Text())
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		paths = append(paths, trimmed)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading line %d: %w", line+1, err)
	}
	return paths, nil
}

// FilterExcluded drops every path matching one of the exclude patterns.
//
// A pattern always matches against the base name, as a glob or as a plain
// substring. Patterns that look like directory patterns (containing '/',
// starting with "**", or containing an upper-case letter such as
// "*Archive*") are also matched against each directory component.
func FilterExcluded(paths []string, excludes []string) []string {
	if len(excludes) == 0 {
		return paths
	}

	kept := paths[:0:0]
	for _, p := range paths {
		if !excluded(p, excludes) {
			kept = append(kept, p)
		}
	}
	return kept
}

func excluded(path string, excludes []string) bool {
	name := filepath.Base(path)
	dirs := strings.Split(filepath.ToSlash(filepath.Dir(path)), "/")

	for _, pat := range excludes {
		dirPattern := isDirectoryPattern(pat)

		if ok, err := doublestar.Match(pat, name); err == nil && ok {
			return true
		}
		if strings.Contains(name, pat) {
			return true
		}
		if !dirPattern {
			continue
		}
		for _, d := range dirs {
			if d == "" || d == "." {
				continue
			}
			if ok, err := doublestar.Match(pat, d); err == nil && ok {
				return true
			}
			if strings.Contains(d, pat) {
				return true
			}
		}
	}
	return false
}

func isDirectoryPattern(pat string) bool {
	if strings.Contains(pat, "/") || strings.HasPrefix(pat, "**") {
		return true
	}
	for _, r := range pat {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}
