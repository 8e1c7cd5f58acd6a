package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// GeneratePreview renders pattern for every file in order. Files are not
// touched; only %FD and %FH stat them.
func (e *Engine) GeneratePreview(ctx context.Context, files []string, pattern string) (*Preview, error) {
	now := e.now()
	preview := &Preview{
		Renames:  make([]Rename, 0, len(files)),
		Warnings: []string{},
	}
	seenWarning := make(map[string]bool)

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		newName, warnings, err := renderPattern(pattern, describe(path, i+1), now)
		if err != nil {
			return nil, err
		}
		for _, w := range warnings {
			if !seenWarning[w] {
				seenWarning[w] = true
				preview.Warnings = append(preview.Warnings, w)
			}
		}

		if isBlank(newName) {
			preview.HasEmptyNames = true
		}

		preview.Renames = append(preview.Renames, Rename{
			OldPath: path,
			NewPath: filepath.Join(filepath.Dir(path), newName),
			NewName: newName,
		})
	}

	return preview, nil
}

// RecheckEmptyNames recomputes HasEmptyNames after renames were edited.
func (p *Preview) RecheckEmptyNames() {
	p.HasEmptyNames = p.EmptyNameCount() > 0
}

func describe(path string, index int) fileInfo {
	full := filepath.Base(path)
	name, ext := splitExt(full)

	parent := filepath.Base(filepath.Dir(path))
	if parent == "." || parent == string(filepath.Separator) {
		if abs, err := filepath.Abs(filepath.Dir(path)); err == nil {
			parent = filepath.Base(abs)
		}
	}

	return fileInfo{
		name:   name,
		ext:    ext,
		full:   full,
		parent: parent,
		index:  index,
		modTime: func() (time.Time, error) {
			st, err := os.Stat(path)
			if err != nil {
				return time.Time{}, err
			}
			return st.ModTime(), nil
		},
	}
}

// splitExt splits a base name at its last dot. A leading dot does not start
// an extension.
func splitExt(base string) (name, ext string) {
	dot := strings.LastIndexByte(base, '.')
	if dot <= 0 {
		return base, ""
	}
	return base[:dot], base[dot+1:]
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
