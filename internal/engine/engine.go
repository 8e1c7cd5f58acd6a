// Package engine is the file-renaming engine behind frencli.
//
// It discovers files, renders rename patterns into previews, validates the
// proposed renames against the filesystem and applies them. The pipeline in
// internal/executor only talks to it through small interfaces, so every
// operation here can be replaced by a fake in tests.
//
// # Pattern language
//
//	%N %n   file name without extension (accepts a character range)
//	%E %e   extension without the dot (accepts a character range)
//	%F      full file name
//	%P      parent directory name (accepts a character range)
//	%C[w]   1-based counter, zero padded to w digits
//	%D %H   current date (YYYY-MM-DD) and time (HH-MM-SS)
//	%FD %FH file modification date and time
//	%L %U %T  lower, upper and title case from here on
//	%M      trim surrounding whitespace
//	%R/old/new  literal replacement in the text built so far
//	%X/re/new   regular expression replacement in the text built so far
//	%%      a literal percent sign
//
// Ranges are 1-based and inclusive: 2-5, 3-, -4 and 1--3 (drop three
// characters from the end).
package engine

import (
	"io"
	"os"
	"time"
)

// Rename is one proposed rename.
type Rename struct {
	OldPath string `json:"old_path"`
	NewPath string `json:"new_path"`
	NewName string `json:"new_name"`
}

// Preview is the result of rendering a pattern over a file set.
type Preview struct {
	Renames       []Rename `json:"renames"`
	Warnings      []string `json:"warnings"`
	HasEmptyNames bool     `json:"has_empty_names"`
}

// EmptyNameCount returns how many renames have a blank new name.
func (p *Preview) EmptyNameCount() int {
	n := 0
	for _, r := range p.Renames {
		if isBlank(r.NewName) {
			n++
		}
	}
	return n
}

// Config configures an Engine.
type Config struct {
	// Stdin is read when a path list source is "-".
	Stdin io.Reader

	// Now returns the time used for %D and %H.
	Now func() time.Time

	// MaxNameLength and MaxPathLength bound generated names. Zero selects
	// the defaults of 255 and 4096 bytes.
	MaxNameLength int
	MaxPathLength int
}

// Engine implements discovery, preview, validation and apply.
type Engine struct {
	stdin         io.Reader
	now           func() time.Time
	maxNameLength int
	maxPathLength int
}

// New creates an Engine. A nil cfg uses the defaults.
func New(cfg *Config) *Engine {
	if cfg == nil {
		cfg = &Config{}
	}

	e := &Engine{
		stdin:         cfg.Stdin,
		now:           cfg.Now,
		maxNameLength: cfg.MaxNameLength,
		maxPathLength: cfg.MaxPathLength,
	}
	if e.stdin == nil {
		e.stdin = os.Stdin
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.maxNameLength == 0 {
		e.maxNameLength = 255
	}
	if e.maxPathLength == 0 {
		e.maxPathLength = 4096
	}
	return e
}
