package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IssueKind classifies a validation issue.
type IssueKind int

const (
	InvalidCharacters IssueKind = iota + 1
	ReservedFilename
	PathTooLong
	SourceNotFound
	TargetExists
	CircularRename
	EmptyFilename
	DuplicateTarget
)

var issueKindNames = map[IssueKind]string{
	InvalidCharacters: "Invalid Characters",
	ReservedFilename:  "Reserved Filename",
	PathTooLong:       "Path Too Long",
	SourceNotFound:    "Source Not Found",
	TargetExists:      "Target Exists",
	CircularRename:    "Circular Rename",
	EmptyFilename:     "Empty Filename",
	DuplicateTarget:   "Duplicate Target",
}

// IssueKinds lists the kinds in display order.
var IssueKinds = []IssueKind{
	EmptyFilename, InvalidCharacters, ReservedFilename, PathTooLong,
	SourceNotFound, TargetExists, DuplicateTarget, CircularRename,
}

func (k IssueKind) String() string {
	if s, ok := issueKindNames[k]; ok {
		return s
	}
	return "Unknown"
}

// MarshalText renders the kind by name in JSON output.
func (k IssueKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Issue is one problem found for a rename.
type Issue struct {
	Path    string    `json:"path"`
	Kind    IssueKind `json:"kind"`
	Message string    `json:"message"`
}

// ValidationResult partitions renames into valid ones and issues. Notices
// are informational (existing targets that will be overwritten).
type ValidationResult struct {
	Valid   []Rename `json:"valid"`
	Issues  []Issue  `json:"issues"`
	Notices []Issue  `json:"notices,omitempty"`
}

// InvalidPaths returns the set of old paths with at least one issue.
func (r *ValidationResult) InvalidPaths() map[string]bool {
	out := make(map[string]bool, len(r.Issues))
	for _, is := range r.Issues {
		out[is.Path] = true
	}
	return out
}

const invalidNameChars = `/\:*?"<>|`

var reservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// Validate checks every rename. Renames whose name is unchanged are valid.
// With overwrite set an existing target becomes a notice instead of an issue.
func (e *Engine) Validate(_ context.Context, renames []Rename, overwrite bool) *ValidationResult {
	result := &ValidationResult{Valid: []Rename{}, Issues: []Issue{}}

	sources := make(map[string]int, len(renames))
	targets := make(map[string][]int, len(renames))
	for i, r := range renames {
		sources[cleanKey(r.OldPath)] = i
		if r.Changed() {
			targets[cleanKey(r.NewPath)] = append(targets[cleanKey(r.NewPath)], i)
		}
	}
	cycles := findCycles(renames, sources)

	for i, r := range renames {
		issues := e.checkName(r)

		if _, err := os.Lstat(r.OldPath); err != nil {
			issues = append(issues, Issue{Kind: SourceNotFound, Message: "Source file does not exist"})
		}

		if r.Changed() && !isBlank(r.NewName) {
			if dup := targets[cleanKey(r.NewPath)]; len(dup) > 1 {
				issues = append(issues, Issue{Kind: DuplicateTarget,
					Message: fmt.Sprintf("%d files would be renamed to %s", len(dup), r.NewName)})
			}

			if other, ok := cycles[i]; ok {
				issues = append(issues, Issue{Kind: CircularRename,
					Message: fmt.Sprintf("Circular dependency: %s ↔ %s", filepath.Base(r.OldPath), filepath.Base(renames[other].OldPath))})
			} else if _, pending := sources[cleanKey(r.NewPath)]; !pending && targetExists(r) {
				if overwrite {
					result.Notices = append(result.Notices, Issue{Path: r.OldPath, Kind: TargetExists,
						Message: "Target exists (will be overwritten)"})
				} else {
					issues = append(issues, Issue{Kind: TargetExists, Message: "Target file already exists"})
				}
			}
		}

		if len(issues) == 0 {
			result.Valid = append(result.Valid, r)
			continue
		}
		for _, is := range issues {
			is.Path = r.OldPath
			result.Issues = append(result.Issues, is)
		}
	}

	return result
}

func (e *Engine) checkName(r Rename) []Issue {
	if isBlank(r.NewName) {
		return []Issue{{Kind: EmptyFilename, Message: "Generated filename is empty"}}
	}

	var issues []Issue
	for _, c := range r.NewName {
		if strings.ContainsRune(invalidNameChars, c) || c < 0x20 {
			issues = append(issues, Issue{Kind: InvalidCharacters,
				Message: fmt.Sprintf("Filename contains invalid character %q", c)})
			break
		}
	}

	stem := strings.ToUpper(r.NewName)
	if dot := strings.IndexByte(stem, '.'); dot >= 0 {
		stem = stem[:dot]
	}
	if reservedNames[strings.TrimSpace(stem)] || r.NewName == "." || r.NewName == ".." {
		issues = append(issues, Issue{Kind: ReservedFilename,
			Message: fmt.Sprintf("'%s' is a reserved filename", r.NewName)})
	}

	if len(r.NewName) > e.maxNameLength {
		issues = append(issues, Issue{Kind: PathTooLong,
			Message: fmt.Sprintf("Filename length %d exceeds maximum %d characters", len(r.NewName), e.maxNameLength)})
	} else if len(r.NewPath) > e.maxPathLength {
		issues = append(issues, Issue{Kind: PathTooLong,
			Message: fmt.Sprintf("Path length %d exceeds maximum %d characters", len(r.NewPath), e.maxPathLength)})
	}

	return issues
}

// targetExists reports whether the target is a different file that exists.
func targetExists(r Rename) bool {
	dst, err := os.Lstat(r.NewPath)
	if err != nil {
		return false
	}
	src, err := os.Lstat(r.OldPath)
	if err != nil {
		return true
	}
	return !os.SameFile(src, dst)
}

// findCycles maps the index of every rename that is part of a rename cycle
// to the index of the rename whose source it targets.
func findCycles(renames []Rename, sources map[string]int) map[int]int {
	next := make(map[int]int, len(renames))
	for i, r := range renames {
		if !r.Changed() {
			continue
		}
		if j, ok := sources[cleanKey(r.NewPath)]; ok && j != i {
			next[i] = j
		}
	}

	cycles := make(map[int]int)
	for start := range next {
		seen := map[int]bool{start: true}
		cur := next[start]
		for {
			if cur == start {
				cycles[start] = next[start]
				break
			}
			if seen[cur] {
				break
			}
			seen[cur] = true
			n, ok := next[cur]
			if !ok {
				break
			}
			cur = n
		}
	}
	return cycles
}

// Changed reports whether the rename moves the file.
func (r Rename) Changed() bool {
	return cleanKey(r.OldPath) != cleanKey(r.NewPath)
}

func cleanKey(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
