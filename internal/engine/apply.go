package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// Skip is a rename that was not attempted.
type Skip struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Failure is a rename that was attempted and failed.
type Failure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Execution reports what ApplyRenames did.
type Execution struct {
	Successful []Rename  `json:"successful"`
	Skipped    []Skip    `json:"skipped"`
	Errors     []Failure `json:"errors"`
}

// ApplyRenames performs renames on disk. A rename whose target is the source
// of another pending rename waits until that one has moved, so chains like
// a->b, b->c succeed. Renames left in a cycle are skipped. Without overwrite
// an existing target is skipped.
//
// Cancellation is checked between files; the execution so far is returned
// together with the context error.
func (e *Engine) ApplyRenames(ctx context.Context, renames []Rename, overwrite bool) (*Execution, error) {
	exec := &Execution{Successful: []Rename{}, Skipped: []Skip{}, Errors: []Failure{}}

	pending := make([]Rename, 0, len(renames))
	for _, r := range renames {
		switch {
		case isBlank(r.NewName):
			exec.Skipped = append(exec.Skipped, Skip{Path: r.OldPath, Reason: "empty filename"})
		case !r.Changed():
			exec.Skipped = append(exec.Skipped, Skip{Path: r.OldPath, Reason: "name unchanged"})
		default:
			pending = append(pending, r)
		}
	}

	for len(pending) > 0 {
		blocked := make(map[string]bool, len(pending))
		for _, r := range pending {
			blocked[cleanKey(r.OldPath)] = true
		}

		var waiting []Rename
		progressed := false
		for _, r := range pending {
			if err := ctx.Err(); err != nil {
				return exec, err
			}

			if blocked[cleanKey(r.NewPath)] {
				waiting = append(waiting, r)
				continue
			}

			progressed = true
			delete(blocked, cleanKey(r.OldPath))
			e.renameOne(exec, r, overwrite)
		}

		if !progressed {
			for _, r := range waiting {
				exec.Skipped = append(exec.Skipped, Skip{Path: r.OldPath, Reason: "circular rename"})
			}
			break
		}
		pending = waiting
	}

	return exec, nil
}

func (e *Engine) renameOne(exec *Execution, r Rename, overwrite bool) {
	if !overwrite && targetExists(r) {
		exec.Skipped = append(exec.Skipped, Skip{Path: r.OldPath, Reason: fmt.Sprintf("target %s already exists", r.NewName)})
		return
	}

	if err := os.Rename(r.OldPath, r.NewPath); err != nil {
		var linkErr *os.LinkError
		if errors.As(err, &linkErr) {
			err = linkErr.Err
		}
		exec.Errors = append(exec.Errors, Failure{Path: r.OldPath, Error: err.Error()})
		return
	}
	exec.Successful = append(exec.Successful, r)
}
