// Package executor runs a decoded frencli invocation.
//
// Dispatch handles the standalone commands (template --list, undo, audit and
// interactive). Run drives the rename pipeline in its fixed order, whatever
// order the subcommands were typed in:
//
//	list -> rename | template --use -> validate -> apply
//
// # Execution Flow
//
//  1. Resolve the file set from patterns or a path list
//  2. Render the preview from a direct pattern or a template
//  3. Validate the preview against the filesystem
//  4. Confirm, rename, record undo history and write the audit entry
//
// A stage runs only when its subcommand was given. A stage that needs an
// artifact no earlier stage produced fails with a PipelineDependencyError.
// Errors carry the stage name and are returned, never turned into a process
// exit here.
//
// Every collaborator is reached through an interface in wiring.go, so tests
// drive the whole pipeline against in-memory fakes.
package executor

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/frencli/frencli/internal/cmderr"
	"github.com/frencli/frencli/internal/engine"
	"github.com/frencli/frencli/internal/invocation"
	"github.com/frencli/frencli/pkg/output"
	"github.com/frencli/frencli/pkg/progress"
	"github.com/frencli/frencli/pkg/templates"
	"github.com/pterm/pterm"
)

const (
	msgNoFiles   = "No files to process. 'list' subcommand is required to select files."
	msgNoPreview = "No preview available. 'rename' or 'template --use' subcommand is required to generate preview."
)

// Executor runs standalone commands and the rename pipeline.
type Executor struct {
	files     FileSource
	renamer   Renamer
	history   HistoryStore
	templates TemplateSource
	prompter  Prompter

	audit        AuditLog
	auditEnabled bool
	applySuccess *output.Message
	recent       RecentStore

	stdout   io.Writer
	stderr   io.Writer
	output   *output.Printer
	logger   *pterm.Logger

	success *pterm.PrefixPrinter
	warning *pterm.PrefixPrinter
	failure *pterm.PrefixPrinter

	progress progress.Progress
	now      func() time.Time
}

// runState is the position of a pipeline run.
type runState int

const (
	stateIdle runState = iota
	stateFilesResolved
	statePreviewComputed
	stateValidated
	stateApplied
	stateAborted
)

func (s runState) String() string {
	switch s {
	case stateIdle:
		return "Idle"
	case stateFilesResolved:
		return "FilesResolved"
	case statePreviewComputed:
		return "PreviewComputed"
	case stateValidated:
		return "Validated"
	case stateApplied:
		return "Applied"
	case stateAborted:
		return "Aborted"
	}
	return "Unknown"
}

// previewSlot holds the preview until apply takes it.
type previewSlot struct {
	preview *engine.Preview
	taken   bool
}

func (s *previewSlot) put(p *engine.Preview) {
	s.preview = p
	s.taken = false
}

// peek returns the preview without consuming it.
func (s *previewSlot) peek(stage string) (*engine.Preview, error) {
	if s.preview == nil {
		return nil, cmderr.Dependency(stage, msgNoPreview)
	}
	if s.taken {
		return nil, cmderr.Dependency(stage, "The preview has already been applied.")
	}
	return s.preview, nil
}

// take hands the preview over. A second take fails.
func (s *previewSlot) take(stage string) (*engine.Preview, error) {
	p, err := s.peek(stage)
	if err != nil {
		return nil, err
	}
	s.taken = true
	s.preview = nil
	return p, nil
}

// pipelineRun is the state of one Run call.
type pipelineRun struct {
	cfg     *invocation.Config
	command string
	state   runState
	files   []string
	// pattern is the resolved rename pattern, recorded in the audit log.
	pattern string
	preview previewSlot
	logger  *pterm.Logger
}

func (r *pipelineRun) advance(to runState) {
	r.logger.Debug("pipeline state", r.logger.Args("from", r.state.String(), "to", to.String()))
	r.state = to
}

// Run executes the pipeline described by cfg. command is the full command
// line, recorded in undo history and the audit log.
func (e *Executor) Run(ctx context.Context, cfg *invocation.Config, command string) (err error) {
	if cfg == nil {
		return cmderr.Configf("no pipeline configuration")
	}
	if err := checkJSONOutput(cfg); err != nil {
		return err
	}

	run := &pipelineRun{cfg: cfg, command: command, logger: e.logger}
	defer func() {
		if err != nil {
			run.advance(stateAborted)
		}
	}()

	if cfg.List != nil {
		if err := e.resolveFiles(ctx, run); err != nil {
			return err
		}
		run.advance(stateFilesResolved)

		if !cfg.ConsumesFiles() {
			return e.showFiles(run.files, cfg.List)
		}
	}

	if cfg.HasPreviewSource() {
		if err := e.computePreview(ctx, run); err != nil {
			return err
		}
		run.advance(statePreviewComputed)
	}

	if cfg.Validate != nil {
		if err := e.validate(ctx, run); err != nil {
			return err
		}
		run.advance(stateValidated)
	}

	if cfg.Apply != nil {
		if err := e.apply(ctx, run); err != nil {
			return err
		}
		run.advance(stateApplied)
	}

	return nil
}

// checkJSONOutput rejects pipelines whose stdout would mix a JSON preview
// with prompts or text. JSON output never prompts, so apply must be JSON too.
func checkJSONOutput(cfg *invocation.Config) error {
	if cfg.Rename == nil || !cfg.Rename.JSON || cfg.Apply == nil || cfg.Apply.JSON {
		return nil
	}
	return cmderr.Configf("'rename --json' with 'apply' requires 'apply --json'.")
}

func (e *Executor) resolveFiles(ctx context.Context, run *pipelineRun) error {
	st := run.cfg.List
	start := e.now()

	var paths []string
	if st.FilesFrom != "" {
		found, err := e.files.ReadPathList(ctx, st.FilesFrom)
		if err != nil {
			return cmderr.Collaborator("list", fmt.Errorf("error reading files from %s: %w", st.FilesFrom, err))
		}
		paths = found
	} else {
		e.progress.Begin("Searching for files", len(st.Patterns))
		for _, pattern := range st.Patterns {
			found, err := e.files.Discover(ctx, pattern, st.Recursive)
			if err != nil {
				e.progress.Fail("File search failed")
				return cmderr.Collaborator("list", fmt.Errorf("error finding files: %w", err))
			}
			paths = append(paths, found...)
			e.progress.Step(pattern)
		}
		e.progress.Done("")
	}

	run.files = engine.FilterExcluded(dedupe(paths), st.Exclude)
	e.logger.Debug("files resolved", e.logger.Args("count", len(run.files), "took", e.now().Sub(start).String()))
	return nil
}

func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

func (e *Executor) computePreview(ctx context.Context, run *pipelineRun) error {
	stage := "rename"
	if run.cfg.Rename == nil {
		stage = "template"
	}

	if len(run.files) == 0 {
		return cmderr.Dependency(stage, msgNoFiles)
	}

	pattern := ""
	if run.cfg.Rename != nil {
		pattern = run.cfg.Rename.Pattern
	} else {
		resolved, err := e.resolveTemplate(run.cfg.Template.Use)
		if err != nil {
			return err
		}
		pattern = resolved
	}
	run.pattern = pattern

	start := e.now()
	preview, err := e.renamer.GeneratePreview(ctx, run.files, pattern)
	if err != nil {
		return cmderr.Collaborator(stage, err)
	}
	e.logger.Debug("preview generated", e.logger.Args(
		"pattern", pattern, "renames", len(preview.Renames), "took", e.now().Sub(start).String()))

	jsonOut := run.cfg.Rename != nil && run.cfg.Rename.JSON
	if jsonOut {
		if err := e.output.JSON(e.stdout, preview); err != nil {
			return cmderr.Collaborator(stage, err)
		}
	} else {
		if err := e.showPreview(preview); err != nil {
			return cmderr.Collaborator(stage, err)
		}
	}

	if preview.HasEmptyNames {
		fmt.Fprintln(e.stderr)
		e.failure.Println("One or more files would have an empty name. Operation aborted.")
		fmt.Fprintln(e.stderr, "Please check your pattern and ensure it generates valid filenames.")
		return &cmderr.Error{
			Kind:    cmderr.KindCollaborator,
			Stage:   stage,
			Message: fmt.Sprintf("pattern would generate %d empty filename(s)", preview.EmptyNameCount()),
		}
	}

	if !jsonOut && run.cfg.Apply == nil {
		fmt.Fprintln(e.stdout, "\nPreview mode. Use 'apply' subcommand to perform the renaming.")
	}

	run.preview.put(preview)
	return nil
}

// resolveTemplate turns a template name or 1-based index into a pattern.
func (e *Executor) resolveTemplate(use string) (string, error) {
	list := e.templates.List()

	if index, err := strconv.Atoi(use); err == nil {
		if index < 1 || index > len(list) {
			return "", &cmderr.Error{
				Kind:    cmderr.KindCollaborator,
				Stage:   "template",
				Message: fmt.Sprintf("Template index %d out of range (1-%d)", index, len(list)),
			}
		}
		return list[index-1].Pattern, nil
	}

	if pattern, ok := e.templates.Get(use); ok {
		return pattern, nil
	}

	names := make([]string, len(list))
	for i, t := range list {
		names[i] = t.Name
	}
	msg := fmt.Sprintf("Unknown template '%s'. Use 'template --list' to see all available templates.", use)
	if suggestions := templates.Suggest(use, names, 3); len(suggestions) > 0 {
		msg += fmt.Sprintf("\nDid you mean: %s?", strings.Join(suggestions, ", "))
	}
	return "", &cmderr.Error{Kind: cmderr.KindCollaborator, Stage: "template", Message: msg}
}

// withName returns r renamed to name in the same directory.
func withName(r engine.Rename, name string) engine.Rename {
	r.NewName = name
	r.NewPath = filepath.Join(filepath.Dir(r.OldPath), name)
	return r
}
