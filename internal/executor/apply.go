package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/frencli/frencli/internal/cmderr"
	"github.com/frencli/frencli/internal/engine"
	"github.com/frencli/frencli/pkg/audit"
	"github.com/frencli/frencli/pkg/output"
	"github.com/frencli/frencli/pkg/state"
)

// applyResult is the JSON shape of apply --json.
type applyResult struct {
	Successful []engine.Rename  `json:"successful"`
	Skipped    []engine.Skip    `json:"skipped"`
	Errors     []engine.Failure `json:"errors"`
}

// apply takes the preview and performs it. Files already renamed stay
// renamed when a later step fails.
func (e *Executor) apply(ctx context.Context, run *pipelineRun) error {
	st := run.cfg.Apply
	if st.JSON && st.Interactive {
		return cmderr.Configf("'apply --interactive' cannot be combined with '--json'.")
	}

	preview, err := run.preview.take("apply")
	if err != nil {
		return err
	}
	renames := preview.Renames

	if len(renames) == 0 {
		if st.JSON {
			return e.writeApplyJSON(&engine.Execution{})
		}
		fmt.Fprintln(e.stdout, "No files to rename.")
		return nil
	}

	if st.Interactive {
		edited, ok, err := e.editRenames(renames)
		if err != nil {
			return cmderr.Collaborator("apply", err)
		}
		if !ok {
			fmt.Fprintln(e.stdout, "Interactive editing cancelled.")
			return nil
		}
		renames = edited

		preview.Renames = renames
		preview.RecheckEmptyNames()
		if preview.HasEmptyNames {
			return &cmderr.Error{
				Kind:    cmderr.KindCollaborator,
				Stage:   "apply",
				Message: fmt.Sprintf("%d file(s) would have an empty name after editing", preview.EmptyNameCount()),
			}
		}
	} else if !st.Yes && !st.JSON {
		ok, err := e.confirmApply(len(renames))
		if err != nil {
			return cmderr.Collaborator("apply", err)
		}
		if !ok {
			fmt.Fprintln(e.stdout, "Renaming cancelled.")
			return nil
		}
	}

	e.progress.Begin(fmt.Sprintf("Renaming %d file(s)", len(renames)), 0)
	start := e.now()
	exec, applyErr := e.renamer.ApplyRenames(ctx, renames, st.Overwrite)
	if applyErr != nil {
		e.progress.Fail("Renaming interrupted")
	} else {
		e.progress.Done("")
	}
	if exec == nil {
		if applyErr == nil {
			applyErr = fmt.Errorf("renamer returned no result")
		}
		return cmderr.Collaborator("apply", applyErr)
	}
	e.logger.Debug("renames applied", e.logger.Args(
		"successful", len(exec.Successful), "skipped", len(exec.Skipped),
		"errors", len(exec.Errors), "took", e.now().Sub(start).String()))

	if !st.JSON {
		e.showApplyReport(exec)
	} else {
		e.showFailures(exec)
	}

	e.saveHistory(ctx, run.command, exec)
	e.rememberPatterns(run, exec)
	if e.auditEnabled && !st.NoAudit {
		e.writeAudit(run, exec)
	}

	if st.JSON {
		if err := e.writeApplyJSON(exec); err != nil {
			return err
		}
	} else {
		e.printSummary(exec)
	}

	if applyErr != nil {
		return cmderr.Collaborator("apply", applyErr)
	}
	if len(exec.Errors) > 0 {
		return &cmderr.Error{
			Kind:    cmderr.KindCollaborator,
			Stage:   "apply",
			Message: fmt.Sprintf("%d file(s) could not be renamed", len(exec.Errors)),
		}
	}
	return nil
}

func (e *Executor) saveHistory(ctx context.Context, command string, exec *engine.Execution) {
	if len(exec.Successful) == 0 {
		return
	}
	actions := make([]state.Action, len(exec.Successful))
	for i, r := range exec.Successful {
		actions[i] = state.Action{From: r.OldPath, To: r.NewPath}
	}
	if err := e.history.Save(ctx, actions, command); err != nil {
		e.warning.Printfln("Could not save rename history: %v", err)
	}
}

func (e *Executor) rememberPatterns(run *pipelineRun, exec *engine.Execution) {
	if e.recent == nil || len(exec.Successful) == 0 {
		return
	}
	err := e.recent.Add(state.RecentRenamePatterns, run.pattern)
	if err == nil && run.cfg.List != nil && len(run.cfg.List.Patterns) > 0 {
		err = e.recent.Add(state.RecentSearchPatterns, strings.Join(run.cfg.List.Patterns, " "))
	}
	if err != nil {
		e.logger.Warn("could not remember patterns", e.logger.Args("error", err.Error()))
	}
}

func (e *Executor) writeAudit(run *pipelineRun, exec *engine.Execution) {
	entry := &audit.Entry{
		Command:    run.command,
		Pattern:    run.pattern,
		Successful: make([]audit.Rename, len(exec.Successful)),
		Skipped:    make([]audit.Note, len(exec.Skipped)),
		Errors:     make([]audit.Note, len(exec.Errors)),
	}
	for i, r := range exec.Successful {
		entry.Successful[i] = audit.Rename{From: r.OldPath, To: r.NewPath}
	}
	for i, s := range exec.Skipped {
		entry.Skipped[i] = audit.Note{Path: s.Path, Reason: s.Reason}
	}
	for i, f := range exec.Errors {
		entry.Errors[i] = audit.Note{Path: f.Path, Reason: f.Error}
	}

	if err := e.audit.Append(entry); err != nil {
		e.warning.Printfln("Could not write audit log: %v", err)
	}
}

func (e *Executor) writeApplyJSON(exec *engine.Execution) error {
	result := applyResult{
		Successful: exec.Successful,
		Skipped:    exec.Skipped,
		Errors:     exec.Errors,
	}
	if result.Successful == nil {
		result.Successful = []engine.Rename{}
	}
	if result.Skipped == nil {
		result.Skipped = []engine.Skip{}
	}
	if result.Errors == nil {
		result.Errors = []engine.Failure{}
	}
	if err := e.output.JSON(e.stdout, result); err != nil {
		return cmderr.Collaborator("apply", err)
	}
	return nil
}

func (e *Executor) printSummary(exec *engine.Execution) {
	summary := output.Summary{
		Successful: len(exec.Successful),
		Skipped:    len(exec.Skipped),
		Errors:     len(exec.Errors),
		Total:      len(exec.Successful) + len(exec.Skipped) + len(exec.Errors),
	}

	msg, err := e.applySuccess.Render(summary)
	if err != nil {
		e.logger.Warn("apply summary template failed", e.logger.Args("error", err.Error()))
		msg, _ = output.MustParseMessage(output.DefaultApplySuccess).Render(summary)
	}
	fmt.Fprintln(e.stdout, msg)
}
