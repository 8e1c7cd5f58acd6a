package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/frencli/frencli/internal/cmderr"
	"github.com/frencli/frencli/internal/invocation"
	"github.com/frencli/frencli/pkg/cli/interactive"
	"github.com/frencli/frencli/pkg/state"
)

// Dispatch runs a standalone command if cmds holds one. It reports false
// when the invocation is a pipeline and should go to Run instead.
//
// Combination rules have already been checked, so a standalone command is
// the only element of cmds.
func (e *Executor) Dispatch(ctx context.Context, cmds []invocation.Command) (bool, error) {
	for _, c := range cmds {
		switch cmd := c.(type) {
		case *invocation.TemplateCommand:
			if cmd.List {
				return true, e.listTemplates()
			}
		case *invocation.UndoCommand:
			if cmd.Check {
				return true, e.undoCheck(ctx)
			}
			return true, e.undoApply(ctx, cmd.Yes)
		case *invocation.AuditCommand:
			return true, e.showAudit(cmd.Limit, cmd.JSON)
		case *invocation.InteractiveCommand:
			return true, e.runInteractive(ctx)
		}
	}
	return false, nil
}

func (e *Executor) listTemplates() error {
	fmt.Fprintln(e.stdout, "Available template patterns:")
	fmt.Fprintln(e.stdout)
	for i, t := range e.templates.List() {
		fmt.Fprintf(e.stdout, "  %2d. %-25s -> %s\n", i+1, t.Name, t.Pattern)
	}
	return nil
}

func (e *Executor) undoCheck(ctx context.Context) error {
	batch, err := e.history.Load(ctx)
	if err != nil {
		return cmderr.Collaborator("undo", fmt.Errorf("error loading history: %w", err))
	}
	if batch == nil {
		fmt.Fprintln(e.stdout, "No rename history found in this directory.")
		return nil
	}

	fmt.Fprintf(e.stdout, "Checking undo state for %d renames from %s...\n",
		len(batch.Actions), batch.Timestamp.Local().Format("2006-01-02 15:04:05"))

	safe, conflicts := e.history.CheckUndo(ctx, batch)
	e.showConflicts(conflicts)

	if len(conflicts) > 0 && len(safe) == 0 {
		fmt.Fprintln(e.stdout, "\nAll files in this batch have conflicts. Cannot proceed with undo.")
		return nil
	}
	fmt.Fprintf(e.stdout, "\n%d file(s) can be safely undone.\n", len(safe))
	return nil
}

func (e *Executor) undoApply(ctx context.Context, yes bool) error {
	batch, err := e.history.Load(ctx)
	if err != nil {
		return cmderr.Collaborator("undo", fmt.Errorf("error loading history: %w", err))
	}
	if batch == nil {
		fmt.Fprintln(e.stdout, "No rename history found in this directory.")
		return nil
	}

	fmt.Fprintf(e.stdout, "Checking undo state for %d renames from %s...\n",
		len(batch.Actions), batch.Timestamp.Local().Format("2006-01-02 15:04:05"))

	safe, conflicts := e.history.CheckUndo(ctx, batch)
	if len(conflicts) > 0 {
		e.showConflicts(conflicts)

		if len(safe) == 0 {
			fmt.Fprintln(e.stdout, "\nAll files in this batch have conflicts. Cannot proceed with undo.")
			fmt.Fprintln(e.stdout, "Undo operation cancelled.")
			return &cmderr.Error{
				Kind:    cmderr.KindCollaborator,
				Stage:   "undo",
				Message: fmt.Sprintf("all %d rename(s) conflict", len(conflicts)),
			}
		}

		if !yes {
			ok, err := e.confirmUndo(len(safe))
			if err != nil {
				return cmderr.Collaborator("undo", err)
			}
			if !ok {
				fmt.Fprintln(e.stdout, "Undo operation cancelled.")
				return nil
			}
		}
	}

	count, err := e.history.ApplyUndo(ctx, safe)
	if err != nil {
		if count > 0 {
			fmt.Fprintf(e.stdout, "Reversed %d renames before the failure.\n", count)
		}
		return cmderr.Collaborator("undo", fmt.Errorf("error during undo: %w", err))
	}
	e.success.Printfln("Successfully reversed %d renames.", count)

	if err := e.history.Clear(ctx); err != nil {
		e.logger.Warn("could not clear rename history", e.logger.Args("error", err.Error()))
	}
	return nil
}

func (e *Executor) showConflicts(conflicts []string) {
	if len(conflicts) == 0 {
		return
	}
	fmt.Fprintf(e.stdout, "\nFound %d conflict(s) that prevent a full undo:\n", len(conflicts))
	for _, c := range conflicts {
		fmt.Fprintf(e.stdout, "  - %s\n", c)
	}
}

// showAudit prints the audit log oldest first. A non-nil limit keeps at most
// that many entries, so zero shows none.
func (e *Executor) showAudit(limit *int, jsonOut bool) error {
	if e.audit == nil {
		return cmderr.Configf("The audit log is not configured.")
	}

	entries, err := e.audit.Read()
	if err != nil {
		return cmderr.Collaborator("audit", fmt.Errorf("failed to read audit log: %w", err))
	}
	if len(entries) == 0 {
		if jsonOut {
			return e.output.JSON(e.stdout, []interface{}{})
		}
		fmt.Fprintln(e.stdout, "No audit entries found.")
		return nil
	}

	total := len(entries)
	if limit != nil && *limit < total {
		entries = entries[:*limit]
	}

	if jsonOut {
		if err := e.output.JSON(e.stdout, entries); err != nil {
			return cmderr.Collaborator("audit", err)
		}
		return nil
	}
	e.showAuditEntries(entries, total)
	return nil
}

const (
	customPatternOption = "Custom pattern"
	maxRecentOptions    = 5
)

// runInteractive walks the user through building a pipeline and then runs
// it with an apply stage that still asks for confirmation.
func (e *Executor) runInteractive(ctx context.Context) error {
	if !e.prompter.IsTerminal() {
		return cmderr.Configf("interactive mode requires a terminal.\n" +
			"Compose the pipeline on the command line instead, for example:\n" +
			"  frencli list '*.jpg' rename '%%N_%%C3.%%E' apply")
	}

	searchDefault := "*"
	if recent := e.recentPatterns(state.RecentSearchPatterns, 1); len(recent) > 0 {
		searchDefault = recent[0]
	}

	answer, err := e.prompter.Text(&interactive.TextPromptOptions{
		Message:  "Search pattern(s), separated by spaces",
		Default:  searchDefault,
		Required: true,
	})
	if err != nil {
		return cmderr.Collaborator("interactive", err)
	}
	patterns := strings.Fields(answer)

	recursive, err := e.prompter.Confirm(&interactive.ConfirmPromptOptions{
		Message: "Search subdirectories recursively?",
	})
	if err != nil {
		return cmderr.Collaborator("interactive", err)
	}

	list := e.templates.List()
	recent := e.recentPatterns(state.RecentRenamePatterns, maxRecentOptions)
	options := make([]string, 0, len(list)+len(recent)+1)
	options = append(options, customPatternOption)
	byRecent := make(map[string]string, len(recent))
	for _, p := range recent {
		opt := "recent: " + p
		options = append(options, opt)
		byRecent[opt] = p
	}
	byOption := make(map[string]string, len(list))
	for _, t := range list {
		opt := fmt.Sprintf("%s (%s)", t.Name, t.Pattern)
		options = append(options, opt)
		byOption[opt] = t.Name
	}

	choice, err := e.prompter.Select(&interactive.SelectPromptOptions{
		Message: "Rename with",
		Options: options,
		Default: customPatternOption,
	})
	if err != nil {
		return cmderr.Collaborator("interactive", err)
	}

	cfg := &invocation.Config{
		List:  &invocation.ListStage{Patterns: patterns, Recursive: recursive},
		Apply: &invocation.ApplyStage{},
	}
	command := "frencli interactive"

	if pattern, ok := byRecent[choice]; ok {
		cfg.Rename = &invocation.RenameStage{Pattern: pattern}
	} else if name, ok := byOption[choice]; ok {
		cfg.Template = &invocation.TemplateStage{Use: name}
	} else {
		pattern, err := e.prompter.Text(&interactive.TextPromptOptions{
			Message:  "Rename pattern",
			Required: true,
		})
		if err != nil {
			return cmderr.Collaborator("interactive", err)
		}
		cfg.Rename = &invocation.RenameStage{Pattern: pattern}
	}

	e.logger.Debug("interactive pipeline assembled", e.logger.Args(
		"patterns", strings.Join(patterns, " "), "recursive", recursive, "choice", choice))
	return e.Run(ctx, cfg, command)
}

// recentPatterns returns up to n remembered values of list. A broken store
// only costs the suggestions.
func (e *Executor) recentPatterns(list string, n int) []string {
	if e.recent == nil {
		return nil
	}
	values, err := e.recent.Top(list, n)
	if err != nil {
		e.logger.Warn("could not read recent patterns", e.logger.Args("error", err.Error()))
		return nil
	}
	return values
}
