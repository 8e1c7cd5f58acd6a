package executor

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/frencli/frencli/internal/cmderr"
	"github.com/frencli/frencli/internal/engine"
	"github.com/frencli/frencli/internal/invocation"
	"github.com/frencli/frencli/pkg/audit"
	"github.com/frencli/frencli/pkg/output"
)

const emptyNameMarker = "[ERROR: EMPTY NAME]"

func displayName(path string, fullPath bool) string {
	if fullPath {
		return path
	}
	return filepath.Base(path)
}

// showFiles prints the file set when no later stage consumes it.
func (e *Executor) showFiles(files []string, st *invocation.ListStage) error {
	if st.JSON {
		names := make([]string, len(files))
		for i, f := range files {
			names[i] = displayName(f, st.FullPath)
		}
		if err := e.output.JSON(e.stdout, names); err != nil {
			return cmderr.Collaborator("list", err)
		}
		return nil
	}

	if len(files) == 0 {
		fmt.Fprintln(e.stdout, "No matching files found.")
		return nil
	}

	fmt.Fprintf(e.stdout, "Found %d matching file(s):\n", len(files))
	for _, f := range files {
		fmt.Fprintf(e.stdout, "  %s\n", displayName(f, st.FullPath))
	}
	return nil
}

// showPreview prints the old and new names and any pattern warnings.
func (e *Executor) showPreview(preview *engine.Preview) error {
	table := &output.Table{Headers: []string{"Old Name", "", "New Name"}}
	for _, r := range preview.Renames {
		newName := r.NewName
		if strings.TrimSpace(newName) == "" {
			newName = emptyNameMarker
		}
		table.AddRow(filepath.Base(r.OldPath), "->", newName)
	}
	if err := e.output.Table(e.stdout, table); err != nil {
		return err
	}

	if len(preview.Warnings) > 0 {
		fmt.Fprintln(e.stdout, "\nWARNINGS:")
		for _, w := range preview.Warnings {
			fmt.Fprintf(e.stdout, "  - %s\n", w)
		}
	}
	return nil
}

// showApplyReport prints skipped files to stdout and failures to stderr.
func (e *Executor) showApplyReport(exec *engine.Execution) {
	for _, s := range exec.Skipped {
		fmt.Fprintf(e.stdout, "Skipping %s: %s\n", s.Path, s.Reason)
	}
	e.showFailures(exec)
}

func (e *Executor) showFailures(exec *engine.Execution) {
	for _, f := range exec.Errors {
		e.failure.Printfln("Error renaming %s: %s", f.Path, f.Error)
	}
}

// showAuditEntries prints entries as blocks separated by rules.
func (e *Executor) showAuditEntries(entries []*audit.Entry, total int) {
	rule := strings.Repeat("-", 120)
	now := e.now()

	fmt.Fprintf(e.stdout, "Audit Log Entries (showing %d of %d):\n\n", len(entries), total)
	fmt.Fprintln(e.stdout, rule)

	for i, entry := range entries {
		fmt.Fprintf(e.stdout, "\nEntry #%d\n", i+1)
		fmt.Fprintf(e.stdout, "  Timestamp:      %s (%s)\n",
			entry.Timestamp.Local().Format("2006-01-02 15:04:05"), entry.Age(now))
		if entry.User != "" {
			fmt.Fprintf(e.stdout, "  User:           %s\n", entry.User)
		}
		fmt.Fprintf(e.stdout, "  Directory:      %s\n", entry.WorkingDirectory)
		fmt.Fprintf(e.stdout, "  Command:        %s\n", entry.Command)
		if entry.Pattern != "" {
			fmt.Fprintf(e.stdout, "  Pattern:        %s\n", entry.Pattern)
		}
		fmt.Fprintf(e.stdout, "  Results:        %d successful, %d skipped, %d errors\n",
			entry.SuccessfulCount, entry.SkippedCount, entry.ErrorCount)

		if len(entry.Successful) > 0 {
			fmt.Fprintln(e.stdout, "  Successful renames:")
			for _, r := range entry.Successful {
				fmt.Fprintf(e.stdout, "    %s -> %s\n", filepath.Base(r.From), filepath.Base(r.To))
			}
		}
		if len(entry.Skipped) > 0 {
			fmt.Fprintln(e.stdout, "  Skipped files:")
			for _, n := range entry.Skipped {
				fmt.Fprintf(e.stdout, "    %s: %s\n", filepath.Base(n.Path), n.Reason)
			}
		}
		if len(entry.Errors) > 0 {
			fmt.Fprintln(e.stdout, "  Errors:")
			for _, n := range entry.Errors {
				fmt.Fprintf(e.stdout, "    %s: %s\n", filepath.Base(n.Path), n.Reason)
			}
		}

		fmt.Fprintln(e.stdout, rule)
	}
}
