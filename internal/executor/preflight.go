package executor

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/frencli/frencli/internal/cmderr"
	"github.com/frencli/frencli/internal/engine"
)

// validate runs the validate stage. The preview is only inspected: it is
// neither consumed nor changed. --skip-invalid turns issues into a warning
// and leaves apply to skip or report the files it cannot rename.
func (e *Executor) validate(ctx context.Context, run *pipelineRun) error {
	preview, err := run.preview.peek("validate")
	if err != nil {
		return err
	}

	overwrite := run.cfg.Apply != nil && run.cfg.Apply.Overwrite
	skipInvalid := run.cfg.Validate.SkipInvalid

	result := e.renamer.Validate(ctx, preview.Renames, overwrite)
	e.logger.Debug("validation finished", e.logger.Args(
		"valid", len(result.Valid), "issues", len(result.Issues), "notices", len(result.Notices)))

	e.showValidation(result)

	invalid := result.InvalidPaths()
	fmt.Fprintln(e.stdout, "\nValidation Summary:")
	fmt.Fprintf(e.stdout, "  Total files: %d\n", len(preview.Renames))
	fmt.Fprintf(e.stdout, "  Valid: %d\n", len(preview.Renames)-len(invalid))
	fmt.Fprintf(e.stdout, "  Issues: %d\n", len(result.Issues))

	if len(result.Issues) == 0 {
		fmt.Fprintln(e.stdout)
		e.success.Println("All files passed validation!")
		return nil
	}

	if !skipInvalid {
		fmt.Fprintln(e.stderr)
		e.failure.Println("Validation failed. Use --skip-invalid to continue despite issues.")
		return &cmderr.Error{
			Kind:    cmderr.KindCollaborator,
			Stage:   "validate",
			Message: fmt.Sprintf("%d validation issue(s) found", len(result.Issues)),
		}
	}

	e.warning.Printfln("Continuing despite issues in %d file(s).", len(invalid))
	return nil
}

// showValidation prints valid renames, then issues grouped by kind in a
// stable order, then overwrite notices.
func (e *Executor) showValidation(result *engine.ValidationResult) {
	if len(result.Valid) == 0 && len(result.Issues) == 0 {
		fmt.Fprintln(e.stdout, "\nNo files to validate.")
		return
	}

	if len(result.Valid) > 0 {
		fmt.Fprintf(e.stdout, "\nValid Renames (%d):\n", len(result.Valid))
		for _, r := range result.Valid {
			fmt.Fprintf(e.stdout, "  %s -> %s\n", filepath.Base(r.OldPath), r.NewName)
		}
	}

	if len(result.Issues) > 0 {
		byKind := make(map[engine.IssueKind][]engine.Issue)
		for _, is := range result.Issues {
			byKind[is.Kind] = append(byKind[is.Kind], is)
		}

		fmt.Fprintf(e.stdout, "\nValidation Issues (%d):\n", len(result.Issues))
		for _, kind := range engine.IssueKinds {
			issues := byKind[kind]
			if len(issues) == 0 {
				continue
			}
			fmt.Fprintf(e.stdout, "\n  %s (%d file(s)):\n", kind, len(issues))
			for _, is := range issues {
				fmt.Fprintf(e.stdout, "    %s: %s\n", filepath.Base(is.Path), is.Message)
			}
		}
	}

	if len(result.Notices) > 0 {
		fmt.Fprintf(e.stdout, "\nNotices (%d):\n", len(result.Notices))
		for _, n := range result.Notices {
			fmt.Fprintf(e.stdout, "  %s: %s\n", filepath.Base(n.Path), n.Message)
		}
	}
}
