package invocation

import (
	"strings"

	"github.com/frencli/frencli/internal/cmderr"
	"github.com/frencli/frencli/internal/grammar"
)

// ValidateCombination rejects illegal subcommand mixes. Rules are checked in
// priority order and the first violation is returned as a CombinationError.
// cmds is never modified.
func ValidateCombination(cmds []Command) error {
	if len(cmds) == 0 {
		return nil
	}

	if _, err := HelpTarget(cmds); err != nil {
		return err
	}

	for _, c := range cmds {
		if t, ok := c.(*TemplateCommand); ok && t.List && len(cmds) > 1 {
			return cmderr.Combinationf("'template --list' cannot be used with other subcommands.\n" +
				"Listing templates is a standalone action.\n\n" +
				"Examples:\n" +
				"  frencli template --list\n" +
				"  frencli list *.jpg template --use photo-date")
		}
	}

	if u, ok := find[*UndoCommand](cmds); ok {
		if len(cmds) > 1 {
			return cmderr.Combinationf("'undo' cannot be used with other subcommands.\n" +
				"The 'undo' subcommand is very important and must be used alone.\n\n" +
				"Examples:\n" +
				"  frencli undo --check\n" +
				"  frencli undo --apply\n" +
				"  frencli undo --apply --yes")
		}
		if u.Check && u.Apply {
			return cmderr.Combinationf("Cannot use both 'undo --check' and 'undo --apply' together.\n" +
				"Use either:\n" +
				"  - 'undo --check' to check what can be undone\n" +
				"  - 'undo --apply' to actually perform the undo")
		}
		if !u.Check && !u.Apply && !u.Help {
			return cmderr.Combinationf("'undo' requires either '--check' or '--apply' flag.\n" +
				"Use:\n" +
				"  - 'undo --check' to check what can be undone\n" +
				"  - 'undo --apply' to actually perform the undo")
		}
	}

	if _, ok := find[*AuditCommand](cmds); ok && len(cmds) > 1 {
		return cmderr.Combinationf("'audit' cannot be used with other subcommands.\n" +
			"The 'audit' subcommand is standalone and must be used alone.\n\n" +
			"Examples:\n" +
			"  frencli audit\n" +
			"  frencli audit --limit 10\n" +
			"  frencli audit --json")
	}

	if _, ok := find[*InteractiveCommand](cmds); ok && len(cmds) > 1 {
		return cmderr.Combinationf("'interactive' cannot be used with other subcommands.\n" +
			"The 'interactive' subcommand is standalone and must be used alone.\n\n" +
			"Example:\n" +
			"  frencli interactive")
	}

	_, hasRename := find[*RenameCommand](cmds)
	hasTemplateUse := false
	for _, c := range cmds {
		if t, ok := c.(*TemplateCommand); ok && t.HasUse {
			hasTemplateUse = true
		}
	}
	if hasRename && hasTemplateUse {
		return cmderr.Combinationf("Cannot use both 'rename' and 'template --use' in the same command.\n" +
			"Use either:\n" +
			"  - 'rename <PATTERN>' to specify a pattern directly\n" +
			"  - 'template --use <NAME|NUMBER>' to use a template pattern")
	}

	for _, c := range cmds {
		if t, ok := c.(*TemplateCommand); ok && !t.List && !t.HasUse && !t.Help {
			return cmderr.Combinationf("'template' requires either '--list' or '--use <NAME|NUMBER>'.\n" +
				"Use:\n" +
				"  - 'template --list' to see all available templates\n" +
				"  - 'template --use <NAME|NUMBER>' to rename with a template")
		}
	}

	seen := make(map[grammar.Keyword]bool, len(cmds))
	for _, c := range cmds {
		k := c.Keyword()
		if seen[k] {
			return cmderr.Combinationf("'%s' was given more than once.\n"+
				"Each subcommand may appear at most once; combine its arguments into a single '%s' block.\n\n"+
				"Example:\n"+
				"  frencli list *.txt *.md rename '%%N_bak.%%E'", k, k)
		}
		seen[k] = true
	}

	return nil
}

// HelpTarget returns the command carrying --help, or nil when none does.
// Help on more than one subcommand is a CombinationError.
func HelpTarget(cmds []Command) (Command, error) {
	var (
		target Command
		named  []string
	)
	for _, c := range cmds {
		if c.WantsHelp() {
			if target == nil {
				target = c
			}
			named = append(named, string(c.Keyword()))
		}
	}
	if len(named) > 1 {
		return nil, cmderr.Combinationf("'--help' was given to more than one subcommand (%s).\n"+
			"Ask for help on one subcommand at a time, or run 'frencli --help' for an overview.",
			strings.Join(named, ", "))
	}
	return target, nil
}

func find[T Command](cmds []Command) (T, bool) {
	for _, c := range cmds {
		if t, ok := c.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}
