package invocation

import (
	"sort"
	"strconv"
	"strings"

	"github.com/frencli/frencli/internal/cmderr"
	"github.com/frencli/frencli/internal/grammar"
)

// Command is the typed form of a Unit. The set of implementations is closed.
type Command interface {
	Keyword() grammar.Keyword
	// WantsHelp reports whether --help was attached to the subcommand.
	WantsHelp() bool
	sealed()
}

type base struct {
	Help bool
}

func (b base) WantsHelp() bool { return b.Help }
func (base) sealed()           {}

// ListCommand selects files.
type ListCommand struct {
	base
	Patterns  []string
	FilesFrom string
	Recursive bool
	Exclude   []string
	FullPath  bool
	JSON      bool
}

// RenameCommand computes the preview from a direct pattern.
type RenameCommand struct {
	base
	// Args holds every positional token; Extract requires exactly one.
	Args []string
	JSON bool
}

// ValidateCommand validates the preview.
type ValidateCommand struct {
	base
	SkipInvalid bool
}

// ApplyCommand applies the preview.
type ApplyCommand struct {
	base
	Overwrite   bool
	Yes         bool
	Interactive bool
	JSON        bool
	NoAudit     bool
}

// TemplateCommand lists templates or selects one as the rename source.
type TemplateCommand struct {
	base
	List bool
	// Use is a template name or 1-based index, resolved by the executor.
	Use    string
	HasUse bool
}

// UndoCommand checks or applies an undo of the last batch.
type UndoCommand struct {
	base
	Check bool
	Apply bool
	Yes   bool
}

// AuditCommand shows the audit log.
type AuditCommand struct {
	base
	// Limit caps the entries shown. Nil shows every entry.
	Limit *int
	JSON  bool
}

// InteractiveCommand starts the guided workflow.
type InteractiveCommand struct {
	base
}

func (*ListCommand) Keyword() grammar.Keyword        { return grammar.List }
func (*RenameCommand) Keyword() grammar.Keyword      { return grammar.Rename }
func (*ValidateCommand) Keyword() grammar.Keyword    { return grammar.Validate }
func (*ApplyCommand) Keyword() grammar.Keyword       { return grammar.Apply }
func (*TemplateCommand) Keyword() grammar.Keyword    { return grammar.Template }
func (*UndoCommand) Keyword() grammar.Keyword        { return grammar.Undo }
func (*AuditCommand) Keyword() grammar.Keyword       { return grammar.Audit }
func (*InteractiveCommand) Keyword() grammar.Keyword { return grammar.Interactive }

// Decode converts every unit of seq into its typed Command.
func Decode(seq Sequence) ([]Command, error) {
	cmds := make([]Command, 0, len(seq))
	for i := range seq {
		cmd, err := decodeUnit(&seq[i])
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

func decodeUnit(u *Unit) (Command, error) {
	sub := grammar.MustLookup(u.Name)

	if err := checkFlags(u, sub); err != nil {
		return nil, err
	}

	b := base{Help: u.HasFlag(grammar.HelpFlag)}

	switch u.Name {
	case grammar.List:
		cmd := &ListCommand{
			base:      b,
			Patterns:  append([]string(nil), u.Args...),
			Recursive: u.HasFlag("recursive"),
			Exclude:   u.FlagValues("exclude"),
			FullPath:  u.HasFlag("fullpath"),
			JSON:      u.HasFlag("json"),
		}
		if u.HasFlag("files-from") {
			v, err := singleValue(u, "files-from", "FILE")
			if err != nil {
				return nil, err
			}
			cmd.FilesFrom = v
		}
		return cmd, nil

	case grammar.Rename:
		return &RenameCommand{
			base: b,
			Args: append([]string(nil), u.Args...),
			JSON: u.HasFlag("json"),
		}, nil
	}

	if len(u.Args) > 0 && !b.Help {
		return nil, cmderr.Parsef("unexpected argument '%s' for '%s'.\nUsage: %s",
			u.Args[0], u.Name, sub.Usage)
	}

	switch u.Name {
	case grammar.Validate:
		return &ValidateCommand{base: b, SkipInvalid: u.HasFlag("skip-invalid")}, nil

	case grammar.Apply:
		return &ApplyCommand{
			base:        b,
			Overwrite:   u.HasFlag("overwrite"),
			Yes:         u.HasFlag("yes"),
			Interactive: u.HasFlag("interactive"),
			JSON:        u.HasFlag("json"),
			NoAudit:     u.HasFlag("no-audit"),
		}, nil

	case grammar.Template:
		cmd := &TemplateCommand{base: b, List: u.HasFlag("list")}
		if u.HasFlag("use") {
			v, err := singleValue(u, "use", "NAME|NUMBER")
			if err != nil {
				return nil, err
			}
			cmd.Use = v
			cmd.HasUse = true
		}
		return cmd, nil

	case grammar.Undo:
		return &UndoCommand{
			base:  b,
			Check: u.HasFlag("check"),
			Apply: u.HasFlag("apply"),
			Yes:   u.HasFlag("yes"),
		}, nil

	case grammar.Audit:
		cmd := &AuditCommand{base: b, JSON: u.HasFlag("json")}
		if u.HasFlag("limit") {
			v, err := singleValue(u, "limit", "N")
			if err != nil {
				return nil, err
			}
			n, convErr := strconv.Atoi(v)
			if convErr != nil || n < 0 {
				return nil, cmderr.Configf("'audit --limit' expects a non-negative number, got '%s'", v)
			}
			cmd.Limit = &n
		}
		return cmd, nil

	case grammar.Interactive:
		return &InteractiveCommand{base: b}, nil
	}

	return nil, cmderr.Parsef("unknown subcommand '%s'", u.Name)
}

// checkFlags rejects flags the subcommand does not declare.
func checkFlags(u *Unit, sub *grammar.Subcommand) error {
	var unknown []string
	for name := range u.Flags {
		if !sub.HasFlag(name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)

	valid := sub.FlagNames()
	for i, n := range valid {
		valid[i] = grammar.LongFlagPrefix + n
	}

	return cmderr.Parsef("unknown flag '--%s' for '%s'.\nValid flags: %s",
		unknown[0], u.Name, strings.Join(valid, ", "))
}

func singleValue(u *Unit, flag, metavar string) (string, error) {
	values := u.Flags[flag]
	switch {
	case len(values) == 0 || strings.TrimSpace(values[0]) == "":
		return "", cmderr.Configf("'%s --%s' requires a %s argument", u.Name, flag, metavar)
	case len(values) > 1:
		return "", cmderr.Parsef("'%s --%s' takes a single %s, got %d values: %s",
			u.Name, flag, metavar, len(values), strings.Join(values, " "))
	}
	return values[0], nil
}
