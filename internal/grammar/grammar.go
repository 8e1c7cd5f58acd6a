// Package grammar declares the fixed subcommand grammar of frencli.
//
// Each subcommand keyword owns a pflag.FlagSet describing its long flags.
// The tokenizer consults the set to decide whether a flag is boolean (its
// pflag value type is "bool") or value-bearing, and the help printer renders
// usage text from the same definitions, so the two can never drift apart.
//
// # Keywords
//
//	list rename validate apply template undo audit interactive
//
// Flags are only recognized in their long form (--name). Short forms are
// rejected by the tokenizer with the hints returned by ShortFlagHints.
package grammar

import (
	"sort"

	"github.com/spf13/pflag"
)

// Keyword is a subcommand name.
type Keyword string

// Subcommand keywords.
const (
	List        Keyword = "list"
	Rename      Keyword = "rename"
	Validate    Keyword = "validate"
	Apply       Keyword = "apply"
	Template    Keyword = "template"
	Undo        Keyword = "undo"
	Audit       Keyword = "audit"
	Interactive Keyword = "interactive"
)

// Keywords lists every subcommand in help order.
var Keywords = []Keyword{List, Rename, Validate, Apply, Template, Undo, Audit, Interactive}

// LongFlagPrefix opens a flag.
const LongFlagPrefix = "--"

// HelpFlag is accepted by every subcommand.
const HelpFlag = "help"

// Subcommand describes one subcommand keyword.
type Subcommand struct {
	Keyword  Keyword
	Short    string
	Usage    string
	Long     string
	Examples []string

	// LooseDashArgs marks subcommands whose positional arguments are file
	// selections and may therefore begin with a single dash.
	LooseDashArgs bool

	// Standalone subcommands must be the only unit of an invocation.
	Standalone bool

	Flags *pflag.FlagSet
}

// IsBoolFlag reports whether name is a boolean (presence) flag.
func (s *Subcommand) IsBoolFlag(name string) bool {
	f := s.Flags.Lookup(name)
	return f != nil && f.Value.Type() == "bool"
}

// HasFlag reports whether name is declared for the subcommand.
func (s *Subcommand) HasFlag(name string) bool {
	return s.Flags.Lookup(name) != nil
}

// FlagNames returns the declared flag names, sorted.
func (s *Subcommand) FlagNames() []string {
	var names []string
	s.Flags.VisitAll(func(f *pflag.Flag) {
		names = append(names, f.Name)
	})
	sort.Strings(names)
	return names
}

var table = buildTable()

// Lookup returns the subcommand for a keyword token.
func Lookup(token string) (*Subcommand, bool) {
	s, ok := table[Keyword(token)]
	return s, ok
}

// MustLookup returns the subcommand for k and panics on an unknown keyword.
func MustLookup(k Keyword) *Subcommand {
	s, ok := table[k]
	if !ok {
		panic("grammar: unknown keyword " + string(k))
	}
	return s
}

// IsKeyword reports whether token opens a subcommand unit.
func IsKeyword(token string) bool {
	_, ok := table[Keyword(token)]
	return ok
}

func newFlagSet(k Keyword) *pflag.FlagSet {
	fs := pflag.NewFlagSet(string(k), pflag.ContinueOnError)
	fs.SortFlags = false
	fs.Bool(HelpFlag, false, "Print help")
	return fs
}

func buildTable() map[Keyword]*Subcommand {
	list := newFlagSet(List)
	list.String("files-from", "", "Read file paths from FILE, one per line ('-' for stdin)")
	list.Bool("recursive", false, "Recursively search subdirectories (supports ** glob pattern)")
	list.StringArray("exclude", nil, "Exclude files matching these patterns")
	list.Bool("fullpath", false, "Display full paths instead of just filenames")
	list.Bool("json", false, "Output as JSON array")

	rename := newFlagSet(Rename)
	rename.Bool("json", false, "Output the preview as JSON")

	validate := newFlagSet(Validate)
	validate.Bool("skip-invalid", false, "Report invalid renames and continue with the valid ones")

	apply := newFlagSet(Apply)
	apply.Bool("overwrite", false, "Overwrite existing files")
	apply.Bool("yes", false, "Skip confirmation prompt")
	apply.Bool("interactive", false, "Edit each new name before applying")
	apply.Bool("json", false, "Output the result as JSON (never prompts)")
	apply.Bool("no-audit", false, "Do not write an audit log entry")

	template := newFlagSet(Template)
	template.Bool("list", false, "List all available templates")
	template.String("use", "", "Use a template by NAME or 1-based NUMBER")

	undo := newFlagSet(Undo)
	undo.Bool("check", false, "Check what can be undone")
	undo.Bool("apply", false, "Undo the last batch of renames")
	undo.Bool("yes", false, "Skip confirmation prompt when conflicts exist")

	audit := newFlagSet(Audit)
	audit.Int("limit", 0, "Maximum number of entries to display")
	audit.Bool("json", false, "Output as JSON array")

	interactive := newFlagSet(Interactive)

	all := []*Subcommand{
		{
			Keyword:       List,
			Short:         "List files matching patterns",
			Usage:         "list [OPTIONS] <PATTERN>...",
			Long:          "Selects the files the rest of the pipeline operates on.\nWithout a later stage the selection is printed.",
			Examples:      []string{"list *.txt", "list '**/*.jpg' --recursive --exclude '*thumb*'", "list --files-from files.txt"},
			LooseDashArgs: true,
			Flags:         list,
		},
		{
			Keyword:  Rename,
			Short:    "Preview new names using a pattern",
			Usage:    "rename [OPTIONS] <PATTERN>",
			Long:     "Computes the new names for the selected files without touching them.\nAdd 'apply' to perform the renaming.",
			Examples: []string{"list *.txt rename '%N_backup.%E'", "list *.jpg rename 'photo_%C3.%E' apply --yes"},
			Flags:    rename,
		},
		{
			Keyword:  Validate,
			Short:    "Validate the previewed renames",
			Usage:    "validate [OPTIONS]",
			Long:     "Checks the preview for invalid characters, reserved names, existing targets\nand circular renames.",
			Examples: []string{"list *.txt rename '%L%N.%E' validate", "list *.txt rename '%N.%E' validate --skip-invalid apply"},
			Flags:    validate,
		},
		{
			Keyword:  Apply,
			Short:    "Apply the previewed renames",
			Usage:    "apply [OPTIONS]",
			Long:     "Performs the renames of the preview, records undo history and an audit entry.",
			Examples: []string{"list *.txt rename '%N_old.%E' apply", "list *.txt template --use lowercase apply --yes"},
			Flags:    apply,
		},
		{
			Keyword:  Template,
			Short:    "List or use rename templates",
			Usage:    "template [--list | --use <NAME|NUMBER>]",
			Long:     "Templates are named rename patterns. '--list' must be used alone.",
			Examples: []string{"template --list", "list *.jpg template --use photo-date", "list *.jpg template --use 3 apply"},
			Flags:    template,
		},
		{
			Keyword:    Undo,
			Short:      "Undo the last batch of renames",
			Usage:      "undo [--check | --apply] [--yes]",
			Long:       "Reverses the most recent rename batch. Must be used alone.",
			Examples:   []string{"undo --check", "undo --apply", "undo --apply --yes"},
			Standalone: true,
			Flags:      undo,
		},
		{
			Keyword:    Audit,
			Short:      "View the audit log",
			Usage:      "audit [--limit <N>] [--json]",
			Long:       "Shows the recorded rename operations. Must be used alone.",
			Examples:   []string{"audit", "audit --limit 10", "audit --json"},
			Standalone: true,
			Flags:      audit,
		},
		{
			Keyword:    Interactive,
			Short:      "Guided rename workflow",
			Usage:      "interactive",
			Long:       "Walks through selecting files, choosing a pattern, previewing and applying.\nMust be used alone.",
			Examples:   []string{"interactive"},
			Standalone: true,
			Flags:      interactive,
		},
	}

	out := make(map[Keyword]*Subcommand, len(all))
	for _, s := range all {
		out[s.Keyword] = s
	}
	return out
}

// ShortHint maps rejected short flags to their long equivalent.
type ShortHint struct {
	Short []string
	Long  string
}

// ShortFlagHints returns the table printed when a short flag is rejected.
func ShortFlagHints() []ShortHint {
	return []ShortHint{
		{Short: []string{"-y", "-Y"}, Long: "--yes"},
		{Short: []string{"-o", "-O"}, Long: "--overwrite"},
		{Short: []string{"-r", "-R"}, Long: "--recursive"},
		{Short: []string{"-e", "-E"}, Long: "--exclude"},
		{Short: []string{"-h", "-H"}, Long: "--help"},
		{Short: []string{"-f", "-F"}, Long: "--fullpath"},
		{Short: []string{"-V", "-v"}, Long: "--version"},
	}
}

// SuggestLong returns the long flag for a short token, or "" when unknown.
func SuggestLong(token string) string {
	for _, h := range ShortFlagHints() {
		for _, s := range h.Short {
			if s == token {
				return h.Long
			}
		}
	}
	return ""
}
