package grammar

import (
	"fmt"
	"io"
	"strings"
)

// WriteMainHelp writes the top-level usage.
func WriteMainHelp(w io.Writer, binary string) {
	fmt.Fprintln(w, "Batch file renamer with pattern matching")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Usage: %s [OPTIONS] <SUBCOMMAND>...\n", binary)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Subcommands may be given in any order; they always run as")
	fmt.Fprintln(w, "list -> rename/template -> validate -> apply.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "SUBCOMMANDS:")
	for _, k := range Keywords {
		fmt.Fprintf(w, "    %-12s %s\n", k, MustLookup(k).Short)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "OPTIONS:")
	fmt.Fprintln(w, "    --help       Print help (use after a subcommand for its own help)")
	fmt.Fprintln(w, "    --version    Print version")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintf(w, "  %s list *.txt\n", binary)
	fmt.Fprintf(w, "  %s list *.txt rename \"%%N_backup.%%E\"\n", binary)
	fmt.Fprintf(w, "  %s list *.txt rename \"%%N_backup.%%E\" apply --yes\n", binary)
	fmt.Fprintf(w, "  %s rename \"%%L%%N.%%E\" list *.TXT validate\n", binary)
}

// WriteSubcommandHelp writes the usage of one subcommand.
func WriteSubcommandHelp(w io.Writer, binary string, k Keyword) {
	s := MustLookup(k)

	fmt.Fprintln(w, s.Short)
	fmt.Fprintln(w)
	if s.Long != "" {
		fmt.Fprintln(w, s.Long)
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "Usage: %s %s\n", binary, s.Usage)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprint(w, s.Flags.FlagUsages())

	if len(s.Examples) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Examples:")
		for _, ex := range s.Examples {
			fmt.Fprintf(w, "  %s %s\n", binary, ex)
		}
	}
}

// ShortFlagMessage renders the rejection notice for a short flag.
func ShortFlagMessage(token string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Short flags (like '%s') are not supported.\n", token)
	if long := SuggestLong(token); long != "" {
		fmt.Fprintf(&b, "Use '%s' instead of '%s'.\n", long, token)
	} else {
		b.WriteString("Please use the long form instead (e.g., '--yes' instead of '-y').\n")
	}
	b.WriteString("\nCommon short flag mappings:\n")
	for _, h := range ShortFlagHints() {
		fmt.Fprintf(&b, "  %-7s ->  %s\n", strings.Join(h.Short, ", "), h.Long)
	}
	return b.String()
}
