// Package invocation turns the raw argument vector of frencli into a
// validated pipeline configuration.
//
// The flow is
//
//	Tokenize -> Decode -> ValidateCombination -> Extract
//
// Tokenize splits argv into subcommand units without any knowledge of the
// pipeline. Decode converts each unit into its typed Command record and
// rejects flags the subcommand does not declare. ValidateCombination enforces
// the rules about standalone subcommands and mutually exclusive rename
// sources. Extract folds the commands into a flat Config. All four are pure
// functions; none of them reads the filesystem or terminates the process.
package invocation

import (
	"strings"

	"github.com/frencli/frencli/internal/cmderr"
	"github.com/frencli/frencli/internal/grammar"
)

// Unit is one subcommand keyword with its positional arguments and flags.
type Unit struct {
	Name  grammar.Keyword
	Args  []string
	Flags map[string][]string
}

// HasFlag reports whether the flag was given.
func (u *Unit) HasFlag(name string) bool {
	_, ok := u.Flags[name]
	return ok
}

// FlagValue returns the first value of a flag.
func (u *Unit) FlagValue(name string) (string, bool) {
	v, ok := u.Flags[name]
	if !ok || len(v) == 0 {
		return "", false
	}
	return v[0], true
}

// FlagValues returns every value of a flag in the order given.
func (u *Unit) FlagValues(name string) []string {
	v := u.Flags[name]
	out := make([]string, len(v))
	copy(out, v)
	return out
}

// Sequence is the ordered list of units of one invocation.
type Sequence []Unit

// Names returns the keyword of each unit in order.
func (s Sequence) Names() []grammar.Keyword {
	names := make([]grammar.Keyword, len(s))
	for i, u := range s {
		names[i] = u.Name
	}
	return names
}

// Tokenize splits args into subcommand units.
//
// Tokens before the first keyword are discarded. A single-dash token is a
// positional argument of subcommands that select files and a ParseError
// everywhere else.
func Tokenize(args []string) (Sequence, error) {
	var seq Sequence
	i := 0

	for i < len(args) {
		sub, ok := grammar.Lookup(args[i])
		if !ok {
			i++
			continue
		}

		unit := Unit{
			Name:  sub.Keyword,
			Args:  []string{},
			Flags: make(map[string][]string),
		}
		i++

		for i < len(args) && !grammar.IsKeyword(args[i]) {
			tok := args[i]

			switch {
			case strings.HasPrefix(tok, grammar.LongFlagPrefix):
				name := strings.TrimPrefix(tok, grammar.LongFlagPrefix)
				i++

				if sub.IsBoolFlag(name) {
					unit.Flags[name] = []string{}
					continue
				}

				values := unit.Flags[name]
				if values == nil {
					values = []string{}
				}
				for i < len(args) {
					v := args[i]
					if strings.HasPrefix(v, grammar.LongFlagPrefix) || grammar.IsKeyword(v) {
						break
					}
					values = append(values, v)
					i++
				}
				unit.Flags[name] = values

			case strings.HasPrefix(tok, "-") && len(tok) > 1:
				if !sub.LooseDashArgs {
					return nil, cmderr.Parsef("%s", grammar.ShortFlagMessage(tok))
				}
				unit.Args = append(unit.Args, tok)
				i++

			default:
				unit.Args = append(unit.Args, tok)
				i++
			}
		}

		seq = append(seq, unit)
	}

	return seq, nil
}
