package output

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// DefaultApplySuccess is the summary printed after apply.
const DefaultApplySuccess = "Successfully processed {successful} file(s)"

// Summary is what a message can refer to.
type Summary struct {
	Successful int `expr:"successful"`
	Skipped    int `expr:"skipped"`
	Errors     int `expr:"errors"`
	Total      int `expr:"total"`
}

func (s Summary) lookup(name string) (int, bool) {
	switch name {
	case "successful":
		return s.Successful, true
	case "skipped":
		return s.Skipped, true
	case "errors":
		return s.Errors, true
	case "total":
		return s.Total, true
	}
	return 0, false
}

// Message is a parsed message template.
//
// Text is copied as is, except for
//
//	{name}         a Summary field: successful, skipped, errors or total
//	{{ expr }}     an expr-lang expression over the same fields, for example
//	               {{ errors > 0 ? " with errors" : "" }}
//
// A '{' that starts neither form is literal text.
type Message struct {
	text  string
	parts []messagePart
}

type messagePart struct {
	literal  string
	variable string
	program  *vm.Program
}

// ParseMessage parses text. Blank text parses DefaultApplySuccess. Unknown
// variables and invalid expressions are reported here, before any file is
// touched.
func ParseMessage(text string) (*Message, error) {
	if strings.TrimSpace(text) == "" {
		text = DefaultApplySuccess
	}

	m := &Message{text: text}
	for i := 0; i < len(text); {
		rest := text[i:]

		if strings.HasPrefix(rest, "{{") {
			end := strings.Index(rest[2:], "}}")
			if end < 0 {
				return nil, fmt.Errorf("unclosed '{{' at offset %d", i)
			}
			source := strings.TrimSpace(rest[2 : 2+end])
			if source == "" {
				return nil, fmt.Errorf("empty expression at offset %d", i)
			}
			program, err := expr.Compile(source, expr.Env(Summary{}))
			if err != nil {
				return nil, fmt.Errorf("invalid expression '%s': %w", source, err)
			}
			m.parts = append(m.parts, messagePart{program: program})
			i += end + 4
			continue
		}

		if name, ok := variableAt(rest); ok {
			if _, known := (Summary{}).lookup(name); !known {
				return nil, fmt.Errorf("unknown variable '{%s}'", name)
			}
			m.parts = append(m.parts, messagePart{variable: name})
			i += len(name) + 2
			continue
		}

		next := strings.IndexByte(rest[1:], '{')
		if next < 0 {
			next = len(rest)
		} else {
			next++
		}
		m.appendLiteral(rest[:next])
		i += next
	}
	return m, nil
}

// MustParseMessage is ParseMessage for messages known to be valid.
func MustParseMessage(text string) *Message {
	m, err := ParseMessage(text)
	if err != nil {
		panic(err)
	}
	return m
}

// String returns the template text.
func (m *Message) String() string {
	return m.text
}

// Render fills the template from s.
func (m *Message) Render(s Summary) (string, error) {
	var b strings.Builder
	for _, p := range m.parts {
		switch {
		case p.program != nil:
			out, err := expr.Run(p.program, s)
			if err != nil {
				return "", fmt.Errorf("failed to evaluate expression: %w", err)
			}
			fmt.Fprint(&b, out)
		case p.variable != "":
			v, _ := s.lookup(p.variable)
			b.WriteString(strconv.Itoa(v))
		default:
			b.WriteString(p.literal)
		}
	}
	return b.String(), nil
}

func (m *Message) appendLiteral(s string) {
	if n := len(m.parts); n > 0 && m.parts[n-1].program == nil && m.parts[n-1].variable == "" {
		m.parts[n-1].literal += s
		return
	}
	m.parts = append(m.parts, messagePart{literal: s})
}

// variableAt reports the name in a leading "{name}".
func variableAt(s string) (string, bool) {
	if len(s) < 3 || s[0] != '{' {
		return "", false
	}
	end := strings.IndexByte(s, '}')
	if end < 2 {
		return "", false
	}
	name := s[1:end]
	for i, r := range name {
		letter := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if !letter && (i == 0 || r < '0' || r > '9') {
			return "", false
		}
	}
	return name, true
}
