package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

type caseMode int

const (
	caseNone caseMode = iota
	caseLower
	caseUpper
	caseTitle
)

// fileInfo is what a pattern can reference about one file.
type fileInfo struct {
	name    string // base name without extension
	ext     string // extension without the dot
	full    string // base name
	parent  string // name of the containing directory
	index   int    // 1-based position in the batch
	modTime func() (time.Time, error)
}

// evaluator renders one pattern for one file.
type evaluator struct {
	pattern string
	file    fileInfo
	now     time.Time

	out      strings.Builder
	mode     caseMode
	trimEnd  bool
	warnings []string
}

// renderPattern returns the new base name of f under pattern.
func renderPattern(pattern string, f fileInfo, now time.Time) (string, []string, error) {
	ev := &evaluator{pattern: pattern, file: f, now: now}
	if err := ev.run(); err != nil {
		return "", nil, err
	}

	result := ev.out.String()
	if ev.trimEnd {
		result = strings.TrimSpace(result)
	}
	return result, ev.warnings, nil
}

func (ev *evaluator) run() error {
	p := ev.pattern
	i := 0

	for i < len(p) {
		if p[i] != '%' {
			next := strings.IndexByte(p[i:], '%')
			if next < 0 {
				next = len(p) - i
			}
			ev.emit(p[i : i+next])
			i += next
			continue
		}

		i++
		if i >= len(p) {
			ev.warnings = append(ev.warnings, "Unknown token: %")
			ev.emit("%")
			break
		}

		switch c := p[i]; {
		case c == '%':
			ev.emit("%")
			i++

		case c == 'F' && i+1 < len(p) && (p[i+1] == 'D' || p[i+1] == 'H'):
			t, err := ev.file.modTime()
			if err != nil {
				return fmt.Errorf("failed to read modification time of %s: %w", ev.file.full, err)
			}
			if p[i+1] == 'D' {
				ev.emit(t.Format("2006-01-02"))
			} else {
				ev.emit(t.Format("15-04-05"))
			}
			i += 2

		case c == 'F':
			ev.emit(ev.file.full)
			i++

		case c == 'N' || c == 'n' || c == 'E' || c == 'e' || c == 'P':
			src := ev.file.name
			switch c {
			case 'E', 'e':
				src = ev.file.ext
			case 'P':
				src = ev.file.parent
			}
			i++
			r, n := parseRange(p[i:])
			i += n
			ev.emit(r.apply(src))

		case c == 'C':
			i++
			start := i
			for i < len(p) && p[i] >= '0' && p[i] <= '9' {
				i++
			}
			width := 0
			if i > start {
				width, _ = strconv.Atoi(p[start:i])
			}
			ev.emit(fmt.Sprintf("%0*d", width, ev.file.index))

		case c == 'D':
			ev.emit(ev.now.Format("2006-01-02"))
			i++

		case c == 'H':
			ev.emit(ev.now.Format("15-04-05"))
			i++

		case c == 'L':
			ev.setMode(caseLower)
			i++

		case c == 'U':
			ev.setMode(caseUpper)
			i++

		case c == 'T':
			ev.setMode(caseTitle)
			i++

		case c == 'M':
			ev.replaceAll(strings.TrimSpace(ev.out.String()))
			ev.trimEnd = true
			i++

		case c == 'R' || c == 'X':
			old, repl, n, ok := parseReplace(p[i+1:])
			if !ok {
				ev.warnings = append(ev.warnings, fmt.Sprintf("Invalid replace syntax after %%%c, expected %%%c/old/new", c, c))
				ev.emit("%" + string(c))
				i++
				continue
			}
			i += 1 + n

			current := ev.out.String()
			if c == 'R' {
				current = strings.ReplaceAll(current, old, repl)
			} else {
				re, err := regexp.Compile(old)
				if err != nil {
					return fmt.Errorf("invalid regular expression %q in %%X: %w", old, err)
				}
				current = re.ReplaceAllString(current, repl)
			}
			ev.replaceAll(current)

		default:
			tok := "%" + string(c)
			ev.warnings = append(ev.warnings, "Unknown token: "+tok)
			ev.emit(tok)
			i++
		}
	}

	return nil
}

func (ev *evaluator) emit(s string) {
	if ev.mode == caseNone {
		ev.out.WriteString(s)
		return
	}
	ev.out.WriteString(s)
	ev.replaceAll(ev.out.String())
}

// replaceAll swaps the accumulated text, applying the active case mode.
func (ev *evaluator) replaceAll(s string) {
	ev.out.Reset()
	ev.out.WriteString(applyCase(ev.mode, s))
}

func (ev *evaluator) setMode(m caseMode) {
	ev.mode = m
	ev.replaceAll(ev.out.String())
}

func applyCase(m caseMode, s string) string {
	switch m {
	case caseLower:
		return strings.ToLower(s)
	case caseUpper:
		return strings.ToUpper(s)
	case caseTitle:
		return titleCase(s)
	}
	return s
}

// titleCase upper-cases the first letter after any non-alphanumeric rune and
// lower-cases the rest.
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	startOfWord := true
	for _, r := range s {
		isAlnum := unicode.IsLetter(r) || unicode.IsDigit(r)
		switch {
		case isAlnum && startOfWord:
			b.WriteRune(unicode.ToUpper(r))
		case isAlnum:
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
		startOfWord = !isAlnum
	}
	return b.String()
}

// charRange is a 1-based inclusive rune range. A zero end means "to the end";
// dropEnd removes that many runes from the end instead.
type charRange struct {
	start   int
	end     int
	dropEnd int
	set     bool
}

// parseRange reads an optional range suffix (a-b, a-, -b, a--k, a) and
// returns it with the number of bytes consumed. Input without a digit is not
// a range.
func parseRange(s string) (charRange, int) {
	i := 0
	readInt := func() (int, bool) {
		start := i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i == start {
			return 0, false
		}
		n, _ := strconv.Atoi(s[start:i])
		return n, true
	}

	var r charRange
	a, hasA := readInt()
	if hasA {
		r.start = a
	}

	if i < len(s) && s[i] == '-' {
		i++
		if i < len(s) && s[i] == '-' {
			i++
			k, ok := readInt()
			if !ok {
				if !hasA {
					return charRange{}, 0
				}
				// "a-" followed by a literal dash
				i -= 1
				r.set = true
				return r, i
			}
			r.dropEnd = k
		} else if b, ok := readInt(); ok {
			r.end = b
		} else if !hasA {
			return charRange{}, 0
		}
		r.set = true
		return r, i
	}

	if !hasA {
		return charRange{}, 0
	}
	r.end = a
	r.set = true
	return r, i
}

func (r charRange) apply(s string) string {
	if !r.set {
		return s
	}

	runes := []rune(s)
	start := r.start
	if start < 1 {
		start = 1
	}
	end := len(runes)
	switch {
	case r.dropEnd > 0:
		end = len(runes) - r.dropEnd
	case r.end > 0:
		end = r.end
	}
	if end > len(runes) {
		end = len(runes)
	}
	if start > end {
		return ""
	}
	return string(runes[start-1 : end])
}

// parseReplace reads "/old/new" where new ends at '/', '.', '%' or the end of
// input. A closing '/' is consumed.
func parseReplace(s string) (old, repl string, n int, ok bool) {
	if len(s) == 0 || s[0] != '/' {
		return "", "", 0, false
	}
	rest := s[1:]
	sep := strings.IndexByte(rest, '/')
	if sep < 0 {
		return "", "", 0, false
	}
	old = rest[:sep]
	rest = rest[sep+1:]
	n = 1 + sep + 1

	end := strings.IndexAny(rest, "/.%")
	if end < 0 {
		return old, rest, n + len(rest), true
	}
	repl = rest[:end]
	n += end
	if rest[end] == '/' {
		n++
	}
	return old, repl, n, true
}
