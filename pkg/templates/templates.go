// Package templates provides the named rename patterns used by
// `template --use` and `template --list`.
//
// A Registry starts with the built-in set and can be extended from a YAML
// file of user templates:
//
//	templates:
//	  camera-roll: "IMG_%C4.%E"
//	  lowercase: "%L%N.%E"   # overrides the built-in
//
// The default file location is $XDG_DATA_HOME/frencli/templates.yaml.
package templates

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrg/xdg"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"gopkg.in/yaml.v3"
)

// Source values for Template.Source.
const (
	SourceBuiltin = "builtin"
	SourceUser    = "user"
)

// Template is a named rename pattern.
type Template struct {
	Name    string `json:"name" yaml:"name"`
	Pattern string `json:"pattern" yaml:"pattern"`
	Source  string `json:"source" yaml:"source"`
}

var builtins = map[string]string{
	"photo-date":     "%N_%D.%E",
	"photo-counter":  "photo_%C3.%E",
	"photo-datetime": "%N_%FD_%FH.%E",

	"doc-date":    "%N_%D.%E",
	"doc-counter": "document_%C2.%E",

	"lowercase":       "%L%N.%E",
	"lowercase-name":  "%N%L.%E",
	"uppercase":       "%U%N.%E",
	"uppercase-name":  "%N%U.%E",
	"title-case":      "%T%N.%E",
	"title-case-name": "%N%T.%E",

	"parent-prefix": "%P_%N.%E",
	"parent-suffix": "%N_%P.%E",

	"counter-2":      "%C2.%E",
	"counter-3":      "%C3.%E",
	"counter-4":      "%C4.%E",
	"counter-prefix": "%C3_%N.%E",
	"counter-suffix": "%N_%C3.%E",

	"date-suffix":     "%N_%D.%E",
	"date-prefix":     "%D_%N.%E",
	"datetime-suffix": "%N_%D_%H.%E",

	"trim-spaces":        "%M%N.%E",
	"underscore-to-dash": "%N%R/_/-.%E",
	"dash-to-underscore": "%N%R/-/_.%E",
}

// Registry holds templates by name.
type Registry struct {
	templates map[string]Template
}

// NewRegistry returns a registry holding the built-in templates.
func NewRegistry() *Registry {
	r := &Registry{templates: make(map[string]Template, len(builtins))}
	for name, pattern := range builtins {
		r.templates[name] = Template{Name: name, Pattern: pattern, Source: SourceBuiltin}
	}
	return r
}

// DefaultPath returns the default user templates file location.
func DefaultPath() string {
	return filepath.Join(xdg.DataHome, "frencli", "templates.yaml")
}

type userFile struct {
	Templates map[string]string `yaml:"templates"`
}

// LoadFile adds the templates defined in path, replacing built-ins of the same
// name. A missing file is not an error.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read templates file: %w", err)
	}

	var f userFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse templates file %s: %w", path, err)
	}

	for name, pattern := range f.Templates {
		name = strings.TrimSpace(name)
		if name == "" || strings.TrimSpace(pattern) == "" {
			return fmt.Errorf("templates file %s: template %q has an empty name or pattern", path, name)
		}
		r.Add(Template{Name: name, Pattern: pattern, Source: SourceUser})
	}
	return nil
}

// Add registers t, replacing any template with the same name.
func (r *Registry) Add(t Template) {
	if t.Source == "" {
		t.Source = SourceUser
	}
	r.templates[t.Name] = t
}

// Get returns the pattern registered under name.
func (r *Registry) Get(name string) (string, bool) {
	t, ok := r.templates[name]
	return t.Pattern, ok
}

// List returns all templates sorted by name.
func (r *Registry) List() []Template {
	list := make([]Template, 0, len(r.templates))
	for _, t := range r.templates {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Suggest returns up to limit names close to query, best match first.
func Suggest(query string, names []string, limit int) []string {
	if query == "" || limit <= 0 {
		return nil
	}

	ranks := fuzzy.RankFindFold(query, names)
	if len(ranks) == 0 {
		// not a subsequence of anything, fall back to edit distance
		for _, name := range names {
			d := fuzzy.LevenshteinDistance(strings.ToLower(query), strings.ToLower(name))
			if d <= 3 {
				ranks = append(ranks, fuzzy.Rank{Source: query, Target: name, Distance: d})
			}
		}
	}
	sort.Stable(ranks)

	out := make([]string, 0, limit)
	for _, r := range ranks {
		if len(out) == limit {
			break
		}
		out = append(out, r.Target)
	}
	return out
}
