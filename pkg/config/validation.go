package config

import (
	"fmt"
	"slices"
	"strings"
)

var (
	colorModes = []string{"auto", "always", "never"}
	logLevels  = []string{"debug", "info", "warn", "error"}
)

// Problem is one invalid setting, named by its config key.
type Problem struct {
	Key    string
	Reason string
}

func (p Problem) String() string {
	return p.Key + ": " + p.Reason
}

// Problems is every invalid setting of a Config. It is returned as an error.
type Problems []Problem

func (p Problems) Error() string {
	if len(p) == 0 {
		return ""
	}
	lines := make([]string, len(p))
	for i, problem := range p {
		lines[i] = "  - " + problem.String()
	}
	return "invalid configuration:\n" + strings.Join(lines, "\n")
}

// Keys returns the offending keys in the order they were found.
func (p Problems) Keys() []string {
	keys := make([]string, len(p))
	for i, problem := range p {
		keys[i] = problem.Key
	}
	return keys
}

// Validate returns Problems when any setting is unusable, nil otherwise.
// Enumerated values are matched case-insensitively.
func (c *Config) Validate() error {
	if c == nil {
		return Problems{{Key: "config", Reason: "is missing"}}
	}

	var p Problems
	check := func(ok bool, key, format string, args ...interface{}) {
		if !ok {
			p = append(p, Problem{Key: key, Reason: fmt.Sprintf(format, args...)})
		}
	}

	check(oneOf(c.Output.Color, colorModes), "output.color",
		"must be one of %s, got '%s'", strings.Join(colorModes, ", "), c.Output.Color)
	check(oneOf(c.Log.Level, logLevels), "log.level",
		"must be one of %s, got '%s'", strings.Join(logLevels, ", "), c.Log.Level)
	check(!c.Audit.Enabled || strings.TrimSpace(c.Audit.Path) != "", "audit.path",
		"is required when the audit log is enabled")
	check(c.Audit.MaxSizeMB >= 1, "audit.max_size_mb",
		"must be at least 1, got %d", c.Audit.MaxSizeMB)
	check(c.Audit.MaxBackups >= 0, "audit.max_backups",
		"must not be negative, got %d", c.Audit.MaxBackups)
	check(strings.TrimSpace(c.History.Path) != "", "history.path", "is required")

	if len(p) > 0 {
		return p
	}
	return nil
}

func oneOf(value string, allowed []string) bool {
	return slices.Contains(allowed, strings.ToLower(strings.TrimSpace(value)))
}
