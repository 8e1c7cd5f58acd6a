package invocation

import (
	"strings"

	"github.com/frencli/frencli/internal/cmderr"
)

// Config is the flat pipeline configuration. A nil stage means the
// corresponding subcommand was not given.
type Config struct {
	List     *ListStage
	Rename   *RenameStage
	Template *TemplateStage
	Validate *ValidateStage
	Apply    *ApplyStage
}

// ListStage selects files either by Patterns or, when FilesFrom is set, from
// an external path list ("-" reads standard input).
type ListStage struct {
	Patterns  []string
	FilesFrom string
	Recursive bool
	Exclude   []string
	FullPath  bool
	JSON      bool
}

// RenameStage carries a direct rename pattern.
type RenameStage struct {
	Pattern string
	JSON    bool
}

// TemplateStage carries an unresolved template name or 1-based index.
type TemplateStage struct {
	Use string
}

type ValidateStage struct {
	SkipInvalid bool
}

type ApplyStage struct {
	Overwrite   bool
	Yes         bool
	Interactive bool
	JSON        bool
	NoAudit     bool
}

// HasPreviewSource reports whether a stage will produce a preview.
func (c *Config) HasPreviewSource() bool {
	return c.Rename != nil || c.Template != nil
}

// ConsumesFiles reports whether any stage after list uses the file set.
func (c *Config) ConsumesFiles() bool {
	return c.HasPreviewSource() || c.Validate != nil || c.Apply != nil
}

// Extract folds cmds into a Config. When a subcommand repeats, the later
// occurrence replaces the earlier stage entirely.
func Extract(cmds []Command) (*Config, error) {
	cfg := &Config{}

	for _, c := range cmds {
		switch cmd := c.(type) {
		case *ListCommand:
			stage := &ListStage{
				Recursive: cmd.Recursive,
				Exclude:   append([]string(nil), cmd.Exclude...),
				FullPath:  cmd.FullPath,
				JSON:      cmd.JSON,
			}
			if cmd.FilesFrom != "" {
				stage.FilesFrom = cmd.FilesFrom
			} else {
				if len(cmd.Patterns) == 0 {
					return nil, cmderr.Configf("No search pattern provided for 'list'. Use patterns or --files-from.")
				}
				stage.Patterns = append([]string(nil), cmd.Patterns...)
			}
			cfg.List = stage

		case *RenameCommand:
			if len(cmd.Args) == 0 || cmd.Args[0] == "" {
				return nil, cmderr.Configf("Rename pattern required.")
			}
			if len(cmd.Args) > 1 {
				return nil, cmderr.Configf("'rename' takes a single PATTERN, got %d: %s\n"+
					"Quote the pattern if it contains spaces.",
					len(cmd.Args), strings.Join(cmd.Args, " "))
			}
			cfg.Rename = &RenameStage{Pattern: cmd.Args[0], JSON: cmd.JSON}

		case *TemplateCommand:
			if cmd.HasUse {
				cfg.Template = &TemplateStage{Use: cmd.Use}
			}

		case *ValidateCommand:
			cfg.Validate = &ValidateStage{SkipInvalid: cmd.SkipInvalid}

		case *ApplyCommand:
			cfg.Apply = &ApplyStage{
				Overwrite:   cmd.Overwrite,
				Yes:         cmd.Yes,
				Interactive: cmd.Interactive,
				JSON:        cmd.JSON,
				NoAudit:     cmd.NoAudit,
			}
		}
	}

	return cfg, nil
}
