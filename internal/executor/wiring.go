package executor

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/frencli/frencli/internal/engine"
	"github.com/frencli/frencli/internal/logging"
	"github.com/frencli/frencli/pkg/audit"
	"github.com/frencli/frencli/pkg/cli/interactive"
	"github.com/frencli/frencli/pkg/output"
	"github.com/frencli/frencli/pkg/progress"
	"github.com/frencli/frencli/pkg/state"
	"github.com/frencli/frencli/pkg/templates"
	"github.com/pterm/pterm"
)

// FileSource produces the file set of the list stage.
type FileSource interface {
	Discover(ctx context.Context, pattern string, recursive bool) ([]string, error)
	ReadPathList(ctx context.Context, source string) ([]string, error)
}

// Renamer computes, validates and applies renames.
type Renamer interface {
	GeneratePreview(ctx context.Context, files []string, pattern string) (*engine.Preview, error)
	Validate(ctx context.Context, renames []engine.Rename, overwrite bool) *engine.ValidationResult
	ApplyRenames(ctx context.Context, renames []engine.Rename, overwrite bool) (*engine.Execution, error)
}

// HistoryStore keeps the last applied batch for undo.
type HistoryStore interface {
	Save(ctx context.Context, actions []state.Action, command string) error
	Load(ctx context.Context) (*state.Batch, error)
	Clear(ctx context.Context) error
	CheckUndo(ctx context.Context, batch *state.Batch) ([]state.Action, []string)
	ApplyUndo(ctx context.Context, actions []state.Action) (int, error)
}

// AuditLog records applied batches.
type AuditLog interface {
	Append(entry *audit.Entry) error
	Read() ([]*audit.Entry, error)
}

// RecentStore remembers patterns of applied renames.
type RecentStore interface {
	Add(list, value string) error
	Top(list string, n int) ([]string, error)
}

// TemplateSource resolves template names to patterns.
type TemplateSource interface {
	Get(name string) (string, bool)
	List() []templates.Template
}

// Prompter asks the user questions.
type Prompter interface {
	IsTerminal() bool
	Confirm(opts *interactive.ConfirmPromptOptions) (bool, error)
	Text(opts *interactive.TextPromptOptions) (string, error)
	Select(opts *interactive.SelectPromptOptions) (string, error)
	EditRenames(items []interactive.EditItem) error
}

// Deps carries everything an Executor talks to.
type Deps struct {
	Files     FileSource
	Renamer   Renamer
	History   HistoryStore
	Templates TemplateSource
	Prompter  Prompter

	// Audit may be nil, which disables audit entries and the audit command.
	Audit AuditLog
	// AuditEnabled mirrors audit.enabled; apply --no-audit still wins.
	AuditEnabled bool

	// Recent may be nil. Interactive mode then offers no recent patterns.
	Recent RecentStore

	// ApplySuccess is the summary printed after apply. Nil selects
	// output.DefaultApplySuccess.
	ApplySuccess *output.Message

	Stdout   io.Writer
	Stderr   io.Writer
	Output   *output.Printer
	Logger   *pterm.Logger
	Progress progress.Progress
	Now      func() time.Time
}

// New creates an Executor. Files, Renamer, History, Templates and Prompter
// are required; everything else has a default.
func New(deps *Deps) (*Executor, error) {
	if deps == nil {
		return nil, fmt.Errorf("executor dependencies are required")
	}

	switch {
	case deps.Files == nil:
		return nil, fmt.Errorf("file source is required")
	case deps.Renamer == nil:
		return nil, fmt.Errorf("renamer is required")
	case deps.History == nil:
		return nil, fmt.Errorf("history store is required")
	case deps.Templates == nil:
		return nil, fmt.Errorf("template source is required")
	case deps.Prompter == nil:
		return nil, fmt.Errorf("prompter is required")
	}

	e := &Executor{
		files:        deps.Files,
		renamer:      deps.Renamer,
		history:      deps.History,
		templates:    deps.Templates,
		prompter:     deps.Prompter,
		audit:        deps.Audit,
		auditEnabled: deps.AuditEnabled && deps.Audit != nil,
		recent:       deps.Recent,
		applySuccess: deps.ApplySuccess,
		stdout:       deps.Stdout,
		stderr:       deps.Stderr,
		output:       deps.Output,
		logger:       deps.Logger,
		progress:     deps.Progress,
		now:          deps.Now,
	}

	if e.stdout == nil {
		e.stdout = os.Stdout
	}
	if e.stderr == nil {
		e.stderr = os.Stderr
	}
	e.success = pterm.Success.WithWriter(e.stdout)
	e.warning = pterm.Warning.WithWriter(e.stderr)
	e.failure = pterm.Error.WithWriter(e.stderr)

	if e.applySuccess == nil {
		e.applySuccess = output.MustParseMessage(output.DefaultApplySuccess)
	}
	if e.output == nil {
		e.output = output.NewPrinter(nil)
	}
	if e.logger == nil {
		e.logger = logging.Discard()
	}
	if e.progress == nil {
		e.progress = progress.NewNoopProgress()
	}
	if e.now == nil {
		e.now = time.Now
	}

	return e, nil
}
