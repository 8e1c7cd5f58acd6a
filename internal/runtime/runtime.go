// Package runtime assembles a frencli process.
//
// It loads configuration, builds every collaborator of the executor and runs
// one invocation through the fixed chain
//
//	tokenize -> decode -> help -> combination rules -> standalone dispatch
//	         -> config extraction -> pipeline
//
// # Initialization Flow
//
//  1. Load configuration (defaults, config file, FRENCLI_* variables)
//  2. Build the diagnostic logger and decide on colors
//  3. Load user templates on top of the built-ins
//  4. Open undo history for the working directory, recent patterns and
//     the audit log
//  5. Build the engine, prompter, output printer and progress indicator
//  6. Hand all of them to the executor
//
// A broken config file, templates file or message template is reported as a
// warning and replaced by the defaults. Only an unusable working directory
// stops initialization.
package runtime

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/frencli/frencli/internal/engine"
	"github.com/frencli/frencli/internal/executor"
	"github.com/frencli/frencli/internal/grammar"
	"github.com/frencli/frencli/internal/invocation"
	"github.com/frencli/frencli/internal/logging"
	"github.com/frencli/frencli/pkg/audit"
	"github.com/frencli/frencli/pkg/cli/interactive"
	"github.com/frencli/frencli/pkg/config"
	"github.com/frencli/frencli/pkg/output"
	"github.com/frencli/frencli/pkg/progress"
	"github.com/frencli/frencli/pkg/state"
	"github.com/frencli/frencli/pkg/templates"
	"github.com/pterm/pterm"
	"golang.org/x/term"
)

// AppName is the binary name used in help, history and config paths.
const AppName = "frencli"

// Options configures a Runtime.
type Options struct {
	Version string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Config replaces loading configuration from disk.
	Config *config.Config

	// WorkingDir selects the undo history. Defaults to the current directory.
	WorkingDir string
}

// Runtime is one initialized frencli process.
type Runtime struct {
	config   *config.Config
	version  string
	stdout   io.Writer
	stderr   io.Writer
	logger   *pterm.Logger
	auditLog *audit.Log
	executor *executor.Executor
}

// New initializes every subsystem.
func New(opts *Options) (*Runtime, error) {
	if opts == nil {
		opts = &Options{}
	}
	stdin := opts.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	cfg := opts.Config
	var cfgErr error
	if cfg == nil {
		cfg, cfgErr = config.NewLoader(AppName).Load()
	}

	logger := logging.New(stderr, cfg.Log.Level)
	if cfgErr != nil {
		logger.Warn("configuration problem, using defaults", logger.Args("error", cfgErr.Error()))
	}

	colors := useColors(cfg.Output.Color, stdout)
	if !colors {
		pterm.DisableColor()
	}

	registry := templates.NewRegistry()
	if err := registry.LoadFile(cfg.Templates.Path); err != nil {
		logger.Warn("ignoring user templates", logger.Args("error", err.Error()))
	}

	history, err := state.NewHistory(&state.HistoryConfig{
		Dir:        cfg.History.Path,
		WorkingDir: opts.WorkingDir,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize rename history: %w", err)
	}

	recent := state.NewRecent(&state.RecentConfig{
		Path: filepath.Join(filepath.Dir(cfg.History.Path), "recent.yaml"),
	})

	auditLog := audit.New(&audit.Config{
		Path:       cfg.Audit.Path,
		MaxSizeMB:  cfg.Audit.MaxSizeMB,
		MaxBackups: cfg.Audit.MaxBackups,
	})

	applySuccess, err := output.ParseMessage(cfg.Messages.ApplySuccess)
	if err != nil {
		logger.Warn("ignoring messages.apply_success", logger.Args("error", err.Error()))
		applySuccess = output.MustParseMessage(output.DefaultApplySuccess)
	}

	eng := engine.New(&engine.Config{Stdin: stdin})
	exec, err := executor.New(&executor.Deps{
		Files:        eng,
		Renamer:      eng,
		History:      history,
		Templates:    registry,
		Prompter:     interactive.NewPrompter(&interactive.PrompterConfig{Input: stdin, Output: stdout}),
		Audit:        auditLog,
		AuditEnabled: cfg.Audit.Enabled,
		Recent:       recent,
		ApplySuccess: applySuccess,
		Stdout:       stdout,
		Stderr:       stderr,
		Output:       output.NewPrinter(&output.Options{Colors: colors}),
		Logger:       logger,
		Progress:     progress.New(&progress.Config{Enabled: isTerminal(stderr), Writer: stderr}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize executor: %w", err)
	}

	logger.Debug("runtime initialized", logger.Args(
		"history", history.Path(), "audit", auditLog.Path(), "audit_enabled", cfg.Audit.Enabled, "colors", colors))

	return &Runtime{
		config:   cfg,
		version:  opts.Version,
		stdout:   stdout,
		stderr:   stderr,
		logger:   logger,
		auditLog: auditLog,
		executor: exec,
	}, nil
}

// Execute runs one invocation. args excludes the binary name.
func (rt *Runtime) Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		grammar.WriteMainHelp(rt.stdout, AppName)
		return nil
	}

	switch args[0] {
	case "--help":
		grammar.WriteMainHelp(rt.stdout, AppName)
		return nil
	case "--version":
		fmt.Fprintf(rt.stdout, "%s %s\n", AppName, rt.version)
		return nil
	}

	seq, err := invocation.Tokenize(args)
	if err != nil {
		return err
	}
	rt.logger.Debug("tokenized", rt.logger.Args("units", len(seq), "names", fmt.Sprint(seq.Names())))
	if len(seq) == 0 {
		grammar.WriteMainHelp(rt.stdout, AppName)
		return nil
	}

	cmds, err := invocation.Decode(seq)
	if err != nil {
		return err
	}

	target, err := invocation.HelpTarget(cmds)
	if err != nil {
		return err
	}
	if target != nil {
		grammar.WriteSubcommandHelp(rt.stdout, AppName, target.Keyword())
		return nil
	}

	if err := invocation.ValidateCombination(cmds); err != nil {
		return err
	}

	if handled, err := rt.executor.Dispatch(ctx, cmds); handled {
		return err
	}

	cfg, err := invocation.Extract(cmds)
	if err != nil {
		return err
	}

	return rt.executor.Run(ctx, cfg, AppName+" "+strings.Join(args, " "))
}

// Close releases the audit log.
func (rt *Runtime) Close() error {
	return rt.auditLog.Close()
}

func useColors(mode string, w io.Writer) bool {
	switch strings.ToLower(mode) {
	case "always":
		return true
	case "never":
		return false
	}
	return isTerminal(w)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
