package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/frencli/frencli/internal/cmderr"
	"github.com/frencli/frencli/internal/engine"
	"github.com/frencli/frencli/internal/invocation"
	"github.com/frencli/frencli/pkg/audit"
	"github.com/frencli/frencli/pkg/cli/interactive"
	"github.com/frencli/frencli/pkg/output"
	"github.com/frencli/frencli/pkg/state"
	"github.com/frencli/frencli/pkg/templates"
)

type fakeFiles struct {
	byPattern map[string][]string
	lists     map[string][]string
	err       error
	calls     []string
}

func (f *fakeFiles) Discover(_ context.Context, pattern string, recursive bool) ([]string, error) {
	call := "discover " + pattern
	if recursive {
		call += " -r"
	}
	f.calls = append(f.calls, call)
	if f.err != nil {
		return nil, f.err
	}
	return f.byPattern[pattern], nil
}

func (f *fakeFiles) ReadPathList(_ context.Context, source string) ([]string, error) {
	f.calls = append(f.calls, "read "+source)
	if f.err != nil {
		return nil, f.err
	}
	return f.lists[source], nil
}

// fakeRenamer expands %N and %E only. "%0" renders an empty name.
type fakeRenamer struct {
	previewErr  error
	warnings    []string
	issues      []engine.Issue
	notices     []engine.Issue
	applyErrors map[string]string
	applyErr    error

	patterns  []string
	validated [][]engine.Rename
	applied   [][]engine.Rename
	overwrite []bool
}

func (r *fakeRenamer) GeneratePreview(_ context.Context, files []string, pattern string) (*engine.Preview, error) {
	r.patterns = append(r.patterns, pattern)
	if r.previewErr != nil {
		return nil, r.previewErr
	}
	p := &engine.Preview{Warnings: r.warnings}
	for _, f := range files {
		base := filepath.Base(f)
		ext := filepath.Ext(base)
		name := strings.NewReplacer(
			"%N", strings.TrimSuffix(base, ext),
			"%E", strings.TrimPrefix(ext, "."),
			"%0", "",
		).Replace(pattern)
		if strings.TrimSpace(name) == "" {
			p.HasEmptyNames = true
		}
		p.Renames = append(p.Renames, engine.Rename{
			OldPath: f,
			NewPath: filepath.Join(filepath.Dir(f), name),
			NewName: name,
		})
	}
	return p, nil
}

func (r *fakeRenamer) Validate(_ context.Context, renames []engine.Rename, overwrite bool) *engine.ValidationResult {
	r.validated = append(r.validated, renames)
	r.overwrite = append(r.overwrite, overwrite)
	result := &engine.ValidationResult{Notices: r.notices}
	bad := make(map[string]bool)
	for _, is := range r.issues {
		bad[is.Path] = true
		result.Issues = append(result.Issues, is)
	}
	for _, rn := range renames {
		if !bad[rn.OldPath] {
			result.Valid = append(result.Valid, rn)
		}
	}
	return result
}

func (r *fakeRenamer) ApplyRenames(_ context.Context, renames []engine.Rename, overwrite bool) (*engine.Execution, error) {
	r.applied = append(r.applied, renames)
	r.overwrite = append(r.overwrite, overwrite)
	exec := &engine.Execution{}
	for _, rn := range renames {
		if msg, ok := r.applyErrors[rn.OldPath]; ok {
			exec.Errors = append(exec.Errors, engine.Failure{Path: rn.OldPath, Error: msg})
			continue
		}
		exec.Successful = append(exec.Successful, rn)
	}
	return exec, r.applyErr
}

type fakeHistory struct {
	batch     *state.Batch
	loadErr   error
	saveErr   error
	safe      []state.Action
	conflicts []string
	undoErr   error

	saved        []state.Action
	savedCommand string
	undone       []state.Action
	cleared      bool
}

func (h *fakeHistory) Save(_ context.Context, actions []state.Action, command string) error {
	if h.saveErr != nil {
		return h.saveErr
	}
	h.saved = actions
	h.savedCommand = command
	return nil
}

func (h *fakeHistory) Load(context.Context) (*state.Batch, error) {
	return h.batch, h.loadErr
}

func (h *fakeHistory) Clear(context.Context) error {
	h.cleared = true
	return nil
}

func (h *fakeHistory) CheckUndo(context.Context, *state.Batch) ([]state.Action, []string) {
	return h.safe, h.conflicts
}

func (h *fakeHistory) ApplyUndo(_ context.Context, actions []state.Action) (int, error) {
	if h.undoErr != nil {
		return 0, h.undoErr
	}
	h.undone = actions
	return len(actions), nil
}

type fakeAudit struct {
	entries   []*audit.Entry
	appendErr error
	readErr   error
}

func (a *fakeAudit) Append(entry *audit.Entry) error {
	if a.appendErr != nil {
		return a.appendErr
	}
	a.entries = append(a.entries, entry)
	return nil
}

func (a *fakeAudit) Read() ([]*audit.Entry, error) {
	return a.entries, a.readErr
}

type fakeTemplates struct {
	list []templates.Template
}

func (f *fakeTemplates) Get(name string) (string, bool) {
	for _, t := range f.list {
		if t.Name == name {
			return t.Pattern, true
		}
	}
	return "", false
}

func (f *fakeTemplates) List() []templates.Template {
	return f.list
}

// fakePrompter answers from queues. An empty confirm queue declines.
type fakePrompter struct {
	terminal bool
	confirms []bool
	texts    []string
	selects  []string
	edit     func(items []interactive.EditItem) error

	asked    []string
	defaults []string
	options  [][]string
}

func (p *fakePrompter) IsTerminal() bool { return p.terminal }

func (p *fakePrompter) Confirm(opts *interactive.ConfirmPromptOptions) (bool, error) {
	p.asked = append(p.asked, opts.Message)
	if len(p.confirms) == 0 {
		return false, nil
	}
	answer := p.confirms[0]
	p.confirms = p.confirms[1:]
	return answer, nil
}

func (p *fakePrompter) Text(opts *interactive.TextPromptOptions) (string, error) {
	p.asked = append(p.asked, opts.Message)
	p.defaults = append(p.defaults, opts.Default)
	if len(p.texts) == 0 {
		return "", errors.New("no answer")
	}
	answer := p.texts[0]
	p.texts = p.texts[1:]
	return answer, nil
}

func (p *fakePrompter) Select(opts *interactive.SelectPromptOptions) (string, error) {
	p.asked = append(p.asked, opts.Message)
	p.options = append(p.options, opts.Options)
	if len(p.selects) == 0 {
		return opts.Default, nil
	}
	answer := p.selects[0]
	p.selects = p.selects[1:]
	return answer, nil
}

// fakeRecent keeps lists in memory.
type fakeRecent struct {
	lists  map[string][]string
	topErr error
}

func (r *fakeRecent) Add(list, value string) error {
	if r.lists == nil {
		r.lists = map[string][]string{}
	}
	r.lists[list] = append([]string{value}, r.lists[list]...)
	return nil
}

func (r *fakeRecent) Top(list string, n int) ([]string, error) {
	if r.topErr != nil {
		return nil, r.topErr
	}
	values := r.lists[list]
	if n > 0 && n < len(values) {
		values = values[:n]
	}
	return values, nil
}

func (p *fakePrompter) EditRenames(items []interactive.EditItem) error {
	if p.edit == nil {
		return nil
	}
	return p.edit(items)
}

type harness struct {
	files     *fakeFiles
	renamer   *fakeRenamer
	history   *fakeHistory
	audit     *fakeAudit
	templates *fakeTemplates
	prompter  *fakePrompter
	stdout    *bytes.Buffer
	stderr    *bytes.Buffer

	recent       *fakeRecent
	applySuccess string
	auditEnabled bool
}

func newHarness() *harness {
	return &harness{
		files: &fakeFiles{
			byPattern: map[string][]string{
				"*.txt": {"docs/a.txt", "docs/b.txt"},
				"a*":    {"docs/a.txt"},
				"*.md":  {"docs/c.md"},
			},
			lists: map[string][]string{},
		},
		renamer: &fakeRenamer{},
		history: &fakeHistory{},
		audit:   &fakeAudit{},
		templates: &fakeTemplates{list: []templates.Template{
			{Name: "backup", Pattern: "%N_bak.%E", Source: templates.SourceBuiltin},
			{Name: "lowercase", Pattern: "%L%N.%E", Source: templates.SourceBuiltin},
		}},
		prompter:     &fakePrompter{},
		stdout:       &bytes.Buffer{},
		stderr:       &bytes.Buffer{},
		auditEnabled: true,
	}
}

func (h *harness) executor(t *testing.T) *Executor {
	t.Helper()

	deps := &Deps{
		Files:        h.files,
		Renamer:      h.renamer,
		History:      h.history,
		Templates:    h.templates,
		Prompter:     h.prompter,
		Audit:        h.audit,
		AuditEnabled: h.auditEnabled,
		ApplySuccess: output.MustParseMessage(h.applySuccess),
		Stdout:       h.stdout,
		Stderr:       h.stderr,
		Output:       output.NewPrinter(nil),
		Now:          func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
	if h.recent != nil {
		deps.Recent = h.recent
	}

	e, err := New(deps)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

func (h *harness) run(t *testing.T, cfg *invocation.Config) error {
	t.Helper()
	return h.executor(t).Run(context.Background(), cfg, "frencli test")
}

func listTxt() *invocation.ListStage {
	return &invocation.ListStage{Patterns: []string{"*.txt"}}
}

func TestRun_ListOnly(t *testing.T) {
	tests := []struct {
		name  string
		stage *invocation.ListStage
		want  []string
	}{
		{
			name:  "base names",
			stage: listTxt(),
			want:  []string{"Found 2 matching file(s):", "  a.txt", "  b.txt"},
		},
		{
			name:  "full paths",
			stage: &invocation.ListStage{Patterns: []string{"*.txt"}, FullPath: true},
			want:  []string{"  docs/a.txt", "  docs/b.txt"},
		},
		{
			name:  "deduplicated across patterns",
			stage: &invocation.ListStage{Patterns: []string{"*.txt", "a*", "*.md"}},
			want:  []string{"Found 3 matching file(s):", "  c.md"},
		},
		{
			name:  "exclude",
			stage: &invocation.ListStage{Patterns: []string{"*.txt"}, Exclude: []string{"b.txt"}},
			want:  []string{"Found 1 matching file(s):", "  a.txt"},
		},
		{
			name:  "nothing found",
			stage: &invocation.ListStage{Patterns: []string{"*.none"}},
			want:  []string{"No matching files found."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			if err := h.run(t, &invocation.Config{List: tt.stage}); err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			out := h.stdout.String()
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
			if len(h.renamer.patterns) != 0 {
				t.Error("list alone must not generate a preview")
			}
		})
	}
}

func TestRun_ListJSON(t *testing.T) {
	h := newHarness()
	err := h.run(t, &invocation.Config{List: &invocation.ListStage{Patterns: []string{"*.txt"}, JSON: true}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var names []string
	if err := json.Unmarshal(h.stdout.Bytes(), &names); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, h.stdout.String())
	}
	if strings.Join(names, ",") != "a.txt,b.txt" {
		t.Errorf("names = %v", names)
	}
}

func TestRun_FilesFrom(t *testing.T) {
	h := newHarness()
	h.files.lists["-"] = []string{"x/one.txt", "x/two.txt", "x/one.txt"}

	err := h.run(t, &invocation.Config{List: &invocation.ListStage{FilesFrom: "-"}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(h.files.calls) != 1 || h.files.calls[0] != "read -" {
		t.Errorf("calls = %v", h.files.calls)
	}
	if !strings.Contains(h.stdout.String(), "Found 2 matching file(s):") {
		t.Errorf("unexpected output:\n%s", h.stdout.String())
	}
}

func TestRun_ListFailure(t *testing.T) {
	h := newHarness()
	h.files.err = errors.New("permission denied")

	err := h.run(t, &invocation.Config{List: listTxt()})
	if !errors.Is(err, cmderr.ErrCollaborator) {
		t.Fatalf("expected CollaboratorError, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "list: ") || !strings.Contains(err.Error(), "permission denied") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestRun_Dependencies(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *invocation.Config
		wantMsg string
	}{
		{
			name:    "rename without list",
			cfg:     &invocation.Config{Rename: &invocation.RenameStage{Pattern: "%N"}},
			wantMsg: msgNoFiles,
		},
		{
			name:    "template without list",
			cfg:     &invocation.Config{Template: &invocation.TemplateStage{Use: "backup"}},
			wantMsg: msgNoFiles,
		},
		{
			name: "rename with empty file set",
			cfg: &invocation.Config{
				List:   &invocation.ListStage{Patterns: []string{"*.none"}},
				Rename: &invocation.RenameStage{Pattern: "%N"},
			},
			wantMsg: msgNoFiles,
		},
		{
			name:    "validate without preview",
			cfg:     &invocation.Config{List: listTxt(), Validate: &invocation.ValidateStage{}},
			wantMsg: msgNoPreview,
		},
		{
			name:    "apply without preview",
			cfg:     &invocation.Config{List: listTxt(), Apply: &invocation.ApplyStage{Yes: true}},
			wantMsg: msgNoPreview,
		},
		{
			name:    "apply alone",
			cfg:     &invocation.Config{Apply: &invocation.ApplyStage{Yes: true}},
			wantMsg: msgNoPreview,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			err := h.run(t, tt.cfg)
			if !errors.Is(err, cmderr.ErrDependency) {
				t.Fatalf("expected PipelineDependencyError, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantMsg)
			}
			if len(h.renamer.applied) != 0 {
				t.Error("nothing may be applied")
			}
		})
	}
}

func TestRun_Preview(t *testing.T) {
	h := newHarness()
	h.renamer.warnings = []string{"Unknown token: %Z"}

	err := h.run(t, &invocation.Config{List: listTxt(), Rename: &invocation.RenameStage{Pattern: "%N_bak.%E"}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	out := h.stdout.String()
	for _, want := range []string{"Old Name", "New Name", "a.txt", "a_bak.txt", "b_bak.txt",
		"WARNINGS:", "  - Unknown token: %Z", "Preview mode. Use 'apply' subcommand to perform the renaming."} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Found 2") {
		t.Error("the file list is not shown when a later stage consumes it")
	}
}

func TestRun_PreviewJSON(t *testing.T) {
	h := newHarness()
	err := h.run(t, &invocation.Config{List: listTxt(), Rename: &invocation.RenameStage{Pattern: "%N.bak", JSON: true}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var preview engine.Preview
	if err := json.Unmarshal(h.stdout.Bytes(), &preview); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, h.stdout.String())
	}
	if len(preview.Renames) != 2 || preview.Renames[0].NewName != "a.bak" {
		t.Errorf("preview = %+v", preview)
	}
}

func TestRun_PreviewJSONWithApply(t *testing.T) {
	tests := []struct {
		name    string
		apply   *invocation.ApplyStage
		wantErr bool
	}{
		{name: "apply would prompt", apply: &invocation.ApplyStage{}, wantErr: true},
		{name: "apply with yes prints text", apply: &invocation.ApplyStage{Yes: true}, wantErr: true},
		{name: "apply json", apply: &invocation.ApplyStage{JSON: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			err := h.run(t, &invocation.Config{
				List:   listTxt(),
				Rename: &invocation.RenameStage{Pattern: "%N.bak", JSON: true},
				Apply:  tt.apply,
			})

			if tt.wantErr {
				if !errors.Is(err, cmderr.ErrConfig) {
					t.Fatalf("expected ConfigError, got %v", err)
				}
				if h.stdout.Len() != 0 || len(h.prompter.asked) != 0 || len(h.renamer.applied) != 0 {
					t.Errorf("nothing may run: stdout=%q asked=%v applied=%v", h.stdout.String(), h.prompter.asked, h.renamer.applied)
				}
				return
			}

			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if len(h.prompter.asked) != 0 {
				t.Errorf("JSON output must not prompt, asked %v", h.prompter.asked)
			}
			dec := json.NewDecoder(h.stdout)
			var preview engine.Preview
			var result applyResult
			if err := dec.Decode(&preview); err != nil {
				t.Fatalf("first document is not a preview: %v", err)
			}
			if err := dec.Decode(&result); err != nil {
				t.Fatalf("second document is not an apply result: %v", err)
			}
			if dec.More() {
				t.Error("stdout holds more than the two JSON documents")
			}
			if len(result.Successful) != 2 {
				t.Errorf("result = %+v", result)
			}
		})
	}
}

func TestRun_EmptyNamesAbort(t *testing.T) {
	h := newHarness()
	err := h.run(t, &invocation.Config{
		List:   listTxt(),
		Rename: &invocation.RenameStage{Pattern: "%0"},
		Apply:  &invocation.ApplyStage{Yes: true},
	})
	if !errors.Is(err, cmderr.ErrCollaborator) {
		t.Fatalf("expected CollaboratorError, got %v", err)
	}
	if !strings.Contains(h.stderr.String(), "One or more files would have an empty name. Operation aborted.") {
		t.Errorf("stderr = %q", h.stderr.String())
	}
	if !strings.Contains(h.stdout.String(), emptyNameMarker) {
		t.Errorf("preview should mark empty names:\n%s", h.stdout.String())
	}
	if len(h.renamer.applied) != 0 {
		t.Error("nothing may be applied")
	}
}

func TestRun_PreviewFailure(t *testing.T) {
	h := newHarness()
	h.renamer.previewErr = errors.New("bad range")

	err := h.run(t, &invocation.Config{List: listTxt(), Rename: &invocation.RenameStage{Pattern: "%N(9-"}})
	if !errors.Is(err, cmderr.ErrCollaborator) || !strings.HasPrefix(err.Error(), "rename: ") {
		t.Fatalf("expected rename CollaboratorError, got %v", err)
	}
}

func TestRun_Template(t *testing.T) {
	tests := []struct {
		name        string
		use         string
		wantPattern string
		wantErr     string
	}{
		{name: "by name", use: "lowercase", wantPattern: "%L%N.%E"},
		{name: "by index", use: "1", wantPattern: "%N_bak.%E"},
		{name: "index zero", use: "0", wantErr: "Template index 0 out of range (1-2)"},
		{name: "index too large", use: "3", wantErr: "Template index 3 out of range (1-2)"},
		{name: "unknown name", use: "nope", wantErr: "Unknown template 'nope'. Use 'template --list' to see all available templates."},
		{name: "suggestion", use: "lowercse", wantErr: "Did you mean: lowercase?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			err := h.run(t, &invocation.Config{List: listTxt(), Template: &invocation.TemplateStage{Use: tt.use}})

			if tt.wantErr != "" {
				if !errors.Is(err, cmderr.ErrCollaborator) {
					t.Fatalf("expected CollaboratorError, got %v", err)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error = %q, want %q", err.Error(), tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if len(h.renamer.patterns) != 1 || h.renamer.patterns[0] != tt.wantPattern {
				t.Errorf("patterns = %v, want %s", h.renamer.patterns, tt.wantPattern)
			}
		})
	}
}

func TestRun_ApplyYes(t *testing.T) {
	h := newHarness()
	err := h.run(t, &invocation.Config{
		List:     listTxt(),
		Template: &invocation.TemplateStage{Use: "backup"},
		Apply:    &invocation.ApplyStage{Yes: true, Overwrite: true},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(h.prompter.asked) != 0 {
		t.Errorf("--yes must not prompt, asked %v", h.prompter.asked)
	}
	if len(h.renamer.applied) != 1 || len(h.renamer.applied[0]) != 2 {
		t.Fatalf("applied = %v", h.renamer.applied)
	}
	if !h.renamer.overwrite[len(h.renamer.overwrite)-1] {
		t.Error("overwrite flag not passed")
	}

	if len(h.history.saved) != 2 || h.history.saved[0].To != filepath.Join("docs", "a_bak.txt") {
		t.Errorf("history = %+v", h.history.saved)
	}
	if h.history.savedCommand != "frencli test" {
		t.Errorf("history command = %q", h.history.savedCommand)
	}

	if len(h.audit.entries) != 1 {
		t.Fatalf("audit entries = %d", len(h.audit.entries))
	}
	entry := h.audit.entries[0]
	if entry.Pattern != "%N_bak.%E" || entry.Command != "frencli test" || len(entry.Successful) != 2 {
		t.Errorf("audit entry = %+v", entry)
	}

	out := h.stdout.String()
	if !strings.Contains(out, "Successfully processed 2 file(s)") {
		t.Errorf("missing summary:\n%s", out)
	}
	if strings.Contains(out, "Preview mode.") {
		t.Error("preview mode hint is not shown when applying")
	}
}

func TestRun_ApplyConfirm(t *testing.T) {
	tests := []struct {
		name        string
		answer      []bool
		wantApplied bool
		wantOut     string
	}{
		{name: "accepted", answer: []bool{true}, wantApplied: true, wantOut: "Successfully processed 2 file(s)"},
		{name: "declined", answer: []bool{false}, wantApplied: false, wantOut: "Renaming cancelled."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			h.prompter.confirms = tt.answer

			err := h.run(t, &invocation.Config{
				List:   listTxt(),
				Rename: &invocation.RenameStage{Pattern: "%N.old"},
				Apply:  &invocation.ApplyStage{},
			})
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if len(h.prompter.asked) != 1 || h.prompter.asked[0] != "Apply 2 rename(s)?" {
				t.Errorf("asked = %v", h.prompter.asked)
			}
			if (len(h.renamer.applied) == 1) != tt.wantApplied {
				t.Errorf("applied = %v, want %v", h.renamer.applied, tt.wantApplied)
			}
			if !strings.Contains(h.stdout.String(), tt.wantOut) {
				t.Errorf("output missing %q:\n%s", tt.wantOut, h.stdout.String())
			}
		})
	}
}

func TestRun_ApplyJSON(t *testing.T) {
	h := newHarness()
	h.renamer.applyErrors = map[string]string{"docs/b.txt": "permission denied"}

	err := h.run(t, &invocation.Config{
		List:   listTxt(),
		Rename: &invocation.RenameStage{Pattern: "%N.old"},
		Apply:  &invocation.ApplyStage{JSON: true},
	})
	if !errors.Is(err, cmderr.ErrCollaborator) {
		t.Fatalf("per-file errors must fail the run, got %v", err)
	}
	if len(h.prompter.asked) != 0 {
		t.Error("--json never prompts")
	}

	// the preview table precedes the JSON document
	out := h.stdout.String()
	doc := out[strings.Index(out, "{\n"):]
	var result struct {
		Successful []engine.Rename  `json:"successful"`
		Skipped    []engine.Skip    `json:"skipped"`
		Errors     []engine.Failure `json:"errors"`
	}
	if err := json.Unmarshal([]byte(doc), &result); err != nil {
		t.Fatalf("apply result is not JSON: %v\n%s", err, doc)
	}
	if len(result.Successful) != 1 || len(result.Errors) != 1 || result.Skipped == nil {
		t.Errorf("result = %+v", result)
	}
	if !strings.Contains(h.stderr.String(), "Error renaming docs/b.txt: permission denied") {
		t.Errorf("stderr = %q", h.stderr.String())
	}
}

func TestRun_ApplyInteractiveWithJSON(t *testing.T) {
	h := newHarness()
	err := h.run(t, &invocation.Config{
		List:   listTxt(),
		Rename: &invocation.RenameStage{Pattern: "%N.old"},
		Apply:  &invocation.ApplyStage{JSON: true, Interactive: true},
	})
	if !errors.Is(err, cmderr.ErrConfig) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestRun_ApplyErrorsStillRecorded(t *testing.T) {
	h := newHarness()
	h.renamer.applyErrors = map[string]string{"docs/a.txt": "busy"}

	err := h.run(t, &invocation.Config{
		List:   listTxt(),
		Rename: &invocation.RenameStage{Pattern: "%N.old"},
		Apply:  &invocation.ApplyStage{Yes: true},
	})
	if err == nil || !strings.Contains(err.Error(), "apply: 1 file(s) could not be renamed") {
		t.Fatalf("error = %v", err)
	}
	if len(h.history.saved) != 1 {
		t.Errorf("successful renames must be saved for undo, got %+v", h.history.saved)
	}
	if len(h.audit.entries) != 1 || h.audit.entries[0].Errors[0].Reason != "busy" {
		t.Errorf("audit = %+v", h.audit.entries)
	}
	if !strings.Contains(h.stderr.String(), "Error renaming docs/a.txt: busy") {
		t.Errorf("stderr = %q", h.stderr.String())
	}
}

func TestRun_ApplyWarnings(t *testing.T) {
	h := newHarness()
	h.history.saveErr = errors.New("read-only")
	h.audit.appendErr = errors.New("disk full")

	err := h.run(t, &invocation.Config{
		List:   listTxt(),
		Rename: &invocation.RenameStage{Pattern: "%N.old"},
		Apply:  &invocation.ApplyStage{Yes: true},
	})
	if err != nil {
		t.Fatalf("history and audit failures are warnings, got %v", err)
	}
	for _, want := range []string{
		"Could not save rename history: read-only",
		"Could not write audit log: disk full",
	} {
		if !strings.Contains(h.stderr.String(), want) {
			t.Errorf("stderr missing %q: %q", want, h.stderr.String())
		}
	}
}

func TestRun_AuditSuppressed(t *testing.T) {
	tests := []struct {
		name         string
		noAudit      bool
		auditEnabled bool
		wantEntries  int
	}{
		{name: "enabled", auditEnabled: true, wantEntries: 1},
		{name: "no-audit flag", noAudit: true, auditEnabled: true, wantEntries: 0},
		{name: "disabled in config", auditEnabled: false, wantEntries: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			h.auditEnabled = tt.auditEnabled

			err := h.run(t, &invocation.Config{
				List:   listTxt(),
				Rename: &invocation.RenameStage{Pattern: "%N.old"},
				Apply:  &invocation.ApplyStage{Yes: true, NoAudit: tt.noAudit},
			})
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if len(h.audit.entries) != tt.wantEntries {
				t.Errorf("audit entries = %d, want %d", len(h.audit.entries), tt.wantEntries)
			}
		})
	}
}

func TestRun_ApplySuccessTemplate(t *testing.T) {
	h := newHarness()
	h.applySuccess = `Renamed {successful} of {total}{{ errors > 0 ? " with errors" : "" }}`

	err := h.run(t, &invocation.Config{
		List:   listTxt(),
		Rename: &invocation.RenameStage{Pattern: "%N.old"},
		Apply:  &invocation.ApplyStage{Yes: true},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(h.stdout.String(), "Renamed 2 of 2\n") {
		t.Errorf("output:\n%s", h.stdout.String())
	}
}

func TestPreviewSlot(t *testing.T) {
	var slot previewSlot

	if _, err := slot.take("apply"); !errors.Is(err, cmderr.ErrDependency) {
		t.Errorf("take on empty slot: %v", err)
	}

	slot.put(&engine.Preview{})
	if _, err := slot.peek("validate"); err != nil {
		t.Errorf("peek: %v", err)
	}
	if _, err := slot.take("apply"); err != nil {
		t.Errorf("first take: %v", err)
	}
	if _, err := slot.take("apply"); !errors.Is(err, cmderr.ErrDependency) {
		t.Errorf("second take must fail, got %v", err)
	}
	if _, err := slot.peek("validate"); !errors.Is(err, cmderr.ErrDependency) {
		t.Errorf("peek after take must fail, got %v", err)
	}
}

func TestRun_NilConfig(t *testing.T) {
	h := newHarness()
	if err := h.run(t, nil); !errors.Is(err, cmderr.ErrConfig) {
		t.Errorf("expected ConfigError, got %v", err)
	}
}
