package executor

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/frencli/frencli/internal/cmderr"
	"github.com/frencli/frencli/internal/invocation"
	"github.com/frencli/frencli/pkg/cli/interactive"
)

func interactiveApply() *invocation.Config {
	return &invocation.Config{
		List:   listTxt(),
		Rename: &invocation.RenameStage{Pattern: "%N.old"},
		Apply:  &invocation.ApplyStage{Interactive: true},
	}
}

func TestApplyInteractive_Edit(t *testing.T) {
	h := newHarness()
	h.prompter.edit = func(items []interactive.EditItem) error {
		if items[0].OldName != "a.txt" || items[0].NewName != "a.old" {
			t.Errorf("unexpected item %+v", items[0])
		}
		items[0].NewName = "first.txt"
		items[1].NewName = items[1].OldName
		return nil
	}

	if err := h.run(t, interactiveApply()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(h.prompter.asked) != 0 {
		t.Errorf("interactive editing replaces the confirmation, asked %v", h.prompter.asked)
	}

	applied := h.renamer.applied[0]
	if applied[0].NewName != "first.txt" || applied[0].NewPath != filepath.Join("docs", "first.txt") {
		t.Errorf("edited rename = %+v", applied[0])
	}
	if applied[1].NewName != "b.txt" {
		t.Errorf("skipped rename = %+v", applied[1])
	}
}

func TestApplyInteractive_Cancel(t *testing.T) {
	h := newHarness()
	h.prompter.edit = func([]interactive.EditItem) error { return interactive.ErrCancelled }

	if err := h.run(t, interactiveApply()); err != nil {
		t.Fatalf("cancelling is not an error, got %v", err)
	}
	if len(h.renamer.applied) != 0 {
		t.Error("nothing may be applied after cancel")
	}
	if !strings.Contains(h.stdout.String(), "Interactive editing cancelled.") {
		t.Errorf("output:\n%s", h.stdout.String())
	}
}

func TestApplyInteractive_EmptyName(t *testing.T) {
	h := newHarness()
	h.prompter.edit = func(items []interactive.EditItem) error {
		items[1].NewName = "  "
		return nil
	}

	err := h.run(t, interactiveApply())
	if !errors.Is(err, cmderr.ErrCollaborator) || !strings.Contains(err.Error(), "empty name") {
		t.Fatalf("expected empty-name failure, got %v", err)
	}
	if len(h.renamer.applied) != 0 {
		t.Error("nothing may be applied")
	}
}

func TestApplyInteractive_EditorFailure(t *testing.T) {
	h := newHarness()
	h.prompter.edit = func([]interactive.EditItem) error { return errors.New("stdin closed") }

	err := h.run(t, interactiveApply())
	if !errors.Is(err, cmderr.ErrCollaborator) || !strings.HasPrefix(err.Error(), "apply: ") {
		t.Fatalf("expected apply CollaboratorError, got %v", err)
	}
}

func TestConfirmUndoMessage(t *testing.T) {
	h := newHarness()
	h.prompter.confirms = []bool{true}

	ok, err := h.executor(t).confirmUndo(3)
	if err != nil || !ok {
		t.Fatalf("confirmUndo() = %v, %v", ok, err)
	}
	if h.prompter.asked[0] != "Proceed with undoing 3 safe renames?" {
		t.Errorf("asked %q", h.prompter.asked[0])
	}
}
