package executor

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/frencli/frencli/internal/engine"
	"github.com/frencli/frencli/pkg/cli/interactive"
)

// confirm asks message with a "no" default. Failing to read an answer
// counts as a decline.
func (e *Executor) confirm(message string) (bool, error) {
	ok, err := e.prompter.Confirm(&interactive.ConfirmPromptOptions{Message: message})
	if err != nil {
		return false, fmt.Errorf("confirmation failed: %w", err)
	}
	return ok, nil
}

// confirmApply asks before renaming n files.
func (e *Executor) confirmApply(n int) (bool, error) {
	return e.confirm(fmt.Sprintf("Apply %d rename(s)?", n))
}

// confirmUndo asks before a partial undo of n safe renames.
func (e *Executor) confirmUndo(n int) (bool, error) {
	return e.confirm(fmt.Sprintf("Proceed with undoing %d safe renames?", n))
}

// editRenames lets the user change each proposed name. It reports false when
// the user quit the editor.
func (e *Executor) editRenames(renames []engine.Rename) ([]engine.Rename, bool, error) {
	items := make([]interactive.EditItem, len(renames))
	for i, r := range renames {
		items[i] = interactive.EditItem{OldName: filepath.Base(r.OldPath), NewName: r.NewName}
	}

	if err := e.prompter.EditRenames(items); err != nil {
		if errors.Is(err, interactive.ErrCancelled) {
			return nil, false, nil
		}
		return nil, false, err
	}

	edited := make([]engine.Rename, len(renames))
	for i, r := range renames {
		if items[i].NewName != r.NewName {
			r = withName(r, items[i].NewName)
		}
		edited[i] = r
	}
	return edited, true, nil
}
