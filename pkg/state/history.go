// Package state persists what frencli remembers between runs: the last
// rename batch of each working directory, for undo, and recently used
// patterns.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/google/uuid"
)

// Action is one rename recorded for undo. Paths are absolute.
type Action struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Batch is the set of renames performed by one apply.
type Batch struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Directory string    `json:"directory"`
	Command   string    `json:"command,omitempty"`
	Actions   []Action  `json:"actions"`
	Version   string    `json:"version,omitempty"`
}

// History stores the last rename batch of one working directory.
type History struct {
	workingDir  string
	historyPath string
	now         func() time.Time
	mu          sync.RWMutex
}

// HistoryConfig configures a History.
type HistoryConfig struct {
	// Dir holds the history files. Defaults to $XDG_STATE_HOME/frencli/history.
	Dir string

	// WorkingDir selects whose history is used. Defaults to the current
	// directory.
	WorkingDir string

	Now func() time.Time
}

const (
	// HistoryVersion is the current history file format version.
	HistoryVersion = "1.0"

	appName = "frencli"
)

// NewHistory creates a history store for cfg.WorkingDir.
func NewHistory(cfg *HistoryConfig) (*History, error) {
	if cfg == nil {
		cfg = &HistoryConfig{}
	}

	workingDir := cfg.WorkingDir
	if workingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		workingDir = wd
	}
	workingDir, err := filepath.Abs(workingDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}

	dir := cfg.Dir
	if dir == "" {
		dir = filepath.Join(xdg.StateHome, appName, "history")
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &History{
		workingDir:  workingDir,
		historyPath: filepath.Join(dir, historyFileName(workingDir)),
		now:         now,
	}, nil
}

// historyFileName derives a stable file name from the directory path.
func historyFileName(workingDir string) string {
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(workingDir)))
	return id.String() + ".json"
}

// Path returns the history file path.
func (h *History) Path() string {
	return h.historyPath
}

// Save replaces the stored batch with actions. Relative paths are resolved
// against the working directory.
func (h *History) Save(_ context.Context, actions []Action, command string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	batch := &Batch{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Timestamp: h.now(),
		Directory: h.workingDir,
		Command:   command,
		Actions:   make([]Action, 0, len(actions)),
		Version:   HistoryVersion,
	}
	for _, a := range actions {
		batch.Actions = append(batch.Actions, Action{From: h.abs(a.From), To: h.abs(a.To)})
	}

	if err := os.MkdirAll(filepath.Dir(h.historyPath), 0700); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	data, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	// Write to file with atomic rename
	tmpPath := h.historyPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	if err := os.Rename(tmpPath, h.historyPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save history file: %w", err)
	}

	return nil
}

// Load returns the stored batch, or nil when there is none.
func (h *History) Load(_ context.Context) (*Batch, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := os.ReadFile(h.historyPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	var batch Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("failed to parse history file: %w", err)
	}
	if len(batch.Actions) == 0 {
		return nil, nil
	}
	return &batch, nil
}

// Clear removes the stored batch.
func (h *History) Clear(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := os.Remove(h.historyPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// CheckUndo splits the batch into actions that can be reversed safely and a
// description of each conflict. An action conflicts when its renamed file is
// gone or its original name has been taken by another file.
func (h *History) CheckUndo(_ context.Context, batch *Batch) ([]Action, []string) {
	if batch == nil {
		return nil, nil
	}

	renamedTo := make(map[string]bool, len(batch.Actions))
	for _, a := range batch.Actions {
		renamedTo[a.To] = true
	}

	var (
		safe      []Action
		conflicts []string
	)
	for _, a := range batch.Actions {
		if _, err := os.Lstat(a.To); err != nil {
			conflicts = append(conflicts, fmt.Sprintf("%s no longer exists", a.To))
			continue
		}
		if _, err := os.Lstat(a.From); err == nil && !renamedTo[a.From] {
			conflicts = append(conflicts, fmt.Sprintf("%s already exists and would be overwritten", a.From))
			continue
		}
		safe = append(safe, a)
	}
	return safe, conflicts
}

// ApplyUndo reverses actions in reverse order and returns how many were
// reversed. It stops at the first failure.
func (h *History) ApplyUndo(ctx context.Context, actions []Action) (int, error) {
	count := 0
	for i := len(actions) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		a := actions[i]
		if err := os.Rename(a.To, a.From); err != nil {
			return count, fmt.Errorf("failed to restore %s: %w", a.From, err)
		}
		count++
	}
	return count, nil
}

func (h *History) abs(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(h.workingDir, p)
}
