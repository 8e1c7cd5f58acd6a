package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// Recent list names.
const (
	// RecentRenamePatterns holds patterns of applied renames.
	RecentRenamePatterns = "rename_patterns"
	// RecentSearchPatterns holds the list patterns of applied renames.
	RecentSearchPatterns = "search_patterns"
)

const (
	// DefaultMaxRecentEntries is the default maximum recent entries per list.
	DefaultMaxRecentEntries = 10
)

// RecentItem is one remembered value.
type RecentItem struct {
	Value    string    `yaml:"value"`
	LastUsed time.Time `yaml:"last_used"`
	UseCount int       `yaml:"use_count"`
}

type recentFile struct {
	Lists map[string][]*RecentItem `yaml:"lists"`
}

// Recent remembers recently used values, most recent first. It is shared by
// every working directory and backs the suggestions of interactive mode.
type Recent struct {
	path string
	max  int
	now  func() time.Time
	mu   sync.Mutex
}

// RecentConfig configures a Recent store.
type RecentConfig struct {
	// Path of the YAML file. Defaults to $XDG_STATE_HOME/frencli/recent.yaml.
	Path string

	// MaxPerList caps every list. Defaults to DefaultMaxRecentEntries.
	MaxPerList int

	Now func() time.Time
}

// NewRecent creates a recent values store.
func NewRecent(cfg *RecentConfig) *Recent {
	if cfg == nil {
		cfg = &RecentConfig{}
	}
	path := cfg.Path
	if path == "" {
		path = filepath.Join(xdg.StateHome, appName, "recent.yaml")
	}
	maxPerList := cfg.MaxPerList
	if maxPerList <= 0 {
		maxPerList = DefaultMaxRecentEntries
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Recent{path: path, max: maxPerList, now: now}
}

// Path returns the store file path.
func (r *Recent) Path() string {
	return r.path
}

// Add moves value to the front of list, counting the use. Blank values are
// ignored.
func (r *Recent) Add(list, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := r.load()
	if err != nil {
		return err
	}

	item := &RecentItem{Value: value}
	entries := f.Lists[list]
	for i, existing := range entries {
		if existing.Value == value {
			item = existing
			entries = append(entries[:i], entries[i+1:]...)
			break
		}
	}
	item.LastUsed = r.now()
	item.UseCount++

	entries = append([]*RecentItem{item}, entries...)
	if len(entries) > r.max {
		entries = entries[:r.max]
	}
	f.Lists[list] = entries

	return r.save(f)
}

// Top returns up to n values of list, most recent first. n <= 0 returns all.
func (r *Recent) Top(list string, n int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := r.load()
	if err != nil {
		return nil, err
	}

	entries := f.Lists[list]
	if n <= 0 || n > len(entries) {
		n = len(entries)
	}
	values := make([]string, n)
	for i := 0; i < n; i++ {
		values[i] = entries[i].Value
	}
	return values, nil
}

// Items returns a copy of list with metadata.
func (r *Recent) Items(list string) ([]RecentItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := r.load()
	if err != nil {
		return nil, err
	}
	items := make([]RecentItem, len(f.Lists[list]))
	for i, item := range f.Lists[list] {
		items[i] = *item
	}
	return items, nil
}

// Clear empties list.
func (r *Recent) Clear(list string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := r.load()
	if err != nil {
		return err
	}
	if _, ok := f.Lists[list]; !ok {
		return nil
	}
	delete(f.Lists, list)
	return r.save(f)
}

func (r *Recent) load() (*recentFile, error) {
	f := &recentFile{}
	data, err := os.ReadFile(r.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read recent file: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, f); err != nil {
			return nil, fmt.Errorf("failed to parse recent file: %w", err)
		}
	}
	if f.Lists == nil {
		f.Lists = make(map[string][]*RecentItem)
	}
	return f, nil
}

func (r *Recent) save(f *recentFile) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal recent values: %w", err)
	}

	tmpPath := r.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write recent file: %w", err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save recent file: %w", err)
	}
	return nil
}
