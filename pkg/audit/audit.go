// Package audit records every applied rename batch in an append-only log.
//
// Entries are stored as JSON lines. The file is rotated by lumberjack once it
// grows past the configured size; Read returns entries from the rotated
// backups followed by the live file, oldest first.
//
// # Location
//
// The default log lives at $XDG_STATE_HOME/frencli/audit.log.
package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rename is one successful rename of an entry.
type Rename struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Note is a path with a reason, used for skips and errors.
type Note struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Entry is one audit record.
type Entry struct {
	ID               string    `json:"id"`
	Timestamp        time.Time `json:"timestamp"`
	User             string    `json:"user,omitempty"`
	WorkingDirectory string    `json:"working_directory"`
	Command          string    `json:"command"`
	Pattern          string    `json:"pattern,omitempty"`
	SuccessfulCount  int       `json:"successful_count"`
	SkippedCount     int       `json:"skipped_count"`
	ErrorCount       int       `json:"error_count"`
	Successful       []Rename  `json:"successful"`
	Skipped          []Note    `json:"skipped"`
	Errors           []Note    `json:"errors"`
}

// Age renders the entry timestamp relative to now ("3 hours ago").
func (e *Entry) Age(now time.Time) string {
	return humanize.RelTime(e.Timestamp, now, "ago", "from now")
}

// Config configures a Log.
type Config struct {
	// Path of the live log file. Defaults to $XDG_STATE_HOME/frencli/audit.log.
	Path string

	// MaxSizeMB rotates the file once it reaches this size. Defaults to 10.
	MaxSizeMB int

	// MaxBackups is the number of rotated files kept. Defaults to 5.
	MaxBackups int

	Now func() time.Time
}

// Log is a rotating JSON-lines audit log.
type Log struct {
	path   string
	writer *lumberjack.Logger
	now    func() time.Time
	mu     sync.Mutex
}

// New creates a Log. The file is not opened until the first Append.
func New(cfg *Config) *Log {
	if cfg == nil {
		cfg = &Config{}
	}

	path := cfg.Path
	if path == "" {
		path = DefaultPath()
	}
	maxSize := cfg.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 10
	}
	maxBackups := cfg.MaxBackups
	if maxBackups <= 0 {
		maxBackups = 5
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Log{
		path: path,
		writer: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSize,
			MaxBackups: maxBackups,
			Compress:   false,
		},
		now: now,
	}
}

// DefaultPath returns the default audit log location.
func DefaultPath() string {
	return filepath.Join(xdg.StateHome, "frencli", "audit.log")
}

// Path returns the live log file path.
func (l *Log) Path() string {
	return l.path
}

// Append writes entry as one JSON line. Empty ID, Timestamp, User and
// WorkingDirectory fields are filled in, and the counts are derived from the
// slices when unset.
func (l *Log) Append(entry *Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.Must(uuid.NewV7()).String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.now()
	}
	if entry.User == "" {
		entry.User = currentUser()
	}
	if entry.WorkingDirectory == "" {
		entry.WorkingDirectory, _ = os.Getwd()
	}
	if entry.SuccessfulCount == 0 {
		entry.SuccessfulCount = len(entry.Successful)
	}
	if entry.SkippedCount == 0 {
		entry.SkippedCount = len(entry.Skipped)
	}
	if entry.ErrorCount == 0 {
		entry.ErrorCount = len(entry.Errors)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}
	data = append(data, '\n')

	if _, err := l.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// Close releases the log file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writer.Close()
}

// Read returns every entry, oldest first. A missing log yields no entries.
// Lines that fail to parse are skipped.
func (l *Log) Read() ([]*Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	files, err := l.logFiles()
	if err != nil {
		return nil, err
	}

	var entries []*Entry
	for _, f := range files {
		read, err := readFile(f)
		if err != nil {
			return nil, err
		}
		entries = append(entries, read...)
	}
	return entries, nil
}

// logFiles lists rotated backups in rotation order followed by the live file.
// lumberjack names backups <name>-<timestamp><ext>, so a lexical sort is
// chronological.
func (l *Log) logFiles() ([]string, error) {
	ext := filepath.Ext(l.path)
	prefix := strings.TrimSuffix(l.path, ext) + "-"

	backups, err := filepath.Glob(globEscape(prefix) + "*" + globEscape(ext))
	if err != nil {
		return nil, fmt.Errorf("failed to list audit log backups: %w", err)
	}
	sort.Strings(backups)

	files := backups
	if _, err := os.Stat(l.path); err == nil {
		files = append(files, l.path)
	}
	return files, nil
}

func readFile(path string) ([]*Entry, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var entries []*Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			continue
		}
		entries = append(entries, &e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}
	return entries, nil
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return os.Getenv("USERNAME")
}

func globEscape(s string) string {
	r := strings.NewReplacer(`*`, `\*`, `?`, `\?`, `[`, `\[`)
	return r.Replace(s)
}
