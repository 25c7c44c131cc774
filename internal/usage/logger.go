package usage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LogEntry is one answered message with the tokens it consumed.
type LogEntry struct {
	Timestamp    time.Time `json:"timestamp"`
	Mode         string    `json:"mode"`
	Model        string    `json:"model"`
	InputTokens  int64     `json:"input_tokens"`
	OutputTokens int64     `json:"output_tokens"`
	DurationMs   int64     `json:"duration_ms,omitempty"`
}

// Logger writes usage entries to daily JSONL files
type Logger struct {
	baseDir string
	mu      sync.Mutex
}

// NewLogger creates a Logger under the default XDG data directory
func NewLogger() *Logger {
	return NewLoggerAt(Dir())
}

// NewLoggerAt creates a Logger writing into dir.
func NewLoggerAt(dir string) *Logger {
	return &Logger{baseDir: dir}
}

// Dir returns the directory daily usage files are written to.
func (l *Logger) Dir() string {
	return l.baseDir
}

// Log appends entry to the file for its day.
func (l *Logger) Log(entry LogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	if err := os.MkdirAll(l.baseDir, 0755); err != nil {
		return err
	}

	date := entry.Timestamp.Format("2006-01-02")
	filename := filepath.Join(l.baseDir, date+".jsonl")

	f, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	if _, err := w.Write(data); err != nil {
		return err
	}
	if _, err := w.WriteString("\n"); err != nil {
		return err
	}
	return w.Flush()
}

// Dir returns the XDG data directory for usage logs
func Dir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "quest-buddy", "usage")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".quest-buddy", "usage")
	}

	return filepath.Join(homeDir, ".local", "share", "quest-buddy", "usage")
}
