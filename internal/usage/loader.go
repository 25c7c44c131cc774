package usage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DaySummary aggregates the entries logged on one day.
type DaySummary struct {
	Date         string
	Messages     int
	InputTokens  int64
	OutputTokens int64
}

// LoadResult holds entries read from a usage directory plus any read errors.
type LoadResult struct {
	Entries []LogEntry
	Errors  []error
}

// Load reads every daily file in dir. A missing directory yields no entries.
func Load(dir string) LoadResult {
	var result LoadResult

	files, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return result
	}
	if err != nil {
		result.Errors = append(result.Errors, err)
		return result
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".jsonl") {
			continue
		}
		entries, errs := loadFile(filepath.Join(dir, file.Name()))
		result.Entries = append(result.Entries, entries...)
		result.Errors = append(result.Errors, errs...)
	}

	return result
}

// LoadSince reads only the daily files from since through today.
func LoadSince(dir string, since time.Time) LoadResult {
	var result LoadResult

	today := time.Now()
	for d := since; !d.After(today); d = d.AddDate(0, 0, 1) {
		path := filepath.Join(dir, d.Format("2006-01-02")+".jsonl")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		entries, errs := loadFile(path)
		result.Entries = append(result.Entries, entries...)
		result.Errors = append(result.Errors, errs...)
	}

	return result
}

func loadFile(path string) ([]LogEntry, []error) {
	var entries []LogEntry
	var errs []error

	file, err := os.Open(path)
	if err != nil {
		return nil, []error{err}
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry LogEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue // Skip invalid lines
		}
		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		errs = append(errs, err)
	}

	return entries, errs
}

// SummarizeByDay groups entries by local date, oldest first.
func SummarizeByDay(entries []LogEntry) []DaySummary {
	byDay := make(map[string]*DaySummary)
	for _, e := range entries {
		date := e.Timestamp.Local().Format("2006-01-02")
		s, ok := byDay[date]
		if !ok {
			s = &DaySummary{Date: date}
			byDay[date] = s
		}
		s.Messages++
		s.InputTokens += e.InputTokens
		s.OutputTokens += e.OutputTokens
	}

	out := make([]DaySummary, 0, len(byDay))
	for _, s := range byDay {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
