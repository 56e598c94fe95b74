package main

import (
	"cmp"
	"log/slog"
	"os"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"unicode/utf8"
)

// Compare orders keys by model, then by date
func (k Key) Compare(other Key) int {
	if c := cmp.Compare(k.Model, other.Model); c != 0 {
		return c
	}
	return cmp.Compare(k.Date, other.Date)
}

// Table accumulates usage per key. It is safe for concurrent use.
type Table struct {
	mu      sync.Mutex
	entries map[Key]Usage
}

// NewTable returns an empty table
func NewTable() *Table {
	return &Table{entries: make(map[Key]Usage)}
}

// Merge adds u to the counter stored under k, inserting it if k is new
func (t *Table) Merge(k Key, u Usage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[k] = t.entries[k].Add(u)
}

// Len returns the number of distinct keys
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Snapshot returns a copy of the table sorted by key
func (t *Table) Snapshot() []Entry {
	t.mu.Lock()
	result := make([]Entry, 0, len(t.entries))
	for k, u := range t.entries {
		result = append(result, Entry{Key: k, Usage: u.clone()})
	}
	t.mu.Unlock()

	slices.SortFunc(result, func(a, b Entry) int {
		return a.Key.Compare(b.Key)
	})
	return result
}

// Stats counts what a run saw
type Stats struct {
	FilesScanned int64
	FilesRead    int64
	FilesFailed  int64
	Values       int64 // JSON values produced by the parser
	Records      int64 // values that decoded into a record and were merged
}

type counters struct {
	filesRead   atomic.Int64
	filesFailed atomic.Int64
	values      atomic.Int64
	records     atomic.Int64
}

// Processor aggregates usage from every log file below Dir.
// A Processor must not run Process concurrently with itself.
type Processor struct {
	Dir     string
	Workers int // file workers; <= 0 means runtime.NumCPU()
	Logger  *slog.Logger

	Stats Stats // counters of the last run
}

// Process scans Dir, folds every decoded record into a fresh table and returns
// the entries sorted by key. Unreadable directories and files are logged and
// skipped; malformed content is skipped silently.
func (p *Processor) Process() []Entry {
	logger := p.logger()
	var c counters

	numWorkers := p.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	files := ScanFiles(p.Dir, ScanOptions{Logger: logger, Parallelism: numWorkers})

	table := NewTable()

	fileChan := make(chan string, len(files))
	for _, path := range files {
		fileChan <- path
	}
	close(fileChan)

	// Start worker pool for file reading
	var wg sync.WaitGroup
	for range min(numWorkers, max(len(files), 1)) {
		wg.Go(func() {
			for path := range fileChan {
				processFile(path, table, &c, logger)
			}
		})
	}
	wg.Wait()

	p.Stats = Stats{
		FilesScanned: int64(len(files)),
		FilesRead:    c.filesRead.Load(),
		FilesFailed:  c.filesFailed.Load(),
		Values:       c.values.Load(),
		Records:      c.records.Load(),
	}

	entries := table.Snapshot()
	logger.Debug("aggregation finished",
		"dir", p.Dir,
		"files", p.Stats.FilesScanned,
		"read", p.Stats.FilesRead,
		"failed", p.Stats.FilesFailed,
		"values", p.Stats.Values,
		"records", p.Stats.Records,
		"keys", len(entries),
	)
	return entries
}

func processFile(path string, table *Table, c *counters, logger *slog.Logger) {
	if !IsLogFile(path) {
		return
	}

	content, err := os.ReadFile(path)
	if err != nil {
		c.filesFailed.Add(1)
		logger.Warn("cannot read log file", "path", path, "err", err)
		return
	}
	if !utf8.Valid(content) {
		c.filesFailed.Add(1)
		logger.Warn("log file is not valid UTF-8", "path", path)
		return
	}
	c.filesRead.Add(1)

	for v := range ParseContent(content) {
		c.values.Add(1)
		record, ok := DecodeRecord(v)
		if !ok {
			continue
		}

		var usage Usage
		if record.Usage != nil {
			usage = *record.Usage
		}
		table.Merge(record.Key(), usage)
		c.records.Add(1)
	}
}

func (p *Processor) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.New(slog.DiscardHandler)
}
