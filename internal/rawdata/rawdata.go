// Package rawdata reads and writes the per-session raw data file: an
// append-only, tab-separated log with one record per subject response and
// '#'-prefixed comment lines describing the session.
package rawdata

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	// Separator delimits record fields.
	Separator = "\t"
	// CommentPrefix marks session header and marker lines.
	CommentPrefix = "#"
	// Extension is appended to the task name to form the raw data file name.
	Extension = ".raw"
)

// ColumnHeader names the record fields in file order.
var ColumnHeader = strings.Join([]string{"question", "response", "latency_ms"}, Separator)

// Record is one logged response. Records are never rewritten.
type Record struct {
	QuestionID string
	Value      int
	Latency    time.Duration
}

// Line renders the record without a trailing newline.
func (r Record) Line() string {
	return strings.Join([]string{
		r.QuestionID,
		strconv.Itoa(r.Value),
		strconv.FormatInt(r.Latency.Milliseconds(), 10),
	}, Separator)
}

// ParseRecord is the inverse of Record.Line.
func ParseRecord(line string) (Record, error) {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), Separator)
	if len(fields) != 3 {
		return Record{}, fmt.Errorf("rawdata: expected 3 fields, got %d", len(fields))
	}
	id := strings.TrimSpace(fields[0])
	if id == "" {
		return Record{}, fmt.Errorf("rawdata: question id is empty")
	}
	value, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return Record{}, fmt.Errorf("rawdata: response: %w", err)
	}
	ms, err := strconv.ParseInt(strings.TrimSpace(fields[2]), 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("rawdata: latency: %w", err)
	}
	if ms < 0 {
		return Record{}, fmt.Errorf("rawdata: latency %d is negative", ms)
	}
	return Record{QuestionID: id, Value: value, Latency: time.Duration(ms) * time.Millisecond}, nil
}

// Header describes the session that produced a raw data file.
type Header struct {
	SessionID string
	Seed      int64
	Started   time.Time
}

// Line renders the header comment without a trailing newline.
func (h Header) Line() string {
	return fmt.Sprintf("%s session=%s seed=%d started=%s",
		CommentPrefix, h.SessionID, h.Seed, h.Started.UTC().Format(time.RFC3339Nano))
}

func parseHeader(fields map[string]string) (Header, error) {
	h := Header{SessionID: fields["session"]}
	if raw, ok := fields["seed"]; ok {
		seed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Header{}, fmt.Errorf("rawdata: header seed: %w", err)
		}
		h.Seed = seed
	}
	if raw, ok := fields["started"]; ok {
		started, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return Header{}, fmt.Errorf("rawdata: header started: %w", err)
		}
		h.Started = started
	}
	return h, nil
}

// PathFor returns the raw data file location for a task inside dataDir.
func PathFor(dataDir, taskName string) string {
	return filepath.Join(dataDir, FileStem(taskName)+Extension)
}

// FileStem reduces a task name to a file-system friendly stem.
func FileStem(taskName string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(taskName) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	stem := strings.Trim(b.String(), "._")
	if stem == "" {
		return "task"
	}
	return stem
}

// Exists reports whether path holds a non-empty raw data file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}

// Writer appends lines to a raw data file.
type Writer struct {
	path string
	file *os.File
}

// Open creates (or reuses) the raw data file at path in append mode.
func Open(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("rawdata: ensure dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("rawdata: open %s: %w", path, err)
	}
	return &Writer{path: path, file: f}, nil
}

// Path returns the file backing this writer.
func (w *Writer) Path() string {
	if w == nil {
		return ""
	}
	return w.path
}

// WriteHeader appends a session header comment.
func (w *Writer) WriteHeader(h Header) error {
	return w.writeLine(h.Line())
}

// WriteMarker appends a "# name=<time>" comment.
func (w *Writer) WriteMarker(name string, at time.Time) error {
	return w.writeLine(fmt.Sprintf("%s %s=%s", CommentPrefix, name, at.UTC().Format(time.RFC3339Nano)))
}

// Append writes one record.
func (w *Writer) Append(r Record) error {
	return w.writeLine(r.Line())
}

func (w *Writer) writeLine(line string) error {
	if w == nil || w.file == nil {
		return fmt.Errorf("rawdata: writer is closed")
	}
	if _, err := io.WriteString(w.file, line+"\n"); err != nil {
		return fmt.Errorf("rawdata: write %s: %w", w.path, err)
	}
	return nil
}

// Close releases the file handle.
func (w *Writer) Close() error {
	if w == nil || w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// Log is the parsed content of a raw data file.
type Log struct {
	// Header is the first session header found, if any.
	Header    *Header
	Records   []Record
	Markers   map[string][]time.Time
	Malformed int
}

// AnsweredIDs returns the question IDs in record order.
func (l Log) AnsweredIDs() []string {
	ids := make([]string, 0, len(l.Records))
	for _, r := range l.Records {
		ids = append(ids, r.QuestionID)
	}
	return ids
}

// Read parses the raw data file at path. A missing file yields an empty Log.
// Lines that do not parse are counted in Malformed rather than failing the
// read, so a record torn by a crash does not block recovery.
func Read(path string) (Log, error) {
	log := Log{Markers: map[string][]time.Time{}}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return log, nil
		}
		return log, fmt.Errorf("rawdata: open %s: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if isComment(line) {
			log.readComment(line)
			continue
		}
		rec, err := ParseRecord(line)
		if err != nil {
			log.Malformed++
			continue
		}
		log.Records = append(log.Records, rec)
	}
	if err := scanner.Err(); err != nil {
		return log, fmt.Errorf("rawdata: scan %s: %w", path, err)
	}
	return log, nil
}

// isComment reports whether line is metadata. Comments never carry the
// record separator, so a record whose id starts with '#' still reads back.
func isComment(line string) bool {
	return strings.HasPrefix(line, CommentPrefix) && !strings.Contains(line, Separator)
}

func (l *Log) readComment(line string) {
	fields := map[string]string{}
	for _, token := range strings.Fields(strings.TrimPrefix(line, CommentPrefix)) {
		key, value, ok := strings.Cut(token, "=")
		if !ok {
			continue
		}
		fields[key] = value
	}
	if _, isHeader := fields["session"]; isHeader {
		if l.Header != nil {
			return
		}
		h, err := parseHeader(fields)
		if err != nil {
			l.Malformed++
			return
		}
		l.Header = &h
		return
	}
	for key, value := range fields {
		at, err := time.Parse(time.RFC3339Nano, value)
		if err != nil {
			continue
		}
		l.Markers[key] = append(l.Markers[key], at)
	}
}
