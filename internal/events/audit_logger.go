package events

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	// DefaultMaxLogSize caps a log file at 100MB before rotation.
	DefaultMaxLogSize = 100 * 1024 * 1024
	logFileExtension  = ".jsonl"
	archiveDir        = "archive"
)

// AuditEntry is one advancement attempt recorded in the audit trail.
type AuditEntry struct {
	Timestamp   time.Time `json:"timestamp"`
	EventType   string    `json:"event_type"`
	ChallengeID string    `json:"challenge_id"`
	Phase       string    `json:"phase"`
	Operation   string    `json:"operation"`
	Detail      string    `json:"detail,omitempty"`
}

// AuditLogger appends advancement events to a JSONL file, rotating into an
// archive directory when the file exceeds maxSize. Every write is fsynced.
type AuditLogger struct {
	mu          sync.Mutex
	file        *os.File
	currentSize int64
	maxSize     int64
	logPath     string
	rotations   int
}

// NewAuditLogger opens (or creates) the audit log at logPath.
func NewAuditLogger(logPath string, maxSize int64) (*AuditLogger, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxLogSize
	}
	l := &AuditLogger{
		logPath: logPath,
		maxSize: maxSize,
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	if err := l.openLogFile(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *AuditLogger) openLogFile() error {
	file, err := os.OpenFile(l.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("stat audit log: %w", err)
	}
	l.file = file
	l.currentSize = stat.Size()
	return nil
}

// Record appends the event to the audit trail.
func (l *AuditLogger) Record(event Event) error {
	return l.WriteEntry(&AuditEntry{
		Timestamp:   event.Timestamp,
		EventType:   string(event.Type),
		ChallengeID: event.ChallengeID,
		Phase:       event.Phase,
		Operation:   event.Operation,
		Detail:      event.Detail,
	})
}

// WriteEntry appends a structured entry, rotating first if it would push the
// file past maxSize.
func (l *AuditLogger) WriteEntry(entry *AuditEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	data = append(data, '\n')

	if l.currentSize+int64(len(data)) > l.maxSize {
		if err := l.rotate(); err != nil {
			return fmt.Errorf("rotate audit log: %w", err)
		}
	}

	n, err := l.file.Write(data)
	if err != nil {
		return fmt.Errorf("write audit entry: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("sync audit log: %w", err)
	}
	l.currentSize += int64(n)
	return nil
}

func (l *AuditLogger) rotate() error {
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("close current log: %w", err)
	}

	dir := filepath.Join(filepath.Dir(l.logPath), archiveDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}

	l.rotations++
	base := filepath.Base(l.logPath)
	stem := base
	if filepath.Ext(base) == logFileExtension {
		stem = base[:len(base)-len(logFileExtension)]
	}
	name := fmt.Sprintf("%s.%s.%d%s", stem, time.Now().Format("20060102_150405"), l.rotations, logFileExtension)
	if err := os.Rename(l.logPath, filepath.Join(dir, name)); err != nil {
		return fmt.Errorf("archive log file: %w", err)
	}

	return l.openLogFile()
}

// ReadEntries loads every well-formed entry from an audit log file. Malformed
// lines are skipped.
func ReadEntries(logPath string) ([]AuditEntry, error) {
	file, err := os.Open(logPath)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer file.Close()

	var entries []AuditEntry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry AuditEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan audit log: %w", err)
	}
	return entries, nil
}

// Close syncs and closes the underlying file.
func (l *AuditLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	if err := l.file.Sync(); err != nil {
		return err
	}
	return l.file.Close()
}
