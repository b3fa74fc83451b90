package events

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLogger_RecordAndRead(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")
	logger, err := NewAuditLogger(logPath, DefaultMaxLogSize)
	require.NoError(t, err)
	defer logger.Close()

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, logger.Record(Event{
		Type:        EventPhaseClosed,
		Timestamp:   at,
		ChallengeID: "c1",
		Phase:       "Registration",
		Operation:   "close",
	}))
	require.NoError(t, logger.Record(Event{
		Type:        EventAdvancementRejected,
		Timestamp:   at.Add(time.Minute),
		ChallengeID: "c1",
		Phase:       "Submission",
		Operation:   "open",
		Detail:      "Rule Submission can open failed",
	}))

	entries, err := ReadEntries(logPath)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, string(EventPhaseClosed), entries[0].EventType)
	assert.Equal(t, "Registration", entries[0].Phase)
	assert.Equal(t, at, entries[0].Timestamp)

	assert.Equal(t, string(EventAdvancementRejected), entries[1].EventType)
	assert.Equal(t, "Rule Submission can open failed", entries[1].Detail)
}

func TestAuditLogger_StampsMissingTimestamp(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")
	logger, err := NewAuditLogger(logPath, DefaultMaxLogSize)
	require.NoError(t, err)
	defer logger.Close()

	require.NoError(t, logger.WriteEntry(&AuditEntry{
		EventType:   string(EventPhaseOpened),
		ChallengeID: "c1",
		Phase:       "Registration",
		Operation:   "open",
	}))

	entries, err := ReadEntries(logPath)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Timestamp.IsZero())
}

func TestAuditLogger_AppendsAcrossReopen(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")

	for i := 0; i < 2; i++ {
		logger, err := NewAuditLogger(logPath, DefaultMaxLogSize)
		require.NoError(t, err)
		require.NoError(t, logger.Record(Event{Type: EventPhaseOpened, ChallengeID: "c1", Phase: "Registration", Operation: "open"}))
		require.NoError(t, logger.Close())
	}

	entries, err := ReadEntries(logPath)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestAuditLogger_Rotation(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "audit.jsonl")

	// a max size small enough that the second entry forces rotation
	logger, err := NewAuditLogger(logPath, 150)
	require.NoError(t, err)
	defer logger.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, logger.Record(Event{
			Type:        EventPhaseClosed,
			ChallengeID: "c1",
			Phase:       "Registration",
			Operation:   "close",
		}))
	}

	archived, err := os.ReadDir(filepath.Join(dir, archiveDir))
	require.NoError(t, err)
	assert.NotEmpty(t, archived, "rotation must move the full log into the archive")

	// current log still readable
	entries, err := ReadEntries(logPath)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}

func TestReadEntries_SkipsMalformedLines(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.jsonl")
	content := `{"timestamp":"2026-03-01T12:00:00Z","event_type":"phaseOpened","challenge_id":"c1","phase":"Registration","operation":"open"}
not json at all
`
	require.NoError(t, os.WriteFile(logPath, []byte(content), 0o644))

	entries, err := ReadEntries(logPath)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "c1", entries[0].ChallengeID)
}
