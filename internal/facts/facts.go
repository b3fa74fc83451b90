// Package facts assembles the flat fact record that rule conditions are
// evaluated against. A record is rebuilt from scratch on every advancement
// attempt and never cached, so evaluation always reflects current external
// state.
package facts

import "github.com/arenalabs/phaseflow/internal/rules"

// Record is a flat fact-name to value mapping (booleans, numbers, strings).
type Record map[string]any

// Structural fact keys, derived from phase data alone.
const (
	FactName                     = "name"
	FactIsOpen                   = "isOpen"
	FactIsClosed                 = "isClosed"
	FactIsPastScheduledStartTime = "isPastScheduledStartTime"
	FactIsPastScheduledEndTime   = "isPastScheduledEndTime"
	FactIsPostMortemOpen         = "isPostMortemOpen"
	FactHasPredecessor           = "hasPredecessor"
	FactIsPredecessorPhaseClosed = "isPredecessorPhaseClosed"
	FactNextPhase                = "nextPhase"
)

// Extension fact keys, supplied by phase-type providers.
const (
	FactRegistrantCount                = "registrantCount"
	FactSubmissionCount                = "submissionCount"
	FactHasActiveUnreviewedSubmissions = "hasActiveUnreviewedSubmissions"
	FactAllSubmissionsReviewed         = "allSubmissionsReviewed"
	FactAllAppealsResolved             = "allAppealsResolved"
)

// Constraint fact keys: whitespace-stripped constraint display names, so
// compiled constraint rules and providers agree on the key.
var (
	FactNumberOfRegistrants = rules.NormalizeConstraintName("Number of Registrants")
	FactNumberOfSubmissions = rules.NormalizeConstraintName("Number of Submissions")
)

// GetBool returns the named fact as a bool, or false when absent or not a
// bool.
func (r Record) GetBool(name string) bool {
	v, ok := r[name].(bool)
	return ok && v
}

// GetInt returns the named fact as an int, or 0 when absent.
func (r Record) GetInt(name string) int {
	switch v := r[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// GetString returns the named fact as a string, or "" when absent.
func (r Record) GetString(name string) string {
	v, _ := r[name].(string)
	return v
}
