package model

import "fmt"

// Operation is the transition being attempted on a phase.
type Operation string

const (
	OperationOpen  Operation = "open"
	OperationClose Operation = "close"
)

// ParseOperation validates and normalizes an operation string.
func ParseOperation(s string) (Operation, error) {
	switch Operation(s) {
	case OperationOpen:
		return OperationOpen, nil
	case OperationClose:
		return OperationClose, nil
	default:
		return "", fmt.Errorf("invalid operation %q (want %q or %q)", s, OperationOpen, OperationClose)
	}
}

// PastTense returns the operation's past-tense form for result messages.
func (o Operation) PastTense() string {
	switch o {
	case OperationOpen:
		return "opened"
	case OperationClose:
		return "closed"
	default:
		return string(o)
	}
}

// PhaseType identifies a phase kind. The name of a PhaseInstance is the name
// of its PhaseType; fact providers and catalog rule sets are keyed by it.
type PhaseType string

const (
	PhaseRegistration         PhaseType = "Registration"
	PhaseSubmission           PhaseType = "Submission"
	PhaseCheckpointSubmission PhaseType = "Checkpoint Submission"
	PhaseReview               PhaseType = "Review"
	PhaseIterativeReview      PhaseType = "Iterative Review"
	PhaseAppeals              PhaseType = "Appeals"
	PhaseAppealsResponse      PhaseType = "Appeals Response"
	PhasePostMortem           PhaseType = "Post-Mortem"
)

var knownPhaseTypes = map[PhaseType]bool{
	PhaseRegistration:         true,
	PhaseSubmission:           true,
	PhaseCheckpointSubmission: true,
	PhaseReview:               true,
	PhaseIterativeReview:      true,
	PhaseAppeals:              true,
	PhaseAppealsResponse:      true,
	PhasePostMortem:           true,
}

// IsKnownPhaseType reports whether the name matches a built-in phase type.
// Unknown types are still advanceable; they simply contribute no extension
// facts and match no catalog rule set unless the catalog declares them.
func IsKnownPhaseType(name string) bool {
	return knownPhaseTypes[PhaseType(name)]
}
