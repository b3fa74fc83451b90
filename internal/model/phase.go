// Package model defines the data structures for challenge phases, advancement
// operations, and advancement results.
package model

import "time"

// Constraint is a user-attached numeric lower bound on a phase instance.
// Constraints are opt-in: they are only enforced when the phase type's close
// allow-list names them.
type Constraint struct {
	Name  string  `yaml:"name" json:"name"`
	Value float64 `yaml:"value" json:"value"`
}

// PhaseInstance is one phase occurrence within a challenge's timeline.
// Predecessor references form a forest of chains; cycle detection is an
// upstream responsibility.
type PhaseInstance struct {
	PhaseID            string       `yaml:"phase_id" json:"phaseId"`
	Name               string       `yaml:"name" json:"name"`
	IsOpen             bool         `yaml:"is_open" json:"isOpen"`
	DurationSeconds    int64        `yaml:"duration_seconds" json:"duration"`
	ScheduledStartDate *time.Time   `yaml:"scheduled_start_date" json:"scheduledStartDate,omitempty"`
	ScheduledEndDate   *time.Time   `yaml:"scheduled_end_date" json:"scheduledEndDate,omitempty"`
	ActualStartDate    *time.Time   `yaml:"actual_start_date" json:"actualStartDate,omitempty"`
	ActualEndDate      *time.Time   `yaml:"actual_end_date" json:"actualEndDate,omitempty"`
	PredecessorID      *string      `yaml:"predecessor_id" json:"predecessorId,omitempty"`
	Constraints        []Constraint `yaml:"constraints,omitempty" json:"constraints,omitempty"`
}

// Duration returns the phase's constant duration.
func (p PhaseInstance) Duration() time.Duration {
	return time.Duration(p.DurationSeconds) * time.Second
}

// HasPredecessor reports whether the phase depends on an earlier phase.
func (p PhaseInstance) HasPredecessor() bool {
	return p.PredecessorID != nil && *p.PredecessorID != ""
}

// Clone returns a deep copy of the phase. Timestamp pointers and the
// constraint slice are duplicated so mutating the copy never touches the
// original.
func (p PhaseInstance) Clone() PhaseInstance {
	out := p
	out.ScheduledStartDate = cloneTime(p.ScheduledStartDate)
	out.ScheduledEndDate = cloneTime(p.ScheduledEndDate)
	out.ActualStartDate = cloneTime(p.ActualStartDate)
	out.ActualEndDate = cloneTime(p.ActualEndDate)
	if p.PredecessorID != nil {
		id := *p.PredecessorID
		out.PredecessorID = &id
	}
	if p.Constraints != nil {
		out.Constraints = make([]Constraint, len(p.Constraints))
		copy(out.Constraints, p.Constraints)
	}
	return out
}

// ClonePhases deep-copies a phase collection, preserving order.
func ClonePhases(phases []PhaseInstance) []PhaseInstance {
	if phases == nil {
		return nil
	}
	out := make([]PhaseInstance, len(phases))
	for i, p := range phases {
		out[i] = p.Clone()
	}
	return out
}

// FindPhaseByName returns the index of the first phase with the given name,
// or -1 when no phase matches.
func FindPhaseByName(phases []PhaseInstance, name string) int {
	for i := range phases {
		if phases[i].Name == name {
			return i
		}
	}
	return -1
}

// FindPhaseByID returns the index of the phase with the given id, or -1.
func FindPhaseByID(phases []PhaseInstance, id string) int {
	for i := range phases {
		if phases[i].PhaseID == id {
			return i
		}
	}
	return -1
}

// SuccessorsOf returns the indexes of every phase whose predecessor is the
// phase with the given id, in collection order.
func SuccessorsOf(phases []PhaseInstance, id string) []int {
	var out []int
	for i := range phases {
		if phases[i].PredecessorID != nil && *phases[i].PredecessorID == id {
			out = append(out, i)
		}
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
