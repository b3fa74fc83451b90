// Package advance contains the phase advancement engine: the mutator that
// applies open/close transitions and cascades schedule shifts, and the
// orchestrator that gates transitions on the rule catalog.
package advance

import (
	"time"

	"github.com/arenalabs/phaseflow/internal/model"
)

// applyTransition returns a copy of phases with the operation applied to the
// phase at index target. The input slice is never mutated; the caller decides
// whether and how to persist the returned copy.
//
// Opening stamps actualStartDate=now and resets scheduledEndDate to
// now+duration. Closing stamps actualEndDate=now. In both cases the signed
// difference between the original scheduled timestamp and now is pushed down
// the predecessor chain: every transitively dependent phase's scheduled
// window shifts by how early or late the trigger phase actually transitioned,
// while dependent actual timestamps stay untouched until those phases
// transition themselves.
func applyTransition(phases []model.PhaseInstance, target int, op model.Operation, now time.Time) []model.PhaseInstance {
	out := model.ClonePhases(phases)
	phase := &out[target]

	var scheduled *time.Time
	switch op {
	case model.OperationOpen:
		scheduled = phase.ScheduledStartDate
		phase.IsOpen = true
		phase.ActualStartDate = timePtr(now)
		phase.ScheduledEndDate = timePtr(now.Add(phase.Duration()))
	case model.OperationClose:
		scheduled = phase.ScheduledEndDate
		phase.IsOpen = false
		phase.ActualEndDate = timePtr(now)
	}

	if scheduled == nil {
		return out
	}
	// delta = scheduled - actual; downstream shifts by -delta
	shift := now.Sub(*scheduled)
	if shift != 0 {
		cascade(out, phase.PhaseID, shift)
	}
	return out
}

// cascade shifts the scheduled window of every phase downstream of rootID by
// the given amount, walking the predecessor chain breadth-first.
func cascade(phases []model.PhaseInstance, rootID string, shift time.Duration) {
	queue := []string{rootID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, i := range model.SuccessorsOf(phases, id) {
			p := &phases[i]
			if p.ScheduledStartDate != nil {
				p.ScheduledStartDate = timePtr(p.ScheduledStartDate.Add(shift))
			}
			if p.ScheduledEndDate != nil {
				p.ScheduledEndDate = timePtr(p.ScheduledEndDate.Add(shift))
			}
			queue = append(queue, p.PhaseID)
		}
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
