package facts

import (
	"context"
	"fmt"
	"time"

	"github.com/arenalabs/phaseflow/internal/model"
)

// Assembler builds the fact record for one phase advancement attempt.
type Assembler struct {
	clock     model.Clock
	providers map[model.PhaseType]Provider
}

// NewAssembler creates an assembler over the given services. clock supplies
// "now" for the schedule comparisons.
func NewAssembler(clock model.Clock, svc Services) *Assembler {
	return &Assembler{
		clock:     clock,
		providers: NewProviderSet(svc),
	}
}

// Assemble computes the full fact record for evaluating rules against the
// target phase: structural facts derived from the phase collection plus the
// extension facts of the target's phase type. A provider failure is a hard
// failure; the caller must not mutate any phase.
func (a *Assembler) Assemble(ctx context.Context, challengeID string, phases []model.PhaseInstance, target model.PhaseInstance, op model.Operation) (Record, error) {
	now := a.clock.Now()

	rec := Record{
		FactName:                     target.Name,
		FactIsOpen:                   target.IsOpen,
		FactIsClosed:                 !target.IsOpen && target.ActualEndDate != nil,
		FactIsPastScheduledStartTime: isPast(target.ScheduledStartDate, now),
		FactIsPastScheduledEndTime:   isPast(target.ScheduledEndDate, now),
		FactHasPredecessor:           target.HasPredecessor(),
	}

	if i := model.FindPhaseByName(phases, string(model.PhasePostMortem)); i >= 0 {
		rec[FactIsPostMortemOpen] = phases[i].IsOpen
	}

	rec[FactIsPredecessorPhaseClosed] = true
	if target.HasPredecessor() {
		i := model.FindPhaseByID(phases, *target.PredecessorID)
		if i < 0 {
			return nil, fmt.Errorf("phase %q references unknown predecessor %q", target.Name, *target.PredecessorID)
		}
		rec[FactIsPredecessorPhaseClosed] = isPast(phases[i].ActualEndDate, now)
	}

	if succ := model.SuccessorsOf(phases, target.PhaseID); len(succ) > 0 {
		rec[FactNextPhase] = phases[succ[0]].Name
	}

	provider, ok := a.providers[model.PhaseType(target.Name)]
	if !ok {
		return rec, nil
	}
	ext, err := provider.Collect(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("collect %s facts for challenge %s: %w", target.Name, challengeID, err)
	}
	for k, v := range ext {
		rec[k] = v
	}
	return rec, nil
}

func isPast(t *time.Time, now time.Time) bool {
	return t != nil && t.Before(now)
}
