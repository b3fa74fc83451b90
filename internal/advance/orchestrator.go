package advance

import (
	"context"
	"errors"
	"fmt"

	"github.com/arenalabs/phaseflow/internal/catalog"
	"github.com/arenalabs/phaseflow/internal/facts"
	"github.com/arenalabs/phaseflow/internal/model"
	"github.com/arenalabs/phaseflow/internal/rules"
)

// ErrPhaseNotFound is returned when the named phase does not exist in the
// challenge's phase collection. It is a hard failure, distinct from a
// business-rule rejection.
var ErrPhaseNotFound = errors.New("phase not found")

// Orchestrator is the engine entry point. It advances exactly one phase per
// call and reports what the caller should do next; it never loops across the
// chain itself, keeping every invocation shallow and repeatable.
//
// The engine provides no mutual exclusion: concurrent calls for the same
// phase may both pass rule evaluation against a stale fact snapshot.
// Serializing competing calls is the caller's responsibility (see
// service.Advancer).
type Orchestrator struct {
	catalog   *catalog.Catalog
	assembler *facts.Assembler
	clock     model.Clock
}

// New creates an orchestrator over an immutable catalog.
func New(cat *catalog.Catalog, assembler *facts.Assembler, clock model.Clock) *Orchestrator {
	return &Orchestrator{
		catalog:   cat,
		assembler: assembler,
		clock:     clock,
	}
}

// Advance attempts the operation on the named phase. Hard failures (unknown
// phase, fact fetch errors) return a nil result and an error; business-rule
// rejections return Success=false with structured failure reasons. No phase
// is ever mutated unless every rule passes, and the input slice is never
// modified either way.
func (o *Orchestrator) Advance(ctx context.Context, challengeID string, phases []model.PhaseInstance, op model.Operation, phaseName string) (*model.AdvancementResult, error) {
	target := model.FindPhaseByName(phases, phaseName)
	if target < 0 {
		return nil, fmt.Errorf("%w: %q in challenge %s", ErrPhaseNotFound, phaseName, challengeID)
	}
	phase := phases[target]

	ruleSet := o.catalog.RulesFor(op, phase.Name)
	allow := o.catalog.ConstraintAllowList(op, phase.Name)
	ruleSet = append(ruleSet, rules.CompileConstraints(phase.Constraints, op, allow)...)

	record, err := o.assembler.Assemble(ctx, challengeID, phases, phase, op)
	if err != nil {
		return nil, err
	}

	// first failure wins; most callers only need the first blocking reason
	if failed := rules.EvaluateAll(ruleSet, record); failed != nil {
		return &model.AdvancementResult{
			Success: false,
			Message: fmt.Sprintf("Cannot %s phase %s", op, phase.Name),
			Detail:  fmt.Sprintf("Rule %s failed", failed.Rule),
			FailureReasons: []model.FailureReason{{
				Rule:             failed.Rule,
				FailedConditions: failed.FailedConditions,
			}},
		}, nil
	}

	updated := applyTransition(phases, target, op, o.clock.Now())

	next := model.NextStep{Phases: []model.PhaseInstance{}}
	if op == model.OperationClose {
		for _, i := range model.SuccessorsOf(updated, phase.PhaseID) {
			next.Phases = append(next.Phases, updated[i])
		}
		if len(next.Phases) > 0 {
			next.Operation = string(model.OperationOpen)
		}
	}

	return &model.AdvancementResult{
		Success:       true,
		Message:       fmt.Sprintf("Successfully %s phase %s", op.PastTense(), phase.Name),
		UpdatedPhases: updated,
		Next:          next,
	}, nil
}
