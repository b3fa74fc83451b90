package advance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arenalabs/phaseflow/internal/catalog"
	"github.com/arenalabs/phaseflow/internal/facts"
	"github.com/arenalabs/phaseflow/internal/model"
)

func newOrchestrator(t *testing.T, clock model.Clock, svc facts.Services) *Orchestrator {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	return New(cat, facts.NewAssembler(clock, svc), clock)
}

// registrationChallenge builds an open Registration phase scheduled to end at
// t0+1h, with Submission chained behind it.
func registrationChallenge() []model.PhaseInstance {
	return []model.PhaseInstance{
		{
			PhaseID:            "p-reg",
			Name:               "Registration",
			IsOpen:             true,
			DurationSeconds:    3600,
			ScheduledStartDate: ts(-time.Hour),
			ScheduledEndDate:   ts(time.Hour),
			ActualStartDate:    ts(-time.Hour),
		},
		{
			PhaseID:            "p-sub",
			Name:               "Submission",
			DurationSeconds:    3600,
			ScheduledStartDate: ts(time.Hour),
			ScheduledEndDate:   ts(2 * time.Hour),
			PredecessorID:      strPtr("p-reg"),
		},
	}
}

func TestAdvance_PhaseNotFound(t *testing.T) {
	phases := registrationChallenge()
	before := model.ClonePhases(phases)
	orch := newOrchestrator(t, model.FixedClock(t0), facts.StaticServices{})

	result, err := orch.Advance(context.Background(), "c1", phases, model.OperationClose, "Nonexistent")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPhaseNotFound)
	assert.Nil(t, result)
	assert.Equal(t, before, phases, "input phases untouched")
}

func TestAdvance_CloseRejectedBeforeScheduledEnd(t *testing.T) {
	phases := registrationChallenge()
	before := model.ClonePhases(phases)
	// clock before scheduledEndDate
	orch := newOrchestrator(t, model.FixedClock(t0), facts.StaticServices{Registrants: 10})

	result, err := orch.Advance(context.Background(), "c1", phases, model.OperationClose, "Registration")

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Equal(t, "Cannot close phase Registration", result.Message)
	assert.Equal(t, "Rule Registration can close failed", result.Detail)

	require.Len(t, result.FailureReasons, 1)
	reason := result.FailureReasons[0]
	assert.Equal(t, "Registration can close", reason.Rule)
	require.Len(t, reason.FailedConditions, 1)
	assert.Equal(t, facts.FactIsPastScheduledEndTime, reason.FailedConditions[0].Fact)

	assert.Nil(t, result.UpdatedPhases)
	assert.Equal(t, before, phases, "rejection must not mutate phases")
}

func TestAdvance_CloseSucceedsAfterScheduledEnd(t *testing.T) {
	phases := registrationChallenge()
	now := t0.Add(90 * time.Minute) // 30m past scheduled end
	orch := newOrchestrator(t, model.FixedClock(now), facts.StaticServices{Registrants: 10})

	result, err := orch.Advance(context.Background(), "c1", phases, model.OperationClose, "Registration")

	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, "Successfully closed phase Registration", result.Message)

	reg := result.UpdatedPhases[model.FindPhaseByName(result.UpdatedPhases, "Registration")]
	assert.False(t, reg.IsOpen)
	require.NotNil(t, reg.ActualEndDate)
	assert.Equal(t, now, *reg.ActualEndDate)

	// 30m late close shifts the successor's scheduled window by +30m
	sub := result.UpdatedPhases[model.FindPhaseByName(result.UpdatedPhases, "Submission")]
	assert.Equal(t, t0.Add(90*time.Minute), *sub.ScheduledStartDate)
	assert.Equal(t, t0.Add(150*time.Minute), *sub.ScheduledEndDate)

	assert.Equal(t, string(model.OperationOpen), result.Next.Operation)
	require.Len(t, result.Next.Phases, 1)
	assert.Equal(t, "Submission", result.Next.Phases[0].Name)

	// input untouched: functional update
	assert.True(t, phases[0].IsOpen)
	assert.Nil(t, phases[0].ActualEndDate)
}

func TestAdvance_OpenHasNoNextHint(t *testing.T) {
	phases := registrationChallenge()
	phases[0].IsOpen = false
	phases[0].ActualStartDate = nil
	now := t0 // past scheduled start, before scheduled end
	orch := newOrchestrator(t, model.FixedClock(now), facts.StaticServices{})

	result, err := orch.Advance(context.Background(), "c1", phases, model.OperationOpen, "Registration")

	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, "Successfully opened phase Registration", result.Message)
	assert.Empty(t, result.Next.Phases)
	assert.Empty(t, result.Next.Operation)

	reg := result.UpdatedPhases[0]
	assert.True(t, reg.IsOpen)
	require.NotNil(t, reg.ActualStartDate)
	assert.Equal(t, now, *reg.ActualStartDate)
	assert.Equal(t, now.Add(time.Hour), *reg.ScheduledEndDate)
}

func TestAdvance_DoubleOpenRejected(t *testing.T) {
	phases := registrationChallenge() // Registration already open
	orch := newOrchestrator(t, model.FixedClock(t0), facts.StaticServices{})

	result, err := orch.Advance(context.Background(), "c1", phases, model.OperationOpen, "Registration")

	require.NoError(t, err)
	require.False(t, result.Success)
	require.Len(t, result.FailureReasons, 1)
	conditionFacts := make([]string, 0)
	for _, fc := range result.FailureReasons[0].FailedConditions {
		conditionFacts = append(conditionFacts, fc.Fact)
	}
	assert.Contains(t, conditionFacts, facts.FactIsOpen)
}

func TestAdvance_ConstraintGating(t *testing.T) {
	now := t0.Add(3 * time.Hour) // past Submission's scheduled end

	submissionPhases := func(constraints ...model.Constraint) []model.PhaseInstance {
		phases := registrationChallenge()
		phases[0].IsOpen = false
		phases[0].ActualEndDate = ts(time.Hour)
		phases[1].IsOpen = true
		phases[1].ActualStartDate = ts(time.Hour)
		phases[1].Constraints = constraints
		return phases
	}

	t.Run("allow-listed constraint enforced on close", func(t *testing.T) {
		phases := submissionPhases(model.Constraint{Name: "Number of Submissions", Value: 3})
		orch := newOrchestrator(t, model.FixedClock(now), facts.StaticServices{Submissions: 1})

		result, err := orch.Advance(context.Background(), "c1", phases, model.OperationClose, "Submission")
		require.NoError(t, err)
		require.False(t, result.Success)
		assert.Equal(t, "Rule Constraint: Number of Submissions failed", result.Detail)
	})

	t.Run("allow-listed constraint passes with enough submissions", func(t *testing.T) {
		phases := submissionPhases(model.Constraint{Name: "Number of Submissions", Value: 3})
		orch := newOrchestrator(t, model.FixedClock(now), facts.StaticServices{Submissions: 5})

		result, err := orch.Advance(context.Background(), "c1", phases, model.OperationClose, "Submission")
		require.NoError(t, err)
		assert.True(t, result.Success)
	})

	t.Run("constraint off the allow-list is ignored", func(t *testing.T) {
		phases := submissionPhases(model.Constraint{Name: "MinSubmissions", Value: 99})
		orch := newOrchestrator(t, model.FixedClock(now), facts.StaticServices{Submissions: 1})

		result, err := orch.Advance(context.Background(), "c1", phases, model.OperationClose, "Submission")
		require.NoError(t, err)
		assert.True(t, result.Success, "unlisted constraint must not block the close")
	})
}

func TestAdvance_EssentialRulesPrecedeConstraints(t *testing.T) {
	phases := registrationChallenge()
	phases[0].Constraints = []model.Constraint{{Name: "Number of Registrants", Value: 100}}
	// clock before scheduled end: essential rule fails, constraint would too
	orch := newOrchestrator(t, model.FixedClock(t0), facts.StaticServices{Registrants: 1})

	result, err := orch.Advance(context.Background(), "c1", phases, model.OperationClose, "Registration")

	require.NoError(t, err)
	require.False(t, result.Success)
	assert.Equal(t, "Registration can close", result.FailureReasons[0].Rule,
		"first-failure report names the essential rule, not the constraint")
}

func TestAdvance_FactFetchFailureIsHardError(t *testing.T) {
	phases := registrationChallenge()
	before := model.ClonePhases(phases)
	svcErr := errors.New("registrant service down")
	now := t0.Add(2 * time.Hour)
	orch := newOrchestrator(t, model.FixedClock(now), facts.StaticServices{Err: svcErr})

	result, err := orch.Advance(context.Background(), "c1", phases, model.OperationClose, "Registration")

	require.Error(t, err)
	assert.ErrorIs(t, err, svcErr)
	assert.Nil(t, result, "hard failures never produce a result")
	assert.Equal(t, before, phases)
}

func TestAdvance_UnknownPhaseTypeWithEmptyRuleSet(t *testing.T) {
	phases := []model.PhaseInstance{{
		PhaseID:         "p-x",
		Name:            "Specification Review",
		DurationSeconds: 3600,
	}}
	orch := newOrchestrator(t, model.FixedClock(t0), facts.StaticServices{})

	// no catalog rules and no constraints: trivially succeeds
	result, err := orch.Advance(context.Background(), "c1", phases, model.OperationOpen, "Specification Review")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, result.UpdatedPhases[0].IsOpen)
}
