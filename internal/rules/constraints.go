package rules

import (
	"strings"

	"github.com/arenalabs/phaseflow/internal/model"
)

// NormalizeConstraintName strips all whitespace from a constraint name.
// Allow-list entries and the fact keys produced by constraint facts both use
// the normalized form, so "Number of Registrants" and "Number  of
// Registrants" refer to the same fact. Matching stays case sensitive.
func NormalizeConstraintName(name string) string {
	return strings.Join(strings.Fields(name), "")
}

// CompileConstraints converts a phase's user-defined numeric constraints into
// ad-hoc lower-bound rules. Constraints are opt-in: a constraint compiles
// only when the operation is close and its normalized name appears in the
// phase type's close allow-list. Everything else is silently skipped, which
// lets operators attach arbitrary thresholds without each one being enforced.
func CompileConstraints(constraints []model.Constraint, op model.Operation, allow map[string]bool) []Rule {
	if op != model.OperationClose || len(constraints) == 0 || len(allow) == 0 {
		return nil
	}
	var out []Rule
	for _, c := range constraints {
		normalized := NormalizeConstraintName(c.Name)
		if !allow[normalized] {
			continue
		}
		out = append(out, Rule{
			Name: "Constraint: " + c.Name,
			Conditions: Condition{
				Fact:     normalized,
				Operator: OpGreaterOrEqual,
				Value:    c.Value,
			},
			Event: Event{Type: "constraintSatisfied"},
		})
	}
	return out
}
