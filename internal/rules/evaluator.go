package rules

import (
	"fmt"
	"strconv"

	"github.com/arenalabs/phaseflow/internal/model"
)

// Result is the outcome of evaluating one rule against a fact record.
// FailedConditions lists every leaf condition that individually evaluated
// false; it is only meaningful when Passed is false.
type Result struct {
	Rule             string
	Passed           bool
	FailedConditions []model.FailedCondition
}

// Evaluate runs a rule's condition tree against a fact record. Evaluation is
// pure and synchronous: missing facts compare false rather than erroring, and
// the whole tree is walked (no short-circuit) so every failed leaf is
// collected for the failure report.
func Evaluate(r Rule, facts map[string]any) Result {
	res := Result{Rule: r.Name}
	res.Passed = evalCondition(r.Conditions, facts, &res.FailedConditions)
	return res
}

// EvaluateAll evaluates rules in order and returns the result of the first
// rule that fails, or nil when every rule passes.
func EvaluateAll(rs []Rule, facts map[string]any) *Result {
	for _, r := range rs {
		if res := Evaluate(r, facts); !res.Passed {
			return &res
		}
	}
	return nil
}

func evalCondition(c Condition, facts map[string]any, failed *[]model.FailedCondition) bool {
	switch {
	case len(c.All) > 0:
		pass := true
		for _, child := range c.All {
			if !evalCondition(child, facts, failed) {
				pass = false
			}
		}
		return pass
	case len(c.Any) > 0:
		pass := false
		for _, child := range c.Any {
			if evalCondition(child, facts, failed) {
				pass = true
			}
		}
		return pass
	default:
		pass := evalLeaf(c, facts)
		if !pass {
			*failed = append(*failed, model.FailedCondition{
				Fact:     c.Fact,
				Operator: string(c.Operator),
				Value:    c.Value,
			})
		}
		return pass
	}
}

func evalLeaf(c Condition, facts map[string]any) bool {
	value, ok := facts[c.Fact]

	switch c.Operator {
	case OpEqual:
		// equal against a nil value doubles as an existence check
		if !ok || value == nil {
			return c.Value == nil
		}
		return looseEqual(value, c.Value)
	case OpNotEqual:
		if !ok || value == nil {
			return c.Value != nil
		}
		return !looseEqual(value, c.Value)
	case OpGreaterThan, OpGreaterOrEqual, OpLessThan, OpLessOrEqual:
		if !ok {
			return false
		}
		return compareNumeric(value, c.Value, c.Operator)
	case OpIn:
		if !ok {
			return false
		}
		return inList(value, c.Value)
	default:
		return false
	}
}

// looseEqual compares numerics numerically and everything else by its
// printed form, so YAML-sourced values (int vs float64, bool) match facts of
// the natural Go type.
func looseEqual(a, b any) bool {
	if af, aok := toFloat64(a); aok {
		if bf, bok := toFloat64(b); bok {
			return af == bf
		}
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func compareNumeric(a, b any, op Operator) bool {
	af, aok := toFloat64(a)
	bf, bok := toFloat64(b)
	if !aok || !bok {
		return false
	}
	switch op {
	case OpGreaterThan:
		return af > bf
	case OpGreaterOrEqual:
		return af >= bf
	case OpLessThan:
		return af < bf
	case OpLessOrEqual:
		return af <= bf
	default:
		return false
	}
}

func inList(value, list any) bool {
	switch l := list.(type) {
	case []any:
		for _, item := range l {
			if looseEqual(value, item) {
				return true
			}
		}
	case []string:
		for _, item := range l {
			if looseEqual(value, item) {
				return true
			}
		}
	case []float64:
		for _, item := range l {
			if looseEqual(value, item) {
				return true
			}
		}
	case []int:
		for _, item := range l {
			if looseEqual(value, item) {
				return true
			}
		}
	}
	return false
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
