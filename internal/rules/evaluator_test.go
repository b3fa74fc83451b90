package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaf(fact string, op Operator, value any) Condition {
	return Condition{Fact: fact, Operator: op, Value: value}
}

func TestEvaluate_Operators(t *testing.T) {
	facts := map[string]any{
		"isOpen":          true,
		"name":            "Registration",
		"registrantCount": 12,
		"score":           7.5,
	}

	testCases := []struct {
		name       string
		condition  Condition
		expectPass bool
	}{
		{"equal bool", leaf("isOpen", OpEqual, true), true},
		{"equal bool mismatch", leaf("isOpen", OpEqual, false), false},
		{"equal string", leaf("name", OpEqual, "Registration"), true},
		{"notEqual string", leaf("name", OpNotEqual, "Submission"), true},
		{"equal int vs float", leaf("registrantCount", OpEqual, 12.0), true},
		{"greaterThan", leaf("registrantCount", OpGreaterThan, 10), true},
		{"greaterThan boundary", leaf("registrantCount", OpGreaterThan, 12), false},
		{"greaterOrEqual boundary", leaf("registrantCount", OpGreaterOrEqual, 12), true},
		{"lessThan", leaf("score", OpLessThan, 8), true},
		{"lessOrEqual", leaf("score", OpLessOrEqual, 7.5), true},
		{"in list", leaf("name", OpIn, []any{"Registration", "Submission"}), true},
		{"in list miss", leaf("name", OpIn, []any{"Review"}), false},
		{"in numeric list", leaf("registrantCount", OpIn, []any{1, 12}), true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := Evaluate(Rule{Name: "r", Conditions: tc.condition}, facts)
			assert.Equal(t, tc.expectPass, res.Passed)
		})
	}
}

func TestEvaluate_MissingFacts(t *testing.T) {
	facts := map[string]any{"present": 1}

	testCases := []struct {
		name       string
		condition  Condition
		expectPass bool
	}{
		{"numeric compare against missing is false", leaf("absent", OpGreaterOrEqual, 0), false},
		{"in against missing is false", leaf("absent", OpIn, []any{1}), false},
		{"equal nil detects missing", leaf("absent", OpEqual, nil), true},
		{"notEqual nil detects presence", leaf("present", OpNotEqual, nil), true},
		{"equal value against missing is false", leaf("absent", OpEqual, 1), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := Evaluate(Rule{Name: "r", Conditions: tc.condition}, facts)
			assert.Equal(t, tc.expectPass, res.Passed)
		})
	}
}

func TestEvaluate_ConditionTrees(t *testing.T) {
	facts := map[string]any{
		"isOpen":         false,
		"hasPredecessor": true,
		"count":          3,
	}

	testCases := []struct {
		name       string
		condition  Condition
		expectPass bool
	}{
		{
			name: "all passes when every child passes",
			condition: Condition{All: []Condition{
				leaf("isOpen", OpEqual, false),
				leaf("count", OpGreaterThan, 1),
			}},
			expectPass: true,
		},
		{
			name: "all fails on one failing child",
			condition: Condition{All: []Condition{
				leaf("isOpen", OpEqual, false),
				leaf("count", OpGreaterThan, 10),
			}},
			expectPass: false,
		},
		{
			name: "any passes on one passing child",
			condition: Condition{Any: []Condition{
				leaf("count", OpGreaterThan, 10),
				leaf("hasPredecessor", OpEqual, true),
			}},
			expectPass: true,
		},
		{
			name: "any fails when all children fail",
			condition: Condition{Any: []Condition{
				leaf("count", OpGreaterThan, 10),
				leaf("isOpen", OpEqual, true),
			}},
			expectPass: false,
		},
		{
			name: "nested any inside all",
			condition: Condition{All: []Condition{
				leaf("isOpen", OpEqual, false),
				{Any: []Condition{
					leaf("hasPredecessor", OpEqual, false),
					leaf("count", OpGreaterOrEqual, 3),
				}},
			}},
			expectPass: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := Evaluate(Rule{Name: "r", Conditions: tc.condition}, facts)
			assert.Equal(t, tc.expectPass, res.Passed)
		})
	}
}

func TestEvaluate_CollectsEveryFailedLeaf(t *testing.T) {
	facts := map[string]any{"a": 1, "b": 2}

	rule := Rule{
		Name: "multi",
		Conditions: Condition{All: []Condition{
			leaf("a", OpGreaterThan, 5),
			leaf("b", OpEqual, 2),
			leaf("c", OpGreaterOrEqual, 1),
		}},
	}

	res := Evaluate(rule, facts)
	require.False(t, res.Passed)
	require.Len(t, res.FailedConditions, 2)
	assert.Equal(t, "a", res.FailedConditions[0].Fact)
	assert.Equal(t, string(OpGreaterThan), res.FailedConditions[0].Operator)
	assert.Equal(t, 5, res.FailedConditions[0].Value)
	assert.Equal(t, "c", res.FailedConditions[1].Fact)
}

func TestEvaluateAll_FirstFailureWins(t *testing.T) {
	facts := map[string]any{"x": 1}

	rs := []Rule{
		{Name: "first", Conditions: leaf("x", OpEqual, 1)},
		{Name: "second", Conditions: leaf("x", OpEqual, 2)},
		{Name: "third", Conditions: leaf("x", OpEqual, 3)},
	}

	failed := EvaluateAll(rs, facts)
	require.NotNil(t, failed)
	assert.Equal(t, "second", failed.Rule)
}

func TestEvaluateAll_AllPass(t *testing.T) {
	facts := map[string]any{"x": 1}

	rs := []Rule{
		{Name: "only", Conditions: leaf("x", OpEqual, 1)},
	}
	assert.Nil(t, EvaluateAll(rs, facts))
	assert.Nil(t, EvaluateAll(nil, facts))
}

func TestCondition_Validate(t *testing.T) {
	testCases := []struct {
		name      string
		condition Condition
		wantErr   bool
	}{
		{"valid leaf", leaf("x", OpEqual, 1), false},
		{"valid all", Condition{All: []Condition{leaf("x", OpEqual, 1)}}, false},
		{"empty node", Condition{}, true},
		{"leaf with bad operator", leaf("x", Operator("looksLike"), 1), true},
		{"both all and fact", Condition{All: []Condition{leaf("x", OpEqual, 1)}, Fact: "y", Operator: OpEqual}, true},
		{"invalid nested child", Condition{Any: []Condition{{}}}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.condition.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
