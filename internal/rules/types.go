// Package rules implements the declarative rule model used to gate phase
// advancement: a boolean condition tree evaluated against a flat fact record.
package rules

import (
	"fmt"
	"strings"
)

// Operator is the comparison applied by a leaf condition.
type Operator string

const (
	OpEqual          Operator = "equal"
	OpNotEqual       Operator = "notEqual"
	OpGreaterThan    Operator = "greaterThan"
	OpGreaterOrEqual Operator = "greaterOrEqual"
	OpLessThan       Operator = "lessThan"
	OpLessOrEqual    Operator = "lessOrEqual"
	OpIn             Operator = "in"
)

var validOperators = map[Operator]bool{
	OpEqual:          true,
	OpNotEqual:       true,
	OpGreaterThan:    true,
	OpGreaterOrEqual: true,
	OpLessThan:       true,
	OpLessOrEqual:    true,
	OpIn:             true,
}

// Condition is one node of a boolean condition tree. Exactly one of All, Any,
// or Fact is set: All and Any combine children with AND/OR, Fact makes the
// node a leaf comparison against the fact record.
type Condition struct {
	All []Condition `yaml:"all,omitempty" json:"all,omitempty"`
	Any []Condition `yaml:"any,omitempty" json:"any,omitempty"`

	Fact     string   `yaml:"fact,omitempty" json:"fact,omitempty"`
	Operator Operator `yaml:"operator,omitempty" json:"operator,omitempty"`
	Value    any      `yaml:"value,omitempty" json:"value,omitempty"`
}

// IsLeaf reports whether the condition is a fact comparison.
func (c Condition) IsLeaf() bool {
	return c.Fact != ""
}

// Validate checks the structural well-formedness of the condition tree.
func (c Condition) Validate() error {
	set := 0
	if len(c.All) > 0 {
		set++
	}
	if len(c.Any) > 0 {
		set++
	}
	if c.IsLeaf() {
		set++
	}
	if set != 1 {
		return fmt.Errorf("condition must set exactly one of all, any, or fact")
	}
	if c.IsLeaf() {
		if !validOperators[c.Operator] {
			return fmt.Errorf("fact %q: invalid operator %q", c.Fact, c.Operator)
		}
		return nil
	}
	for _, child := range append(append([]Condition{}, c.All...), c.Any...) {
		if err := child.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Event describes what a fired rule means to the caller. The engine never
// dispatches events itself; the type travels with the rule as documentation
// of intent and for any downstream bus publication.
type Event struct {
	Type   string         `yaml:"type" json:"type"`
	Params map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
}

// Rule is a named condition tree. Catalog rules are immutable; constraint
// rules are synthesized per advancement attempt and discarded afterward.
type Rule struct {
	Name       string    `yaml:"name" json:"name"`
	Conditions Condition `yaml:"conditions" json:"conditions"`
	Event      Event     `yaml:"event" json:"event"`
}

// Validate checks that the rule is well formed.
func (r Rule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("rule name must not be empty")
	}
	if err := r.Conditions.Validate(); err != nil {
		return fmt.Errorf("rule %q: %w", r.Name, err)
	}
	return nil
}
