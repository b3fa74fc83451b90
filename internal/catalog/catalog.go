// Package catalog provides the versioned, declarative rule catalog consulted
// on every phase advancement attempt. A Catalog is immutable once built;
// reloading constructs a whole new value.
package catalog

import (
	"fmt"
	"strings"

	"github.com/arenalabs/phaseflow/internal/model"
	"github.com/arenalabs/phaseflow/internal/rules"
)

type catalogKey struct {
	op    model.Operation
	phase string
}

// Catalog is a read-only table of essential rules and constraint allow-lists
// keyed by (operation, phase type).
type Catalog struct {
	version string
	rules   map[catalogKey][]rules.Rule
	allow   map[catalogKey]map[string]bool
}

// normalizePhaseName collapses case and whitespace so catalog keys match
// phase names regardless of spacing. Two differently-cased or -spaced names
// share a key; see DESIGN.md for why this behavior is preserved as-is.
func normalizePhaseName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), ""))
}

// New builds a catalog from a parsed catalog file.
func New(file *File) (*Catalog, error) {
	c := &Catalog{
		version: file.SchemaVersion,
		rules:   make(map[catalogKey][]rules.Rule),
		allow:   make(map[catalogKey]map[string]bool),
	}
	for _, ps := range file.Phases {
		phase := normalizePhaseName(ps.Type)
		if _, dup := c.rules[catalogKey{model.OperationOpen, phase}]; dup {
			return nil, fmt.Errorf("duplicate catalog entry for phase type %q", ps.Type)
		}
		for _, entry := range []struct {
			op  model.Operation
			set OperationRules
		}{
			{model.OperationOpen, ps.Open},
			{model.OperationClose, ps.Close},
		} {
			key := catalogKey{entry.op, phase}
			c.rules[key] = append([]rules.Rule(nil), entry.set.Rules...)
			allow := make(map[string]bool, len(entry.set.Constraints))
			for _, name := range entry.set.Constraints {
				allow[rules.NormalizeConstraintName(name)] = true
			}
			c.allow[key] = allow
		}
	}
	return c, nil
}

// Version returns the catalog schema version.
func (c *Catalog) Version() string {
	return c.version
}

// RulesFor returns the essential rules for an operation on a phase type, in
// declared order. An empty result is valid and means nothing to check. The
// returned slice is a copy; the catalog itself is never mutated.
func (c *Catalog) RulesFor(op model.Operation, phaseName string) []rules.Rule {
	rs := c.rules[catalogKey{op, normalizePhaseName(phaseName)}]
	if len(rs) == 0 {
		return nil
	}
	return append([]rules.Rule(nil), rs...)
}

// ConstraintAllowList returns the set of normalized constraint names enforced
// for an operation on a phase type.
func (c *Catalog) ConstraintAllowList(op model.Operation, phaseName string) map[string]bool {
	allow := c.allow[catalogKey{op, normalizePhaseName(phaseName)}]
	if len(allow) == 0 {
		return nil
	}
	out := make(map[string]bool, len(allow))
	for k, v := range allow {
		out[k] = v
	}
	return out
}

// RuleCount returns the total number of essential rules across all phase
// types and operations.
func (c *Catalog) RuleCount() int {
	n := 0
	for _, rs := range c.rules {
		n += len(rs)
	}
	return n
}
