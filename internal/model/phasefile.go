package model

import "fmt"

const PhaseFileSchemaVersion = 1

// PhaseFile is the on-disk shape of one challenge's phase timeline, as read
// and written by the CLI. The engine itself only sees the Phases slice.
type PhaseFile struct {
	SchemaVersion int             `yaml:"schema_version"`
	ChallengeID   string          `yaml:"challenge_id"`
	Phases        []PhaseInstance `yaml:"phases"`
}

// Validate checks file-level invariants: ids present and unique, predecessor
// references resolvable. Cycle detection is deliberately out of scope.
func (f *PhaseFile) Validate() error {
	if f.SchemaVersion != PhaseFileSchemaVersion {
		return fmt.Errorf("unsupported phase file schema version %d", f.SchemaVersion)
	}
	if f.ChallengeID == "" {
		return fmt.Errorf("challenge_id is required")
	}
	ids := make(map[string]bool, len(f.Phases))
	for i, p := range f.Phases {
		if p.PhaseID == "" {
			return fmt.Errorf("phase %d (%s): missing phase_id", i, p.Name)
		}
		if ids[p.PhaseID] {
			return fmt.Errorf("duplicate phase_id %q", p.PhaseID)
		}
		ids[p.PhaseID] = true
		if p.Name == "" {
			return fmt.Errorf("phase %s: missing name", p.PhaseID)
		}
	}
	for _, p := range f.Phases {
		if p.HasPredecessor() && !ids[*p.PredecessorID] {
			return fmt.Errorf("phase %s references unknown predecessor %q", p.PhaseID, *p.PredecessorID)
		}
	}
	return nil
}
