package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const phaseIDPrefix = "phase-"

// NewPhaseID generates a fresh phase instance id.
func NewPhaseID() string {
	return phaseIDPrefix + uuid.NewString()
}

// ValidatePhaseID checks that an id was produced by NewPhaseID.
func ValidatePhaseID(id string) error {
	raw, ok := strings.CutPrefix(id, phaseIDPrefix)
	if !ok {
		return fmt.Errorf("invalid phase id %q: missing %q prefix", id, phaseIDPrefix)
	}
	if _, err := uuid.Parse(raw); err != nil {
		return fmt.Errorf("invalid phase id %q: %w", id, err)
	}
	return nil
}
