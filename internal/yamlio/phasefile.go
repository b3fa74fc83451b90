package yamlio

import (
	"bytes"
	"fmt"
	"os"

	yamlv3 "gopkg.in/yaml.v3"

	"github.com/arenalabs/phaseflow/internal/model"
)

// ReadPhaseFile loads and validates a phase timeline file. Decoding is
// strict: unknown fields are rejected.
func ReadPhaseFile(path string) (*model.PhaseFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read phase file %s: %w", path, err)
	}

	var file model.PhaseFile
	dec := yamlv3.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("phase file %s: yaml decode: %w", path, err)
	}
	if err := file.Validate(); err != nil {
		return nil, fmt.Errorf("phase file %s: %w", path, err)
	}
	return &file, nil
}

// WritePhaseFile persists a phase timeline file atomically.
func WritePhaseFile(path string, file *model.PhaseFile) error {
	if err := file.Validate(); err != nil {
		return fmt.Errorf("phase file: %w", err)
	}
	return AtomicWrite(path, file)
}
