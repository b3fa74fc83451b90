package catalog

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	yamlv3 "gopkg.in/yaml.v3"

	"github.com/arenalabs/phaseflow/internal/model"
	"github.com/arenalabs/phaseflow/internal/rules"
)

//go:embed default.yaml
var defaultFS embed.FS

const schemaVersion = "1.0.0"

// File is the on-disk shape of a rule catalog.
type File struct {
	SchemaVersion string       `yaml:"schema_version"`
	Phases        []PhaseRules `yaml:"phases"`
}

// PhaseRules holds the rule sets for one phase type.
type PhaseRules struct {
	Type  string         `yaml:"type"`
	Open  OperationRules `yaml:"open"`
	Close OperationRules `yaml:"close"`
}

// OperationRules holds the essential rules and the constraint allow-list for
// one operation. Constraints lists the display names of phase constraints
// that are enforced during this operation.
type OperationRules struct {
	Rules       []rules.Rule `yaml:"rules"`
	Constraints []string     `yaml:"constraints"`
}

// LoadBytes parses, validates, and builds a catalog from YAML bytes.
// Decoding is strict: unknown fields are rejected.
func LoadBytes(data []byte) (*Catalog, error) {
	file, err := parseFile(data)
	if err != nil {
		return nil, err
	}
	if err := validateFile(file); err != nil {
		return nil, err
	}
	applyDefaults(file)
	return New(file)
}

// LoadFile loads a catalog from a single YAML file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	cat, err := LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return cat, nil
}

// LoadDir loads every .yaml/.yml file in a directory (sorted by name) and
// merges their phase entries into one catalog. Phase types must not repeat
// across files.
func LoadDir(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read catalog dir %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("catalog dir %s contains no yaml files", dir)
	}
	sort.Strings(paths)

	merged := &File{SchemaVersion: schemaVersion}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", path, err)
		}
		file, err := parseFile(data)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: %w", path, err)
		}
		if err := validateFile(file); err != nil {
			return nil, fmt.Errorf("catalog %s: %w", path, err)
		}
		merged.Phases = append(merged.Phases, file.Phases...)
	}
	applyDefaults(merged)
	return New(merged)
}

// Default returns the embedded default catalog.
func Default() (*Catalog, error) {
	data, err := defaultFS.ReadFile("default.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded catalog: %w", err)
	}
	cat, err := LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("embedded catalog: %w", err)
	}
	return cat, nil
}

func parseFile(data []byte) (*File, error) {
	var file File
	dec := yamlv3.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("yaml decode: %w", err)
	}
	return &file, nil
}

func validateFile(file *File) error {
	if file.SchemaVersion == "" {
		return fmt.Errorf("schema_version is required")
	}
	if file.SchemaVersion != schemaVersion {
		return fmt.Errorf("unsupported schema version %q", file.SchemaVersion)
	}
	seen := make(map[string]bool)
	for i, ps := range file.Phases {
		if ps.Type == "" {
			return fmt.Errorf("phase entry %d: missing type", i)
		}
		key := normalizePhaseName(ps.Type)
		if seen[key] {
			return fmt.Errorf("duplicate phase type %q", ps.Type)
		}
		seen[key] = true
		for _, r := range ps.Open.Rules {
			if err := r.Validate(); err != nil {
				return fmt.Errorf("phase %q open: %w", ps.Type, err)
			}
		}
		for _, r := range ps.Close.Rules {
			if err := r.Validate(); err != nil {
				return fmt.Errorf("phase %q close: %w", ps.Type, err)
			}
		}
		if len(ps.Open.Constraints) > 0 {
			// constraint compilation is close-only; an open allow-list would
			// never be consulted
			return fmt.Errorf("phase %q: constraints are only supported under close", ps.Type)
		}
	}
	return nil
}

func applyDefaults(file *File) {
	for i := range file.Phases {
		ps := &file.Phases[i]
		for j := range ps.Open.Rules {
			if ps.Open.Rules[j].Event.Type == "" {
				ps.Open.Rules[j].Event.Type = eventTypeFor(model.OperationOpen)
			}
		}
		for j := range ps.Close.Rules {
			if ps.Close.Rules[j].Event.Type == "" {
				ps.Close.Rules[j].Event.Type = eventTypeFor(model.OperationClose)
			}
		}
	}
}

func eventTypeFor(op model.Operation) string {
	if op == model.OperationOpen {
		return "phaseOpened"
	}
	return "phaseClosed"
}
