package scenario

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"

	"github.com/roach88/callcache/internal/value"
)

//go:embed schema.cue
var schemaCUE string

// Script is a named list of steps.
type Script struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Steps       []Step `yaml:"steps"`
}

// Step holds exactly one of its fields.
type Step struct {
	Store  *StoreStep `yaml:"store,omitempty"`
	Get    *GetStep   `yaml:"get,omitempty"`
	Count  *CountStep `yaml:"count,omitempty"`
	Replay string     `yaml:"replay,omitempty"`
}

// StoreStep writes Value parsed as Kind.
type StoreStep struct {
	Kind  string `yaml:"kind"`
	Value string `yaml:"value"`
}

// GetStep reads a key and decodes it as As.
type GetStep struct {
	// Ref is the 0-based index of an earlier store step.
	Ref *int `yaml:"ref,omitempty"`

	// Key is a literal key, used when Ref is nil.
	Key string `yaml:"key,omitempty"`

	As string `yaml:"as"`

	// Expect, when set, must equal the decoded value's String form.
	Expect *string `yaml:"expect,omitempty"`

	// Missing expects the key to be absent.
	Missing bool `yaml:"missing,omitempty"`
}

// CountStep checks that the counter for Name equals Expect.
type CountStep struct {
	Name   string `yaml:"name"`
	Expect int64  `yaml:"expect"`
}

// LoadScript reads and validates a script file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script file: %w", err)
	}
	return ParseScript(path, data)
}

// ParseScript decodes and validates script YAML. filename is used in
// error messages only.
func ParseScript(filename string, data []byte) (*Script, error) {
	var script Script
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&script); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := checkSchema(filename, data); err != nil {
		return nil, fmt.Errorf("invalid script: %w", err)
	}
	if err := validateScript(&script); err != nil {
		return nil, fmt.Errorf("invalid script: %w", err)
	}
	return &script, nil
}

// checkSchema validates raw YAML against the embedded CUE schema.
func checkSchema(filename string, data []byte) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile script schema: %w", err)
	}

	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return err
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return err
	}

	unified := schema.LookupPath(cue.ParsePath("#Script")).Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%s", cueerrors.Details(err, nil))
	}
	return nil
}

// validateScript checks what the schema cannot: one kind per step, refs
// that point backwards, and values that parse as their kind.
func validateScript(s *Script) error {
	stores := 0
	for i, step := range s.Steps {
		set := 0
		if step.Store != nil {
			set++
		}
		if step.Get != nil {
			set++
		}
		if step.Count != nil {
			set++
		}
		if step.Replay != "" {
			set++
		}
		if set != 1 {
			return fmt.Errorf("steps[%d]: exactly one of store, get, count, replay is required", i)
		}

		switch {
		case step.Store != nil:
			kind, err := value.ParseKind(step.Store.Kind)
			if err != nil {
				return fmt.Errorf("steps[%d].store: %w", i, err)
			}
			if _, err := value.Parse(kind, step.Store.Value); err != nil {
				return fmt.Errorf("steps[%d].store: %w", i, err)
			}
			stores++

		case step.Get != nil:
			g := step.Get
			if _, err := value.ParseKind(g.As); err != nil {
				return fmt.Errorf("steps[%d].get: %w", i, err)
			}
			if (g.Ref == nil) == (g.Key == "") {
				return fmt.Errorf("steps[%d].get: exactly one of ref, key is required", i)
			}
			if g.Ref != nil && *g.Ref >= stores {
				return fmt.Errorf("steps[%d].get: ref %d does not name an earlier store step (%d so far)", i, *g.Ref, stores)
			}
			if g.Missing && g.Expect != nil {
				return fmt.Errorf("steps[%d].get: expect and missing are mutually exclusive", i)
			}
		}
	}
	return nil
}
