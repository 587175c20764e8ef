package rules

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlRulesetFile wraps the YAML top-level key.
type yamlRulesetFile struct {
	Ruleset *rulesetDoc `yaml:"ruleset"`
}

type rulesetDoc struct {
	ID        string      `yaml:"id"`
	Units     []*UnitType `yaml:"units"`
	Buildings []*Building `yaml:"buildings"`
	Constants *Constants  `yaml:"constants"`
}

// validate checks id uniqueness and cross-references within one document.
//
// Postcondition: nil return guarantees unique unit/building IDs, non-empty
// IDs, and all ReqBuilding references resolve to a declared building.
func (d *rulesetDoc) validate() error {
	if d.ID == "" {
		return errors.New("rules: ruleset ID must not be empty")
	}
	unitIDs := make(map[string]struct{}, len(d.Units))
	for _, u := range d.Units {
		if u.ID == "" {
			return fmt.Errorf("rules: ruleset %q: unit with empty ID", d.ID)
		}
		if _, dup := unitIDs[u.ID]; dup {
			return fmt.Errorf("rules: ruleset %q: duplicate unit ID %q", d.ID, u.ID)
		}
		unitIDs[u.ID] = struct{}{}
		if u.MoveRate < 0 || u.BuildCost < 0 {
			return fmt.Errorf("rules: ruleset %q: unit %q has negative stats", d.ID, u.ID)
		}
	}
	bldIDs := make(map[string]struct{}, len(d.Buildings))
	for _, b := range d.Buildings {
		if b.ID == "" {
			return fmt.Errorf("rules: ruleset %q: building with empty ID", d.ID)
		}
		if _, dup := bldIDs[b.ID]; dup {
			return fmt.Errorf("rules: ruleset %q: duplicate building ID %q", d.ID, b.ID)
		}
		bldIDs[b.ID] = struct{}{}
		if b.Category == "" {
			return fmt.Errorf("rules: ruleset %q: building %q has no category", d.ID, b.ID)
		}
	}
	for _, b := range d.Buildings {
		if b.ReqBuilding == "" {
			continue
		}
		if _, ok := bldIDs[b.ReqBuilding]; !ok {
			return fmt.Errorf("rules: ruleset %q: building %q requires unknown building %q",
				d.ID, b.ID, b.ReqBuilding)
		}
	}
	return nil
}

// Load reads all *.yaml files from dir and merges them into one Registry.
//
// Precondition: dir must be a readable directory.
// Postcondition: returns error if any file fails to parse or validate, or
// if two files declare the same unit/building ID.
func Load(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("rules.Load: reading %q: %w", dir, err)
	}
	var units []*UnitType
	var buildings []*Building
	constants := defaultConstants()
	seenUnits := make(map[string]string)
	seenBlds := make(map[string]string)

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("rules.Load: reading %s: %w", e.Name(), err)
		}
		var f yamlRulesetFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("rules.Load: parsing %s: %w", e.Name(), err)
		}
		if f.Ruleset == nil {
			return nil, fmt.Errorf("rules.Load: %s missing top-level 'ruleset' key", e.Name())
		}
		if err := f.Ruleset.validate(); err != nil {
			return nil, err
		}
		for _, u := range f.Ruleset.Units {
			if prev, dup := seenUnits[u.ID]; dup {
				return nil, fmt.Errorf("rules.Load: unit %q declared in both %s and %s", u.ID, prev, e.Name())
			}
			seenUnits[u.ID] = e.Name()
			units = append(units, u)
		}
		for _, b := range f.Ruleset.Buildings {
			if prev, dup := seenBlds[b.ID]; dup {
				return nil, fmt.Errorf("rules.Load: building %q declared in both %s and %s", b.ID, prev, e.Name())
			}
			seenBlds[b.ID] = e.Name()
			buildings = append(buildings, b)
		}
		if f.Ruleset.Constants != nil {
			constants = *f.Ruleset.Constants
		}
	}
	return NewRegistry(units, buildings, constants), nil
}
