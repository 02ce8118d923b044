// Package scenario loads YAML descriptions of buildings and a city, compiles
// them into host buildings and replays a list of steps through the engine.
package scenario

import (
	"fmt"
	"io"
	"os"

	"github.com/sc4plugins/custom-budget-departments/internal/algorithm"
	"github.com/sc4plugins/custom-budget-departments/internal/common"
	"github.com/sc4plugins/custom-budget-departments/internal/model"
	"gopkg.in/yaml.v3"
)

// Scenario is a city, the buildings that can be placed in it and the steps
// to replay.
type Scenario struct {
	Buildings   map[string]Building `yaml:"buildings"`
	Name        string              `yaml:"name"`
	Encoding    string              `yaml:"encoding"`
	Departments []Department        `yaml:"departments"`
	Steps       []Step              `yaml:"steps"`
	City        City                `yaml:"city"`
}

// City describes the population figures the engine will see.
type City struct {
	Tiers      Tiers        `yaml:"tiers"`
	Region     []RegionCity `yaml:"region"`
	Population int32        `yaml:"population"`
	X          int32        `yaml:"x"`
	Z          int32        `yaml:"z"`
}

// Tiers holds per wealth tier population figures.
type Tiers struct {
	Low    int64 `yaml:"low"`
	Medium int64 `yaml:"medium"`
	High   int64 `yaml:"high"`
}

// RegionCity is another city tile of the region.
type RegionCity struct {
	Established *bool `yaml:"established"`
	Tiers       Tiers `yaml:"tiers"`
	Population  int64 `yaml:"population"`
	X           int32 `yaml:"x"`
	Z           int32 `yaml:"z"`
}

// Department declares a custom budget department.
type Department struct {
	Group   string `yaml:"group"`
	ID      uint32 `yaml:"id"`
	NameKey Key    `yaml:"name"`
}

// Key is a localized string resource key.
type Key struct {
	Group    uint32 `yaml:"group"`
	Instance uint32 `yaml:"instance"`
}

// Building is a building type declaring custom budget entries.
type Building struct {
	Entries []Entry `yaml:"entries"`
	Type    uint32  `yaml:"type"`
}

// Entry is one custom budget entry of a building.
type Entry struct {
	Tourism    *TourismFactors `yaml:"tourism"`
	Purpose    string          `yaml:"purpose"`
	Algorithm  string          `yaml:"algorithm"`
	Factor     string          `yaml:"factor"`
	Factors    []string        `yaml:"factors"`
	Department uint32          `yaml:"department"`
	Line       uint32          `yaml:"line"`
	Cost       int64           `yaml:"cost"`
}

// TourismFactors parameterizes the tourism algorithm.
type TourismFactors struct {
	Factor      string `yaml:"factor"`
	Geopolitics int64  `yaml:"geopolitics"`
}

// Step is one action of the replay. Exactly one action field is set.
type Step struct {
	Population *int32 `yaml:"population"`
	Insert     string `yaml:"insert"`
	Remove     string `yaml:"remove"`
	Count      int    `yaml:"count"`
	Month      int    `yaml:"month"`
	Save       bool   `yaml:"save"`
	Load       bool   `yaml:"load"`
}

// Action names the step's action.
type Action string

// Step actions.
const (
	ActionInsert     Action = "insert"
	ActionRemove     Action = "remove"
	ActionMonth      Action = "month"
	ActionPopulation Action = "population"
	ActionSave       Action = "save"
	ActionLoad       Action = "load"
)

// Action returns the step's action or an error when it sets none or several.
func (s Step) Action() (Action, error) {
	var actions []Action
	if s.Insert != "" {
		actions = append(actions, ActionInsert)
	}
	if s.Remove != "" {
		actions = append(actions, ActionRemove)
	}
	if s.Month != 0 {
		actions = append(actions, ActionMonth)
	}
	if s.Population != nil {
		actions = append(actions, ActionPopulation)
	}
	if s.Save {
		actions = append(actions, ActionSave)
	}
	if s.Load {
		actions = append(actions, ActionLoad)
	}
	if len(actions) != 1 {
		return "", fmt.Errorf("step must set exactly one action, got %v", actions)
	}
	return actions[0], nil
}

// Times returns how often an insert or remove step repeats.
func (s Step) Times() int {
	if s.Count <= 0 {
		return 1
	}
	return s.Count
}

// LoadFile reads and validates a scenario file.
func LoadFile(path string) (*Scenario, error) {
	f, err := os.Open(path) //nolint:gosec // user supplied scenario path
	if err != nil {
		return nil, fmt.Errorf("failed to open scenario: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Parse(f)
}

// Parse decodes and validates a scenario.
func Parse(r io.Reader) (*Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Scenario
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: scenario: %w", common.ErrInvalidConfig, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks references between steps, buildings and departments.
func (s *Scenario) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: scenario: %s", common.ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	encoding, err := algorithm.ParseFactorEncoding(s.Encoding)
	if err != nil {
		return err
	}

	departments := make(map[uint32]bool, len(s.Departments))
	for _, d := range s.Departments {
		if departments[d.ID] {
			return invalid("department %s declared twice", common.Hex(d.ID))
		}
		departments[d.ID] = true
		if _, ok := model.ParseBudgetGroup(d.Group); !ok {
			return invalid("department %s has unknown budget group %q", common.Hex(d.ID), d.Group)
		}
	}

	for name, b := range s.Buildings {
		if len(b.Entries) == 0 {
			return invalid("building %q declares no entries", name)
		}
		for i, e := range b.Entries {
			if !departments[e.Department] {
				return invalid("building %q entry %d uses undeclared department %s", name, i, common.Hex(e.Department))
			}
			if _, err := e.itemPurpose(); err != nil {
				return invalid("building %q entry %d: %v", name, i, err)
			}
			if _, err := e.algorithmType(); err != nil {
				return invalid("building %q entry %d: %v", name, i, err)
			}
		}
	}

	for i, step := range s.Steps {
		action, err := step.Action()
		if err != nil {
			return invalid("step %d: %v", i+1, err)
		}
		switch action {
		case ActionInsert, ActionRemove:
			name := step.Insert + step.Remove
			if _, ok := s.Buildings[name]; !ok {
				return invalid("step %d references unknown building %q", i+1, name)
			}
		case ActionMonth:
			if step.Month < 0 {
				return invalid("step %d: month count must be positive", i+1)
			}
		}
	}

	_, err = s.Compile(encoding)
	return err
}

// Months returns the total number of month ticks the steps perform.
func (s *Scenario) Months() int {
	months := 0
	for _, step := range s.Steps {
		months += step.Month
	}
	return months
}

func (e Entry) itemPurpose() (uint32, error) {
	switch e.Purpose {
	case "expense", "":
		return model.PurposeExpense, nil
	case "income":
		return model.PurposeIncome, nil
	default:
		return 0, fmt.Errorf("unknown purpose %q", e.Purpose)
	}
}

func (e Entry) algorithmType() (algorithm.Type, error) {
	if e.Algorithm == "" {
		return algorithm.Fixed, nil
	}
	t, ok := algorithm.ParseType(e.Algorithm)
	if !ok {
		return 0, fmt.Errorf("unknown algorithm %q", e.Algorithm)
	}
	return t, nil
}
