// Package buildings provides a fluent builder for test buildings that declare
// custom budget department entries.
//
// Example usage:
//
//	school := buildings.NewBuilder(t, 0x1234).
//		WithDepartment(buildings.DepartmentSchools, model.BudgetGroupHealthAndEducation).
//		WithExpense(buildings.DepartmentSchools, buildings.LineStaff, 250).
//		Build()
//
//	manager.InsertOccupant(school)
package buildings

import (
	"testing"

	"github.com/sc4plugins/custom-budget-departments/internal/algorithm"
	"github.com/sc4plugins/custom-budget-departments/internal/hostsim"
	"github.com/sc4plugins/custom-budget-departments/internal/model"
)

// Department and line ids shared by tests.
const (
	DepartmentSchools model.DepartmentID = 0xDE000001
	DepartmentParks   model.DepartmentID = 0xDE000002
	DepartmentTourism model.DepartmentID = 0xDE000003

	LineStaff       model.LineNumber = 0x00000010
	LineMaintenance model.LineNumber = 0x00000011
	LineTickets     model.LineNumber = 0x00000020
	LineVisitors    model.LineNumber = 0x00000021
)

// Builder constructs a building occupant.
type Builder interface {
	// WithExpense declares an expense entry costing cost per building.
	WithExpense(dept model.DepartmentID, line model.LineNumber, cost int64) Builder

	// WithIncome declares an income entry earning amount per building.
	WithIncome(dept model.DepartmentID, line model.LineNumber, amount int64) Builder

	// WithPurpose declares an entry with a raw purpose code.
	WithPurpose(purpose uint32, dept model.DepartmentID, line model.LineNumber, cost int64) Builder

	// WithDepartment adds the department's budget group and a name key
	// derived from its id.
	WithDepartment(dept model.DepartmentID, group model.BudgetGroup) Builder

	// WithAlgorithm assigns an algorithm type to a line.
	WithAlgorithm(line model.LineNumber, t algorithm.Type) Builder

	// WithRationalFactors appends a row to the algorithm's rational factor table.
	WithRationalFactors(t algorithm.Type, line model.LineNumber, values ...int64) Builder

	// WithProperty sets a raw property, overriding anything Build derives.
	WithProperty(id uint32, value model.PropertyValue) Builder

	// Build returns the building.
	Build() *hostsim.Building
}

type entry struct {
	purpose uint32
	dept    model.DepartmentID
	line    model.LineNumber
	cost    int64
}

type department struct {
	id    model.DepartmentID
	group model.BudgetGroup
}

type buildingBuilder struct {
	t            *testing.T
	overrides    hostsim.Properties
	tables       map[uint32][]int64
	entries      []entry
	departments  []department
	algorithms   []uint32
	buildingType uint32
}

// NewBuilder creates a builder for a building of the given type.
func NewBuilder(t *testing.T, buildingType uint32) Builder {
	t.Helper()
	return &buildingBuilder{
		t:            t,
		buildingType: buildingType,
		overrides:    make(hostsim.Properties),
		tables:       make(map[uint32][]int64),
	}
}

func (b *buildingBuilder) WithExpense(dept model.DepartmentID, line model.LineNumber, cost int64) Builder {
	return b.WithPurpose(model.PurposeExpense, dept, line, cost)
}

func (b *buildingBuilder) WithIncome(dept model.DepartmentID, line model.LineNumber, amount int64) Builder {
	return b.WithPurpose(model.PurposeIncome, dept, line, amount)
}

func (b *buildingBuilder) WithPurpose(purpose uint32, dept model.DepartmentID, line model.LineNumber, cost int64) Builder {
	b.entries = append(b.entries, entry{purpose: purpose, dept: dept, line: line, cost: cost})
	return b
}

func (b *buildingBuilder) WithDepartment(dept model.DepartmentID, group model.BudgetGroup) Builder {
	b.departments = append(b.departments, department{id: dept, group: group})
	return b
}

func (b *buildingBuilder) WithAlgorithm(line model.LineNumber, t algorithm.Type) Builder {
	b.algorithms = append(b.algorithms, uint32(line), uint32(t))
	return b
}

func (b *buildingBuilder) WithRationalFactors(t algorithm.Type, line model.LineNumber, values ...int64) Builder {
	b.t.Helper()

	var id uint32
	switch t {
	case algorithm.ResidentialTotalPopulation:
		id = algorithm.PropertyResidentialTotalPopulationTable
	case algorithm.ResidentialWealthGroupPopulation:
		id = algorithm.PropertyResidentialWealthGroupPopulationTable
	case algorithm.Tourism:
		id = algorithm.PropertyTourismTable
	default:
		b.t.Fatalf("algorithm %s has no factor table", t)
	}

	b.tables[id] = append(append(b.tables[id], int64(line)), values...)
	return b
}

func (b *buildingBuilder) WithProperty(id uint32, value model.PropertyValue) Builder {
	b.overrides[id] = value
	return b
}

func (b *buildingBuilder) Build() *hostsim.Building {
	props := make(hostsim.Properties)

	if len(b.entries) > 0 {
		purposes := make([]uint32, len(b.entries))
		depts := make([]uint32, len(b.entries))
		lines := make([]uint32, len(b.entries))
		costs := make([]int64, len(b.entries))
		for i, e := range b.entries {
			purposes[i], depts[i], lines[i], costs[i] = e.purpose, uint32(e.dept), uint32(e.line), e.cost
		}
		props[model.PropertyBudgetItemPurpose] = model.Uint32Array(purposes...)
		props[model.PropertyBudgetItemDepartment] = model.Uint32Array(depts...)
		props[model.PropertyBudgetItemLine] = model.Uint32Array(lines...)
		props[model.PropertyBudgetItemCost] = model.Sint64Array(costs...)
	}

	if len(b.departments) > 0 {
		groups := make([]uint32, 0, 2*len(b.departments))
		names := make([]uint32, 0, 3*len(b.departments))
		for _, d := range b.departments {
			key := NameKey(d.id)
			groups = append(groups, uint32(d.id), uint32(d.group))
			names = append(names, uint32(d.id), key.GroupID, key.InstanceID)
		}
		props[model.PropertyDepartmentBudgetGroup] = model.Uint32Array(groups...)
		props[model.PropertyDepartmentNameKey] = model.Uint32Array(names...)
	}

	if len(b.algorithms) > 0 {
		props[model.PropertyLineItemAlgorithm] = model.Uint32Array(b.algorithms...)
	}
	for id, values := range b.tables {
		props[id] = model.Sint64Array(values...)
	}
	for id, value := range b.overrides {
		props[id] = value
	}

	return &hostsim.Building{Type: b.buildingType, Properties: props}
}

// NameKey is the name key WithDepartment assigns to a department.
func NameKey(dept model.DepartmentID) model.StringResourceKey {
	return model.StringResourceKey{GroupID: 0x6A231EAA, InstanceID: uint32(dept)}
}
