package engine

import (
	"testing"

	"github.com/sc4plugins/custom-budget-departments/internal/common"
	"github.com/sc4plugins/custom-budget-departments/internal/hostsim"
	"github.com/sc4plugins/custom-budget-departments/internal/model"
	"github.com/sc4plugins/custom-budget-departments/internal/testutil/buildings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractDepartmentInfo(t *testing.T) {
	museum := buildings.Museum(t)

	infos, err := ExtractDepartmentInfo(museum.Properties)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	assert.Equal(t, model.DepartmentInfo{
		Type:        model.ItemTypeIncome,
		Department:  buildings.DepartmentTourism,
		Line:        buildings.LineTickets,
		BudgetGroup: model.BudgetGroupBusinessDeals,
		Cost:        0,
		NameKey:     buildings.NameKey(buildings.DepartmentTourism),
	}, infos[0])
	assert.Equal(t, model.ItemTypeExpense, infos[1].Type)
	assert.Equal(t, buildings.LineStaff, infos[1].Line)
	assert.Equal(t, int64(40), infos[1].Cost)
}

func TestExtractDepartmentInfo_SharedDepartmentTables(t *testing.T) {
	building := buildings.NewBuilder(t, 1).
		WithDepartment(buildings.DepartmentSchools, model.BudgetGroupHealthAndEducation).
		WithDepartment(buildings.DepartmentParks, model.BudgetGroupCityBeautification).
		WithExpense(buildings.DepartmentSchools, buildings.LineStaff, 10).
		WithExpense(buildings.DepartmentParks, buildings.LineStaff, 20).
		WithIncome(buildings.DepartmentSchools, buildings.LineTickets, 30).
		Build()

	infos, err := ExtractDepartmentInfo(building.Properties)
	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Equal(t, model.BudgetGroupHealthAndEducation, infos[0].BudgetGroup)
	assert.Equal(t, model.BudgetGroupCityBeautification, infos[1].BudgetGroup)
	assert.Equal(t, model.BudgetGroupHealthAndEducation, infos[2].BudgetGroup)
}

func TestExtractDepartmentInfo_NotADeclaration(t *testing.T) {
	tests := []struct {
		props hostsim.Properties
		name  string
	}{
		{name: "no properties", props: hostsim.Properties{}},
		{name: "empty purpose array", props: hostsim.Properties{
			model.PropertyBudgetItemPurpose: model.Uint32Array(),
		}},
		{name: "purpose of the wrong kind", props: hostsim.Properties{
			model.PropertyBudgetItemPurpose: model.Sint64Array(int64(model.PurposeExpense)),
		}},
		{name: "unrecognized purpose", props: buildings.NewBuilder(t, 1).
			WithDepartment(buildings.DepartmentSchools, model.BudgetGroupHealthAndEducation).
			WithExpense(buildings.DepartmentSchools, buildings.LineStaff, 10).
			WithPurpose(0x12345678, buildings.DepartmentSchools, buildings.LineMaintenance, 10).
			Build().Properties},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			infos, err := ExtractDepartmentInfo(tt.props)
			assert.NoError(t, err)
			assert.Empty(t, infos)
		})
	}

	infos, err := ExtractDepartmentInfo(nil)
	assert.NoError(t, err)
	assert.Empty(t, infos)
}

func TestExtractDepartmentInfo_Malformed(t *testing.T) {
	school := func() hostsim.Properties {
		return buildings.NewBuilder(t, 1).
			WithDepartment(buildings.DepartmentSchools, model.BudgetGroupHealthAndEducation).
			WithExpense(buildings.DepartmentSchools, buildings.LineStaff, 10).
			WithExpense(buildings.DepartmentSchools, buildings.LineMaintenance, 20).
			Build().Properties
	}

	tests := []struct {
		mutate func(hostsim.Properties)
		name   string
	}{
		{name: "missing department array", mutate: func(p hostsim.Properties) {
			delete(p, model.PropertyBudgetItemDepartment)
		}},
		{name: "line array of the wrong kind", mutate: func(p hostsim.Properties) {
			p[model.PropertyBudgetItemLine] = model.Sint64Array(0x10, 0x11)
		}},
		{name: "cost array of the wrong kind", mutate: func(p hostsim.Properties) {
			p[model.PropertyBudgetItemCost] = model.Uint32Array(10, 20)
		}},
		{name: "missing budget group table", mutate: func(p hostsim.Properties) {
			delete(p, model.PropertyDepartmentBudgetGroup)
		}},
		{name: "budget group table not in pairs", mutate: func(p hostsim.Properties) {
			p[model.PropertyDepartmentBudgetGroup] = model.Uint32Array(uint32(buildings.DepartmentSchools), uint32(model.BudgetGroupUtilities), 7)
		}},
		{name: "name table not in triples", mutate: func(p hostsim.Properties) {
			p[model.PropertyDepartmentNameKey] = model.Uint32Array(uint32(buildings.DepartmentSchools), 1)
		}},
		{name: "fewer lines than purposes", mutate: func(p hostsim.Properties) {
			p[model.PropertyBudgetItemLine] = model.Uint32Array(0x10)
		}},
		{name: "more costs than purposes", mutate: func(p hostsim.Properties) {
			p[model.PropertyBudgetItemCost] = model.Sint64Array(10, 20, 30)
		}},
		{name: "extra budget group entry", mutate: func(p hostsim.Properties) {
			p[model.PropertyDepartmentBudgetGroup] = model.Uint32Array(
				uint32(buildings.DepartmentSchools), uint32(model.BudgetGroupUtilities),
				uint32(buildings.DepartmentParks), uint32(model.BudgetGroupUtilities),
			)
		}},
		{name: "department missing from tables", mutate: func(p hostsim.Properties) {
			p[model.PropertyDepartmentBudgetGroup] = model.Uint32Array(uint32(buildings.DepartmentParks), uint32(model.BudgetGroupUtilities))
			p[model.PropertyDepartmentNameKey] = model.Uint32Array(uint32(buildings.DepartmentParks), 1, 2)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			props := school()
			tt.mutate(props)

			infos, err := ExtractDepartmentInfo(props)
			assert.ErrorIs(t, err, common.ErrMalformedData)
			assert.Empty(t, infos, "the whole building is rejected")
		})
	}
}
