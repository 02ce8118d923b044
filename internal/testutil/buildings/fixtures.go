package buildings

import (
	"testing"

	"github.com/sc4plugins/custom-budget-departments/internal/algorithm"
	"github.com/sc4plugins/custom-budget-departments/internal/hostsim"
	"github.com/sc4plugins/custom-budget-departments/internal/model"
)

// Building types used by the fixtures.
const (
	TypeSchool   uint32 = 0x5C000001
	TypePark     uint32 = 0x5C000002
	TypeMuseum   uint32 = 0x5C000003
	TypeBoutique uint32 = 0x5C000004
)

// School has a fixed staff expense of 250 in the schools department.
func School(t *testing.T) *hostsim.Building {
	t.Helper()
	return NewBuilder(t, TypeSchool).
		WithDepartment(DepartmentSchools, model.BudgetGroupHealthAndEducation).
		WithExpense(DepartmentSchools, LineStaff, 250).
		Build()
}

// Park has a maintenance expense of 100 plus half a simoleon per 100
// residents, in the parks department.
func Park(t *testing.T) *hostsim.Building {
	t.Helper()
	return NewBuilder(t, TypePark).
		WithDepartment(DepartmentParks, model.BudgetGroupCityBeautification).
		WithExpense(DepartmentParks, LineMaintenance, 100).
		WithAlgorithm(LineMaintenance, algorithm.ResidentialTotalPopulation).
		WithRationalFactors(algorithm.ResidentialTotalPopulation, LineMaintenance, 1, 200).
		Build()
}

// Museum earns ticket income driven by tourism and carries a fixed staff
// expense, both in the tourism department.
func Museum(t *testing.T) *hostsim.Building {
	t.Helper()
	return NewBuilder(t, TypeMuseum).
		WithDepartment(DepartmentTourism, model.BudgetGroupBusinessDeals).
		WithIncome(DepartmentTourism, LineTickets, 0).
		WithExpense(DepartmentTourism, LineStaff, 40).
		WithAlgorithm(LineTickets, algorithm.Tourism).
		WithRationalFactors(algorithm.Tourism, LineTickets, 1, 2, 2).
		Build()
}

// Boutique earns income from each wealth tier of the city.
func Boutique(t *testing.T) *hostsim.Building {
	t.Helper()
	return NewBuilder(t, TypeBoutique).
		WithDepartment(DepartmentTourism, model.BudgetGroupBusinessDeals).
		WithIncome(DepartmentTourism, LineVisitors, 10).
		WithAlgorithm(LineVisitors, algorithm.ResidentialWealthGroupPopulation).
		WithRationalFactors(algorithm.ResidentialWealthGroupPopulation, LineVisitors, 1, 100, 2, 100, 3, 100).
		Build()
}
