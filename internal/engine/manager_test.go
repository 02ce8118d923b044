package engine

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/sc4plugins/custom-budget-departments/internal/algorithm"
	"github.com/sc4plugins/custom-budget-departments/internal/common"
	"github.com/sc4plugins/custom-budget-departments/internal/hostsim"
	"github.com/sc4plugins/custom-budget-departments/internal/model"
	"github.com/sc4plugins/custom-budget-departments/internal/service"
	"github.com/sc4plugins/custom-budget-departments/internal/testutil/buildings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestCity returns a city of 1000 residents with wealth tiers of 100, 200
// and 300, next to one established city of 100 per tier.
func newTestCity() *hostsim.City {
	city := hostsim.NewCity()
	city.Residential.Value = 1000
	city.Demand[model.DemandResidentialLowWealth] = 100
	city.Demand[model.DemandResidentialMediumWealth] = 200
	city.Demand[model.DemandResidentialHighWealth] = 300
	city.Regions.Cities = append(city.Regions.Cities, &hostsim.RegionalCity{
		X: 1, Z: 0, Total: 300, IsEstablished: true,
		Tiers: map[uint32]int64{
			model.DemandResidentialLowWealth:    100,
			model.DemandResidentialMediumWealth: 100,
			model.DemandResidentialHighWealth:   100,
		},
	})
	return city
}

func newActiveManager(t *testing.T) (*Manager, *hostsim.City) {
	t.Helper()

	city := newTestCity()
	m := NewManager(algorithm.NewFactory(algorithm.EncodingRational), quietLogger())
	m.PostCityInit(city)
	require.Equal(t, StateActive, m.State())
	return m, city
}

func line(t *testing.T, city *hostsim.City, dept model.DepartmentID, number model.LineNumber) *hostsim.LineItem {
	t.Helper()
	d := city.Budget.Department(dept)
	require.NotNil(t, d, "department %s", dept)
	item := d.Line(number)
	require.NotNil(t, item, "line %s", number)
	return item
}

func TestManager_InsertCreatesDepartmentAndLine(t *testing.T) {
	m, city := newActiveManager(t)
	school := buildings.School(t)

	m.InsertOccupant(school)

	dept := city.Budget.Department(buildings.DepartmentSchools)
	require.NotNil(t, dept)
	assert.Equal(t, model.BudgetGroupHealthAndEducation, dept.Group)
	assert.True(t, dept.FixedFunding)
	assert.Equal(t, buildings.NameKey(buildings.DepartmentSchools), dept.Name)

	item := line(t, city, buildings.DepartmentSchools, buildings.LineStaff)
	assert.Equal(t, model.StringResourceKey{GroupID: 0, InstanceID: buildings.TypeSchool}, item.Name)
	assert.Equal(t, service.LineItemExpense, item.Type())
	assert.False(t, item.LocalFunding)
	assert.Equal(t, int64(1), item.SecondaryInfoField())
	assert.Equal(t, int64(250), item.FullExpenses())
	assert.False(t, item.DisplayFlag(service.DisplayShowSecondaryInfoField))

	tx, ok := m.Registry().Transaction(buildings.DepartmentSchools, buildings.LineStaff)
	require.True(t, ok)
	assert.True(t, tx.IsFixedCost())
}

func TestManager_SecondBuildingShowsCount(t *testing.T) {
	m, city := newActiveManager(t)

	m.InsertOccupant(buildings.School(t))
	m.InsertOccupant(buildings.School(t))

	item := line(t, city, buildings.DepartmentSchools, buildings.LineStaff)
	assert.Equal(t, int64(2), item.SecondaryInfoField())
	assert.Equal(t, int64(500), item.FullExpenses())
	assert.True(t, item.DisplayFlag(service.DisplayShowSecondaryInfoField))
}

func TestManager_AlgorithmTotals(t *testing.T) {
	m, city := newActiveManager(t)

	m.InsertOccupant(buildings.Park(t))
	m.InsertOccupant(buildings.Museum(t))
	m.InsertOccupant(buildings.Boutique(t))

	// 100 + trunc(1000 * 0.005)
	assert.Equal(t, int64(105), line(t, city, buildings.DepartmentParks, buildings.LineMaintenance).FullExpenses())

	tickets := line(t, city, buildings.DepartmentTourism, buildings.LineTickets)
	assert.Equal(t, service.LineItemIncome, tickets.Type())
	// (100 + 200 + 300 + 50 + 50 + 50) / 2
	assert.Equal(t, int64(375), tickets.Income())

	assert.Equal(t, int64(40), line(t, city, buildings.DepartmentTourism, buildings.LineStaff).FullExpenses())

	// 10 + 1 + 4 + 9
	assert.Equal(t, int64(24), line(t, city, buildings.DepartmentTourism, buildings.LineVisitors).Income())
}

func TestManager_InsertThenRemoveRestoresTotals(t *testing.T) {
	m, city := newActiveManager(t)

	m.InsertOccupant(buildings.Park(t))
	m.InsertOccupant(buildings.Museum(t))
	item := line(t, city, buildings.DepartmentParks, buildings.LineMaintenance)
	tickets := line(t, city, buildings.DepartmentTourism, buildings.LineTickets)
	beforeExpense, beforeIncome := item.FullExpenses(), tickets.Income()

	m.InsertOccupant(buildings.Park(t))
	m.InsertOccupant(buildings.Museum(t))
	assert.Equal(t, int64(205), item.FullExpenses())
	assert.Equal(t, int64(2), tickets.SecondaryInfoField())

	m.RemoveOccupant(buildings.Park(t))
	m.RemoveOccupant(buildings.Museum(t))

	assert.Equal(t, beforeExpense, item.FullExpenses())
	assert.Equal(t, int64(1), item.SecondaryInfoField())
	assert.False(t, item.DisplayFlag(service.DisplayShowSecondaryInfoField), "count hidden on 2 to 1")
	assert.Equal(t, beforeIncome, tickets.Income())
	assert.Equal(t, int64(1), tickets.SecondaryInfoField())
}

func TestManager_DisplayFlagStaysOnAboveTwo(t *testing.T) {
	m, city := newActiveManager(t)
	for i := 0; i < 3; i++ {
		m.InsertOccupant(buildings.School(t))
	}

	m.RemoveOccupant(buildings.School(t))

	item := line(t, city, buildings.DepartmentSchools, buildings.LineStaff)
	assert.Equal(t, int64(2), item.SecondaryInfoField())
	assert.Equal(t, int64(500), item.FullExpenses())
	assert.True(t, item.DisplayFlag(service.DisplayShowSecondaryInfoField))
}

func TestManager_RemoveLastBuildingRemovesLine(t *testing.T) {
	m, city := newActiveManager(t)

	m.InsertOccupant(buildings.Museum(t))
	m.RemoveOccupant(buildings.Museum(t))

	dept := city.Budget.Department(buildings.DepartmentTourism)
	require.NotNil(t, dept)
	assert.Empty(t, dept.Lines())

	registry := m.Registry()
	assert.Zero(t, registry.Len(), "no empty department left behind")
	_, ok := registry.Transaction(buildings.DepartmentTourism, buildings.LineTickets)
	assert.False(t, ok)
}

func TestManager_RemoveWithoutTransactionSubtractsCost(t *testing.T) {
	m, city := newActiveManager(t)

	// A line created before transactions were tracked.
	created, err := city.Budget.CreateDepartmentBudget(buildings.DepartmentSchools, model.BudgetGroupHealthAndEducation)
	require.NoError(t, err)
	item, err := created.CreateLineItem(buildings.LineStaff, false)
	require.NoError(t, err)
	item.SetSecondaryInfoField(2)
	item.SetFullExpenses(500)
	item.SetDisplayFlag(service.DisplayShowSecondaryInfoField, true)

	m.RemoveOccupant(buildings.School(t))
	assert.Equal(t, int64(250), item.FullExpenses())
	assert.Equal(t, int64(1), item.SecondaryInfoField())
	assert.False(t, item.DisplayFlag(service.DisplayShowSecondaryInfoField))

	m.RemoveOccupant(buildings.School(t))
	_, ok := created.LineItem(buildings.LineStaff)
	assert.False(t, ok)
}

func TestManager_RemoveUnknownLineIsIgnored(t *testing.T) {
	m, city := newActiveManager(t)

	assert.NotPanics(t, func() { m.RemoveOccupant(buildings.School(t)) })
	assert.Empty(t, city.Budget.Departments())
}

func TestManager_SimNewMonth(t *testing.T) {
	m, city := newActiveManager(t)

	m.InsertOccupant(buildings.School(t))
	m.InsertOccupant(buildings.Park(t))
	m.InsertOccupant(buildings.Park(t))

	school := line(t, city, buildings.DepartmentSchools, buildings.LineStaff)
	park := line(t, city, buildings.DepartmentParks, buildings.LineMaintenance)
	school.SetFullExpenses(999)

	city.Residential.Value = 3000
	m.SimNewMonth()

	assert.Equal(t, int64(999), school.FullExpenses(), "fixed cost lines are never recomputed")
	// 2 * 100 + trunc(3000 * 0.005)
	assert.Equal(t, int64(215), park.FullExpenses())
}

func TestManager_SimNewMonthUpdatesIncome(t *testing.T) {
	m, city := newActiveManager(t)
	m.InsertOccupant(buildings.Boutique(t))

	city.Demand[model.DemandResidentialHighWealth] = 600
	m.SimNewMonth()

	// 10 + 1 + 4 + 18
	assert.Equal(t, int64(33), line(t, city, buildings.DepartmentTourism, buildings.LineVisitors).Income())
}

func TestManager_InvalidBudgetGroupIsRejected(t *testing.T) {
	var logs bytes.Buffer
	city := newTestCity()
	m := NewManager(nil, slog.New(slog.NewTextHandler(&logs, nil)))
	m.PostCityInit(city)

	building := buildings.NewBuilder(t, 1).
		WithDepartment(buildings.DepartmentSchools, model.BudgetGroup(0x12345678)).
		WithExpense(buildings.DepartmentSchools, buildings.LineStaff, 250).
		Build()
	m.InsertOccupant(building)

	assert.Empty(t, city.Budget.Departments())
	assert.Zero(t, m.Registry().Len(), "transaction rolled back")
	assert.Contains(t, logs.String(), "invalid budget group 0x12345678")
}

func TestManager_HostRejectionRollsBack(t *testing.T) {
	t.Run("department", func(t *testing.T) {
		m, city := newActiveManager(t)
		city.Budget.RejectDepartments = true

		m.InsertOccupant(buildings.Park(t))

		assert.Empty(t, city.Budget.Departments())
		assert.Zero(t, m.Registry().Len())
	})

	t.Run("line item", func(t *testing.T) {
		m, city := newActiveManager(t)
		city.Budget.RejectLineItems = true

		m.InsertOccupant(buildings.Museum(t))

		dept := city.Budget.Department(buildings.DepartmentTourism)
		require.NotNil(t, dept)
		assert.Empty(t, dept.Lines())
		assert.Zero(t, m.Registry().Len())
	})
}

func TestManager_AlgorithmFailureSkipsEntry(t *testing.T) {
	m, city := newActiveManager(t)

	building := buildings.NewBuilder(t, 1).
		WithDepartment(buildings.DepartmentParks, model.BudgetGroupCityBeautification).
		WithExpense(buildings.DepartmentParks, buildings.LineMaintenance, 100).
		WithExpense(buildings.DepartmentParks, buildings.LineStaff, 30).
		WithAlgorithm(buildings.LineMaintenance, algorithm.ResidentialTotalPopulation).
		Build()
	m.InsertOccupant(building)

	dept := city.Budget.Department(buildings.DepartmentParks)
	require.NotNil(t, dept)
	assert.Equal(t, []model.LineNumber{buildings.LineStaff}, dept.Lines())
	assert.Equal(t, 1, m.Registry().LineCount())
}

func TestManager_IgnoresNonBuildingsAndInactiveSessions(t *testing.T) {
	m, city := newActiveManager(t)
	m.InsertOccupant(&hostsim.Occupant{Kind: 0x12345678, Properties: buildings.School(t).Properties})
	m.InsertOccupant(nil)
	assert.Empty(t, city.Budget.Departments())

	inactive := NewManager(nil, quietLogger())
	inactive.InsertOccupant(buildings.School(t))
	inactive.RemoveOccupant(buildings.School(t))
	inactive.SimNewMonth()
	assert.Zero(t, inactive.Registry().Len())
	assert.Equal(t, StateUninitialized, inactive.State())
}

func TestManager_PostCityInit(t *testing.T) {
	m := NewManager(nil, quietLogger())

	m.PostCityInit(nil)
	assert.Equal(t, StateUninitialized, m.State())

	noBudget := newTestCity()
	noBudget.Budget = nil
	m.PostCityInit(noBudget)
	assert.Equal(t, StateUninitialized, m.State())

	// Missing population services are logged; the session still starts.
	noRegion := newTestCity()
	noRegion.Regions = nil
	m.PostCityInit(noRegion)
	assert.Equal(t, StateActive, m.State())
}

func TestManager_PostCityShutdownClearsSession(t *testing.T) {
	m, city := newActiveManager(t)
	m.InsertOccupant(buildings.Park(t))
	require.Equal(t, 1, m.Registry().Len())

	m.PostCityShutdown()
	assert.Equal(t, StateUninitialized, m.State())
	assert.Zero(t, m.Registry().Len())
	assert.Zero(t, m.Population().CityResidentialPopulation())

	m.InsertOccupant(buildings.School(t))
	assert.Nil(t, city.Budget.Department(buildings.DepartmentSchools))
}

func TestManager_SaveAndLoad(t *testing.T) {
	m, _ := newActiveManager(t)
	m.InsertOccupant(buildings.School(t))
	m.InsertOccupant(buildings.Park(t))
	m.InsertOccupant(buildings.Museum(t))

	segment := hostsim.NewSegment()
	require.NoError(t, m.Save(segment))
	require.Contains(t, segment.Records, model.RegistryResourceKey)

	restored := NewManager(nil, quietLogger())
	require.NoError(t, restored.Load(segment))
	assert.Equal(t, m.Registry(), restored.Registry())
}

func TestManager_LoadBeforeCityInitKeepsRegistry(t *testing.T) {
	m, _ := newActiveManager(t)
	m.InsertOccupant(buildings.Park(t))
	segment := hostsim.NewSegment()
	require.NoError(t, m.Save(segment))

	next := NewManager(nil, quietLogger())
	require.NoError(t, next.Load(segment))
	city := newTestCity()
	next.PostCityInit(city)
	assert.Equal(t, 1, next.Registry().LineCount())

	// The host restores the line item itself; the month tick recomputes it.
	dept, err := city.Budget.CreateDepartmentBudget(buildings.DepartmentParks, model.BudgetGroupCityBeautification)
	require.NoError(t, err)
	item, err := dept.CreateLineItem(buildings.LineMaintenance, false)
	require.NoError(t, err)
	item.SetSecondaryInfoField(1)

	next.SimNewMonth()
	assert.Equal(t, int64(105), item.FullExpenses())
}

func TestManager_SaveSkipsEmptyRegistry(t *testing.T) {
	m, _ := newActiveManager(t)
	segment := hostsim.NewSegment()
	segment.Records[model.RegistryResourceKey] = []byte("previous")

	require.NoError(t, m.Save(segment))
	assert.Equal(t, []byte("previous"), segment.Records[model.RegistryResourceKey])

	assert.NoError(t, m.Save(nil))
}

func TestManager_LoadFailureKeepsRegistry(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "unsupported version", data: []byte{7, 0, 0, 0, 0, 0, 0, 0}},
		{name: "truncated", data: []byte{1, 0, 0, 0, 1, 0, 0, 0, 0xA, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newActiveManager(t)
			m.InsertOccupant(buildings.Park(t))
			before := m.Registry()

			segment := hostsim.NewSegment()
			segment.Records[model.RegistryResourceKey] = tt.data

			var err error
			assert.NotPanics(t, func() { err = m.Load(segment) })
			assert.ErrorIs(t, err, common.ErrCorruptData)
			assert.Equal(t, before, m.Registry())
		})
	}
}

func TestManager_LoadWithoutRecord(t *testing.T) {
	m, _ := newActiveManager(t)
	m.InsertOccupant(buildings.School(t))

	require.NoError(t, m.Load(hostsim.NewSegment()))
	require.NoError(t, m.Load(nil))
	assert.Equal(t, 1, m.Registry().Len())
}
