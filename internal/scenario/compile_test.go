package scenario

import (
	"strings"
	"testing"

	"github.com/sc4plugins/custom-budget-departments/internal/algorithm"
	"github.com/sc4plugins/custom-budget-departments/internal/common"
	"github.com/sc4plugins/custom-budget-departments/internal/engine"
	"github.com/sc4plugins/custom-budget-departments/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const boutique = `
departments:
  - id: 0xDE000004
    group: business-deals
    name: {group: 0x6A231EAA, instance: 4}
buildings:
  boutique:
    type: 0x5C000004
    entries:
      - purpose: income
        department: 0xDE000004
        line: 0x30
        cost: 10
        algorithm: residential-wealth-group-population
        factors: ["0.01", "0.02", "0.03"]
`

func TestCompile_RationalTables(t *testing.T) {
	s, err := LoadFile("testdata/downtown.yaml")
	require.NoError(t, err)

	buildings, err := s.Compile(algorithm.EncodingRational)
	require.NoError(t, err)
	require.Len(t, buildings, 2)

	park := buildings["park"]
	assert.Equal(t, uint32(0x5C000002), park.BuildingType())
	assert.Equal(t, []int64{0x11, 1, 200}, park.Properties[algorithm.PropertyResidentialTotalPopulationTable].Sint64s)
	assert.Equal(t, []uint32{0x11, uint32(algorithm.ResidentialTotalPopulation)}, park.Properties[model.PropertyLineItemAlgorithm].Uint32s)

	museum := buildings["museum"]
	assert.Equal(t, []int64{0x20, 1, 2, 2}, museum.Properties[algorithm.PropertyTourismTable].Sint64s)
	assert.Equal(t, []uint32{model.PurposeIncome, model.PurposeExpense}, museum.Properties[model.PropertyBudgetItemPurpose].Uint32s)
	assert.Equal(t, []int64{0, 40}, museum.Properties[model.PropertyBudgetItemCost].Sint64s)
	assert.Equal(t,
		[]uint32{0xDE000003, uint32(model.BudgetGroupBusinessDeals)},
		museum.Properties[model.PropertyDepartmentBudgetGroup].Uint32s)
	assert.Equal(t,
		[]uint32{0xDE000003, 0x6A231EAA, 0xDE000003},
		museum.Properties[model.PropertyDepartmentNameKey].Uint32s)
}

func TestCompile_ExtractsCleanly(t *testing.T) {
	s, err := LoadFile("testdata/downtown.yaml")
	require.NoError(t, err)

	for _, encoding := range []algorithm.FactorEncoding{algorithm.EncodingRational, algorithm.EncodingDirect} {
		buildings, err := s.Compile(encoding)
		require.NoError(t, err)

		infos, err := engine.ExtractDepartmentInfo(buildings["museum"].PropertyHolder())
		require.NoError(t, err, encoding)
		require.Len(t, infos, 2)
		assert.Equal(t, model.ItemTypeIncome, infos[0].Type)
		assert.Equal(t, model.ItemTypeExpense, infos[1].Type)
		assert.Equal(t, model.BudgetGroupBusinessDeals, infos[1].BudgetGroup)
	}
}

func TestCompile_Direct(t *testing.T) {
	s, err := Parse(strings.NewReader(boutique))
	require.NoError(t, err)

	buildings, err := s.Compile(algorithm.EncodingDirect)
	require.NoError(t, err)
	b := buildings["boutique"]

	factors, ok := b.Properties[algorithm.PropertyResidentialWealthGroupPopulationIncomeFactors]
	require.True(t, ok)
	assert.Equal(t, []float32{0.01, 0.02, 0.03}, factors.Float32s)
	_, ok = b.Properties[algorithm.PropertyResidentialWealthGroupPopulationTable]
	assert.False(t, ok)

	alg, err := algorithm.NewFactory(algorithm.EncodingDirect).FromProperties(b.PropertyHolder(), algorithm.ResidentialWealthGroupPopulation, 0x30, true)
	require.NoError(t, err)
	assert.Equal(t, algorithm.ResidentialWealthGroupPopulation, alg.Type())
}

func TestCompile_SharedLineRows(t *testing.T) {
	doc := boutique + `
      - purpose: income
        department: 0xDE000004
        line: 0x30
        cost: 5
        algorithm: residential-wealth-group-population
        factors: ["1", "1", "1"]
`
	s, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)

	buildings, err := s.Compile(algorithm.EncodingRational)
	require.NoError(t, err)
	assert.Equal(t,
		[]int64{0x30, 1, 100, 1, 50, 3, 100},
		buildings["boutique"].Properties[algorithm.PropertyResidentialWealthGroupPopulationTable].Sint64s,
		"the first row for a line wins")

	_, err = s.Compile(algorithm.EncodingDirect)
	assert.ErrorIs(t, err, common.ErrInvalidConfig, "direct encoding cannot hold two factor sets")
}

func TestCompile_ConflictingAlgorithms(t *testing.T) {
	doc := boutique + `
      - purpose: expense
        department: 0xDE000004
        line: 0x30
        cost: 5
        algorithm: residential-total-population
        factor: "0.1"
`
	_, err := Parse(strings.NewReader(doc))
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}
