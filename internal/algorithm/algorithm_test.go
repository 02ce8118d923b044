package algorithm

import (
	"bytes"
	"testing"

	"github.com/sc4plugins/custom-budget-departments/internal/codec"
	"github.com/sc4plugins/custom-budget-departments/internal/common"
	"github.com/sc4plugins/custom-budget-departments/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPopulation struct {
	city        map[uint32]int32
	region      map[uint32]int64
	residential int32
}

func (s stubPopulation) CityResidentialPopulation() int32 { return s.residential }
func (s stubPopulation) CityPopulation(demandID uint32) int32 { return s.city[demandID] }
func (s stubPopulation) RegionResidentialPopulation() int64 { return 0 }
func (s stubPopulation) RegionPopulation(demandID uint32) int64 { return s.region[demandID] }

func tiers32(low, medium, high int32) map[uint32]int32 {
	return map[uint32]int32{
		model.DemandResidentialLowWealth:    low,
		model.DemandResidentialMediumWealth: medium,
		model.DemandResidentialHighWealth:   high,
	}
}

func tiers64(low, medium, high int64) map[uint32]int64 {
	return map[uint32]int64{
		model.DemandResidentialLowWealth:    low,
		model.DemandResidentialMediumWealth: medium,
		model.DemandResidentialHighWealth:   high,
	}
}

func TestResidentialTotalPopulation_Calculate(t *testing.T) {
	tests := []struct {
		name       string
		factor     float32
		population int32
		initial    int64
		want       int64
	}{
		{name: "documented example", factor: 0.005, population: 1000, initial: 0, want: 5},
		{name: "adds to initial total", factor: 0.005, population: 1000, initial: 300, want: 305},
		{name: "truncates fraction", factor: 0.005, population: 1999, initial: 0, want: 9},
		{name: "negative truncates toward zero", factor: -0.005, population: 1999, initial: 100, want: 91},
		{name: "zero population", factor: 0.5, population: 0, initial: 42, want: 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &ResidentialTotalPopulationAlgorithm{Factor: tt.factor}
			got := a.Calculate(stubPopulation{residential: tt.population}, tt.initial)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResidentialWealthGroupPopulation_Calculate(t *testing.T) {
	a := &ResidentialWealthGroupPopulationAlgorithm{LowFactor: 0.01, MediumFactor: 0.02, HighFactor: 0.03}
	pop := stubPopulation{city: tiers32(100, 200, 300)}

	assert.Equal(t, int64(14), a.Calculate(pop, 0))
	assert.Equal(t, int64(1014), a.Calculate(pop, 1000))

	// Each tier is truncated on its own: 0.5 + 0.5 + 0.5 does not add up to 1.
	half := &ResidentialWealthGroupPopulationAlgorithm{LowFactor: 0.5, MediumFactor: 0.5, HighFactor: 0.5}
	assert.Equal(t, int64(0), half.Calculate(stubPopulation{city: tiers32(1, 1, 1)}, 0))
}

func TestTourism_Calculate(t *testing.T) {
	a := &TourismAlgorithm{TourismFactor: 0.5, GeopoliticsFactor: 2}
	pop := stubPopulation{
		city:   tiers32(10, 20, 30),
		region: tiers64(100, 100, 100),
	}

	assert.Equal(t, int64(105), a.Calculate(pop, 0))
	assert.Equal(t, int64(-95), a.Calculate(pop, -200))

	odd := &TourismAlgorithm{TourismFactor: 0, GeopoliticsFactor: 4}
	assert.Equal(t, int64(15), odd.Calculate(pop, 0), "integer division truncates")
}

func TestAlgorithms_NilPopulationLeavesTotal(t *testing.T) {
	algorithms := []Algorithm{
		&ResidentialTotalPopulationAlgorithm{Factor: 1},
		&ResidentialWealthGroupPopulationAlgorithm{LowFactor: 1, MediumFactor: 1, HighFactor: 1},
		&TourismAlgorithm{TourismFactor: 1, GeopoliticsFactor: 1},
	}
	for _, a := range algorithms {
		assert.Equal(t, int64(77), a.Calculate(nil, 77), a.Type().String())
	}
}

func TestTourism_ZeroGeopoliticsNeverDivides(t *testing.T) {
	a := &TourismAlgorithm{TourismFactor: 1}
	assert.NotPanics(t, func() {
		assert.Equal(t, int64(10), a.Calculate(stubPopulation{city: tiers32(1, 1, 1)}, 10))
	})
}

func TestAlgorithms_RoundTrip(t *testing.T) {
	algorithms := []Algorithm{
		&ResidentialTotalPopulationAlgorithm{Factor: 0.005},
		&ResidentialWealthGroupPopulationAlgorithm{LowFactor: 0.01, MediumFactor: -0.02, HighFactor: 0.125},
		&TourismAlgorithm{TourismFactor: 0.75, GeopoliticsFactor: 9},
	}

	factory := NewFactory(EncodingRational)
	for _, original := range algorithms {
		t.Run(original.Type().String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, original.Write(codec.NewWriter(&buf)))

			restored, err := factory.New(original.Type())
			require.NoError(t, err)
			require.NoError(t, restored.Read(codec.NewReader(&buf)))

			assert.Equal(t, original, restored)
			assert.Zero(t, buf.Len(), "payload fully consumed")
		})
	}
}

func TestTourism_ReadRejectsNonPositiveGeopolitics(t *testing.T) {
	var buf bytes.Buffer
	w := codec.NewWriter(&buf)
	_ = w.Float32(0.5)
	_ = w.Int64(0)

	err := (&TourismAlgorithm{}).Read(codec.NewReader(&buf))
	assert.ErrorIs(t, err, common.ErrCorruptData)
}

func TestAlgorithms_ReadTruncated(t *testing.T) {
	a := &ResidentialWealthGroupPopulationAlgorithm{}
	err := a.Read(codec.NewReader(bytes.NewReader([]byte{0, 0, 0, 0, 0, 0})))
	assert.ErrorIs(t, err, common.ErrCorruptData)
	assert.Equal(t, &ResidentialWealthGroupPopulationAlgorithm{}, a, "state untouched on failure")
}

func TestType_StringAndParse(t *testing.T) {
	for _, typ := range []Type{Fixed, ResidentialTotalPopulation, ResidentialWealthGroupPopulation, Tourism} {
		parsed, ok := ParseType(typ.String())
		require.True(t, ok)
		assert.Equal(t, typ, parsed)
	}

	_, ok := ParseType("lottery")
	assert.False(t, ok)
	assert.Equal(t, "unknown(9)", Type(9).String())
}
