package population

import (
	"testing"

	"github.com/sc4plugins/custom-budget-departments/internal/common"
	"github.com/sc4plugins/custom-budget-departments/internal/hostsim"
	"github.com/sc4plugins/custom-budget-departments/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegionCity() *hostsim.City {
	city := hostsim.NewCity()
	city.Residential.Value = 1000
	city.Demand[model.DemandResidentialLowWealth] = 100.9
	city.Demand[model.DemandResidentialMediumWealth] = 200
	city.Demand[model.DemandResidentialHighWealth] = 300

	city.Regions.Cities = append(city.Regions.Cities,
		&hostsim.RegionalCity{
			X: 1, Z: 0, Total: 500, IsEstablished: true,
			Tiers: map[uint32]int64{
				model.DemandResidentialLowWealth:    100,
				model.DemandResidentialMediumWealth: 150,
				model.DemandResidentialHighWealth:   250,
			},
		},
		&hostsim.RegionalCity{
			X: 2, Z: 0, Total: 60, IsEstablished: true,
			Tiers: map[uint32]int64{
				model.DemandResidentialLowWealth:    10,
				model.DemandResidentialMediumWealth: 20,
				model.DemandResidentialHighWealth:   30,
			},
		},
		&hostsim.RegionalCity{
			X: 3, Z: 0, Total: 99999, IsEstablished: false,
			Tiers: map[uint32]int64{model.DemandResidentialLowWealth: 99999},
		},
	)
	return city
}

func TestProvider_ZeroBeforeInit(t *testing.T) {
	p := NewProvider(nil)

	assert.Zero(t, p.CityResidentialPopulation())
	assert.Zero(t, p.CityPopulation(model.DemandResidentialLowWealth))
	assert.Zero(t, p.RegionResidentialPopulation())
	assert.Zero(t, p.RegionPopulation(model.DemandResidentialHighWealth))
}

func TestProvider_Init(t *testing.T) {
	city := newRegionCity()
	p := NewProvider(nil)

	require.NoError(t, p.Init(city))

	assert.Equal(t, int32(1000), p.CityResidentialPopulation())
	assert.Equal(t, int32(100), p.CityPopulation(model.DemandResidentialLowWealth), "supply is truncated")
	assert.Equal(t, int32(300), p.CityPopulation(model.DemandResidentialHighWealth))
	assert.Zero(t, p.CityPopulation(0xDEAD))

	// The current city and unestablished cities are excluded.
	assert.Equal(t, int64(560), p.RegionResidentialPopulation())
	assert.Equal(t, int64(110), p.RegionPopulation(model.DemandResidentialLowWealth))
	assert.Equal(t, int64(170), p.RegionPopulation(model.DemandResidentialMediumWealth))
	assert.Equal(t, int64(280), p.RegionPopulation(model.DemandResidentialHighWealth))
	assert.Zero(t, p.RegionPopulation(0x1040))
}

func TestProvider_CityFiguresAreLive(t *testing.T) {
	city := newRegionCity()
	p := NewProvider(nil)
	require.NoError(t, p.Init(city))

	city.Residential.Value = 2500
	city.Regions.Cities[1].Total = 1

	assert.Equal(t, int32(2500), p.CityResidentialPopulation())
	assert.Equal(t, int64(560), p.RegionResidentialPopulation(), "regional figures are a snapshot")
}

func TestProvider_InitIsOncePerSession(t *testing.T) {
	city := newRegionCity()
	p := NewProvider(nil)
	require.NoError(t, p.Init(city))

	other := hostsim.NewCity()
	require.NoError(t, p.Init(other))
	assert.Equal(t, int64(560), p.RegionResidentialPopulation())

	p.Shutdown()
	assert.Zero(t, p.RegionResidentialPopulation())
	assert.Zero(t, p.CityResidentialPopulation())

	require.NoError(t, p.Init(other))
	assert.Zero(t, p.RegionResidentialPopulation())
}

func TestProvider_InitMissingServices(t *testing.T) {
	tests := []struct {
		city func() *hostsim.City
		name string
	}{
		{name: "no regional city", city: func() *hostsim.City {
			c := newRegionCity()
			c.Current = nil
			return c
		}},
		{name: "no residential simulator", city: func() *hostsim.City {
			c := newRegionCity()
			c.Residential = nil
			return c
		}},
		{name: "no demand simulator", city: func() *hostsim.City {
			c := newRegionCity()
			c.Demand = nil
			return c
		}},
		{name: "no region", city: func() *hostsim.City {
			c := newRegionCity()
			c.Regions = nil
			return c
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProvider(nil)
			err := p.Init(tt.city())
			assert.ErrorIs(t, err, common.ErrHostUnavailable)
			assert.Zero(t, p.RegionResidentialPopulation())
		})
	}

	t.Run("no city", func(t *testing.T) {
		p := NewProvider(nil)
		assert.ErrorIs(t, p.Init(nil), common.ErrHostUnavailable)
	})
}
