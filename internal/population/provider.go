// Package population caches the city and regional population figures used
// by the transaction algorithms.
package population

import (
	"fmt"
	"log/slog"

	"github.com/sc4plugins/custom-budget-departments/internal/common"
	"github.com/sc4plugins/custom-budget-departments/internal/model"
	"github.com/sc4plugins/custom-budget-departments/internal/service"
)

// Provider answers population queries for the active city session. City
// figures are read live from the host simulators; regional figures are a
// snapshot taken by Init. Every query returns zero before Init succeeds.
type Provider struct {
	residential service.ResidentialSimulator
	demand      service.DemandSimulator
	logger      *slog.Logger

	regionResidential int64
	regionLowWealth   int64
	regionMedWealth   int64
	regionHighWealth  int64

	initialized bool
}

// NewProvider creates an uninitialized provider.
func NewProvider(logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{logger: logger}
}

// Init captures the city's simulators and sums the populations of every other
// established city in the region. Calling Init again before Shutdown is a no-op.
func (p *Provider) Init(city service.City) error {
	if p.initialized {
		return nil
	}
	p.initialized = true

	if city == nil {
		return fmt.Errorf("%w: no active city", common.ErrHostUnavailable)
	}

	current := city.RegionalCity()
	if current == nil {
		return fmt.Errorf("%w: no regional city", common.ErrHostUnavailable)
	}

	residential := city.ResidentialSimulator()
	demand := city.DemandSimulator()
	if residential == nil || demand == nil {
		return fmt.Errorf("%w: population simulators", common.ErrHostUnavailable)
	}
	p.residential = residential
	p.demand = demand

	x, z := current.Position()
	return p.calculateRegionalPopulation(city.Region(), x, z)
}

// Shutdown clears the session state so the next Init starts fresh.
func (p *Provider) Shutdown() {
	p.residential = nil
	p.demand = nil
	p.regionResidential = 0
	p.regionLowWealth = 0
	p.regionMedWealth = 0
	p.regionHighWealth = 0
	p.initialized = false
}

// CityResidentialPopulation returns the current city's residential population.
func (p *Provider) CityResidentialPopulation() int32 {
	if p.residential == nil {
		return 0
	}
	return p.residential.Population()
}

// CityPopulation returns the demand supply figure for demandID.
func (p *Provider) CityPopulation(demandID uint32) int32 {
	if p.demand == nil {
		return 0
	}
	value, ok := p.demand.SupplyValue(demandID)
	if !ok {
		return 0
	}
	return int32(value)
}

// RegionResidentialPopulation returns the residential total of the other cities.
func (p *Provider) RegionResidentialPopulation() int64 {
	return p.regionResidential
}

// RegionPopulation returns the regional total for one wealth tier.
func (p *Provider) RegionPopulation(demandID uint32) int64 {
	switch demandID {
	case model.DemandResidentialLowWealth:
		return p.regionLowWealth
	case model.DemandResidentialMediumWealth:
		return p.regionMedWealth
	case model.DemandResidentialHighWealth:
		return p.regionHighWealth
	default:
		return 0
	}
}

func (p *Provider) calculateRegionalPopulation(region service.Region, currentX, currentZ int32) error {
	p.regionResidential = 0
	p.regionLowWealth = 0
	p.regionMedWealth = 0
	p.regionHighWealth = 0

	if region == nil {
		return fmt.Errorf("%w: no region", common.ErrHostUnavailable)
	}

	cities := 0
	for _, loc := range region.CityLocations() {
		// The current city reports its own figures live.
		if loc.X == currentX && loc.Z == currentZ {
			continue
		}

		city, ok := region.City(loc.X, loc.Z)
		if !ok || city == nil || !city.Established() {
			continue
		}

		p.regionResidential += city.Population()
		p.regionLowWealth += city.PopulationFor(model.DemandResidentialLowWealth)
		p.regionMedWealth += city.PopulationFor(model.DemandResidentialMediumWealth)
		p.regionHighWealth += city.PopulationFor(model.DemandResidentialHighWealth)
		cities++
	}

	p.logger.Debug("Calculated regional population",
		"cities", cities,
		"residential", p.regionResidential,
		"low_wealth", p.regionLowWealth,
		"medium_wealth", p.regionMedWealth,
		"high_wealth", p.regionHighWealth)

	return nil
}
