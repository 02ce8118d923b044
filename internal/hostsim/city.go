package hostsim

import (
	"github.com/sc4plugins/custom-budget-departments/internal/model"
	"github.com/sc4plugins/custom-budget-departments/internal/service"
)

// Properties is a property holder backed by a map.
type Properties map[uint32]model.PropertyValue

// Property looks up a property value.
func (p Properties) Property(id uint32) (model.PropertyValue, bool) {
	v, ok := p[id]
	return v, ok
}

// Building is a building occupant.
type Building struct {
	Properties Properties
	Type       uint32
}

// OccupantType returns the building occupant type.
func (b *Building) OccupantType() uint32 { return model.OccupantTypeBuilding }

// PropertyHolder returns the building's exemplar properties.
func (b *Building) PropertyHolder() service.PropertyHolder { return b.Properties }

// BuildingType returns the building's type id, used as its line item name.
func (b *Building) BuildingType() uint32 { return b.Type }

// Occupant is a non-building occupant such as a prop or a tree.
type Occupant struct {
	Properties Properties
	Kind       uint32
}

// OccupantType returns the occupant type.
func (o *Occupant) OccupantType() uint32 { return o.Kind }

// PropertyHolder returns the occupant's properties.
func (o *Occupant) PropertyHolder() service.PropertyHolder { return o.Properties }

// Residential is a fixed residential population.
type Residential struct {
	Value int32
}

// Population returns the residential population.
func (r *Residential) Population() int32 { return r.Value }

// Demand holds demand supply figures by demand id.
type Demand map[uint32]float32

// SupplyValue returns the supply figure for demandID.
func (d Demand) SupplyValue(demandID uint32) (float32, bool) {
	v, ok := d[demandID]
	return v, ok
}

// RegionalCity is a city tile in the region.
type RegionalCity struct {
	Tiers         map[uint32]int64
	X             int32
	Z             int32
	Total         int64
	IsEstablished bool
}

// Position returns the tile position.
func (c *RegionalCity) Position() (int32, int32) { return c.X, c.Z }

// Established reports whether the city has been founded.
func (c *RegionalCity) Established() bool { return c.IsEstablished }

// Population returns the residential total.
func (c *RegionalCity) Population() int64 { return c.Total }

// PopulationFor returns the population of one wealth tier.
func (c *RegionalCity) PopulationFor(demandID uint32) int64 { return c.Tiers[demandID] }

// Region is a set of regional cities.
type Region struct {
	Cities []*RegionalCity
}

// CityLocations lists the city tile positions.
func (r *Region) CityLocations() []service.Location {
	locations := make([]service.Location, 0, len(r.Cities))
	for _, c := range r.Cities {
		locations = append(locations, service.Location{X: c.X, Z: c.Z})
	}
	return locations
}

// City returns the city at a tile position.
func (r *Region) City(x, z int32) (service.RegionalCity, bool) {
	for _, c := range r.Cities {
		if c.X == x && c.Z == z {
			return c, true
		}
	}
	return nil, false
}

// City is an active city session. Nil fields are reported to the engine as
// missing host services.
type City struct {
	Budget      *BudgetSimulator
	Residential *Residential
	Demand      Demand
	Current     *RegionalCity
	Regions     *Region
}

// NewCity creates a city with an empty budget and no population.
func NewCity() *City {
	current := &RegionalCity{IsEstablished: true}
	return &City{
		Budget:      NewBudgetSimulator(),
		Residential: &Residential{},
		Demand:      Demand{},
		Current:     current,
		Regions:     &Region{Cities: []*RegionalCity{current}},
	}
}

// BudgetSimulator returns the budget simulator.
func (c *City) BudgetSimulator() service.BudgetSimulator {
	if c.Budget == nil {
		return nil
	}
	return c.Budget
}

// ResidentialSimulator returns the residential simulator.
func (c *City) ResidentialSimulator() service.ResidentialSimulator {
	if c.Residential == nil {
		return nil
	}
	return c.Residential
}

// DemandSimulator returns the demand simulator.
func (c *City) DemandSimulator() service.DemandSimulator {
	if c.Demand == nil {
		return nil
	}
	return c.Demand
}

// RegionalCity returns the current city's region tile.
func (c *City) RegionalCity() service.RegionalCity {
	if c.Current == nil {
		return nil
	}
	return c.Current
}

// Region returns the region.
func (c *City) Region() service.Region {
	if c.Regions == nil {
		return nil
	}
	return c.Regions
}
