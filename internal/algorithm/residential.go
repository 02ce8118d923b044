package algorithm

import (
	"github.com/sc4plugins/custom-budget-departments/internal/codec"
	"github.com/sc4plugins/custom-budget-departments/internal/model"
)

// ResidentialTotalPopulationAlgorithm scales the city's residential population.
type ResidentialTotalPopulationAlgorithm struct {
	Factor float32
}

// Type implements Algorithm.
func (a *ResidentialTotalPopulationAlgorithm) Type() Type {
	return ResidentialTotalPopulation
}

// Calculate implements Algorithm.
func (a *ResidentialTotalPopulationAlgorithm) Calculate(pop PopulationSource, initialTotal int64) int64 {
	if pop == nil {
		return initialTotal
	}
	return initialTotal + scale(int64(pop.CityResidentialPopulation()), a.Factor)
}

// Read implements Algorithm.
func (a *ResidentialTotalPopulationAlgorithm) Read(r *codec.Reader) error {
	factor, err := r.Float32()
	if err != nil {
		return err
	}
	a.Factor = factor
	return nil
}

// Write implements Algorithm.
func (a *ResidentialTotalPopulationAlgorithm) Write(w *codec.Writer) error {
	return w.Float32(a.Factor)
}

// ResidentialWealthGroupPopulationAlgorithm scales each wealth tier of the
// city's residential population by its own factor.
type ResidentialWealthGroupPopulationAlgorithm struct {
	LowFactor    float32
	MediumFactor float32
	HighFactor   float32
}

// Type implements Algorithm.
func (a *ResidentialWealthGroupPopulationAlgorithm) Type() Type {
	return ResidentialWealthGroupPopulation
}

// Calculate implements Algorithm. Each tier term is truncated separately.
func (a *ResidentialWealthGroupPopulationAlgorithm) Calculate(pop PopulationSource, initialTotal int64) int64 {
	if pop == nil {
		return initialTotal
	}

	total := initialTotal
	total += scale(int64(pop.CityPopulation(model.DemandResidentialLowWealth)), a.LowFactor)
	total += scale(int64(pop.CityPopulation(model.DemandResidentialMediumWealth)), a.MediumFactor)
	total += scale(int64(pop.CityPopulation(model.DemandResidentialHighWealth)), a.HighFactor)
	return total
}

// Read implements Algorithm.
func (a *ResidentialWealthGroupPopulationAlgorithm) Read(r *codec.Reader) error {
	low, _ := r.Float32()
	medium, _ := r.Float32()
	high, err := r.Float32()
	if err != nil {
		return err
	}
	a.LowFactor, a.MediumFactor, a.HighFactor = low, medium, high
	return nil
}

// Write implements Algorithm.
func (a *ResidentialWealthGroupPopulationAlgorithm) Write(w *codec.Writer) error {
	_ = w.Float32(a.LowFactor)
	_ = w.Float32(a.MediumFactor)
	return w.Float32(a.HighFactor)
}
