package algorithm

import (
	"fmt"

	"github.com/sc4plugins/custom-budget-departments/internal/codec"
	"github.com/sc4plugins/custom-budget-departments/internal/common"
	"github.com/sc4plugins/custom-budget-departments/internal/model"
)

// TourismAlgorithm simulates local and national tourism:
//
//	variable = (x + y + z + j*d + k*d + l*d) / p
//
// where x, y, z are the city's low, medium and high wealth populations, j, k, l
// the regional ones, d the tourism factor and p the geopolitics factor.
type TourismAlgorithm struct {
	TourismFactor     float32
	GeopoliticsFactor int64
}

// Type implements Algorithm.
func (a *TourismAlgorithm) Type() Type {
	return Tourism
}

// Calculate implements Algorithm.
func (a *TourismAlgorithm) Calculate(pop PopulationSource, initialTotal int64) int64 {
	if pop == nil || a.GeopoliticsFactor <= 0 {
		return initialTotal
	}

	var sum int64
	for _, tier := range model.WealthTiers {
		sum += int64(pop.CityPopulation(tier))
	}
	for _, tier := range model.WealthTiers {
		sum += scale(pop.RegionPopulation(tier), a.TourismFactor)
	}

	return initialTotal + sum/a.GeopoliticsFactor
}

// Read implements Algorithm. A non-positive geopolitics factor is corrupt data.
func (a *TourismAlgorithm) Read(r *codec.Reader) error {
	factor, _ := r.Float32()
	geopolitics, err := r.Int64()
	if err != nil {
		return err
	}
	if geopolitics <= 0 {
		return fmt.Errorf("%w: tourism geopolitics factor %d", common.ErrCorruptData, geopolitics)
	}
	a.TourismFactor, a.GeopoliticsFactor = factor, geopolitics
	return nil
}

// Write implements Algorithm.
func (a *TourismAlgorithm) Write(w *codec.Writer) error {
	_ = w.Float32(a.TourismFactor)
	return w.Int64(a.GeopoliticsFactor)
}
