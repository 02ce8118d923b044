// Package algorithm implements the population-driven formulas that compute
// variable budget line item totals.
package algorithm

import (
	"fmt"
	"math"

	"github.com/sc4plugins/custom-budget-departments/internal/codec"
	"github.com/shopspring/decimal"
)

// Type identifies a transaction algorithm. The value is persisted.
type Type uint32

// Algorithm types.
const (
	// Fixed has no algorithm instance: the line total is the per-building
	// cost times the building count.
	Fixed Type = iota
	ResidentialTotalPopulation
	ResidentialWealthGroupPopulation
	Tourism
)

func (t Type) String() string {
	switch t {
	case Fixed:
		return "fixed"
	case ResidentialTotalPopulation:
		return "residential-total-population"
	case ResidentialWealthGroupPopulation:
		return "residential-wealth-group-population"
	case Tourism:
		return "tourism"
	default:
		return fmt.Sprintf("unknown(%d)", uint32(t))
	}
}

// ParseType resolves an algorithm type by name.
func ParseType(name string) (Type, bool) {
	for t := Fixed; t <= Tourism; t++ {
		if t.String() == name {
			return t, true
		}
	}
	return 0, false
}

// PopulationSource is the population data an algorithm may consult.
type PopulationSource interface {
	CityResidentialPopulation() int32
	CityPopulation(demandID uint32) int32
	RegionResidentialPopulation() int64
	RegionPopulation(demandID uint32) int64
}

// Algorithm adjusts a line item total using population figures.
type Algorithm interface {
	Type() Type

	// Calculate returns initialTotal plus the algorithm's variable amount.
	// initialTotal is the per-building cost already multiplied by the
	// building count. A nil source leaves the total unchanged.
	Calculate(pop PopulationSource, initialTotal int64) int64

	Read(r *codec.Reader) error
	Write(w *codec.Writer) error
}

// scale multiplies a population figure by a factor and truncates toward zero.
// The factor is taken at its shortest decimal form, so a factor authored as
// 0.005 yields exactly 5 for a population of 1000.
func scale(population int64, factor float32) int64 {
	f := float64(factor)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return decimal.NewFromInt(population).Mul(decimal.NewFromFloat32(factor)).IntPart()
}
