package algorithm

import (
	"fmt"
	"math"
	"strings"

	"github.com/sc4plugins/custom-budget-departments/internal/common"
	"github.com/sc4plugins/custom-budget-departments/internal/model"
	"github.com/sc4plugins/custom-budget-departments/internal/service"
)

// FactorEncoding selects how algorithm factors are stored in building properties.
type FactorEncoding string

const (
	// EncodingRational stores one line item table per algorithm type. Each
	// table row starts with the line number followed by numerator/denominator
	// pairs and any integer fields.
	EncodingRational FactorEncoding = "rational"
	// EncodingDirect stores the float factors directly, with separate
	// properties for expenses and incomes.
	EncodingDirect FactorEncoding = "direct"
)

// ParseFactorEncoding validates an encoding name.
func ParseFactorEncoding(name string) (FactorEncoding, error) {
	switch FactorEncoding(strings.ToLower(name)) {
	case EncodingRational, "":
		return EncodingRational, nil
	case EncodingDirect:
		return EncodingDirect, nil
	default:
		return "", fmt.Errorf("%w: factor encoding %q", common.ErrInvalidConfig, name)
	}
}

// Factor property ids.
const (
	PropertyResidentialTotalPopulationExpenseFactor uint32 = 0x9EE12410
	PropertyResidentialTotalPopulationIncomeFactor  uint32 = 0x9EE12411

	PropertyResidentialTotalPopulationTable       uint32 = 0x9EE12412
	PropertyResidentialWealthGroupPopulationTable uint32 = 0x9EE12413
	PropertyTourismTable                          uint32 = 0x9EE12414

	PropertyResidentialWealthGroupPopulationExpenseFactors uint32 = 0x9EE12415
	PropertyResidentialWealthGroupPopulationIncomeFactors  uint32 = 0x9EE12416
	PropertyTourismExpenseFactors                          uint32 = 0x9EE12417
	PropertyTourismIncomeFactors                           uint32 = 0x9EE12418
)

// Row sizes of the rational line item tables, line number included.
const (
	residentialTotalRowSize = 3
	wealthGroupRowSize      = 7
	tourismRowSize          = 4
)

// CreateError reports why an algorithm could not be built.
type CreateError struct {
	Reason string
	Type   Type
	Line   model.LineNumber
}

func (e *CreateError) Error() string {
	return fmt.Sprintf("%v: %s for line %s: %s", common.ErrAlgorithmCreation, e.Type, e.Line, e.Reason)
}

// Unwrap lets callers match common.ErrAlgorithmCreation.
func (e *CreateError) Unwrap() error {
	return common.ErrAlgorithmCreation
}

// Factory builds algorithms from building properties or from a stored type.
type Factory struct {
	Encoding FactorEncoding
}

// NewFactory creates a factory reading the given factor encoding.
func NewFactory(encoding FactorEncoding) *Factory {
	if encoding == "" {
		encoding = EncodingRational
	}
	return &Factory{Encoding: encoding}
}

// New returns a zero-valued algorithm of type t, ready to be filled by Read.
// Fixed yields a nil algorithm.
func (f *Factory) New(t Type) (Algorithm, error) {
	switch t {
	case Fixed:
		return nil, nil
	case ResidentialTotalPopulation:
		return &ResidentialTotalPopulationAlgorithm{}, nil
	case ResidentialWealthGroupPopulation:
		return &ResidentialWealthGroupPopulationAlgorithm{}, nil
	case Tourism:
		return &TourismAlgorithm{}, nil
	default:
		return nil, &CreateError{Type: t, Reason: "unknown algorithm type"}
	}
}

// SelectType returns the algorithm assigned to line by the building's
// algorithm table. Lines the table does not list use Fixed.
func SelectType(holder service.PropertyHolder, line model.LineNumber) (Type, error) {
	if holder == nil {
		return Fixed, nil
	}
	value, ok := holder.Property(model.PropertyLineItemAlgorithm)
	if !ok {
		return Fixed, nil
	}
	if value.Kind != model.KindUint32Array || len(value.Uint32s) < 2 || len(value.Uint32s)%2 != 0 {
		return Fixed, &CreateError{
			Line:   line,
			Reason: fmt.Sprintf("algorithm table must be a uint32 array of pairs, got %s[%d]", value.Kind, value.Count()),
		}
	}

	for i := 0; i < len(value.Uint32s); i += 2 {
		if model.LineNumber(value.Uint32s[i]) == line {
			return Type(value.Uint32s[i+1]), nil
		}
	}
	return Fixed, nil
}

// FromProperties builds the algorithm of type t for one line item using the
// factors declared on the building. Fixed yields a nil algorithm.
func (f *Factory) FromProperties(holder service.PropertyHolder, t Type, line model.LineNumber, isIncome bool) (Algorithm, error) {
	switch t {
	case Fixed:
		return nil, nil
	case ResidentialTotalPopulation, ResidentialWealthGroupPopulation, Tourism:
	default:
		return nil, &CreateError{Type: t, Line: line, Reason: "unknown algorithm type"}
	}

	if holder == nil {
		return nil, &CreateError{Type: t, Line: line, Reason: "no property holder"}
	}

	if f.Encoding == EncodingDirect {
		return f.fromDirect(holder, t, line, isIncome)
	}
	return f.fromRational(holder, t, line)
}

func (f *Factory) fromRational(holder service.PropertyHolder, t Type, line model.LineNumber) (Algorithm, error) {
	fail := func(format string, args ...any) error {
		return &CreateError{Type: t, Line: line, Reason: fmt.Sprintf(format, args...)}
	}

	switch t {
	case ResidentialTotalPopulation:
		row, reason := tableRow(holder, PropertyResidentialTotalPopulationTable, residentialTotalRowSize, line)
		if reason != "" {
			return nil, fail("%s", reason)
		}
		factor, reason := ratio(row[0], row[1])
		if reason != "" {
			return nil, fail("%s", reason)
		}
		return &ResidentialTotalPopulationAlgorithm{Factor: factor}, nil

	case ResidentialWealthGroupPopulation:
		row, reason := tableRow(holder, PropertyResidentialWealthGroupPopulationTable, wealthGroupRowSize, line)
		if reason != "" {
			return nil, fail("%s", reason)
		}
		var factors [3]float32
		for i := range factors {
			factors[i], reason = ratio(row[2*i], row[2*i+1])
			if reason != "" {
				return nil, fail("%s", reason)
			}
		}
		return &ResidentialWealthGroupPopulationAlgorithm{
			LowFactor:    factors[0],
			MediumFactor: factors[1],
			HighFactor:   factors[2],
		}, nil

	default:
		row, reason := tableRow(holder, PropertyTourismTable, tourismRowSize, line)
		if reason != "" {
			return nil, fail("%s", reason)
		}
		return tourism(row[0], row[1], row[2], fail)
	}
}

func (f *Factory) fromDirect(holder service.PropertyHolder, t Type, line model.LineNumber, isIncome bool) (Algorithm, error) {
	fail := func(format string, args ...any) error {
		return &CreateError{Type: t, Line: line, Reason: fmt.Sprintf(format, args...)}
	}

	switch t {
	case ResidentialTotalPopulation:
		id := PropertyResidentialTotalPopulationExpenseFactor
		if isIncome {
			id = PropertyResidentialTotalPopulationIncomeFactor
		}
		value, ok := holder.Property(id)
		if !ok {
			return nil, fail("missing property %s", common.Hex(id))
		}
		if (value.Kind != model.KindFloat32 && value.Kind != model.KindFloat32Array) || len(value.Float32s) != 1 {
			return nil, fail("property %s must hold one float, got %s[%d]", common.Hex(id), value.Kind, value.Count())
		}
		return &ResidentialTotalPopulationAlgorithm{Factor: value.Float32s[0]}, nil

	case ResidentialWealthGroupPopulation:
		id := PropertyResidentialWealthGroupPopulationExpenseFactors
		if isIncome {
			id = PropertyResidentialWealthGroupPopulationIncomeFactors
		}
		value, ok := holder.Property(id)
		if !ok {
			return nil, fail("missing property %s", common.Hex(id))
		}
		if value.Kind != model.KindFloat32Array || len(value.Float32s) != 3 {
			return nil, fail("property %s must hold three floats, got %s[%d]", common.Hex(id), value.Kind, value.Count())
		}
		return &ResidentialWealthGroupPopulationAlgorithm{
			LowFactor:    value.Float32s[0],
			MediumFactor: value.Float32s[1],
			HighFactor:   value.Float32s[2],
		}, nil

	default:
		id := PropertyTourismExpenseFactors
		if isIncome {
			id = PropertyTourismIncomeFactors
		}
		value, ok := holder.Property(id)
		if !ok {
			return nil, fail("missing property %s", common.Hex(id))
		}
		if value.Kind != model.KindSint64Array || len(value.Sint64s) != 3 {
			return nil, fail("property %s must hold [numerator, denominator, geopolitics], got %s[%d]", common.Hex(id), value.Kind, value.Count())
		}
		return tourism(value.Sint64s[0], value.Sint64s[1], value.Sint64s[2], fail)
	}
}

func tourism(numerator, denominator, geopolitics int64, fail func(string, ...any) error) (Algorithm, error) {
	factor, reason := ratio(numerator, denominator)
	if reason != "" {
		return nil, fail("%s", reason)
	}
	if geopolitics <= 0 {
		return nil, fail("geopolitics factor must be positive, got %d", geopolitics)
	}
	return &TourismAlgorithm{TourismFactor: factor, GeopoliticsFactor: geopolitics}, nil
}

// tableRow finds the row for line in a rational line item table and returns
// the values after the line number. A non-empty string describes the failure.
func tableRow(holder service.PropertyHolder, id uint32, rowSize int, line model.LineNumber) ([]int64, string) {
	value, ok := holder.Property(id)
	if !ok {
		return nil, fmt.Sprintf("missing property %s", common.Hex(id))
	}
	if value.Kind != model.KindSint64Array {
		return nil, fmt.Sprintf("property %s must be a sint64 array, got %s", common.Hex(id), value.Kind)
	}
	if len(value.Sint64s) == 0 || len(value.Sint64s)%rowSize != 0 {
		return nil, fmt.Sprintf("property %s must hold rows of %d values, got %d values", common.Hex(id), rowSize, len(value.Sint64s))
	}

	for i := 0; i < len(value.Sint64s); i += rowSize {
		if value.Sint64s[i] == int64(line) {
			return value.Sint64s[i+1 : i+rowSize], ""
		}
	}
	return nil, fmt.Sprintf("line not found in property %s", common.Hex(id))
}

// ratio collapses a numerator/denominator pair to a float factor.
func ratio(numerator, denominator int64) (float32, string) {
	if denominator <= 0 {
		return 0, fmt.Sprintf("denominator must be positive, got %d", denominator)
	}
	if numerator < math.MinInt32 || numerator > math.MaxInt32 {
		return 0, fmt.Sprintf("numerator %d is out of range", numerator)
	}
	return float32(float64(numerator) / float64(denominator)), ""
}
