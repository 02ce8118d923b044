// Package transaction holds the per-line budget record that pairs a fixed
// per-building cash flow with an optional population algorithm.
package transaction

import (
	"fmt"

	"github.com/sc4plugins/custom-budget-departments/internal/algorithm"
	"github.com/sc4plugins/custom-budget-departments/internal/codec"
	"github.com/sc4plugins/custom-budget-departments/internal/common"
	"github.com/sc4plugins/custom-budget-departments/internal/model"
	"github.com/sc4plugins/custom-budget-departments/internal/service"
)

// RecordVersion is the only transaction record version this package reads.
const RecordVersion uint32 = 1

// LineItemTransaction computes the total of one custom budget line.
// A nil algorithm means the line is a fixed cost.
type LineItemTransaction struct {
	algorithm   algorithm.Algorithm
	perBuilding int64
	isIncome    bool
}

// New builds a transaction for line using the factors declared on holder.
func New(
	factory *algorithm.Factory,
	holder service.PropertyHolder,
	t algorithm.Type,
	perBuilding int64,
	line model.LineNumber,
	isIncome bool,
) (*LineItemTransaction, error) {
	alg, err := factory.FromProperties(holder, t, line, isIncome)
	if err != nil {
		return nil, err
	}
	return &LineItemTransaction{
		algorithm:   alg,
		perBuilding: perBuilding,
		isIncome:    isIncome,
	}, nil
}

// NewFixed builds a fixed-cost transaction.
func NewFixed(perBuilding int64, isIncome bool) *LineItemTransaction {
	return &LineItemTransaction{perBuilding: perBuilding, isIncome: isIncome}
}

// CalculateLineItemTotal returns the line total for count buildings.
func (t *LineItemTransaction) CalculateLineItemTotal(pop algorithm.PopulationSource, count int64) int64 {
	if count <= 0 {
		return 0
	}

	total := t.perBuilding * count
	if t.algorithm != nil {
		total = t.algorithm.Calculate(pop, total)
	}
	return total
}

// IsFixedCost reports whether the line has no population algorithm.
func (t *LineItemTransaction) IsFixedCost() bool {
	return t.algorithm == nil
}

// IsIncome reports whether the line is income rather than expense.
func (t *LineItemTransaction) IsIncome() bool {
	return t.isIncome
}

// AlgorithmType returns the persisted algorithm tag.
func (t *LineItemTransaction) AlgorithmType() algorithm.Type {
	if t.algorithm == nil {
		return algorithm.Fixed
	}
	return t.algorithm.Type()
}

// PerBuildingCashFlow returns the fixed amount each building contributes.
func (t *LineItemTransaction) PerBuildingCashFlow() int64 {
	return t.perBuilding
}

// Algorithm returns the population algorithm, or nil for a fixed cost.
func (t *LineItemTransaction) Algorithm() algorithm.Algorithm {
	return t.algorithm
}

// Read replaces the transaction with a record read from r. On failure the
// transaction is left unchanged.
func (t *LineItemTransaction) Read(r *codec.Reader, factory *algorithm.Factory) error {
	if err := r.Version(RecordVersion); err != nil {
		return fmt.Errorf("transaction record: %w", err)
	}

	perBuilding, _ := r.Int64()
	isIncome, _ := r.Bool()
	tag, err := r.Uint32()
	if err != nil {
		return fmt.Errorf("transaction record: %w", err)
	}

	alg, err := factory.New(algorithm.Type(tag))
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrCorruptData, err)
	}
	if alg != nil {
		if err := alg.Read(r); err != nil {
			return fmt.Errorf("%s payload: %w", alg.Type(), err)
		}
	}

	t.algorithm = alg
	t.perBuilding = perBuilding
	t.isIncome = isIncome
	return nil
}

// Write serializes the transaction. Fixed lines are written with the Fixed
// tag and no payload.
func (t *LineItemTransaction) Write(w *codec.Writer) error {
	_ = w.Uint32(RecordVersion)
	_ = w.Int64(t.perBuilding)
	_ = w.Bool(t.isIncome)
	if err := w.Uint32(uint32(t.AlgorithmType())); err != nil {
		return err
	}
	if t.algorithm != nil {
		return t.algorithm.Write(w)
	}
	return nil
}
