package engine

import (
	"fmt"
	"io"
	"sort"

	"github.com/sc4plugins/custom-budget-departments/internal/algorithm"
	"github.com/sc4plugins/custom-budget-departments/internal/codec"
	"github.com/sc4plugins/custom-budget-departments/internal/common"
	"github.com/sc4plugins/custom-budget-departments/internal/model"
	"github.com/sc4plugins/custom-budget-departments/internal/transaction"
)

// RegistryVersion is the only registry record version this package reads.
const RegistryVersion uint32 = 1

// Registry maps departments and their line numbers to transactions. A
// department is present only while it has at least one line.
type Registry struct {
	departments map[model.DepartmentID]map[model.LineNumber]*transaction.LineItemTransaction
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{departments: make(map[model.DepartmentID]map[model.LineNumber]*transaction.LineItemTransaction)}
}

// Transaction looks up the transaction of a line.
func (r *Registry) Transaction(dept model.DepartmentID, line model.LineNumber) (*transaction.LineItemTransaction, bool) {
	tx, ok := r.departments[dept][line]
	return tx, ok
}

// Set registers tx for a line, replacing any previous transaction.
func (r *Registry) Set(dept model.DepartmentID, line model.LineNumber, tx *transaction.LineItemTransaction) {
	lines, ok := r.departments[dept]
	if !ok {
		lines = make(map[model.LineNumber]*transaction.LineItemTransaction)
		r.departments[dept] = lines
	}
	lines[line] = tx
}

// Remove drops the transaction of a line and the department once it has no
// lines left. It reports whether a transaction was removed.
func (r *Registry) Remove(dept model.DepartmentID, line model.LineNumber) bool {
	lines, ok := r.departments[dept]
	if !ok {
		return false
	}
	if _, ok := lines[line]; !ok {
		return false
	}

	delete(lines, line)
	if len(lines) == 0 {
		delete(r.departments, dept)
	}
	return true
}

// Departments returns the registered department ids in ascending order.
func (r *Registry) Departments() []model.DepartmentID {
	ids := make([]model.DepartmentID, 0, len(r.departments))
	for id := range r.departments {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Lines returns the line numbers registered for dept in ascending order.
func (r *Registry) Lines(dept model.DepartmentID) []model.LineNumber {
	lines := make([]model.LineNumber, 0, len(r.departments[dept]))
	for line := range r.departments[dept] {
		lines = append(lines, line)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i] < lines[j] })
	return lines
}

// Len returns the number of registered departments.
func (r *Registry) Len() int {
	return len(r.departments)
}

// LineCount returns the number of registered lines across all departments.
func (r *Registry) LineCount() int {
	n := 0
	for _, lines := range r.departments {
		n += len(lines)
	}
	return n
}

// Clone returns a registry sharing the transactions but not the maps.
func (r *Registry) Clone() *Registry {
	clone := NewRegistry()
	for dept, lines := range r.departments {
		copied := make(map[model.LineNumber]*transaction.LineItemTransaction, len(lines))
		for line, tx := range lines {
			copied[line] = tx
		}
		clone.departments[dept] = copied
	}
	return clone
}

// WriteTo serializes the registry. Departments and lines are written in
// ascending order.
func (r *Registry) WriteTo(out io.Writer) error {
	w := codec.NewWriter(out)
	_ = w.Uint32(RegistryVersion)
	_ = w.Uint32(uint32(len(r.departments)))

	for _, dept := range r.Departments() {
		lines := r.Lines(dept)
		_ = w.Uint32(uint32(dept))
		_ = w.Uint32(uint32(len(lines)))

		for _, line := range lines {
			_ = w.Uint32(uint32(line))
			if err := r.departments[dept][line].Write(w); err != nil {
				return fmt.Errorf("failed to write line %s of department %s: %w", line, dept, err)
			}
		}
	}
	return w.Err()
}

// ReadRegistry decodes a registry written by WriteTo. Departments listed
// without lines are skipped and a department listed twice is corrupt data.
func ReadRegistry(in io.Reader, factory *algorithm.Factory) (*Registry, error) {
	r := codec.NewReader(in)
	if err := r.Version(RegistryVersion); err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}

	registry := NewRegistry()
	departmentCount, err := r.Uint32()
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}

	for i := uint32(0); i < departmentCount; i++ {
		id, _ := r.Uint32()
		lineCount, err := r.Uint32()
		if err != nil {
			return nil, fmt.Errorf("registry: %w", err)
		}
		dept := model.DepartmentID(id)
		if _, exists := registry.departments[dept]; exists {
			return nil, fmt.Errorf("%w: department %s listed twice", common.ErrCorruptData, dept)
		}

		for j := uint32(0); j < lineCount; j++ {
			number, err := r.Uint32()
			if err != nil {
				return nil, fmt.Errorf("registry: %w", err)
			}
			line := model.LineNumber(number)

			tx := &transaction.LineItemTransaction{}
			if err := tx.Read(r, factory); err != nil {
				return nil, fmt.Errorf("line %s of department %s: %w", line, dept, err)
			}
			registry.Set(dept, line, tx)
		}
	}
	return registry, nil
}
