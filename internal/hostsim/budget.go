// Package hostsim is an in-memory implementation of the host services the
// budget engine talks to. The CLI replays scenarios against it and the tests
// use it as the host.
package hostsim

import (
	"fmt"
	"sort"

	"github.com/sc4plugins/custom-budget-departments/internal/common"
	"github.com/sc4plugins/custom-budget-departments/internal/model"
	"github.com/sc4plugins/custom-budget-departments/internal/service"
)

// LineItem is an in-memory budget line item.
type LineItem struct {
	flags        map[service.DisplayFlag]bool
	Name         model.StringResourceKey
	id           model.LineNumber
	kind         service.LineItemType
	secondary    int64
	fullExpenses int64
	income       int64
	LocalFunding bool
}

// ID returns the line number.
func (l *LineItem) ID() model.LineNumber { return l.id }

// Type returns the line kind.
func (l *LineItem) Type() service.LineItemType { return l.kind }

// SetType sets the line kind.
func (l *LineItem) SetType(t service.LineItemType) { l.kind = t }

// SetName sets the display name key.
func (l *LineItem) SetName(groupID, instanceID uint32) {
	l.Name = model.StringResourceKey{GroupID: groupID, InstanceID: instanceID}
}

// SecondaryInfoField returns the building count.
func (l *LineItem) SecondaryInfoField() int64 { return l.secondary }

// SetSecondaryInfoField sets the building count.
func (l *LineItem) SetSecondaryInfoField(value int64) { l.secondary = value }

// FullExpenses returns the monthly expense.
func (l *LineItem) FullExpenses() int64 { return l.fullExpenses }

// SetFullExpenses sets the monthly expense.
func (l *LineItem) SetFullExpenses(value int64) { l.fullExpenses = value }

// AddToFullExpenses adjusts the monthly expense.
func (l *LineItem) AddToFullExpenses(value int64) { l.fullExpenses += value }

// Income returns the monthly income.
func (l *LineItem) Income() int64 { return l.income }

// SetIncome sets the monthly income.
func (l *LineItem) SetIncome(value int64) { l.income = value }

// AddToIncome adjusts the monthly income.
func (l *LineItem) AddToIncome(value int64) { l.income += value }

// DisplayFlag reports a display flag.
func (l *LineItem) DisplayFlag(flag service.DisplayFlag) bool { return l.flags[flag] }

// SetDisplayFlag sets a display flag.
func (l *LineItem) SetDisplayFlag(flag service.DisplayFlag, value bool) {
	if l.flags == nil {
		l.flags = make(map[service.DisplayFlag]bool)
	}
	l.flags[flag] = value
}

// Department is an in-memory budget department.
type Department struct {
	lines        map[model.LineNumber]*LineItem
	Name         model.StringResourceKey
	id           model.DepartmentID
	Group        model.BudgetGroup
	FixedFunding bool

	// RejectLineItems makes CreateLineItem fail.
	RejectLineItems bool
}

// ID returns the department id.
func (d *Department) ID() model.DepartmentID { return d.id }

// SetFixedFunding sets whether the department has a funding slider.
func (d *Department) SetFixedFunding(fixed bool) { d.FixedFunding = fixed }

// SetDepartmentName sets the localized name key.
func (d *Department) SetDepartmentName(key model.StringResourceKey) { d.Name = key }

// LineItem looks up a line item.
func (d *Department) LineItem(line model.LineNumber) (service.LineItem, bool) {
	item, ok := d.lines[line]
	if !ok {
		return nil, false
	}
	return item, true
}

// Line returns the concrete line item for inspection.
func (d *Department) Line(line model.LineNumber) *LineItem {
	return d.lines[line]
}

// CreateLineItem adds a line item.
func (d *Department) CreateLineItem(line model.LineNumber, localFunding bool) (service.LineItem, error) {
	if d.RejectLineItems {
		return nil, fmt.Errorf("%w: line item %s in department %s", common.ErrHostRejected, line, d.id)
	}
	if _, exists := d.lines[line]; exists {
		return nil, fmt.Errorf("%w: line item %s already exists", common.ErrHostRejected, line)
	}
	item := &LineItem{id: line, LocalFunding: localFunding}
	d.lines[line] = item
	return item, nil
}

// RemoveLineItem deletes a line item.
func (d *Department) RemoveLineItem(line model.LineNumber) bool {
	if _, ok := d.lines[line]; !ok {
		return false
	}
	delete(d.lines, line)
	return true
}

// Lines returns the line numbers in ascending order.
func (d *Department) Lines() []model.LineNumber {
	lines := make([]model.LineNumber, 0, len(d.lines))
	for line := range d.lines {
		lines = append(lines, line)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i] < lines[j] })
	return lines
}

// BudgetSimulator is an in-memory budget simulator.
type BudgetSimulator struct {
	departments map[model.DepartmentID]*Department

	// RejectDepartments makes CreateDepartmentBudget fail.
	RejectDepartments bool
	// RejectLineItems is copied to every department created afterwards.
	RejectLineItems bool
}

// NewBudgetSimulator creates an empty budget simulator.
func NewBudgetSimulator() *BudgetSimulator {
	return &BudgetSimulator{departments: make(map[model.DepartmentID]*Department)}
}

// DepartmentBudget looks up a department.
func (b *BudgetSimulator) DepartmentBudget(id model.DepartmentID) (service.DepartmentBudget, bool) {
	dept, ok := b.departments[id]
	if !ok {
		return nil, false
	}
	return dept, true
}

// Department returns the concrete department for inspection.
func (b *BudgetSimulator) Department(id model.DepartmentID) *Department {
	return b.departments[id]
}

// CreateDepartmentBudget adds a department.
func (b *BudgetSimulator) CreateDepartmentBudget(id model.DepartmentID, group model.BudgetGroup) (service.DepartmentBudget, error) {
	if b.RejectDepartments {
		return nil, fmt.Errorf("%w: department %s", common.ErrHostRejected, id)
	}
	if !group.IsValid() {
		return nil, fmt.Errorf("%w: budget group %s", common.ErrHostRejected, group)
	}
	if _, exists := b.departments[id]; exists {
		return nil, fmt.Errorf("%w: department %s already exists", common.ErrHostRejected, id)
	}
	dept := &Department{
		id:              id,
		Group:           group,
		lines:           make(map[model.LineNumber]*LineItem),
		RejectLineItems: b.RejectLineItems,
	}
	b.departments[id] = dept
	return dept, nil
}

// Departments returns the department ids in ascending order.
func (b *BudgetSimulator) Departments() []model.DepartmentID {
	ids := make([]model.DepartmentID, 0, len(b.departments))
	for id := range b.departments {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
