// Package engine keeps the custom budget departments of a city in step with
// the buildings placed in it.
package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/sc4plugins/custom-budget-departments/internal/algorithm"
	"github.com/sc4plugins/custom-budget-departments/internal/common"
	"github.com/sc4plugins/custom-budget-departments/internal/model"
	"github.com/sc4plugins/custom-budget-departments/internal/population"
	"github.com/sc4plugins/custom-budget-departments/internal/service"
	"github.com/sc4plugins/custom-budget-departments/internal/transaction"
)

// State is the city session state of a Manager.
type State int

// Session states.
const (
	StateUninitialized State = iota
	StateActive
)

func (s State) String() string {
	if s == StateActive {
		return "active"
	}
	return "uninitialized"
}

// Manager reconciles host budget departments and line items with the
// buildings of the current city. It is driven by one goroutine at a time.
type Manager struct {
	logger     *slog.Logger
	factory    *algorithm.Factory
	population *population.Provider
	budget     service.BudgetSimulator
	registry   *Registry
	state      State
}

// NewManager creates a manager. A nil logger uses slog.Default.
func NewManager(factory *algorithm.Factory, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if factory == nil {
		factory = algorithm.NewFactory(algorithm.EncodingRational)
	}
	return &Manager{
		logger:     logger,
		factory:    factory,
		population: population.NewProvider(logger),
		registry:   NewRegistry(),
	}
}

// State returns the session state.
func (m *Manager) State() State {
	return m.state
}

// Population returns the population figures the algorithms consult.
func (m *Manager) Population() *population.Provider {
	return m.population
}

// Registry returns a snapshot of the registered transactions.
func (m *Manager) Registry() *Registry {
	return m.registry.Clone()
}

// PostCityInit starts a city session. The manager becomes active only when
// the city has a budget simulator. A population failure is logged and the
// algorithms then see zero populations.
func (m *Manager) PostCityInit(city service.City) {
	m.budget = nil
	m.state = StateUninitialized

	if city == nil {
		return
	}

	m.budget = city.BudgetSimulator()
	if m.budget == nil {
		common.LogError(m.logger, common.ErrHostUnavailable, "City has no budget simulator", nil)
		return
	}

	if err := m.population.Init(city); err != nil {
		common.LogError(m.logger, err, "Failed to initialize population figures", nil)
	}
	m.state = StateActive

	common.LogDebug(m.logger, "City session started", common.Fields{
		"departments": m.registry.Len(),
		"lines":       m.registry.LineCount(),
	})
}

// PostCityShutdown ends the city session and clears all session state.
func (m *Manager) PostCityShutdown() {
	m.budget = nil
	m.population.Shutdown()
	m.registry = NewRegistry()
	m.state = StateUninitialized
}

// InsertOccupant adds a building's custom budget entries to the city budget.
func (m *Manager) InsertOccupant(occupant service.Occupant) {
	if m.state != StateActive || occupant == nil || occupant.OccupantType() != model.OccupantTypeBuilding {
		return
	}

	holder := occupant.PropertyHolder()
	infos := m.departmentInfo(holder)
	if len(infos) == 0 {
		return
	}

	building, ok := occupant.(service.BuildingOccupant)
	if !ok {
		return
	}

	for _, info := range infos {
		m.insertEntry(holder, building, info)
	}
}

func (m *Manager) insertEntry(holder service.PropertyHolder, building service.BuildingOccupant, info model.DepartmentInfo) {
	tx, err := m.obtainTransaction(holder, info)
	if err != nil {
		common.LogError(m.logger, err, "Failed to create line item transaction", entryFields(info))
		return
	}

	dept, err := m.obtainDepartment(info)
	if err != nil {
		common.LogError(m.logger, err, "Failed to create budget department", entryFields(info))
		m.registry.Remove(info.Department, info.Line)
		return
	}

	item, err := m.obtainLineItem(building, dept, info)
	if err != nil {
		common.LogError(m.logger, err, "Failed to create line item", entryFields(info))
		m.registry.Remove(info.Department, info.Line)
		return
	}

	count := item.SecondaryInfoField() + 1
	item.SetSecondaryInfoField(count)

	total := tx.CalculateLineItemTotal(m.population, count)
	if info.IsIncome() {
		item.SetIncome(total)
	} else {
		item.SetFullExpenses(total)
	}

	if count > 1 {
		item.SetDisplayFlag(service.DisplayShowSecondaryInfoField, true)
	}

	common.LogDebug(m.logger, "Building added to line item", withFields(entryFields(info), common.Fields{
		"buildings": count,
		"total":     total,
	}))
}

// RemoveOccupant takes a building's custom budget entries out of the city
// budget. Lines without a registered transaction predate transactions and
// have the building's fixed cost subtracted directly.
func (m *Manager) RemoveOccupant(occupant service.Occupant) {
	if m.state != StateActive || occupant == nil || occupant.OccupantType() != model.OccupantTypeBuilding {
		return
	}

	for _, info := range m.departmentInfo(occupant.PropertyHolder()) {
		m.removeEntry(info)
	}
}

func (m *Manager) removeEntry(info model.DepartmentInfo) {
	dept, ok := m.budget.DepartmentBudget(info.Department)
	if !ok {
		return
	}
	item, ok := dept.LineItem(info.Line)
	if !ok {
		return
	}

	count := item.SecondaryInfoField()
	tx, registered := m.registry.Transaction(info.Department, info.Line)

	switch {
	case registered && info.IsIncome():
		item.SetIncome(tx.CalculateLineItemTotal(m.population, count-1))
	case registered:
		item.SetFullExpenses(tx.CalculateLineItemTotal(m.population, count-1))
	case info.IsIncome():
		item.AddToIncome(-info.Cost)
	default:
		item.AddToFullExpenses(-info.Cost)
	}

	if count > 1 {
		count--
		item.SetSecondaryInfoField(count)
		if count == 1 {
			item.SetDisplayFlag(service.DisplayShowSecondaryInfoField, false)
		}
		common.LogDebug(m.logger, "Building removed from line item", withFields(entryFields(info), common.Fields{
			"buildings": count,
		}))
		return
	}

	dept.RemoveLineItem(info.Line)
	if registered {
		m.registry.Remove(info.Department, info.Line)
	}
	common.LogDebug(m.logger, "Line item removed", entryFields(info))
}

// SimNewMonth recomputes every population-driven line. Fixed cost lines
// never change after creation and are left alone.
func (m *Manager) SimNewMonth() {
	if m.state != StateActive {
		return
	}

	for _, id := range m.registry.Departments() {
		dept, ok := m.budget.DepartmentBudget(id)
		if !ok {
			continue
		}

		for _, line := range m.registry.Lines(id) {
			tx, _ := m.registry.Transaction(id, line)
			if tx == nil || tx.IsFixedCost() {
				continue
			}
			item, ok := dept.LineItem(line)
			if !ok {
				continue
			}

			total := tx.CalculateLineItemTotal(m.population, item.SecondaryInfoField())
			if tx.IsIncome() {
				item.SetIncome(total)
			} else {
				item.SetFullExpenses(total)
			}
		}
	}
}

// Save writes the registry to segment. Nothing is written while the
// registry is empty.
func (m *Manager) Save(segment service.DBSegment) error {
	if segment == nil || m.registry.Len() == 0 {
		return nil
	}

	stream, err := segment.OpenOStream(model.RegistryResourceKey, true)
	if err != nil {
		err = fmt.Errorf("failed to open registry stream: %w", err)
		common.LogError(m.logger, err, "Failed to save custom budget departments", nil)
		return err
	}

	err = m.registry.WriteTo(stream)
	if closeErr := stream.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		err = fmt.Errorf("failed to write registry: %w", err)
		common.LogError(m.logger, err, "Failed to save custom budget departments", nil)
		return err
	}
	return nil
}

// Load replaces the registry with the one stored in segment. A segment
// without a registry record is not an error. On any decoding failure the
// current registry is kept.
func (m *Manager) Load(segment service.DBSegment) error {
	if segment == nil {
		return nil
	}

	stream, err := segment.OpenIStream(model.RegistryResourceKey)
	if errors.Is(err, common.ErrNotFound) {
		return nil
	}
	if err != nil {
		err = fmt.Errorf("failed to open registry stream: %w", err)
		common.LogError(m.logger, err, "Failed to load custom budget departments", nil)
		return err
	}
	defer stream.Close()

	registry, err := ReadRegistry(stream, m.factory)
	if err != nil {
		common.LogError(m.logger, err, "Failed to load custom budget departments", nil)
		return err
	}

	m.registry = registry
	common.LogDebug(m.logger, "Loaded custom budget departments", common.Fields{
		"departments": registry.Len(),
		"lines":       registry.LineCount(),
	})
	return nil
}

func (m *Manager) departmentInfo(holder service.PropertyHolder) []model.DepartmentInfo {
	infos, err := ExtractDepartmentInfo(holder)
	if err != nil {
		common.LogError(m.logger, err, "Invalid custom budget department properties", nil)
		return nil
	}
	return infos
}

// obtainTransaction returns the line's transaction, creating it from the
// building's factors on first sight of the line.
func (m *Manager) obtainTransaction(holder service.PropertyHolder, info model.DepartmentInfo) (*transaction.LineItemTransaction, error) {
	if tx, ok := m.registry.Transaction(info.Department, info.Line); ok {
		return tx, nil
	}

	t, err := algorithm.SelectType(holder, info.Line)
	if err != nil {
		return nil, err
	}
	tx, err := transaction.New(m.factory, holder, t, info.Cost, info.Line, info.IsIncome())
	if err != nil {
		return nil, err
	}

	m.registry.Set(info.Department, info.Line, tx)
	return tx, nil
}

func (m *Manager) obtainDepartment(info model.DepartmentInfo) (service.DepartmentBudget, error) {
	if dept, ok := m.budget.DepartmentBudget(info.Department); ok {
		return dept, nil
	}

	if !info.BudgetGroup.IsValid() {
		return nil, fmt.Errorf("%w: invalid budget group %s", common.ErrHostRejected, common.Hex(uint32(info.BudgetGroup)))
	}

	dept, err := m.budget.CreateDepartmentBudget(info.Department, info.BudgetGroup)
	if err != nil {
		return nil, err
	}
	if dept == nil {
		return nil, fmt.Errorf("%w: department %s", common.ErrHostRejected, info.Department)
	}

	dept.SetFixedFunding(true)
	dept.SetDepartmentName(info.NameKey)
	return dept, nil
}

func (m *Manager) obtainLineItem(building service.BuildingOccupant, dept service.DepartmentBudget, info model.DepartmentInfo) (service.LineItem, error) {
	if item, ok := dept.LineItem(info.Line); ok {
		return item, nil
	}

	item, err := dept.CreateLineItem(info.Line, false)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: line item %s", common.ErrHostRejected, info.Line)
	}

	item.SetName(0, building.BuildingType())
	if info.IsIncome() {
		item.SetType(service.LineItemIncome)
	}
	return item, nil
}

func entryFields(info model.DepartmentInfo) common.Fields {
	return common.Fields{
		"department":   info.Department.String(),
		"line":         info.Line.String(),
		"budget_group": common.Hex(uint32(info.BudgetGroup)),
		"type":         info.Type.String(),
	}
}

func withFields(base, extra common.Fields) common.Fields {
	for k, v := range extra {
		base[k] = v
	}
	return base
}
