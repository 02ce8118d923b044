// Package service defines the interfaces of the host services the budget engine consumes.
package service

import (
	"io"

	"github.com/sc4plugins/custom-budget-departments/internal/model"
)

// PropertyHolder exposes a building's declarative exemplar properties.
type PropertyHolder interface {
	Property(id uint32) (model.PropertyValue, bool)
}

// Occupant is anything placed on the city map.
type Occupant interface {
	OccupantType() uint32
	PropertyHolder() PropertyHolder
}

// BuildingOccupant is an occupant that is a building.
type BuildingOccupant interface {
	Occupant
	BuildingType() uint32
}

// LineItemType is the kind of a budget line item.
type LineItemType uint32

// Line item kinds.
const (
	LineItemExpense LineItemType = iota
	LineItemIncome
)

// DisplayFlag toggles optional columns of a line item in the budget panel.
type DisplayFlag uint32

// DisplayShowSecondaryInfoField renders the secondary field next to the line name.
const DisplayShowSecondaryInfoField DisplayFlag = 1

// LineItem is one row of a department budget.
type LineItem interface {
	ID() model.LineNumber
	Type() LineItemType
	SetType(t LineItemType)
	SetName(groupID, instanceID uint32)

	// The secondary info field holds the number of contributing buildings.
	SecondaryInfoField() int64
	SetSecondaryInfoField(value int64)

	FullExpenses() int64
	SetFullExpenses(value int64)
	AddToFullExpenses(value int64)

	Income() int64
	SetIncome(value int64)
	AddToIncome(value int64)

	DisplayFlag(flag DisplayFlag) bool
	SetDisplayFlag(flag DisplayFlag, value bool)
}

// DepartmentBudget is a budget department of the host simulator.
type DepartmentBudget interface {
	ID() model.DepartmentID
	SetFixedFunding(fixed bool)
	SetDepartmentName(key model.StringResourceKey)

	LineItem(line model.LineNumber) (LineItem, bool)
	CreateLineItem(line model.LineNumber, localFunding bool) (LineItem, error)
	RemoveLineItem(line model.LineNumber) bool
}

// BudgetSimulator owns the city's budget departments.
type BudgetSimulator interface {
	DepartmentBudget(id model.DepartmentID) (DepartmentBudget, bool)
	CreateDepartmentBudget(id model.DepartmentID, group model.BudgetGroup) (DepartmentBudget, error)
}

// ResidentialSimulator reports the city's residential population.
type ResidentialSimulator interface {
	Population() int32
}

// DemandSimulator reports demand figures for the city.
type DemandSimulator interface {
	SupplyValue(demandID uint32) (float32, bool)
}

// RegionalCity is a city tile of the region view.
type RegionalCity interface {
	Position() (x, z int32)
	Established() bool
	Population() int64
	PopulationFor(demandID uint32) int64
}

// Location is a city tile position in the region.
type Location struct {
	X int32
	Z int32
}

// Region enumerates the cities of the current region.
type Region interface {
	CityLocations() []Location
	City(x, z int32) (RegionalCity, bool)
}

// City is the active city session. Accessors return nil when the host has
// no such service.
type City interface {
	BudgetSimulator() BudgetSimulator
	ResidentialSimulator() ResidentialSimulator
	DemandSimulator() DemandSimulator
	RegionalCity() RegionalCity
	Region() Region
}

// DBSegment is a save-game segment holding keyed binary records.
type DBSegment interface {
	OpenIStream(key model.ResourceKey) (io.ReadCloser, error)
	OpenOStream(key model.ResourceKey, replace bool) (io.WriteCloser, error)
}

// Message is a notification dispatched by the host framework.
// Data carries the typed payload: City, Occupant or DBSegment.
type Message struct {
	Data any
	Type uint32
}

// MessageTarget receives host notifications.
type MessageTarget interface {
	DoMessage(msg Message) bool
}

// MessageServer registers targets for notifications.
type MessageServer interface {
	AddNotification(target MessageTarget, messageType uint32) bool
	RemoveNotification(target MessageTarget, messageType uint32) bool
}
