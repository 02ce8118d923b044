// Package model defines the budget domain types shared by the engine and its host.
package model

import "fmt"

// DepartmentID names a budget department. Ids are assigned by building authors.
type DepartmentID uint32

// LineNumber names a line item within a department.
type LineNumber uint32

func (d DepartmentID) String() string { return fmt.Sprintf("0x%08x", uint32(d)) }

func (l LineNumber) String() string { return fmt.Sprintf("0x%08x", uint32(l)) }

// BudgetGroup is one of the host's fixed top-level budget categories.
type BudgetGroup uint32

// Budget groups known to the host budget simulator.
const (
	BudgetGroupBusinessDeals       BudgetGroup = 0x0A5A72D1
	BudgetGroupCityBeautification  BudgetGroup = 0x6A357B96
	BudgetGroupGovernmentBuildings BudgetGroup = 0xEA597195
	BudgetGroupHealthAndEducation  BudgetGroup = 0x6A357B7F
	BudgetGroupPublicSafety        BudgetGroup = 0x4A357B40
	BudgetGroupTransportation      BudgetGroup = 0xAA369059
	BudgetGroupUtilities           BudgetGroup = 0x4A357EAF
)

var budgetGroupNames = map[BudgetGroup]string{
	BudgetGroupBusinessDeals:       "business-deals",
	BudgetGroupCityBeautification:  "city-beautification",
	BudgetGroupGovernmentBuildings: "government-buildings",
	BudgetGroupHealthAndEducation:  "health-and-education",
	BudgetGroupPublicSafety:        "public-safety",
	BudgetGroupTransportation:      "transportation",
	BudgetGroupUtilities:           "utilities",
}

// IsValid reports whether the group is one the host accepts.
func (g BudgetGroup) IsValid() bool {
	_, ok := budgetGroupNames[g]
	return ok
}

func (g BudgetGroup) String() string {
	if name, ok := budgetGroupNames[g]; ok {
		return name
	}
	return fmt.Sprintf("0x%08x", uint32(g))
}

// ParseBudgetGroup resolves a group by its name.
func ParseBudgetGroup(name string) (BudgetGroup, bool) {
	for group, n := range budgetGroupNames {
		if n == name {
			return group, true
		}
	}
	return 0, false
}

// ItemType indicates whether a custom line item is an expense or an income.
type ItemType uint32

const (
	// ItemTypeInvalid marks a purpose code that is not a custom budget entry.
	ItemTypeInvalid ItemType = iota
	// ItemTypeExpense represents a recurring cost.
	ItemTypeExpense
	// ItemTypeIncome represents recurring revenue.
	ItemTypeIncome
)

func (t ItemType) String() string {
	switch t {
	case ItemTypeExpense:
		return "expense"
	case ItemTypeIncome:
		return "income"
	default:
		return "invalid"
	}
}

// Purpose codes declaring a custom department entry on a building.
const (
	PurposeExpense uint32 = 0x87BD3990
	PurposeIncome  uint32 = 0x46261226
)

// ItemTypeForPurpose maps a purpose code to an item type.
func ItemTypeForPurpose(purpose uint32) ItemType {
	switch purpose {
	case PurposeExpense:
		return ItemTypeExpense
	case PurposeIncome:
		return ItemTypeIncome
	default:
		return ItemTypeInvalid
	}
}

// StringResourceKey locates a localized string in the host's resources.
type StringResourceKey struct {
	GroupID    uint32
	InstanceID uint32
}

// DepartmentInfo is one custom budget entry declared by a building.
// It is derived from the building's properties on every insert or remove
// and is never persisted.
type DepartmentInfo struct {
	NameKey     StringResourceKey
	Cost        int64
	Type        ItemType
	Department  DepartmentID
	Line        LineNumber
	BudgetGroup BudgetGroup
}

// IsIncome reports whether the entry contributes income.
func (i DepartmentInfo) IsIncome() bool {
	return i.Type == ItemTypeIncome
}

// ResourceKey identifies a persisted segment record.
type ResourceKey struct {
	Type     uint32
	Group    uint32
	Instance uint32
}

// RegistryResourceKey is the segment key the department registry is saved under.
var RegistryResourceKey = ResourceKey{
	Type:     0xFE005706,
	Group:    0xFE005707,
	Instance: 0,
}
